// Package doctor runs environment health checks: configuration, credential,
// audio devices, gateway reachability, and the external helper commands.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"time"

	"github.com/wozobuyshop/Kidstalk3/internal/audio"
	"github.com/wozobuyshop/Kidstalk3/internal/config"
	"github.com/wozobuyshop/Kidstalk3/internal/ipc"
)

type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is one named health verdict.
type Check struct {
	Name   string
	Status Status
	Detail string
}

// Doctor bundles the checks against one loaded configuration. The seams
// exist so tests can run without Pulse, a network, or installed binaries.
type Doctor struct {
	loaded     config.Loaded
	credential config.Credential

	httpClient  *http.Client
	lookPath    func(string) (string, error)
	listDevices func(context.Context) ([]audio.Device, error)
	socketPath  func() (string, error)
}

func New(loaded config.Loaded, credential config.Credential) *Doctor {
	return &Doctor{
		loaded:      loaded,
		credential:  credential,
		httpClient:  &http.Client{Timeout: 3 * time.Second},
		lookPath:    exec.LookPath,
		listDevices: audio.ListDevices,
		socketPath:  ipc.RuntimeSocketPath,
	}
}

// Run executes every check and returns the verdicts in display order.
func (d *Doctor) Run(ctx context.Context) []Check {
	return []Check{
		d.checkConfig(),
		d.checkCredential(),
		d.checkRuntimeDir(),
		d.checkAudioInput(ctx),
		d.checkGateway(ctx),
		d.checkShareCommand(),
		d.checkNotifications(),
	}
}

// Failed reports whether any check has a fail verdict.
func Failed(checks []Check) bool {
	for _, c := range checks {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}

// Render writes checks in a fixed-width human-readable layout.
func Render(w io.Writer, checks []Check) {
	for _, c := range checks {
		fmt.Fprintf(w, "[%-4s] %-14s %s\n", c.Status, c.Name, c.Detail)
	}
}

func (d *Doctor) checkConfig() Check {
	if !d.loaded.Exists {
		return Check{Name: "config", Status: StatusWarn,
			Detail: fmt.Sprintf("%s not found; using defaults", d.loaded.Path)}
	}
	if n := len(d.loaded.Warnings); n > 0 {
		return Check{Name: "config", Status: StatusWarn,
			Detail: fmt.Sprintf("%s loaded with %d warning(s)", d.loaded.Path, n)}
	}
	return Check{Name: "config", Status: StatusOK, Detail: d.loaded.Path}
}

func (d *Doctor) checkCredential() Check {
	if !d.credential.Present() {
		return Check{Name: "credential", Status: StatusFail,
			Detail: "GEMINI_API_KEY is not set; translation calls will fail before reaching the network"}
	}
	return Check{Name: "credential", Status: StatusOK, Detail: "GEMINI_API_KEY is set"}
}

func (d *Doctor) checkRuntimeDir() Check {
	path, err := d.socketPath()
	if err != nil {
		return Check{Name: "runtime dir", Status: StatusFail, Detail: err.Error()}
	}
	return Check{Name: "runtime dir", Status: StatusOK, Detail: path}
}

func (d *Doctor) checkAudioInput(ctx context.Context) Check {
	devices, err := d.listDevices(ctx)
	if err != nil {
		return Check{Name: "audio input", Status: StatusFail,
			Detail: fmt.Sprintf("cannot reach PulseAudio: %v", err)}
	}

	usable := 0
	for _, dev := range devices {
		if dev.Available && !dev.Muted {
			usable++
		}
	}
	switch {
	case usable == 0 && len(devices) == 0:
		return Check{Name: "audio input", Status: StatusFail, Detail: "no input devices found"}
	case usable == 0:
		return Check{Name: "audio input", Status: StatusWarn,
			Detail: fmt.Sprintf("%d device(s) found but none usable (unavailable or muted)", len(devices))}
	default:
		return Check{Name: "audio input", Status: StatusOK,
			Detail: fmt.Sprintf("%d usable device(s)", usable)}
	}
}

func (d *Doctor) checkGateway(ctx context.Context) Check {
	endpoint := d.loaded.Config.Gateway.Endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Check{Name: "gateway", Status: StatusFail, Detail: err.Error()}
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return Check{Name: "gateway", Status: StatusFail,
			Detail: fmt.Sprintf("%s unreachable: %v", endpoint, err)}
	}
	resp.Body.Close()
	// Any HTTP response means the endpoint is reachable; auth and routing
	// are exercised by real calls, not here.
	return Check{Name: "gateway", Status: StatusOK,
		Detail: fmt.Sprintf("%s reachable (status %d)", endpoint, resp.StatusCode)}
}

func (d *Doctor) checkShareCommand() Check {
	argv := d.loaded.Config.Share.Argv
	if len(argv) == 0 {
		return Check{Name: "share command", Status: StatusWarn, Detail: "no share command configured"}
	}
	if _, err := d.lookPath(argv[0]); err != nil {
		return Check{Name: "share command", Status: StatusWarn,
			Detail: fmt.Sprintf("%q not found in PATH", argv[0])}
	}
	return Check{Name: "share command", Status: StatusOK, Detail: argv[0]}
}

func (d *Doctor) checkNotifications() Check {
	if !d.loaded.Config.Notify.Enable {
		return Check{Name: "notifications", Status: StatusOK, Detail: "disabled"}
	}
	if _, err := d.lookPath("notify-send"); err != nil {
		return Check{Name: "notifications", Status: StatusWarn,
			Detail: "notify-send not found in PATH; notifications will be dropped"}
	}
	return Check{Name: "notifications", Status: StatusOK, Detail: "notify-send available"}
}
