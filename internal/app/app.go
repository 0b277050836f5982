// Package app wires configuration, IPC, and the session together. The first
// kidstalk invocation becomes the session owner; later invocations forward
// their command to it over the unix socket.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/wozobuyshop/Kidstalk3/internal/audio"
	"github.com/wozobuyshop/Kidstalk3/internal/cli"
	"github.com/wozobuyshop/Kidstalk3/internal/config"
	"github.com/wozobuyshop/Kidstalk3/internal/doctor"
	"github.com/wozobuyshop/Kidstalk3/internal/ipc"
	"github.com/wozobuyshop/Kidstalk3/internal/version"
)

const (
	forwardTimeout = 10 * time.Second
	probeTimeout   = 300 * time.Millisecond
	acquireRetries = 2
)

// Execute runs one invocation and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	cmd, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, "kidstalk:", err)
		return 2
	}

	switch cmd.Name {
	case "help":
		fmt.Fprint(stdout, cli.Usage())
		return 0
	case "version":
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	loaded, err := config.Load(cmd.ConfigPath)
	if err != nil {
		fmt.Fprintln(stderr, "kidstalk:", err)
		return 1
	}
	for _, w := range loaded.Warnings {
		if w.Line > 0 {
			fmt.Fprintf(stderr, "kidstalk: config warning (line %d): %s\n", w.Line, w.Message)
		} else {
			fmt.Fprintf(stderr, "kidstalk: config warning: %s\n", w.Message)
		}
	}

	switch cmd.Name {
	case "devices":
		return runDevices(ctx, stdout, stderr)
	case "doctor":
		return runDoctor(ctx, stdout, loaded)
	}

	// The owner process may run in a different working directory, so file
	// paths must travel absolute.
	if cmd.Name == "file" {
		abs, err := filepath.Abs(cmd.Arg)
		if err != nil {
			fmt.Fprintln(stderr, "kidstalk:", err)
			return 1
		}
		cmd.Arg = abs
	}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(stderr, "kidstalk:", err)
		return 1
	}

	if cmd.Name == "talk" {
		return runTalk(ctx, cmd, loaded, socketPath, stdout, stderr)
	}
	return forward(ctx, cmd.ToRequest(), socketPath, stdout, stderr)
}

// runTalk becomes the session owner, or forwards when one already runs.
func runTalk(
	ctx context.Context,
	cmd cli.Command,
	loaded config.Loaded,
	socketPath string,
	stdout io.Writer,
	stderr io.Writer,
) int {
	listener, err := ipc.Acquire(ctx, socketPath, probeTimeout, acquireRetries)
	if errors.Is(err, ipc.ErrAlreadyRunning) {
		return forward(ctx, cmd.ToRequest(), socketPath, stdout, stderr)
	}
	if err != nil {
		fmt.Fprintln(stderr, "kidstalk:", err)
		return 1
	}
	return runOwner(ctx, listener, loaded, stdout, stderr)
}

// forward sends one request to the running owner and renders the response.
func forward(ctx context.Context, req ipc.Request, socketPath string, stdout io.Writer, stderr io.Writer) int {
	resp, err := ipc.Send(ctx, socketPath, req, forwardTimeout)
	if err != nil {
		fmt.Fprintln(stderr, "kidstalk: no running session (start one with 'kidstalk')")
		return 1
	}

	if !resp.OK {
		fmt.Fprintln(stderr, "kidstalk:", resp.Error)
		return 1
	}
	if resp.Session != nil {
		renderSnapshot(stdout, *resp.Session)
		return 0
	}
	if resp.Message != "" {
		fmt.Fprintln(stdout, resp.Message)
	} else {
		fmt.Fprintln(stdout, resp.State)
	}
	return 0
}

func runDevices(ctx context.Context, stdout io.Writer, stderr io.Writer) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "kidstalk:", err)
		return 1
	}

	for _, dev := range devices {
		marker := " "
		if dev.Default {
			marker = "*"
		}
		status := dev.State
		if !dev.Available {
			status += ", unavailable"
		}
		if dev.Muted {
			status += ", muted"
		}
		fmt.Fprintf(stdout, "%s %-50s %s (%s)\n", marker, dev.ID, dev.Description, status)
	}
	return 0
}

func runDoctor(ctx context.Context, stdout io.Writer, loaded config.Loaded) int {
	checks := doctor.New(loaded, config.LoadCredential()).Run(ctx)
	doctor.Render(stdout, checks)
	if doctor.Failed(checks) {
		return 1
	}
	return 0
}
