// Package notify surfaces session milestones as desktop notifications and
// short audio cues.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/wozobuyshop/Kidstalk3/internal/config"
)

// player is the cue playback surface of audio.Player.
type player interface {
	Play(samples []float32, sampleRate int)
}

// Desktop sends notify-send notifications and plays tone cues. All methods
// return immediately; the exec and playback run in the background.
type Desktop struct {
	logger *slog.Logger
	cfg    config.NotifyConfig
	player player

	wg sync.WaitGroup

	// run is swappable for tests.
	run func(ctx context.Context, argv []string) error
}

func New(logger *slog.Logger, cfg config.NotifyConfig, cuePlayer player) *Desktop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Desktop{logger: logger, cfg: cfg, player: cuePlayer, run: runNotifySend}
}

// Wait blocks until all pending notifications have been dispatched.
func (d *Desktop) Wait() {
	d.wg.Wait()
}

func (d *Desktop) Recording(ctx context.Context) {
	d.send(ctx, "Recording", "Listening...", false)
	d.cue(cueStart)
}

func (d *Desktop) Translating(ctx context.Context) {
	d.send(ctx, "Translating", "Sending your recording for translation...", false)
}

func (d *Desktop) Result(ctx context.Context, headline string) {
	d.send(ctx, "Translation ready", headline, false)
	d.cue(cueComplete)
}

func (d *Desktop) Failure(ctx context.Context, message string) {
	d.send(ctx, "Translation problem", message, true)
	d.cue(cueError)
}

func (d *Desktop) Idle(ctx context.Context) {
	d.cue(cueCancel)
}

// send dispatches one notify-send invocation in the background.
func (d *Desktop) send(ctx context.Context, summary string, body string, critical bool) {
	if !d.cfg.Enable {
		return
	}

	argv := d.buildArgv(summary, body, critical)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.run(ctx, argv); err != nil {
			d.logger.Warn("desktop notification failed", "summary", summary, "error", err)
		}
	}()
}

func (d *Desktop) buildArgv(summary string, body string, critical bool) []string {
	argv := []string{"notify-send", "--app-name=" + d.cfg.AppName}
	if critical {
		argv = append(argv, "--urgency=critical")
		if d.cfg.ErrorTimeoutMS > 0 {
			argv = append(argv, fmt.Sprintf("--expire-time=%d", d.cfg.ErrorTimeoutMS))
		}
	}
	return append(argv, summary, body)
}

func runNotifySend(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed != "" {
			return fmt.Errorf("%w: %s", err, trimmed)
		}
		return err
	}
	return nil
}
