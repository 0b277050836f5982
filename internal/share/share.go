// Package share builds messaging share links for translated text and hands
// them to the configured opener command.
package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"

	"github.com/wozobuyshop/Kidstalk3/internal/config"
)

const shareBaseURL = "https://wa.me/"

// Link builds the messaging deep link carrying the text as the prefilled
// message body.
func Link(text string) string {
	// QueryEscape uses + for spaces; the messaging endpoint wants %20.
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return shareBaseURL + "?text=" + escaped
}

// Opener launches the configured share command with the link appended as the
// final argument.
type Opener struct {
	logger *slog.Logger
	argv   []string

	// run is swappable for tests.
	run func(ctx context.Context, argv []string) error
}

func NewOpener(logger *slog.Logger, cmd config.CommandConfig) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{logger: logger, argv: cmd.Argv, run: runCommand}
}

// Share opens the share link for text via the configured command.
func (o *Opener) Share(ctx context.Context, text string) error {
	if len(o.argv) == 0 {
		return errors.New("no share command configured")
	}

	link := Link(text)
	argv := append(append([]string(nil), o.argv...), link)

	o.logger.Info("opening share link", "command", argv[0])
	if err := o.run(ctx, argv); err != nil {
		return fmt.Errorf("run share command %q: %w", argv[0], err)
	}
	return nil
}

func runCommand(ctx context.Context, argv []string) error {
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
