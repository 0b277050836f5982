package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CreateDebugFile opens a timestamped artifact file under the state debug
// directory, creating parents as needed. Callers own closing the handle.
func CreateDebugFile(prefix string, ext string) (*os.File, error) {
	dir, err := resolveDebugDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("ensure debug dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s.%s", prefix, time.Now().Format("20060102-150405.000"), ext)
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create debug file: %w", err)
	}
	return file, nil
}

// resolveDebugDir selects XDG_STATE_HOME when available, otherwise ~/.local/state.
func resolveDebugDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "kidstalk", "debug"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "kidstalk", "debug"), nil
}
