package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wozobuyshop/Kidstalk3/internal/lang"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	endpoint := strings.TrimSpace(cfg.Gateway.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("gateway.endpoint must not be empty")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("gateway.endpoint %q is not an absolute URL", endpoint)
	}
	if parsed.Scheme != "https" {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("gateway.endpoint %q is not https; credentials travel in headers", endpoint)})
	}
	if strings.TrimSpace(cfg.Gateway.Model) == "" {
		return nil, fmt.Errorf("gateway.model must not be empty")
	}
	if strings.TrimSpace(cfg.Gateway.TTSModel) == "" {
		return nil, fmt.Errorf("gateway.tts_model must not be empty")
	}
	if cfg.Gateway.TimeoutMS <= 0 {
		return nil, fmt.Errorf("gateway.timeout_ms must be > 0")
	}

	if _, err := lang.Parse(cfg.UI.Language); err != nil {
		return nil, fmt.Errorf("ui.language: %w", err)
	}

	if cfg.Notify.Enable && strings.TrimSpace(cfg.Notify.AppName) == "" {
		return nil, fmt.Errorf("notify.app_name must not be empty when notify.enable=true")
	}
	if cfg.Notify.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("notify.error_timeout_ms must be >= 0")
	}

	if len(cfg.Share.Argv) == 0 {
		return nil, fmt.Errorf("share_cmd must not be empty")
	}

	return warnings, nil
}
