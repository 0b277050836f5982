package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Gateway *jsoncGateway `json:"gateway"`
	UI      *jsoncUI      `json:"ui"`
	Audio   *jsoncAudio   `json:"audio"`
	Notify  *jsoncNotify  `json:"notify"`

	ShareCmd *string     `json:"share_cmd"`
	Debug    *jsoncDebug `json:"debug"`
}

type jsoncGateway struct {
	Endpoint  *string `json:"endpoint"`
	Model     *string `json:"model"`
	TTSModel  *string `json:"tts_model"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncUI struct {
	Language *string `json:"language"`
	DarkMode *bool   `json:"dark_mode"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncNotify struct {
	Enable         *bool   `json:"enable"`
	AppName        *string `json:"app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncDebug struct {
	AudioDump   *bool `json:"audio_dump"`
	GatewayDump *bool `json:"gateway_dump"`
}

// Parse reads configuration content as JSONC (// comments and trailing
// commas tolerated) layered over base.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if payload.Gateway != nil {
		if payload.Gateway.Endpoint != nil {
			cfg.Gateway.Endpoint = strings.TrimSpace(*payload.Gateway.Endpoint)
		}
		if payload.Gateway.Model != nil {
			cfg.Gateway.Model = strings.TrimSpace(*payload.Gateway.Model)
		}
		if payload.Gateway.TTSModel != nil {
			cfg.Gateway.TTSModel = strings.TrimSpace(*payload.Gateway.TTSModel)
		}
		if payload.Gateway.TimeoutMS != nil {
			cfg.Gateway.TimeoutMS = *payload.Gateway.TimeoutMS
		}
	}

	if payload.UI != nil {
		if payload.UI.Language != nil {
			cfg.UI.Language = strings.TrimSpace(*payload.UI.Language)
		}
		if payload.UI.DarkMode != nil {
			cfg.UI.DarkMode = *payload.UI.DarkMode
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.Notify != nil {
		if payload.Notify.Enable != nil {
			cfg.Notify.Enable = *payload.Notify.Enable
		}
		if payload.Notify.AppName != nil {
			cfg.Notify.AppName = strings.TrimSpace(*payload.Notify.AppName)
		}
		if payload.Notify.SoundEnable != nil {
			cfg.Notify.SoundEnable = *payload.Notify.SoundEnable
		}
		if payload.Notify.ErrorTimeoutMS != nil {
			cfg.Notify.ErrorTimeoutMS = *payload.Notify.ErrorTimeoutMS
		}
	}

	if payload.ShareCmd != nil {
		raw := *payload.ShareCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return fmt.Errorf("invalid share_cmd: %w", err)
		}
		cfg.Share = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.Debug != nil {
		if payload.Debug.AudioDump != nil {
			cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
		}
		if payload.Debug.GatewayDump != nil {
			cfg.Debug.EnableGatewayDump = *payload.Debug.GatewayDump
		}
	}

	return nil
}

// normalizeJSONC blanks // and /* */ comments outside strings, then blanks
// trailing commas, preserving byte offsets for error reporting.
func normalizeJSONC(content string) (string, error) {
	out := []byte(content)

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	blank := func(i int) {
		if out[i] != '\n' && out[i] != '\r' && out[i] != '\t' {
			out[i] = ' '
		}
	}

	for i := 0; i < len(out); i++ {
		ch := out[i]
		switch {
		case lineComment:
			if ch == '\n' || ch == '\r' {
				lineComment = false
				continue
			}
			blank(i)
		case blockComment:
			if ch == '*' && i+1 < len(out) && out[i+1] == '/' {
				blockComment = false
				out[i], out[i+1] = ' ', ' '
				i++
				continue
			}
			blank(i)
		case inString:
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
		case ch == '"':
			inString = true
		case ch == '/' && i+1 < len(out) && out[i+1] == '/':
			lineComment = true
			out[i], out[i+1] = ' ', ' '
			i++
		case ch == '/' && i+1 < len(out) && out[i+1] == '*':
			blockComment = true
			out[i], out[i+1] = ' ', ' '
			i++
		}
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	// Second pass: comments are gone, so any comma followed only by
	// whitespace before a closing brace/bracket is trailing.
	inString = false
	escape = false
	for i := 0; i < len(out); i++ {
		ch := out[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(out) && isJSONWhitespace(out[j]) {
				j++
			}
			if j < len(out) && (out[j] == '}' || out[j] == ']') {
				out[i] = ' '
			}
		}
	}

	return string(out), nil
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
