// Package lang defines the closed set of translation languages and their
// gateway-facing names and voice profiles.
package lang

import (
	"fmt"
	"strings"
)

// Language is one of the three translation targets supported end to end.
type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"
	French  Language = "fr"
)

// All lists every supported language in stable display order.
func All() []Language {
	return []Language{English, Arabic, French}
}

// Parse resolves user input (code or English name) to a Language.
func Parse(raw string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "en", "english":
		return English, nil
	case "ar", "arabic", "darija":
		return Arabic, nil
	case "fr", "french":
		return French, nil
	default:
		return "", fmt.Errorf("unsupported language %q (expected en, ar, or fr)", raw)
	}
}

// Code returns the two-letter key used in gateway response shapes.
func (l Language) Code() string {
	return string(l)
}

// Name returns the English display name sent in translation instructions.
func (l Language) Name() string {
	switch l {
	case English:
		return "English"
	case Arabic:
		return "Arabic"
	case French:
		return "French"
	default:
		return string(l)
	}
}

// Voice returns the synthesis voice profile for a language code. Unmapped
// codes fall back to the default voice so synthesis never fails on lookup.
func Voice(code string) string {
	switch lng, err := Parse(code); {
	case err != nil:
		return defaultVoice
	case lng == English:
		return "Puck"
	case lng == Arabic:
		return "Zephyr"
	case lng == French:
		return "Leda"
	default:
		return defaultVoice
	}
}

const defaultVoice = "Kore"
