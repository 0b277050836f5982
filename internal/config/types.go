// Package config resolves, parses, validates, and defaults kidstalk
// configuration.
package config

// Config is the fully materialized runtime configuration used by kidstalk.
type Config struct {
	Gateway GatewayConfig
	UI      UIConfig
	Audio   AudioConfig
	Notify  NotifyConfig
	Share   CommandConfig
	Debug   DebugConfig
}

// GatewayConfig controls the generative-AI endpoint and model selection.
type GatewayConfig struct {
	Endpoint  string
	Model     string
	TTSModel  string
	TimeoutMS int
}

// UIConfig holds display-only session preferences.
type UIConfig struct {
	Language string
	DarkMode bool
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// NotifyConfig controls desktop notification and audio cue behavior.
type NotifyConfig struct {
	Enable         bool
	AppName        string
	SoundEnable    bool
	ErrorTimeoutMS int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump   bool
	EnableGatewayDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
