package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	share := "xdg-open"

	return Config{
		Gateway: GatewayConfig{
			Endpoint:  "https://generativelanguage.googleapis.com",
			Model:     "gemini-2.5-flash",
			TTSModel:  "gemini-2.5-flash-preview-tts",
			TimeoutMS: 30000,
		},
		UI: UIConfig{
			Language: "en",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Notify: NotifyConfig{
			Enable:         true,
			AppName:        "kidstalk",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Share: CommandConfig{Raw: share, Argv: mustParseArgv(share)},
		Debug: DebugConfig{},
	}
}
