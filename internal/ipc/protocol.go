// Package ipc carries session commands between CLI invocations and the
// owning kidstalk process over a unix socket.
package ipc

// Request is one JSON-line command sent to the session owner.
type Request struct {
	Command string `json:"command"`
	// Arg carries the command operand: a language for reply/say/share, a
	// file path for submit, a theme name for theme.
	Arg string `json:"arg,omitempty"`
}

// TranslationPayload mirrors the displayed transcribe+translate result.
type TranslationPayload struct {
	OriginalText     string            `json:"originalText"`
	DetectedLanguage string            `json:"detectedLanguage"`
	Translations     map[string]string `json:"translations"`
}

// ReplyPayload mirrors the displayed reply result.
type ReplyPayload struct {
	ChildOriginalText string `json:"childOriginalText"`
	TranslatedReply   string `json:"translatedReply"`
	TargetLanguage    string `json:"targetLanguage"`
}

// Snapshot is a consistent view of the session aggregate for status output.
type Snapshot struct {
	State         string              `json:"state"`
	UILanguage    string              `json:"uiLanguage"`
	DarkMode      bool                `json:"darkMode"`
	IsRecording   bool                `json:"isRecording"`
	IsLoading     bool                `json:"isLoading"`
	ReplyTarget   string              `json:"replyTargetLanguage,omitempty"`
	Error         string              `json:"error,omitempty"`
	Transcription *TranslationPayload `json:"transcription,omitempty"`
	Reply         *ReplyPayload       `json:"replyResult,omitempty"`
}

// Response is the JSON-line reply for one request.
type Response struct {
	OK      bool      `json:"ok"`
	State   string    `json:"state,omitempty"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
	Session *Snapshot `json:"session,omitempty"`
}
