// Package session owns the translation session aggregate: the state machine,
// the displayed results, and the orchestration of capture, gateway calls, and
// playback around them.
package session

import (
	"context"
	"errors"

	"github.com/wozobuyshop/Kidstalk3/internal/audio"
	"github.com/wozobuyshop/Kidstalk3/internal/lang"
)

// Sentinel errors shared between the gateway client and the controller. The
// controller maps them to user-facing messages; everything else collapses to
// a generic retry message with the detail kept in the log.
var (
	ErrMissingCredential = errors.New("gateway credential is not configured")
	ErrResponseFormat    = errors.New("gateway response did not match the expected shape")
	ErrNoAudioGenerated  = errors.New("gateway returned no synthesized audio")
)

// TranslationResult is a completed transcribe+translate round. Translations
// is keyed by language code and always carries all supported languages.
type TranslationResult struct {
	OriginalText     string
	DetectedLanguage string
	Translations     map[string]string
}

// ReplyResult is a completed child-reply round: the child's words verbatim
// plus their translation into the parent's chosen language.
type ReplyResult struct {
	ChildOriginalText string
	TranslatedReply   string
	TargetLanguage    lang.Language
}

// Gateway performs the generative calls. Implementations must honor the
// context and return ErrMissingCredential before any network traffic when no
// credential is present.
type Gateway interface {
	TranscribeAndTranslate(ctx context.Context, clip audio.Clip) (TranslationResult, error)
	TranscribeReply(ctx context.Context, clip audio.Clip, target lang.Language) (ReplyResult, error)
	// SynthesizeSpeech returns base64-encoded 16-bit PCM for the given text.
	SynthesizeSpeech(ctx context.Context, text string, voice lang.Language) (string, error)
}

// Recorder drives microphone capture for one clip at a time.
type Recorder interface {
	Start(ctx context.Context) error
	// Finalize stops capture and returns the accumulated clip. An empty clip
	// is a valid outcome, not an error.
	Finalize(ctx context.Context) (audio.Clip, error)
	Cancel(ctx context.Context) error
}

// Speaker synthesizes and plays text aloud.
type Speaker interface {
	Speak(ctx context.Context, text string, voice lang.Language) error
}

// Sharer hands a piece of translated text off to an external share target.
type Sharer interface {
	Share(ctx context.Context, text string) error
}

// Notifier surfaces session milestones to the desktop. Implementations must
// return promptly; slow work has to be backgrounded.
type Notifier interface {
	Recording(ctx context.Context)
	Translating(ctx context.Context)
	Result(ctx context.Context, headline string)
	Failure(ctx context.Context, message string)
	Idle(ctx context.Context)
}

type noopGateway struct{}

func (noopGateway) TranscribeAndTranslate(context.Context, audio.Clip) (TranslationResult, error) {
	return TranslationResult{}, errors.New("no gateway configured")
}

func (noopGateway) TranscribeReply(context.Context, audio.Clip, lang.Language) (ReplyResult, error) {
	return ReplyResult{}, errors.New("no gateway configured")
}

func (noopGateway) SynthesizeSpeech(context.Context, string, lang.Language) (string, error) {
	return "", errors.New("no gateway configured")
}

type noopRecorder struct{}

func (noopRecorder) Start(context.Context) error { return errors.New("no recorder configured") }

func (noopRecorder) Finalize(context.Context) (audio.Clip, error) {
	return audio.Clip{}, errors.New("no recorder configured")
}

func (noopRecorder) Cancel(context.Context) error { return nil }

type noopSpeaker struct{}

func (noopSpeaker) Speak(context.Context, string, lang.Language) error { return nil }

type noopSharer struct{}

func (noopSharer) Share(context.Context, string) error {
	return errors.New("no share target configured")
}

type noopNotifier struct{}

func (noopNotifier) Recording(context.Context)      {}
func (noopNotifier) Translating(context.Context)    {}
func (noopNotifier) Result(context.Context, string) {}
func (noopNotifier) Failure(context.Context, string) {
}
func (noopNotifier) Idle(context.Context) {}
