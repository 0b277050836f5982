package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wozobuyshop/Kidstalk3/internal/audio"
	"github.com/wozobuyshop/Kidstalk3/internal/fsm"
	"github.com/wozobuyshop/Kidstalk3/internal/ipc"
	"github.com/wozobuyshop/Kidstalk3/internal/lang"
)

// User-facing messages. The missing-credential case gets its own message so a
// setup problem is distinguishable from a transient failure; everything else
// collapses to a retry prompt and the detail goes to the log only.
const (
	msgMissingCredential = "Translation is not set up yet: the GEMINI_API_KEY credential is missing."
	msgTranslateFailed   = "Sorry, translation failed. Please try again."
	msgReplyFailed       = "Sorry, the reply could not be translated. Please try again."
	msgSpeechFailed      = "Sorry, speech playback failed. Please try again."
	msgCaptureFailed     = "Could not record from the microphone. Check your audio setup and try again."
)

// Options configures a Controller. Nil collaborators are replaced with inert
// fallbacks so a partially wired session still answers commands.
type Options struct {
	Logger     *slog.Logger
	Gateway    Gateway
	Recorder   Recorder
	Speaker    Speaker
	Sharer     Sharer
	Notifier   Notifier
	UILanguage lang.Language
	DarkMode   bool
}

// Controller serializes all session mutations behind one mutex. Gateway
// completions arrive asynchronously and are stamped with the epoch at which
// they were issued; a completion whose epoch no longer matches is discarded,
// which is what makes dismiss-while-translating safe.
type Controller struct {
	logger   *slog.Logger
	gateway  Gateway
	recorder Recorder
	speaker  Speaker
	sharer   Sharer
	notifier Notifier

	mu          sync.Mutex
	state       fsm.State
	epoch       uint64
	uiLanguage  lang.Language
	darkMode    bool
	replyTarget lang.Language
	lastError   string
	result      *TranslationResult
	reply       *ReplyResult

	wg sync.WaitGroup
}

func NewController(opts Options) *Controller {
	c := &Controller{
		logger:     opts.Logger,
		gateway:    opts.Gateway,
		recorder:   opts.Recorder,
		speaker:    opts.Speaker,
		sharer:     opts.Sharer,
		notifier:   opts.Notifier,
		state:      fsm.StateIdle,
		uiLanguage: opts.UILanguage,
		darkMode:   opts.DarkMode,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.gateway == nil {
		c.gateway = noopGateway{}
	}
	if c.recorder == nil {
		c.recorder = noopRecorder{}
	}
	if c.speaker == nil {
		c.speaker = noopSpeaker{}
	}
	if c.sharer == nil {
		c.sharer = noopSharer{}
	}
	if c.notifier == nil {
		c.notifier = noopNotifier{}
	}
	if c.uiLanguage == "" {
		c.uiLanguage = lang.English
	}
	return c
}

// State returns the current machine state.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until all in-flight gateway and speech goroutines finish.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// transitionLocked applies one event and bumps the epoch. Callers hold mu.
func (c *Controller) transitionLocked(event fsm.Event) (fsm.State, error) {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return c.state, err
	}
	c.logger.Debug("session transition", "from", c.state, "event", event, "to", next)
	c.state = next
	c.epoch++
	return next, nil
}

// StartRecording begins microphone capture in the primary or reply branch.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if _, err := c.transitionLocked(fsm.EventStart); err != nil {
		c.mu.Unlock()
		return err
	}
	c.lastError = ""
	c.mu.Unlock()

	if err := c.recorder.Start(ctx); err != nil {
		c.logger.Error("start capture", "error", err)
		c.mu.Lock()
		c.applyCaptureFailureLocked(ctx)
		c.mu.Unlock()
		return err
	}
	c.notifier.Recording(ctx)
	return nil
}

// StopRecording finalizes capture and, for a non-empty clip, starts the
// asynchronous gateway round. An empty clip is silently discarded and the
// session returns to the idle state of its branch.
func (c *Controller) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if !fsm.Recording(c.state) {
		_, err := fsm.Transition(c.state, fsm.EventStop)
		c.mu.Unlock()
		return err
	}
	inReply := fsm.InReply(c.state)
	target := c.replyTarget
	issued := c.epoch
	c.mu.Unlock()

	clip, err := c.recorder.Finalize(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	// The epoch pins this finalize to the recording it belongs to. A cancel
	// or a fresh recording while the recorder was draining moved the epoch
	// on, and this clip must not be shipped against the new state.
	if c.epoch != issued || !fsm.Recording(c.state) {
		c.logger.Info("discarding stale capture finalize",
			"issued_epoch", issued, "current_epoch", c.epoch, "state", c.state)
		return nil
	}
	if err != nil {
		c.logger.Error("finalize capture", "error", err)
		c.applyCaptureFailureLocked(ctx)
		return err
	}
	if clip.Empty() {
		c.logger.Info("empty recording discarded")
		_, _ = c.transitionLocked(fsm.EventStopEmpty)
		c.notifier.Idle(ctx)
		return nil
	}
	if _, err := c.transitionLocked(fsm.EventStop); err != nil {
		return err
	}
	if inReply {
		c.launchReplyLocked(ctx, clip, target)
	} else {
		c.launchTranslateLocked(ctx, clip)
	}
	return nil
}

// Toggle starts capture when idle and finalizes it when recording. This is
// the default push-to-talk behaviour of a bare `kidstalk talk`.
func (c *Controller) Toggle(ctx context.Context) error {
	c.mu.Lock()
	recording := fsm.Recording(c.state)
	c.mu.Unlock()
	if recording {
		return c.StopRecording(ctx)
	}
	return c.StartRecording(ctx)
}

// Cancel discards an in-progress recording without contacting the gateway.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	recording := fsm.Recording(c.state)
	if _, err := c.transitionLocked(fsm.EventCancel); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	if recording {
		if err := c.recorder.Cancel(ctx); err != nil {
			c.logger.Warn("cancel capture", "error", err)
		}
	}
	c.notifier.Idle(ctx)
	return nil
}

// SubmitClip feeds a pre-recorded clip straight into translation, bypassing
// capture. Valid from idle and from a displayed result.
func (c *Controller) SubmitClip(ctx context.Context, clip audio.Clip) error {
	if clip.Empty() {
		return errors.New("audio clip is empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.transitionLocked(fsm.EventSubmit); err != nil {
		return err
	}
	c.launchTranslateLocked(ctx, clip)
	return nil
}

// SubmitFile loads an audio file from disk and submits it for translation.
func (c *Controller) SubmitFile(ctx context.Context, path string) error {
	clip, err := audio.ClipFromFile(path)
	if err != nil {
		return err
	}
	return c.SubmitClip(ctx, clip)
}

// SelectReply enters (or re-targets) the reply branch. A displayed
// transcription is required: the reply answers a specific translation.
func (c *Controller) SelectReply(ctx context.Context, target lang.Language) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return errors.New("no translation on display to reply to")
	}
	if _, err := c.transitionLocked(fsm.EventSelectReply); err != nil {
		return err
	}
	c.replyTarget = target
	c.reply = nil
	c.lastError = ""
	return nil
}

// DismissReply leaves the reply branch, discarding the reply target and any
// reply result. The primary transcription, if present, stays on display.
func (c *Controller) DismissReply(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	event := fsm.EventDismiss
	if c.result != nil {
		event = fsm.EventDismissToResult
	}
	if _, err := c.transitionLocked(event); err != nil {
		return err
	}
	c.replyTarget = ""
	c.reply = nil
	c.lastError = ""
	return nil
}

// Reset acknowledges a displayed error and returns to idle.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.transitionLocked(fsm.EventReset); err != nil {
		return err
	}
	c.lastError = ""
	return nil
}

// Speak plays the displayed text for the given language aloud. In the reply
// branch with a reply on display, the reply is spoken in its target voice
// regardless of the requested language. Playback failure surfaces in the
// error slot without changing state.
func (c *Controller) Speak(ctx context.Context, l lang.Language) error {
	c.mu.Lock()
	var text string
	voice := l
	if fsm.InReply(c.state) && c.reply != nil {
		text = c.reply.TranslatedReply
		voice = c.reply.TargetLanguage
	} else if c.result != nil {
		text = c.result.Translations[l.Code()]
	}
	c.mu.Unlock()

	if text == "" {
		return fmt.Errorf("nothing to speak for %s", l.Code())
	}
	c.speakAsync(ctx, text, voice, true)
	return nil
}

// Share hands the displayed text for the given language to the share target.
func (c *Controller) Share(ctx context.Context, l lang.Language) error {
	c.mu.Lock()
	var text string
	if fsm.InReply(c.state) && c.reply != nil {
		text = c.reply.TranslatedReply
	} else if c.result != nil {
		text = c.result.Translations[l.Code()]
	}
	c.mu.Unlock()

	if text == "" {
		return fmt.Errorf("nothing to share for %s", l.Code())
	}
	return c.sharer.Share(ctx, text)
}

// SetUILanguage changes the interface language preference.
func (c *Controller) SetUILanguage(l lang.Language) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uiLanguage = l
}

// SetDarkMode toggles the dark theme preference.
func (c *Controller) SetDarkMode(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.darkMode = enabled
}

// Snapshot returns a consistent view of the session for status output.
func (c *Controller) Snapshot() ipc.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := ipc.Snapshot{
		State:       string(c.state),
		UILanguage:  c.uiLanguage.Code(),
		DarkMode:    c.darkMode,
		IsRecording: fsm.Recording(c.state),
		IsLoading:   fsm.Loading(c.state),
		Error:       c.lastError,
	}
	if c.replyTarget != "" {
		snap.ReplyTarget = c.replyTarget.Code()
	}
	if c.result != nil {
		translations := make(map[string]string, len(c.result.Translations))
		for code, text := range c.result.Translations {
			translations[code] = text
		}
		snap.Transcription = &ipc.TranslationPayload{
			OriginalText:     c.result.OriginalText,
			DetectedLanguage: c.result.DetectedLanguage,
			Translations:     translations,
		}
	}
	if c.reply != nil {
		snap.Reply = &ipc.ReplyPayload{
			ChildOriginalText: c.reply.ChildOriginalText,
			TranslatedReply:   c.reply.TranslatedReply,
			TargetLanguage:    c.reply.TargetLanguage.Code(),
		}
	}
	return snap
}

// applyCaptureFailureLocked moves the session out of a recording state after
// a microphone error. The primary branch lands in the error state; the reply
// branch returns to reply_idle with the message in the shared error slot.
func (c *Controller) applyCaptureFailureLocked(ctx context.Context) {
	if _, err := c.transitionLocked(fsm.EventFail); err != nil {
		return
	}
	c.lastError = msgCaptureFailed
	c.notifier.Failure(ctx, msgCaptureFailed)
}

func (c *Controller) launchTranslateLocked(ctx context.Context, clip audio.Clip) {
	epoch := c.epoch
	c.result = nil
	c.reply = nil
	c.lastError = ""
	c.notifier.Translating(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := c.gateway.TranscribeAndTranslate(ctx, clip)
		c.completeTranslate(ctx, epoch, res, err)
	}()
}

func (c *Controller) completeTranslate(ctx context.Context, epoch uint64, res TranslationResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch || c.state != fsm.StateTranslating {
		c.logger.Info("discarding stale translation completion",
			"issued_epoch", epoch, "current_epoch", c.epoch, "state", c.state)
		return
	}
	if err != nil {
		c.logger.Error("transcribe and translate", "error", err)
		c.lastError = translateMessage(err)
		_, _ = c.transitionLocked(fsm.EventFail)
		c.notifier.Failure(ctx, c.lastError)
		return
	}
	copied := res
	c.result = &copied
	_, _ = c.transitionLocked(fsm.EventSucceed)
	c.notifier.Result(ctx, res.OriginalText)
}

func (c *Controller) launchReplyLocked(ctx context.Context, clip audio.Clip, target lang.Language) {
	epoch := c.epoch
	c.reply = nil
	c.lastError = ""
	c.notifier.Translating(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := c.gateway.TranscribeReply(ctx, clip, target)
		c.completeReply(ctx, epoch, res, err)
	}()
}

func (c *Controller) completeReply(ctx context.Context, epoch uint64, res ReplyResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch || c.state != fsm.StateReplyTranslating {
		c.logger.Info("discarding stale reply completion",
			"issued_epoch", epoch, "current_epoch", c.epoch, "state", c.state)
		return
	}
	if err != nil {
		c.logger.Error("transcribe reply", "error", err)
		c.lastError = replyMessage(err)
		_, _ = c.transitionLocked(fsm.EventFail)
		c.notifier.Failure(ctx, c.lastError)
		return
	}
	copied := res
	c.reply = &copied
	_, _ = c.transitionLocked(fsm.EventSucceed)
	c.notifier.Result(ctx, res.TranslatedReply)

	// The reply is read aloud automatically. A playback failure must not
	// disturb the displayed result, so it is logged and nothing else.
	c.speakAsync(ctx, res.TranslatedReply, res.TargetLanguage, false)
}

// speakAsync synthesizes and plays text in the background. When surface is
// true a failure lands in the error slot; otherwise it is only logged.
func (c *Controller) speakAsync(ctx context.Context, text string, voice lang.Language, surface bool) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.speaker.Speak(ctx, text, voice); err != nil {
			c.logger.Error("speech synthesis", "error", err, "voice", voice.Code())
			if !surface {
				return
			}
			c.mu.Lock()
			c.lastError = speechMessage(err)
			c.mu.Unlock()
		}
	}()
}

func translateMessage(err error) string {
	if errors.Is(err, ErrMissingCredential) {
		return msgMissingCredential
	}
	return msgTranslateFailed
}

func replyMessage(err error) string {
	if errors.Is(err, ErrMissingCredential) {
		return msgMissingCredential
	}
	return msgReplyFailed
}

func speechMessage(err error) string {
	if errors.Is(err, ErrMissingCredential) {
		return msgMissingCredential
	}
	return msgSpeechFailed
}
