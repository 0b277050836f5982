package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wozobuyshop/Kidstalk3/internal/audio"
	"github.com/wozobuyshop/Kidstalk3/internal/fsm"
	"github.com/wozobuyshop/Kidstalk3/internal/lang"
)

type fakeGateway struct {
	mu             sync.Mutex
	translateCalls int
	replyCalls     int
	speechCalls    int

	translateResult TranslationResult
	translateErr    error
	replyResult     ReplyResult
	replyErr        error

	// When set, TranscribeAndTranslate and TranscribeReply block until the
	// channel is closed.
	release chan struct{}
}

func (g *fakeGateway) TranscribeAndTranslate(ctx context.Context, clip audio.Clip) (TranslationResult, error) {
	g.mu.Lock()
	g.translateCalls++
	release := g.release
	res, err := g.translateResult, g.translateErr
	g.mu.Unlock()
	if release != nil {
		<-release
	}
	return res, err
}

func (g *fakeGateway) TranscribeReply(ctx context.Context, clip audio.Clip, target lang.Language) (ReplyResult, error) {
	g.mu.Lock()
	g.replyCalls++
	release := g.release
	res, err := g.replyResult, g.replyErr
	g.mu.Unlock()
	if release != nil {
		<-release
	}
	return res, err
}

func (g *fakeGateway) SynthesizeSpeech(ctx context.Context, text string, voice lang.Language) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.speechCalls++
	return "", nil
}

func (g *fakeGateway) calls() (translate, reply int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.translateCalls, g.replyCalls
}

type fakeRecorder struct {
	mu          sync.Mutex
	clip        audio.Clip
	startErr    error
	finalizeErr error
	starts      int
	cancels     int
	finalizes   int

	// When set, the first Finalize blocks until the channel is closed,
	// standing in for a slow PulseAudio drain.
	finalizeRelease chan struct{}
}

func (r *fakeRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	return r.startErr
}

func (r *fakeRecorder) Finalize(ctx context.Context) (audio.Clip, error) {
	r.mu.Lock()
	r.finalizes++
	release := r.finalizeRelease
	if release != nil {
		r.finalizeRelease = nil
	}
	clip, err := r.clip, r.finalizeErr
	r.mu.Unlock()
	if release != nil {
		<-release
	}
	return clip, err
}

func (r *fakeRecorder) Cancel(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels++
	return nil
}

type spokenText struct {
	Text  string
	Voice lang.Language
}

type fakeSpeaker struct {
	mu     sync.Mutex
	err    error
	spoken []spokenText
}

func (s *fakeSpeaker) Speak(ctx context.Context, text string, voice lang.Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, spokenText{Text: text, Voice: voice})
	return s.err
}

func (s *fakeSpeaker) all() []spokenText {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]spokenText(nil), s.spoken...)
}

type fakeSharer struct {
	mu     sync.Mutex
	shared []string
}

func (s *fakeSharer) Share(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shared = append(s.shared, text)
	return nil
}

func testClip() audio.Clip {
	return audio.ClipFromPCM([]byte{0x01, 0x02, 0x03, 0x04}, audio.CaptureSampleRate, 1)
}

func testTranslation() TranslationResult {
	return TranslationResult{
		OriginalText:     "wach kliti?",
		DetectedLanguage: "Arabic (Darija)",
		Translations: map[string]string{
			"en": "Did you eat?",
			"ar": "هل أكلت؟",
			"fr": "As-tu mangé ?",
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T, opts Options) *Controller {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return NewController(opts)
}

func waitForState(t *testing.T, c *Controller, want fsm.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State() == want
	}, 2*time.Second, 5*time.Millisecond, "expected state %s", want)
}

func TestControllerHappyPath(t *testing.T) {
	gateway := &fakeGateway{translateResult: testTranslation()}
	recorder := &fakeRecorder{clip: testClip()}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.Equal(t, fsm.StateRecording, c.State())

	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateResult)

	snap := c.Snapshot()
	require.False(t, snap.IsRecording)
	require.False(t, snap.IsLoading)
	require.Empty(t, snap.Error)
	require.NotNil(t, snap.Transcription)
	require.Equal(t, "wach kliti?", snap.Transcription.OriginalText)
	require.Equal(t, "Did you eat?", snap.Transcription.Translations["en"])
	require.Equal(t, "As-tu mangé ?", snap.Transcription.Translations["fr"])
}

func TestControllerToggleStartsAndStops(t *testing.T) {
	gateway := &fakeGateway{translateResult: testTranslation()}
	recorder := &fakeRecorder{clip: testClip()}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.Toggle(ctx))
	require.Equal(t, fsm.StateRecording, c.State())
	require.NoError(t, c.Toggle(ctx))
	waitForState(t, c, fsm.StateResult)
}

func TestControllerEmptyClipIsSilentNoop(t *testing.T) {
	gateway := &fakeGateway{}
	recorder := &fakeRecorder{clip: audio.Clip{}}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	require.Equal(t, fsm.StateIdle, c.State())

	translate, reply := gateway.calls()
	require.Zero(t, translate)
	require.Zero(t, reply)
	require.Empty(t, c.Snapshot().Error)
}

func TestControllerCancelDiscardsRecording(t *testing.T) {
	gateway := &fakeGateway{}
	recorder := &fakeRecorder{clip: testClip()}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.Cancel(ctx))
	require.Equal(t, fsm.StateIdle, c.State())

	recorder.mu.Lock()
	cancels := recorder.cancels
	recorder.mu.Unlock()
	require.Equal(t, 1, cancels)

	translate, _ := gateway.calls()
	require.Zero(t, translate)
}

func TestControllerTranslateFailureShowsGenericMessage(t *testing.T) {
	gateway := &fakeGateway{translateErr: errors.New("upstream exploded: quota")}
	recorder := &fakeRecorder{clip: testClip()}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateError)

	snap := c.Snapshot()
	require.Equal(t, msgTranslateFailed, snap.Error)
	require.NotContains(t, snap.Error, "quota")
}

func TestControllerMissingCredentialHasDistinctMessage(t *testing.T) {
	gateway := &fakeGateway{translateErr: fmt.Errorf("preflight: %w", ErrMissingCredential)}
	recorder := &fakeRecorder{clip: testClip()}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateError)

	require.Equal(t, msgMissingCredential, c.Snapshot().Error)
}

func TestControllerRetryClearsError(t *testing.T) {
	gateway := &fakeGateway{translateErr: errors.New("boom")}
	recorder := &fakeRecorder{clip: testClip()}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateError)

	require.NoError(t, c.Reset(ctx))
	snap := c.Snapshot()
	require.Equal(t, string(fsm.StateIdle), snap.State)
	require.Empty(t, snap.Error)
}

func TestControllerCaptureStartFailureEntersErrorState(t *testing.T) {
	recorder := &fakeRecorder{startErr: errors.New("pulse: connection refused")}
	c := newTestController(t, Options{Gateway: &fakeGateway{}, Recorder: recorder})

	err := c.StartRecording(context.Background())
	require.Error(t, err)
	require.Equal(t, fsm.StateError, c.State())
	require.Equal(t, msgCaptureFailed, c.Snapshot().Error)
}

func TestControllerDuplicateStopRejected(t *testing.T) {
	release := make(chan struct{})
	gateway := &fakeGateway{translateResult: testTranslation(), release: release}
	recorder := &fakeRecorder{clip: testClip()}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	require.Equal(t, fsm.StateTranslating, c.State())

	err := c.StopRecording(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid transition")

	err = c.StartRecording(ctx)
	require.Error(t, err)

	close(release)
	c.Wait()

	translate, _ := gateway.calls()
	require.Equal(t, 1, translate)
}

func TestControllerSubmitFileBypassesCapture(t *testing.T) {
	gateway := &fakeGateway{translateResult: testTranslation()}
	recorder := &fakeRecorder{}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, testClip().Bytes, 0o600))

	require.NoError(t, c.SubmitFile(context.Background(), path))
	waitForState(t, c, fsm.StateResult)

	recorder.mu.Lock()
	starts := recorder.starts
	recorder.mu.Unlock()
	require.Zero(t, starts)
}

func TestControllerSubmitRejectsUnknownExtension(t *testing.T) {
	c := newTestController(t, Options{Gateway: &fakeGateway{}, Recorder: &fakeRecorder{}})
	err := c.SubmitFile(context.Background(), filepath.Join(t.TempDir(), "clip.txt"))
	require.Error(t, err)
	require.Equal(t, fsm.StateIdle, c.State())
}

func TestControllerReplyFlowSpeaksResultAutomatically(t *testing.T) {
	gateway := &fakeGateway{
		translateResult: testTranslation(),
		replyResult: ReplyResult{
			ChildOriginalText: "ana chb3t",
			TranslatedReply:   "Je n'ai plus faim",
			TargetLanguage:    lang.French,
		},
	}
	recorder := &fakeRecorder{clip: testClip()}
	speaker := &fakeSpeaker{}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder, Speaker: speaker})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateResult)

	require.NoError(t, c.SelectReply(ctx, lang.French))
	require.Equal(t, fsm.StateReplyIdle, c.State())
	require.Equal(t, "fr", c.Snapshot().ReplyTarget)

	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateReplyResult)
	c.Wait()

	snap := c.Snapshot()
	require.NotNil(t, snap.Reply)
	require.Equal(t, "Je n'ai plus faim", snap.Reply.TranslatedReply)
	require.Equal(t, "fr", snap.Reply.TargetLanguage)
	// The primary transcription stays on display underneath the reply flow.
	require.NotNil(t, snap.Transcription)

	spoken := speaker.all()
	require.Len(t, spoken, 1)
	require.Equal(t, "Je n'ai plus faim", spoken[0].Text)
	require.Equal(t, lang.French, spoken[0].Voice)
}

func TestControllerReplyAutoSpeechFailureKeepsResult(t *testing.T) {
	gateway := &fakeGateway{
		translateResult: testTranslation(),
		replyResult:     ReplyResult{ChildOriginalText: "la", TranslatedReply: "No", TargetLanguage: lang.English},
	}
	recorder := &fakeRecorder{clip: testClip()}
	speaker := &fakeSpeaker{err: errors.New("playback device gone")}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder, Speaker: speaker})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateResult)
	require.NoError(t, c.SelectReply(ctx, lang.English))
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateReplyResult)
	c.Wait()

	snap := c.Snapshot()
	require.NotNil(t, snap.Reply)
	require.Empty(t, snap.Error)
}

func TestControllerReplyFailureReturnsToReplyIdle(t *testing.T) {
	gateway := &fakeGateway{
		translateResult: testTranslation(),
		replyErr:        errors.New("gateway 500"),
	}
	recorder := &fakeRecorder{clip: testClip()}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateResult)
	require.NoError(t, c.SelectReply(ctx, lang.Arabic))
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateReplyIdle)

	snap := c.Snapshot()
	require.Equal(t, msgReplyFailed, snap.Error)
	require.Nil(t, snap.Reply)
	require.Equal(t, "ar", snap.ReplyTarget)
}

func TestControllerDismissMidTranslationDiscardsLateResult(t *testing.T) {
	release := make(chan struct{})
	gateway := &fakeGateway{
		translateResult: testTranslation(),
		replyResult:     ReplyResult{ChildOriginalText: "x", TranslatedReply: "late", TargetLanguage: lang.English},
	}
	recorder := &fakeRecorder{clip: testClip()}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateResult)
	require.NoError(t, c.SelectReply(ctx, lang.English))

	gateway.mu.Lock()
	gateway.release = release
	gateway.mu.Unlock()

	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	require.Equal(t, fsm.StateReplyTranslating, c.State())

	// Dismiss while the gateway round is still in flight: the transcription
	// is on display, so the session falls back to the primary result.
	require.NoError(t, c.DismissReply(ctx))
	require.Equal(t, fsm.StateResult, c.State())

	close(release)
	c.Wait()

	snap := c.Snapshot()
	require.Equal(t, string(fsm.StateResult), snap.State)
	require.Nil(t, snap.Reply)
	require.Empty(t, snap.Error)
	require.Empty(t, snap.ReplyTarget)
}

func TestControllerSelectReplyRequiresDisplayedResult(t *testing.T) {
	c := newTestController(t, Options{Gateway: &fakeGateway{}, Recorder: &fakeRecorder{}})
	err := c.SelectReply(context.Background(), lang.French)
	require.Error(t, err)
	require.Equal(t, fsm.StateIdle, c.State())
}

func TestControllerSpeakPlaysDisplayedTranslation(t *testing.T) {
	gateway := &fakeGateway{translateResult: testTranslation()}
	recorder := &fakeRecorder{clip: testClip()}
	speaker := &fakeSpeaker{}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder, Speaker: speaker})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateResult)

	require.NoError(t, c.Speak(ctx, lang.French))
	c.Wait()

	spoken := speaker.all()
	require.Len(t, spoken, 1)
	require.Equal(t, "As-tu mangé ?", spoken[0].Text)
	require.Equal(t, lang.French, spoken[0].Voice)
}

func TestControllerSpeakFailureSurfacesWithoutStateChange(t *testing.T) {
	gateway := &fakeGateway{translateResult: testTranslation()}
	recorder := &fakeRecorder{clip: testClip()}
	speaker := &fakeSpeaker{err: errors.New("sink gone")}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder, Speaker: speaker})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateResult)

	require.NoError(t, c.Speak(ctx, lang.English))
	c.Wait()

	snap := c.Snapshot()
	require.Equal(t, string(fsm.StateResult), snap.State)
	require.Equal(t, msgSpeechFailed, snap.Error)
}

func TestControllerSpeakWithNothingDisplayed(t *testing.T) {
	c := newTestController(t, Options{Gateway: &fakeGateway{}, Recorder: &fakeRecorder{}})
	err := c.Speak(context.Background(), lang.English)
	require.Error(t, err)
}

func TestControllerShareUsesDisplayedText(t *testing.T) {
	gateway := &fakeGateway{translateResult: testTranslation()}
	recorder := &fakeRecorder{clip: testClip()}
	sharer := &fakeSharer{}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder, Sharer: sharer})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateResult)

	require.NoError(t, c.Share(ctx, lang.Arabic))
	sharer.mu.Lock()
	defer sharer.mu.Unlock()
	require.Equal(t, []string{"هل أكلت؟"}, sharer.shared)
}

func TestControllerSlowFinalizeOutlivedByNewRecording(t *testing.T) {
	release := make(chan struct{})
	gateway := &fakeGateway{translateResult: testTranslation()}
	recorder := &fakeRecorder{clip: testClip(), finalizeRelease: release}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))

	stopDone := make(chan error, 1)
	go func() { stopDone <- c.StopRecording(ctx) }()
	require.Eventually(t, func() bool {
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		return recorder.finalizes >= 1
	}, 2*time.Second, 5*time.Millisecond, "stop never reached the recorder")

	// While the recorder is still draining, the user cancels and starts a
	// fresh recording. The drained clip belongs to the cancelled take and
	// must not be shipped against the new one.
	require.NoError(t, c.Cancel(ctx))
	require.NoError(t, c.StartRecording(ctx))

	close(release)
	require.NoError(t, <-stopDone)

	require.Equal(t, fsm.StateRecording, c.State())
	translate, _ := gateway.calls()
	require.Zero(t, translate)

	// The live recording is still in charge and stops normally.
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateResult)
	translate, _ = gateway.calls()
	require.Equal(t, 1, translate)
}

func TestControllerNewRecordingClearsPreviousResult(t *testing.T) {
	release := make(chan struct{})
	gateway := &fakeGateway{translateResult: testTranslation()}
	recorder := &fakeRecorder{clip: testClip()}
	c := newTestController(t, Options{Gateway: gateway, Recorder: recorder})

	ctx := context.Background()
	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	waitForState(t, c, fsm.StateResult)
	require.NotNil(t, c.Snapshot().Transcription)

	gateway.mu.Lock()
	gateway.release = release
	gateway.mu.Unlock()

	require.NoError(t, c.StartRecording(ctx))
	require.NoError(t, c.StopRecording(ctx))
	require.Equal(t, fsm.StateTranslating, c.State())

	// The previous round's output is gone before the new one lands.
	snap := c.Snapshot()
	require.True(t, snap.IsLoading)
	require.Nil(t, snap.Transcription)
	require.Nil(t, snap.Reply)
	require.Empty(t, snap.Error)

	close(release)
	c.Wait()
	waitForState(t, c, fsm.StateResult)
	require.NotNil(t, c.Snapshot().Transcription)
}

func TestControllerPreferencesReflectedInSnapshot(t *testing.T) {
	c := newTestController(t, Options{Gateway: &fakeGateway{}, Recorder: &fakeRecorder{}})

	snap := c.Snapshot()
	require.Equal(t, "en", snap.UILanguage)
	require.False(t, snap.DarkMode)

	c.SetUILanguage(lang.Arabic)
	c.SetDarkMode(true)

	snap = c.Snapshot()
	require.Equal(t, "ar", snap.UILanguage)
	require.True(t, snap.DarkMode)
}
