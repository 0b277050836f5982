// Package pipeline assembles the capture and playback collaborators the
// session controller drives: microphone recording into clips and synthesized
// speech out through the speakers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wozobuyshop/Kidstalk3/internal/audio"
	"github.com/wozobuyshop/Kidstalk3/internal/config"
)

// Recorder owns at most one live capture at a time and turns it into a
// transport-ready clip on finalize.
type Recorder struct {
	logger    *slog.Logger
	audioCfg  config.AudioConfig
	dumpAudio bool

	mu      sync.Mutex
	capture *audio.Capture
}

func NewRecorder(logger *slog.Logger, audioCfg config.AudioConfig, dumpAudio bool) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger, audioCfg: audioCfg, dumpAudio: dumpAudio}
}

// Start resolves the configured input device and opens the record stream.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capture != nil {
		return errors.New("capture already in progress")
	}

	selection, err := audio.SelectDevice(ctx, r.audioCfg.Input, r.audioCfg.Fallback)
	if err != nil {
		return fmt.Errorf("select input device: %w", err)
	}
	if selection.Warning != "" {
		r.logger.Warn("audio input fallback", "warning", selection.Warning)
	}

	capture, err := audio.StartCapture(ctx, selection.Device)
	if err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	r.logger.Info("recording started", "device", selection.Device.ID)
	r.capture = capture
	return nil
}

// Finalize stops the stream and returns the accumulated audio as a clip. An
// empty clip means the user released the button without saying anything.
func (r *Recorder) Finalize(ctx context.Context) (audio.Clip, error) {
	r.mu.Lock()
	capture := r.capture
	r.capture = nil
	r.mu.Unlock()

	if capture == nil {
		return audio.Clip{}, errors.New("no capture in progress")
	}
	if err := capture.Stop(); err != nil {
		return audio.Clip{}, fmt.Errorf("stop capture: %w", err)
	}

	clip := audio.ClipFromPCM(capture.RawPCM(), audio.CaptureSampleRate, 1)
	r.logger.Info("recording finished",
		"device", capture.Device().ID, "bytes", capture.BytesCaptured(), "empty", clip.Empty())

	if r.dumpAudio && !clip.Empty() {
		r.dumpClip(clip)
	}
	return clip, nil
}

// Cancel stops the stream and discards whatever was captured.
func (r *Recorder) Cancel(ctx context.Context) error {
	r.mu.Lock()
	capture := r.capture
	r.capture = nil
	r.mu.Unlock()

	if capture == nil {
		return nil
	}
	r.logger.Info("recording cancelled", "device", capture.Device().ID)
	return capture.Stop()
}

func (r *Recorder) dumpClip(clip audio.Clip) {
	file, err := CreateDebugFile("capture", "wav")
	if err != nil {
		r.logger.Warn("create audio dump", "error", err)
		return
	}
	defer file.Close()
	if _, err := file.Write(clip.Bytes); err != nil {
		r.logger.Warn("write audio dump", "path", file.Name(), "error", err)
		return
	}
	r.logger.Debug("audio dump written", "path", file.Name(), "bytes", len(clip.Bytes))
}
