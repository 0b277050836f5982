package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wozobuyshop/Kidstalk3/internal/audio"
	"github.com/wozobuyshop/Kidstalk3/internal/codec"
	"github.com/wozobuyshop/Kidstalk3/internal/lang"
	"github.com/wozobuyshop/Kidstalk3/internal/session"
)

// Synthesizer produces base64 s16le PCM speech for a piece of text.
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, text string, voice lang.Language) (string, error)
}

// samplePlayer is the playback surface of audio.Player.
type samplePlayer interface {
	Play(samples []float32, sampleRate int)
}

// Speaker turns text into audible speech: gateway synthesis, payload decode,
// then fire-and-forget playback.
type Speaker struct {
	logger *slog.Logger
	synth  Synthesizer
	player samplePlayer
}

func NewSpeaker(logger *slog.Logger, synth Synthesizer, player samplePlayer) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{logger: logger, synth: synth, player: player}
}

// Speak synthesizes and starts playback. It returns once playback has been
// handed to the player; it does not wait for the utterance to finish.
func (s *Speaker) Speak(ctx context.Context, text string, voice lang.Language) error {
	data, err := s.synth.SynthesizeSpeech(ctx, text, voice)
	if err != nil {
		return err
	}

	samples, truncated, err := codec.DecodeForPlayback(data)
	if err != nil {
		return fmt.Errorf("decode synthesized audio: %w", err)
	}
	if truncated {
		s.logger.Warn("synthesized audio had a partial trailing sample")
	}
	if len(samples) == 0 {
		return fmt.Errorf("decode synthesized audio: %w", session.ErrNoAudioGenerated)
	}

	s.player.Play(samples, audio.SynthesisSampleRate)
	return nil
}
