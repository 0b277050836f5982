package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jfreymuth/pulse"
)

// SynthesisSampleRate matches the fixed output format of the speech
// synthesis gateway: s16le mono at 24000 Hz.
const SynthesisSampleRate = 24000

// Player plays normalized float samples through PulseAudio. Playback is
// fire-and-forget: Play returns immediately and completion is not reported.
// Platform audio errors are logged and never fatal to the session.
type Player struct {
	logger *slog.Logger

	// One playback goroutine per call; overlapping calls play concurrently.
	wg sync.WaitGroup
}

// NewPlayer constructs a playback engine.
func NewPlayer(logger *slog.Logger) *Player {
	return &Player{logger: logger}
}

// Play begins playback of samples at the given rate without blocking.
func (p *Player) Play(samples []float32, sampleRate int) {
	if len(samples) == 0 {
		return
	}
	if sampleRate <= 0 {
		sampleRate = SynthesisSampleRate
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := playOnce(samples, sampleRate); err != nil {
			p.logWarn("speech playback failed", err)
		}
	}()
}

// Wait blocks until all in-flight playback goroutines finish. Used on
// shutdown so the process does not exit mid-utterance.
func (p *Player) Wait() {
	p.wg.Wait()
}

// playOnce owns one Pulse client/stream lifecycle for a single utterance.
func playOnce(samples []float32, sampleRate int) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("kidstalk"),
		pulse.ClientApplicationIconName("audio-speakers"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Float32Reader(func(buf []float32) (int, error) {
		if cursor >= len(samples) {
			return 0, pulse.EndOfData
		}

		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackMediaName("kidstalk speech"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play speech stream: %w", err)
	}
	return nil
}

func (p *Player) logWarn(message string, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Warn(message, "error", err.Error())
}
