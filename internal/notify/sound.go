package notify

import (
	"math"

	"github.com/wozobuyshop/Kidstalk3/internal/audio"
)

// Cue frequencies and durations. Short and quiet: these punctuate the
// session, they do not compete with speech playback.
type cueSpec struct {
	freqHz float64
	ms     int
}

var (
	cueStart    = cueSpec{freqHz: 880, ms: 120}
	cueComplete = cueSpec{freqHz: 990, ms: 150}
	cueError    = cueSpec{freqHz: 220, ms: 250}
	cueCancel   = cueSpec{freqHz: 440, ms: 80}
)

const cueAmplitude = 0.25

func (d *Desktop) cue(spec cueSpec) {
	if !d.cfg.SoundEnable || d.player == nil {
		return
	}
	d.player.Play(tone(spec.freqHz, spec.ms), audio.SynthesisSampleRate)
}

// tone renders a sine burst with a linear attack/release envelope so cues do
// not click at the edges.
func tone(freqHz float64, ms int) []float32 {
	total := audio.SynthesisSampleRate * ms / 1000
	if total <= 0 {
		return nil
	}

	ramp := total / 10
	if ramp < 1 {
		ramp = 1
	}

	samples := make([]float32, total)
	for i := range samples {
		envelope := 1.0
		if i < ramp {
			envelope = float64(i) / float64(ramp)
		} else if remaining := total - 1 - i; remaining < ramp {
			envelope = float64(remaining) / float64(ramp)
		}
		phase := 2 * math.Pi * freqHz * float64(i) / float64(audio.SynthesisSampleRate)
		samples[i] = float32(cueAmplitude * envelope * math.Sin(phase))
	}
	return samples
}
