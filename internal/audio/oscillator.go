package audio

import (
	"math"
	"math/rand"

	"github.com/kwami-ai/kwavatar/internal/config"
)

// Oscillator is a synthetic frequency source for running the avatar
// without an input file. It writes band-shaped envelopes straight into
// the snapshot: a slow bass swell, a wandering mid hump, and sparse
// high-end sparkle. Deterministic for a given seed.
type Oscillator struct {
	rng     *rand.Rand
	t       float64
	dt      float64
	sparkle []float64
}

// NewOscillator creates a source ticking at the given frame rate.
func NewOscillator(seed int64, fps int) *Oscillator {
	if fps <= 0 {
		fps = config.FPS
	}
	return &Oscillator{
		rng:     rand.New(rand.NewSource(seed)),
		dt:      1.0 / float64(fps),
		sparkle: make([]float64, config.FrequencyBins),
	}
}

// Available always reports true; the oscillator never runs dry.
func (o *Oscillator) Available() bool { return true }

// FrequencyData fills dst with the next synthetic snapshot.
func (o *Oscillator) FrequencyData(dst []byte) bool {
	o.t += o.dt

	// Bass swell: slow beat with a sharper pulse riding on it.
	bass := 0.45 + 0.35*math.Sin(o.t*1.7) + 0.2*math.Max(0, math.Sin(o.t*6.4))

	// Mid hump wanders through the middle of the spectrum.
	midCenter := 0.25 + 0.25*(1+math.Sin(o.t*0.9))/2
	midLevel := 0.3 + 0.25*math.Sin(o.t*2.3+1.1)

	// Sparkle decays each frame; occasionally a high bin gets kicked.
	for i := range o.sparkle {
		o.sparkle[i] *= 0.82
	}
	if o.rng.Float64() < 0.22 {
		hi := len(o.sparkle)*7/10 + o.rng.Intn(len(o.sparkle)*3/10)
		o.sparkle[hi] = 0.5 + o.rng.Float64()*0.5
	}

	n := len(dst)
	for i := 0; i < n; i++ {
		pos := float64(i) / float64(n)

		v := 0.0
		if pos < config.BandLowEnd*2 {
			v += bass * (1 - pos/(config.BandLowEnd*2))
		}

		d := (pos - midCenter) / 0.12
		v += math.Max(0, midLevel) * math.Exp(-d*d)

		if i < len(o.sparkle) {
			v += o.sparkle[i]
		}

		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		dst[i] = byte(v * 255)
	}
	return true
}
