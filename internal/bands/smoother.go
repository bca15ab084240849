package bands

import (
	"github.com/kwami-ai/kwavatar/internal/config"
)

// Smoothed is the output of one smoothing pass: transient-blended band
// values plus a transient-blended overall level. These are the values the
// deformation stages read.
type Smoothed struct {
	Low   float64
	Mid   float64
	High  float64
	Ultra float64
	Level float64
}

// Smoother carries the exponential moving averages for one avatar instance
// across frames. Each instance owns exactly one Smoother; sharing one
// between concurrently running avatars would corrupt both.
//
// Two blend stages run per band per frame: an EMA removes flicker on
// sustained tones, then a transient blend mixes the instantaneous value
// back in so attacks still read visually.
type Smoother struct {
	low   float64
	mid   float64
	high  float64
	level float64
}

// Update advances the moving averages with this frame's raw band levels and
// returns the transient-blended values. ResponseSpeed widens the EMA
// factor; TransientBoost widens the onset blend.
func (s *Smoother) Update(raw Levels, p config.EffectParams) Smoothed {
	smoothFactor := 0.2 + p.ResponseSpeed*0.4
	blend := 0.25 + p.TransientBoost*0.45

	s.low += (raw.Low - s.low) * smoothFactor
	s.mid += (raw.Mid - s.mid) * smoothFactor
	s.high += (raw.High - s.high) * smoothFactor
	s.level += (raw.Level() - s.level) * smoothFactor

	return Smoothed{
		Low:   s.low*(1-blend) + raw.Low*blend,
		Mid:   s.mid*(1-blend) + raw.Mid*blend,
		High:  s.high*(1-blend) + raw.High*blend,
		Ultra: raw.Ultra,
		Level: s.level*(1-blend) + raw.Level()*blend,
	}
}

// Reset clears the accumulated averages, e.g. when the audio source is
// swapped out mid-session.
func (s *Smoother) Reset() {
	*s = Smoother{}
}
