package engine

import (
	"time"

	"github.com/kwami-ai/kwavatar/internal/config"
)

// StateBlender tracks the two behavioral axes (listening, thinking) as
// continuously varying blend factors in [0, 1]. Each frame a factor steps
// by TransitionSpeed toward 1 while its flag is set and back toward 0 when
// cleared; there is no discrete terminal state, the factor simply
// saturates. Both axes can be mid-transition at once.
type StateBlender struct {
	listening bool
	thinking  bool

	listeningBlend float64
	thinkingBlend  float64

	thinkingStart    time.Time
	thinkingDuration time.Duration

	step float64
}

// NewStateBlender returns a blender at full idle.
func NewStateBlender() *StateBlender {
	return &StateBlender{step: config.TransitionSpeed}
}

// SetListening sets the listening target. The blend factor moves on the
// following ticks; nothing jumps.
func (b *StateBlender) SetListening(on bool) {
	b.listening = on
}

// Listening reports the current listening flag.
func (b *StateBlender) Listening() bool {
	return b.listening
}

// StartThinking begins a thinking phase of the given duration (the default
// is used when d <= 0). The progress clock restarts even if a phase was
// already running.
func (b *StateBlender) StartThinking(now time.Time, d time.Duration) {
	if d <= 0 {
		d = config.DefaultThinkingMs * time.Millisecond
	}
	b.thinking = true
	b.thinkingStart = now
	b.thinkingDuration = d
}

// StopThinking clears the thinking flag; the blend factor decays on the
// following ticks.
func (b *StateBlender) StopThinking() {
	b.thinking = false
}

// Thinking reports the current thinking flag.
func (b *StateBlender) Thinking() bool {
	return b.thinking
}

// Advance steps both blend factors one frame toward their targets.
func (b *StateBlender) Advance() {
	b.listeningBlend = stepToward(b.listeningBlend, b.listening, b.step)
	b.thinkingBlend = stepToward(b.thinkingBlend, b.thinking, b.step)
}

func stepToward(v float64, on bool, step float64) float64 {
	if on {
		v += step
		if v > 1 {
			v = 1
		}
	} else {
		v -= step
		if v < 0 {
			v = 0
		}
	}
	return v
}

// ListeningBlend returns the listening blend factor in [0, 1].
func (b *StateBlender) ListeningBlend() float64 {
	return b.listeningBlend
}

// ThinkingBlend returns the thinking blend factor in [0, 1].
func (b *StateBlender) ThinkingBlend() float64 {
	return b.thinkingBlend
}

// ThinkingProgress returns how far through the current thinking phase we
// are, in [0, 1]. Distinct from the blend factor: this drives the decaying
// pulse pattern, not the state mix.
func (b *StateBlender) ThinkingProgress(now time.Time) float64 {
	if b.thinkingStart.IsZero() || b.thinkingDuration <= 0 {
		return 0
	}
	p := float64(now.Sub(b.thinkingStart)) / float64(b.thinkingDuration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
