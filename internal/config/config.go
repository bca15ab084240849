package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Frame settings
const (
	Width  = 1280
	Height = 720
	FPS    = 60
)

// Audio settings
const (
	SampleRate = 44100
	FFTSize    = 2048

	// FrequencyBins is the number of magnitude samples in one frequency
	// snapshot handed to the engine each frame.
	FrequencyBins = 128
)

// Band split points as fractions of the frequency snapshot.
// low = [0, BandLowEnd), mid = [BandLowEnd, BandMidEnd),
// high = [BandMidEnd, BandHighEnd), ultra = [BandHighEnd, 1).
const (
	BandLowEnd  = 0.10
	BandMidEnd  = 0.40
	BandHighEnd = 0.70
)

// Deformation bounds
const (
	// MinDisplacement and MaxDisplacement clamp the per-vertex radial
	// displacement relative to the rest radius.
	MinDisplacement = 0.70
	MaxDisplacement = 1.22

	// TouchContribMin and TouchContribMax clamp the summed touch impulse
	// contribution before it joins the displacement.
	TouchContribMin = -0.70
	TouchContribMax = 0.50
)

// Touch impulse settings
const (
	MaxTouchPoints  = 5
	TouchDurationMs = 1100
	TouchRadius     = 2.1
	TouchFalloffPow = 3.2
)

// State transition settings
const (
	// TransitionSpeed is the per-frame step a listening/thinking blend
	// factor moves toward its target.
	TransitionSpeed = 0.05

	// DefaultThinkingMs bounds the thinking pulse pattern when the caller
	// gives no explicit duration.
	DefaultThinkingMs = 4000
)

// Audio activity thresholds. The overall fast level must exceed
// ActiveOnFactor*sensitivity to switch from idle breathing to audio-driven
// amplitude; hysteresis releases at level < sensitivity - ActiveOffMargin.
// Tunables: only the shape of the comparison matters.
const (
	ActiveOnFactor  = 0.75
	ActiveOffMargin = 0.20
)

// Idle motion
const (
	IdleRotationSpeed = 0.15 // radians per second around Y when not audio driven
	IdleAmplitude     = 0.16 // noise amplitude while fully idle
	ActiveAmplitude   = 0.08 // base noise amplitude while audio is active
)

// EffectParams is the full set of runtime tunables for the audio-reactive
// deformation. Supplied at construction and mutable between ticks by the
// owning avatar; the engine itself only reads it.
type EffectParams struct {
	Enabled bool

	// Per-axis noise frequency ("spike") and time-cursor rates.
	SpikeX, SpikeY, SpikeZ float64
	TimeX, TimeY, TimeZ    float64

	// Per-axis amplitude weights applied against |direction|.
	AmpX, AmpY, AmpZ float64

	// Band weights for the energy mix.
	BassWeight, MidWeight, HighWeight float64

	// Reactivity scales how strongly audio energy affects displacement.
	Reactivity float64

	// Sensitivity sets the activation threshold for "audio is driving".
	Sensitivity float64

	// Breathing is the idle-only scale oscillation coefficient.
	Breathing float64

	// ResponseSpeed in [0,1] widens the EMA smoothing factor.
	ResponseSpeed float64

	// TransientBoost in [0,1] widens the onset blend.
	TransientBoost float64

	// TimeModulation lets mid/high/ultra energy speed up the noise cursor.
	TimeModulation bool
}

// DefaultEffectParams returns the tuning the avatar ships with.
func DefaultEffectParams() EffectParams {
	return EffectParams{
		Enabled:        true,
		SpikeX:         0.2,
		SpikeY:         0.2,
		SpikeZ:         0.2,
		TimeX:          0.5,
		TimeY:          0.5,
		TimeZ:          0.5,
		AmpX:           1.0,
		AmpY:           1.0,
		AmpZ:           1.0,
		BassWeight:     1.0,
		MidWeight:      1.0,
		HighWeight:     1.0,
		Reactivity:     1.0,
		Sensitivity:    0.3,
		Breathing:      0.035,
		ResponseSpeed:  0.5,
		TransientBoost: 0.5,
		TimeModulation: true,
	}
}

// Clamp normalizes a parameter record into its supported ranges so a bad
// value coming from a UI control cannot destabilize the hot path.
func (p EffectParams) Clamp() EffectParams {
	p.SpikeX = clampRange(p.SpikeX, 0, 4)
	p.SpikeY = clampRange(p.SpikeY, 0, 4)
	p.SpikeZ = clampRange(p.SpikeZ, 0, 4)
	p.TimeX = clampRange(p.TimeX, 0, 4)
	p.TimeY = clampRange(p.TimeY, 0, 4)
	p.TimeZ = clampRange(p.TimeZ, 0, 4)
	p.AmpX = clampRange(p.AmpX, 0, 2)
	p.AmpY = clampRange(p.AmpY, 0, 2)
	p.AmpZ = clampRange(p.AmpZ, 0, 2)
	p.BassWeight = clampRange(p.BassWeight, 0, 3)
	p.MidWeight = clampRange(p.MidWeight, 0, 3)
	p.HighWeight = clampRange(p.HighWeight, 0, 3)
	p.Reactivity = clampRange(p.Reactivity, 0, 3)
	p.Sensitivity = clampRange(p.Sensitivity, 0, 1)
	p.Breathing = clampRange(p.Breathing, 0, 0.2)
	p.ResponseSpeed = clampRange(p.ResponseSpeed, 0, 1)
	p.TransientBoost = clampRange(p.TransientBoost, 0, 1)
	return p
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Appearance defaults for the renderer tint (avatar body color).
const (
	TintR = 94
	TintG = 197
	TintB = 255
)

// ParseHexColor parses "RRGGBB" or "#RRGGBB" into RGB components.
func ParseHexColor(s string) (r, g, b uint8, err error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 || strings.ContainsAny(hex, "#") {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}
