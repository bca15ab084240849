// Package crystal drives the discrete formation variant of the avatar:
// orbiting shards around a pulsing core, animated by the same band
// smoothing and state blending the soft-body surface uses, mapped onto
// object transforms instead of vertex displacements.
package crystal

import (
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kwami-ai/kwavatar/internal/bands"
	"github.com/kwami-ai/kwavatar/internal/config"
	"github.com/kwami-ai/kwavatar/internal/engine"
)

// Pattern selects the formula family for shard base positions.
type Pattern int

const (
	PatternRandom Pattern = iota
	PatternSpiral
	PatternRings
)

// ParsePattern maps a CLI name to a pattern, defaulting to random.
func ParsePattern(s string) Pattern {
	switch s {
	case "spiral":
		return PatternSpiral
	case "rings":
		return PatternRings
	default:
		return PatternRandom
	}
}

func (p Pattern) String() string {
	switch p {
	case PatternSpiral:
		return "spiral"
	case PatternRings:
		return "rings"
	default:
		return "random"
	}
}

// Orbit and pulse tuning. The shard formulas are deliberately cheap:
// everything is a closed-form function of elapsed time, so a formation
// can be advanced at any frame rate without integration drift.
const (
	baseOrbitRadius   = 1.5
	verticalDriftAmp  = 0.22
	verticalDriftRate = 0.6

	listenContraction = 0.25
	listenBreathAmp   = 0.05
	listenBreathRate  = 2.0

	thinkSpeedBoost = 1.5
	thinkChaosAmp   = 0.2

	lowRadiusBoost = 0.45
	midSpeedBoost  = 1.2
	highScaleBoost = 0.6

	corePulseAmp   = 0.05
	corePulseRate  = 1.5
	coreAudioPulse = 0.3
	coreThinkAmp   = 0.08
	coreThinkRate  = 8.0
	coreListenAmp  = 0.06
	coreListenRate = 2.5
	coreSpinRate   = 0.4

	glowScaleMult     = 1.35
	glowBaseIntensity = 0.6
	glowHighBoost     = 0.8
)

// Shard is one orbiting object. The base fields are fixed at formation
// time; Position, Rotation, and Scale are rewritten every update.
type Shard struct {
	BasePos    mgl64.Vec3
	OrbitSpeed float64
	Phase      float64
	Spin       mgl64.Vec3
	BaseScale  float64

	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    float64
}

// Core is the central pulsing object.
type Core struct {
	Rotation mgl64.Vec3
	Scale    float64
}

// Glow mirrors the core at a fixed scale multiplier and carries the
// intensity value the renderer feeds into its additive pass.
type Glow struct {
	Rotation  mgl64.Vec3
	Scale     float64
	Intensity float64
}

// Formation is a set of shards plus core and glow, advanced from
// frequency snapshots. It shares the engine's smoothing and state
// machinery but owns its own instances, so a formation and a soft-body
// avatar can run side by side without coupling.
type Formation struct {
	shards   []Shard
	smoother bands.Smoother
	state    *engine.StateBlender
	params   config.EffectParams

	Core Core
	Glow Glow

	elapsed float64
}

// NewFormation builds count shards laid out by the pattern. The seed
// fixes the random pattern and the per-shard speeds and phases.
func NewFormation(count int, pattern Pattern, seed int64) *Formation {
	if count <= 0 {
		count = 12
	}
	rng := rand.New(rand.NewSource(seed))

	f := &Formation{
		shards: make([]Shard, count),
		state:  engine.NewStateBlender(),
		params: config.DefaultEffectParams(),
	}
	for i := range f.shards {
		s := &f.shards[i]
		s.BasePos = basePosition(pattern, i, count, rng)
		s.OrbitSpeed = 0.3 + rng.Float64()*0.5
		s.Phase = rng.Float64() * 2 * math.Pi
		s.Spin = mgl64.Vec3{
			(rng.Float64() - 0.5) * 1.6,
			(rng.Float64() - 0.5) * 1.6,
			(rng.Float64() - 0.5) * 1.6,
		}
		s.BaseScale = 0.12 + rng.Float64()*0.1
		s.Scale = s.BaseScale
	}
	f.Core.Scale = 1
	f.Glow.Scale = glowScaleMult
	f.Glow.Intensity = glowBaseIntensity
	return f
}

func basePosition(pattern Pattern, i, count int, rng *rand.Rand) mgl64.Vec3 {
	switch pattern {
	case PatternSpiral:
		// Golden-angle spiral climbing through the formation's height.
		t := float64(i) / float64(count)
		angle := float64(i) * 2.399963
		r := baseOrbitRadius * (0.4 + 0.6*t)
		return mgl64.Vec3{
			math.Cos(angle) * r,
			(t - 0.5) * 1.6,
			math.Sin(angle) * r,
		}
	case PatternRings:
		// Three stacked rings, shards spread evenly around each.
		ring := i % 3
		perRing := (count + 2) / 3
		angle := 2 * math.Pi * float64(i/3) / float64(perRing)
		r := baseOrbitRadius * (0.7 + 0.25*float64(ring))
		y := (float64(ring) - 1) * 0.6
		return mgl64.Vec3{math.Cos(angle) * r, y, math.Sin(angle) * r}
	default:
		// Random shell with radial jitter.
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*rng.Float64() - 1)
		r := baseOrbitRadius * (0.8 + rng.Float64()*0.4)
		return mgl64.Vec3{
			r * math.Sin(phi) * math.Cos(theta),
			r * math.Cos(phi) * 0.6,
			r * math.Sin(phi) * math.Sin(theta),
		}
	}
}

// Update advances the formation by dt seconds using this frame's
// frequency snapshot. nil freq means no audio; the formation keeps its
// idle motion.
func (f *Formation) Update(freq []byte, dt float64) {
	f.state.Advance()
	f.elapsed += dt

	var sm bands.Smoothed
	if freq != nil {
		sm = f.smoother.Update(bands.Extract(freq), f.params)
	}

	lb := f.state.ListeningBlend()
	tb := f.state.ThinkingBlend()

	reactivity := 0.0
	if f.params.Enabled {
		reactivity = f.params.Reactivity
	}

	radiusMult := (1 - listenContraction*lb) + sm.Low*lowRadiusBoost*reactivity
	speedMult := (1 + thinkSpeedBoost*tb) + sm.Mid*midSpeedBoost*reactivity
	scalePulse := 1 + sm.High*highScaleBoost*reactivity

	for i := range f.shards {
		s := &f.shards[i]

		angle := s.Phase + f.elapsed*s.OrbitSpeed*speedMult
		base := s.BasePos
		r := math.Hypot(base.X(), base.Z()) * radiusMult

		y := base.Y() + math.Sin(f.elapsed*verticalDriftRate+s.Phase)*verticalDriftAmp
		y += math.Sin(f.elapsed*listenBreathRate+s.Phase) * listenBreathAmp * lb

		pos := mgl64.Vec3{math.Cos(angle) * r, y, math.Sin(angle) * r}

		if tb > 0 {
			// Chaotic wobble: incommensurate frequencies per axis so the
			// perturbation never settles into a visible cycle.
			chaos := thinkChaosAmp * tb
			pos = pos.Add(mgl64.Vec3{
				math.Sin(f.elapsed*7.3 + s.Phase*2),
				math.Cos(f.elapsed*5.1 + s.Phase),
				math.Sin(f.elapsed*6.7 + s.Phase*3),
			}.Mul(chaos))
		}

		s.Position = pos
		s.Rotation = s.Spin.Mul(f.elapsed * speedMult)
		s.Scale = s.BaseScale * scalePulse
	}

	// Core pulse, overlaid with the state-specific patterns.
	pulse := math.Sin(f.elapsed*corePulseRate) * corePulseAmp
	pulse += sm.Level * coreAudioPulse * reactivity
	pulse += math.Sin(f.elapsed*coreThinkRate) * coreThinkAmp * tb
	pulse += math.Sin(f.elapsed*coreListenRate) * coreListenAmp * lb

	f.Core.Scale = 1 + pulse
	f.Core.Rotation = mgl64.Vec3{0, f.elapsed * coreSpinRate, 0}

	f.Glow.Rotation = f.Core.Rotation
	f.Glow.Scale = f.Core.Scale * glowScaleMult
	f.Glow.Intensity = glowBaseIntensity + sm.High*glowHighBoost
}

// Shards returns the live shard slice; valid until the next Update.
func (f *Formation) Shards() []Shard { return f.shards }

// SetListening flips the listening state.
func (f *Formation) SetListening(on bool) { f.state.SetListening(on) }

// StartThinking begins a thinking phase.
func (f *Formation) StartThinking(now time.Time, d time.Duration) {
	f.state.StartThinking(now, d)
}

// StopThinking ends the thinking phase.
func (f *Formation) StopThinking() { f.state.StopThinking() }

// SetParams swaps the effect tuning, normalized through Clamp.
func (f *Formation) SetParams(p config.EffectParams) { f.params = p.Clamp() }

// Blends returns the listening and thinking blend factors.
func (f *Formation) Blends() (listening, thinking float64) {
	return f.state.ListeningBlend(), f.state.ThinkingBlend()
}
