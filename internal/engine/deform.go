package engine

import (
	"math"
	"time"

	"github.com/kwami-ai/kwavatar/internal/bands"
	"github.com/kwami-ai/kwavatar/internal/config"
	"github.com/kwami-ai/kwavatar/internal/mesh"
	"github.com/kwami-ai/kwavatar/internal/noise"
)

// Result reports what one deformation pass did with the frame.
type Result struct {
	// AudioDriven is true when the audio level cleared the activation
	// threshold this frame; the caller uses it to gate idle rotation.
	AudioDriven bool

	// Scale is the whole-mesh breathing multiplier. 1.0 while audio is
	// actively driving the surface.
	Scale float64

	// Smoothed exposes the transient-blended band values for meters.
	Smoothed bands.Smoothed
}

// Deformer turns band energy, coherent noise, state blends, and touch
// impulses into bounded radial displacements, with an exponential
// viscosity pass against the previous frame. One Deformer per avatar
// instance; it owns all per-frame numeric state.
type Deformer struct {
	smoother bands.Smoother
	field    *noise.Field

	// prev holds last frame's smoothed displacement per vertex,
	// reallocated to neutral (1.0) whenever the vertex count changes.
	prev []float64

	cursor noise.Cursor
	active bool
}

// NewDeformer creates a deformer over a seeded noise field.
func NewDeformer(seed int64) *Deformer {
	return &Deformer{field: noise.New(seed)}
}

// Apply runs one deformation pass over the mesh. freq is this frame's
// frequency snapshot; dt is the seconds elapsed since the previous pass.
// Vertices are displaced radially, normals are recomputed once at the end.
func (d *Deformer) Apply(m *mesh.Sphere, freq []byte, st *StateBlender, touches *TouchField, p config.EffectParams, dt float64, now time.Time) Result {
	sm := d.smoother.Update(bands.Extract(freq), p)

	// Activation with hysteresis: engage above a fraction of sensitivity,
	// release only once the level falls well below it. Keeps the idle and
	// active amplitudes from flickering against each other near the
	// threshold.
	if !p.Enabled {
		d.active = false
	} else if d.active {
		if sm.Level < p.Sensitivity-config.ActiveOffMargin {
			d.active = false
		}
	} else if sm.Level > p.Sensitivity*config.ActiveOnFactor {
		d.active = true
	}

	weighted := sm.Low*p.BassWeight*0.55 +
		sm.Mid*p.MidWeight*0.85 +
		sm.High*p.HighWeight*0.7 +
		sm.Ultra*(0.25+p.TransientBoost*0.15)

	audioIntensity := 1.0
	if p.Enabled {
		audioIntensity = 1 + math.Min(2.6, weighted*p.Reactivity*1.75)
	}

	spikeEnv := math.Min(1.7, (sm.Mid*0.95+sm.High*1.35+sm.Ultra*0.75)*p.Reactivity)

	// Advance the noise cursor. Audio can speed it up (time modulation);
	// activity slows it so the surface does not scroll too fast while the
	// shape is already being driven hard.
	timeMod := 1.0
	if p.Enabled && p.TimeModulation {
		timeMod = 1 + sm.Mid*0.6 + sm.High*0.9 + sm.Ultra*0.5
	}
	activity := 1.0
	if d.active {
		activity = 0.55
	}
	d.cursor.X += dt * p.TimeX * timeMod * activity
	d.cursor.Y += dt * p.TimeY * timeMod * activity
	d.cursor.Z += dt * p.TimeZ * timeMod * activity

	// Base amplitude: calmer while audio actively drives the shape,
	// larger while fully idle, which reads as breathing.
	var amp float64
	if d.active {
		amp = config.ActiveAmplitude + spikeEnv*(0.09+p.TransientBoost*0.04)
	} else {
		amp = config.IdleAmplitude
	}

	energyMult := 1 + weighted*(0.85+p.TransientBoost*0.15)
	detailStrength := sm.High * (0.35 + p.TransientBoost*0.25)

	lb := st.ListeningBlend()
	tb := st.ThinkingBlend()
	thinkProgress := st.ThinkingProgress(now)
	thinkPulse := math.Sin(thinkProgress * 2 * math.Pi * 5)
	thinkFade := 1 - thinkProgress*thinkProgress

	// Viscosity strength: heavier smoothing when active, and band energy
	// loosens it so onsets still land.
	baseCap, activeCap := 0.28, 0.65
	if d.active {
		baseCap, activeCap = 0.40, 0.92
	}
	smoothing := math.Min(activeCap,
		baseCap+sm.Mid*(0.28+p.TransientBoost*0.08)+sm.Low*(0.18+p.TransientBoost*0.05))

	count := m.VertexCount()
	if len(d.prev) != count {
		d.prev = make([]float64, count)
		for i := range d.prev {
			d.prev[i] = 1.0
		}
	}

	radius := m.Radius()
	for i := 0; i < count; i++ {
		dir := m.Dir(i)
		dx, dy, dz := dir.X(), dir.Y(), dir.Z()

		vertexAmp := amp * audioIntensity *
			(math.Abs(dx)*p.AmpX + math.Abs(dy)*p.AmpY + math.Abs(dz)*p.AmpZ)

		n := d.field.Combined(dx, dy, dz, p.SpikeX, p.SpikeY, p.SpikeZ, d.cursor)
		det := d.field.Detail(dx, dy, dz, p.SpikeX, p.SpikeY, p.SpikeZ, d.cursor)

		// Speaking expands along the noise field; listening is the
		// negated, slightly reweighted contraction of the same field.
		speaking := vertexAmp*n*energyMult + det*detailStrength
		listening := -vertexAmp * 0.85 * n * 1.1

		composed := speaking*(1-lb) + listening*lb
		if tb > 0.01 {
			// Thinking rides its own octave blend, pulsed by progress and
			// fading out as the phase completes.
			thinkN := d.field.Combined(dx*1.4, dy*1.4, dz*1.4, p.SpikeX, p.SpikeY, p.SpikeZ, d.cursor)
			thinking := vertexAmp * thinkN * thinkPulse * thinkFade
			composed = composed*(1-tb) + thinking*tb
		}

		displacement := 1 + composed
		if p.Enabled {
			// Baseline shift keeps sustained loud audio from inflating
			// the mesh's average volume.
			displacement -= weighted * 0.06
		}

		displacement += touches.Contribution(dir.Mul(radius), now)

		if displacement < config.MinDisplacement {
			displacement = config.MinDisplacement
		} else if displacement > config.MaxDisplacement {
			displacement = config.MaxDisplacement
		}

		smoothed := d.prev[i] + (displacement-d.prev[i])*smoothing
		d.prev[i] = smoothed
		m.SetRadial(i, smoothed)
	}

	m.RecomputeNormals()

	scale := 1.0
	if !d.active {
		scale = 1 + sm.Low*p.Breathing
	}

	return Result{
		AudioDriven: d.active,
		Scale:       scale,
		Smoothed:    sm,
	}
}

// Displacement returns last frame's smoothed displacement for vertex i,
// or neutral if the buffer has not been populated yet.
func (d *Deformer) Displacement(i int) float64 {
	if i < 0 || i >= len(d.prev) {
		return 1.0
	}
	return d.prev[i]
}
