package engine

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kwami-ai/kwavatar/internal/bands"
	"github.com/kwami-ai/kwavatar/internal/config"
	"github.com/kwami-ai/kwavatar/internal/mesh"
)

// FrequencySource supplies one frequency snapshot per frame. Implemented
// by the audio package's file analyser and oscillator; the engine never
// cares where the magnitudes come from.
type FrequencySource interface {
	// Available reports whether the source can currently produce data.
	Available() bool

	// FrequencyData refreshes dst with byte magnitudes (one per bin) and
	// reports whether fresh data was written.
	FrequencyData(dst []byte) bool
}

// Avatar is one deformable-blob instance: mesh, audio source, behavioral
// state, touches, and the per-frame loop that ties them together. All
// per-frame state is mutated only inside Tick; external interaction
// (touches, state flags, parameter changes) is serialized by the same
// mutex, so handlers may call in from any goroutine between ticks.
type Avatar struct {
	mu sync.Mutex

	Mesh     *mesh.Sphere
	source   FrequencySource
	deformer *Deformer
	state    *StateBlender
	touches  *TouchField
	params   config.EffectParams

	freq     []byte
	lastTick time.Time

	rotationY   float64
	scale       float64
	audioDriven bool
	smoothed    bands.Smoothed

	// OnFrame, when set, is invoked at the end of every tick with the
	// avatar still locked; read the snapshot and the mesh, do not call
	// back into the avatar's locked methods, and keep it cheap.
	OnFrame func(FrameInfo)

	stopCh chan struct{}
	doneCh chan struct{}
}

// FrameInfo is the per-tick snapshot handed to OnFrame. The mesh pointer
// is only safe to read for the duration of the callback.
type FrameInfo struct {
	Now            time.Time
	Mesh           *mesh.Sphere
	AudioDriven    bool
	RotationY      float64
	Scale          float64
	Bands          bands.Smoothed
	ListeningBlend float64
	ThinkingBlend  float64
}

// NewAvatar wires an avatar around a mesh and an optional audio source
// (nil means permanently idle). The seed fixes the noise field.
func NewAvatar(m *mesh.Sphere, src FrequencySource, seed int64) *Avatar {
	return &Avatar{
		Mesh:     m,
		source:   src,
		deformer: NewDeformer(seed),
		state:    NewStateBlender(),
		touches:  NewTouchField(config.MaxTouchPoints),
		params:   config.DefaultEffectParams(),
		freq:     make([]byte, config.FrequencyBins),
		scale:    1.0,
	}
}

// Tick runs one synchronous frame: advance state blends, age touches,
// pull audio, deform, and fall back to plain idle rotation when no
// frequency data is available. Returns whether audio drove the shape.
func (a *Avatar) Tick(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	dt := 1.0 / config.FPS
	if !a.lastTick.IsZero() {
		dt = now.Sub(a.lastTick).Seconds()
		// A stalled scheduler should not teleport the animation.
		if dt < 0 {
			dt = 0
		} else if dt > 0.1 {
			dt = 0.1
		}
	}
	a.lastTick = now

	a.state.Advance()
	a.touches.Prune(now)

	haveAudio := a.source != nil && a.source.Available() && a.source.FrequencyData(a.freq)
	if haveAudio {
		res := a.deformer.Apply(a.Mesh, a.freq, a.state, a.touches, a.params, dt, now)
		a.audioDriven = res.AudioDriven
		a.scale = res.Scale
		a.smoothed = res.Smoothed
	} else {
		a.audioDriven = false
		a.scale = 1.0
		a.smoothed = bands.Smoothed{}
	}

	if !a.audioDriven {
		a.rotationY += config.IdleRotationSpeed * dt
	}

	if a.OnFrame != nil {
		a.OnFrame(FrameInfo{
			Now:            now,
			Mesh:           a.Mesh,
			AudioDriven:    a.audioDriven,
			RotationY:      a.rotationY,
			Scale:          a.scale,
			Bands:          a.smoothed,
			ListeningBlend: a.state.ListeningBlend(),
			ThinkingBlend:  a.state.ThinkingBlend(),
		})
	}
	return a.audioDriven
}

// Start launches the avatar's own frame loop at the given FPS (the
// default when fps <= 0). No-op if already running.
func (a *Avatar) Start(fps int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopCh != nil {
		return
	}
	if fps <= 0 {
		fps = config.FPS
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	a.stopCh = stop
	a.doneCh = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				a.Tick(now)
			}
		}
	}()
}

// Stop halts the frame loop and waits for the in-flight tick to finish.
// After Stop returns no goroutine touches the mesh again, so the caller
// may release geometry buffers.
func (a *Avatar) Stop() {
	a.mu.Lock()
	stop, done := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// AddTouch registers a touch impulse at a local-space position.
func (a *Avatar) AddTouch(pos mgl64.Vec3, strength float64, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touches.Add(pos, strength, now)
}

// SetListening flips the listening state; the blend factor ramps over the
// following ticks.
func (a *Avatar) SetListening(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.SetListening(on)
}

// StartThinking begins a thinking phase.
func (a *Avatar) StartThinking(now time.Time, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.StartThinking(now, d)
}

// StopThinking ends the thinking phase; the blend decays.
func (a *Avatar) StopThinking() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.StopThinking()
}

// SetParams swaps the effect tuning, normalized through Clamp.
func (a *Avatar) SetParams(p config.EffectParams) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.params = p.Clamp()
}

// Params returns the current effect tuning.
func (a *Avatar) Params() config.EffectParams {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.params
}

// RotationY returns the accumulated idle rotation in radians.
func (a *Avatar) RotationY() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rotationY
}

// Scale returns the whole-mesh breathing multiplier for this frame.
func (a *Avatar) Scale() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scale
}

// AudioDriven reports whether audio drove the shape on the last tick.
func (a *Avatar) AudioDriven() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.audioDriven
}

// Bands returns the transient-blended band values from the last tick,
// for meters and the crystal glow.
func (a *Avatar) Bands() bands.Smoothed {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.smoothed
}

// Blends returns the listening and thinking blend factors.
func (a *Avatar) Blends() (listening, thinking float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.ListeningBlend(), a.state.ThinkingBlend()
}
