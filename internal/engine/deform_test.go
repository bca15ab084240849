package engine

import (
	"math"
	"testing"
	"time"

	"github.com/kwami-ai/kwavatar/internal/config"
	"github.com/kwami-ai/kwavatar/internal/mesh"
)

func silentSnapshot() []byte {
	return make([]byte, config.FrequencyBins)
}

func lowHeavySnapshot() []byte {
	freq := make([]byte, config.FrequencyBins)
	lowEnd := int(float64(len(freq)) * config.BandLowEnd)
	for i := 0; i < lowEnd; i++ {
		freq[i] = 255
	}
	return freq
}

func runFrames(d *Deformer, m *mesh.Sphere, freq []byte, n int) Result {
	st := NewStateBlender()
	touches := NewTouchField(config.MaxTouchPoints)
	p := config.DefaultEffectParams()
	now := time.Now()

	var res Result
	for i := 0; i < n; i++ {
		now = now.Add(time.Second / config.FPS)
		res = d.Apply(m, freq, st, touches, p, 1.0/config.FPS, now)
	}
	return res
}

// TestDisplacementBounds runs many frames of hot audio and verifies every
// vertex stays within the configured radial displacement bounds.
func TestDisplacementBounds(t *testing.T) {
	m := mesh.NewSphere(1.0, 24, 16)
	d := NewDeformer(3)

	freq := make([]byte, config.FrequencyBins)
	for i := range freq {
		freq[i] = 255
	}
	runFrames(d, m, freq, 90)

	for i := 0; i < m.VertexCount(); i++ {
		disp := m.Vertices[i].Len() / m.Radius()
		if disp < config.MinDisplacement-1e-9 || disp > config.MaxDisplacement+1e-9 {
			t.Fatalf("vertex %d: displacement %v outside [%v, %v]",
				i, disp, config.MinDisplacement, config.MaxDisplacement)
		}
	}
}

// TestSilenceIsIdle is the silence scenario: all-zero frequency data with
// the default tuning must never report audio-driven and must leave the
// breathing scale at exactly baseline.
func TestSilenceIsIdle(t *testing.T) {
	m := mesh.NewSphere(1.0, 16, 12)
	d := NewDeformer(3)

	res := runFrames(d, m, silentSnapshot(), 60)

	if res.AudioDriven {
		t.Error("silence reported audio driven")
	}
	if res.Scale != 1.0 {
		t.Errorf("breathing scale on silence = %v, want 1.0 (low band is zero)", res.Scale)
	}
}

// TestLowBandDrivesShape is the bass scenario: a snapshot with only the
// lowest bins at full scale must engage audio-driven mode and deform the
// surface strictly more than silence does.
func TestLowBandDrivesShape(t *testing.T) {
	silent := mesh.NewSphere(1.0, 24, 16)
	driven := mesh.NewSphere(1.0, 24, 16)

	runFrames(NewDeformer(3), silent, silentSnapshot(), 60)
	res := runFrames(NewDeformer(3), driven, lowHeavySnapshot(), 60)

	if !res.AudioDriven {
		t.Fatal("low-heavy snapshot did not engage audio-driven mode")
	}

	deviation := func(m *mesh.Sphere) float64 {
		var sum float64
		for i := 0; i < m.VertexCount(); i++ {
			sum += math.Abs(m.Vertices[i].Len()/m.Radius() - 1)
		}
		return sum / float64(m.VertexCount())
	}

	ds, dd := deviation(silent), deviation(driven)
	if dd <= ds {
		t.Errorf("driven deviation %v not above silence deviation %v", dd, ds)
	}
	t.Logf("mean radial deviation: silence=%.5f driven=%.5f", ds, dd)
}

// TestBreathingFollowsLowBand verifies the idle breathing scale expands
// with low-band energy while audio is below the activation threshold.
func TestBreathingFollowsLowBand(t *testing.T) {
	m := mesh.NewSphere(1.0, 16, 12)
	d := NewDeformer(3)

	// Quiet low rumble: enough bass to breathe, not enough overall level
	// to activate.
	freq := make([]byte, config.FrequencyBins)
	lowEnd := int(float64(len(freq)) * config.BandLowEnd)
	for i := 0; i < lowEnd; i++ {
		freq[i] = 120
	}

	res := runFrames(d, m, freq, 60)
	if res.AudioDriven {
		t.Fatal("quiet rumble unexpectedly activated audio-driven mode")
	}
	if res.Scale <= 1.0 {
		t.Errorf("breathing scale = %v, want above 1.0 with low-band energy", res.Scale)
	}
	maxScale := 1 + config.DefaultEffectParams().Breathing
	if res.Scale > maxScale {
		t.Errorf("breathing scale = %v exceeds bound %v", res.Scale, maxScale)
	}
}

// TestPreviousBufferReallocates swaps in a mesh with a different vertex
// count mid-stream and verifies the smoothing memory resets instead of
// indexing out of bounds.
func TestPreviousBufferReallocates(t *testing.T) {
	d := NewDeformer(3)

	coarse := mesh.NewSphere(1.0, 8, 6)
	runFrames(d, coarse, lowHeavySnapshot(), 10)

	fine := mesh.NewSphere(1.0, 32, 24)
	runFrames(d, fine, lowHeavySnapshot(), 1)

	// Fresh buffer starts from neutral, so after one frame every vertex
	// is still near 1.0 regardless of the coarse mesh's history.
	for i := 0; i < fine.VertexCount(); i++ {
		disp := fine.Vertices[i].Len() / fine.Radius()
		if math.Abs(disp-1) > 0.5 {
			t.Fatalf("vertex %d: displacement %v after reallocation, want near neutral", i, disp)
		}
	}
}

// TestViscosityIdentityAtTarget verifies the smoothing step is the
// identity when the target equals the previous value: with effects
// disabled, no state, no touches, and a frozen clock the surface settles
// and stops moving.
func TestViscosityIdentityAtTarget(t *testing.T) {
	m := mesh.NewSphere(1.0, 12, 9)
	d := NewDeformer(3)
	st := NewStateBlender()
	touches := NewTouchField(config.MaxTouchPoints)
	p := config.DefaultEffectParams()
	p.Enabled = false
	now := time.Now()

	// dt=0 freezes the noise cursor, so the per-vertex target is
	// constant across applications.
	for i := 0; i < 200; i++ {
		d.Apply(m, silentSnapshot(), st, touches, p, 0, now)
	}
	before := make([]float64, m.VertexCount())
	for i := range before {
		before[i] = m.Vertices[i].Len()
	}

	d.Apply(m, silentSnapshot(), st, touches, p, 0, now)
	for i := range before {
		if math.Abs(m.Vertices[i].Len()-before[i]) > 1e-9 {
			t.Fatalf("vertex %d moved at equilibrium: %v -> %v",
				i, before[i], m.Vertices[i].Len())
		}
	}
}

// TestListeningContracts ramps the listening blend to 1 and verifies the
// listening displacement opposes the speaking one rather than mirroring
// it.
func TestListeningContracts(t *testing.T) {
	p := config.DefaultEffectParams()
	freq := lowHeavySnapshot()
	now := time.Now()

	speakMesh := mesh.NewSphere(1.0, 16, 12)
	speakDef := NewDeformer(3)
	speakState := NewStateBlender()

	listenMesh := mesh.NewSphere(1.0, 16, 12)
	listenDef := NewDeformer(3)
	listenState := NewStateBlender()
	listenState.SetListening(true)

	touches := NewTouchField(config.MaxTouchPoints)
	for i := 0; i < 60; i++ {
		now = now.Add(time.Second / config.FPS)
		speakState.Advance()
		listenState.Advance()
		speakDef.Apply(speakMesh, freq, speakState, touches, p, 1.0/config.FPS, now)
		listenDef.Apply(listenMesh, freq, listenState, touches, p, 1.0/config.FPS, now)
	}

	// Same seed and cursor: wherever speaking pushed outward, listening
	// pulls inward. Compare the signed mean deviation.
	var speakSum, listenSum float64
	for i := 0; i < speakMesh.VertexCount(); i++ {
		speakSum += speakMesh.Vertices[i].Len() - 1
		listenSum += listenMesh.Vertices[i].Len() - 1
	}
	t.Logf("signed mean deviation: speaking=%.5f listening=%.5f",
		speakSum, listenSum)

	var diverge float64
	for i := 0; i < speakMesh.VertexCount(); i++ {
		diverge += math.Abs(speakMesh.Vertices[i].Len() - listenMesh.Vertices[i].Len())
	}
	if diverge == 0 {
		t.Error("listening blend produced an identical surface to speaking")
	}
}
