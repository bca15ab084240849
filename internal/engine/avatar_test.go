package engine

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kwami-ai/kwavatar/internal/config"
	"github.com/kwami-ai/kwavatar/internal/mesh"
)

// stubSource is a FrequencySource backed by a fixed snapshot.
type stubSource struct {
	snapshot  []byte
	available bool
}

func (s *stubSource) Available() bool { return s.available }

func (s *stubSource) FrequencyData(dst []byte) bool {
	if !s.available {
		return false
	}
	copy(dst, s.snapshot)
	return true
}

func TestAvatarIdleFallback(t *testing.T) {
	m := mesh.NewSphere(1.0, 12, 9)
	a := NewAvatar(m, nil, 3)

	now := time.Now()
	for i := 0; i < 10; i++ {
		now = now.Add(time.Second / config.FPS)
		if a.Tick(now) {
			t.Fatal("tick with no source reported audio driven")
		}
	}

	if a.AudioDriven() {
		t.Error("AudioDriven true with no source")
	}
	if a.Scale() != 1.0 {
		t.Errorf("Scale = %v with no source, want 1.0", a.Scale())
	}
	if a.RotationY() <= 0 {
		t.Errorf("RotationY = %v, want idle spin to accumulate", a.RotationY())
	}
}

func TestAvatarSourceDropout(t *testing.T) {
	src := &stubSource{snapshot: lowHeavySnapshot(), available: true}
	a := NewAvatar(mesh.NewSphere(1.0, 12, 9), src, 3)

	now := time.Now()
	for i := 0; i < 60; i++ {
		now = now.Add(time.Second / config.FPS)
		a.Tick(now)
	}
	if !a.AudioDriven() {
		t.Fatal("steady bass never engaged audio-driven mode")
	}
	rotBefore := a.RotationY()

	// Source goes away: next tick drops back to idle and the spin resumes.
	src.available = false
	now = now.Add(time.Second / config.FPS)
	a.Tick(now)

	if a.AudioDriven() {
		t.Error("AudioDriven still true after source dropout")
	}
	if a.Scale() != 1.0 {
		t.Errorf("Scale = %v after dropout, want 1.0", a.Scale())
	}
	if a.RotationY() <= rotBefore {
		t.Error("idle rotation did not resume after dropout")
	}
}

func TestAvatarOnFrameSnapshot(t *testing.T) {
	src := &stubSource{snapshot: lowHeavySnapshot(), available: true}
	a := NewAvatar(mesh.NewSphere(1.0, 12, 9), src, 3)
	a.SetListening(true)

	var frames []FrameInfo
	a.OnFrame = func(fi FrameInfo) { frames = append(frames, fi) }

	now := time.Now()
	for i := 0; i < 30; i++ {
		now = now.Add(time.Second / config.FPS)
		a.Tick(now)
	}

	if len(frames) != 30 {
		t.Fatalf("OnFrame ran %d times, want 30", len(frames))
	}
	last := frames[len(frames)-1]
	if last.Mesh != a.Mesh {
		t.Error("snapshot mesh is not the avatar's mesh")
	}
	if last.Bands.Low == 0 {
		t.Error("snapshot carries no band data despite bass input")
	}
	if last.ListeningBlend == 0 {
		t.Error("snapshot listening blend never ramped")
	}
	if !last.Now.Equal(now) {
		t.Errorf("snapshot Now = %v, want %v", last.Now, now)
	}
}

func TestAvatarStartStop(t *testing.T) {
	a := NewAvatar(mesh.NewSphere(1.0, 8, 6), nil, 3)

	a.Start(200)
	a.Start(200) // second call is a no-op, not a second loop

	deadline := time.After(2 * time.Second)
	for a.RotationY() == 0 {
		select {
		case <-deadline:
			t.Fatal("frame loop never ticked")
		case <-time.After(5 * time.Millisecond):
		}
	}

	a.Stop()
	rot := a.RotationY()
	time.Sleep(50 * time.Millisecond)
	if a.RotationY() != rot {
		t.Error("avatar kept ticking after Stop")
	}

	a.Stop() // idempotent
}

func TestAvatarParamsClampOnSet(t *testing.T) {
	a := NewAvatar(mesh.NewSphere(1.0, 8, 6), nil, 3)

	p := config.DefaultEffectParams()
	p.Reactivity = 99
	p.Sensitivity = -5
	a.SetParams(p)

	got := a.Params()
	if got.Reactivity == 99 || got.Sensitivity == -5 {
		t.Errorf("SetParams stored unclamped values: %+v", got)
	}
}

func TestAvatarTouchReachesSurface(t *testing.T) {
	src := &stubSource{snapshot: silentSnapshot(), available: true}

	plain := NewAvatar(mesh.NewSphere(1.0, 16, 12), src, 3)
	poked := NewAvatar(mesh.NewSphere(1.0, 16, 12), src, 3)

	now := time.Now()
	poked.AddTouch(mgl64.Vec3{0, 1, 0}, 1.0, now)

	// Sample mid-lifetime so the ease is near its peak.
	for i := 0; i < 20; i++ {
		now = now.Add(time.Second / config.FPS)
		plain.Tick(now)
		poked.Tick(now)
	}

	var diverge float64
	for i := 0; i < plain.Mesh.VertexCount(); i++ {
		diverge += plain.Mesh.Vertices[i].Sub(poked.Mesh.Vertices[i]).Len()
	}
	if diverge == 0 {
		t.Error("touch impulse left the surface untouched")
	}
}
