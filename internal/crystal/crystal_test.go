package crystal

import (
	"math"
	"testing"
	"time"

	"github.com/kwami-ai/kwavatar/internal/config"
)

const frameDt = 1.0 / config.FPS

func advance(f *Formation, freq []byte, frames int) {
	for i := 0; i < frames; i++ {
		f.Update(freq, frameDt)
	}
}

func meanOrbitRadius(f *Formation) float64 {
	var sum float64
	for _, s := range f.Shards() {
		sum += math.Hypot(s.Position.X(), s.Position.Z())
	}
	return sum / float64(len(f.Shards()))
}

func TestParsePattern(t *testing.T) {
	cases := []struct {
		in   string
		want Pattern
	}{
		{"spiral", PatternSpiral},
		{"rings", PatternRings},
		{"random", PatternRandom},
		{"", PatternRandom},
		{"nonsense", PatternRandom},
	}
	for _, tc := range cases {
		if got := ParsePattern(tc.in); got != tc.want {
			t.Errorf("ParsePattern(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFormationDeterministicLayout(t *testing.T) {
	a := NewFormation(16, PatternRandom, 7)
	b := NewFormation(16, PatternRandom, 7)
	for i := range a.Shards() {
		if a.Shards()[i].BasePos != b.Shards()[i].BasePos {
			t.Fatalf("shard %d: same seed produced different base positions", i)
		}
	}

	c := NewFormation(16, PatternRandom, 8)
	same := 0
	for i := range a.Shards() {
		if a.Shards()[i].BasePos == c.Shards()[i].BasePos {
			same++
		}
	}
	if same == len(a.Shards()) {
		t.Error("different seeds produced an identical layout")
	}
}

func TestIdleOrbitMoves(t *testing.T) {
	f := NewFormation(12, PatternSpiral, 3)
	advance(f, nil, 1)
	first := make([]float64, len(f.Shards()))
	for i, s := range f.Shards() {
		first[i] = s.Position.X()
	}

	advance(f, nil, 60)
	moved := false
	for i, s := range f.Shards() {
		if s.Position.X() != first[i] {
			moved = true
		}
		if s.Scale != s.BaseScale {
			t.Errorf("shard %d: idle scale %v, want base %v", i, s.Scale, s.BaseScale)
		}
	}
	if !moved {
		t.Error("idle orbit left every shard in place")
	}
}

func TestListeningContractsOrbit(t *testing.T) {
	idle := NewFormation(12, PatternRings, 3)
	listening := NewFormation(12, PatternRings, 3)
	listening.SetListening(true)

	// Run both to the same elapsed time; listening's blend saturates at 1
	// well within 60 frames.
	advance(idle, nil, 60)
	advance(listening, nil, 60)

	ri, rl := meanOrbitRadius(idle), meanOrbitRadius(listening)
	t.Logf("mean orbit radius: idle=%.4f listening=%.4f", ri, rl)
	if rl >= ri {
		t.Errorf("listening radius %v not contracted below idle %v", rl, ri)
	}
}

func TestLowBandExpandsOrbit(t *testing.T) {
	quiet := NewFormation(12, PatternRandom, 3)
	loud := NewFormation(12, PatternRandom, 3)

	freq := make([]byte, config.FrequencyBins)
	lowEnd := int(float64(len(freq)) * config.BandLowEnd)
	for i := 0; i < lowEnd; i++ {
		freq[i] = 255
	}

	advance(quiet, make([]byte, config.FrequencyBins), 60)
	advance(loud, freq, 60)

	rq, rl := meanOrbitRadius(quiet), meanOrbitRadius(loud)
	if rl <= rq {
		t.Errorf("bass-driven radius %v not above quiet radius %v", rl, rq)
	}
}

func TestHighBandPulsesScale(t *testing.T) {
	f := NewFormation(12, PatternRandom, 3)

	freq := make([]byte, config.FrequencyBins)
	hiStart := int(float64(len(freq)) * config.BandHighEnd)
	for i := hiStart; i < len(freq); i++ {
		freq[i] = 255
	}

	advance(f, freq, 60)
	for i, s := range f.Shards() {
		if s.Scale <= s.BaseScale {
			t.Errorf("shard %d: scale %v did not pulse above base %v", i, s.Scale, s.BaseScale)
		}
	}

	if f.Glow.Intensity <= glowBaseIntensity {
		t.Errorf("glow intensity %v did not rise with high band", f.Glow.Intensity)
	}
}

func TestDisabledParamsIgnoreAudio(t *testing.T) {
	f := NewFormation(12, PatternRandom, 3)
	p := config.DefaultEffectParams()
	p.Enabled = false
	f.SetParams(p)

	freq := make([]byte, config.FrequencyBins)
	for i := range freq {
		freq[i] = 255
	}
	advance(f, freq, 60)

	for i, s := range f.Shards() {
		if s.Scale != s.BaseScale {
			t.Errorf("shard %d: scale %v reacted to audio while disabled", i, s.Scale)
		}
	}
}

func TestGlowMirrorsCore(t *testing.T) {
	f := NewFormation(12, PatternRandom, 3)
	f.StartThinking(time.Now(), 2*time.Second)
	advance(f, nil, 45)

	if f.Glow.Rotation != f.Core.Rotation {
		t.Errorf("glow rotation %v != core rotation %v", f.Glow.Rotation, f.Core.Rotation)
	}
	want := f.Core.Scale * glowScaleMult
	if math.Abs(f.Glow.Scale-want) > 1e-12 {
		t.Errorf("glow scale %v, want core*%v = %v", f.Glow.Scale, glowScaleMult, want)
	}
}

func TestThinkingSpeedsOrbit(t *testing.T) {
	calm := NewFormation(12, PatternRings, 3)
	racing := NewFormation(12, PatternRings, 3)
	racing.StartThinking(time.Now(), 10*time.Second)

	advance(calm, nil, 120)
	advance(racing, nil, 120)

	// Same elapsed time, higher orbit speed: the racing formation's shards
	// end up at different angles than the calm one's.
	diverged := false
	for i := range calm.Shards() {
		if calm.Shards()[i].Position != racing.Shards()[i].Position {
			diverged = true
			break
		}
	}
	if !diverged {
		t.Error("thinking phase did not alter orbital motion")
	}
}
