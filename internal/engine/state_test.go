package engine

import (
	"math"
	"testing"
	"time"

	"github.com/kwami-ai/kwavatar/internal/config"
)

// TestListeningBlendRampUpDown drives a full listen/release cycle and
// verifies the factor moves by exactly one transition step per tick, stays
// in [0, 1], and never goes negative.
func TestListeningBlendRampUpDown(t *testing.T) {
	b := NewStateBlender()

	b.SetListening(true)
	prev := 0.0
	for i := 0; i < 40; i++ {
		b.Advance()
		v := b.ListeningBlend()
		if v < 0 || v > 1 {
			t.Fatalf("tick %d: blend %v out of [0,1]", i, v)
		}
		delta := v - prev
		if delta < 0 || delta > config.TransitionSpeed+1e-12 {
			t.Fatalf("tick %d: blend moved by %v, want at most %v", i, delta, config.TransitionSpeed)
		}
		prev = v
	}
	if prev != 1 {
		t.Fatalf("blend did not saturate at 1 after 40 ticks: %v", prev)
	}

	b.SetListening(false)
	for i := 0; i < 40; i++ {
		b.Advance()
		v := b.ListeningBlend()
		if v < 0 {
			t.Fatalf("tick %d: blend went negative: %v", i, v)
		}
		step := prev - v
		if v > 0 && math.Abs(step-config.TransitionSpeed) > 1e-12 {
			t.Fatalf("tick %d: release step %v, want exactly %v", i, step, config.TransitionSpeed)
		}
		prev = v
	}
	if prev != 0 {
		t.Errorf("blend did not return to 0: %v", prev)
	}
}

// TestBothAxesTransitionTogether verifies listening and thinking can be
// simultaneously mid-transition.
func TestBothAxesTransitionTogether(t *testing.T) {
	b := NewStateBlender()
	now := time.Now()

	b.SetListening(true)
	b.StartThinking(now, 2*time.Second)
	for i := 0; i < 5; i++ {
		b.Advance()
	}

	if b.ListeningBlend() == 0 || b.ThinkingBlend() == 0 {
		t.Errorf("blends = (%v, %v), want both non-zero mid-transition",
			b.ListeningBlend(), b.ThinkingBlend())
	}
}

// TestThinkingProgressClock checks the progress clock is linear in wall
// time, clamped to [0, 1], and independent of the blend factor.
func TestThinkingProgressClock(t *testing.T) {
	b := NewStateBlender()
	start := time.Now()
	b.StartThinking(start, 1000*time.Millisecond)

	cases := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 0},
		{250 * time.Millisecond, 0.25},
		{1000 * time.Millisecond, 1},
		{5 * time.Second, 1},
	}
	for _, tc := range cases {
		got := b.ThinkingProgress(start.Add(tc.elapsed))
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("progress at %v = %v, want %v", tc.elapsed, got, tc.want)
		}
	}
}

// TestThinkingDefaultDuration verifies a non-positive duration falls back
// to the configured default.
func TestThinkingDefaultDuration(t *testing.T) {
	b := NewStateBlender()
	start := time.Now()
	b.StartThinking(start, 0)

	halfway := start.Add(config.DefaultThinkingMs / 2 * time.Millisecond)
	got := b.ThinkingProgress(halfway)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("progress at half the default duration = %v, want 0.5", got)
	}
}

// TestProgressBeforeAnyThinking verifies the zero-value clock reads 0.
func TestProgressBeforeAnyThinking(t *testing.T) {
	b := NewStateBlender()
	if p := b.ThinkingProgress(time.Now()); p != 0 {
		t.Errorf("progress with no thinking phase = %v, want 0", p)
	}
}
