package noise

import (
	"math"
	"testing"
)

// TestCombinedRange samples the field across many directions and time
// cursors and checks the blended value stays in a sane coherent-noise
// range.
func TestCombinedRange(t *testing.T) {
	f := New(42)

	for i := 0; i < 500; i++ {
		theta := float64(i) * 0.137
		phi := float64(i) * 0.071
		dx := math.Sin(theta) * math.Cos(phi)
		dy := math.Sin(theta) * math.Sin(phi)
		dz := math.Cos(theta)
		cur := Cursor{X: float64(i) * 0.02, Y: float64(i) * 0.013, Z: float64(i) * 0.017}

		v := f.Combined(dx, dy, dz, 0.2, 0.2, 0.2, cur)
		if v < -1.2 || v > 1.2 {
			t.Fatalf("sample %d: Combined = %v outside [-1.2, 1.2]", i, v)
		}
	}
}

// TestDeterministicForSeed verifies two fields with the same seed produce
// identical samples, and different seeds diverge.
func TestDeterministicForSeed(t *testing.T) {
	a := New(7)
	b := New(7)
	c := New(8)
	cur := Cursor{X: 1.5, Y: 0.25, Z: 3.0}

	va := a.Combined(0.3, 0.9, 0.3, 0.2, 0.2, 0.2, cur)
	vb := b.Combined(0.3, 0.9, 0.3, 0.2, 0.2, 0.2, cur)
	vc := c.Combined(0.3, 0.9, 0.3, 0.2, 0.2, 0.2, cur)

	if va != vb {
		t.Errorf("same seed diverged: %v != %v", va, vb)
	}
	if va == vc {
		t.Errorf("different seeds coincided: %v", va)
	}
}

// TestFieldVariesOverTime advances the cursor and checks the surface
// actually moves.
func TestFieldVariesOverTime(t *testing.T) {
	f := New(1)

	v0 := f.Combined(0, 1, 0, 0.2, 0.2, 0.2, Cursor{})
	v1 := f.Combined(0, 1, 0, 0.2, 0.2, 0.2, Cursor{X: 2, Y: 2, Z: 2})

	if v0 == v1 {
		t.Error("field did not change when cursor advanced")
	}
}

// TestDetailHigherFrequency checks that the detail layer varies faster
// across nearby directions than the combined octaves, which is what makes
// it read as shimmer rather than bulk motion.
func TestDetailHigherFrequency(t *testing.T) {
	f := New(42)
	cur := Cursor{X: 0.5, Y: 0.5, Z: 0.5}

	var combinedDelta, detailDelta float64
	const step = 0.02
	for i := 0; i < 100; i++ {
		x0 := float64(i) * step
		x1 := x0 + step
		combinedDelta += math.Abs(
			f.Combined(x1, 1, 0, 1, 1, 1, cur) - f.Combined(x0, 1, 0, 1, 1, 1, cur))
		detailDelta += math.Abs(
			f.Detail(x1, 1, 0, 1, 1, 1, cur) - f.Detail(x0, 1, 0, 1, 1, 1, cur))
	}

	if detailDelta <= combinedDelta {
		t.Errorf("detail total variation %v not above combined %v", detailDelta, combinedDelta)
	}
	t.Logf("total variation: combined=%.4f detail=%.4f", combinedDelta, detailDelta)
}
