// Package noise samples the multi-octave coherent-noise field that shapes
// the avatar surface. Directions are unit vectors (a vertex direction or an
// object phase angle); the spike parameters scale spatial frequency per
// axis and the cursor values scroll the field through time.
package noise

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Octave layout: three samples at fixed spatial/temporal scales blended
// with fixed weights. The weights sum to 1 so the combined value stays in
// roughly the same [-1, 1] range as a single sample.
const (
	freqA, freqB, freqC       = 0.5, 1.2, 0.3
	timeA, timeB, timeC       = 1.0, 1.2, 0.8
	weightA, weightB, weightC = 0.5, 0.3, 0.2

	// Detail sample: a single higher-frequency layer for fine shimmer.
	detailFreq = 3.5
	detailTime = 1.6
)

// Cursor is the per-axis time position of the field, advanced by the
// engine each frame.
type Cursor struct {
	X, Y, Z float64
}

// Field is a seeded 3D coherent-noise field. Safe for concurrent reads.
type Field struct {
	n opensimplex.Noise
}

// New creates a field from a seed. The same seed reproduces the same
// surface motion, which the renderer tests rely on.
func New(seed int64) *Field {
	return &Field{n: opensimplex.New(seed)}
}

// Combined samples the field at three spatial/temporal octaves along the
// given direction and blends them into one value in roughly [-1, 1].
// sx, sy, sz are the per-axis spike frequencies.
func (f *Field) Combined(dx, dy, dz, sx, sy, sz float64, t Cursor) float64 {
	a := f.n.Eval3(
		dx*sx*freqA+t.X*timeA,
		dy*sy*freqA+t.Y*timeA,
		dz*sz*freqA+t.Z*timeA,
	)
	b := f.n.Eval3(
		dx*sx*freqB+t.X*timeB,
		dy*sy*freqB+t.Y*timeB,
		dz*sz*freqB+t.Z*timeB,
	)
	c := f.n.Eval3(
		dx*sx*freqC+t.X*timeC,
		dy*sy*freqC+t.Y*timeC,
		dz*sz*freqC+t.Z*timeC,
	)
	return a*weightA + b*weightB + c*weightC
}

// Detail samples a single high-frequency layer used for audio-weighted
// shimmer on top of the combined octaves.
func (f *Field) Detail(dx, dy, dz, sx, sy, sz float64, t Cursor) float64 {
	return f.n.Eval3(
		dx*sx*detailFreq+t.X*detailTime,
		dy*sy*detailFreq+t.Y*detailTime,
		dz*sz*detailFreq+t.Z*detailTime,
	)
}
