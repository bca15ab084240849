package engine

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kwami-ai/kwavatar/internal/config"
)

// Touch is one timestamped, localized impulse created by a pointer
// interaction. It produces a time-eased, distance-falloff displacement
// contribution and expires once its duration elapses.
type Touch struct {
	Position mgl64.Vec3
	Strength float64
	Start    time.Time
	Duration time.Duration
}

// TouchField is the bounded collection of live touches. At capacity the
// oldest entry is evicted first; expired entries are filtered once per
// frame by Prune rather than lazily per query.
type TouchField struct {
	points []Touch
	max    int
}

// NewTouchField creates a field holding at most max touches (the
// configured default when max <= 0).
func NewTouchField(max int) *TouchField {
	if max <= 0 {
		max = config.MaxTouchPoints
	}
	return &TouchField{
		points: make([]Touch, 0, max),
		max:    max,
	}
}

// Add registers a touch at a local-space position. Insertion order is
// preserved; the oldest touch is dropped when the field is full.
func (f *TouchField) Add(pos mgl64.Vec3, strength float64, now time.Time) {
	if len(f.points) >= f.max {
		copy(f.points, f.points[1:])
		f.points = f.points[:len(f.points)-1]
	}
	f.points = append(f.points, Touch{
		Position: pos,
		Strength: strength,
		Start:    now,
		Duration: config.TouchDurationMs * time.Millisecond,
	})
}

// Prune drops touches whose duration has fully elapsed. Called once per
// frame before contributions are sampled.
func (f *TouchField) Prune(now time.Time) {
	live := f.points[:0]
	for _, tp := range f.points {
		if now.Sub(tp.Start) < tp.Duration {
			live = append(live, tp)
		}
	}
	f.points = live
}

// Len returns the number of live touches.
func (f *TouchField) Len() int {
	return len(f.points)
}

// Points returns the live touches in insertion order.
func (f *TouchField) Points() []Touch {
	return f.points
}

// touchEase shapes a touch's lifetime: quadratic ease-in over the first
// quarter of the duration, then cubic ease-out to zero over the rest.
func touchEase(progress float64) float64 {
	if progress <= 0 || progress >= 1 {
		return 0
	}
	if progress < 0.25 {
		r := progress / 0.25
		return r * r
	}
	r := (progress - 0.25) / 0.75
	return 1 - r*r*r
}

// Contribution sums the displacement all live touches exert on a point,
// clamped to the configured bounds. Each touch combines a sink (pressing
// the surface inward) with a traveling surface wave radiating from the
// contact point.
func (f *TouchField) Contribution(p mgl64.Vec3, now time.Time) float64 {
	var total float64
	for _, tp := range f.points {
		progress := float64(now.Sub(tp.Start)) / float64(tp.Duration)
		ease := touchEase(progress)
		if ease <= 0.01 {
			continue
		}

		dist := p.Sub(tp.Position).Len()
		if dist > config.TouchRadius {
			continue
		}

		influence := math.Pow(1-dist/config.TouchRadius, config.TouchFalloffPow)
		sink := -tp.Strength * 0.42 * influence * ease
		wave := math.Sin(dist*2.4-progress*5.4) * 0.24 * influence * ease
		total += sink + wave
	}

	if total < config.TouchContribMin {
		return config.TouchContribMin
	}
	if total > config.TouchContribMax {
		return config.TouchContribMax
	}
	return total
}
