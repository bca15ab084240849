// Package mesh provides the deformable sphere geometry the engine writes
// into. Vertices keep their rest unit direction; deformation only moves
// them radially, so a vertex is fully described by its direction and a
// scalar displacement.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sphere is a UV sphere with a stable vertex count. The pole rows and the
// longitudinal seam carry duplicate vertices, same as a conventional
// lat/long tessellation, so the face grid stays rectangular.
type Sphere struct {
	radius    float64
	widthSeg  int
	heightSeg int

	dirs     []mgl64.Vec3 // rest unit directions, immutable after construction
	Vertices []mgl64.Vec3
	Normals  []mgl64.Vec3
	faces    [][3]int
}

// NewSphere builds a sphere of the given radius. widthSeg and heightSeg
// control tessellation; minimums keep the face grid valid.
func NewSphere(radius float64, widthSeg, heightSeg int) *Sphere {
	if widthSeg < 3 {
		widthSeg = 3
	}
	if heightSeg < 2 {
		heightSeg = 2
	}

	cols := widthSeg + 1
	rows := heightSeg + 1
	count := rows * cols

	s := &Sphere{
		radius:    radius,
		widthSeg:  widthSeg,
		heightSeg: heightSeg,
		dirs:      make([]mgl64.Vec3, count),
		Vertices:  make([]mgl64.Vec3, count),
		Normals:   make([]mgl64.Vec3, count),
	}

	for iy := 0; iy < rows; iy++ {
		v := float64(iy) / float64(heightSeg)
		theta := v * math.Pi
		for ix := 0; ix < cols; ix++ {
			u := float64(ix) / float64(widthSeg)
			phi := u * 2 * math.Pi

			dir := mgl64.Vec3{
				math.Sin(theta) * math.Cos(phi),
				math.Cos(theta),
				math.Sin(theta) * math.Sin(phi),
			}
			// Pole rows collapse to the axis; keep them exactly unit.
			if iy == 0 {
				dir = mgl64.Vec3{0, 1, 0}
			} else if iy == heightSeg {
				dir = mgl64.Vec3{0, -1, 0}
			}

			i := iy*cols + ix
			s.dirs[i] = dir
			s.Vertices[i] = dir.Mul(radius)
			s.Normals[i] = dir
		}
	}

	// Two triangles per grid cell, skipping the degenerate pole cells.
	for iy := 0; iy < heightSeg; iy++ {
		for ix := 0; ix < widthSeg; ix++ {
			a := iy*cols + ix
			b := a + 1
			c := a + cols
			d := c + 1
			if iy != 0 {
				s.faces = append(s.faces, [3]int{a, c, b})
			}
			if iy != heightSeg-1 {
				s.faces = append(s.faces, [3]int{b, c, d})
			}
		}
	}

	return s
}

// VertexCount returns the number of vertices including seam duplicates.
func (s *Sphere) VertexCount() int {
	return len(s.dirs)
}

// Radius returns the rest radius.
func (s *Sphere) Radius() float64 {
	return s.radius
}

// Dir returns the rest unit direction of vertex i.
func (s *Sphere) Dir(i int) mgl64.Vec3 {
	return s.dirs[i]
}

// SetRadial places vertex i at displacement times its rest radius along
// its rest direction.
func (s *Sphere) SetRadial(i int, displacement float64) {
	s.Vertices[i] = s.dirs[i].Mul(s.radius * displacement)
}

// Faces returns the triangle index list.
func (s *Sphere) Faces() [][3]int {
	return s.faces
}

// RecomputeNormals rebuilds per-vertex normals by averaging adjacent face
// normals. Called once per frame after all vertices have been displaced.
func (s *Sphere) RecomputeNormals() {
	for i := range s.Normals {
		s.Normals[i] = mgl64.Vec3{}
	}

	for _, f := range s.faces {
		a, b, c := s.Vertices[f[0]], s.Vertices[f[1]], s.Vertices[f[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		s.Normals[f[0]] = s.Normals[f[0]].Add(n)
		s.Normals[f[1]] = s.Normals[f[1]].Add(n)
		s.Normals[f[2]] = s.Normals[f[2]].Add(n)
	}

	for i := range s.Normals {
		if l := s.Normals[i].Len(); l > 1e-12 {
			s.Normals[i] = s.Normals[i].Mul(1 / l)
		} else {
			// Isolated or degenerate vertex: fall back to the radial
			// direction.
			s.Normals[i] = s.dirs[i]
		}
	}
}
