// Package renderer rasterizes the avatar into RGBA frames: an
// orthographic projection of the deformed sphere as shaded point
// splats, or the crystal formation as shaded discs, over a procedural
// radial-gradient background.
package renderer

import (
	"image"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kwami-ai/kwavatar/internal/config"
	"github.com/kwami-ai/kwavatar/internal/crystal"
	"github.com/kwami-ai/kwavatar/internal/engine"
	"golang.org/x/image/font"
)

// Light direction in view space, pointing from the surface toward the
// light. Fixed; the mesh rotates, the light does not.
var lightDir = mgl64.Vec3{0.35, 0.5, 0.8}.Normalize()

// Frame renders one avatar view into a reusable RGBA buffer.
type Frame struct {
	img *image.RGBA
	bg  *image.RGBA

	fontFace font.Face
	title    string

	width, height int
	tint          [3]uint8

	// Projection scale in pixels per world unit, and screen center.
	scale  float64
	cx, cy float64

	// Scratch reused across draws to avoid per-frame allocation.
	order  []int
	depths []float64
}

// NewFrame creates a renderer at the given resolution. fontFace may be
// nil to skip the title overlay; tintR/G/B color the surface.
func NewFrame(width, height int, tintR, tintG, tintB uint8, fontFace font.Face, title string) *Frame {
	if width <= 0 {
		width = config.Width
	}
	if height <= 0 {
		height = config.Height
	}

	f := &Frame{
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		fontFace: fontFace,
		title:    title,
		width:    width,
		height:   height,
		tint:     [3]uint8{tintR, tintG, tintB},
		scale:    float64(min(width, height)) * 0.32,
		cx:       float64(width) / 2,
		cy:       float64(height) / 2,
	}
	f.bg = f.renderBackground()
	return f
}

// renderBackground precomputes the radial gradient: a faint wash of the
// tint at the center falling off to near black at the corners.
func (f *Frame) renderBackground() *image.RGBA {
	bg := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	maxDist := math.Hypot(f.cx, f.cy)

	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			d := math.Hypot(float64(x)-f.cx, float64(y)-f.cy) / maxDist
			glow := (1 - d) * (1 - d) * 0.14
			offset := y*bg.Stride + x*4
			bg.Pix[offset] = uint8(float64(f.tint[0]) * glow)
			bg.Pix[offset+1] = uint8(float64(f.tint[1]) * glow)
			bg.Pix[offset+2] = uint8(float64(f.tint[2]) * glow)
			bg.Pix[offset+3] = 255
		}
	}
	return bg
}

// DrawMesh renders one frame snapshot of the soft-body avatar.
func (f *Frame) DrawMesh(fi engine.FrameInfo) {
	copy(f.img.Pix, f.bg.Pix)

	m := fi.Mesh
	count := m.VertexCount()
	if cap(f.order) < count {
		f.order = make([]int, count)
		f.depths = make([]float64, count)
	}
	f.order = f.order[:count]
	f.depths = f.depths[:count]

	sinR, cosR := math.Sincos(fi.RotationY)

	// Rotate, record depth, painter-sort back to front so near splats
	// overwrite far ones.
	for i := 0; i < count; i++ {
		v := m.Vertices[i]
		f.depths[i] = v.Z()*cosR - v.X()*sinR
		f.order[i] = i
	}
	sort.Slice(f.order, func(a, b int) bool {
		return f.depths[f.order[a]] < f.depths[f.order[b]]
	})

	for _, i := range f.order {
		v := m.Vertices[i].Mul(fi.Scale)
		n := m.Normals[i]

		// Rotate position and normal around Y.
		px := v.X()*cosR + v.Z()*sinR
		pz := v.Z()*cosR - v.X()*sinR
		nx := n.X()*cosR + n.Z()*sinR
		nz := n.Z()*cosR - n.X()*sinR

		shade := mgl64.Vec3{nx, n.Y(), nz}.Dot(lightDir)
		brightness := 0.22 + 0.78*math.Max(0, shade)

		// Back-facing points still render, dimmer, so the silhouette
		// stays solid between splats.
		if pz < 0 {
			brightness *= 0.55
		}

		sx := f.cx + px*f.scale
		sy := f.cy - v.Y()*f.scale
		f.splat(sx, sy, 1.6, brightness)
	}

	if f.fontFace != nil && f.title != "" {
		DrawTitle(f.img, f.fontFace, f.title, f.width, f.height)
	}
}

// DrawFormation renders the crystal variant: glow disc first, then the
// core, then the shards sorted back to front.
func (f *Frame) DrawFormation(form *crystal.Formation, rotationY float64) {
	copy(f.img.Pix, f.bg.Pix)

	// Glow: a large soft disc whose brightness follows the intensity
	// value the formation exports.
	glowR := form.Glow.Scale * 0.45 * f.scale
	f.softDisc(f.cx, f.cy, glowR, math.Min(1, form.Glow.Intensity)*0.35)

	coreR := form.Core.Scale * 0.3 * f.scale
	f.disc(f.cx, f.cy, coreR, 1.0)

	shards := form.Shards()
	sinR, cosR := math.Sincos(rotationY)

	order := make([]int, len(shards))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		pa, pb := shards[order[a]].Position, shards[order[b]].Position
		return pa.Z()*cosR-pa.X()*sinR < pb.Z()*cosR-pb.X()*sinR
	})

	for _, i := range order {
		s := shards[i]
		px := s.Position.X()*cosR + s.Position.Z()*sinR
		pz := s.Position.Z()*cosR - s.Position.X()*sinR

		brightness := 0.45 + 0.55*(pz+crystalDepthRange)/(2*crystalDepthRange)
		if brightness > 1 {
			brightness = 1
		}

		sx := f.cx + px*f.scale
		sy := f.cy - s.Position.Y()*f.scale
		f.disc(sx, sy, s.Scale*f.scale, brightness)
	}

	if f.fontFace != nil && f.title != "" {
		DrawTitle(f.img, f.fontFace, f.title, f.width, f.height)
	}
}

// crystalDepthRange bounds shard depth for the brightness ramp.
const crystalDepthRange = 2.5

// splat writes a small shaded square with a soft falloff.
func (f *Frame) splat(sx, sy, radius, brightness float64) {
	r := int(math.Ceil(radius))
	x0, y0 := int(sx), int(sy)

	for dy := -r; dy <= r; dy++ {
		y := y0 + dy
		if y < 0 || y >= f.height {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			x := x0 + dx
			if x < 0 || x >= f.width {
				continue
			}
			d := math.Hypot(float64(dx), float64(dy))
			if d > radius {
				continue
			}
			w := brightness * (1 - d/(radius+1)*0.5)
			f.setPix(x, y, w)
		}
	}
}

// disc writes a filled shaded circle.
func (f *Frame) disc(sx, sy, radius, brightness float64) {
	r := int(math.Ceil(radius))
	x0, y0 := int(sx), int(sy)

	for dy := -r; dy <= r; dy++ {
		y := y0 + dy
		if y < 0 || y >= f.height {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			x := x0 + dx
			if x < 0 || x >= f.width {
				continue
			}
			d := math.Hypot(float64(dx), float64(dy))
			if d > radius {
				continue
			}
			// Sphere-ish shading: brighter toward the upper-left limb.
			edge := 1 - d/(radius+1)
			w := brightness * (0.5 + 0.5*edge)
			f.setPix(x, y, w)
		}
	}
}

// softDisc additively blends a translucent disc, used for the glow.
func (f *Frame) softDisc(sx, sy, radius, alpha float64) {
	r := int(math.Ceil(radius))
	x0, y0 := int(sx), int(sy)

	for dy := -r; dy <= r; dy++ {
		y := y0 + dy
		if y < 0 || y >= f.height {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			x := x0 + dx
			if x < 0 || x >= f.width {
				continue
			}
			d := math.Hypot(float64(dx), float64(dy))
			if d > radius {
				continue
			}
			falloff := 1 - d/radius
			f.addPix(x, y, alpha*falloff*falloff)
		}
	}
}

// setPix writes the tint scaled by w, replacing the pixel.
func (f *Frame) setPix(x, y int, w float64) {
	if w > 1 {
		w = 1
	}
	offset := y*f.img.Stride + x*4
	f.img.Pix[offset] = uint8(float64(f.tint[0]) * w)
	f.img.Pix[offset+1] = uint8(float64(f.tint[1]) * w)
	f.img.Pix[offset+2] = uint8(float64(f.tint[2]) * w)
	f.img.Pix[offset+3] = 255
}

// addPix saturating-adds the tint scaled by w onto the pixel.
func (f *Frame) addPix(x, y int, w float64) {
	offset := y*f.img.Stride + x*4
	for c := 0; c < 3; c++ {
		v := int(f.img.Pix[offset+c]) + int(float64(f.tint[c])*w)
		if v > 255 {
			v = 255
		}
		f.img.Pix[offset+c] = uint8(v)
	}
	f.img.Pix[offset+3] = 255
}

// GetImage returns the current frame image, valid until the next draw.
func (f *Frame) GetImage() *image.RGBA { return f.img }
