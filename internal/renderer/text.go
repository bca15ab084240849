package renderer

import (
	"image"
	"image/color"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// LoadFont loads a TrueType font from a file at the given point size.
func LoadFont(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, err
	}

	f, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, err
	}

	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// FallbackFace returns the built-in bitmap face used when no TTF path
// is configured.
func FallbackFace() font.Face {
	return basicfont.Face7x13
}

// DrawTitle draws the title centered near the bottom edge.
func DrawTitle(img *image.RGBA, face font.Face, title string, width, height int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 210, G: 225, B: 245, A: 255}),
		Face: face,
	}

	bounds, _ := d.BoundString(title)
	textWidth := (bounds.Max.X - bounds.Min.X).Ceil()

	x := (width - textWidth) / 2
	y := height - 24

	d.Dot = freetype.Pt(x, y)
	d.DrawString(title)
}
