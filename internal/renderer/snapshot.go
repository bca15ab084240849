package renderer

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// SavePNG writes an image to disk as PNG via a temp-then-rename so a
// crash never leaves a truncated file behind.
func SavePNG(img image.Image, path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
