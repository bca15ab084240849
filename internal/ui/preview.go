package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// PreviewConfig holds the terminal-cell dimensions of the frame preview.
type PreviewConfig struct {
	Width  int
	Height int
}

// DefaultPreviewConfig returns the standard preview size: 64x18 cells,
// close to the frame's 16:9 once cell aspect is accounted for.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{Width: 64, Height: 18}
}

// DownsampleFrame averages a full-resolution frame down to one color per
// terminal cell.
func DownsampleFrame(frame *image.RGBA, config PreviewConfig) [][]color.RGBA {
	bounds := frame.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	cellWidth := srcWidth / config.Width
	cellHeight := srcHeight / config.Height
	if cellWidth < 1 {
		cellWidth = 1
	}
	if cellHeight < 1 {
		cellHeight = 1
	}

	preview := make([][]color.RGBA, config.Height)
	for row := 0; row < config.Height; row++ {
		preview[row] = make([]color.RGBA, config.Width)
		for col := 0; col < config.Width; col++ {
			srcX := col * cellWidth
			srcY := row * cellHeight

			var sumR, sumG, sumB uint32
			count := 0
			for y := srcY; y < srcY+cellHeight && y < srcHeight; y++ {
				offset := y*frame.Stride + srcX*4
				for x := srcX; x < srcX+cellWidth && x < srcWidth; x++ {
					sumR += uint32(frame.Pix[offset])
					sumG += uint32(frame.Pix[offset+1])
					sumB += uint32(frame.Pix[offset+2])
					offset += 4
					count++
				}
			}
			if count > 0 {
				preview[row][col] = color.RGBA{
					R: uint8(sumR / uint32(count)),
					G: uint8(sumG / uint32(count)),
					B: uint8(sumB / uint32(count)),
					A: 255,
				}
			}
		}
	}
	return preview
}

// RenderPreview converts a preview grid to a bordered string using ANSI
// 24-bit background colors, one cell per space character.
func RenderPreview(preview [][]color.RGBA) string {
	if len(preview) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("  ┌" + strings.Repeat("─", len(preview[0])) + "┐\n")
	for _, row := range preview {
		sb.WriteString("  │")
		for _, pixel := range row {
			fmt.Fprintf(&sb, "\x1b[48;2;%d;%d;%dm \x1b[0m", pixel.R, pixel.G, pixel.B)
		}
		sb.WriteString("│\n")
	}
	sb.WriteString("  └" + strings.Repeat("─", len(preview[0])) + "┘\n")
	return sb.String()
}
