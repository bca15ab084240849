// Package export writes rendered frames to disk as a numbered PNG
// sequence, ready for ffmpeg or any image-sequence consumer.
package export

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// Config holds the sequence writer configuration.
type Config struct {
	OutputDir string // Directory receiving the frame files
	Width     int    // Frame width in pixels
	Height    int    // Frame height in pixels
	Framerate int    // Frames per second, recorded in the manifest
}

// Sequence writes frames as frame_000000.png, frame_000001.png, ...
// under the configured directory.
type Sequence struct {
	config      Config
	initialized bool
	frameIndex  int

	enc png.Encoder
}

// New creates a sequence writer after validating the configuration.
func New(config Config) (*Sequence, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", config.Width, config.Height)
	}
	if config.Framerate <= 0 {
		return nil, fmt.Errorf("invalid framerate: %d", config.Framerate)
	}
	if config.OutputDir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}

	return &Sequence{
		config: config,
		// Rendered frames compress poorly at max effort and this runs
		// per frame; speed wins.
		enc: png.Encoder{CompressionLevel: png.BestSpeed},
	}, nil
}

// Initialize creates the output directory. Must be called before the
// first WriteFrame.
func (s *Sequence) Initialize() error {
	if s.initialized {
		return nil
	}
	if err := os.MkdirAll(s.config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	s.initialized = true
	return nil
}

// WriteFrame appends one frame to the sequence.
func (s *Sequence) WriteFrame(img image.Image) error {
	if !s.initialized {
		return fmt.Errorf("sequence not initialized")
	}

	b := img.Bounds()
	if b.Dx() != s.config.Width || b.Dy() != s.config.Height {
		return fmt.Errorf("frame size %dx%d does not match configured %dx%d",
			b.Dx(), b.Dy(), s.config.Width, s.config.Height)
	}

	path := filepath.Join(s.config.OutputDir, fmt.Sprintf("frame_%06d.png", s.frameIndex))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	if err := s.enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode frame %d: %w", s.frameIndex, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	s.frameIndex++
	return nil
}

// FramesWritten returns the number of frames written so far.
func (s *Sequence) FramesWritten() int { return s.frameIndex }

// Close finalizes the sequence by writing a small manifest with the
// frame count and rate next to the frames.
func (s *Sequence) Close() error {
	if !s.initialized {
		return nil
	}
	manifest := fmt.Sprintf("frames=%d\nframerate=%d\nwidth=%d\nheight=%d\n",
		s.frameIndex, s.config.Framerate, s.config.Width, s.config.Height)
	path := filepath.Join(s.config.OutputDir, "sequence.txt")
	return os.WriteFile(path, []byte(manifest), 0o644)
}
