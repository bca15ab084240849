// Package audio turns WAV/MP3/FLAC files into the byte frequency
// snapshots the engine consumes: decode to mono float64, sliding-window
// FFT, bin, and scale to 0-255.
package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Decoder streams mono float64 samples out of an audio file.
type Decoder interface {
	// ReadChunk reads up to numSamples mono samples. Returns io.EOF once
	// the stream is exhausted.
	ReadChunk(numSamples int) ([]float64, error)

	// SampleRate returns the stream's sample rate in Hz.
	SampleRate() int

	// NumChannels returns the source channel count before downmix.
	NumChannels() int

	// Close releases the underlying file.
	Close() error
}

// Open picks a decoder by file extension.
func Open(filename string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return NewWAVDecoder(filename)
	case ".mp3":
		return NewMP3Decoder(filename)
	case ".flac":
		return NewFLACDecoder(filename)
	default:
		return nil, fmt.Errorf("unsupported audio format %q (want .wav, .mp3, or .flac)", filepath.Ext(filename))
	}
}
