package audio

import (
	"fmt"
	"io"
	"math"

	"github.com/kwami-ai/kwavatar/internal/config"
)

// Noise gate and log-scale constants for the byte conversion. The gate
// runs on raw scaled magnitudes, before the log curve.
const (
	noiseGate     = 0.01
	fallbackScale = 0.0075
	targetPeak    = 0.85
)

// Analyser streams a decoded file through a sliding FFT window, one
// frame per call, and emits byte frequency snapshots scaled 0-255. It
// advances by SampleRate/fps samples per frame, so playback position
// tracks the caller's frame clock.
type Analyser struct {
	dec  Decoder
	proc *Processor

	window []float64
	step   int

	magnitudes []float64
	exhausted  bool
	primed     bool

	// peak tracks the loudest binned magnitude seen so far; the byte
	// scaling adapts so that peak maps near the top of the range.
	peak float64
}

// NewAnalyser wraps a decoder. fps fixes the per-frame sample advance;
// the default frame rate is used when fps <= 0.
func NewAnalyser(dec Decoder, fps int) *Analyser {
	if fps <= 0 {
		fps = config.FPS
	}
	return &Analyser{
		dec:        dec,
		proc:       NewProcessor(),
		window:     make([]float64, config.FFTSize),
		step:       dec.SampleRate() / fps,
		magnitudes: make([]float64, config.FrequencyBins),
	}
}

// OpenAnalyser opens a file by extension and wraps it in an analyser.
func OpenAnalyser(filename string, fps int) (*Analyser, error) {
	dec, err := Open(filename)
	if err != nil {
		return nil, err
	}
	return NewAnalyser(dec, fps), nil
}

// Available reports whether more frames can be produced.
func (a *Analyser) Available() bool { return !a.exhausted }

// FrequencyData advances one frame and fills dst with byte magnitudes.
// Returns false once the stream is exhausted.
func (a *Analyser) FrequencyData(dst []byte) bool {
	if a.exhausted {
		return false
	}

	if !a.primed {
		if err := a.prime(); err != nil {
			a.exhausted = true
			return false
		}
	} else if !a.slide() {
		a.exhausted = true
		return false
	}

	coeffs := a.proc.ProcessChunk(a.window)
	BinMagnitudes(coeffs, a.magnitudes)
	a.toBytes(dst)
	return true
}

// prime fills the whole FFT window from the start of the stream.
func (a *Analyser) prime() error {
	filled := 0
	for filled < len(a.window) {
		chunk, err := a.dec.ReadChunk(len(a.window) - filled)
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		filled += copy(a.window[filled:], chunk)
	}
	if filled == 0 {
		return fmt.Errorf("no audio data")
	}
	a.primed = true
	return nil
}

// slide shifts the window left by one frame step and appends fresh
// samples. Returns false when the stream has nothing left.
func (a *Analyser) slide() bool {
	fresh := make([]float64, 0, a.step)
	for len(fresh) < a.step {
		chunk, err := a.dec.ReadChunk(a.step - len(fresh))
		if err != nil {
			break
		}
		fresh = append(fresh, chunk...)
	}
	if len(fresh) == 0 {
		return false
	}

	copy(a.window, a.window[a.step:])
	tail := a.window[len(a.window)-a.step:]
	n := copy(tail, fresh)
	for i := n; i < len(tail); i++ {
		tail[i] = 0
	}
	return true
}

// toBytes converts binned magnitudes to 0-255 with an adaptive scale:
// the running peak maps near full range, a noise gate zeroes the floor,
// and a log curve spreads the rest.
func (a *Analyser) toBytes(dst []byte) {
	for _, m := range a.magnitudes {
		if m > a.peak {
			a.peak = m
		}
	}

	scale := fallbackScale
	if a.peak > 0 {
		scale = targetPeak / a.peak
	}

	n := len(dst)
	if n > len(a.magnitudes) {
		n = len(a.magnitudes)
	}
	for i := 0; i < n; i++ {
		scaled := a.magnitudes[i] * scale
		if scaled < noiseGate {
			dst[i] = 0
			continue
		}
		v := math.Log10(1 + scaled*9)
		if v > 1 {
			v = 1
		}
		dst[i] = byte(v * 255)
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// Close closes the underlying decoder.
func (a *Analyser) Close() error { return a.dec.Close() }
