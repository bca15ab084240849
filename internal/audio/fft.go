package audio

import (
	"math"

	"github.com/kwami-ai/kwavatar/internal/config"
	"gonum.org/v1/gonum/dsp/fourier"
)

// ApplyHanning applies a Hanning window to the input data.
func ApplyHanning(data []float64) []float64 {
	windowed := make([]float64, len(data))
	n := len(data)
	for i := range data {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = data[i] * window
	}
	return windowed
}

// Processor computes FFT coefficients for fixed-size sample chunks.
type Processor struct {
	fft *fourier.FFT
}

// NewProcessor creates a processor sized for the configured FFT window.
func NewProcessor() *Processor {
	return &Processor{fft: fourier.NewFFT(config.FFTSize)}
}

// ProcessChunk windows a chunk and returns its FFT coefficients. Short
// chunks are zero-padded.
func (p *Processor) ProcessChunk(samples []float64) []complex128 {
	chunk := samples
	if len(chunk) < config.FFTSize {
		padded := make([]float64, config.FFTSize)
		copy(padded, chunk)
		chunk = padded
	}
	return p.fft.Coefficients(nil, ApplyHanning(chunk))
}

// BinMagnitudes averages coefficient magnitudes into the configured
// number of frequency bins. Only the lower 3/4 of the positive spectrum
// is used; the very top carries little useful energy.
func BinMagnitudes(coeffs []complex128, dst []float64) {
	halfSize := len(coeffs) / 2
	maxFreqBin := (halfSize * 3) / 4
	binsPerBar := maxFreqBin / len(dst)
	if binsPerBar < 1 {
		binsPerBar = 1
	}

	for bin := range dst {
		start := bin * binsPerBar
		end := start + binsPerBar
		if end > maxFreqBin {
			end = maxFreqBin
		}

		var sum float64
		for i := start; i < end; i++ {
			sum += math.Hypot(real(coeffs[i]), imag(coeffs[i]))
		}
		dst[bin] = sum / float64(binsPerBar)
	}
}
