package bands

import (
	"github.com/kwami-ai/kwavatar/internal/config"
)

// Levels holds the per-frame normalized energy of the four frequency bands.
// All values are in [0, 1].
type Levels struct {
	Low   float64
	Mid   float64
	High  float64
	Ultra float64
}

// Level returns the overall average of the four bands.
func (l Levels) Level() float64 {
	return (l.Low + l.Mid + l.High + l.Ultra) / 4
}

// Extract partitions a frequency snapshot (byte magnitudes, one per bin)
// into low/mid/high/ultra segments and reduces each to the segment average
// normalized by 255. An empty snapshot or a degenerate segment yields 0
// rather than dividing by zero.
func Extract(freq []byte) Levels {
	n := len(freq)
	if n == 0 {
		return Levels{}
	}

	lowEnd := int(float64(n) * config.BandLowEnd)
	midEnd := int(float64(n) * config.BandMidEnd)
	highEnd := int(float64(n) * config.BandHighEnd)

	return Levels{
		Low:   segmentAverage(freq, 0, lowEnd),
		Mid:   segmentAverage(freq, lowEnd, midEnd),
		High:  segmentAverage(freq, midEnd, highEnd),
		Ultra: segmentAverage(freq, highEnd, n),
	}
}

func segmentAverage(freq []byte, start, end int) float64 {
	if end <= start {
		return 0
	}
	var sum float64
	for _, v := range freq[start:end] {
		sum += float64(v)
	}
	return sum / float64(end-start) / 255.0
}
