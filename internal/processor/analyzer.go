package processor

import "math"

// level accumulates the RMS of a run of output samples for the VU meter
type level struct {
	sumSquares float64
	count      int64
}

func (l *level) add(v float64) {
	l.sumSquares += v * v
	l.count++
}

// take returns the level since the previous call in dBFS and starts a new
// window. The range is clamped to -60..0 dB for display.
func (l *level) take() float64 {
	if l.count == 0 {
		return -60.0
	}
	rms := math.Sqrt(l.sumSquares / float64(l.count))
	l.sumSquares, l.count = 0, 0

	if rms < 0.00001 { // Equivalent to -100 dB
		return -60.0
	}

	levelDB := 20.0 * math.Log10(rms)
	if levelDB < -60.0 {
		levelDB = -60.0
	} else if levelDB > 0.0 {
		levelDB = 0.0
	}
	return levelDB
}
