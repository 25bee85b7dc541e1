// Package analysis measures level statistics of buffers for status reports.
package analysis

import (
	"math"

	"github.com/cwbudde/algo-tempo/audio"
)

// Stats summarizes a buffer.
type Stats struct {
	SampleRate int
	Samples    int
	Duration   float64
	Peak       float64
	PeakDB     float64
	RMS        float64
	RMSDB      float64
	DCOffset   float64
}

// Measure computes Stats for b.
func Measure(b audio.Buffer) Stats {
	s := Stats{
		SampleRate: b.SampleRate,
		Samples:    b.Len(),
		Duration:   b.Duration(),
		Peak:       b.Peak(),
		RMS:        rms1(b.Samples),
		DCOffset:   mean(b.Samples),
	}
	s.PeakDB = linToDB(s.Peak)
	s.RMSDB = linToDB(s.RMS)
	return s
}

// IsSilent reports whether the peak stays below thresholdDB.
func (s Stats) IsSilent(thresholdDB float64) bool {
	return s.PeakDB < thresholdDB
}

// RMSE is the root mean square difference over the common prefix of a and b.
func RMSE(a []float64, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}
