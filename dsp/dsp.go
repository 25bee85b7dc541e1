// Package dsp contains the spectral and filtering building blocks shared by
// onset analysis and phase-vocoder stretching.
package dsp

import "math"

// Biquad implements a second-order IIR filter (no heap allocations in Process)
type Biquad struct {
	// Coefficients
	b0, b1, b2 float64
	a1, a2     float64

	// State (previous samples)
	x1, x2 float64 // input history
	y1, y2 float64 // output history
}

// NewBiquad creates a new biquad filter with the given coefficients
func NewBiquad(b0, b1, b2, a1, a2 float64) *Biquad {
	return &Biquad{
		b0: b0,
		b1: b1,
		b2: b2,
		a1: a1,
		a2: a2,
	}
}

// Process processes one sample through the biquad filter
func (b *Biquad) Process(input float64) float64 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = FlushDenormals(output)

	return b.y1
}

// Filter runs x through a fresh copy of the filter state and returns a new slice.
func (b *Biquad) Filter(x []float64) []float64 {
	b.Reset()
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = b.Process(v)
	}
	return out
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// NewLowpass creates a simple lowpass biquad filter.
// cutoff and sampleRate share a unit, so an envelope can be filtered in frames/s.
func NewLowpass(cutoff, sampleRate, q float64) *Biquad {
	w0 := 2.0 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2.0 * q)
	cosw0 := math.Cos(w0)

	b0 := (1.0 - cosw0) / 2.0
	b1 := 1.0 - cosw0
	b2 := (1.0 - cosw0) / 2.0
	a0 := 1.0 + alpha
	a1 := -2.0 * cosw0
	a2 := 1.0 - alpha

	// Normalize by a0
	return NewBiquad(b0/a0, b1/a0, b2/a0, a1/a0, a2/a0)
}

// FlushDenormals converts denormal numbers to zero to avoid performance issues
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}

// Princarg wraps a phase into [-pi, pi).
func Princarg(phase float64) float64 {
	return phase - 2*math.Pi*math.Round(phase/(2*math.Pi))
}

// Hann returns a periodic Hann window of length n.
func Hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// Median returns the median of x without modifying it.
func Median(x []float64, scratch []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	scratch = append(scratch[:0], x...)
	k := len(scratch) / 2
	hi := selectK(scratch, k)
	if len(scratch)%2 == 1 {
		return hi
	}
	lo := scratch[0]
	for _, v := range scratch[:k] {
		if v > lo {
			lo = v
		}
	}
	return 0.5 * (lo + hi)
}

// MedianFilter applies a centered running median of odd size; edges reuse the
// nearest full-size window content by clamping indices.
func MedianFilter(x []float64, size int) []float64 {
	out := make([]float64, len(x))
	if size < 2 {
		copy(out, x)
		return out
	}
	if size%2 == 0 {
		size++
	}
	half := size / 2
	win := make([]float64, size)
	scratch := make([]float64, size)
	for i := range x {
		for j := -half; j <= half; j++ {
			idx := i + j
			if idx < 0 {
				idx = 0
			}
			if idx >= len(x) {
				idx = len(x) - 1
			}
			win[j+half] = x[idx]
		}
		out[i] = Median(win, scratch)
	}
	return out
}

// selectK partially sorts x so x[k] holds the k-th smallest value and every
// element before it is not larger.
func selectK(x []float64, k int) float64 {
	lo, hi := 0, len(x)-1
	for lo < hi {
		pivot := x[(lo+hi)/2]
		i, j := lo, hi
		for i <= j {
			for x[i] < pivot {
				i++
			}
			for x[j] > pivot {
				j--
			}
			if i <= j {
				x[i], x[j] = x[j], x[i]
				i++
				j--
			}
		}
		if k <= j {
			hi = j
		} else if k >= i {
			lo = i
		} else {
			break
		}
	}
	return x[k]
}
