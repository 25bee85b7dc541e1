package dsp

import (
	"fmt"

	algofft "github.com/cwbudde/algo-fft"
)

// RealFFT is a real-input FFT of fixed size with a unit-gain inverse.
// A RealFFT must not be shared between goroutines.
type RealFFT struct {
	size    int
	forward func(dst []complex128, src []float64)
	inverse func(dst []float64, src []complex128)
	scale   float64
	spec    []complex128
}

// NewRealFFT plans a transform of n real samples (n/2+1 bins).
func NewRealFFT(n int) (*RealFFT, error) {
	if n < 2 {
		return nil, fmt.Errorf("fft size must be >= 2, got %d", n)
	}
	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return nil, fmt.Errorf("fft plan %d: %w", n, err)
	}
	f := &RealFFT{
		size:    n,
		forward: func(dst []complex128, src []float64) { plan.Forward(dst, src) },
		inverse: func(dst []float64, src []complex128) { plan.Inverse(dst, src) },
		scale:   1,
		spec:    make([]complex128, n/2+1),
	}

	// Calibrate the inverse on a unit impulse so Inverse(Forward(x)) == x
	// regardless of the library's normalization convention.
	impulse := make([]float64, n)
	impulse[0] = 1
	f.forward(f.spec, impulse)
	f.inverse(impulse, f.spec)
	if impulse[0] == 0 {
		return nil, fmt.Errorf("fft plan %d: degenerate inverse", n)
	}
	f.scale = 1 / impulse[0]
	return f, nil
}

// Size returns the transform length in samples.
func (f *RealFFT) Size() int { return f.size }

// Bins returns the number of spectrum bins.
func (f *RealFFT) Bins() int { return f.size/2 + 1 }

// Forward writes the spectrum of src (len Size) into dst (len Bins).
func (f *RealFFT) Forward(dst []complex128, src []float64) {
	f.forward(dst, src)
}

// Inverse writes the real signal of spectrum src into dst. src is not modified.
func (f *RealFFT) Inverse(dst []float64, src []complex128) {
	copy(f.spec, src)
	f.inverse(dst, f.spec)
	if f.scale != 1 {
		for i := range dst {
			dst[i] *= f.scale
		}
	}
}
