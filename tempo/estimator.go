// Package tempo estimates a single BPM value from onset envelopes.
package tempo

import (
	"math"

	"github.com/cwbudde/algo-approx"

	"github.com/cwbudde/algo-tempo/onset"
)

const (
	MinBPM      = 30.0
	MaxBPM      = 300.0
	FallbackBPM = 80.0

	DefaultPriorBPM     = 120.0
	DefaultPriorOctaves = 1.0
)

// Estimate is the resolved tempo of a recording.
type Estimate struct {
	BPM      float64 // always finite, in [MinBPM, MaxBPM]
	Raw      float64 // value before range checking, NaN when degenerate
	Fallback bool    // BPM was replaced by FallbackBPM
}

// Resolve applies the valid tempo band to a raw estimate. Anything outside
// [MinBPM, MaxBPM], or not finite, becomes exactly FallbackBPM.
func Resolve(raw float64) Estimate {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw < MinBPM || raw > MaxBPM {
		return Estimate{BPM: FallbackBPM, Raw: raw, Fallback: true}
	}
	return Estimate{BPM: raw, Raw: raw}
}

// EstimatorOptions configures the search band and the tempo prior.
type EstimatorOptions struct {
	MinBPM       float64
	MaxBPM       float64
	PriorBPM     float64
	PriorOctaves float64 // standard deviation of the prior in octaves
}

// DefaultEstimatorOptions searches 30-300 BPM with a prior centered on 120.
func DefaultEstimatorOptions() EstimatorOptions {
	return EstimatorOptions{
		MinBPM:       MinBPM,
		MaxBPM:       MaxBPM,
		PriorBPM:     DefaultPriorBPM,
		PriorOctaves: DefaultPriorOctaves,
	}
}

// Estimator finds the dominant periodicity of an onset envelope.
type Estimator struct {
	opts EstimatorOptions
}

// NewEstimator fills zero options with defaults.
func NewEstimator(opts EstimatorOptions) *Estimator {
	def := DefaultEstimatorOptions()
	if opts.MinBPM <= 0 {
		opts.MinBPM = def.MinBPM
	}
	if opts.MaxBPM <= opts.MinBPM {
		opts.MaxBPM = def.MaxBPM
	}
	if opts.PriorBPM <= 0 {
		opts.PriorBPM = def.PriorBPM
	}
	if opts.PriorOctaves <= 0 {
		opts.PriorOctaves = def.PriorOctaves
	}
	return &Estimator{opts: opts}
}

// Estimate returns the resolved tempo of a single envelope.
func (e *Estimator) Estimate(env onset.Envelope) Estimate {
	return Resolve(e.RawBPM(env))
}

// RawBPM returns the prior-weighted autocorrelation peak converted to BPM, or
// NaN when the envelope carries no usable periodicity.
func (e *Estimator) RawBPM(env onset.Envelope) float64 {
	rate := env.FrameRate()
	if rate <= 0 || env.Len() < 4 {
		return math.NaN()
	}

	minLag := int(math.Floor(60 * rate / e.opts.MaxBPM))
	maxLag := int(math.Ceil(60 * rate / e.opts.MinBPM))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag > env.Len()-2 {
		maxLag = env.Len() - 2
	}
	if maxLag-minLag < 2 {
		return math.NaN()
	}

	ac := autocorrelate(env.Strength, maxLag+2)
	weighted := make([]float64, maxLag+1)
	for lag := minLag; lag <= maxLag; lag++ {
		// A beat period rarely falls on a whole frame, so its energy is split
		// between neighbouring lags; pool them before weighting.
		v := 0.25*ac[lag-1] + 0.5*ac[lag] + 0.25*ac[lag+1]
		if v <= 0 {
			continue
		}
		weighted[lag] = v * e.prior(60*rate/float64(lag))
	}

	best := -1
	bestVal := 1e-12
	for lag := minLag; lag <= maxLag; lag++ {
		if weighted[lag] > bestVal {
			bestVal = weighted[lag]
			best = lag
		}
	}
	if best < 0 {
		return math.NaN()
	}

	period := float64(best) + parabolicOffset(weighted, best)
	return 60 * rate / period
}

// prior is a log-Gaussian weight over tempo, one at PriorBPM.
func (e *Estimator) prior(bpm float64) float64 {
	z := math.Log2(bpm/e.opts.PriorBPM) / e.opts.PriorOctaves
	return float64(approx.FastExp(float32(-0.5 * z * z)))
}

// autocorrelate returns the unbiased autocorrelation of the mean-removed
// signal for lags [0, maxLag).
func autocorrelate(x []float64, maxLag int) []float64 {
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	centered := make([]float64, len(x))
	for i, v := range x {
		centered[i] = v - mean
	}

	if maxLag > len(x) {
		maxLag = len(x)
	}
	ac := make([]float64, maxLag)
	for lag := 0; lag < maxLag; lag++ {
		n := len(x) - lag
		var sum float64
		for i := 0; i < n; i++ {
			sum += centered[i] * centered[i+lag]
		}
		ac[lag] = sum / float64(n)
	}
	return ac
}

// parabolicOffset refines a peak index with a three-point parabola; the result
// is within (-0.5, 0.5).
func parabolicOffset(y []float64, i int) float64 {
	if i <= 0 || i >= len(y)-1 {
		return 0
	}
	a, b, c := y[i-1], y[i], y[i+1]
	den := a - 2*b + c
	if den >= 0 {
		return 0
	}
	off := 0.5 * (a - c) / den
	if off > 0.5 {
		off = 0.5
	}
	if off < -0.5 {
		off = -0.5
	}
	return off
}
