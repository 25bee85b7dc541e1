package tempo

import (
	"log/slog"
	"math"

	"github.com/cwbudde/algo-tempo/audio"
	"github.com/cwbudde/algo-tempo/onset"
)

// Pass names one envelope configuration used by a Detector.
type Pass struct {
	Name  string
	Onset onset.Options
}

// PassResult is the raw outcome of a single pass.
type PassResult struct {
	Name   string
	RawBPM float64 // NaN when the pass found no periodicity
	Frames int
}

// Detection is the combined result of all passes.
type Detection struct {
	Passes []PassResult
	Estimate
}

// DetectorOptions configures a Detector.
type DetectorOptions struct {
	Window    int
	Hop       int
	Workers   int
	Estimator EstimatorOptions
	Passes    []Pass // nil selects DefaultPasses
	Logger    *slog.Logger
}

// DefaultPasses returns the coarse and fine passes. Coarse averages the flux
// of every FFT bin; fine takes the median over third-octave bands, which keeps
// narrowband low-frequency beats visible. Each yields its own estimate.
func DefaultPasses(window, hop, workers int) []Pass {
	return []Pass{
		{
			Name: "coarse",
			Onset: onset.Options{
				Window:    window,
				Hop:       hop,
				Aggregate: onset.AggregateMean,
				Smoothing: onset.SmoothLowpass,
				CutoffHz:  8,
				Workers:   workers,
			},
		},
		{
			Name: "fine",
			Onset: onset.Options{
				Window:     window,
				Hop:        hop,
				Aggregate:  onset.AggregateMedian,
				Spectrum:   onset.SpectrumThirdOctave,
				Smoothing:  onset.SmoothMedian,
				MedianSize: 3,
				Workers:    workers,
			},
		},
	}
}

// Detector runs several independent envelope/periodicity passes over a
// recording and averages their raw tempos.
type Detector struct {
	passes    []Pass
	estimator *Estimator
	logger    *slog.Logger
}

// NewDetector builds a Detector.
func NewDetector(opts DetectorOptions) *Detector {
	passes := opts.Passes
	if len(passes) == 0 {
		passes = DefaultPasses(opts.Window, opts.Hop, opts.Workers)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		passes:    passes,
		estimator: NewEstimator(opts.Estimator),
		logger:    logger,
	}
}

// Detect estimates the tempo of buf from the mean of the passes that found a
// periodicity. When none did, or the mean is outside the valid band, the
// tempo is FallbackBPM and a warning is logged; it never fails the call.
func (d *Detector) Detect(buf audio.Buffer) (Detection, error) {
	if err := buf.Validate(); err != nil {
		return Detection{}, err
	}

	det := Detection{Passes: make([]PassResult, 0, len(d.passes))}
	raws := make([]float64, 0, len(d.passes))
	for _, p := range d.passes {
		env, err := onset.NewExtractor(p.Onset).Extract(buf)
		if err != nil {
			return Detection{}, err
		}
		raw := d.estimator.RawBPM(env)
		det.Passes = append(det.Passes, PassResult{Name: p.Name, RawBPM: raw, Frames: env.Len()})
		d.logger.Debug("tempo pass", "pass", p.Name, "raw_bpm", raw, "frames", env.Len())
		raws = append(raws, raw)
	}

	avg := finiteMean(raws)
	det.Estimate = Resolve(avg)
	if det.Fallback {
		d.logger.Warn("could not detect a valid tempo, using default",
			"raw_bpm", avg,
			"fallback_bpm", FallbackBPM,
		)
	}
	return det, nil
}

// finiteMean averages the finite values of raws; NaN when there are none.
func finiteMean(raws []float64) float64 {
	var sum float64
	n := 0
	for _, v := range raws {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
