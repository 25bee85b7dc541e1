package audio

import (
	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
)

// Resample converts b to rate. A buffer already at rate is returned as is.
func Resample(b Buffer, rate int) (Buffer, error) {
	if err := b.Validate(); err != nil {
		return Buffer{}, err
	}
	if rate <= 0 {
		return Buffer{}, ValidationError.New("target sample rate must be > 0, got %d", rate)
	}
	if b.SampleRate == rate {
		return b, nil
	}
	r, err := dspresample.NewForRates(
		float64(b.SampleRate),
		float64(rate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return Buffer{}, ValidationError.Wrap(err, "resample %d -> %d Hz", b.SampleRate, rate)
	}
	out := r.Process(b.Samples)
	if len(out) == 0 {
		return Buffer{}, ValidationError.New("resample %d -> %d Hz produced no samples", b.SampleRate, rate)
	}
	return Buffer{Samples: out, SampleRate: rate}, nil
}
