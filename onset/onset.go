// Package onset turns a waveform into a spectral-flux onset-strength envelope.
package onset

import (
	"math"

	"github.com/cwbudde/algo-tempo/audio"
	"github.com/cwbudde/algo-tempo/dsp"
)

// Aggregate selects how per-bin flux is combined into one value per frame.
type Aggregate int

const (
	AggregateMean Aggregate = iota
	AggregateMedian
)

func (a Aggregate) String() string {
	switch a {
	case AggregateMean:
		return "mean"
	case AggregateMedian:
		return "median"
	}
	return "unknown"
}

// Smoothing selects the filter applied across frames before normalization.
type Smoothing int

const (
	SmoothNone Smoothing = iota
	SmoothMedian
	SmoothLowpass
)

func (s Smoothing) String() string {
	switch s {
	case SmoothNone:
		return "none"
	case SmoothMedian:
		return "median"
	case SmoothLowpass:
		return "lowpass"
	}
	return "unknown"
}

// Spectrum selects the frequency columns the flux is measured on.
type Spectrum int

const (
	SpectrumLinear      Spectrum = iota // every FFT bin
	SpectrumThirdOctave                 // bins pooled into third-octave bands from bandLowHz
)

func (s Spectrum) String() string {
	switch s {
	case SpectrumLinear:
		return "linear"
	case SpectrumThirdOctave:
		return "third-octave"
	}
	return "unknown"
}

const (
	DefaultWindow = 2048
	DefaultHop    = 512

	// topDB is the dynamic range kept below the loudest bin or band.
	topDB = 80.0

	bandLowHz      = 32.0
	bandsPerOctave = 3
)

// Options configures an Extractor.
type Options struct {
	Window     int
	Hop        int
	Aggregate  Aggregate
	Spectrum   Spectrum
	Smoothing  Smoothing
	MedianSize int     // frames, for SmoothMedian
	CutoffHz   float64 // envelope-rate cutoff, for SmoothLowpass
	Workers    int
}

// DefaultOptions mirrors a plain spectral-flux detector: 2048/512, mean aggregate.
func DefaultOptions() Options {
	return Options{
		Window:     DefaultWindow,
		Hop:        DefaultHop,
		Aggregate:  AggregateMean,
		Smoothing:  SmoothNone,
		MedianSize: 3,
		CutoffHz:   8,
	}
}

// Envelope is onset strength per analysis frame.
type Envelope struct {
	Strength   []float64
	HopSeconds float64
}

// FrameRate returns envelope frames per second.
func (e Envelope) FrameRate() float64 {
	if e.HopSeconds <= 0 {
		return 0
	}
	return 1 / e.HopSeconds
}

// Len returns the number of frames.
func (e Envelope) Len() int {
	return len(e.Strength)
}

// Extractor computes onset envelopes.
type Extractor struct {
	opts Options
}

// NewExtractor returns an Extractor; zero-valued window and hop take defaults.
func NewExtractor(opts Options) *Extractor {
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	if opts.Hop == 0 {
		opts.Hop = DefaultHop
	}
	if opts.MedianSize == 0 {
		opts.MedianSize = 3
	}
	if opts.CutoffHz == 0 {
		opts.CutoffHz = 8
	}
	return &Extractor{opts: opts}
}

// Extract computes the envelope of buf: ceil(len/hop) frames, non-negative,
// zero floor and unit variance (all zero when the flux is constant).
func (x *Extractor) Extract(buf audio.Buffer) (Envelope, error) {
	if err := buf.Validate(); err != nil {
		return Envelope{}, err
	}
	hop := x.opts.Hop
	frames := (buf.Len() + hop - 1) / hop
	spec, err := dsp.STFT(buf.Samples, dsp.STFTConfig{
		Size:    x.opts.Window,
		Hop:     hop,
		Frames:  frames,
		Workers: x.opts.Workers,
	})
	if err != nil {
		return Envelope{}, audio.ValidationError.Wrap(err, "onset analysis")
	}

	db := x.levels(spec, float64(buf.SampleRate))
	flux := x.flux(db)

	switch x.opts.Smoothing {
	case SmoothMedian:
		flux = dsp.MedianFilter(flux, x.opts.MedianSize)
	case SmoothLowpass:
		rate := float64(buf.SampleRate) / float64(hop)
		cutoff := math.Min(x.opts.CutoffHz, 0.45*rate)
		flux = dsp.NewLowpass(cutoff, rate, math.Sqrt2/2).Filter(flux)
	}

	return Envelope{
		Strength:   normalize(flux),
		HopSeconds: float64(hop) / float64(buf.SampleRate),
	}, nil
}

// levels converts spectra to dB power per column (bin or band), clipped at
// topDB below the global peak.
func (x *Extractor) levels(spec [][]complex128, sampleRate float64) [][]float64 {
	const floor = 1e-20
	var bands [][2]int
	if x.opts.Spectrum == SpectrumThirdOctave {
		bands = thirdOctaveBands(sampleRate, x.opts.Window)
	}

	out := make([][]float64, len(spec))
	peak := math.Inf(-1)
	for t, frame := range spec {
		var row []float64
		if len(bands) == 0 {
			row = make([]float64, len(frame))
			for k, z := range frame {
				row[k] = power(z)
			}
		} else {
			row = make([]float64, len(bands))
			for b, r := range bands {
				var sum float64
				for _, z := range frame[r[0]:r[1]] {
					sum += power(z)
				}
				row[b] = sum / float64(r[1]-r[0])
			}
		}
		for k, p := range row {
			if p < floor {
				p = floor
			}
			row[k] = 10 * math.Log10(p)
			if row[k] > peak {
				peak = row[k]
			}
		}
		out[t] = row
	}
	low := peak - topDB
	for _, row := range out {
		for k, v := range row {
			if v < low {
				row[k] = low
			}
		}
	}
	return out
}

// thirdOctaveBands groups the bins of a size-point FFT into third-octave bands
// starting at bandLowHz. Bands narrower than a bin are merged upward so every
// returned half-open bin range is non-empty; the last band ends at Nyquist.
func thirdOctaveBands(sampleRate float64, size int) [][2]int {
	binHz := sampleRate / float64(size)
	end := size/2 + 1
	lo := int(math.Ceil(bandLowHz / binHz))
	if lo < 1 {
		lo = 1
	}
	step := math.Pow(2, 1.0/bandsPerOctave)
	var bands [][2]int
	for edge := bandLowHz; lo < end; {
		edge *= step
		hi := int(math.Ceil(edge / binHz))
		if hi > end {
			hi = end
		}
		if hi > lo {
			bands = append(bands, [2]int{lo, hi})
			lo = hi
		}
	}
	return bands
}

func power(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

// flux is the rectified first difference across frames, aggregated over bins.
// The first frame has no predecessor and is zero.
func (x *Extractor) flux(db [][]float64) []float64 {
	out := make([]float64, len(db))
	if len(db) == 0 {
		return out
	}
	diff := make([]float64, len(db[0]))
	scratch := make([]float64, len(db[0]))
	for t := 1; t < len(db); t++ {
		prev, cur := db[t-1], db[t]
		var sum float64
		for k := range cur {
			d := cur[k] - prev[k]
			if d < 0 {
				d = 0
			}
			diff[k] = d
			sum += d
		}
		if x.opts.Aggregate == AggregateMedian {
			out[t] = dsp.Median(diff, scratch)
		} else {
			out[t] = sum / float64(len(diff))
		}
	}
	return out
}

func normalize(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	lo := x[0]
	var mean float64
	for _, v := range x {
		if v < lo {
			lo = v
		}
		mean += v
	}
	mean /= float64(len(x))
	var variance float64
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(x)))
	if std < 1e-12 {
		return out
	}
	for i, v := range x {
		out[i] = (v - lo) / std
	}
	return out
}
