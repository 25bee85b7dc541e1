package stretch

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-tempo/audio"
	"github.com/cwbudde/algo-tempo/dsp"
)

const (
	DefaultWindow = 2048
	DefaultHop    = 512
)

// VocoderOptions configures a Vocoder. Hop must not exceed half the window.
type VocoderOptions struct {
	Window  int
	Hop     int
	Workers int
}

// Vocoder is a phase-vocoder time scaler.
type Vocoder struct {
	opts   VocoderOptions
	window []float64
}

// NewVocoder returns a Vocoder; zero options take the 2048/512 defaults.
func NewVocoder(opts VocoderOptions) *Vocoder {
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	if opts.Hop == 0 {
		opts.Hop = DefaultHop
	}
	return &Vocoder{opts: opts, window: dsp.Hann(opts.Window)}
}

// OutputLen is the number of samples Stretch produces for n input samples.
func OutputLen(n int, rate float64) int {
	return int(math.Round(float64(n) / rate))
}

// Stretch returns buf played rate times faster at the same pitch. The output
// has OutputLen(len, rate) samples and the input sample rate.
func (v *Vocoder) Stretch(buf audio.Buffer, rate float64) (audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return audio.Buffer{}, err
	}
	if !(rate > 0) || math.IsInf(rate, 0) {
		return audio.Buffer{}, audio.ValidationError.New("stretch rate must be > 0, got %v", rate)
	}
	size, hop := v.opts.Window, v.opts.Hop
	if hop < 1 || hop > size/2 {
		return audio.Buffer{}, audio.ValidationError.New("hop must be in [1, %d], got %d", size/2, hop)
	}

	analysis, err := dsp.STFT(buf.Samples, dsp.STFTConfig{
		Size:    size,
		Hop:     hop,
		Frames:  dsp.CenteredFrames(buf.Len(), hop),
		Window:  v.window,
		Workers: v.opts.Workers,
	})
	if err != nil {
		return audio.Buffer{}, audio.ValidationError.Wrap(err, "stretch analysis")
	}

	synth := v.resynthesize(analysis, rate)
	out, err := dsp.OverlapAdd(synth, size, hop, OutputLen(buf.Len(), rate), v.window)
	if err != nil {
		return audio.Buffer{}, audio.ValidationError.Wrap(err, "stretch synthesis")
	}
	return audio.Buffer{Samples: out, SampleRate: buf.SampleRate}, nil
}

// resynthesize reads the analysis frames at positions 0, rate, 2*rate, ...
// Magnitudes are interpolated between the two neighbouring frames; the phase
// is accumulated from the measured per-bin advance between those frames so
// each partial keeps its frequency. The accumulation is sequential.
func (v *Vocoder) resynthesize(analysis [][]complex128, rate float64) [][]complex128 {
	n := len(analysis)
	if n == 0 {
		return nil
	}
	bins := len(analysis[0])
	steps := int(math.Ceil(float64(n) / rate))

	// expected phase advance per hop for the centre frequency of each bin
	advance := make([]float64, bins)
	for k := range advance {
		advance[k] = 2 * math.Pi * float64(v.opts.Hop) * float64(k) / float64(v.opts.Window)
	}
	phase := make([]float64, bins)
	for k, z := range analysis[0] {
		phase[k] = cmplx.Phase(z)
	}

	zero := make([]complex128, bins)
	frame := func(i int) []complex128 {
		if i < n {
			return analysis[i]
		}
		return zero
	}

	out := make([][]complex128, 0, steps)
	for s := 0; s < steps; s++ {
		pos := float64(s) * rate
		i := int(pos)
		if i >= n {
			break
		}
		alpha := pos - float64(i)
		left, right := frame(i), frame(i+1)

		spec := make([]complex128, bins)
		for k := 0; k < bins; k++ {
			mag := (1-alpha)*cmplx.Abs(left[k]) + alpha*cmplx.Abs(right[k])
			spec[k] = cmplx.Rect(mag, phase[k])

			dphi := cmplx.Phase(right[k]) - cmplx.Phase(left[k]) - advance[k]
			phase[k] += advance[k] + dsp.Princarg(dphi)
		}
		out = append(out, spec)
	}
	return out
}
