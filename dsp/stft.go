package dsp

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// STFTConfig describes a centered short-time Fourier transform.
// Frame t covers samples [t*Hop - Size/2, t*Hop + Size/2), zero outside the input.
type STFTConfig struct {
	Size    int
	Hop     int
	Frames  int
	Window  []float64 // nil selects a periodic Hann window
	Workers int       // <= 0 uses all CPUs
}

// CenteredFrames is the frame count of a centered STFT covering n samples
// including the final partial hop.
func CenteredFrames(n, hop int) int {
	return 1 + n/hop
}

// Validate checks the size/hop pair.
func (c STFTConfig) Validate() error {
	if c.Size < 2 {
		return fmt.Errorf("window must be >= 2, got %d", c.Size)
	}
	if c.Hop < 1 || c.Hop > c.Size {
		return fmt.Errorf("hop must be in [1, %d], got %d", c.Size, c.Hop)
	}
	if c.Window != nil && len(c.Window) != c.Size {
		return fmt.Errorf("window length %d does not match size %d", len(c.Window), c.Size)
	}
	return nil
}

// STFT computes cfg.Frames spectra of x. Frames are independent and are
// transformed in parallel, each worker with its own FFT plan.
func STFT(x []float64, cfg STFTConfig) ([][]complex128, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	window := cfg.Window
	if window == nil {
		window = Hann(cfg.Size)
	}
	frames := make([][]complex128, cfg.Frames)
	if cfg.Frames <= 0 {
		return frames, nil
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	chunk := (cfg.Frames + workers - 1) / workers
	if chunk < 8 {
		chunk = 8
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < cfg.Frames; start += chunk {
		start := start
		end := start + chunk
		if end > cfg.Frames {
			end = cfg.Frames
		}
		g.Go(func() error {
			fft, err := NewRealFFT(cfg.Size)
			if err != nil {
				return err
			}
			buf := make([]float64, cfg.Size)
			half := cfg.Size / 2
			for t := start; t < end; t++ {
				offset := t*cfg.Hop - half
				for i := range buf {
					idx := offset + i
					if idx >= 0 && idx < len(x) {
						buf[i] = x[idx] * window[i]
					} else {
						buf[i] = 0
					}
				}
				spec := make([]complex128, fft.Bins())
				fft.Forward(spec, buf)
				frames[t] = spec
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

// OverlapAdd is the inverse of STFT for frames placed every hop samples with the
// same centering. Each frame is inverse transformed, multiplied by window and
// summed; the result is divided by the summed squared window wherever that sum
// is not negligible. The returned signal has exactly length samples.
func OverlapAdd(frames [][]complex128, size, hop, length int, window []float64) ([]float64, error) {
	cfg := STFTConfig{Size: size, Hop: hop, Window: window}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if length < 0 {
		length = 0
	}
	if window == nil {
		window = Hann(size)
	}
	fft, err := NewRealFFT(size)
	if err != nil {
		return nil, err
	}

	half := size / 2
	padded := size + hop*maxInt(len(frames)-1, 0)
	acc := make([]float64, padded)
	norm := make([]float64, padded)
	buf := make([]float64, size)
	for t, spec := range frames {
		fft.Inverse(buf, spec)
		offset := t * hop
		for i := 0; i < size; i++ {
			acc[offset+i] += buf[i] * window[i]
			norm[offset+i] += window[i] * window[i]
		}
	}

	const tiny = 1e-10
	out := make([]float64, length)
	for i := range out {
		j := i + half
		if j >= padded {
			break
		}
		if norm[j] > tiny {
			out[i] = FlushDenormals(acc[j] / norm[j])
		}
	}
	return out, nil
}

// Magnitude returns |z|.
func Magnitude(z complex128) float64 {
	return math.Hypot(real(z), imag(z))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
