package analysis

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-tempo/audio"
	"github.com/cwbudde/algo-tempo/dsp"
)

// Band is a frequency range in Hz.
type Band struct {
	Name string
	LoHz float64
	HiHz float64
}

// DefaultBands splits the audible range into seven reporting bands.
func DefaultBands() []Band {
	return []Band{
		{"sub-bass (20-100Hz)", 20, 100},
		{"bass (100-300Hz)", 100, 300},
		{"low-mid (300-1kHz)", 300, 1000},
		{"mid (1-3kHz)", 1000, 3000},
		{"hi-mid (3-6kHz)", 3000, 6000},
		{"high (6-12kHz)", 6000, 12000},
		{"air (12-20kHz)", 12000, 20000},
	}
}

// BandDiff compares one band of two long-term spectra.
type BandDiff struct {
	Band
	RMSEDB float64 // per-bin level error
	RefDB  float64
	CandDB float64
}

// DiffDB is the candidate level relative to the reference.
func (d BandDiff) DiffDB() float64 {
	return d.CandDB - d.RefDB
}

// Spectrum is the average STFT magnitude of a buffer.
type Spectrum struct {
	Mag    []float64 // bins 0..size/2
	BinHz  float64
	Frames int
}

// LongTermSpectrum averages the magnitude of every centered STFT frame of b.
func LongTermSpectrum(b audio.Buffer, size, hop, workers int) (Spectrum, error) {
	if err := b.Validate(); err != nil {
		return Spectrum{}, err
	}
	frames, err := dsp.STFT(b.Samples, dsp.STFTConfig{
		Size:    size,
		Hop:     hop,
		Frames:  dsp.CenteredFrames(b.Len(), hop),
		Workers: workers,
	})
	if err != nil {
		return Spectrum{}, audio.ValidationError.Wrap(err, "long-term spectrum")
	}
	avg := make([]float64, size/2+1)
	for _, f := range frames {
		for k, z := range f {
			avg[k] += dsp.Magnitude(z)
		}
	}
	scale := 1 / float64(len(frames))
	for k := range avg {
		avg[k] *= scale
	}
	return Spectrum{Mag: avg, BinHz: float64(b.SampleRate) / float64(size), Frames: len(frames)}, nil
}

// CompareBands reports per-band level differences between two spectra of the
// same size and bin spacing. Bands above Nyquist are skipped.
func CompareBands(ref, cand Spectrum, bands []Band) ([]BandDiff, error) {
	if len(ref.Mag) != len(cand.Mag) || ref.BinHz != cand.BinHz {
		return nil, fmt.Errorf("spectra differ in resolution: %d bins @ %.3f Hz vs %d bins @ %.3f Hz",
			len(ref.Mag), ref.BinHz, len(cand.Mag), cand.BinHz)
	}
	last := len(ref.Mag) - 1
	var out []BandDiff
	for _, b := range bands {
		loK := int(b.LoHz / ref.BinHz)
		hiK := int(b.HiHz / ref.BinHz)
		if loK < 1 {
			loK = 1
		}
		if hiK >= last {
			hiK = last - 1
		}
		if loK > hiK {
			continue
		}

		var sumSq, refPow, candPow float64
		cnt := 0
		for k := loK; k <= hiK; k++ {
			d := linToDB(ref.Mag[k]) - linToDB(cand.Mag[k])
			sumSq += d * d
			refPow += ref.Mag[k] * ref.Mag[k]
			candPow += cand.Mag[k] * cand.Mag[k]
			cnt++
		}
		out = append(out, BandDiff{
			Band:   b,
			RMSEDB: math.Sqrt(sumSq / float64(cnt)),
			RefDB:  10 * math.Log10(math.Max(refPow/float64(cnt), 1e-24)),
			CandDB: 10 * math.Log10(math.Max(candPow/float64(cnt), 1e-24)),
		})
	}
	return out, nil
}
