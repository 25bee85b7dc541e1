package analysis

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-tempo/audio"
)

func TestCompareBandsIgnoresDuration(t *testing.T) {
	sr := 22050
	ref, err := LongTermSpectrum(audio.NewBuffer(makeSine(sr, 440, 1, 0.5), sr), 2048, 512, 0)
	if err != nil {
		t.Fatalf("ref spectrum: %v", err)
	}
	cand, err := LongTermSpectrum(audio.NewBuffer(makeSine(sr, 440, 2, 0.5), sr), 2048, 512, 0)
	if err != nil {
		t.Fatalf("cand spectrum: %v", err)
	}
	diffs, err := CompareBands(ref, cand, DefaultBands())
	if err != nil {
		t.Fatalf("CompareBands: %v", err)
	}
	d := findBand(t, diffs, "low-mid (300-1kHz)")
	if math.Abs(d.DiffDB()) > 1 {
		t.Fatalf("low-mid diff = %.2f dB, want about 0", d.DiffDB())
	}
}

func TestCompareBandsDetectsMovedPartial(t *testing.T) {
	sr := 22050
	ref, _ := LongTermSpectrum(audio.NewBuffer(makeSine(sr, 440, 1, 0.5), sr), 2048, 512, 0)
	cand, _ := LongTermSpectrum(audio.NewBuffer(makeSine(sr, 2000, 1, 0.5), sr), 2048, 512, 0)
	diffs, err := CompareBands(ref, cand, DefaultBands())
	if err != nil {
		t.Fatalf("CompareBands: %v", err)
	}
	if d := findBand(t, diffs, "low-mid (300-1kHz)"); d.DiffDB() > -20 {
		t.Fatalf("low-mid diff = %.2f dB, want a large drop", d.DiffDB())
	}
	if d := findBand(t, diffs, "mid (1-3kHz)"); d.DiffDB() < 20 {
		t.Fatalf("mid diff = %.2f dB, want a large rise", d.DiffDB())
	}
}

func TestCompareBandsSkipsBandsAboveNyquist(t *testing.T) {
	sr := 8000
	s, err := LongTermSpectrum(audio.NewBuffer(makeSine(sr, 440, 0.5, 0.5), sr), 2048, 512, 0)
	if err != nil {
		t.Fatalf("spectrum: %v", err)
	}
	diffs, err := CompareBands(s, s, DefaultBands())
	if err != nil {
		t.Fatalf("CompareBands: %v", err)
	}
	if len(diffs) != 5 {
		t.Fatalf("expected 5 bands below 4 kHz, got %d", len(diffs))
	}
	for _, d := range diffs {
		if d.RMSEDB != 0 || d.DiffDB() != 0 {
			t.Fatalf("self comparison of %s not zero: %+v", d.Name, d)
		}
	}
}

func TestCompareBandsRejectsMismatchedResolution(t *testing.T) {
	a, _ := LongTermSpectrum(audio.NewBuffer(makeSine(22050, 440, 0.5, 0.5), 22050), 2048, 512, 0)
	b, _ := LongTermSpectrum(audio.NewBuffer(makeSine(44100, 440, 0.5, 0.5), 44100), 2048, 512, 0)
	if _, err := CompareBands(a, b, DefaultBands()); err == nil {
		t.Fatalf("expected resolution mismatch error")
	}
}

func TestLongTermSpectrumRejectsEmpty(t *testing.T) {
	if _, err := LongTermSpectrum(audio.NewBuffer(nil, 22050), 2048, 512, 0); !audio.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func findBand(t *testing.T, diffs []BandDiff, name string) BandDiff {
	t.Helper()
	for _, d := range diffs {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("band %q missing", name)
	return BandDiff{}
}
