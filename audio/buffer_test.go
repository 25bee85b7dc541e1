package audio

import (
	"math"
	"testing"
)

func TestValidateRejectsEmptyAndBadRate(t *testing.T) {
	if err := (Buffer{SampleRate: 44100}).Validate(); !IsValidation(err) {
		t.Fatalf("empty buffer: expected validation error, got %v", err)
	}
	if err := NewBuffer([]float64{0.1}, 0).Validate(); !IsValidation(err) {
		t.Fatalf("zero rate: expected validation error, got %v", err)
	}
	if err := NewBuffer([]float64{0.1}, -8000).Validate(); !IsValidation(err) {
		t.Fatalf("negative rate: expected validation error, got %v", err)
	}
	if err := NewBuffer([]float64{0.1}, 8000).Validate(); err != nil {
		t.Fatalf("valid buffer rejected: %v", err)
	}
}

func TestDurationAndPeak(t *testing.T) {
	b := NewBuffer([]float64{0, -0.75, 0.5, 0.25}, 4)
	if got := b.Duration(); got != 1.0 {
		t.Fatalf("Duration() = %f, want 1", got)
	}
	if got := b.Peak(); got != 0.75 {
		t.Fatalf("Peak() = %f, want 0.75", got)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	b := NewBuffer([]float64{1, 2, 3}, 8000)
	c := b.Clone()
	c.Samples[0] = 42
	if b.Samples[0] != 1 {
		t.Fatalf("clone aliases original samples")
	}
}

func TestMixDownAveragesChannels(t *testing.T) {
	got := MixDown([]float32{1, 0, 0.5, 0.5, -1, 1, 0.25}, 2)
	want := []float64{0.5, 0.5, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-7 {
			t.Fatalf("frame %d = %f, want %f", i, got[i], want[i])
		}
	}
	if MixDown([]float32{1, 2}, 0) != nil {
		t.Fatalf("expected nil for zero channels")
	}
}

func TestResampleHalvesLength(t *testing.T) {
	const sr = 44100
	x := make([]float64, sr)
	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sr)
	}
	out, err := Resample(NewBuffer(x, sr), sr/2)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if out.SampleRate != sr/2 {
		t.Fatalf("rate = %d, want %d", out.SampleRate, sr/2)
	}
	want := float64(sr / 2)
	if d := math.Abs(float64(out.Len()) - want); d > want*0.02 {
		t.Fatalf("len = %d, want about %.0f", out.Len(), want)
	}
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	b := NewBuffer([]float64{0.1, 0.2}, 22050)
	out, err := Resample(b, 22050)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if &out.Samples[0] != &b.Samples[0] {
		t.Fatalf("expected same backing slice for equal rates")
	}
	if _, err := Resample(b, 0); !IsValidation(err) {
		t.Fatalf("expected validation error for zero target rate, got %v", err)
	}
}
