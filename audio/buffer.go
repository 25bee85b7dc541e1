// Package audio holds the in-memory sample buffer passed between pipeline stages.
package audio

import "math"

// Buffer is a mono block of samples in roughly [-1, 1] at a fixed sample rate.
// Stages treat their input as read-only and return freshly allocated buffers.
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// NewBuffer wraps samples without copying.
func NewBuffer(samples []float64, sampleRate int) Buffer {
	return Buffer{Samples: samples, SampleRate: sampleRate}
}

// Validate rejects empty buffers and non-positive sample rates.
func (b Buffer) Validate() error {
	if b.SampleRate <= 0 {
		return ValidationError.New("sample rate must be > 0, got %d", b.SampleRate)
	}
	if len(b.Samples) == 0 {
		return ValidationError.New("audio buffer is empty")
	}
	return nil
}

// Len returns the number of samples.
func (b Buffer) Len() int {
	return len(b.Samples)
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Peak returns the largest absolute sample value.
func (b Buffer) Peak() float64 {
	peak := 0.0
	for _, v := range b.Samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// Clone returns a deep copy.
func (b Buffer) Clone() Buffer {
	s := make([]float64, len(b.Samples))
	copy(s, b.Samples)
	return Buffer{Samples: s, SampleRate: b.SampleRate}
}

// MixDown averages interleaved frames of the given channel count into mono.
// A trailing partial frame is dropped.
func MixDown(interleaved []float32, channels int) []float64 {
	if channels < 1 {
		return nil
	}
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	if channels == 1 {
		for i := 0; i < frames; i++ {
			out[i] = float64(interleaved[i])
		}
		return out
	}
	inv := 1.0 / float64(channels)
	for f := 0; f < frames; f++ {
		var sum float64
		base := f * channels
		for c := 0; c < channels; c++ {
			sum += float64(interleaved[base+c])
		}
		out[f] = sum * inv
	}
	return out
}

// Float32 converts samples for encoders that take float32 PCM.
func (b Buffer) Float32() []float32 {
	out := make([]float32, len(b.Samples))
	for i, v := range b.Samples {
		out[i] = float32(v)
	}
	return out
}
