// Package stretch maps a detected tempo to a playback rate and time-scales
// audio by that rate without changing its pitch.
package stretch

import (
	"math"

	"github.com/cwbudde/algo-tempo/audio"
)

// MinRate is the smallest rate a Plan will ever carry.
const MinRate = 0.1

// Plan is the rate handed to the stretcher. Rate > 1 shortens the output.
type Plan struct {
	Rate        float64
	BaseStretch float64 // detected/base before amplification
}

// ComputePlan amplifies the deviation of detectedBPM from baseBPM:
// rate = max(1 + (detected/base - 1) * amplification, MinRate).
// Negative amplification inverts the direction and is allowed.
func ComputePlan(detectedBPM, baseBPM, amplification float64) (Plan, error) {
	if !(baseBPM > 0) || math.IsInf(baseBPM, 0) {
		return Plan{}, audio.ValidationError.New("base bpm must be > 0, got %v", baseBPM)
	}
	base := detectedBPM / baseBPM
	raw := 1 + (base-1)*amplification
	// NaN compares false against everything; treat it as the floor.
	if !(raw >= MinRate) {
		raw = MinRate
	}
	return Plan{Rate: raw, BaseStretch: base}, nil
}
