package pipeline

import (
	"fmt"
	"io"

	"github.com/cwbudde/algo-tempo/analysis"
	"github.com/cwbudde/algo-tempo/stretch"
	"github.com/cwbudde/algo-tempo/tempo"
)

// Report is the observable outcome of a run.
type Report struct {
	Reference     analysis.Stats
	Target        analysis.Stats
	Output        analysis.Stats
	Detection     tempo.Detection
	Plan          stretch.Plan
	BaseBPM       float64
	Amplification float64
	OutputPath    string
}

// Print writes a human-readable status report.
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Audio duration: %.2f seconds\n", r.Reference.Duration)
	fmt.Fprintf(w, "Sample rate: %d Hz\n", r.Reference.SampleRate)
	fmt.Fprintf(w, "Max amplitude: %.3f\n", r.Reference.Peak)
	PrintDetection(w, r.Detection)
	fmt.Fprintf(w, "Base BPM: %.2f  amplification: %.2f  base stretch: %.4f\n",
		r.BaseBPM, r.Amplification, r.Plan.BaseStretch)
	fmt.Fprintf(w, "Time-stretch factor: %.4f\n", r.Plan.Rate)
	fmt.Fprintf(w, "Target: %.2f s -> %.2f s @ %d Hz\n", r.Target.Duration, r.Output.Duration, r.Output.SampleRate)
	fmt.Fprintf(w, "Adjusted track saved as %s\n", r.OutputPath)
}

// PrintDetection writes every pass and the resolved tempo.
func PrintDetection(w io.Writer, d tempo.Detection) {
	for i, p := range d.Passes {
		fmt.Fprintf(w, "Tempo estimation method %d (%s): %.2f\n", i+1, p.Name, p.RawBPM)
	}
	fmt.Fprintf(w, "Average detected BPM: %.2f\n", d.Raw)
	if d.Fallback {
		fmt.Fprintf(w, "Warning: Could not detect valid BPM. Using default value of %.0f BPM\n", tempo.FallbackBPM)
	}
	fmt.Fprintf(w, "Final BPM: %.2f\n", d.BPM)
}
