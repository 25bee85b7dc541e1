package pipeline

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-tempo/audio"
)

// Config enumerates everything a run needs.
type Config struct {
	ReferencePath string
	TargetPath    string
	OutputPath    string
	BaseBPM       float64
	Amplification float64
	Window        int
	Hop           int

	// AnalysisRate resamples the reference before tempo analysis; 0 keeps
	// the file's own rate.
	AnalysisRate int

	// Workers bounds per-frame FFT parallelism; 0 uses all CPUs.
	Workers int
}

const (
	DefaultBaseBPM       = 100.0
	DefaultAmplification = 3.0
	DefaultWindow        = 2048
	DefaultHop           = 512
	DefaultAnalysisRate  = 22050
)

// DefaultConfig returns the defaults without any paths set.
func DefaultConfig() Config {
	return Config{
		BaseBPM:       DefaultBaseBPM,
		Amplification: DefaultAmplification,
		Window:        DefaultWindow,
		Hop:           DefaultHop,
		AnalysisRate:  DefaultAnalysisRate,
	}
}

// Validate returns a ValidationError listing every problem found.
func (c Config) Validate() error {
	var errs []error
	if c.ReferencePath == "" {
		errs = append(errs, errors.New("reference_path is required"))
	}
	if c.TargetPath == "" {
		errs = append(errs, errors.New("target_path is required"))
	}
	if c.OutputPath == "" {
		errs = append(errs, errors.New("output_path is required"))
	}
	if !(c.BaseBPM > 0) {
		errs = append(errs, fmt.Errorf("base_bpm must be > 0, got %v", c.BaseBPM))
	}
	if c.Window < 16 {
		errs = append(errs, fmt.Errorf("window must be >= 16, got %d", c.Window))
	}
	if c.Hop < 1 || c.Hop > c.Window/2 {
		errs = append(errs, fmt.Errorf("hop must be in [1, window/2], got %d", c.Hop))
	}
	if c.AnalysisRate < 0 {
		errs = append(errs, fmt.Errorf("analysis_rate must be >= 0, got %d", c.AnalysisRate))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if len(errs) == 0 {
		return nil
	}
	return audio.ValidationError.Wrap(errors.Join(errs...), "invalid configuration")
}
