// Package config loads optional YAML job files for the command-line tools
// and applies them over pipeline defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-tempo/pipeline"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l onto slog; unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger on w at level l.
func NewLogger(w io.Writer, l LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l.Level()}))
}

// File is the YAML schema of a job file. Nil fields keep their defaults.
type File struct {
	ReferencePath string   `yaml:"reference_path"`
	TargetPath    string   `yaml:"target_path"`
	OutputPath    string   `yaml:"output_path"`
	BaseBPM       *float64 `yaml:"base_bpm"`
	Amplification *float64 `yaml:"amplification"`
	Window        *int     `yaml:"window"`
	Hop           *int     `yaml:"hop"`
	AnalysisRate  *int     `yaml:"analysis_rate"`
	Workers       *string  `yaml:"workers"`
	LogLevel      LogLevel `yaml:"log_level"`
}

// Load reads the job file at path. Relative audio paths are resolved
// against the directory holding the file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	base := filepath.Dir(path)
	cfg.ReferencePath = resolve(base, cfg.ReferencePath)
	cfg.TargetPath = resolve(base, cfg.TargetPath)
	cfg.OutputPath = resolve(base, cfg.OutputPath)
	return cfg, nil
}

// LoadFromReader decodes a job file from r. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*File, error) {
	cfg := &File{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		return nil, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel)
	}
	return cfg, nil
}

// ApplyFile copies every field set in f onto dst.
func ApplyFile(dst *pipeline.Config, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination config")
	}
	if f == nil {
		return nil
	}
	if f.ReferencePath != "" {
		dst.ReferencePath = strings.TrimSpace(f.ReferencePath)
	}
	if f.TargetPath != "" {
		dst.TargetPath = strings.TrimSpace(f.TargetPath)
	}
	if f.OutputPath != "" {
		dst.OutputPath = strings.TrimSpace(f.OutputPath)
	}
	if f.BaseBPM != nil {
		if *f.BaseBPM <= 0 {
			return fmt.Errorf("base_bpm must be > 0")
		}
		dst.BaseBPM = *f.BaseBPM
	}
	if f.Amplification != nil {
		dst.Amplification = *f.Amplification
	}
	if f.Window != nil {
		dst.Window = *f.Window
	}
	if f.Hop != nil {
		dst.Hop = *f.Hop
	}
	if f.AnalysisRate != nil {
		if *f.AnalysisRate < 0 {
			return fmt.Errorf("analysis_rate must be >= 0")
		}
		dst.AnalysisRate = *f.AnalysisRate
	}
	if f.Workers != nil {
		n, err := ParseWorkers(*f.Workers)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		dst.Workers = n
	}
	return nil
}

// ParseWorkers accepts "auto" (0, all CPUs) or an integer >= 1.
func ParseWorkers(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return 0, fmt.Errorf("empty value (use integer >= 1 or 'auto')")
	}
	if v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use integer >= 1 or 'auto')", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or 'auto')", n)
	}
	return n, nil
}

func resolve(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
