// Package pipeline wires tempo detection on a reference recording to
// phase-vocoder stretching of a target track.
package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-tempo/analysis"
	"github.com/cwbudde/algo-tempo/audio"
	"github.com/cwbudde/algo-tempo/audiofile"
	"github.com/cwbudde/algo-tempo/stretch"
	"github.com/cwbudde/algo-tempo/tempo"
)

// SilenceDB is the reference peak level below which a silence warning is logged.
const SilenceDB = -60.0

// ReadFunc loads a mono buffer from path.
type ReadFunc func(path string) (audio.Buffer, error)

// WriteFunc stores buf at path.
type WriteFunc func(path string, buf audio.Buffer) error

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for progress and fallback warnings.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithReader replaces the audio source.
func WithReader(fn ReadFunc) Option {
	return func(p *Pipeline) { p.read = fn }
}

// WithWriter replaces the audio sink.
func WithWriter(fn WriteFunc) Option {
	return func(p *Pipeline) { p.write = fn }
}

// Pipeline runs one reference/target/output job.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	read   ReadFunc
	write  WriteFunc
}

// New validates cfg and returns a Pipeline reading and writing real files
// unless overridden by opts.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:    cfg,
		logger: slog.Default(),
		read:   audiofile.Read,
		write:  audiofile.Write,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the validated configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Analyze resamples ref to the analysis rate and runs tempo detection.
func (p *Pipeline) Analyze(ref audio.Buffer) (tempo.Detection, error) {
	if err := ref.Validate(); err != nil {
		return tempo.Detection{}, err
	}
	if p.cfg.AnalysisRate > 0 && ref.SampleRate != p.cfg.AnalysisRate {
		resampled, err := audio.Resample(ref, p.cfg.AnalysisRate)
		if err != nil {
			return tempo.Detection{}, err
		}
		p.logger.Debug("reference resampled", "from_hz", ref.SampleRate, "to_hz", resampled.SampleRate)
		ref = resampled
	}
	det := tempo.NewDetector(tempo.DetectorOptions{
		Window:  p.cfg.Window,
		Hop:     p.cfg.Hop,
		Workers: p.cfg.Workers,
		Logger:  p.logger,
	})
	return det.Detect(ref)
}

// Stretch applies a plan to target.
func (p *Pipeline) Stretch(target audio.Buffer, plan stretch.Plan) (audio.Buffer, error) {
	v := stretch.NewVocoder(stretch.VocoderOptions{
		Window:  p.cfg.Window,
		Hop:     p.cfg.Hop,
		Workers: p.cfg.Workers,
	})
	return v.Stretch(target, plan.Rate)
}

// Run executes the whole job. The reference analysis and the target read
// share no state and run concurrently.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	rep := Report{OutputPath: p.cfg.OutputPath, BaseBPM: p.cfg.BaseBPM, Amplification: p.cfg.Amplification}

	var target audio.Buffer
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ref, err := p.read(p.cfg.ReferencePath)
		if err != nil {
			return err
		}
		rep.Reference = analysis.Measure(ref)
		if rep.Reference.IsSilent(SilenceDB) {
			p.logger.Warn("reference is silent, tempo will fall back to the default",
				"reference", p.cfg.ReferencePath,
				"peak_db", rep.Reference.PeakDB,
			)
		}
		if err := gctx.Err(); err != nil {
			return err
		}
		det, err := p.Analyze(ref)
		if err != nil {
			return err
		}
		rep.Detection = det
		return nil
	})
	g.Go(func() error {
		buf, err := p.read(p.cfg.TargetPath)
		if err != nil {
			return err
		}
		target = buf
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	p.logger.Info("tempo detected",
		"bpm", rep.Detection.BPM,
		"fallback", rep.Detection.Fallback,
		"reference", p.cfg.ReferencePath,
	)

	plan, err := stretch.ComputePlan(rep.Detection.BPM, p.cfg.BaseBPM, p.cfg.Amplification)
	if err != nil {
		return Report{}, err
	}
	rep.Plan = plan
	rep.Target = analysis.Measure(target)

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	out, err := p.Stretch(target, plan)
	if err != nil {
		return Report{}, err
	}
	if err := p.write(p.cfg.OutputPath, out); err != nil {
		return Report{}, err
	}
	rep.Output = analysis.Measure(out)
	p.logger.Info("stretched track written",
		"path", p.cfg.OutputPath,
		"rate", plan.Rate,
		"duration_s", rep.Output.Duration,
	)
	return rep, nil
}
