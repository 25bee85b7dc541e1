package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/cwbudde/algo-tempo/internal/config"
	"github.com/cwbudde/algo-tempo/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	def := pipeline.DefaultConfig()
	fs := flag.NewFlagSet("tempo-stretch", flag.ContinueOnError)
	configPath := fs.String("config", "", "Optional YAML job file; explicit flags override its values")
	reference := fs.String("reference", "", "Reference recording whose tempo is detected")
	target := fs.String("target", "", "Track to time-stretch")
	output := fs.String("output", "", "Output WAV file path")
	baseBPM := fs.Float64("base-bpm", def.BaseBPM, "Tempo that maps to an unchanged target")
	amplification := fs.Float64("amplification", def.Amplification, "Scales the deviation of detected/base from 1")
	window := fs.Int("window", def.Window, "STFT window size in samples")
	hop := fs.Int("hop", def.Hop, "STFT hop size in samples")
	analysisRate := fs.Int("analysis-rate", def.AnalysisRate, "Resample the reference to this rate before analysis (0 keeps the file rate)")
	workersFlag := fs.String("workers", "auto", "FFT worker count: integer >= 1 or 'auto'")
	logLevel := fs.String("log-level", "", "Log level: debug|info|warn|error (default info)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := def
	level := config.LogInfo
	if *configPath != "" {
		f, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tempo-stretch: %v\n", err)
			return 1
		}
		if err := config.ApplyFile(&cfg, f); err != nil {
			fmt.Fprintf(os.Stderr, "tempo-stretch: config %q: %v\n", *configPath, err)
			return 1
		}
		if f.LogLevel != "" {
			level = f.LogLevel
		}
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "reference":
			cfg.ReferencePath = *reference
		case "target":
			cfg.TargetPath = *target
		case "output":
			cfg.OutputPath = *output
		case "base-bpm":
			cfg.BaseBPM = *baseBPM
		case "amplification":
			cfg.Amplification = *amplification
		case "window":
			cfg.Window = *window
		case "hop":
			cfg.Hop = *hop
		case "analysis-rate":
			cfg.AnalysisRate = *analysisRate
		case "workers":
			n, err := config.ParseWorkers(*workersFlag)
			if err != nil {
				flagErr = fmt.Errorf("invalid -workers: %w", err)
			}
			cfg.Workers = n
		case "log-level":
			level = config.LogLevel(*logLevel)
			if !level.IsValid() {
				flagErr = fmt.Errorf("invalid -log-level %q", *logLevel)
			}
		}
	})
	if flagErr != nil {
		fmt.Fprintf(os.Stderr, "tempo-stretch: %v\n", flagErr)
		return 2
	}

	logger := config.NewLogger(os.Stderr, level)
	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "tempo-stretch: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := p.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tempo-stretch: %v\n", err)
		return 1
	}
	rep.Print(os.Stdout)
	return 0
}
