package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-tempo/analysis"
	"github.com/cwbudde/algo-tempo/audio"
	"github.com/cwbudde/algo-tempo/audiofile"
	"github.com/cwbudde/algo-tempo/internal/config"
	"github.com/cwbudde/algo-tempo/onset"
	"github.com/cwbudde/algo-tempo/pipeline"
	"github.com/cwbudde/algo-tempo/tempo"
)

func main() {
	input := flag.String("input", "", "Audio file to analyse (wav, aiff, mp3, ogg)")
	window := flag.Int("window", onset.DefaultWindow, "STFT window size in samples")
	hop := flag.Int("hop", onset.DefaultHop, "STFT hop size in samples")
	analysisRate := flag.Int("analysis-rate", pipeline.DefaultAnalysisRate, "Resample to this rate before analysis (0 keeps the file rate)")
	workersFlag := flag.String("workers", "auto", "FFT worker count: integer >= 1 or 'auto'")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	flag.Parse()

	if *input == "" && flag.NArg() > 0 {
		*input = flag.Arg(0)
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "tempo-detect: -input is required")
		os.Exit(2)
	}
	workers, err := config.ParseWorkers(*workersFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tempo-detect: invalid -workers: %v\n", err)
		os.Exit(2)
	}
	level := config.LogLevel(*logLevel)
	if !level.IsValid() {
		fmt.Fprintf(os.Stderr, "tempo-detect: invalid -log-level %q\n", *logLevel)
		os.Exit(2)
	}
	logger := config.NewLogger(os.Stderr, level)

	buf, err := audiofile.Read(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tempo-detect: %v\n", err)
		os.Exit(1)
	}
	stats := analysis.Measure(buf)
	if *analysisRate > 0 && buf.SampleRate != *analysisRate {
		buf, err = audio.Resample(buf, *analysisRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tempo-detect: %v\n", err)
			os.Exit(1)
		}
	}

	det, err := tempo.NewDetector(tempo.DetectorOptions{
		Window:  *window,
		Hop:     *hop,
		Workers: workers,
		Logger:  logger,
	}).Detect(buf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tempo-detect: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Input: %s\n", *input)
	fmt.Printf("Audio duration: %.2f seconds\n", stats.Duration)
	fmt.Printf("Sample rate: %d Hz (analysed at %d Hz)\n", stats.SampleRate, buf.SampleRate)
	fmt.Printf("Max amplitude: %.3f (%.1f dBFS)\n", stats.Peak, stats.PeakDB)
	pipeline.PrintDetection(os.Stdout, det)
}
