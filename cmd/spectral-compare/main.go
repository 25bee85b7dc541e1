package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-tempo/analysis"
	"github.com/cwbudde/algo-tempo/audio"
	"github.com/cwbudde/algo-tempo/audiofile"
	"github.com/cwbudde/algo-tempo/internal/config"
)

func main() {
	refPath := flag.String("reference", "", "Reference audio, e.g. the unstretched target")
	candPath := flag.String("candidate", "", "Candidate audio, e.g. the stretched output")
	fftSize := flag.Int("fft", 4096, "FFT size in samples")
	hop := flag.Int("hop", 2048, "Hop size in samples")
	workersFlag := flag.String("workers", "auto", "FFT worker count: integer >= 1 or 'auto'")
	flag.Parse()

	if *refPath == "" || *candPath == "" {
		fmt.Fprintln(os.Stderr, "spectral-compare: -reference and -candidate are required")
		os.Exit(2)
	}
	workers, err := config.ParseWorkers(*workersFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spectral-compare: invalid -workers: %v\n", err)
		os.Exit(2)
	}

	ref, err := audiofile.Read(*refPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ref: %v\n", err)
		os.Exit(1)
	}
	cand, err := audiofile.Read(*candPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cand: %v\n", err)
		os.Exit(1)
	}
	if cand.SampleRate != ref.SampleRate {
		cand, err = audio.Resample(cand, ref.SampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cand resample: %v\n", err)
			os.Exit(1)
		}
	}

	rs, cs := analysis.Measure(ref), analysis.Measure(cand)
	fmt.Printf("Reference: %d samples @ %d Hz (%.2fs)\n", rs.Samples, rs.SampleRate, rs.Duration)
	fmt.Printf("Candidate: %d samples @ %d Hz (%.2fs)  duration ratio=%.4f\n",
		cs.Samples, cs.SampleRate, cs.Duration, cs.Duration/rs.Duration)
	fmt.Printf("Peak levels: ref=%.4f (%.1f dB)  cand=%.4f (%.1f dB)  ratio=%.1fdB\n",
		rs.Peak, rs.PeakDB, cs.Peak, cs.PeakDB, cs.PeakDB-rs.PeakDB)
	fmt.Printf("RMS levels:  ref=%.1f dB  cand=%.1f dB\n", rs.RMSDB, cs.RMSDB)
	common := min(rs.Samples, cs.Samples)
	fmt.Printf("Time RMSE over first %d samples: %.5f\n\n", common, analysis.RMSE(ref.Samples, cand.Samples))

	refSpec, err := analysis.LongTermSpectrum(ref, *fftSize, *hop, workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ref spectrum: %v\n", err)
		os.Exit(1)
	}
	candSpec, err := analysis.LongTermSpectrum(cand, *fftSize, *hop, workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cand spectrum: %v\n", err)
		os.Exit(1)
	}
	diffs, err := analysis.CompareBands(refSpec, candSpec, analysis.DefaultBands())
	if err != nil {
		fmt.Fprintf(os.Stderr, "compare: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("--- long-term spectrum (%d / %d STFT frames) ---\n", refSpec.Frames, candSpec.Frames)
	for _, d := range diffs {
		marker := ""
		if d.RMSEDB > 15 {
			marker = " <<<"
		}
		if d.RMSEDB > 25 {
			marker = " <<< !!!"
		}
		fmt.Printf("  %-22s RMSE=%5.1fdB  ref=%6.1fdB  cand=%6.1fdB  diff=%+5.1fdB%s\n",
			d.Name, d.RMSEDB, d.RefDB, d.CandDB, d.DiffDB(), marker)
	}
}
