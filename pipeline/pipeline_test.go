package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/cwbudde/algo-tempo/audio"
	"github.com/cwbudde/algo-tempo/audiofile"
	"github.com/cwbudde/algo-tempo/pipeline"
	"github.com/cwbudde/algo-tempo/tempo"
)

type memFS struct {
	mu      sync.Mutex
	files   map[string]audio.Buffer
	written map[string]audio.Buffer
}

func newMemFS() *memFS {
	return &memFS{files: map[string]audio.Buffer{}, written: map[string]audio.Buffer{}}
}

func (m *memFS) read(path string) (audio.Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[path]
	if !ok {
		return audio.Buffer{}, audio.IOError.New("open %s: not found", path)
	}
	return b.Clone(), nil
}

func (m *memFS) write(path string, b audio.Buffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written[path] = b
	return nil
}

func clickTrack(sr int, seconds, bpm float64) audio.Buffer {
	rng := rand.New(rand.NewSource(7))
	n := int(float64(sr) * seconds)
	x := make([]float64, n)
	for i := range x {
		x[i] = 0.001 * (rng.Float64()*2 - 1)
	}
	period := 60 / bpm * float64(sr)
	burst := sr / 100
	for beat := 0.0; ; beat++ {
		c := int(beat * period)
		if c >= n {
			break
		}
		for i := 0; i < burst && c+i < n; i++ {
			x[c+i] += 0.8 * math.Exp(-float64(i)/float64(burst/4)) * (rng.Float64()*2 - 1)
		}
	}
	return audio.NewBuffer(x, sr)
}

func sine(sr int, seconds, freq float64) audio.Buffer {
	n := int(float64(sr) * seconds)
	x := make([]float64, n)
	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return audio.NewBuffer(x, sr)
}

func baseConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.ReferencePath = "ref.wav"
	cfg.TargetPath = "target.wav"
	cfg.OutputPath = "out.wav"
	return cfg
}

var _ = Describe("Config", func() {
	It("rejects a missing path and a non-positive base tempo together", func() {
		cfg := baseConfig()
		cfg.OutputPath = ""
		cfg.BaseBPM = 0
		err := cfg.Validate()
		Expect(audio.IsValidation(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("output_path"))
		Expect(err.Error()).To(ContainSubstring("base_bpm"))
	})

	It("accepts the defaults once paths are set", func() {
		Expect(baseConfig().Validate()).To(Succeed())
	})

	It("refuses to build a pipeline from an invalid config", func() {
		cfg := baseConfig()
		cfg.Hop = cfg.Window
		_, err := pipeline.New(cfg)
		Expect(audio.IsValidation(err)).To(BeTrue())
	})
})

var _ = Describe("Pipeline", func() {
	var (
		fs   *memFS
		logs *bytes.Buffer
		opts []pipeline.Option
	)

	BeforeEach(func() {
		fs = newMemFS()
		logs = &bytes.Buffer{}
		logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = []pipeline.Option{
			pipeline.WithReader(fs.read),
			pipeline.WithWriter(fs.write),
			pipeline.WithLogger(logger),
		}
	})

	It("stretches the target to follow a 120 BPM reference", func() {
		fs.files["ref.wav"] = clickTrack(22050, 10, 120)
		fs.files["target.wav"] = sine(44100, 10, 220)

		p, err := pipeline.New(baseConfig(), opts...)
		Expect(err).NotTo(HaveOccurred())
		rep, err := p.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(rep.Detection.Fallback).To(BeFalse())
		Expect(rep.Detection.BPM).To(BeNumerically("~", 120, 4))
		Expect(rep.Detection.Passes).To(HaveLen(2))
		Expect(logs.String()).NotTo(ContainSubstring("reference is silent"))
		Expect(rep.Plan.Rate).To(BeNumerically("~", 1+(rep.Detection.BPM/100-1)*3, 1e-9))

		out, ok := fs.written["out.wav"]
		Expect(ok).To(BeTrue())
		Expect(out.SampleRate).To(Equal(44100))
		Expect(out.Len()).To(Equal(int(math.Round(float64(441000) / rep.Plan.Rate))))
		Expect(rep.Output.Duration).To(BeNumerically("~", 10/rep.Plan.Rate, 0.01))
	})

	It("resamples the reference to the analysis rate", func() {
		fs.files["ref.wav"] = clickTrack(44100, 8, 120)
		fs.files["target.wav"] = sine(22050, 2, 330)

		p, err := pipeline.New(baseConfig(), opts...)
		Expect(err).NotTo(HaveOccurred())
		rep, err := p.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Reference.SampleRate).To(Equal(44100))
		Expect(rep.Detection.BPM).To(BeNumerically("~", 120, 4))
		Expect(logs.String()).To(ContainSubstring("reference resampled"))
	})

	It("falls back to 80 BPM on a silent reference and still writes output", func() {
		fs.files["ref.wav"] = audio.NewBuffer(make([]float64, 22050*3), 22050)
		fs.files["target.wav"] = sine(22050, 4, 440)

		p, err := pipeline.New(baseConfig(), opts...)
		Expect(err).NotTo(HaveOccurred())
		rep, err := p.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(rep.Detection.Fallback).To(BeTrue())
		Expect(rep.Detection.BPM).To(Equal(tempo.FallbackBPM))
		Expect(rep.Plan.Rate).To(BeNumerically("~", 0.4, 1e-12))
		Expect(fs.written).To(HaveKey("out.wav"))
		Expect(fs.written["out.wav"].Len()).To(Equal(int(math.Round(float64(22050*4) / 0.4))))
		Expect(logs.String()).To(ContainSubstring("reference is silent"))
		Expect(logs.String()).To(ContainSubstring("could not detect a valid tempo"))

		var report bytes.Buffer
		rep.Print(&report)
		Expect(report.String()).To(ContainSubstring("Using default value of 80 BPM"))
		Expect(report.String()).To(ContainSubstring("Time-stretch factor: 0.4000"))
	})

	It("reports a missing target as an io error and writes nothing", func() {
		fs.files["ref.wav"] = clickTrack(22050, 4, 120)

		p, err := pipeline.New(baseConfig(), opts...)
		Expect(err).NotTo(HaveOccurred())
		_, err = p.Run(context.Background())
		Expect(audio.IsIO(err)).To(BeTrue())
		Expect(fs.written).To(BeEmpty())
	})

	It("propagates writer failures", func() {
		fs.files["ref.wav"] = clickTrack(22050, 4, 120)
		fs.files["target.wav"] = sine(22050, 1, 440)
		boom := errors.New("disk full")

		p, err := pipeline.New(baseConfig(), append(opts, pipeline.WithWriter(func(string, audio.Buffer) error {
			return boom
		}))...)
		Expect(err).NotTo(HaveOccurred())
		_, err = p.Run(context.Background())
		Expect(errors.Is(err, boom)).To(BeTrue())
	})

	It("stops on a cancelled context", func() {
		fs.files["ref.wav"] = clickTrack(22050, 4, 120)
		fs.files["target.wav"] = sine(22050, 1, 440)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p, err := pipeline.New(baseConfig(), opts...)
		Expect(err).NotTo(HaveOccurred())
		_, err = p.Run(ctx)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(fs.written).To(BeEmpty())
	})

	It("round-trips through real WAV files", func() {
		dir, err := os.MkdirTemp("", "pipeline")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		cfg := baseConfig()
		cfg.ReferencePath = filepath.Join(dir, "ref.wav")
		cfg.TargetPath = filepath.Join(dir, "target.wav")
		cfg.OutputPath = filepath.Join(dir, "nested", "out.wav")
		Expect(audiofile.Write(cfg.ReferencePath, clickTrack(22050, 6, 120))).To(Succeed())
		Expect(audiofile.Write(cfg.TargetPath, sine(22050, 2, 440))).To(Succeed())

		p, err := pipeline.New(cfg, pipeline.WithLogger(slog.New(slog.NewTextHandler(logs, nil))))
		Expect(err).NotTo(HaveOccurred())
		rep, err := p.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		out, err := audiofile.Read(cfg.OutputPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.SampleRate).To(Equal(22050))
		Expect(out.Len()).To(Equal(rep.Output.Samples))
	})
})
