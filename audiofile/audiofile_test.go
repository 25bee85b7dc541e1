package audiofile

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-tempo/audio"
)

func TestWriteReadWAVRoundTrip(t *testing.T) {
	const sr = 16000
	x := make([]float64, sr/2)
	for i := range x {
		x[i] = 0.6 * math.Sin(2*math.Pi*250*float64(i)/sr)
	}
	path := filepath.Join(t.TempDir(), "nested", "out.wav")
	if err := Write(path, audio.NewBuffer(x, sr)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.SampleRate != sr {
		t.Fatalf("sample rate = %d, want %d", got.SampleRate, sr)
	}
	if got.Len() != len(x) {
		t.Fatalf("len = %d, want %d", got.Len(), len(x))
	}
	for i := range x {
		if math.Abs(got.Samples[i]-x[i]) > 1e-3 {
			t.Fatalf("sample %d = %f, want %f", i, got.Samples[i], x[i])
		}
	}
}

func TestWriteClipsOutOfRangeSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := Write(path, audio.NewBuffer([]float64{2, -3, 0.5}, 8000)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Peak() > 1.0001 {
		t.Fatalf("peak %f exceeds full scale", got.Peak())
	}
}

func TestReadMissingFileIsIOError(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.wav"))
	if !audio.IsIO(err) {
		t.Fatalf("expected io error, got %v", err)
	}
}

func TestReadUnknownExtensionIsValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Read(path)
	if !audio.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReadCorruptFilesAreIOErrors(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bad.wav", "bad.mp3", "bad.ogg", "bad.aiff"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("definitely not audio data at all"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Read(path); !audio.IsIO(err) {
			t.Fatalf("%s: expected io error, got %v", name, err)
		}
	}
}

func TestWriteToUnwritablePathIsIOError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := Write(filepath.Join(blocker, "out.wav"), audio.NewBuffer([]float64{0.1}, 8000))
	if !audio.IsIO(err) {
		t.Fatalf("expected io error, got %v", err)
	}
}

func TestWriteRejectsEmptyBuffer(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "empty.wav"), audio.NewBuffer(nil, 8000))
	if !audio.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type stubDecoder struct{ pcm PCM }

func (d stubDecoder) Decode(io.ReadSeeker) (PCM, error) { return d.pcm, nil }

func TestRegistryDownMixesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.RAW")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewRegistry()
	r.Register("raw", stubDecoder{PCM{Data: []float32{1, 0, 0, 1}, Channels: 2, SampleRate: 100}})
	buf, err := r.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if buf.Len() != 2 || buf.Samples[0] != 0.5 || buf.Samples[1] != 0.5 {
		t.Fatalf("unexpected mix %+v", buf)
	}

	r.Register(".raw", stubDecoder{PCM{Channels: 1, SampleRate: 100}})
	if _, err := r.Read(path); !audio.IsValidation(err) {
		t.Fatalf("zero samples: expected validation error, got %v", err)
	}
}

func TestDefaultRegistryExtensions(t *testing.T) {
	got := NewDefaultRegistry().Extensions()
	want := []string{".aif", ".aiff", ".mp3", ".oga", ".ogg", ".wav", ".wave"}
	if len(got) != len(want) {
		t.Fatalf("extensions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("extensions = %v, want %v", got, want)
		}
	}
}
