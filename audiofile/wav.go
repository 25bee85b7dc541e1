package audiofile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"

	"github.com/cwbudde/algo-tempo/audio"
)

// WAVDecoder decodes RIFF/WAVE PCM.
type WAVDecoder struct{}

// Decode implements Decoder.
func (WAVDecoder) Decode(r io.ReadSeeker) (PCM, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return PCM{}, fmt.Errorf("wav: %w", ErrInvalidFile)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("wav: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return PCM{}, fmt.Errorf("wav: %w: missing format", ErrInvalidFile)
	}

	pcm := PCM{Channels: buf.Format.NumChannels, SampleRate: buf.Format.SampleRate}
	switch b := any(buf).(type) {
	case *goaudio.IntBuffer:
		pcm.Data = intsToFloat(make([]float32, 0, len(b.Data)), b.Data, b.SourceBitDepth)
	case *goaudio.Float32Buffer:
		pcm.Data = b.Data
	default:
		return PCM{}, fmt.Errorf("wav: unsupported buffer type %T", buf)
	}
	return pcm, nil
}

// Write encodes buf as 16-bit PCM mono WAV, creating parent directories.
func Write(path string, buf audio.Buffer) (err error) {
	if err := buf.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return audio.IOError.Wrap(err, "create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return audio.IOError.Wrap(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = audio.IOError.Wrap(cerr, "close %s", path)
		}
	}()

	enc := wav.NewEncoder(f, buf.SampleRate, 16, 1, 1)
	data := buf.Float32()
	for i, v := range data {
		if v > 1 {
			data[i] = 1
		} else if v < -1 {
			data[i] = -1
		}
	}
	out := &goaudio.Float32Buffer{
		Format: &goaudio.Format{
			SampleRate:  buf.SampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(out); err != nil {
		return audio.IOError.Wrap(err, "write %s", path)
	}
	if err := enc.Close(); err != nil {
		return audio.IOError.Wrap(err, "finalize %s", path)
	}
	return nil
}
