// Package audiofile reads audio containers into mono buffers and writes
// buffers back to WAV.
package audiofile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cwbudde/algo-tempo/audio"
)

// PCM is decoded interleaved audio in [-1, 1].
type PCM struct {
	Data       []float32
	Channels   int
	SampleRate int
}

// Decoder decodes one container format.
type Decoder interface {
	Decode(r io.ReadSeeker) (PCM, error)
}

// Registry maps lower-case file extensions (".wav") to decoders.
type Registry struct {
	mu     sync.Mutex
	codecs map[string]Decoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// NewDefaultRegistry knows WAV, AIFF, MP3 and Ogg Vorbis.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".wav", WAVDecoder{})
	r.Register(".wave", WAVDecoder{})
	r.Register(".aif", AIFFDecoder{})
	r.Register(".aiff", AIFFDecoder{})
	r.Register(".mp3", MP3Decoder{})
	r.Register(".ogg", VorbisDecoder{})
	r.Register(".oga", VorbisDecoder{})
	return r
}

// Register adds or replaces the decoder for ext.
func (r *Registry) Register(ext string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[normalizeExt(ext)] = d
}

// Lookup returns the decoder registered for ext.
func (r *Registry) Lookup(ext string) (Decoder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.codecs[normalizeExt(ext)]
	return d, ok
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Read decodes path with the decoder registered for its extension and
// down-mixes it to mono.
func (r *Registry) Read(path string) (audio.Buffer, error) {
	ext := filepath.Ext(path)
	dec, ok := r.Lookup(ext)
	if !ok {
		return audio.Buffer{}, audio.ValidationError.New("%s: unsupported audio format %q (known: %s)",
			path, ext, strings.Join(r.Extensions(), ", "))
	}
	f, err := os.Open(path)
	if err != nil {
		return audio.Buffer{}, audio.IOError.Wrap(err, "open %s", path)
	}
	defer f.Close()

	pcm, err := dec.Decode(f)
	if err != nil {
		return audio.Buffer{}, audio.IOError.Wrap(err, "decode %s", path)
	}
	if pcm.Channels < 1 {
		return audio.Buffer{}, audio.ValidationError.New("%s: invalid channel count %d", path, pcm.Channels)
	}
	buf := audio.NewBuffer(audio.MixDown(pcm.Data, pcm.Channels), pcm.SampleRate)
	if err := buf.Validate(); err != nil {
		return audio.Buffer{}, audio.ValidationError.Wrap(err, "%s", path)
	}
	return buf, nil
}

var defaultRegistry = NewDefaultRegistry()

// Read decodes path with the default registry.
func Read(path string) (audio.Buffer, error) {
	return defaultRegistry.Read(path)
}

// ErrInvalidFile is returned by decoders when the header does not match.
var ErrInvalidFile = errors.New("invalid audio file")

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// intScale returns the divisor mapping signed integer PCM of bitDepth to [-1, 1].
func intScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}

func intsToFloat(dst []float32, src []int, bitDepth int) []float32 {
	scale := 1 / intScale(bitDepth)
	for _, v := range src {
		dst = append(dst, float32(v)*scale)
	}
	return dst
}
