package audiofile

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder decodes Ogg Vorbis.
type VorbisDecoder struct{}

// Decode implements Decoder.
func (VorbisDecoder) Decode(r io.ReadSeeker) (PCM, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return PCM{}, fmt.Errorf("ogg vorbis: %w", err)
	}
	return PCM{Data: data, Channels: format.Channels, SampleRate: format.SampleRate}, nil
}
