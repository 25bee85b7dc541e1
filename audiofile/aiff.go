package audiofile

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
)

// AIFFDecoder decodes AIFF PCM.
type AIFFDecoder struct{}

// Decode implements Decoder.
func (AIFFDecoder) Decode(r io.ReadSeeker) (PCM, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return PCM{}, fmt.Errorf("aiff: %w", ErrInvalidFile)
	}
	dec.ReadInfo()
	format := dec.Format()
	if format == nil || format.NumChannels < 1 {
		return PCM{}, fmt.Errorf("aiff: %w: missing format", ErrInvalidFile)
	}
	bitDepth := int(dec.BitDepth)

	pcm := PCM{Channels: format.NumChannels, SampleRate: format.SampleRate}
	chunk := &goaudio.IntBuffer{Data: make([]int, 4096*format.NumChannels), Format: format}
	for {
		n, err := dec.PCMBuffer(chunk)
		if n > 0 {
			pcm.Data = intsToFloat(pcm.Data, chunk.Data[:n], bitDepth)
		}
		if err == io.EOF || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return PCM{}, fmt.Errorf("aiff: %w", err)
		}
	}
	return pcm, nil
}
