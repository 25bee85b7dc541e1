package audiofile

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MPEG-1/2 layer III. The decoder always yields 16-bit
// little-endian stereo.
type MP3Decoder struct{}

// Decode implements Decoder.
func (MP3Decoder) Decode(r io.ReadSeeker) (PCM, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return PCM{}, fmt.Errorf("mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return PCM{}, fmt.Errorf("mp3: %w", err)
	}
	data := make([]float32, len(raw)/2)
	for i := range data {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		data[i] = float32(v) / 32768.0
	}
	return PCM{Data: data, Channels: 2, SampleRate: dec.SampleRate()}, nil
}
