package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

// Clip is a decoded 16-bit PCM clip
type Clip struct {
	Samples    []int
	SampleRate int
	Channels   int
}

// Duration of the clip
func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	frames := len(c.Samples) / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// EncodeWAV writes 16-bit samples as a RIFF wave file
func EncodeWAV(samples []int, sampleRate, channels int) ([]byte, error) {
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:           samples,
		SourceBitDepth: 16,
	}

	wavFile := &writerseeker.WriterSeeker{}
	encoder := wav.NewEncoder(wavFile, sampleRate, 16, channels, 1)

	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("encoder write buffer: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoder close: %w", err)
	}

	b, err := io.ReadAll(wavFile.Reader())
	if err != nil {
		return nil, fmt.Errorf("read encoded wav: %w", err)
	}

	return b, nil
}

// DecodeWAV reads a 16-bit RIFF wave file
func DecodeWAV(data []byte) (*Clip, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))

	decoder.ReadInfo()
	if err := decoder.Err(); err != nil {
		return nil, fmt.Errorf("read wave file headers: %w", err)
	}

	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid wave file")
	}

	if decoder.SampleBitDepth() != 16 {
		return nil, fmt.Errorf("wave data with unsupported bit depth of %d provided, expected 16", decoder.SampleBitDepth())
	}

	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read full pcm buffer: %w", err)
	}

	return &Clip{
		Samples:    buffer.Data,
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
	}, nil
}

// DecodeBase64WAV decodes the base64 payload of an audio message
func DecodeBase64WAV(encoded string) (*Clip, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return DecodeWAV(data)
}

// Tone generates a mono sine tone with a short linear fade in and out
func Tone(frequency float64, duration time.Duration, sampleRate int, volume float64) []int {
	n := int(math.Ceil(duration.Seconds() * float64(sampleRate)))
	fade := sampleRate / 50 // 20ms
	data := make([]int, n)
	for i := range data {
		gain := volume
		if i < fade {
			gain *= float64(i) / float64(fade)
		} else if n-i < fade {
			gain *= float64(n-i) / float64(fade)
		}
		phase := frequency * float64(i) / float64(sampleRate)
		data[i] = int(math.Sin(2*math.Pi*phase) * 32767 * gain)
	}
	return data
}

// Normalize maps 16-bit samples into [-1, 1]
func Normalize(samples []int) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) / 32768
	}
	return out
}

// PCM16ToSamples converts little-endian 16-bit PCM bytes to samples
func PCM16ToSamples(pcm []byte) []int {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	return samples
}

// SamplesToPCM16 converts samples to little-endian 16-bit PCM bytes
func SamplesToPCM16(samples []int) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(s)))
	}
	return pcm
}
