// Package device plays and records audio through PortAudio.
package device

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/room4-2/arka/audio"
	"github.com/room4-2/arka/playback"
)

const framesPerBuffer = 512

// Tap receives normalized samples as they are played or captured
type Tap interface {
	Write(samples []float64)
}

// Output plays queued clips on the default output device
type Output struct {
	Tap Tap
}

// Play decodes a base64 WAV clip and blocks until it has been played or ctx is done
func (o *Output) Play(ctx context.Context, clip playback.Clip) error {
	decoded, err := audio.DecodeBase64WAV(clip.Data)
	if err != nil {
		return fmt.Errorf("decode clip %d: %w", clip.ID, err)
	}
	if len(decoded.Samples) == 0 {
		return nil
	}

	out := make([]int16, framesPerBuffer*decoded.Channels)
	stream, err := portaudio.OpenDefaultStream(0, decoded.Channels, float64(decoded.SampleRate), framesPerBuffer, &out)
	if err != nil {
		return fmt.Errorf("open audio output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start audio output stream: %w", err)
	}

	startTime := time.Now()

	for offset := 0; offset < len(decoded.Samples); offset += len(out) {
		select {
		case <-ctx.Done():
			_ = stream.Abort()
			return ctx.Err()
		default:
		}

		chunk := decoded.Samples[offset:min(offset+len(out), len(decoded.Samples))]
		for i := range out {
			out[i] = 0
		}
		for i, s := range chunk {
			out[i] = int16(s)
		}

		if err := stream.Write(); err != nil {
			log.Printf("⚠️ Write audio chunk: %v", err)
		}

		if o.Tap != nil {
			o.Tap.Write(audio.Normalize(chunk))
		}
	}

	// Wait for the device to drain what has been written
	select {
	case <-ctx.Done():
		_ = stream.Abort()
		return ctx.Err()
	case <-time.After(decoded.Duration() - time.Since(startTime)):
	}

	return stream.Stop()
}

// Initialize must be called before opening any stream
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	return nil
}

// Terminate releases PortAudio
func Terminate() {
	if err := portaudio.Terminate(); err != nil {
		log.Printf("⚠️ Terminate portaudio: %v", err)
	}
}
