package device

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/room4-2/arka/audio"
)

// Input captures the default microphone and emits WAV chunks
type Input struct {
	SampleRate int
	Tap        Tap

	chunker *audio.Chunker
}

// NewInput creates a mono microphone capture flushing every interval
func NewInput(sampleRate int, interval time.Duration, tap Tap) *Input {
	return &Input{
		SampleRate: sampleRate,
		Tap:        tap,
		chunker:    audio.NewChunker(sampleRate, interval, sampleRate*2),
	}
}

// Capture records until ctx is done, handing every flushed chunk as base64
// WAV to send.
func (in *Input) Capture(ctx context.Context, send func(chunk string) error) error {
	frame := make([]int16, in.SampleRate/50) // 20ms
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(in.SampleRate), len(frame), &frame)
	if err != nil {
		return fmt.Errorf("opening audio input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting audio input stream: %w", err)
	}
	defer stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				log.Println("⚠️ Audio input overflowed, dropped samples")
				continue
			}
			return fmt.Errorf("read audio input stream: %w", err)
		}

		if in.Tap != nil {
			samples := make([]int, len(frame))
			for i, s := range frame {
				samples[i] = int(s)
			}
			in.Tap.Write(audio.Normalize(samples))
		}

		chunk, err := in.chunker.Push(frame, time.Now())
		if chunk != "" {
			if serr := send(chunk); serr != nil {
				return serr
			}
		}
		if errors.Is(err, audio.ErrBufferFull) {
			log.Printf("⚠️ Dropping oversized microphone frame of %d samples", len(frame))
		} else if err != nil {
			return err
		}
	}
}
