package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"
)

// Chunker batches captured mono frames into base64 WAV chunks, one per
// interval or earlier when the buffer fills up.
type Chunker struct {
	SampleRate int
	Interval   time.Duration

	buffer    *Buffer
	lastFlush time.Time
}

// NewChunker creates a chunker buffering at most maxSamples samples
func NewChunker(sampleRate int, interval time.Duration, maxSamples int) *Chunker {
	return &Chunker{
		SampleRate: sampleRate,
		Interval:   interval,
		buffer:     NewBuffer(maxSamples),
	}
}

// Push buffers a frame and returns a chunk once one is due, "" otherwise.
// A frame that does not fit flushes the buffer first and starts the next chunk.
// ErrBufferFull is only returned for a frame larger than the whole buffer.
func (c *Chunker) Push(frame []int16, now time.Time) (string, error) {
	if c.lastFlush.IsZero() {
		c.lastFlush = now
	}

	err := c.buffer.Append(frame)
	if !errors.Is(err, ErrBufferFull) {
		if err != nil || now.Sub(c.lastFlush) < c.Interval {
			return "", err
		}
		return c.Flush(now)
	}

	log.Printf("⚠️ Microphone buffer full (max %d samples), flushing early", c.buffer.MaxSamples())
	chunk, err := c.Flush(now)
	if err != nil {
		return "", err
	}
	return chunk, c.buffer.Append(frame)
}

// Flush encodes everything buffered so far; "" when nothing is buffered
func (c *Chunker) Flush(now time.Time) (string, error) {
	c.lastFlush = now

	samples := c.buffer.Flush()
	if len(samples) == 0 {
		return "", nil
	}

	data, err := EncodeWAV(samples, c.SampleRate, 1)
	if err != nil {
		return "", fmt.Errorf("encode microphone chunk: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
