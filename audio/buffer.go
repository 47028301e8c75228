package audio

import (
	"errors"
	"sync"
)

// ErrBufferFull is returned when the buffer exceeds its maximum size
var ErrBufferFull = errors.New("audio buffer full")

// Buffer accumulates captured microphone frames until flushed
type Buffer struct {
	frames     [][]int
	numSamples int
	maxSamples int
	mu         sync.Mutex
}

// NewBuffer creates a buffer holding at most maxSamples samples
func NewBuffer(maxSamples int) *Buffer {
	return &Buffer{
		frames:     make([][]int, 0),
		maxSamples: maxSamples,
	}
}

// MaxSamples returns the buffer capacity in samples
func (b *Buffer) MaxSamples() int {
	return b.maxSamples
}

// Append adds a frame to the buffer.
// Returns ErrBufferFull if adding the frame would exceed maxSamples.
func (b *Buffer) Append(frame []int16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.numSamples+len(frame) > b.maxSamples {
		return ErrBufferFull
	}

	samples := make([]int, len(frame))
	for i, s := range frame {
		samples[i] = int(s)
	}

	b.frames = append(b.frames, samples)
	b.numSamples += len(frame)
	return nil
}

// Flush concatenates all frames in order and clears the buffer
func (b *Buffer) Flush() []int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.frames) == 0 {
		return nil
	}

	result := make([]int, 0, b.numSamples)
	for _, frame := range b.frames {
		result = append(result, frame...)
	}

	b.frames = make([][]int, 0)
	b.numSamples = 0

	return result
}

// Clear empties the buffer without returning data
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frames = make([][]int, 0)
	b.numSamples = 0
}

// Len returns the number of buffered samples
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.numSamples
}

// FrameCount returns the number of frames in the buffer
func (b *Buffer) FrameCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}
