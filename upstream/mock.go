package upstream

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/room4-2/arka/audio"
	"github.com/room4-2/arka/messages"
)

const (
	mockClipSampleRate = 8000
	mockClipDuration   = 2500 * time.Millisecond
)

// MockOptions configure the canned responder
type MockOptions struct {
	Replies        []string
	RecognizedText string
	ReplyDelay     time.Duration
	AudioDelay     time.Duration
	Clip           string // base64 WAV
	ClipDuration   time.Duration
	Seed           int64
}

// DefaultMockOptions returns the built-in replies and a generated chime clip
func DefaultMockOptions() (MockOptions, error) {
	wav, err := audio.EncodeWAV(audio.Tone(440, mockClipDuration, mockClipSampleRate, 0.2), mockClipSampleRate, 1)
	if err != nil {
		return MockOptions{}, fmt.Errorf("generate mock clip: %w", err)
	}

	return MockOptions{
		Replies:        defaultReplies(),
		RecognizedText: "Tell me about yourself",
		ReplyDelay:     time.Second,
		AudioDelay:     500 * time.Millisecond,
		Clip:           base64.StdEncoding.EncodeToString(wav),
		ClipDuration:   mockClipDuration,
		Seed:           time.Now().UnixNano(),
	}, nil
}

// Mock simulates a provider round trip with canned replies
type Mock struct {
	id   string
	down Downstream
	opts MockOptions

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	rand         *rand.Rand
	audioPending bool
}

// NewMock creates a mock session identified by a random token
func NewMock(down Downstream, opts MockOptions) *Mock {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Mock{
		id:     uuid.New().String(),
		down:   down,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		rand:   rand.New(rand.NewSource(opts.Seed)),
	}
	log.Printf("🤖 Mock session initialized: %s", m.id)
	return m
}

func (m *Mock) Kind() Kind { return KindMock }

func (m *Mock) ID() string { return m.id }

// Send schedules the canned response for msg
func (m *Mock) Send(_ context.Context, msg messages.Message) error {
	if m.ctx.Err() != nil {
		return ErrClosed
	}

	switch msg.Type {
	case messages.TypeText:
		m.spawn(m.replyToText)

	case messages.TypeAudioInput, messages.TypeAudio:
		// Microphone chunks stream continuously; answer one utterance at a time
		m.mu.Lock()
		pending := m.audioPending
		m.audioPending = true
		m.mu.Unlock()
		if !pending {
			m.spawn(m.replyToAudio)
		}

	case messages.TypeSessionSettings:
		settings, _ := msg.Settings()
		log.Printf("🤖 [%s] Mock received session settings: %+v", short(m.id), settings)

	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, msg.Type)
	}

	return nil
}

func (m *Mock) replyToText() {
	if !m.wait(m.opts.ReplyDelay) {
		return
	}
	m.down.Deliver(messages.NewTextMessage(m.randomReply()))

	if !m.wait(m.opts.AudioDelay) {
		return
	}
	m.down.Deliver(messages.NewAudioMessage(m.opts.Clip, m.opts.ClipDuration.Seconds()))
}

func (m *Mock) replyToAudio() {
	defer func() {
		m.mu.Lock()
		m.audioPending = false
		m.mu.Unlock()
	}()

	if !m.wait(m.opts.ReplyDelay) {
		return
	}
	m.down.Deliver(messages.NewUserMessage(m.opts.RecognizedText))

	if !m.wait(m.opts.ReplyDelay) {
		return
	}
	m.down.Deliver(messages.NewAssistantMessage(m.randomReply()))

	if !m.wait(m.opts.AudioDelay) {
		return
	}
	m.down.Deliver(messages.NewAudioOutputMessage(m.opts.Clip, m.opts.ClipDuration.Seconds()))

	if !m.wait(m.opts.AudioDelay) {
		return
	}
	m.down.Deliver(messages.NewAssistantEndMessage())
}

func (m *Mock) spawn(fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
}

// wait sleeps for d, returning false when the session was closed meanwhile
func (m *Mock) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-m.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (m *Mock) randomReply() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts.Replies[m.rand.Intn(len(m.opts.Replies))]
}

// Close cancels pending replies and waits for them to unwind
func (m *Mock) Close() error {
	if m.ctx.Err() != nil {
		return nil
	}
	m.cancel()
	m.wg.Wait()
	log.Printf("🤖 [%s] Mock session closed", short(m.id))
	return nil
}
