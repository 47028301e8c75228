package upstream

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/room4-2/arka/config"
	"github.com/room4-2/arka/messages"
)

// audioInput is the EVI wire form of a microphone chunk
type audioInput struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Hume is an EVI chat session
type Hume struct {
	id   string
	sock *socket
	down Downstream

	mockOpts MockOptions
	mu       sync.Mutex
	fallback *Mock
	closed   bool
}

// DialHume opens an EVI chat socket for the configured config id
func DialHume(ctx context.Context, cfg *config.Config, down Downstream, mockOpts MockOptions) (*Hume, error) {
	if !cfg.HasHumeCredentials() || cfg.HumeConfigID == "" {
		return nil, fmt.Errorf("hume: %w", ErrMissingCredentials)
	}

	endpoint, err := url.Parse(cfg.HumeAPIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid HUME_API_URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("config_id", cfg.HumeConfigID)
	endpoint.RawQuery = q.Encode()

	h := &Hume{
		id:       uuid.New().String(),
		down:     down,
		mockOpts: mockOpts,
	}

	log.Printf("🔌 Initializing Hume EVI session with config ID: %s", cfg.HumeConfigID)
	sock, err := dialSocket(ctx, endpoint.String(), humeHeaders(cfg), h.id, down)
	if err != nil {
		return nil, fmt.Errorf("hume: %w", err)
	}
	h.sock = sock

	log.Printf("✅ [%s] Hume EVI session initialized", short(h.id))
	return h, nil
}

func (h *Hume) Kind() Kind { return KindProvider }

func (h *Hume) ID() string { return h.id }

// Send forwards audio and settings. EVI takes no text input, so text is sent
// as an empty audio chunk and echoed back as the user's turn.
func (h *Hume) Send(ctx context.Context, msg messages.Message) error {
	switch msg.Type {
	case messages.TypeAudioInput, messages.TypeAudio:
		return h.sock.writeJSON(audioInput{Type: messages.TypeAudioInput, Data: msg.ClipData()})

	case messages.TypeSessionSettings:
		frame, err := msg.Encode()
		if err != nil {
			return err
		}
		return h.sock.write(frame)

	case messages.TypeText:
		if err := h.sock.writeJSON(audioInput{Type: messages.TypeAudioInput}); err != nil {
			mock, ferr := h.mockFallback()
			if ferr != nil {
				return ferr
			}
			log.Printf("⚠️ [%s] EVI rejected text shim, answering from mock: %v", short(h.id), err)
			return mock.Send(ctx, msg)
		}
		h.down.Deliver(messages.NewUserMessage(msg.Text))
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnsupported, msg.Type)
}

// mockFallback returns the lazily created mock, or ErrClosed after Close
func (h *Hume) mockFallback() (*Mock, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	if h.fallback == nil {
		h.fallback = NewMock(h.down, h.mockOpts)
	}
	return h.fallback, nil
}

// Close shuts the EVI socket and any fallback mock
func (h *Hume) Close() error {
	h.mu.Lock()
	h.closed = true
	fallback := h.fallback
	h.mu.Unlock()
	if fallback != nil {
		_ = fallback.Close()
	}

	log.Printf("🔌 [%s] Closing Hume EVI session", short(h.id))
	return h.sock.shutdown()
}

func humeHeaders(cfg *config.Config) http.Header {
	header := http.Header{}
	header.Set("X-Hume-Api-Key", cfg.HumeAPIKey)
	header.Set("X-Hume-Api-Secret", cfg.HumeAPISecret)
	return header
}

// redact drops the query string so credentials never reach the logs
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}
