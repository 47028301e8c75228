// Package upstream connects a client session to the voice-AI provider.
//
// Every variant implements Session: a raw WebSocket passthrough, a provider
// session (Hume EVI or Gemini Live) and the local mock responder used when
// neither is available.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/room4-2/arka/config"
	"github.com/room4-2/arka/functions"
	"github.com/room4-2/arka/messages"
)

var (
	// ErrClosed is returned when sending on a closed session
	ErrClosed = errors.New("upstream session closed")
	// ErrMissingCredentials is returned when the provider is not configured
	ErrMissingCredentials = errors.New("missing provider credentials")
	// ErrUnsupported is returned for message types a variant cannot forward
	ErrUnsupported = errors.New("message type not supported by upstream")
)

// Kind tags the upstream variant
type Kind int

const (
	KindRawSocket Kind = iota
	KindProvider
	KindMock
)

func (k Kind) String() string {
	switch k {
	case KindRawSocket:
		return "raw-socket"
	case KindProvider:
		return "provider"
	case KindMock:
		return "mock"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Session is the capability every upstream variant provides
type Session interface {
	Kind() Kind
	ID() string
	Send(ctx context.Context, msg messages.Message) error
	Close() error
}

// Downstream receives what the upstream produces for one client
type Downstream interface {
	// Deliver forwards a message to the client
	Deliver(msg messages.Message)
	// UpstreamClosed is called once when the provider went away on its own
	UpstreamClosed(err error)
}

// Opener opens upstream sessions for the configured provider
type Opener struct {
	cfg  *config.Config
	mock MockOptions
}

// NewOpener prepares the mock responder once; a broken mock script is logged
// and replaced by the built-in replies.
func NewOpener(cfg *config.Config) (*Opener, error) {
	opts, err := DefaultMockOptions()
	if err != nil {
		return nil, err
	}
	opts.ReplyDelay = cfg.MockReplyDelay
	opts.AudioDelay = cfg.MockAudioDelay

	if cfg.MockRepliesFile != "" {
		script, err := config.LoadMockScript(cfg.MockRepliesFile)
		if err != nil {
			log.Printf("⚠️ Ignoring mock script: %v", err)
		} else {
			opts.Replies = script.Replies
			if script.RecognizedText != "" {
				opts.RecognizedText = script.RecognizedText
			}
		}
	}

	return &Opener{cfg: cfg, mock: opts}, nil
}

// Open connects to the provider. Any failure is absorbed: the session falls
// back to the mock responder and the reason is logged.
func (o *Opener) Open(ctx context.Context, down Downstream) Session {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	s, err := o.Dial(dialCtx, down)
	if err != nil {
		log.Printf("⚠️ Upstream %q unavailable, falling back to mock: %v", o.cfg.UpstreamProvider, err)
		return NewMock(down, o.mock)
	}
	return s
}

// Dial connects to the configured provider without falling back
func (o *Opener) Dial(ctx context.Context, down Downstream) (Session, error) {
	switch o.cfg.UpstreamProvider {
	case config.ProviderMock:
		return NewMock(down, o.mock), nil
	case config.ProviderHume:
		return DialHume(ctx, o.cfg, down, o.mock)
	case config.ProviderRaw:
		return DialRawSocket(ctx, o.cfg, down)
	case config.ProviderGemini:
		return DialGemini(ctx, o.cfg, down)
	}
	return nil, fmt.Errorf("unknown upstream provider %q", o.cfg.UpstreamProvider)
}

func defaultReplies() []string {
	return append([]string(nil), functions.Facts...)
}
