package upstream

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/room4-2/arka/config"
	"github.com/room4-2/arka/messages"
)

// RawSocket passes client frames through to HUME_WEBSOCKET_URL unmodified
type RawSocket struct {
	id   string
	sock *socket
}

// DialRawSocket connects to HUME_WEBSOCKET_URL/<session id>
func DialRawSocket(ctx context.Context, cfg *config.Config, down Downstream) (*RawSocket, error) {
	if !cfg.HasHumeCredentials() || cfg.HumeWebSocketURL == "" {
		return nil, fmt.Errorf("raw socket: %w", ErrMissingCredentials)
	}

	id := uuid.New().String()
	target := strings.TrimSuffix(cfg.HumeWebSocketURL, "/") + "/" + id

	log.Printf("🔌 Connecting to raw upstream socket: %s", redact(target))
	sock, err := dialSocket(ctx, target, humeHeaders(cfg), id, down)
	if err != nil {
		return nil, fmt.Errorf("raw socket: %w", err)
	}

	log.Printf("✅ [%s] Connected to raw upstream socket", short(id))
	return &RawSocket{id: id, sock: sock}, nil
}

func (r *RawSocket) Kind() Kind { return KindRawSocket }

func (r *RawSocket) ID() string { return r.id }

// Send writes the client's frame as received
func (r *RawSocket) Send(_ context.Context, msg messages.Message) error {
	frame, err := msg.Encode()
	if err != nil {
		return err
	}
	return r.sock.write(frame)
}

func (r *RawSocket) Close() error {
	log.Printf("🔌 [%s] Closing raw upstream socket", short(r.id))
	return r.sock.shutdown()
}
