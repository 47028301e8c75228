package upstream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/room4-2/arka/messages"
)

const (
	socketWriteWait = 10 * time.Second
)

// socket is a provider WebSocket with a single receive loop feeding the
// downstream sink
type socket struct {
	id   string
	conn *websocket.Conn
	down Downstream

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func dialSocket(ctx context.Context, url string, header http.Header, id string, down Downstream) (*socket, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", redact(url), err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", redact(url), err)
	}

	s := &socket{
		id:     id,
		conn:   conn,
		down:   down,
		closed: make(chan struct{}),
	}
	go s.receive()
	return s, nil
}

// receive relays every provider frame downstream until the socket closes
func (s *socket) receive() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ [%s] Panic in upstream receiver: %v", short(s.id), r)
		}
	}()

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
			}

			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("❌ [%s] Upstream read error: %v", short(s.id), err)
				s.down.Deliver(messages.NewErrorMessage(messages.MsgUpstreamError))
			}
			s.shutdown()
			s.down.UpstreamClosed(err)
			return
		}

		msg, err := messages.Decode(frame)
		if err != nil {
			log.Printf("⚠️ [%s] Bad frame from upstream: %v", short(s.id), err)
			s.down.Deliver(messages.NewErrorMessage(messages.MsgBadUpstreamFrame))
			continue
		}

		log.Printf("📥 [%s] Received from upstream: %s", short(s.id), msg.Type)
		s.down.Deliver(msg)
	}
}

func (s *socket) write(frame []byte) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(socketWriteWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("write upstream frame: %w", err)
	}
	return nil
}

func (s *socket) writeJSON(v any) error {
	frame, err := messages.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode upstream frame: %w", err)
	}
	return s.write(frame)
}

// shutdown closes the connection once; the receive loop stops quietly
func (s *socket) shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)

		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()

		err = s.conn.Close()
		if errors.Is(err, websocket.ErrCloseSent) {
			err = nil
		}
	})
	return err
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
