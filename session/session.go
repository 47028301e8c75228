package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/room4-2/arka/messages"
	"github.com/room4-2/arka/upstream"
)

const (
	writeBufferSize  = 256
	writeTimeout     = 10 * time.Second
	maxMessageSize   = 2 * 1024 * 1024
	defaultKeepAlive = 30 * time.Second
)

// Conn is the downstream socket as used by a session; *websocket.Conn satisfies it
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// ConnectionState tracks the lifecycle of a client connection
type ConnectionState int

const (
	StateConnecting ConnectionState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// ClientSession represents a single client connection and its upstream
type ClientSession struct {
	ID           string
	ClientConn   Conn
	CreatedAt    time.Time
	LastActivity time.Time

	// OnClose is called once when the session starts closing
	OnClose func(id string)

	upstream  upstream.Session
	keepAlive time.Duration
	state     ConnectionState
	started   bool

	// Use channels for non-blocking writes
	writeChan   chan messages.Message
	writeClosed bool

	mu           sync.RWMutex
	upstreamOnce sync.Once
	CloseChan    chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewClientSession wraps an accepted downstream connection
func NewClientSession(id string, clientConn Conn, keepAlive time.Duration) *ClientSession {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}

	if ws, ok := clientConn.(*websocket.Conn); ok {
		ws.SetReadLimit(maxMessageSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	return &ClientSession{
		ID:           id,
		ClientConn:   clientConn,
		CreatedAt:    now,
		LastActivity: now,
		keepAlive:    keepAlive,
		state:        StateConnecting,
		writeChan:    make(chan messages.Message, writeBufferSize),
		CloseChan:    make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SetUpstream attaches the upstream handle. A session that is already closing
// closes the handle right away.
func (cs *ClientSession) SetUpstream(up upstream.Session) {
	cs.mu.Lock()
	cs.upstream = up
	closing := cs.state >= StateClosing
	cs.mu.Unlock()

	if closing {
		cs.closeUpstream(up)
	}
}

// Upstream returns the attached upstream handle, nil before SetUpstream
func (cs *ClientSession) Upstream() upstream.Session {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.upstream
}

// State returns the connection state
func (cs *ClientSession) State() ConnectionState {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.state
}

// Start begins the bidirectional relay
func (cs *ClientSession) Start() {
	cs.mu.Lock()
	if cs.state != StateConnecting {
		cs.mu.Unlock()
		return
	}
	cs.state = StateOpen
	cs.started = true
	up := cs.upstream
	cs.mu.Unlock()

	go cs.writePump()

	if up != nil {
		notice := messages.MsgConnected
		if up.Kind() == upstream.KindMock {
			notice = messages.MsgConnectedMock
		}
		cs.queueMessage(messages.NewSystemMessage(notice))
	} else {
		cs.queueMessage(messages.NewErrorMessage(messages.MsgConnectFailed))
	}

	go cs.readPump()
}

// Deliver queues an upstream message for the client
func (cs *ClientSession) Deliver(msg messages.Message) {
	cs.queueMessage(msg)
}

// UpstreamClosed tears the connection down after the provider went away
func (cs *ClientSession) UpstreamClosed(err error) {
	log.Printf("🔌 [%s] Upstream closed: %v", cs.ID[:8], err)
	cs.queueMessage(messages.NewSystemMessage(messages.MsgUpstreamClosed))
	cs.Close()
}

func (cs *ClientSession) readPump() {
	defer cs.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ [%s] Panic in client reader: %v", cs.ID[:8], r)
		}
	}()

	for {
		_, frame, err := cs.ClientConn.ReadMessage()
		if err != nil {
			if !cs.IsClosed() && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("❌ [%s] WebSocket read error: %v", cs.ID[:8], err)
			}
			return
		}

		cs.touch()
		cs.relayFrame(frame)
	}
}

// relayFrame relays one frame; a panic fails only that frame
func (cs *ClientSession) relayFrame(frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ [%s] Panic while relaying message: %v", cs.ID[:8], r)
			cs.queueMessage(messages.NewErrorMessage(messages.MsgProcessingFailed))
		}
	}()

	cs.relayToUpstream(frame)
}

// relayToUpstream forwards one client frame. Frames that are not JSON objects
// are treated as text typed by the user.
func (cs *ClientSession) relayToUpstream(frame []byte) {
	msg := messages.Parse(frame)

	switch msg.Type {
	case messages.TypeAudioInput, messages.TypeAudio, messages.TypeText, messages.TypeSessionSettings:
	default:
		log.Printf("⚠️ [%s] Dropping unhandled message type %q", cs.ID[:8], msg.Type)
		return
	}

	up := cs.Upstream()
	if up == nil {
		cs.queueMessage(messages.NewErrorMessage(messages.MsgNotConnected))
		return
	}

	if msg.Type == messages.TypeText {
		log.Printf("📤 [%s] Relaying text: %s", cs.ID[:8], msg.Text)
	}

	if err := up.Send(cs.ctx, msg); err != nil {
		log.Printf("❌ [%s] Failed to relay %s upstream: %v", cs.ID[:8], msg.Type, err)
		cs.queueMessage(messages.NewErrorMessage(messages.MsgProcessingFailed))
	}
}

// writePump handles all outgoing messages in a single goroutine
func (cs *ClientSession) writePump() {
	ticker := time.NewTicker(cs.keepAlive)
	defer func() {
		ticker.Stop()
		cs.finish()
	}()

	broken := false
	for {
		select {
		case msg, ok := <-cs.writeChan:
			if !ok {
				if !broken {
					cs.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))
					cs.ClientConn.WriteMessage(
						websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					)
				}
				return
			}
			if broken {
				continue
			}

			if err := cs.write(msg); err != nil {
				log.Printf("❌ [%s] WebSocket write error: %v", cs.ID[:8], err)
				broken = true
				// Unblocks readPump, which closes the session
				cs.ClientConn.Close()
			}

		case <-ticker.C:
			if broken {
				continue
			}
			cs.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cs.ClientConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				broken = true
				cs.ClientConn.Close()
			}
		}
	}
}

func (cs *ClientSession) write(msg messages.Message) error {
	frame, err := msg.Encode()
	if err != nil {
		log.Printf("⚠️ [%s] Skipping unencodable %s message: %v", cs.ID[:8], msg.Type, err)
		return nil
	}

	cs.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return cs.ClientConn.WriteMessage(websocket.TextMessage, frame)
}

// queueMessage adds a message to the write queue (non-blocking)
func (cs *ClientSession) queueMessage(msg messages.Message) {
	cs.mu.RLock()
	if cs.writeClosed {
		cs.mu.RUnlock()
		return
	}
	select {
	case cs.writeChan <- msg:
	default:
		log.Printf("⚠️ [%s] Write queue full, dropping %s message", cs.ID[:8], msg.Type)
	}
	cs.mu.RUnlock()

	cs.touch()
}

func (cs *ClientSession) touch() {
	cs.mu.Lock()
	cs.LastActivity = time.Now()
	cs.mu.Unlock()
}

// Idle reports how long the session has seen no traffic
func (cs *ClientSession) Idle(now time.Time) time.Duration {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return now.Sub(cs.LastActivity)
}

// IsClosed returns whether the session is closing or closed
func (cs *ClientSession) IsClosed() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.state >= StateClosing
}

// Close terminates the session: the upstream is closed exactly once, queued
// messages are flushed and the client socket is closed by the write pump.
func (cs *ClientSession) Close() error {
	cs.mu.Lock()
	if cs.state >= StateClosing {
		cs.mu.Unlock()
		return nil
	}
	cs.state = StateClosing
	started := cs.started
	up := cs.upstream
	cs.mu.Unlock()

	cs.cancel()

	// Upstream callbacks take the session lock, so close it unlocked
	if up != nil {
		cs.closeUpstream(up)
	}

	if cs.OnClose != nil {
		cs.OnClose(cs.ID)
	}

	cs.mu.Lock()
	cs.writeClosed = true
	close(cs.writeChan)
	cs.mu.Unlock()

	if !started {
		cs.finish()
	}

	return nil
}

func (cs *ClientSession) closeUpstream(up upstream.Session) {
	cs.upstreamOnce.Do(func() {
		if err := up.Close(); err != nil {
			log.Printf("⚠️ [%s] Error closing upstream %s: %v", cs.ID[:8], up.ID(), err)
		}
	})
}

// finish closes the socket and releases waiters on CloseChan
func (cs *ClientSession) finish() {
	cs.ClientConn.Close()

	cs.mu.Lock()
	cs.state = StateClosed
	cs.mu.Unlock()

	close(cs.CloseChan)
}
