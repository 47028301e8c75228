// Package client is the terminal counterpart of the browser page: it talks to
// the relay, queues the replies for playback and reports transcripts.
package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/room4-2/arka/messages"
	"github.com/room4-2/arka/playback"
)

// ErrNotConnected is returned when sending before Dial or after Close
var ErrNotConnected = errors.New("not connected to relay")

// State of the relay connection
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "disconnected"
}

// Client is one relay connection
type Client struct {
	URL   string
	Queue *playback.Queue

	// OnMessage receives every message that is not audio or an interruption
	OnMessage func(msg messages.Message)
	// OnStateChange reports connection state transitions
	OnStateChange func(s State)

	mu    sync.RWMutex
	conn  *websocket.Conn
	state State
}

// New creates a disconnected client that plays replies through queue
func New(url string, queue *playback.Queue) *Client {
	return &Client{URL: url, Queue: queue}
}

// Dial connects to the relay
func (c *Client) Dial(ctx context.Context) error {
	c.setState(StateConnecting)

	conn, _, err := websocket.Dial(ctx, c.URL, nil)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("dial relay %s: %w", c.URL, err)
	}
	conn.SetReadLimit(-1)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.setState(StateConnected)
	return nil
}

// Run reads relay messages until the connection closes or ctx is done
func (c *Client) Run(ctx context.Context) error {
	conn := c.current()
	if conn == nil {
		return ErrNotConnected
	}
	defer c.setState(StateDisconnected)

	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			// Closed by us, by the relay or by ctx
			if c.current() == nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read relay message: %w", err)
		}

		msg, err := messages.Decode(frame)
		if err != nil {
			log.Printf("⚠️ Ignoring malformed relay frame: %v", err)
			continue
		}
		c.Handle(msg)
	}
}

// Handle dispatches one relay message
func (c *Client) Handle(msg messages.Message) {
	switch msg.Type {
	case messages.TypeAudio, messages.TypeAudioOutput:
		data := msg.ClipData()
		if data == "" {
			log.Printf("⚠️ %s message without audio data", msg.Type)
			return
		}
		duration := time.Duration(msg.Duration * float64(time.Second))
		id := c.Queue.Enqueue(data, duration)
		log.Printf("🔊 Queued clip %d (%.2fs, %d pending)", id, msg.Duration, c.Queue.Len())

	case messages.TypeUserInterruption:
		log.Println("✋ User interruption, stopping playback")
		c.Queue.Interrupt()

	default:
		if c.OnMessage != nil {
			c.OnMessage(msg)
		}
	}
}

// Send writes a message to the relay
func (c *Client) Send(ctx context.Context, msg messages.Message) error {
	conn := c.current()
	if conn == nil {
		return ErrNotConnected
	}

	frame, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		return fmt.Errorf("write %s message: %w", msg.Type, err)
	}
	return nil
}

// SendText sends a typed message
func (c *Client) SendText(ctx context.Context, text string) error {
	return c.Send(ctx, messages.NewTextMessage(text))
}

// SendAudioInput sends one base64 WAV microphone chunk
func (c *Client) SendAudioInput(ctx context.Context, data string) error {
	return c.Send(ctx, messages.NewAudioInputMessage(data))
}

// SendSettings announces the microphone format
func (c *Client) SendSettings(ctx context.Context, sampleRate int) error {
	return c.Send(ctx, messages.NewSessionSettingsMessage(messages.AudioSettings{
		Format:     "wav",
		SampleRate: sampleRate,
		Channels:   1,
	}))
}

// State returns the connection state
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Close closes the connection and stops playback
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.Queue.Interrupt()
	if conn == nil {
		return nil
	}
	c.setState(StateDisconnected)
	return conn.Close(websocket.StatusNormalClosure, "")
}

func (c *Client) current() *websocket.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()

	if changed && c.OnStateChange != nil {
		c.OnStateChange(s)
	}
}
