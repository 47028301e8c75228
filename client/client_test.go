package client

import (
	"bytes"
	"context"
	"flag"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/room4-2/arka/messages"
	"github.com/room4-2/arka/playback"
	"github.com/room4-2/arka/viz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingPlayer plays until cancelled
type blockingPlayer struct {
	mu    sync.Mutex
	clips []playback.Clip
}

func (p *blockingPlayer) Play(ctx context.Context, clip playback.Clip) error {
	p.mu.Lock()
	p.clips = append(p.clips, clip)
	p.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (p *blockingPlayer) played() []playback.Clip {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]playback.Clip(nil), p.clips...)
}

func TestHandleQueuesAudioAndInterrupts(t *testing.T) {
	player := &blockingPlayer{}
	queue := playback.NewQueue(player)

	var other []string
	c := New("ws://unused", queue)
	c.OnMessage = func(msg messages.Message) { other = append(other, msg.Type) }

	c.Handle(messages.NewAudioMessage("QUJD", 1.5))
	c.Handle(messages.NewAudioOutputMessage("REVG", 0.5))
	c.Handle(messages.Message{Type: messages.TypeAudio})
	c.Handle(messages.NewAssistantMessage("Brr"))

	assert.Equal(t, 2, queue.Len())
	assert.Equal(t, []string{messages.TypeAssistantMessage}, other)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queue.Run(ctx)

	require.Eventually(t, func() bool { return len(player.played()) == 1 }, time.Second, 5*time.Millisecond)
	first := player.played()[0]
	assert.Equal(t, "QUJD", first.Data)
	assert.Equal(t, 1500*time.Millisecond, first.Duration)

	c.Handle(messages.NewUserInterruptionMessage())
	assert.Equal(t, 0, queue.Len())
	assert.Equal(t, playback.StateIdle, queue.State())
}

func TestClientRoundTrip(t *testing.T) {
	received := make(chan []byte, 4)
	upgrader := websocket.Upgrader{}
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"system","message":"Connected to Antarctica AI (Mock)"}`))
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- frame
			conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"text","text":"Brr"}`))
		}
	}))
	defer relay.Close()

	queue := playback.NewQueue(&blockingPlayer{})
	c := New("ws"+strings.TrimPrefix(relay.URL, "http"), queue)

	got := make(chan messages.Message, 4)
	c.OnMessage = func(msg messages.Message) { got <- msg }

	var states []State
	var mu sync.Mutex
	c.OnStateChange = func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.ErrorIs(t, c.SendText(ctx, "too early"), ErrNotConnected)

	require.NoError(t, c.Dial(ctx))
	assert.Equal(t, StateConnected, c.State())

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	require.NoError(t, c.SendSettings(ctx, 16000))
	require.NoError(t, c.SendText(ctx, "hello"))

	assert.JSONEq(t, `{"type":"session_settings","audio":{"format":"wav","sample_rate":16000,"channels":1}}`, string(<-received))
	assert.JSONEq(t, `{"type":"text","text":"hello"}`, string(<-received))

	assert.Equal(t, messages.TypeSystem, (<-got).Type)
	assert.Equal(t, "Brr", (<-got).Text)

	c.Close()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	mu.Lock()
	assert.Equal(t, []State{StateConnecting, StateConnected, StateDisconnected}, states)
	mu.Unlock()
}

func TestFetchConfig(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/config" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"forceAurora":true}`))
	}))
	defer api.Close()

	cfg, err := FetchConfig(context.Background(), "ws"+strings.TrimPrefix(api.URL, "http")+"/")
	require.NoError(t, err)
	assert.True(t, cfg.ForceAurora)
}

func TestFetchConfigErrors(t *testing.T) {
	api := httptest.NewServer(http.NotFoundHandler())
	defer api.Close()

	_, err := FetchConfig(context.Background(), api.URL)
	assert.Error(t, err)

	_, err = FetchConfig(context.Background(), "ftp://example.com")
	assert.Error(t, err)
}

func TestAPIURL(t *testing.T) {
	u, err := APIURL("wss://arka.example/ws?token=x", "/api/config")
	require.NoError(t, err)
	assert.Equal(t, "https://arka.example/api/config", u)

	u, err = APIURL("ws://localhost:3000/", "/api/status")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/api/status", u)
}

func TestParseFlagsWithEnvVars(t *testing.T) {
	t.Setenv("ARKA_TEST_SAMPLE_RATE", "8000")

	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	rate := flags.Int("sample-rate", 16000, "sample rate")
	url := flags.String("url", "ws://localhost:3000/", "relay")

	require.NoError(t, ParseFlagsWithEnvVars(flags, "ARKA_TEST_", []string{"-url", "ws://arka:3000/"}))
	assert.Equal(t, 8000, *rate)
	assert.Equal(t, "ws://arka:3000/", *url)
	assert.Contains(t, flags.Lookup("sample-rate").Usage, "ARKA_TEST_SAMPLE_RATE")
}

func TestParseFlagsRejectsUnknownEnvVar(t *testing.T) {
	t.Setenv("ARKA_TEST_COLOUR", "blue")

	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.Int("sample-rate", 16000, "sample rate")
	assert.Error(t, ParseFlagsWithEnvVars(flags, "ARKA_TEST_", nil))
}

func TestParseFlagsRejectsBadEnvValue(t *testing.T) {
	t.Setenv("ARKA_TEST_SAMPLE_RATE", "loud")

	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.Int("sample-rate", 16000, "sample rate")
	assert.Error(t, ParseFlagsWithEnvVars(flags, "ARKA_TEST_", nil))
}

func TestTerminalRenderer(t *testing.T) {
	var out bytes.Buffer
	r := &TerminalRenderer{Out: &out}

	quiet := viz.Frame{Ring: viz.RingFor(0)}
	r.Render(quiet)
	r.Render(quiet)
	assert.Equal(t, 1, strings.Count(out.String(), "\r"), "unchanged frames are not redrawn")

	line := FormatFrame(viz.Frame{Ring: viz.RingFor(1), Thinking: true, AuroraOpacity: 0.5})
	assert.Contains(t, line, "["+strings.Repeat("#", meterWidth)+"]")
	assert.Contains(t, line, "speaking")
	assert.Contains(t, line, "aurora  50%")

	assert.Contains(t, FormatFrame(quiet), "listening")
	assert.Contains(t, FormatFrame(quiet), "day")
}
