package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlayer plays a clip until released or cancelled and records overlaps
type fakePlayer struct {
	mu       sync.Mutex
	started  []int
	finished []int
	playing  int
	overlap  bool
	current  context.Context
	fail     map[int]bool

	release chan struct{}
	began   chan int
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		fail:    map[int]bool{},
		release: make(chan struct{}),
		began:   make(chan int, 16),
	}
}

func (p *fakePlayer) Play(ctx context.Context, clip Clip) error {
	p.mu.Lock()
	p.playing++
	if p.playing > 1 {
		p.overlap = true
	}
	p.started = append(p.started, clip.ID)
	p.current = ctx
	fail := p.fail[clip.ID]
	p.mu.Unlock()

	p.began <- clip.ID

	defer func() {
		p.mu.Lock()
		p.playing--
		p.finished = append(p.finished, clip.ID)
		p.mu.Unlock()
	}()

	if fail {
		return errors.New("decode failed")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.release:
		return nil
	}
}

func (p *fakePlayer) currentCtx() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *fakePlayer) snapshot() ([]int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.started...), p.overlap
}

func waitBegan(t *testing.T, p *fakePlayer, want int) {
	t.Helper()
	select {
	case id := <-p.began:
		require.Equal(t, want, id)
	case <-time.After(time.Second):
		t.Fatalf("clip %d never started", want)
	}
}

func TestQueuePlaysInOrderWithoutOverlap(t *testing.T) {
	player := newFakePlayer()
	q := NewQueue(player)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	for i := 0; i < 3; i++ {
		q.Enqueue("clip", time.Second)
	}

	for id := 1; id <= 3; id++ {
		waitBegan(t, player, id)
		assert.Equal(t, StatePlaying, q.State())
		player.release <- struct{}{}
	}

	assert.Eventually(t, func() bool { return q.State() == StateIdle }, time.Second, 5*time.Millisecond)

	started, overlap := player.snapshot()
	assert.Equal(t, []int{1, 2, 3}, started)
	assert.False(t, overlap)
}

func TestQueueAdvancesPastFailedClip(t *testing.T) {
	player := newFakePlayer()
	player.fail[1] = true
	q := NewQueue(player)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue("broken", time.Second)
	q.Enqueue("fine", time.Second)

	waitBegan(t, player, 1)
	waitBegan(t, player, 2)
	player.release <- struct{}{}

	assert.Eventually(t, func() bool { return q.State() == StateIdle }, time.Second, 5*time.Millisecond)
}

func TestInterruptClearsQueueAndStopsCurrentClip(t *testing.T) {
	player := newFakePlayer()
	q := NewQueue(player)

	var stops int
	var mu sync.Mutex
	q.OnStop = func() {
		mu.Lock()
		stops++
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue("a", time.Second)
	q.Enqueue("b", time.Second)
	q.Enqueue("c", time.Second)
	waitBegan(t, player, 1)

	q.Interrupt()

	// synchronous: nothing left to play and the current clip is cancelled
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, StateIdle, q.State())
	assert.Error(t, player.currentCtx().Err())

	mu.Lock()
	assert.Equal(t, 1, stops)
	mu.Unlock()

	// the queue keeps working after an interruption
	q.Enqueue("d", time.Second)
	waitBegan(t, player, 4)
	player.release <- struct{}{}

	assert.Eventually(t, func() bool { return q.State() == StateIdle }, time.Second, 5*time.Millisecond)
	started, overlap := player.snapshot()
	assert.Equal(t, []int{1, 4}, started)
	assert.False(t, overlap)
}

func TestInterruptWhileIdle(t *testing.T) {
	q := NewQueue(newFakePlayer())

	called := false
	q.OnStop = func() { called = true }

	q.Enqueue("a", time.Second)
	q.Interrupt()

	assert.Equal(t, 0, q.Len())
	assert.False(t, called)
}

func TestHooksFireOncePerPlayingStretch(t *testing.T) {
	player := newFakePlayer()
	q := NewQueue(player)

	var mu sync.Mutex
	var events []string
	q.OnStart = func() {
		mu.Lock()
		events = append(events, "start")
		mu.Unlock()
	}
	q.OnStop = func() {
		mu.Lock()
		events = append(events, "stop")
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue("a", time.Second)
	q.Enqueue("b", time.Second)
	waitBegan(t, player, 1)
	player.release <- struct{}{}
	waitBegan(t, player, 2)
	player.release <- struct{}{}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"start", "stop"}, events)
	mu.Unlock()
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "playing", StatePlaying.String())
}
