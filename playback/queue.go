// Package playback plays audio clips strictly one after another.
package playback

import (
	"context"
	"log"
	"sync"
	"time"
)

// State of the playback queue
type State int

const (
	StateIdle State = iota
	StatePlaying
)

func (s State) String() string {
	if s == StatePlaying {
		return "playing"
	}
	return "idle"
}

// Clip is a queued audio clip as received from the relay
type Clip struct {
	ID       int
	Data     string // base64 WAV
	Duration time.Duration
}

// Player plays a single clip, returning when it ended, failed or ctx was cancelled
type Player interface {
	Play(ctx context.Context, clip Clip) error
}

// Queue is a FIFO of pending clips played sequentially by Run.
// OnStart fires on Idle->Playing, OnStop on Playing->Idle.
type Queue struct {
	OnStart func()
	OnStop  func()

	player Player

	mu      sync.Mutex
	pending []Clip
	state   State
	gen     uint64
	cancel  context.CancelFunc
	nextID  int
	wake    chan struct{}
}

// NewQueue creates an idle queue playing through player
func NewQueue(player Player) *Queue {
	return &Queue{
		player: player,
		wake:   make(chan struct{}, 1),
	}
}

// Enqueue appends a clip and returns its ID
func (q *Queue) Enqueue(data string, duration time.Duration) int {
	q.mu.Lock()
	q.nextID++
	id := q.nextID
	q.pending = append(q.pending, Clip{ID: id, Data: data, Duration: duration})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return id
}

// Interrupt drops every pending clip and stops the current one. When it
// returns the queue is empty and Idle.
func (q *Queue) Interrupt() {
	q.mu.Lock()
	q.pending = nil
	q.gen++
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	wasPlaying := q.state == StatePlaying
	q.state = StateIdle
	q.mu.Unlock()

	if wasPlaying && q.OnStop != nil {
		q.OnStop()
	}
}

// Len returns the number of clips waiting to be played
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// State returns whether a clip is currently playing
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Run plays clips until ctx is done
func (q *Queue) Run(ctx context.Context) {
	defer q.Interrupt()

	for {
		clip, playCtx, gen, ok := q.next(ctx)
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
			}
			continue
		}

		err := q.player.Play(playCtx, clip)
		if err != nil && playCtx.Err() == nil {
			log.Printf("⚠️ Clip %d failed: %v", clip.ID, err)
		}

		q.finish(gen)
	}
}

func (q *Queue) next(ctx context.Context) (Clip, context.Context, uint64, bool) {
	q.mu.Lock()
	if len(q.pending) == 0 || ctx.Err() != nil {
		q.mu.Unlock()
		return Clip{}, nil, 0, false
	}

	clip := q.pending[0]
	q.pending = q.pending[1:]

	playCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	started := q.state == StateIdle
	q.state = StatePlaying
	gen := q.gen
	q.mu.Unlock()

	if started && q.OnStart != nil {
		q.OnStart()
	}
	return clip, playCtx, gen, true
}

// finish advances after a clip ended or failed. A clip stopped by Interrupt
// has already been accounted for.
func (q *Queue) finish(gen uint64) {
	q.mu.Lock()
	if gen != q.gen {
		q.mu.Unlock()
		return
	}
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	stopped := len(q.pending) == 0
	if stopped {
		q.state = StateIdle
	}
	q.mu.Unlock()

	if stopped && q.OnStop != nil {
		q.OnStop()
	}
}
