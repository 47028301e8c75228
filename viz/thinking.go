package viz

import (
	"math/rand"
	"sync"
	"time"
)

// Vec3 is a rotation offset in radians
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

// ThinkingConfig tunes the idle wobble of the model
type ThinkingConfig struct {
	RetargetInterval time.Duration
	MaxOffset        float64
	Stiffness        float64
	Damping          float64
}

// DefaultThinkingConfig returns the wobble used by the client
func DefaultThinkingConfig() ThinkingConfig {
	return ThinkingConfig{
		RetargetInterval: 2 * time.Second,
		MaxOffset:        0.15,
		Stiffness:        0.02,
		Damping:          0.85,
	}
}

// Thinking is the idle/thinking state machine. While thinking, the model
// eases toward a random small offset that changes every RetargetInterval;
// when idle it eases back to the default orientation.
type Thinking struct {
	cfg ThinkingConfig

	mu           sync.Mutex
	active       bool
	current      Vec3
	velocity     Vec3
	target       Vec3
	lastRetarget time.Time
	rand         *rand.Rand
}

// NewThinking creates an idle state machine
func NewThinking(cfg ThinkingConfig, seed int64) *Thinking {
	return &Thinking{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(seed)),
	}
}

// Start enters the thinking state, typically when playback starts
func (t *Thinking) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return
	}
	t.active = true
	t.lastRetarget = time.Time{}
}

// Stop returns to idle, typically when playback stops
func (t *Thinking) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.target = Vec3{}
}

// Active reports whether the model is in the thinking state
func (t *Thinking) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Target returns the offset currently eased toward
func (t *Thinking) Target() Vec3 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target
}

// Step advances one frame and returns the rotation offset to apply
func (t *Thinking) Step(now time.Time) Vec3 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active && now.Sub(t.lastRetarget) >= t.cfg.RetargetInterval {
		t.target = Vec3{t.randomOffset(), t.randomOffset(), t.randomOffset()}
		t.lastRetarget = now
	}

	t.velocity = t.velocity.add(t.target.sub(t.current).scale(t.cfg.Stiffness)).scale(t.cfg.Damping)
	t.current = t.current.add(t.velocity)
	return t.current
}

func (t *Thinking) randomOffset() float64 {
	return (t.rand.Float64()*2 - 1) * t.cfg.MaxOffset
}
