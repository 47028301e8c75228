package viz

import (
	"context"
	"sync"
	"time"
)

// Frame is everything the renderer needs for one display refresh
type Frame struct {
	Level         float64
	Ring          Ring
	Rotation      Vec3
	Thinking      bool
	AuroraOpacity float64
}

// Renderer draws a frame
type Renderer interface {
	Render(f Frame)
}

// LevelSource provides the most recent audio level
type LevelSource interface {
	Level() float64
}

// Loop ticks once per display refresh until stopped
type Loop struct {
	Renderer    Renderer
	Source      LevelSource
	Thinking    *Thinking
	Aurora      *Aurora
	ForceAurora bool
	Interval    time.Duration
	Now         func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewLoop creates a 60fps loop
func NewLoop(r Renderer, src LevelSource, thinking *Thinking, aurora *Aurora) *Loop {
	return &Loop{
		Renderer: r,
		Source:   src,
		Thinking: thinking,
		Aurora:   aurora,
		Interval: time.Second / 60,
		Now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Run blocks rendering frames until Stop is called or ctx is done
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.C:
			l.Renderer.Render(l.Tick())
		}
	}
}

// Stop ends Run; safe to call more than once
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Tick computes one frame
func (l *Loop) Tick() Frame {
	now := l.Now()

	var f Frame
	if l.Source != nil {
		f.Level = clamp(l.Source.Level(), 0, 1)
	}
	f.Ring = RingFor(f.Level)

	if l.Thinking != nil {
		f.Rotation = l.Thinking.Step(now)
		f.Thinking = l.Thinking.Active()
	}

	if l.Aurora != nil {
		f.AuroraOpacity = l.Aurora.Advance(Visible(now, l.ForceAurora))
	}

	return f
}
