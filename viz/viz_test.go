package viz

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, 0.0, Level(nil))
	assert.Equal(t, 0.0, Level([]uint8{0, 0, 0}))
	assert.Equal(t, 1.0, Level([]uint8{255, 255}))
	assert.InDelta(t, 0.5, Level([]uint8{255, 0}), 1e-9)
}

func TestRingForCoversUnitInterval(t *testing.T) {
	for i := 0; i <= 100; i++ {
		level := float64(i) / 100
		ring := RingFor(level)

		assert.InDelta(t, 0.2+level*0.8, ring.Opacity, 1e-9, "level %.2f", level)
		assert.InDelta(t, 1+level*0.2, ring.Scale, 1e-9, "level %.2f", level)
		assert.GreaterOrEqual(t, ring.Opacity, 0.2)
		assert.LessOrEqual(t, ring.Opacity, 1.0)
	}
}

func TestRingForClampsOutOfRange(t *testing.T) {
	low := RingFor(-3)
	assert.InDelta(t, 0.2, low.Opacity, 1e-9)
	assert.InDelta(t, 1.0, low.Scale, 1e-9)

	high := RingFor(7)
	assert.InDelta(t, 1.0, high.Opacity, 1e-9)
	assert.InDelta(t, 1.2, high.Scale, 1e-9)
}

func TestIsNighttime(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		want := hour >= 18 || hour < 8
		assert.Equal(t, want, IsNighttime(hour), "hour %d", hour)
	}
	assert.True(t, IsNighttime(7))
	assert.False(t, IsNighttime(8))
	assert.False(t, IsNighttime(17))
	assert.True(t, IsNighttime(18))
}

func TestVisible(t *testing.T) {
	noon := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	midnight := time.Date(2024, 6, 1, 0, 30, 0, 0, time.Local)

	assert.False(t, Visible(noon, false))
	assert.True(t, Visible(noon, true))
	assert.True(t, Visible(midnight, false))
}

func TestAuroraFadesMonotonicallyWithoutOvershoot(t *testing.T) {
	a := NewAurora(0.3)

	prev := a.Opacity()
	for i := 0; i < 10; i++ {
		o := a.Advance(true)
		assert.GreaterOrEqual(t, o, prev)
		assert.LessOrEqual(t, o, 1.0)
		prev = o
	}
	assert.Equal(t, 1.0, a.Opacity())

	for i := 0; i < 10; i++ {
		o := a.Advance(false)
		assert.LessOrEqual(t, o, prev)
		assert.GreaterOrEqual(t, o, 0.0)
		prev = o
	}
	assert.Equal(t, 0.0, a.Opacity())
}

func TestThinkingRetargetsWithinBounds(t *testing.T) {
	cfg := DefaultThinkingConfig()
	th := NewThinking(cfg, 42)
	start := time.Unix(0, 0)

	th.Step(start)
	assert.Equal(t, Vec3{}, th.Target(), "idle target is the default orientation")

	th.Start()
	assert.True(t, th.Active())

	th.Step(start)
	first := th.Target()
	assert.NotEqual(t, Vec3{}, first)
	for _, c := range []float64{first.X, first.Y, first.Z} {
		assert.LessOrEqual(t, math.Abs(c), cfg.MaxOffset)
	}

	th.Step(start.Add(time.Second))
	assert.Equal(t, first, th.Target(), "no retarget before the interval")

	th.Step(start.Add(cfg.RetargetInterval))
	assert.NotEqual(t, first, th.Target())
}

func TestThinkingEasesBackWhenStopped(t *testing.T) {
	th := NewThinking(DefaultThinkingConfig(), 7)
	now := time.Unix(0, 0)

	th.Start()
	var rot Vec3
	for i := 0; i < 60; i++ {
		rot = th.Step(now.Add(time.Duration(i) * time.Second / 60))
	}
	assert.NotEqual(t, Vec3{}, rot)

	th.Stop()
	assert.False(t, th.Active())
	assert.Equal(t, Vec3{}, th.Target())

	for i := 0; i < 2000; i++ {
		rot = th.Step(now)
	}
	assert.InDelta(t, 0, rot.X, 1e-6)
	assert.InDelta(t, 0, rot.Y, 1e-6)
	assert.InDelta(t, 0, rot.Z, 1e-6)
}

func TestAnalyserSilence(t *testing.T) {
	a := NewAnalyser(DefaultAnalyserConfig())

	bins := a.ByteFrequencyData()
	require.Len(t, bins, 128)
	assert.Equal(t, 0.0, Level(bins))
}

func TestAnalyserFindsTone(t *testing.T) {
	a := NewAnalyser(DefaultAnalyserConfig())

	samples := make([]float64, 256)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * 16 * float64(i) / 256)
	}
	a.Write(samples)

	var bins []uint8
	for i := 0; i < 30; i++ {
		bins = a.ByteFrequencyData()
	}

	assert.Equal(t, uint8(255), bins[16])
	assert.Less(t, bins[100], bins[16])
	assert.Greater(t, a.Level(), 0.0)

	a.Reset()
	for i := 0; i < 5; i++ {
		bins = a.ByteFrequencyData()
	}
	assert.Equal(t, 0.0, Level(bins))
}

func TestNewAnalyserFixesBadFFTSize(t *testing.T) {
	a := NewAnalyser(AnalyserConfig{FFTSize: 100, Smoothing: 0.5, MinDecibels: -100, MaxDecibels: -30})
	assert.Len(t, a.ByteFrequencyData(), 128)
}

type fixedLevel float64

func (f fixedLevel) Level() float64 { return float64(f) }

type recorder struct {
	frames chan Frame
}

func (r *recorder) Render(f Frame) {
	select {
	case r.frames <- f:
	default:
	}
}

func TestLoopTick(t *testing.T) {
	night := time.Date(2024, 1, 1, 22, 0, 0, 0, time.Local)

	loop := NewLoop(nil, fixedLevel(0.5), NewThinking(DefaultThinkingConfig(), 1), NewAurora(0.25))
	loop.Now = func() time.Time { return night }

	f := loop.Tick()
	assert.Equal(t, 0.5, f.Level)
	assert.InDelta(t, 0.6, f.Ring.Opacity, 1e-9)
	assert.InDelta(t, 1.1, f.Ring.Scale, 1e-9)
	assert.False(t, f.Thinking)
	assert.Equal(t, 0.25, f.AuroraOpacity)
}

func TestLoopRunsUntilStopped(t *testing.T) {
	rec := &recorder{frames: make(chan Frame, 1)}
	loop := NewLoop(rec, fixedLevel(2), nil, nil)
	loop.Interval = time.Millisecond

	done := make(chan struct{})
	go func() {
		loop.Run(context.Background())
		close(done)
	}()

	select {
	case f := <-rec.frames:
		assert.Equal(t, 1.0, f.Level, "level is clamped")
		assert.Equal(t, 1.0, f.Ring.Opacity)
	case <-time.After(time.Second):
		t.Fatal("no frame rendered")
	}

	loop.Stop()
	loop.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
