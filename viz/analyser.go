package viz

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// AnalyserConfig mirrors the knobs of a Web Audio AnalyserNode
type AnalyserConfig struct {
	FFTSize     int // power of two
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// DefaultAnalyserConfig returns FFT size 256 with 0.8 smoothing
func DefaultAnalyserConfig() AnalyserConfig {
	return AnalyserConfig{
		FFTSize:     256,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,
	}
}

// Analyser keeps the most recent FFTSize samples and turns them into byte
// frequency bins. Samples are written by the audio goroutines and read by
// the render loop.
type Analyser struct {
	cfg AnalyserConfig

	mu       sync.Mutex
	fft      *fourier.FFT
	coeff    []complex128
	samples  []float64
	pos      int
	smoothed []float64
}

// NewAnalyser creates an analyser, falling back to the default FFT size when
// cfg.FFTSize is not a power of two.
func NewAnalyser(cfg AnalyserConfig) *Analyser {
	if cfg.FFTSize < 2 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		cfg.FFTSize = DefaultAnalyserConfig().FFTSize
	}
	return &Analyser{
		cfg:      cfg,
		fft:      fourier.NewFFT(cfg.FFTSize),
		samples:  make([]float64, cfg.FFTSize),
		smoothed: make([]float64, cfg.FFTSize/2),
	}
}

// Write appends normalized samples in [-1,1]
func (a *Analyser) Write(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.samples[a.pos] = s
		a.pos = (a.pos + 1) % len(a.samples)
	}
}

// Reset silences the analyser
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.samples {
		a.samples[i] = 0
	}
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
}

// ByteFrequencyData computes FFTSize/2 bins scaled from
// [MinDecibels, MaxDecibels] to [0, 255].
func (a *Analyser) ByteFrequencyData() []uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.samples)
	seq := make([]float64, n)
	for i := range seq {
		seq[i] = a.samples[(a.pos+i)%n]
	}
	a.coeff = a.fft.Coefficients(a.coeff, window.Blackman(seq))

	bins := make([]uint8, n/2)
	rangeDb := a.cfg.MaxDecibels - a.cfg.MinDecibels
	for k := range bins {
		magnitude := cmplx.Abs(a.coeff[k]) / float64(n)
		a.smoothed[k] = a.cfg.Smoothing*a.smoothed[k] + (1-a.cfg.Smoothing)*magnitude
		if a.smoothed[k] == 0 {
			continue
		}
		db := 20 * math.Log10(a.smoothed[k])
		bins[k] = uint8(clamp(255*(db-a.cfg.MinDecibels)/rangeDb, 0, 255))
	}
	return bins
}

// Level is the current average bin level in [0,1]
func (a *Analyser) Level() float64 {
	return Level(a.ByteFrequencyData())
}
