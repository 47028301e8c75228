// Package viz drives the audio-reactive visuals: the ring around the globe,
// the idle "thinking" rotation and the aurora curtain.
package viz

// Ring parameters derived from the audio level
type Ring struct {
	Opacity float64
	Scale   float64
}

const (
	ringBaseOpacity = 0.2
	ringOpacityGain = 0.8
	ringScaleGain   = 0.2
	maxBinValue     = 255
)

// Level averages frequency-bin magnitudes into [0,1]
func Level(bins []uint8) float64 {
	if len(bins) == 0 {
		return 0
	}
	sum := 0
	for _, b := range bins {
		sum += int(b)
	}
	return float64(sum) / float64(len(bins)) / maxBinValue
}

// RingFor maps an audio level to ring opacity and uniform scale
func RingFor(level float64) Ring {
	level = clamp(level, 0, 1)
	return Ring{
		Opacity: clamp(ringBaseOpacity+level*ringOpacityGain, ringBaseOpacity, 1),
		Scale:   1 + level*ringScaleGain,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
