package viz

import "time"

// IsNighttime reports whether the aurora should show at the given hour
func IsNighttime(hour int) bool {
	return hour >= 18 || hour < 8
}

// Aurora fades the particle curtain toward fully visible or hidden
type Aurora struct {
	Step float64 // opacity change per frame

	opacity float64
}

// NewAurora creates a hidden aurora fading by step per frame
func NewAurora(step float64) *Aurora {
	return &Aurora{Step: step}
}

// Visible decides the fade target from the forced flag or the local time
func Visible(now time.Time, forced bool) bool {
	return forced || IsNighttime(now.Hour())
}

// Advance moves the opacity one step toward the target without overshooting
func (a *Aurora) Advance(visible bool) float64 {
	target := 0.0
	if visible {
		target = 1
	}
	switch {
	case a.opacity < target:
		a.opacity = min(a.opacity+a.Step, target)
	case a.opacity > target:
		a.opacity = max(a.opacity-a.Step, target)
	}
	return a.opacity
}

// Opacity returns the current opacity
func (a *Aurora) Opacity() float64 {
	return a.opacity
}
