package client

import (
	"fmt"
	"io"
	"strings"

	"github.com/room4-2/arka/viz"
)

const meterWidth = 30

// TerminalRenderer draws the ring as a one-line meter
type TerminalRenderer struct {
	Out io.Writer

	last string
}

// Render redraws the line when it changed since the previous frame
func (r *TerminalRenderer) Render(f viz.Frame) {
	line := FormatFrame(f)
	if line == r.last {
		return
	}
	r.last = line
	fmt.Fprintf(r.Out, "\r%s", line)
}

// FormatFrame renders a frame as text
func FormatFrame(f viz.Frame) string {
	filled := int(f.Ring.Opacity*meterWidth + 0.5)
	filled = min(max(filled, 0), meterWidth)

	mood := "listening"
	if f.Thinking {
		mood = "speaking "
	}

	sky := "day   "
	if f.AuroraOpacity > 0 {
		sky = fmt.Sprintf("aurora %3.0f%%", f.AuroraOpacity*100)
	}

	return fmt.Sprintf("[%s%s] x%.2f %s rot(%+.2f %+.2f %+.2f) %s",
		strings.Repeat("#", filled), strings.Repeat(" ", meterWidth-filled),
		f.Ring.Scale, mood, f.Rotation.X, f.Rotation.Y, f.Rotation.Z, sky)
}
