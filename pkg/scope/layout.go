package scope

import (
	"fmt"

	"fyne.io/fyne/v2"
	"github.com/chewxy/math32"
)

// plotRect is the drawable area of one pane, in widget coordinates.
type plotRect struct {
	X, Y, W, H float32
}

// Pane margins
const (
	marginLeft   = float32(60)
	marginRight  = float32(20)
	marginTop    = float32(20)
	marginBottom = float32(30)
	paneGap      = float32(10)

	traceShare = float32(0.6)
)

// panes splits size into the trace pane on top and the spectrum pane below.
func panes(size fyne.Size) (trace, spectrum plotRect) {
	w := math32.Max(0, size.Width-marginLeft-marginRight)
	avail := math32.Max(0, size.Height-2*(marginTop+marginBottom)-paneGap)

	traceH := math32.Floor(avail * traceShare)
	trace = plotRect{X: marginLeft, Y: marginTop, W: w, H: traceH}

	y := trace.Y + trace.H + marginBottom + paneGap + marginTop
	spectrum = plotRect{X: marginLeft, Y: y, W: w, H: avail - traceH}
	return trace, spectrum
}

// scaleX maps index i of n evenly spaced points onto the pane width.
func (r plotRect) scaleX(i, n int) float32 {
	if n <= 1 {
		return r.X
	}
	return r.X + float32(i)*r.W/float32(n-1)
}

// scaleY maps v within [lo, hi] onto the pane height, clamped to the pane.
func (r plotRect) scaleY(v, lo, hi float64) float32 {
	if hi <= lo {
		return r.Y + r.H/2
	}
	frac := float32((v - lo) / (hi - lo))
	if math32.IsNaN(frac) {
		frac = 0.5
	}
	frac = math32.Max(0, math32.Min(1, frac))
	return r.Y + r.H - frac*r.H
}

// polyline converts values into pane positions.
func (r plotRect) polyline(values []float64, lo, hi float64) []fyne.Position {
	points := make([]fyne.Position, len(values))
	for i, v := range values {
		points[i] = fyne.NewPos(r.scaleX(i, len(values)), r.scaleY(v, lo, hi))
	}
	return points
}

// visibleBins returns the spectrum from offset up to and including the
// Nyquist bin, and the absolute index of its first element.
func visibleBins(spectrum []float64, offset int) (int, []float64) {
	end := len(spectrum)/2 + 1
	if end > len(spectrum) {
		end = len(spectrum)
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= end {
		return offset, []float64{}
	}
	out := make([]float64, end-offset)
	copy(out, spectrum[offset:end])
	return offset, out
}

// spectrumScale is the top of the spectrum axis: the largest magnitude plus 10%, at least 1.
func spectrumScale(spectrum []float64) float64 {
	top := 0.0
	for _, v := range spectrum {
		if v > top {
			top = v
		}
	}
	top *= 1.1
	if top < 1 {
		return 1
	}
	return top
}

func formatVoltage(v float64) string {
	return fmt.Sprintf("%.1fV", v)
}

func formatSeconds(s float64) string {
	if s < 1 {
		return fmt.Sprintf("%.2fs", s)
	}
	return fmt.Sprintf("%.1fs", s)
}

func formatHz(hz float64) string {
	return fmt.Sprintf("%.0fHz", hz)
}

func formatMagnitude(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func formatPeak(bin int, hz float64) string {
	return fmt.Sprintf("peak %.1f Hz (bin %d)", hz, bin)
}
