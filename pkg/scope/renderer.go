package scope

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

var (
	colorGrid  = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	colorLabel = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colorTrace = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	colorPeak  = color.RGBA{R: 255, G: 80, B: 80, A: 255}
	colorTitle = color.RGBA{R: 220, G: 220, B: 220, A: 255}
)

const gridColumns = 10

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	bg *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 360)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the current data.
func (r *scopeRenderer) Refresh() {
	s := r.scope
	s.mu.RLock()
	trace := s.trace
	spectrum := s.spectrum
	firstBin := s.firstBin
	binHz := s.binHz
	specMax := s.specMax
	peakBin, peakHz, hasPeak := s.peakBin, s.peakHz, s.hasPeak
	span := s.traceSpanS
	s.mu.RUnlock()

	size := s.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.bg}
	tracePane, specPane := panes(size)

	// Voltage pane
	r.addTitle(tracePane, "Voltage")
	r.drawGrid(tracePane, 8, func(i int) string {
		return formatVoltage(TraceMaxVolts - float64(i)*(TraceMaxVolts-TraceMinVolts)/8)
	}, func(i int) string {
		return formatSeconds(float64(i) * span / float64(gridColumns))
	})
	r.drawLine(tracePane.polyline(trace, TraceMinVolts, TraceMaxVolts), colorTrace)

	// Spectrum pane
	r.addTitle(specPane, "Spectrum")
	r.drawGrid(specPane, 4, func(i int) string {
		return formatMagnitude(specMax - float64(i)*specMax/4)
	}, func(i int) string {
		if len(spectrum) < 2 {
			return ""
		}
		bin := float64(firstBin) + float64(i)*float64(len(spectrum)-1)/float64(gridColumns)
		return formatHz(bin * binHz)
	})
	r.drawLine(specPane.polyline(spectrum, 0, specMax), colorTrace)

	if hasPeak && peakBin >= firstBin && peakBin < firstBin+len(spectrum) {
		x := specPane.scaleX(peakBin-firstBin, len(spectrum))
		marker := canvas.NewLine(colorPeak)
		marker.Position1 = fyne.NewPos(x, specPane.Y)
		marker.Position2 = fyne.NewPos(x, specPane.Y+specPane.H)
		marker.StrokeWidth = 1
		r.objects = append(r.objects, marker)

		label := canvas.NewText(formatPeak(peakBin, peakHz), colorPeak)
		label.TextSize = 11
		label.Move(fyne.NewPos(specPane.X+specPane.W-150, specPane.Y+4))
		r.objects = append(r.objects, label)
	}
}

func (r *scopeRenderer) addTitle(p plotRect, title string) {
	text := canvas.NewText(title, colorTitle)
	text.TextSize = 12
	text.TextStyle = fyne.TextStyle{Bold: true}
	text.Move(fyne.NewPos(p.X, p.Y-marginTop+2))
	r.objects = append(r.objects, text)
}

// drawGrid draws rows+1 horizontal and gridColumns+1 vertical lines with axis labels.
func (r *scopeRenderer) drawGrid(p plotRect, rows int, yLabel, xLabel func(int) string) {
	for i := range rows + 1 {
		y := p.Y + float32(i)*p.H/float32(rows)
		line := canvas.NewLine(colorGrid)
		line.Position1 = fyne.NewPos(p.X, y)
		line.Position2 = fyne.NewPos(p.X+p.W, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		text := canvas.NewText(yLabel(i), colorLabel)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.X-5, y-6))
		r.objects = append(r.objects, text)
	}

	for i := range gridColumns + 1 {
		x := p.X + float32(i)*p.W/float32(gridColumns)
		line := canvas.NewLine(colorGrid)
		line.Position1 = fyne.NewPos(x, p.Y)
		line.Position2 = fyne.NewPos(x, p.Y+p.H)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		if i%2 != 0 {
			continue
		}
		text := canvas.NewText(xLabel(i), colorLabel)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.Y+p.H+5))
		r.objects = append(r.objects, text)
	}
}

// drawLine draws connected segments through points.
func (r *scopeRenderer) drawLine(points []fyne.Position, c color.Color) {
	for i := range len(points) - 1 {
		line := canvas.NewLine(c)
		line.Position1 = points[i]
		line.Position2 = points[i+1]
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
	}
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}
