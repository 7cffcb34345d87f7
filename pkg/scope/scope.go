package scope

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/mcuscope/pkg/analysis"
	"github.com/itohio/mcuscope/pkg/config"
	"github.com/itohio/mcuscope/pkg/sample"
)

// Fixed voltage axis of the trace pane.
const (
	TraceMinVolts = -4.0
	TraceMaxVolts = 4.0
)

// ScopeWidget is a custom Fyne widget with two stacked panes: the voltage
// trace and the magnitude spectrum of the newest analysis window.
type ScopeWidget struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu         sync.RWMutex
	rate       float64 // samples per second of the displayed session
	offsetBins int     // near-DC bins hidden from the spectrum pane
	trace      []float64 // downsampled for display
	spectrum   []float64 // visible bins only
	firstBin   int       // absolute index of spectrum[0]
	binHz      float64
	specMax    float64
	peakBin    int
	peakHz     float64
	hasPeak    bool
	samples    int
	traceSpanS float64

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance configured from cfg.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		trace:            make([]float64, 0, 1000),
		spectrum:         make([]float64, 0),
		specMax:          1,
		maxDisplayPoints: 1000,
	}
	s.configure(cfg)
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// Configure copies the sample rate and hidden bin count of the session about
// to be displayed. Later changes to cfg do not affect the widget.
func (s *ScopeWidget) Configure(cfg *config.Config) {
	s.mu.Lock()
	s.configure(cfg)
	s.mu.Unlock()
}

func (s *ScopeWidget) configure(cfg *config.Config) {
	if cfg == nil {
		cfg = config.Default()
	}
	s.rate = cfg.Sampling.Rate
	s.offsetBins = cfg.Analysis.DisplayOffsetBins
}

// UpdateFrame replaces the displayed data with f.
// Must be called on the Fyne main thread (wrap with fyne.Do from other goroutines).
func (s *ScopeWidget) UpdateFrame(f analysis.Frame) {
	s.mu.Lock()

	s.trace = sample.Downsample(s.trace, f.Trace, s.maxDisplayPoints)
	s.samples = f.Samples
	s.traceSpanS = 0
	if s.rate > 0 {
		s.traceSpanS = float64(len(f.Trace)) / s.rate
	}

	s.firstBin, s.spectrum = visibleBins(f.Spectrum, s.offsetBins)
	s.binHz = 0
	if len(f.Spectrum) > 0 {
		s.binHz = analysis.BinHz(1, s.rate, len(f.Spectrum))
	}
	s.specMax = spectrumScale(s.spectrum)

	s.peakBin = f.PeakBin
	s.peakHz = f.PeakHz
	s.hasPeak = f.HasPeak

	s.mu.Unlock()

	s.Refresh()
}

// Clear drops all displayed data.
func (s *ScopeWidget) Clear() {
	s.mu.Lock()
	s.trace = s.trace[:0]
	s.spectrum = s.spectrum[:0]
	s.firstBin = 0
	s.binHz = 0
	s.specMax = 1
	s.hasPeak = false
	s.samples = 0
	s.traceSpanS = 0
	s.mu.Unlock()

	s.Refresh()
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 0, G: 0, B: 0, A: 255})
	return &scopeRenderer{
		scope:   s,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}
