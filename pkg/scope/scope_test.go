package scope

import (
	"math"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/test"
	"github.com/itohio/mcuscope/pkg/analysis"
	"github.com/itohio/mcuscope/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanes(t *testing.T) {
	trace, spectrum := panes(fyne.NewSize(800, 600))

	assert.Equal(t, marginLeft, trace.X)
	assert.Equal(t, float32(800)-marginLeft-marginRight, trace.W)
	assert.Equal(t, trace.W, spectrum.W)
	assert.Greater(t, trace.H, spectrum.H)
	assert.Greater(t, spectrum.Y, trace.Y+trace.H)
	assert.LessOrEqual(t, spectrum.Y+spectrum.H, float32(600))
}

func TestPanes_TooSmall(t *testing.T) {
	trace, spectrum := panes(fyne.NewSize(10, 10))
	assert.Equal(t, float32(0), trace.W)
	assert.Equal(t, float32(0), trace.H)
	assert.Equal(t, float32(0), spectrum.H)
}

func TestScaleY(t *testing.T) {
	r := plotRect{X: 0, Y: 10, W: 100, H: 80}

	tests := []struct {
		name string
		v    float64
		want float32
	}{
		{"bottom", -4, 90},
		{"top", 4, 10},
		{"middle", 0, 50},
		{"clamped above", 10, 10},
		{"clamped below", -10, 90},
		{"nan", math.NaN(), 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, r.scaleY(tt.v, -4, 4), 1e-4)
		})
	}

	assert.Equal(t, float32(50), r.scaleY(1, 2, 2))
}

func TestScaleX(t *testing.T) {
	r := plotRect{X: 5, W: 100}
	assert.Equal(t, float32(5), r.scaleX(0, 1))
	assert.Equal(t, float32(5), r.scaleX(0, 11))
	assert.Equal(t, float32(55), r.scaleX(5, 11))
	assert.Equal(t, float32(105), r.scaleX(10, 11))
}

func TestPolyline(t *testing.T) {
	r := plotRect{X: 0, Y: 0, W: 10, H: 10}
	points := r.polyline([]float64{0, 0.5, 1}, 0, 1)
	require.Len(t, points, 3)
	assert.Equal(t, fyne.NewPos(0, 10), points[0])
	assert.Equal(t, fyne.NewPos(5, 5), points[1])
	assert.Equal(t, fyne.NewPos(10, 0), points[2])

	assert.Empty(t, r.polyline(nil, 0, 1))
}

func TestVisibleBins(t *testing.T) {
	spectrum := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	first, bins := visibleBins(spectrum, 3)
	assert.Equal(t, 3, first)
	assert.Equal(t, []float64{3, 4, 5}, bins)

	first, bins = visibleBins(spectrum, 0)
	assert.Equal(t, 0, first)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, bins)

	_, bins = visibleBins(spectrum, 20)
	assert.Empty(t, bins)

	_, bins = visibleBins(nil, 3)
	assert.Empty(t, bins)

	// Copy, not a view
	_, bins = visibleBins(spectrum, 3)
	bins[0] = -1
	assert.Equal(t, 3.0, spectrum[3])
}

func TestSpectrumScale(t *testing.T) {
	assert.Equal(t, 1.0, spectrumScale(nil))
	assert.Equal(t, 1.0, spectrumScale([]float64{0.1, 0.5}))
	assert.InDelta(t, 55.0, spectrumScale([]float64{3, 50, 7}), 1e-9)
}

func testFrame() analysis.Frame {
	trace := make([]float64, 2500)
	for i := range trace {
		trace[i] = 1.65 + math.Sin(2*math.Pi*float64(i)/20)
	}
	spectrum := make([]float64, 100)
	spectrum[5] = 50
	spectrum[95] = 50
	return analysis.Frame{
		Trace:       trace,
		Samples:     2600,
		Spectrum:    spectrum,
		HasSpectrum: true,
		PeakBin:     5,
		PeakHz:      50,
		HasPeak:     true,
	}
}

func TestScopeWidget_UpdateFrame(t *testing.T) {
	test.NewApp()
	cfg := config.Default()
	s := New(cfg)

	s.UpdateFrame(testFrame())

	s.mu.RLock()
	assert.Len(t, s.trace, s.maxDisplayPoints)
	assert.Equal(t, cfg.Analysis.DisplayOffsetBins, s.firstBin)
	assert.Len(t, s.spectrum, 51-cfg.Analysis.DisplayOffsetBins)
	assert.InDelta(t, 10.0, s.binHz, 1e-9)
	assert.InDelta(t, 55.0, s.specMax, 1e-9)
	assert.True(t, s.hasPeak)
	assert.Equal(t, 2600, s.samples)
	assert.InDelta(t, 2.5, s.traceSpanS, 1e-9)
	s.mu.RUnlock()

	s.Clear()
	s.mu.RLock()
	assert.Empty(t, s.trace)
	assert.Empty(t, s.spectrum)
	assert.False(t, s.hasPeak)
	s.mu.RUnlock()
}

func TestScopeWidget_Configure(t *testing.T) {
	test.NewApp()
	cfg := config.Default()
	s := New(cfg)

	// Editing the config does not relabel a running session
	cfg.Sampling.Rate = 2000
	cfg.Analysis.DisplayOffsetBins = 0
	s.UpdateFrame(testFrame())
	s.mu.RLock()
	assert.InDelta(t, 10.0, s.binHz, 1e-9)
	assert.Equal(t, 3, s.firstBin)
	s.mu.RUnlock()

	s.Configure(cfg)
	s.UpdateFrame(testFrame())
	s.mu.RLock()
	assert.InDelta(t, 20.0, s.binHz, 1e-9)
	assert.Equal(t, 0, s.firstBin)
	assert.InDelta(t, 1.25, s.traceSpanS, 1e-9)
	s.mu.RUnlock()
}

func TestScopeRenderer_Refresh(t *testing.T) {
	test.NewApp()
	s := New(config.Default())
	r := s.CreateRenderer().(*scopeRenderer)

	// Zero size draws nothing but the background
	r.Refresh()
	assert.Len(t, r.Objects(), 1)

	s.Resize(fyne.NewSize(800, 600))
	s.UpdateFrame(testFrame())
	r.Refresh()

	objects := r.Objects()
	assert.Greater(t, len(objects), 100)

	var peakLabel bool
	for _, o := range objects {
		if text, ok := o.(*canvas.Text); ok && text.Text == formatPeak(5, 50) {
			peakLabel = true
		}
	}
	assert.True(t, peakLabel, "peak label should be drawn")
	assert.Equal(t, fyne.NewSize(400, 360), r.MinSize())
}
