// Package analysis is the periodic consumer of the sample buffer. Each tick
// takes a snapshot, trims the warm-up samples for display and recomputes the
// magnitude spectrum of the newest window together with its dominant bin.
package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/itohio/mcuscope/pkg/config"
	"github.com/itohio/mcuscope/pkg/logging"
	"github.com/itohio/mcuscope/pkg/sample"
	"go.uber.org/zap"
)

// Frame is the result of one analysis tick.
type Frame struct {
	Trace       []float64 // Snapshot minus warm-up samples, oldest first
	Samples     int       // Snapshot length the frame was computed from
	Spectrum    []float64 // Magnitudes of the newest window; kept from the last computing tick otherwise
	HasSpectrum bool      // Spectrum was recomputed on this tick
	PeakBin     int       // Absolute bin index of the dominant frequency
	PeakHz      float64
	HasPeak     bool
	At          time.Time
}

// clone returns f with its own copies of Trace and Spectrum.
func (f Frame) clone() Frame {
	f.Trace = append([]float64(nil), f.Trace...)
	f.Spectrum = append([]float64(nil), f.Spectrum...)
	return f
}

// Analyzer runs analysis ticks over a sample buffer.
type Analyzer struct {
	cfg    config.AnalysisConfig
	rate   float64
	buf    *sample.Buffer
	logger *zap.Logger

	mu       sync.RWMutex
	latest   Frame
	spectrum []float64
	ticks    uint64

	callbacks []func(Frame)
	cbMu      sync.RWMutex
}

// New creates an Analyzer reading from buf.
func New(cfg *config.Config, buf *sample.Buffer, logger *zap.Logger) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Analyzer{
		cfg:      cfg.Analysis,
		rate:     cfg.Sampling.Rate,
		buf:      buf,
		logger:   logging.OrNop(logger),
		spectrum: []float64{},
	}
}

// Tick runs one analysis step. It returns false, leaving the previous frame
// and spectrum untouched, while fewer than MinSamples samples are buffered.
func (a *Analyzer) Tick() bool {
	if a.buf == nil || a.buf.Len() < a.cfg.MinSamples {
		return false
	}

	snap := a.buf.Snapshot()
	f := Frame{
		Samples: len(snap),
		At:      time.Now(),
	}
	if a.cfg.WarmupSamples < len(snap) {
		f.Trace = snap[a.cfg.WarmupSamples:]
	} else {
		f.Trace = []float64{}
	}

	a.mu.Lock()
	if len(snap) > a.cfg.SpectrumThreshold {
		n := min(a.cfg.WindowSize, len(snap))
		a.spectrum = Magnitudes(snap[len(snap)-n:])
		f.HasSpectrum = true

		if bin, ok := PeakBin(a.spectrum, a.cfg.PeakMinBin, a.cfg.PeakMaxBin); ok {
			f.PeakBin = bin
			f.PeakHz = BinHz(bin, a.rate, n)
			f.HasPeak = true
		}
	} else {
		f.PeakBin = a.latest.PeakBin
		f.PeakHz = a.latest.PeakHz
		f.HasPeak = a.latest.HasPeak
	}
	f.Spectrum = append([]float64(nil), a.spectrum...)
	a.latest = f
	a.ticks++
	ticks := a.ticks
	a.mu.Unlock()

	if f.HasPeak && f.HasSpectrum {
		a.logger.Debug("[analysis] dominant bin",
			zap.Int("bin", f.PeakBin),
			zap.Float64("hz", f.PeakHz),
			zap.Int("samples", f.Samples),
			zap.Uint64("tick", ticks),
		)
	}

	a.notifyCallbacks(f)
	return true
}

// Run ticks until ctx is cancelled, waiting IdleInterval after a gated tick
// and Interval otherwise.
func (a *Analyzer) Run(ctx context.Context) {
	a.logger.Info("[analysis] started",
		zap.Duration("interval", a.cfg.Interval),
		zap.Int("minSamples", a.cfg.MinSamples),
	)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("[analysis] stopped", zap.Uint64("ticks", a.Ticks()))
			return
		case <-timer.C:
		}

		next := a.cfg.IdleInterval
		if a.Tick() {
			next = a.cfg.Interval
		}
		timer.Reset(next)
	}
}

// Latest returns a copy of the most recent frame.
func (a *Analyzer) Latest() Frame {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest.clone()
}

// Spectrum returns a copy of the current spectrum snapshot. It is empty
// until the first computing tick.
func (a *Analyzer) Spectrum() []float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]float64, len(a.spectrum))
	copy(out, a.spectrum)
	return out
}

// Ticks returns the number of ticks that passed the gate.
func (a *Analyzer) Ticks() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ticks
}

// OnUpdate registers a callback invoked after every tick that passed the gate.
// Callbacks run on the analysis goroutine and should return quickly. Each
// callback receives its own copy of the frame.
func (a *Analyzer) OnUpdate(callback func(Frame)) {
	a.cbMu.Lock()
	defer a.cbMu.Unlock()
	a.callbacks = append(a.callbacks, callback)
}

func (a *Analyzer) notifyCallbacks(f Frame) {
	a.cbMu.RLock()
	callbacks := make([]func(Frame), len(a.callbacks))
	copy(callbacks, a.callbacks)
	a.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(f.clone())
		}
	}
}
