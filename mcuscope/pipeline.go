package main

import (
	"context"
	"time"

	"github.com/itohio/mcuscope/pkg/acquire"
	"github.com/itohio/mcuscope/pkg/analysis"
	"github.com/itohio/mcuscope/pkg/config"
	"github.com/itohio/mcuscope/pkg/sample"
)

// pipeline is one acquisition session and its analyzer sharing a sample buffer.
type pipeline struct {
	endpoint string
	cfg      *config.Config // snapshot taken at start; settings edits apply to the next pipeline
	buf      *sample.Buffer
	session  *acquire.Session
	analyzer *analysis.Analyzer

	cancel context.CancelFunc
	done   chan struct{} // closed when the analyzer exits
}

// startPipeline starts reading endpoint and analyzing the buffer until ctx
// is cancelled or stop is called. onFrame may be nil.
func startPipeline(ctx context.Context, e *env, endpoint string, onFrame func(analysis.Frame)) *pipeline {
	ctx, cancel := context.WithCancel(ctx)
	cfg := e.cfg.Clone()

	buf := sample.NewBuffer(cfg.Capacity())
	an := analysis.New(cfg, buf, e.logger)
	if onFrame != nil {
		an.OnUpdate(onFrame)
	}
	loop := acquire.New(acquire.OptionsFromConfig(cfg, endpoint, e.opener(cfg), buf, e.logger))

	p := &pipeline{
		endpoint: endpoint,
		cfg:      cfg,
		buf:      buf,
		analyzer: an,
		cancel:   cancel,
		done:     make(chan struct{}),
		session:  loop.Start(ctx),
	}
	go func() {
		defer close(p.done)
		an.Run(ctx)
	}()
	return p
}

// stop ends the session, waiting up to timeout for the reader, then stops
// the analyzer. It returns the session's failure, if any. Safe to call twice.
func (p *pipeline) stop(timeout time.Duration) error {
	err := p.session.Stop(timeout)
	p.cancel()
	<-p.done
	return err
}
