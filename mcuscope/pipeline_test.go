package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/itohio/mcuscope/pkg/analysis"
	"github.com/itohio/mcuscope/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Default()
	cfg.Mock.NoiseLevel = 0
	cfg.Analysis.Interval = 5 * time.Millisecond
	cfg.Analysis.IdleInterval = 5 * time.Millisecond
	return newEnv(cfg, filepath.Join(t.TempDir(), "config.yaml"), nil, true)
}

func TestEnv_Endpoint(t *testing.T) {
	e := testEnv(t)
	endpoint, err := e.endpoint()
	require.NoError(t, err)
	assert.Equal(t, MockEndpoint, endpoint)
	assert.NotNil(t, e.opener(e.cfg))

	e.useMock = false
	e.cfg.Serial.Port = "/dev/ttyUSB7"
	endpoint, err = e.endpoint()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB7", endpoint)
}

func TestStartPipeline_Mock(t *testing.T) {
	e := testEnv(t)
	frames := make(chan analysis.Frame, 64)
	p := startPipeline(context.Background(), e, MockEndpoint, func(f analysis.Frame) {
		select {
		case frames <- f:
		default:
		}
	})

	var got analysis.Frame
	deadline := time.After(5 * time.Second)
	for !got.HasPeak {
		select {
		case got = <-frames:
		case <-deadline:
			p.stop(time.Second)
			t.Fatal("no frame with a dominant bin")
		}
	}

	// 50 Hz at 1 kHz over a 100 sample window
	assert.Equal(t, 5, got.PeakBin)
	assert.InDelta(t, 50.0, got.PeakHz, 1e-9)
	assert.Len(t, got.Spectrum, e.cfg.Analysis.WindowSize)

	require.NoError(t, p.stop(time.Second))
	require.NoError(t, p.stop(time.Second))
	assert.Equal(t, e.cfg.Capacity(), p.buf.Len())
	assert.NotEmpty(t, p.analyzer.Spectrum())
}

func TestStartPipeline_OpenFailure(t *testing.T) {
	e := testEnv(t)
	e.useMock = false

	p := startPipeline(context.Background(), e, "/dev/does-not-exist-mcuscope", nil)
	select {
	case <-p.session.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session should end when the port cannot be opened")
	}

	err := p.stop(time.Second)
	assert.Error(t, err)
	assert.Equal(t, 0, p.buf.Len())
}

func TestStartPipeline_ConfigSnapshot(t *testing.T) {
	e := testEnv(t)
	p := startPipeline(context.Background(), e, MockEndpoint, nil)
	defer p.stop(time.Second)

	require.NotSame(t, e.cfg, p.cfg)

	// Settings edits while streaming only reach the next pipeline
	e.cfg.Mock.Frequency = 120
	e.cfg.Sampling.Rate = 2000
	assert.Equal(t, 50.0, p.cfg.Mock.Frequency)
	assert.Equal(t, 1000.0, p.cfg.Sampling.Rate)

	require.Eventually(t, func() bool {
		f := p.analyzer.Latest()
		return f.HasPeak && f.HasSpectrum
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, p.analyzer.Latest().PeakBin)
}
