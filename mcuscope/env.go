package main

import (
	"fmt"
	"time"

	"github.com/itohio/mcuscope/pkg/config"
	"github.com/itohio/mcuscope/pkg/logging"
	"github.com/itohio/mcuscope/pkg/mcu"
	"github.com/itohio/mcuscope/pkg/sample"
	"go.uber.org/zap"
)

// MockEndpoint names the simulated device.
const MockEndpoint = "mock"

// stopTimeout bounds how long shutdown waits for the reader to exit.
const stopTimeout = 2 * time.Second

// env is the state shared by all commands.
type env struct {
	cfg     *config.Config
	cfgFile string
	logger  *zap.Logger
	useMock bool
}

// setup loads the configuration, applies flag overrides and builds the logger.
func setup() (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if portFlag != "" {
		cfg.Serial.Port = portFlag
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, err
	}
	return newEnv(cfg, cfgFile, logger, mockFlag), nil
}

func newEnv(cfg *config.Config, cfgFile string, logger *zap.Logger, useMock bool) *env {
	return &env{
		cfg:     cfg,
		cfgFile: cfgFile,
		logger:  logging.OrNop(logger),
		useMock: useMock,
	}
}

// opener returns the device opener for a session configured by cfg: a fresh
// simulated device or the serial port.
func (e *env) opener(cfg *config.Config) mcu.Opener {
	if e.useMock {
		return mcu.NewMock(&cfg.Mock, sample.NewCalibration(cfg.Calibration)).Open
	}
	return mcu.OpenSerial
}

// endpoint returns the configured port, falling back to auto-detection.
func (e *env) endpoint() (string, error) {
	if e.useMock {
		return MockEndpoint, nil
	}
	if e.cfg.Serial.Port != "" {
		return e.cfg.Serial.Port, nil
	}

	p, err := mcu.Locate()
	if err != nil {
		e.logger.Error("[mcuscope] device not found", zap.Error(err))
		return "", fmt.Errorf("locate device: %w", err)
	}
	e.logger.Info("[mcuscope] auto-detected device",
		zap.String("port", p.Name),
		zap.String("description", p.Description),
	)
	return p.Name, nil
}
