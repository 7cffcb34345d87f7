package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 0, cfg.Serial.RetryCount)
	assert.Equal(t, float64(1000), cfg.Sampling.Rate)
	assert.Equal(t, 0.5, cfg.Sampling.DisplaySeconds)
	assert.Equal(t, float64(4095), cfg.Calibration.FullScale)
	assert.Equal(t, 3.3, cfg.Calibration.VRef)
	assert.Equal(t, 500, cfg.Analysis.MinSamples)
	assert.Equal(t, 400, cfg.Analysis.SpectrumThreshold)
	assert.Equal(t, 100, cfg.Analysis.WarmupSamples)
	assert.Equal(t, 100, cfg.Analysis.WindowSize)
	assert.Equal(t, 5, cfg.Analysis.PeakMinBin)
	assert.Equal(t, 30, cfg.Analysis.PeakMaxBin)
	assert.Equal(t, 200*time.Millisecond, cfg.Analysis.IdleInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		seconds float64
		want    int
	}{
		{"defaults", 1000, 0.5, 500},
		{"two seconds", 1000, 2, 2000},
		{"fractional truncates", 333, 0.5, 166},
		{"clamped to one", 1, 0.1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Sampling.Rate = tt.rate
			cfg.Sampling.DisplaySeconds = tt.seconds
			assert.Equal(t, tt.want, cfg.Capacity())
		})
	}
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 500, cfg.Capacity())
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB0"
  baud_rate: 230400
  retry_count: 3
  retry_delay: 250ms

sampling:
  rate: 2000
  display_seconds: 1

calibration:
  full_scale: 1023
  vref: 5.0

analysis:
  interval: 10ms
  idle_interval: 100ms
  min_samples: 800
  spectrum_threshold: 600
  warmup_samples: 50
  window_size: 256
  peak_min_bin: 2
  peak_max_bin: 64
  display_offset_bins: 1

logging:
  level: debug
  file: mcuscope.log
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 230400, cfg.Serial.BaudRate)
	assert.Equal(t, 3, cfg.Serial.RetryCount)
	assert.Equal(t, 250*time.Millisecond, cfg.Serial.RetryDelay)
	assert.Equal(t, 2000, cfg.Capacity())
	assert.Equal(t, float64(1023), cfg.Calibration.FullScale)
	assert.Equal(t, 5.0, cfg.Calibration.VRef)
	assert.Equal(t, 10*time.Millisecond, cfg.Analysis.Interval)
	assert.Equal(t, 100*time.Millisecond, cfg.Analysis.IdleInterval)
	assert.Equal(t, 800, cfg.Analysis.MinSamples)
	assert.Equal(t, 600, cfg.Analysis.SpectrumThreshold)
	assert.Equal(t, 50, cfg.Analysis.WarmupSamples)
	assert.Equal(t, 256, cfg.Analysis.WindowSize)
	assert.Equal(t, 2, cfg.Analysis.PeakMinBin)
	assert.Equal(t, 64, cfg.Analysis.PeakMaxBin)
	assert.Equal(t, 1, cfg.Analysis.DisplayOffsetBins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "mcuscope.log", cfg.Logging.File)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "COM7"
analysis:
  window_size: 0
  peak_max_bin: 1
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing or invalid fields
	assert.Equal(t, "COM7", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 100, cfg.Analysis.WindowSize)
	assert.Equal(t, 30, cfg.Analysis.PeakMaxBin)
	assert.Equal(t, 3.3, cfg.Calibration.VRef)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyACM0"
	cfg.Sampling.DisplaySeconds = 2

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", loaded.Serial.Port)
	assert.Equal(t, float64(2), loaded.Sampling.DisplaySeconds)
	assert.Equal(t, 2000, loaded.Capacity())
}

func TestNormalize(t *testing.T) {
	cfg := Default()
	cfg.Analysis.WindowSize = 0
	cfg.Analysis.WarmupSamples = -5
	cfg.Sampling.Rate = -1
	cfg.Serial.RetryCount = -2

	cfg.Normalize()

	assert.Equal(t, 100, cfg.Analysis.WindowSize)
	assert.Equal(t, 0, cfg.Analysis.WarmupSamples)
	assert.Equal(t, 1000.0, cfg.Sampling.Rate)
	assert.Equal(t, 0, cfg.Serial.RetryCount)
}

func TestClone(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"

	cp := cfg.Clone()
	require.NotSame(t, cfg, cp)
	assert.Equal(t, cfg, cp)

	cp.Mock.Frequency = 120
	cp.Sampling.Rate = 2000
	assert.Equal(t, 50.0, cfg.Mock.Frequency)
	assert.Equal(t, 1000.0, cfg.Sampling.Rate)
}
