package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Sampling    SamplingConfig    `yaml:"sampling"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Logging     LoggingConfig     `yaml:"logging"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port       string        `yaml:"port"`        // Empty means auto-detect
	BaudRate   int           `yaml:"baud_rate"`   // Bit rate, 8-N-1 framing
	RetryCount int           `yaml:"retry_count"` // Reopen attempts after a connection failure (0 = never)
	RetryDelay time.Duration `yaml:"retry_delay"` // Delay between reopen attempts
	ReadBuffer int           `yaml:"read_buffer"` // Bytes requested per read
}

// SamplingConfig describes the nominal sample rate and the rolling display window.
type SamplingConfig struct {
	Rate           float64 `yaml:"rate"`            // Samples per second (nominal)
	DisplaySeconds float64 `yaml:"display_seconds"` // Time span kept in the sample buffer
}

// CalibrationConfig contains the linear ADC transform.
type CalibrationConfig struct {
	FullScale float64 `yaml:"full_scale"` // Raw code at reference voltage
	VRef      float64 `yaml:"vref"`       // Reference voltage (V)
}

// AnalysisConfig contains the periodic spectral analysis parameters.
type AnalysisConfig struct {
	Interval          time.Duration `yaml:"interval"`            // Cadence once enough samples are buffered
	IdleInterval      time.Duration `yaml:"idle_interval"`       // Cadence while waiting for samples
	MinSamples        int           `yaml:"min_samples"`         // Buffered samples required before any work is done
	SpectrumThreshold int           `yaml:"spectrum_threshold"`  // Snapshot length above which the spectrum is computed
	WarmupSamples     int           `yaml:"warmup_samples"`      // Oldest samples dropped from the display trace
	WindowSize        int           `yaml:"window_size"`         // FFT window (newest samples)
	PeakMinBin        int           `yaml:"peak_min_bin"`        // First bin searched for the dominant peak
	PeakMaxBin        int           `yaml:"peak_max_bin"`        // Bin past the last one searched
	DisplayOffsetBins int           `yaml:"display_offset_bins"` // Near-DC bins hidden from the spectrum plot
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Optional JSON log file
}

// MockConfig contains simulated device configuration.
type MockConfig struct {
	Frequency  float64 `yaml:"frequency"`   // Sinusoid frequency (Hz)
	Amplitude  float64 `yaml:"amplitude"`   // Peak amplitude (V)
	Offset     float64 `yaml:"offset"`      // DC offset (V)
	NoiseLevel float64 `yaml:"noise_level"` // Noise amplitude (V)
	SampleRate float64 `yaml:"sample_rate"` // Samples per second
	DebugEvery int     `yaml:"debug_every"` // Emit a debug text line every N samples (0 = never)
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:       "",
			BaudRate:   115200,
			RetryCount: 0,
			RetryDelay: time.Second,
			ReadBuffer: 4096,
		},
		Sampling: SamplingConfig{
			Rate:           1000,
			DisplaySeconds: 0.5,
		},
		Calibration: CalibrationConfig{
			FullScale: 4095,
			VRef:      3.3,
		},
		Analysis: AnalysisConfig{
			Interval:          20 * time.Millisecond,
			IdleInterval:      200 * time.Millisecond,
			MinSamples:        500,
			SpectrumThreshold: 400,
			WarmupSamples:     100,
			WindowSize:        100,
			PeakMinBin:        5,
			PeakMaxBin:        30,
			DisplayOffsetBins: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Mock: MockConfig{
			Frequency:  50,
			Amplitude:  1.0,
			Offset:     1.65,
			NoiseLevel: 0.01,
			SampleRate: 1000,
			DebugEvery: 0,
		},
	}
}

// Capacity returns the sample buffer capacity: rate * display window.
func (c *Config) Capacity() int {
	n := int(c.Sampling.Rate * c.Sampling.DisplaySeconds)
	if n < 1 {
		return 1
	}
	return n
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Clone returns an independent copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Normalize replaces missing or out-of-range values with defaults.
func (c *Config) Normalize() {
	c.ensureDefaults()
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.BaudRate <= 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.RetryCount < 0 {
		c.Serial.RetryCount = 0
	}
	if c.Serial.RetryDelay <= 0 {
		c.Serial.RetryDelay = def.Serial.RetryDelay
	}
	if c.Serial.ReadBuffer <= 0 {
		c.Serial.ReadBuffer = def.Serial.ReadBuffer
	}

	if c.Sampling.Rate <= 0 {
		c.Sampling.Rate = def.Sampling.Rate
	}
	if c.Sampling.DisplaySeconds <= 0 {
		c.Sampling.DisplaySeconds = def.Sampling.DisplaySeconds
	}

	if c.Calibration.FullScale <= 0 {
		c.Calibration.FullScale = def.Calibration.FullScale
	}
	if c.Calibration.VRef == 0 {
		c.Calibration.VRef = def.Calibration.VRef
	}

	a, d := &c.Analysis, def.Analysis
	if a.Interval <= 0 {
		a.Interval = d.Interval
	}
	if a.IdleInterval <= 0 {
		a.IdleInterval = d.IdleInterval
	}
	if a.MinSamples <= 0 {
		a.MinSamples = d.MinSamples
	}
	if a.SpectrumThreshold <= 0 {
		a.SpectrumThreshold = d.SpectrumThreshold
	}
	if a.WarmupSamples < 0 {
		a.WarmupSamples = 0
	}
	if a.WindowSize <= 0 {
		a.WindowSize = d.WindowSize
	}
	if a.PeakMinBin <= 0 {
		a.PeakMinBin = d.PeakMinBin
	}
	if a.PeakMaxBin <= a.PeakMinBin {
		a.PeakMaxBin = d.PeakMaxBin
	}
	if a.DisplayOffsetBins < 0 {
		a.DisplayOffsetBins = 0
	}

	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}

	if c.Mock.SampleRate <= 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.Frequency <= 0 {
		c.Mock.Frequency = def.Mock.Frequency
	}
}
