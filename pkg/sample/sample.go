package sample

import (
	"github.com/itohio/mcuscope/pkg/config"
)

// Calibration is the linear transform from a raw ADC code to volts.
type Calibration struct {
	FullScale float64 // Raw code corresponding to VRef
	VRef      float64 // Reference voltage (V)
}

// DefaultCalibration matches a 12-bit ADC on a 3.3V reference.
var DefaultCalibration = Calibration{FullScale: 4095, VRef: 3.3}

// NewCalibration returns the calibration described by cfg.
func NewCalibration(cfg config.CalibrationConfig) Calibration {
	if cfg.FullScale <= 0 {
		return DefaultCalibration
	}
	return Calibration{FullScale: cfg.FullScale, VRef: cfg.VRef}
}

// Volts converts a raw code to voltage: raw / full_scale * vref.
func (c Calibration) Volts(raw int) float64 {
	return adcToVoltage(raw, c.FullScale, c.VRef)
}

// Code converts a voltage back to the nearest raw code, clamped to [0, FullScale].
// Used by the simulated device.
func (c Calibration) Code(v float64) int {
	code := (v / c.VRef) * c.FullScale
	if code < 0 {
		code = 0
	} else if code > c.FullScale {
		code = c.FullScale
	}
	return int(code + 0.5)
}

// VoltsAll converts a batch of raw codes, appending to dst.
func (c Calibration) VoltsAll(dst []float64, codes []int) []float64 {
	for _, code := range codes {
		dst = append(dst, c.Volts(code))
	}
	return dst
}

// adcToVoltage converts an ADC reading to voltage.
func adcToVoltage(adc int, fullScale, vref float64) float64 {
	return (float64(adc) / fullScale) * vref
}
