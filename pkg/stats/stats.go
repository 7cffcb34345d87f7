// Package stats summarizes a sample snapshot for the operator.
package stats

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyInput is returned for a snapshot with no samples.
	ErrEmptyInput = errors.New("no data available for analysis")
	// ErrTooFewSamples is returned when the sample standard deviation is undefined.
	ErrTooFewSamples = errors.New("at least two samples are required")
)

// Summary holds descriptive statistics of a snapshot, in volts.
type Summary struct {
	Max    float64
	Min    float64
	Mean   float64
	StdDev float64 // Sample (n-1) standard deviation
	Count  int
}

// Summarize computes max, min, mean and sample standard deviation.
func Summarize(snapshot []float64) (Summary, error) {
	switch len(snapshot) {
	case 0:
		return Summary{}, ErrEmptyInput
	case 1:
		return Summary{}, fmt.Errorf("summarize 1 sample: %w", ErrTooFewSamples)
	}

	mean, std := stat.MeanStdDev(snapshot, nil)
	return Summary{
		Max:    floats.Max(snapshot),
		Min:    floats.Min(snapshot),
		Mean:   mean,
		StdDev: std,
		Count:  len(snapshot),
	}, nil
}

// String renders the four-line operator report.
func (s Summary) String() string {
	return fmt.Sprintf("Max Voltage: %.4f V\nMin Voltage: %.4f V\nMean Voltage: %.4f V\nStd Deviation: %.4f V",
		s.Max, s.Min, s.Mean, s.StdDev)
}
