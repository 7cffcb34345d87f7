// Package firmware carries the reference device sketch. The sketch prints
// "ADC initialized" once, then one decimal 12-bit reading per line at
// 1 kHz and 115200 baud.
package firmware

import (
	_ "embed"
	"fmt"
	"os"
)

// FileName is the default name used when saving the sketch.
const FileName = "esp32_adc.ino"

//go:embed esp32_adc.ino
var sketch string

// Sketch returns the reference firmware source.
func Sketch() string {
	return sketch
}

// Save writes the sketch to path.
func Save(path string) error {
	if err := os.WriteFile(path, []byte(sketch), 0644); err != nil {
		return fmt.Errorf("failed to save firmware: %w", err)
	}
	return nil
}
