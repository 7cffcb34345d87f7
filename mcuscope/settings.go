package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// field binds one form entry to a config value.
type field struct {
	label   string
	initial string
	apply   func(text string) error
}

func floatField(label string, v *float64) field {
	return field{
		label:   label,
		initial: strconv.FormatFloat(*v, 'f', -1, 64),
		apply: func(text string) error {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
			*v = f
			return nil
		},
	}
}

func intField(label string, v *int) field {
	return field{
		label:   label,
		initial: strconv.Itoa(*v),
		apply: func(text string) error {
			n, err := strconv.Atoi(text)
			if err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
			*v = n
			return nil
		},
	}
}

func durationField(label string, v *time.Duration) field {
	return field{
		label:   label,
		initial: v.String(),
		apply: func(text string) error {
			d, err := time.ParseDuration(text)
			if err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
			*v = d
			return nil
		},
	}
}

// applyFields applies every parsable value and reports the rest.
func applyFields(fields []field, texts []string) error {
	var errs []error
	for i, f := range fields {
		if err := f.apply(texts[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
// Changes are saved to the config file and take effect on the next connection.
func showSettingsDialog(state *appState) {
	cfg := state.env.cfg

	tabs := container.NewAppTabs(
		createTab(state, "Serial", []field{
			intField("Baud Rate", &cfg.Serial.BaudRate),
			intField("Retry Count (0=never)", &cfg.Serial.RetryCount),
			durationField("Retry Delay", &cfg.Serial.RetryDelay),
		}),
		createTab(state, "Sampling", []field{
			floatField("Sample Rate (Hz)", &cfg.Sampling.Rate),
			floatField("Display Window (s)", &cfg.Sampling.DisplaySeconds),
			floatField("ADC Full Scale", &cfg.Calibration.FullScale),
			floatField("VRef (V)", &cfg.Calibration.VRef),
		}),
		createTab(state, "Analysis", []field{
			durationField("Interval", &cfg.Analysis.Interval),
			intField("Min Samples", &cfg.Analysis.MinSamples),
			intField("Spectrum Threshold", &cfg.Analysis.SpectrumThreshold),
			intField("Warm-up Samples", &cfg.Analysis.WarmupSamples),
			intField("FFT Window", &cfg.Analysis.WindowSize),
			intField("Peak Min Bin", &cfg.Analysis.PeakMinBin),
			intField("Peak Max Bin", &cfg.Analysis.PeakMaxBin),
			intField("Hidden DC Bins", &cfg.Analysis.DisplayOffsetBins),
		}),
		createTab(state, "Mock", []field{
			floatField("Frequency (Hz)", &cfg.Mock.Frequency),
			floatField("Amplitude (V)", &cfg.Mock.Amplitude),
			floatField("Offset (V)", &cfg.Mock.Offset),
			floatField("Noise Level (V)", &cfg.Mock.NoiseLevel),
			floatField("Sample Rate (Hz)", &cfg.Mock.SampleRate),
			intField("Debug Line Every (0=never)", &cfg.Mock.DebugEvery),
		}),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// createTab creates a form tab whose submit applies fields and saves the config.
func createTab(state *appState, title string, fields []field) *container.TabItem {
	entries := make([]*widget.Entry, len(fields))
	items := make([]*widget.FormItem, len(fields))
	for i, f := range fields {
		entries[i] = widget.NewEntry()
		entries[i].SetText(f.initial)
		items[i] = &widget.FormItem{Text: f.label, Widget: entries[i]}
	}

	form := &widget.Form{
		Items: items,
		OnSubmit: func() {
			texts := make([]string, len(entries))
			for i, e := range entries {
				texts[i] = e.Text
			}
			if err := applyFields(fields, texts); err != nil {
				dialog.ShowError(err, state.window)
			}
			state.env.cfg.Normalize()
			if err := state.env.cfg.Save(state.env.cfgFile); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}
	return container.NewTabItem(title, form)
}
