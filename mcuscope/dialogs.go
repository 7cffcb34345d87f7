package main

import (
	"errors"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/mcuscope/firmware"
	"github.com/itohio/mcuscope/pkg/export"
	"github.com/itohio/mcuscope/pkg/mcu"
	"github.com/itohio/mcuscope/pkg/stats"
)

// portOptions builds select entries for ports and maps each back to its name.
func portOptions(ports []mcu.Port, current string) (options []string, names map[string]string, selected string) {
	names = make(map[string]string)
	for _, port := range ports {
		display := port.Name
		if port.Description != "" && port.Description != port.Name {
			display = fmt.Sprintf("%s (%s)", port.Name, port.Description)
		}
		options = append(options, display)
		names[display] = port.Name
		if port.Name == current {
			selected = display
		}
	}

	// Keep a configured port that is not currently present
	if selected == "" && current != "" {
		options = append(options, current)
		names[current] = current
		selected = current
	}
	return options, names, selected
}

// showConnectionManager lets the user pick a port and connect to it.
func showConnectionManager(state *appState) {
	ports, err := mcu.Ports()
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to list serial ports: %w", err), state.window)
		return
	}

	current := state.env.cfg.Serial.Port
	if current == "" {
		if p, ok := mcu.Match(ports, mcu.KnownMarkers); ok {
			current = p.Name
		}
	}
	options, names, selected := portOptions(ports, current)

	portSelect := widget.NewSelect(options, nil)
	if selected != "" {
		portSelect.SetSelected(selected)
	}

	var d dialog.Dialog
	connectBtn := widget.NewButton("Connect", func() {
		name := names[portSelect.Selected]
		if name == "" {
			return
		}
		if state.pipeline != nil {
			disconnect(state)
		}
		state.env.cfg.Serial.Port = name
		d.Hide()
		connectTo(state, name)
	})

	content := container.NewHBox(widget.NewLabel("Select COM Port:"), portSelect, connectBtn)
	d = dialog.NewCustom("Serial Connection Manager", "Close", content, state.window)
	d.Show()
}

// showAnalysis shows summary statistics of the current buffer.
func showAnalysis(state *appState) {
	var snapshot []float64
	if state.last != nil {
		snapshot = state.last.buf.Snapshot()
	}

	summary, err := stats.Summarize(snapshot)
	switch {
	case errors.Is(err, stats.ErrEmptyInput):
		dialog.ShowInformation("Data Analysis", "No data available for analysis.", state.window)
	case err != nil:
		dialog.ShowInformation("Data Analysis", fmt.Sprintf("Not enough data for analysis: %v", err), state.window)
	default:
		dialog.ShowInformation("Data Analysis", summary.String(), state.window)
	}
}

// showSaveDialog exports the buffer and spectrum to a user-chosen file.
func showSaveDialog(state *appState) {
	if state.last == nil {
		dialog.ShowInformation("Save Data", "No data available to save.", state.window)
		return
	}
	p := state.last

	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		if w == nil {
			return
		}

		format := export.FormatFor(w.URI().Name())
		werr := export.Write(w, format, p.buf.Snapshot(), p.analyzer.Spectrum())
		if cerr := w.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			dialog.ShowError(fmt.Errorf("failed to save data: %w", werr), state.window)
			return
		}
		dialog.ShowInformation("Save Data", "Data saved successfully.", state.window)
	}, state.window)
	d.SetFileName("capture.csv")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".parquet"}))
	d.Show()
}

// showFirmware shows the reference sketch with copy and save actions.
func showFirmware(state *appState) {
	grid := widget.NewTextGridFromString(strings.TrimRight(firmware.Sketch(), "\n"))
	scroll := container.NewScroll(grid)
	scroll.SetMinSize(fyne.NewSize(640, 400))

	copyBtn := widget.NewButton("Copy", func() {
		state.window.Clipboard().SetContent(firmware.Sketch())
	})
	saveBtn := widget.NewButton("Save", func() {
		if err := firmware.Save(firmware.FileName); err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		dialog.ShowInformation("Firmware", fmt.Sprintf("Code saved to %s", firmware.FileName), state.window)
	})

	content := container.NewBorder(nil, container.NewHBox(copyBtn, saveBtn), nil, nil, scroll)
	dialog.NewCustom("Firmware Code", "Close", content, state.window).Show()
}
