package main

import (
	"context"
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/mcuscope/pkg/analysis"
	"github.com/itohio/mcuscope/pkg/mcu"
	"github.com/itohio/mcuscope/pkg/scope"
	"go.uber.org/zap"
)

// appState holds the application state. Fields are only touched on the Fyne main thread.
type appState struct {
	env         *env
	window      fyne.Window
	scopeWidget *scope.ScopeWidget
	status      *widget.Label
	connectBtn  *widget.Button

	// Current pipeline (nil if not connected)
	pipeline *pipeline
	// Last pipeline, kept after disconnect for analysis and export
	last *pipeline

	throttle *throttle
}

func runGUI(e *env) {
	application := app.NewWithID("com.itohio.mcuscope")

	window := application.NewWindow("MCU Oscilloscope - Ready")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		env:         e,
		window:      window,
		scopeWidget: scope.New(e.cfg),
		status:      widget.NewLabel("Ready"),
		throttle:    newThrottle(frameInterval),
	}

	content := container.NewBorder(
		createToolbar(state),
		state.status,
		nil,
		nil,
		state.scopeWidget,
	)
	window.SetContent(content)

	// Connect right away like a bench scope
	handleConnect(state)

	window.ShowAndRun()

	if state.pipeline != nil {
		if err := state.pipeline.stop(stopTimeout); err != nil {
			e.logger.Warn("[gui] shutdown", zap.Error(err))
		}
	}
}

// createToolbar creates the application toolbar.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	portsBtn := widget.NewButtonWithIcon("", theme.ComputerIcon(), func() {
		showConnectionManager(state)
	})
	analyzeBtn := widget.NewButtonWithIcon("", theme.SearchIcon(), func() {
		showAnalysis(state)
	})
	saveBtn := widget.NewButtonWithIcon("", theme.DocumentSaveIcon(), func() {
		showSaveDialog(state)
	})
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})
	firmwareBtn := widget.NewButtonWithIcon("", theme.FileIcon(), func() {
		showFirmware(state)
	})
	aboutBtn := widget.NewButtonWithIcon("", theme.InfoIcon(), func() {
		dialog.ShowInformation("About", "This GUI app is a simple oscilloscope for MCU.", state.window)
	})

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, portsBtn, analyzeBtn, saveBtn),
		container.NewHBox(settingsBtn, firmwareBtn, aboutBtn),
		nil,
	)
}

func setStatus(state *appState, text string) {
	state.status.SetText(text)
	state.window.SetTitle("MCU Oscilloscope - " + text)
}

// handleConnect toggles the connection using the configured or auto-detected port.
func handleConnect(state *appState) {
	if state.pipeline != nil {
		disconnect(state)
		return
	}

	endpoint, err := state.env.endpoint()
	if err != nil {
		setStatus(state, "Error: device not found!")
		if errors.Is(err, mcu.ErrNotFound) {
			err = errors.New("device not found. Please connect the device and try again")
		}
		dialog.ShowError(err, state.window)
		return
	}
	connectTo(state, endpoint)
}

// connectTo starts a pipeline on endpoint and routes its frames to the scope.
func connectTo(state *appState, endpoint string) {
	setStatus(state, fmt.Sprintf("Connecting to %s...", endpoint))
	state.scopeWidget.Clear()

	p := startPipeline(context.Background(), state.env, endpoint, func(f analysis.Frame) {
		if !state.throttle.allow(f.At) {
			return
		}
		fyne.Do(func() {
			state.scopeWidget.UpdateFrame(f)
		})
	})
	state.scopeWidget.Configure(p.cfg)
	state.pipeline = p
	state.last = p
	state.connectBtn.SetIcon(theme.LogoutIcon())
	setStatus(state, fmt.Sprintf("Connected on %s", endpoint))

	// Surface a failed session to the user.
	go func() {
		<-p.session.Done()
		err := p.session.Err()
		if err == nil {
			return
		}
		p.stop(stopTimeout)
		fyne.Do(func() {
			if state.pipeline != p {
				return
			}
			state.pipeline = nil
			state.connectBtn.SetIcon(theme.LoginIcon())
			setStatus(state, fmt.Sprintf("Error: %s disconnected", endpoint))
			dialog.ShowError(fmt.Errorf("connection to %s failed: %w", endpoint, err), state.window)
		})
	}()
}

func disconnect(state *appState) {
	p := state.pipeline
	state.pipeline = nil
	state.connectBtn.SetIcon(theme.LoginIcon())

	if err := p.stop(stopTimeout); err != nil {
		state.env.logger.Warn("[gui] disconnect", zap.String("port", p.endpoint), zap.Error(err))
	}
	setStatus(state, fmt.Sprintf("Disconnected from %s", p.endpoint))
}
