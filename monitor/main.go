package main

import (
	"flag"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/softrobo/musclerig/pkg/config"
	"github.com/softrobo/musclerig/pkg/device"
	"github.com/softrobo/musclerig/pkg/scope"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	application := app.NewWithID("com.softrobo.musclerig")

	window := application.NewWindow("Muscle Rig Monitor")
	window.Resize(fyne.NewSize(1000, 600))
	window.CenterOnScreen()

	scopeWidget := scope.New()

	state := &appState{
		cfg:         cfg,
		configPath:  *configFlag,
		window:      window,
		scopeWidget: scopeWidget,
		useMock:     *mockFlag,
	}

	state.statusLabel = widget.NewLabel("Disconnected")

	content := container.NewBorder(
		createToolbar(state),
		state.statusLabel,
		nil,
		nil,
		scopeWidget,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		state.disconnect()
	})
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string

	device      device.Device
	pumpDone    chan struct{}
	window      fyne.Window
	scopeWidget *scope.ScopeWidget
	statusLabel *widget.Label
	connectBtn  *widget.Button
	useMock     bool
}

// createToolbar creates the toolbar with Connect and Settings buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn),
		nil,
		nil,
	)
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		state.disconnect()
		state.statusLabel.SetText("Disconnected")
		return
	}

	var dev device.Device
	if state.useMock {
		dev = device.NewMock(state.cfg)
	} else {
		dev = device.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, device.DefaultBufferSize)
	}

	if err := dev.Connect(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		return
	}
	state.device = dev

	if state.useMock {
		state.statusLabel.SetText("Connected (mock)")
	} else {
		state.statusLabel.SetText(fmt.Sprintf("Connected to %s, waiting for rig handshake", state.cfg.Serial.Port))
	}

	// Pump readings into the scope widget on the UI thread.
	done := make(chan struct{})
	state.pumpDone = done
	go func() {
		defer close(done)
		for reading := range dev.Readings() {
			r := reading
			fyne.Do(func() {
				state.scopeWidget.Append(r)
				state.statusLabel.SetText(fmt.Sprintf(
					"force %.2f N | distance %.2f mm | pressure %.3f MPa",
					r.Force, r.Distance, r.Pressure,
				))
			})
		}
	}()
}

// disconnect closes the device and waits for the reading pump to drain.
func (state *appState) disconnect() {
	if state.device == nil {
		return
	}
	if err := state.device.Close(); err != nil {
		log.Printf("Error closing device: %v", err)
	}
	if state.pumpDone != nil {
		<-state.pumpDone
		state.pumpDone = nil
	}
	state.device = nil
}
