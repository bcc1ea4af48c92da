package main

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// showSettingsDialog shows the settings dialog with serial and mock
// parameters. Saving writes the configuration file so the logger and bridge
// pick up the same values.
func showSettingsDialog(state *appState) {
	portEntry := widget.NewEntry()
	portEntry.SetText(state.cfg.Serial.Port)

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	mockForceEntry := widget.NewEntry()
	mockForceEntry.SetText(fmt.Sprintf("%g", state.cfg.Mock.ForceN))

	mockDistanceEntry := widget.NewEntry()
	mockDistanceEntry.SetText(fmt.Sprintf("%g", state.cfg.Mock.DistanceMM))

	items := []*widget.FormItem{
		widget.NewFormItem("Serial port", portEntry),
		widget.NewFormItem("Baud rate", baudEntry),
		widget.NewFormItem("Mock force (N)", mockForceEntry),
		widget.NewFormItem("Mock distance (mm)", mockDistanceEntry),
	}

	dialog.ShowForm("Settings", "Save", "Cancel", items, func(save bool) {
		if !save {
			return
		}

		baud, err := strconv.Atoi(baudEntry.Text)
		if err != nil || baud <= 0 {
			dialog.ShowError(fmt.Errorf("invalid baud rate: %s", baudEntry.Text), state.window)
			return
		}
		mockForce, err := strconv.ParseFloat(mockForceEntry.Text, 64)
		if err != nil {
			dialog.ShowError(fmt.Errorf("invalid mock force: %s", mockForceEntry.Text), state.window)
			return
		}
		mockDistance, err := strconv.ParseFloat(mockDistanceEntry.Text, 64)
		if err != nil {
			dialog.ShowError(fmt.Errorf("invalid mock distance: %s", mockDistanceEntry.Text), state.window)
			return
		}

		state.cfg.Serial.Port = portEntry.Text
		state.cfg.Serial.BaudRate = baud
		state.cfg.Mock.ForceN = mockForce
		state.cfg.Mock.DistanceMM = mockDistance

		if err := state.cfg.Save(state.configPath); err != nil {
			dialog.ShowError(fmt.Errorf("failed to save configuration: %w", err), state.window)
		}
	}, state.window)
}
