// SPDX-License-Identifier: MIT
package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"spectrum/internal/audio"
	"spectrum/internal/config"
)

func testPickerModel(t *testing.T) DevicePickerModel {
	t.Helper()
	m := NewDevicePickerModel(config.NewConfig())

	// Simulate the normal startup message sequence.
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.Update(devicesMsg{devices: []audio.Device{
		{ID: 1, Name: "Microphone", MaxInputChannels: 1, DefaultSampleRate: 44100, IsDefaultInput: true},
		{ID: 2, Name: "Line In", MaxInputChannels: 2, DefaultSampleRate: 48000},
	}})
	return next.(DevicePickerModel)
}

func keyMsg(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg(tea.Key{Type: k})
}

func runeMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg(tea.Key{Type: tea.KeyRunes, Runes: []rune{r}})
}

func TestPickerNavigationBounds(t *testing.T) {
	m := testPickerModel(t)

	// Up at the top stays put.
	next, _ := m.Update(keyMsg(tea.KeyUp))
	m = next.(DevicePickerModel)
	if m.selectedIndex != 0 {
		t.Errorf("selectedIndex = %d after up at top", m.selectedIndex)
	}

	// Down walks the list and stops at the end.
	for range 5 {
		next, _ = m.Update(runeMsg('j'))
		m = next.(DevicePickerModel)
	}
	if m.selectedIndex != 1 {
		t.Errorf("selectedIndex = %d after walking past end, want 1", m.selectedIndex)
	}
}

func TestPickerSelectionFlow(t *testing.T) {
	m := testPickerModel(t)

	// Move to Line In and open its configuration.
	next, _ := m.Update(keyMsg(tea.KeyDown))
	m = next.(DevicePickerModel)
	next, _ = m.Update(keyMsg(tea.KeyEnter))
	m = next.(DevicePickerModel)
	if m.activeScreen != ConfigScreen {
		t.Fatal("enter did not open the config screen")
	}

	// The device default (48 kHz) is preselected.
	if got := m.availableSampleRates[m.sampleRateIndex]; got != 48000 {
		t.Errorf("preselected sample rate %.0f, want 48000", got)
	}

	// Switch to the mode field and pick legacy.
	next, _ = m.Update(keyMsg(tea.KeyTab))
	m = next.(DevicePickerModel)
	next, _ = m.Update(keyMsg(tea.KeyUp))
	m = next.(DevicePickerModel)

	// Confirm.
	next, _ = m.Update(keyMsg(tea.KeyEnter))
	m = next.(DevicePickerModel)

	sel := m.Selection()
	if !sel.Accepted {
		t.Fatal("selection not accepted after enter")
	}
	if sel.DeviceID != 2 {
		t.Errorf("selected device %d, want 2", sel.DeviceID)
	}
	if sel.SampleRate != 48000 {
		t.Errorf("selected sample rate %.0f, want 48000", sel.SampleRate)
	}
	if sel.Mode != config.ModeLegacy {
		t.Errorf("selected mode %q, want legacy", sel.Mode)
	}
}

func TestPickerEscReturnsToList(t *testing.T) {
	m := testPickerModel(t)

	next, _ := m.Update(keyMsg(tea.KeyEnter))
	m = next.(DevicePickerModel)
	next, _ = m.Update(keyMsg(tea.KeyEsc))
	m = next.(DevicePickerModel)

	if m.activeScreen != ListScreen {
		t.Error("esc did not return to the device list")
	}
	if m.Selection().Accepted {
		t.Error("selection accepted without confirmation")
	}
}

func TestPickerQuitWithoutSelection(t *testing.T) {
	m := testPickerModel(t)

	next, cmd := m.Update(runeMsg('q'))
	m = next.(DevicePickerModel)
	if cmd == nil {
		t.Fatal("q did not produce a quit command")
	}
	if m.Selection().Accepted {
		t.Error("selection accepted on quit")
	}
}
