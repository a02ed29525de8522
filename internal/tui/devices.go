// SPDX-License-Identifier: MIT
// Package tui implements the interactive device picker: a list of host
// audio devices and a per-device configuration screen for the capture
// sample rate and visualization mode. The picked values are written back
// into the shared configuration before the pipeline starts.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"spectrum/internal/audio"
	"spectrum/internal/config"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)
)

// ScreenType selects which picker screen is active.
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Selection is the picker outcome applied to the configuration.
type Selection struct {
	DeviceID   int
	SampleRate float64
	Mode       string
	Accepted   bool
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// DevicePickerModel is the Bubble Tea model for the device picker.
type DevicePickerModel struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	availableSampleRates []float64
	sampleRateIndex      int
	modes                []string
	modeIndex            int
	configRow            int // 0 = sample rate, 1 = mode

	selection Selection
}

// NewDevicePickerModel creates the picker with the current configuration
// as the preselected state.
func NewDevicePickerModel(cfg *config.Config) DevicePickerModel {
	m := DevicePickerModel{
		activeScreen:         ListScreen,
		availableSampleRates: []float64{44100, 48000, 88200, 96000},
		modes:                []string{config.ModeLegacy, config.ModeModern},
	}
	if cfg.Viz.Mode == config.ModeModern {
		m.modeIndex = 1
	}
	for i, rate := range m.availableSampleRates {
		if rate == cfg.Audio.SampleRate {
			m.sampleRateIndex = i
			break
		}
	}
	return m
}

// Selection returns the outcome after the program finishes. Accepted is
// false when the user quit without confirming.
func (m DevicePickerModel) Selection() Selection {
	return m.selection
}

func (m DevicePickerModel) Init() tea.Cmd {
	return fetchDevices
}

func fetchDevices() tea.Msg {
	devices, err := audio.HostDevices()
	if err != nil {
		return errMsg{err}
	}
	// Only input-capable devices are selectable for capture.
	inputs := make([]audio.Device, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	return devicesMsg{inputs}
}

func (m DevicePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
			if len(m.devices) > 0 {
				m.viewport.SetContent(m.renderDevices())
			}
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case devicesMsg:
		m.devices = msg.devices
		if m.ready {
			m.viewport.SetContent(m.renderDevices())
		}

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))) {
			return m, tea.Quit
		}

		if m.activeScreen == ListScreen {
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				if m.selectedIndex > 0 {
					m.selectedIndex--
					m.viewport.SetContent(m.renderDevices())
				}

			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
					m.viewport.SetContent(m.renderDevices())
				}

			case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
				if len(m.devices) > 0 {
					m.activeScreen = ConfigScreen
					m.preselectSampleRate()
					m.viewport.SetContent(m.renderDeviceConfig())
				}
			}
		} else {
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
				m.activeScreen = ListScreen
				m.viewport.SetContent(m.renderDevices())

			case key.Matches(msg, key.NewBinding(key.WithKeys("tab"))):
				m.configRow = (m.configRow + 1) % 2
				m.viewport.SetContent(m.renderDeviceConfig())

			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				m.moveConfigCursor(-1)
				m.viewport.SetContent(m.renderDeviceConfig())

			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				m.moveConfigCursor(1)
				m.viewport.SetContent(m.renderDeviceConfig())

			case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
				m.selection = Selection{
					DeviceID:   m.devices[m.selectedIndex].ID,
					SampleRate: m.availableSampleRates[m.sampleRateIndex],
					Mode:       m.modes[m.modeIndex],
					Accepted:   true,
				}
				return m, tea.Quit
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// preselectSampleRate aligns the sample rate cursor with the selected
// device's default when it is one of the offered rates.
func (m *DevicePickerModel) preselectSampleRate() {
	def := m.devices[m.selectedIndex].DefaultSampleRate
	for i, rate := range m.availableSampleRates {
		if rate == def {
			m.sampleRateIndex = i
			return
		}
	}
}

func (m *DevicePickerModel) moveConfigCursor(delta int) {
	if m.configRow == 0 {
		next := m.sampleRateIndex + delta
		if next >= 0 && next < len(m.availableSampleRates) {
			m.sampleRateIndex = next
		}
	} else {
		next := m.modeIndex + delta
		if next >= 0 && next < len(m.modes) {
			m.modeIndex = next
		}
	}
}

func (m DevicePickerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Input Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	} else {
		title = titleStyle.Render("Capture Settings")
		help = infoStyle.Render("↑/↓: Change • Tab: Next field • Enter: Start • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DevicePickerModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		marker := ""
		if device.IsDefaultInput {
			marker = " (default)"
		}

		info := fmt.Sprintf("[%d] %s%s\n", device.ID, device.Name, marker)
		info += fmt.Sprintf("    Input channels: %d\n", device.MaxInputChannels)
		info += fmt.Sprintf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)

		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DevicePickerModel) renderDeviceConfig() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	sb.WriteString(fmt.Sprintf("Configure capture: %s\n\n", device.Name))

	sb.WriteString(m.fieldHeader("Sample rate", 0))
	for i, rate := range m.availableSampleRates {
		sb.WriteString(m.optionLine(fmt.Sprintf("%.0f Hz", rate),
			m.configRow == 0 && i == m.sampleRateIndex, i == m.sampleRateIndex))
	}
	sb.WriteString("\n")

	sb.WriteString(m.fieldHeader("Visualization mode", 1))
	for i, mode := range m.modes {
		sb.WriteString(m.optionLine(mode,
			m.configRow == 1 && i == m.modeIndex, i == m.modeIndex))
	}

	return sb.String()
}

func (m DevicePickerModel) fieldHeader(name string, row int) string {
	if m.configRow == row {
		return highlightStyle.Render(name+":") + "\n"
	}
	return name + ":\n"
}

func (m DevicePickerModel) optionLine(label string, active, selected bool) string {
	cursor := " "
	if selected {
		cursor = "▶"
	}
	line := fmt.Sprintf("  %s %s\n", cursor, label)
	if active {
		line = highlightStyle.Render(line)
	}
	return line
}

// RunDevicePicker launches the picker and applies an accepted selection to
// cfg. Returns true when the user confirmed a device.
func RunDevicePicker(cfg *config.Config) (bool, error) {
	p := tea.NewProgram(
		NewDevicePickerModel(cfg),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return false, err
	}

	model, ok := final.(DevicePickerModel)
	if !ok {
		return false, fmt.Errorf("unexpected model type %T", final)
	}
	sel := model.Selection()
	if !sel.Accepted {
		return false, nil
	}

	cfg.Audio.Device = sel.DeviceID
	cfg.Audio.SampleRate = sel.SampleRate
	cfg.Viz.Mode = sel.Mode
	return true, nil
}
