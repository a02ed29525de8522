// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"spectrum/internal/config"
)

// PortAudio entry points, indirected so device logic can be tested without
// an audio subsystem.
var (
	paLibInitialize   = portaudio.Initialize
	paLibTerminate    = portaudio.Terminate
	paLibDevices      = portaudio.Devices
	paLibDefaultInput = portaudio.DefaultInputDevice
)

// Initialize sets up the PortAudio subsystem. Must be called before any
// audio operations and paired with a Terminate call.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem. Defer this
// immediately after Initialize.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// Device is a host audio device summary, detached from PortAudio so device
// pickers and list output need no live handle.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefaultInput    bool
}

// HostDevices returns summaries of every host audio device, in host order.
func HostDevices() ([]Device, error) {
	infos, err := paLibDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	defaultInput, _ := paLibDefaultInput()

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			IsDefaultInput:    defaultInput != nil && info == defaultInput,
		}
	}
	return devices, nil
}

// InputDevice retrieves the audio input device for the given device ID.
// MinDeviceID (-1) selects the system default input device.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == config.MinDeviceID {
		device, err := paLibDefaultInput()
		if err != nil {
			return nil, fmt.Errorf("no default input device: %w", err)
		}
		return device, nil
	}

	infos, err := paLibDevices()
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= len(infos) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	if infos[deviceID].MaxInputChannels < 1 {
		return nil, fmt.Errorf("device %d (%s) has no input channels", deviceID, infos[deviceID].Name)
	}
	return infos[deviceID], nil
}

// NextInputDevice returns the ID of the input-capable device following
// currentID in host order, wrapping around. Pass MinDeviceID to get the
// first input-capable device. Errors when the host has no input devices.
func NextInputDevice(currentID int) (int, error) {
	infos, err := paLibDevices()
	if err != nil {
		return 0, err
	}

	n := len(infos)
	for offset := 1; offset <= n; offset++ {
		id := (currentID + offset + n) % n
		if id >= 0 && infos[id].MaxInputChannels > 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no input-capable devices available")
}

// ListDevices prints information about all available audio devices:
// ID, name, direction, channel counts, default sample rate and latencies.
func ListDevices() error {
	infos, err := paLibDevices()
	if err != nil {
		return err
	}

	fmt.Printf("\nAvailable Audio Devices\n\n")

	for i, device := range infos {
		deviceType := ""
		switch {
		case device.MaxInputChannels > 0 && device.MaxOutputChannels > 0:
			deviceType = "Input/Output"
		case device.MaxInputChannels > 0:
			deviceType = "Input"
		case device.MaxOutputChannels > 0:
			deviceType = "Output"
		}

		fmt.Printf("[%d] %s (%s)\n", i, device.Name, deviceType)
		fmt.Printf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		fmt.Printf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)
		fmt.Printf("    Latency: Low=%.2fms, High=%.2fms\n",
			device.DefaultLowInputLatency.Seconds()*1000,
			device.DefaultHighInputLatency.Seconds()*1000)
		fmt.Println()
	}

	return nil
}
