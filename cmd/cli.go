// SPDX-License-Identifier: MIT
// Package cmd defines the command line surface: flags on top of the YAML
// configuration, plus the one-off device listing commands.
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"spectrum/internal/config"
	"spectrum/pkg/build"
)

// Commands dispatched by main after argument parsing.
const (
	CommandRun  = "run"
	CommandList = "list"
	CommandPick = "pick"
)

// configPathFromArgs pre-scans for --config so the file can be loaded
// before flag defaults are bound.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if len(arg) > len("--config=") && arg[:len("--config=")] == "--config=" {
			return arg[len("--config="):]
		}
	}
	return ""
}

// ParseArgs loads the configuration file, binds flags on top of it and
// executes the CLI. Flag values override file values; file values override
// built-in defaults.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	options, err := config.LoadConfig(configPathFromArgs(os.Args[1:]))
	if err != nil {
		return nil, err
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandRun
			return options.Validate()
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandList
		},
	}
	rootCmd.AddCommand(listCmd)

	pickCmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick the input device interactively, then run",
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandPick
			return options.Validate()
		},
	}
	rootCmd.AddCommand(pickCmd)

	var configPath string
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the YAML configuration file")

	// Audio capture.
	rootCmd.PersistentFlags().IntVarP(&options.Audio.Device, "device", "d", options.Audio.Device,
		"Input device ID. Use 'list' to see available devices; -1 for the system default.")
	rootCmd.PersistentFlags().IntVarP(&options.Audio.Channels, "channels", "c", options.Audio.Channels,
		"Number of channels to capture (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64VarP(&options.Audio.SampleRate, "sample-rate", "s", options.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&options.Audio.BufferSize, "buffer-size", "b", options.Audio.BufferSize,
		"Samples per analysis frame (power of two)")

	// Visualization.
	rootCmd.PersistentFlags().StringVarP(&options.Viz.Mode, "mode", "m", options.Viz.Mode,
		"Visualization mode: legacy or modern")
	rootCmd.PersistentFlags().IntVarP(&options.Viz.BandCount, "bars", "n", options.Viz.BandCount,
		"Number of frequency bars")
	rootCmd.PersistentFlags().IntVar(&options.Viz.FPS, "fps", options.Viz.FPS,
		"Target frame rate")
	rootCmd.PersistentFlags().IntVar(&options.Viz.Width, "width", options.Viz.Width,
		"Canvas width in pixels")
	rootCmd.PersistentFlags().IntVar(&options.Viz.Height, "height", options.Viz.Height,
		"Canvas height in pixels")

	// Recording.
	rootCmd.PersistentFlags().BoolVarP(&options.Recording.Enabled, "record", "r", options.Recording.Enabled,
		"Record raw capture audio to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&options.Recording.OutputFile, "output", "o", options.Recording.OutputFile,
		"Recording file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Transports.
	rootCmd.PersistentFlags().StringVar(&options.Transport.WebSocketPort, "ws-port", options.Transport.WebSocketPort,
		"WebSocket frame server port")
	rootCmd.PersistentFlags().BoolVar(&options.Transport.WebSocketEnabled, "ws", options.Transport.WebSocketEnabled,
		"Serve frames over WebSocket")
	rootCmd.PersistentFlags().StringVar(&options.Transport.UDPTargetAddress, "udp-target", options.Transport.UDPTargetAddress,
		"UDP target address for the binary frame stream")
	rootCmd.PersistentFlags().BoolVar(&options.Transport.UDPEnabled, "udp", options.Transport.UDPEnabled,
		"Publish frames over UDP")

	// Debug.
	rootCmd.PersistentFlags().BoolVarP(&options.Debug, "verbose", "v", options.Debug,
		"Show verbose output")

	if options.Recording.OutputFile == "" {
		options.Recording.OutputFile = "recording-" +
			time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	}

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}
