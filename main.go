// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"spectrum/cmd"
	"spectrum/internal/audio"
	"spectrum/internal/config"
	"spectrum/internal/engine"
	applog "spectrum/internal/log"
	"spectrum/internal/transport"
	"spectrum/internal/transport/udp"
	"spectrum/internal/tui"
	"spectrum/pkg/build"
)

// main wires the pipeline together. The program flow has three phases:
//
// 1. Startup (cold path):
//   - Initialize build information and PortAudio
//   - Parse command line arguments on top of the YAML configuration
//   - Execute one-off commands (device listing, interactive picking)
//
// 2. Concurrent (hot path):
//   - Start the capture stream and optional WAV recording
//   - Start the frame transports and the tick loop
//
// 3. Shutdown (cold path):
//   - Handle termination signals
//   - Stop the tick loop, recording and transports in order
func main() {
	if err := build.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}

	// One thread for the capture callback, one for ticking and I/O.
	runtime.GOMAXPROCS(2)

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer audio.Terminate()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	} else if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	switch cfg.Command {
	case cmd.CommandList:
		if err := audio.ListDevices(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	case cmd.CommandPick:
		accepted, err := tui.RunDevicePicker(cfg)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		if !accepted {
			return
		}
	case cmd.CommandRun:
	default:
		return
	}

	if err := run(cfg); err != nil {
		applog.Fatalf("%v", err)
	}
}

func run(cfg *config.Config) error {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	capture, err := audio.NewCapture(cfg)
	if err != nil {
		return err
	}

	// Start of real-time capture: from here the callback is live.
	if err := capture.Start(); err != nil {
		return err
	}
	defer capture.Close()

	if cfg.Recording.Enabled {
		if err := capture.StartRecording(cfg.Recording.OutputFile); err != nil {
			return err
		}
	}

	var transports []transport.Transport
	if cfg.Transport.WebSocketEnabled {
		transports = append(transports,
			transport.NewWebSocketTransport(":"+cfg.Transport.WebSocketPort))
	}
	if len(transports) == 0 && !cfg.Transport.UDPEnabled {
		transports = append(transports, transport.NewLoggingTransport())
	}

	orchestrator, err := engine.NewOrchestrator(cfg, capture, transports...)
	if err != nil {
		return err
	}

	var publisher *udp.Publisher
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return err
		}
		defer sender.Close()

		interval := time.Duration(cfg.Transport.UDPIntervalMs) * time.Millisecond
		publisher, err = udp.NewPublisher(interval, sender, orchestrator, cfg.Viz.BandCount)
		if err != nil {
			return err
		}
		publisher.Start()
	}

	orchestrator.Start()
	fmt.Printf("%s running on device %q. Ctrl-C to stop.\n",
		build.GetBuildFlags().Name, capture.DeviceName())

	<-done

	if err := orchestrator.Stop(); err != nil {
		applog.Errorf("Error stopping engine: %v", err)
	}
	if publisher != nil {
		if err := publisher.Stop(); err != nil {
			applog.Errorf("Error stopping UDP publisher: %v", err)
		}
	}
	for _, tr := range transports {
		if err := tr.Close(); err != nil {
			applog.Errorf("Error closing transport: %v", err)
		}
	}
	if cfg.Recording.Enabled {
		if err := capture.StopRecording(); err != nil {
			applog.Errorf("Error stopping recording: %v", err)
		}
		fmt.Printf("\nRecording saved to: %s\n", cfg.Recording.OutputFile)
	}
	return nil
}
