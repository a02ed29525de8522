// SPDX-License-Identifier: MIT
/*
Package engine ties the pipeline together. Each display tick the
orchestrator pulls the newest samples from the capture source, runs the
spectrum analysis, advances the animation state and fans the resulting
frame out to the configured transports.

The tick body and the runtime command surface (mode switches, toggles,
reconfiguration) are serialized under one mutex, so commands may arrive
from any goroutine while the loop runs. Transports and frame readers only
ever see independent copies of the latest completed frame.
*/
package engine

import (
	"fmt"
	"sync"
	"time"

	"spectrum/internal/analysis"
	"spectrum/internal/audio"
	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/transport"
	"spectrum/internal/viz"
)

// Source delivers capture data to the tick loop. Latest fills dst with the
// most recent mono samples and returns the real (non-padded) count; zero
// means no capture data exists yet. Implemented by audio.Capture.
type Source interface {
	Latest(dst []float64) int
	SampleRate() float64
	Running() bool
}

// deviceSwitcher is the optional capture capability behind CycleDevice.
type deviceSwitcher interface {
	SwitchDevice() (audio.Device, error)
}

// Orchestrator runs the per-tick pipeline at the configured frame rate.
type Orchestrator struct {
	cfg        *config.Config
	source     Source
	transports []transport.Transport

	analyzer *analysis.Analyzer
	style    viz.Style
	frame    []float64 // Reused analysis input buffer.

	lastFrame viz.Frame
	haveFrame bool
	frameMu   sync.Mutex // Serializes the tick body, commands and frame reads

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker/doneChan across Start/Stop

	warnedNoCapture bool
}

// NewOrchestrator builds the pipeline for the given configuration. source
// may be nil; the pipeline then renders silence until one is attached via
// a restart. Transports receive one viz.Frame per tick.
func NewOrchestrator(cfg *config.Config, source Source, transports ...transport.Transport) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg:        cfg,
		source:     source,
		transports: transports,
		frame:      make([]float64, cfg.Audio.BufferSize),
	}
	if err := o.rebuild(); err != nil {
		return nil, err
	}
	return o, nil
}

// rebuild constructs the analyzer and style from the live configuration.
// Called at construction and after any change to mode, sample rate or band
// count; band mappings and smoothing state are never patched in place.
func (o *Orchestrator) rebuild() error {
	mode, err := analysis.ParseMode(o.cfg.Viz.Mode)
	if err != nil {
		return err
	}

	sampleRate := o.cfg.Audio.SampleRate
	if o.source != nil {
		sampleRate = o.source.SampleRate()
	}

	analyzer, err := analysis.NewAnalyzer(mode, sampleRate, o.cfg.Audio.BufferSize, o.cfg.Viz.BandCount)
	if err != nil {
		return fmt.Errorf("failed to build analyzer: %w", err)
	}

	style := viz.NewStyle(mode, viz.StyleOptions{
		BandCount:     o.cfg.Viz.BandCount,
		Width:         o.cfg.Viz.Width,
		Height:        o.cfg.Viz.Height,
		ParticleCount: o.cfg.Particles.Count,
		Particles:     o.cfg.Particles.Enabled,
		FrontDust:     o.cfg.Particles.FrontEnabled,
		ColorCycling:  o.cfg.Colors.Enabled,
		CycleSpeed:    o.cfg.Colors.CycleSpeed,
		HueSpeed:      o.cfg.Colors.HueSpeed,
		BackSpeed:     o.cfg.Particles.Speed,
		FrontSpeed:    o.cfg.Particles.FrontSpeed,
	})

	o.analyzer = analyzer
	o.style = style
	if len(o.frame) != o.cfg.Audio.BufferSize {
		o.frame = make([]float64, o.cfg.Audio.BufferSize)
	}

	applog.Infof("Engine: pipeline built (%s, %d bands, %.0f Hz, %d fps)",
		mode, o.cfg.Viz.BandCount, sampleRate, o.cfg.Viz.FPS)
	return nil
}

// Start launches the tick loop. A second Start while running is a no-op.
func (o *Orchestrator) Start() {
	o.mu.Lock()
	if o.ticker != nil {
		o.mu.Unlock()
		applog.Warnf("Engine: Start called but already running")
		return
	}

	interval := time.Second / time.Duration(o.cfg.Viz.FPS)
	o.ticker = time.NewTicker(interval)
	o.doneChan = make(chan struct{})
	o.stopOnce = sync.Once{}

	ticker := o.ticker
	doneChan := o.doneChan
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		applog.Infof("Engine: tick loop started (every %s)", interval)
		for {
			select {
			case <-ticker.C:
				o.Tick()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop halts the tick loop and waits for the in-flight tick to complete.
// Safe to call repeatedly; the capture source and transports are owned by
// the caller and stay open.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	if o.ticker == nil {
		o.mu.Unlock()
		return nil
	}
	o.stopOnce.Do(func() {
		close(o.doneChan)
		o.ticker.Stop()
		o.ticker = nil
	})
	o.mu.Unlock()

	o.wg.Wait()
	applog.Infof("Engine: tick loop stopped")
	return nil
}

// Tick runs one full pipeline pass: pull, analyze, animate, publish.
// Exported so tests and alternative clocks can drive the pipeline without
// the internal ticker.
func (o *Orchestrator) Tick() {
	o.frameMu.Lock()
	n := 0
	if o.source != nil {
		n = o.source.Latest(o.frame)
	}
	if n == 0 {
		// No capture data; render silence and keep going.
		for i := range o.frame {
			o.frame[i] = 0
		}
		if !o.warnedNoCapture {
			o.warnedNoCapture = true
			if o.source != nil && !o.source.Running() {
				applog.Warnf("Engine: capture source stopped, rendering silence")
			} else {
				applog.Warnf("Engine: no capture data yet, rendering silence")
			}
		}
	} else if o.warnedNoCapture {
		o.warnedNoCapture = false
		applog.Infof("Engine: capture data available")
	}

	result := o.analyzer.Analyze(o.frame, o.cfg.Bars.AmplitudeScale)

	params := viz.Params{
		GrowthRate:       o.cfg.Bars.GrowthRate,
		DecayRate:        o.cfg.Bars.DecayRate,
		TriggerThreshold: o.cfg.Bars.TriggerThreshold,
		AmplitudeScale:   o.cfg.Bars.AmplitudeScale,
	}

	o.style.Advance(&result, params)
	o.style.Snapshot(&o.lastFrame)
	o.haveFrame = true
	o.frameMu.Unlock()

	if len(o.transports) > 0 {
		frame := o.snapshotFrame()
		for _, tr := range o.transports {
			if err := tr.Send(frame); err != nil {
				applog.Debugf("Engine: transport send failed: %v", err)
			}
		}
	}
}

// snapshotFrame returns an independent copy of the latest frame, safe to
// hand to asynchronous transports.
func (o *Orchestrator) snapshotFrame() viz.Frame {
	o.frameMu.Lock()
	defer o.frameMu.Unlock()

	f := o.lastFrame
	f.Bands = append([]float64(nil), o.lastFrame.Bands...)
	f.Heights = append([]float64(nil), o.lastFrame.Heights...)
	f.Peaks = append([]float64(nil), o.lastFrame.Peaks...)
	f.Particles = append([]viz.Particle(nil), o.lastFrame.Particles...)
	f.FrontDust = append([]viz.Particle(nil), o.lastFrame.FrontDust...)
	return f
}

// LastFrame returns a copy of the most recent frame, or false before the
// first tick completes.
func (o *Orchestrator) LastFrame() (viz.Frame, bool) {
	o.frameMu.Lock()
	have := o.haveFrame
	o.frameMu.Unlock()
	if !have {
		return viz.Frame{}, false
	}
	return o.snapshotFrame(), true
}

// CopyHeights fills dst with the latest bar heights. Returns 0 before the
// first tick. Implements transport.FrameSource for the UDP publisher.
func (o *Orchestrator) CopyHeights(dst []float64) int {
	o.frameMu.Lock()
	defer o.frameMu.Unlock()
	if !o.haveFrame {
		return 0
	}
	return copy(dst, o.lastFrame.Heights)
}

// SetMode switches between the legacy and modern pipelines. The analyzer
// and animation state are rebuilt from scratch.
func (o *Orchestrator) SetMode(mode string) error {
	if _, err := analysis.ParseMode(mode); err != nil {
		return err
	}
	o.frameMu.Lock()
	defer o.frameMu.Unlock()
	o.cfg.Viz.Mode = mode
	return o.rebuild()
}

// Reconfigure applies sample-rate, buffer-size or band-count changes by
// rebuilding the analyzer and animation state against the live config.
func (o *Orchestrator) Reconfigure() error {
	o.frameMu.Lock()
	defer o.frameMu.Unlock()
	return o.rebuild()
}

// CycleDevice hops the capture source to the next input device, when the
// source supports switching. Rendering continues (against silence or stale
// data) while the switch is in flight.
func (o *Orchestrator) CycleDevice() (audio.Device, error) {
	switcher, ok := o.source.(deviceSwitcher)
	if !ok {
		return audio.Device{}, fmt.Errorf("capture source cannot switch devices")
	}
	device, err := switcher.SwitchDevice()
	if err != nil {
		return audio.Device{}, err
	}
	o.frameMu.Lock()
	o.warnedNoCapture = false
	o.frameMu.Unlock()
	return device, nil
}

// ToggleColorCycling flips color phase advancement; returns the new state.
func (o *Orchestrator) ToggleColorCycling() bool {
	o.frameMu.Lock()
	defer o.frameMu.Unlock()
	o.cfg.Colors.Enabled = o.style.ToggleColorCycling()
	return o.cfg.Colors.Enabled
}

// ToggleParticles flips the ambient particle layers; returns the new state.
func (o *Orchestrator) ToggleParticles() bool {
	o.frameMu.Lock()
	defer o.frameMu.Unlock()
	o.cfg.Particles.Enabled = o.style.ToggleParticles()
	return o.cfg.Particles.Enabled
}

// SetParticleCount resizes the live particle population.
func (o *Orchestrator) SetParticleCount(count int) {
	o.frameMu.Lock()
	defer o.frameMu.Unlock()
	o.cfg.Particles.Count = count
	o.style.SetParticleCount(count)
}

// Resize adapts canvas-dependent animation state to new extents.
func (o *Orchestrator) Resize(width, height int) {
	o.frameMu.Lock()
	defer o.frameMu.Unlock()
	o.cfg.Viz.Width = width
	o.cfg.Viz.Height = height
	o.style.Resize(width, height)
}

// SaveSettings persists the live configuration to path.
func (o *Orchestrator) SaveSettings(path string) error {
	if err := o.cfg.Save(path); err != nil {
		return err
	}
	applog.Infof("Engine: settings saved to %s", path)
	return nil
}

// Config returns the live configuration.
func (o *Orchestrator) Config() *config.Config {
	return o.cfg
}

var _ transport.FrameSource = (*Orchestrator)(nil)
