// SPDX-License-Identifier: MIT
/*
Package viz implements the animation state of the visualizer: the per-bar
height state machines (legacy single-rate and modern asymmetric-rate
strategies), the peak-hold indicators, and the ambient particle field.
It produces numeric frames only; pixel-level drawing is owned by external
renderer clients.
*/
package viz

import (
	"math"

	applog "spectrum/internal/log"
)

// Params carries the runtime animation tuning shared by both strategies.
type Params struct {
	GrowthRate       float64 // How fast bars rise.
	DecayRate        float64 // How fast bars fall.
	TriggerThreshold float64 // Relative jump required to trigger a rise (legacy) or suppression cutoff (modern).
	AmplitudeScale   float64 // Band amplitude multiplier; 0 selects auto scaling in the modern strategy.
}

// Legacy bar geometry, from the original sketch.
const (
	LegacyMaxHeight = 200.0
	LegacyMinHeight = 6.0
	LegacyBeatBoost = 10.0
)

// LegacyBars is the original bar animation: a rise gated by a relative jump
// over the current height, and a proportional decay clamped to a floor.
// Fast attack, slow release.
type LegacyBars struct {
	heights []float64
}

// NewLegacyBars creates the legacy animator with all bars at zero height.
func NewLegacyBars(count int) *LegacyBars {
	applog.Debugf("Viz: legacy bars (%d)", count)
	return &LegacyBars{heights: make([]float64, count)}
}

// Advance feeds one tick of band targets through the state machine.
// beatBoost is added only on the rising branch (pass LegacyBeatBoost on a
// beat frame, 0 otherwise).
func (b *LegacyBars) Advance(bands []float64, beatBoost float64, p Params) {
	for i := range b.heights {
		target := 0.0
		if i < len(bands) {
			target = bands[i]
		}

		cur := b.heights[i]
		if target > cur*p.TriggerThreshold && cur < LegacyMaxHeight {
			// Rising: quick response to loud signal.
			b.heights[i] = cur + p.GrowthRate*target + beatBoost
		} else if h := cur - p.DecayRate*cur; h < LegacyMinHeight {
			b.heights[i] = LegacyMinHeight
		} else {
			b.heights[i] = h
		}
	}
}

// Heights returns the live height slice. Owned by the animator; callers
// must copy if they retain it.
func (b *LegacyBars) Heights() []float64 {
	return b.heights
}

// Reset returns all bars to zero height.
func (b *LegacyBars) Reset() {
	for i := range b.heights {
		b.heights[i] = 0
	}
}

// Modern bar animation constants.
const (
	ModernFloor       = 3.0  // Minimum display height.
	peakGravity       = 0.5  // Per-tick acceleration of the falling peak marker.
	autoSmoothing     = 0.15 // Symmetric blend factor in auto mode.
	autoScaleCap      = 50.0 // Auto mode caps the scale at maxHeight/50.
	paramScaleCap     = 30.0 // Parametrized mode caps at maxHeight/30.
	subThresholdGain  = 0.3  // Sub-threshold targets are suppressed to 30%.
	ampBlendReference = 30.0 // Amplitude at which auto-scaling reduction saturates.
	ampNormalization  = 15.0 // Raw bands are normalized around the default amplitude scale.
)

// ModernBars animates bars toward auto- or amplitude-scaled targets with
// asymmetric rise/fall rates, and tracks a falling peak-hold marker per bar
// with simulated gravity.
type ModernBars struct {
	maxHeight float64
	targets   []float64
	heights   []float64
	peaks     []float64
	peakVel   []float64
}

// NewModernBars creates the modern animator. maxHeight is the tallest
// height the auto scaler aims for (canvas-dependent, 70% of height in the
// stock layout).
func NewModernBars(count int, maxHeight float64) *ModernBars {
	applog.Debugf("Viz: modern bars (%d, max height %.0f)", count, maxHeight)
	return &ModernBars{
		maxHeight: maxHeight,
		targets:   make([]float64, count),
		heights:   make([]float64, count),
		peaks:     make([]float64, count),
		peakVel:   make([]float64, count),
	}
}

// Advance feeds one tick of band values through the animator. An amplitude
// scale of 0 selects the auto-scaled symmetric smoothing; anything else
// uses the parametrized asymmetric dynamics.
func (b *ModernBars) Advance(bands []float64, p Params) {
	if p.AmplitudeScale == 0 {
		b.advanceAuto(bands)
		return
	}

	for i := range b.targets {
		t := 0.0
		if i < len(bands) {
			t = bands[i] * (p.AmplitudeScale / ampNormalization)
		}
		if t < p.TriggerThreshold {
			t *= subThresholdGain
		}
		b.targets[i] = t
	}

	if maxVal := maxOf(b.targets); maxVal > 0 {
		autoScale := b.maxHeight / math.Max(maxVal, 1.0)
		// Higher amplitude settings progressively disable auto-scaling,
		// down to 30% of it at the reference amplitude and above.
		blend := math.Min(1.0, p.AmplitudeScale/ampBlendReference)
		effective := autoScale * (1.0 - blend*0.7)
		scale := math.Min(effective, b.maxHeight/paramScaleCap)
		for i := range b.targets {
			b.targets[i] *= scale
		}
	}

	riseStep := math.Min(1.0, p.GrowthRate*5)
	fallStep := math.Min(1.0, p.DecayRate*3)
	for i := range b.heights {
		diff := b.targets[i] - b.heights[i]
		if diff > 0 {
			b.heights[i] += diff * riseStep
		} else {
			b.heights[i] += diff * fallStep
		}
		if b.heights[i] < ModernFloor {
			b.heights[i] = ModernFloor
		}
	}

	b.advancePeaks()
}

// advanceAuto is the fixed-rate auto-scaled variant: targets are scaled so
// the loudest band approaches maxHeight, then all bars blend toward their
// targets at a symmetric 0.15 per tick.
func (b *ModernBars) advanceAuto(bands []float64) {
	for i := range b.targets {
		if i < len(bands) {
			b.targets[i] = bands[i]
		} else {
			b.targets[i] = 0
		}
	}

	if maxVal := maxOf(b.targets); maxVal > 0 {
		scale := b.maxHeight / math.Max(maxVal, 1.0)
		scale = math.Min(scale, b.maxHeight/autoScaleCap)
		for i := range b.targets {
			b.targets[i] *= scale
		}
	}

	for i := range b.heights {
		b.heights[i] += (b.targets[i] - b.heights[i]) * autoSmoothing
		if b.heights[i] < ModernFloor {
			b.heights[i] = ModernFloor
		}
	}

	b.advancePeaks()
}

// advancePeaks lets each peak marker fall under gravity, pinning it to the
// live bar whenever the bar overtakes it.
func (b *ModernBars) advancePeaks() {
	for i := range b.peaks {
		if b.heights[i] > b.peaks[i] {
			b.peaks[i] = b.heights[i]
			b.peakVel[i] = 0
		} else {
			b.peakVel[i] += peakGravity
			b.peaks[i] -= b.peakVel[i]
			if b.peaks[i] < b.heights[i] {
				b.peaks[i] = b.heights[i]
			}
		}
	}
}

// Heights returns the live height slice. Owned by the animator.
func (b *ModernBars) Heights() []float64 {
	return b.heights
}

// Peaks returns the live peak-hold slice. Owned by the animator.
func (b *ModernBars) Peaks() []float64 {
	return b.peaks
}

// MaxHeight returns the configured auto-scale ceiling.
func (b *ModernBars) MaxHeight() float64 {
	return b.maxHeight
}

// Reset zeroes all bar and peak state.
func (b *ModernBars) Reset() {
	for i := range b.heights {
		b.targets[i] = 0
		b.heights[i] = 0
		b.peaks[i] = 0
		b.peakVel[i] = 0
	}
}

func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
