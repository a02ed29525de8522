// SPDX-License-Identifier: MIT
package viz

import (
	"math"

	"spectrum/internal/analysis"
	applog "spectrum/internal/log"
)

// Frame is the per-tick output handed to renderer clients. All slices are
// copies; a Frame stays valid after the tick that produced it.
type Frame struct {
	Mode          string     `json:"mode"`
	Bands         []float64  `json:"bands"`
	Heights       []float64  `json:"heights"`
	Peaks         []float64  `json:"peaks,omitempty"` // Modern style only.
	IsBeat        bool       `json:"is_beat"`
	BeatIntensity float64    `json:"beat_intensity"`
	BeatPulse     float64    `json:"beat_pulse,omitempty"` // Modern style only.
	PeakLevel     float64    `json:"peak_level"`
	RMSLevel      float64    `json:"rms_level"`
	ColorPhase    float64    `json:"color_phase"`
	Particles     []Particle `json:"particles,omitempty"`
	FrontDust     []Particle `json:"front_dust,omitempty"` // Modern style only.
}

// Style is one visualization variant: it consumes analysis results, advances
// its animation state once per tick, and exposes a frame snapshot. Two
// implementations exist, selected at construction time.
type Style interface {
	// Advance runs one animation tick against the latest analysis result.
	Advance(res *analysis.Result, p Params)
	// Snapshot fills dst with a copy of the current animation state.
	Snapshot(dst *Frame)
	// ToggleColorCycling flips color phase advancement, returns the new state.
	ToggleColorCycling() bool
	// ToggleParticles flips the ambient particle layers, returns the new state.
	ToggleParticles() bool
	// SetParticleCount resizes the live particle population.
	SetParticleCount(count int)
	// Resize adapts canvas-dependent state to new extents.
	Resize(width, height int)
	// Reset returns all animation state to initial values.
	Reset()
}

// Modern beat pulse envelope constants.
const (
	beatPulseKick  = 0.5
	beatPulseDecay = 0.80
)

// In the stock layout bars may grow to 70% of the canvas height.
const modernMaxHeightRatio = 0.7

// StyleOptions is the construction-time configuration shared by both style
// variants. The population is always allocated at ParticleCount; the enable
// flags only set the initial toggle state, so a later toggle brings the
// configured count back without a rebuild.
type StyleOptions struct {
	BandCount     int
	Width, Height int
	ParticleCount int
	Particles     bool // Ambient layers start enabled.
	FrontDust     bool // Modern front layer; ignored by the legacy style.
	ColorCycling  bool
	CycleSpeed    float64 // Legacy phase step per tick.
	HueSpeed      float64 // Modern hue step per tick.
	BackSpeed     float64
	FrontSpeed    float64
}

// NewStyle constructs the style variant for a mode.
func NewStyle(mode analysis.Mode, opts StyleOptions) Style {
	if mode == analysis.Legacy {
		return NewLegacyStyle(opts)
	}
	return NewModernStyle(opts)
}

// LegacyStyle reproduces the original sketch: single-rate bars with a beat
// boost, one full-speed particle layer, and a sine-phase color cycle.
type LegacyStyle struct {
	bars         *LegacyBars
	particles    *Field
	colorEnabled bool
	colorPhase   float64
	cycleSpeed   float64
	lastResult   analysis.Result
}

// NewLegacyStyle builds the legacy variant.
func NewLegacyStyle(opts StyleOptions) *LegacyStyle {
	applog.Infof("Viz: legacy style (%d bars, %d particles)", opts.BandCount, opts.ParticleCount)
	particles := NewField(opts.ParticleCount, opts.Width, opts.Height, 1.0)
	particles.Enabled = opts.Particles
	return &LegacyStyle{
		bars:         NewLegacyBars(opts.BandCount),
		particles:    particles,
		colorEnabled: opts.ColorCycling,
		colorPhase:   1.0,
		cycleSpeed:   opts.CycleSpeed,
	}
}

var _ Style = (*LegacyStyle)(nil)

func (s *LegacyStyle) Advance(res *analysis.Result, p Params) {
	boost := 0.0
	if res.IsBeat {
		boost = LegacyBeatBoost
	}
	s.bars.Advance(res.Bands, boost, p)
	s.particles.Update()

	if s.colorEnabled {
		s.colorPhase -= s.cycleSpeed
		if s.colorPhase < 0 {
			s.colorPhase += 2 * math.Pi
		}
	}
	s.lastResult = *res
}

func (s *LegacyStyle) Snapshot(dst *Frame) {
	dst.Mode = analysis.Legacy.String()
	dst.Bands = append(dst.Bands[:0], s.lastResult.Bands...)
	dst.Heights = append(dst.Heights[:0], s.bars.Heights()...)
	dst.Peaks = dst.Peaks[:0]
	dst.IsBeat = s.lastResult.IsBeat
	dst.BeatIntensity = s.lastResult.BeatIntensity
	dst.BeatPulse = 0
	dst.PeakLevel = s.lastResult.PeakLevel
	dst.RMSLevel = s.lastResult.RMSLevel
	dst.ColorPhase = s.colorPhase
	dst.Particles = dst.Particles[:0]
	if s.particles.Enabled {
		dst.Particles = append(dst.Particles, s.particles.Particles()...)
	}
	dst.FrontDust = dst.FrontDust[:0]
}

func (s *LegacyStyle) ToggleColorCycling() bool {
	s.colorEnabled = !s.colorEnabled
	return s.colorEnabled
}

func (s *LegacyStyle) ToggleParticles() bool {
	return s.particles.Toggle()
}

func (s *LegacyStyle) SetParticleCount(count int) {
	s.particles.SetCount(count)
}

func (s *LegacyStyle) Resize(width, height int) {
	s.particles.Resize(width, height)
}

func (s *LegacyStyle) Reset() {
	s.bars.Reset()
	s.particles.Reset()
	s.colorPhase = 1.0
	s.lastResult = analysis.Result{}
}

// ModernStyle drives the asymmetric-rate bars with peak-hold markers, a
// two-layer dust field (slow back layer, faster sparse front layer), a hue
// drift and a decaying beat pulse envelope.
type ModernStyle struct {
	bars         *ModernBars
	back         *Field
	front        *Field
	frontDust    bool // Front layer preference; survives particle toggles.
	colorEnabled bool
	hueOffset    float64
	hueSpeed     float64
	beatPulse    float64
	lastResult   analysis.Result
}

// NewModernStyle builds the modern variant. The particle count is split
// 80/20 between the back and front dust layers.
func NewModernStyle(opts StyleOptions) *ModernStyle {
	backCount := opts.ParticleCount * 8 / 10
	frontCount := opts.ParticleCount - backCount
	applog.Infof("Viz: modern style (%d bars, %d+%d dust)", opts.BandCount, backCount, frontCount)
	back := NewField(backCount, opts.Width, opts.Height, opts.BackSpeed)
	front := NewField(frontCount, opts.Width, opts.Height, opts.FrontSpeed)
	back.Enabled = opts.Particles
	front.Enabled = opts.Particles && opts.FrontDust
	return &ModernStyle{
		bars:         NewModernBars(opts.BandCount, float64(opts.Height)*modernMaxHeightRatio),
		back:         back,
		front:        front,
		frontDust:    opts.FrontDust,
		colorEnabled: opts.ColorCycling,
		hueSpeed:     opts.HueSpeed,
	}
}

var _ Style = (*ModernStyle)(nil)

func (s *ModernStyle) Advance(res *analysis.Result, p Params) {
	if res.IsBeat {
		s.beatPulse = math.Min(1.0, s.beatPulse+beatPulseKick)
	} else {
		s.beatPulse *= beatPulseDecay
	}

	s.bars.Advance(res.Bands, p)
	s.back.Update()
	s.front.Update()

	if s.colorEnabled {
		s.hueOffset += s.hueSpeed
		if s.hueOffset > 1.0 {
			s.hueOffset -= 1.0
		}
	}
	s.lastResult = *res
}

func (s *ModernStyle) Snapshot(dst *Frame) {
	dst.Mode = analysis.Modern.String()
	dst.Bands = append(dst.Bands[:0], s.lastResult.Bands...)
	dst.Heights = append(dst.Heights[:0], s.bars.Heights()...)
	dst.Peaks = append(dst.Peaks[:0], s.bars.Peaks()...)
	dst.IsBeat = s.lastResult.IsBeat
	dst.BeatIntensity = s.lastResult.BeatIntensity
	dst.BeatPulse = s.beatPulse
	dst.PeakLevel = s.lastResult.PeakLevel
	dst.RMSLevel = s.lastResult.RMSLevel
	dst.ColorPhase = s.hueOffset
	dst.Particles = dst.Particles[:0]
	if s.back.Enabled {
		dst.Particles = append(dst.Particles, s.back.Particles()...)
	}
	dst.FrontDust = dst.FrontDust[:0]
	if s.front.Enabled {
		dst.FrontDust = append(dst.FrontDust, s.front.Particles()...)
	}
}

func (s *ModernStyle) ToggleColorCycling() bool {
	s.colorEnabled = !s.colorEnabled
	return s.colorEnabled
}

// ToggleParticles flips both dust layers together; the front layer stays
// off when front dust is disabled by configuration.
func (s *ModernStyle) ToggleParticles() bool {
	enabled := s.back.Toggle()
	s.front.Enabled = enabled && s.frontDust
	return enabled
}

func (s *ModernStyle) SetParticleCount(count int) {
	backCount := count * 8 / 10
	s.back.SetCount(backCount)
	s.front.SetCount(count - backCount)
}

func (s *ModernStyle) Resize(width, height int) {
	s.back.Resize(width, height)
	s.front.Resize(width, height)
	// Bar ceilings track the canvas; rebuild preserving heights is not
	// worth it, the auto scaler converges within a few ticks.
	s.bars.maxHeight = float64(height) * modernMaxHeightRatio
}

func (s *ModernStyle) Reset() {
	s.bars.Reset()
	s.back.Reset()
	s.front.Reset()
	s.beatPulse = 0
	s.hueOffset = 0
	s.lastResult = analysis.Result{}
}
