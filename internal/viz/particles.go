// SPDX-License-Identifier: MIT
package viz

import (
	"math/rand/v2"

	applog "spectrum/internal/log"
)

// Velocity divisor from the original sketch; particle speeds are tuned
// relative to it.
const particleDivisor = 75.0

// Particle is one ambient floating dot. Positions are bounded by the canvas
// extents with wraparound; the size is one of three discrete buckets.
type Particle struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	DX    float64 `json:"-"`
	DY    float64 `json:"-"`
	Alpha int     `json:"alpha"` // 0–255
}

// Field is an ambient particle simulation, decoupled from audio and clocked
// by render ticks only.
type Field struct {
	Enabled         bool
	SpeedMultiplier float64

	width     float64
	height    float64
	particles []Particle
	rng       *rand.Rand
}

// NewField creates a particle field with count randomized particles on a
// width×height canvas. The speed multiplier scales all velocities each tick
// (1.0 for the legacy style, 0.2/0.4 for the modern dust layers).
func NewField(count, width, height int, speedMultiplier float64) *Field {
	f := &Field{
		Enabled:         true,
		SpeedMultiplier: speedMultiplier,
		width:           float64(width),
		height:          float64(height),
		particles:       make([]Particle, count),
		rng:             rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for i := range f.particles {
		f.randomize(&f.particles[i])
	}
	applog.Debugf("Viz: particle field (%d particles, %.2fx speed)", count, speedMultiplier)
	return f
}

// randomize assigns fresh random attributes matching the original
// distributions: three size buckets from a 1–12 draw cut at 7 and 11, a
// rightward drift with a slight vertical wander, and alpha in 100–255.
func (f *Field) randomize(p *Particle) {
	p.X = f.rng.Float64() * f.width
	p.Y = f.rng.Float64() * f.height

	raw := 1 + f.rng.Float64()*11
	switch {
	case raw < 7:
		p.Size = 1
	case raw < 11:
		p.Size = 2
	default:
		p.Size = 3
	}

	p.DX = (1 + f.rng.Float64()*2) / particleDivisor * 3
	p.DY = (f.rng.Float64()*6 - 3) / particleDivisor
	p.Alpha = 100 + f.rng.IntN(156)
}

// Update integrates all particle positions by one tick and wraps them at
// the canvas edges. A particle exiting one side re-enters at zero on the
// opposite side, not at a mirrored offset.
func (f *Field) Update() {
	if !f.Enabled {
		return
	}

	for i := range f.particles {
		p := &f.particles[i]
		p.X += p.DX * f.SpeedMultiplier
		p.Y += p.DY * f.SpeedMultiplier

		if p.X > f.width {
			p.X = 0
		} else if p.X < 0 {
			p.X = f.width
		}
		if p.Y > f.height {
			p.Y = 0
		} else if p.Y < 0 {
			p.Y = f.height
		}
	}
}

// Particles returns the live particle slice. Owned by the field; copy if
// retaining beyond the current tick.
func (f *Field) Particles() []Particle {
	return f.particles
}

// Count returns the current population size.
func (f *Field) Count() int {
	return len(f.particles)
}

// SetCount grows the population by appending freshly randomized particles
// or shrinks it by truncation.
func (f *Field) SetCount(count int) {
	if count < 0 {
		count = 0
	}
	for len(f.particles) < count {
		var p Particle
		f.randomize(&p)
		f.particles = append(f.particles, p)
	}
	if count < len(f.particles) {
		f.particles = f.particles[:count]
	}
}

// Resize rescales all particle positions proportionally to the new canvas
// extents.
func (f *Field) Resize(width, height int) {
	xScale, yScale := 1.0, 1.0
	if f.width > 0 {
		xScale = float64(width) / f.width
	}
	if f.height > 0 {
		yScale = float64(height) / f.height
	}

	for i := range f.particles {
		f.particles[i].X *= xScale
		f.particles[i].Y *= yScale
	}
	f.width = float64(width)
	f.height = float64(height)
}

// Toggle flips the enabled state and returns the new value.
func (f *Field) Toggle() bool {
	f.Enabled = !f.Enabled
	return f.Enabled
}

// Reset re-randomizes every particle in place.
func (f *Field) Reset() {
	for i := range f.particles {
		f.randomize(&f.particles[i])
	}
}
