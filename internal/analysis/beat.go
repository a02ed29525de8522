// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	applog "spectrum/internal/log"
)

// Beat detection constants. The history window is sized for roughly one
// second of ticks; the cooldown is derived from the sensitivity at an
// assumed 60 fps tick rate.
const (
	beatHistorySize   = 43
	beatAvgFloor      = 0.001 // Below this average energy the intensity ratio degenerates to 0.
	beatEnergyFloor   = 0.01  // Minimum absolute energy for a beat.
	beatIntensityCap  = 5.0
	beatAssumedTicks  = 60.0
	DefaultBeatThresh = 1.5
	DefaultBeatSensMs = 20.0
)

// BeatDetector flags beats by comparing the instantaneous frame energy to a
// short rolling average. A cooldown counter suppresses repeated triggers.
// It is not safe for concurrent use; the orchestrator calls it once per tick.
type BeatDetector struct {
	sensitivityMs float64
	threshold     float64

	history  []float64 // FIFO of recent energies, at most beatHistorySize entries.
	cooldown int
}

// NewBeatDetector creates a detector with the given sensitivity (cooldown
// duration in milliseconds) and intensity threshold.
func NewBeatDetector(sensitivityMs, threshold float64) *BeatDetector {
	applog.Debugf("Analysis: beat detector (sensitivity %.0f ms, threshold %.2f)", sensitivityMs, threshold)
	return &BeatDetector{
		sensitivityMs: sensitivityMs,
		threshold:     threshold,
		history:       make([]float64, 0, beatHistorySize),
	}
}

// Detect analyzes one audio frame and reports whether it contains a beat,
// along with the beat intensity. Intensity is the ratio of current to
// average energy, zero when the average is degenerate, and always capped to
// [0, 5]. While the cooldown is active no beat is reported regardless of
// energy.
func (d *BeatDetector) Detect(frame []float64) (bool, float64) {
	energy := rms(frame)

	if len(d.history) == beatHistorySize {
		copy(d.history, d.history[1:])
		d.history = d.history[:beatHistorySize-1]
	}
	d.history = append(d.history, energy)

	var sum float64
	for _, e := range d.history {
		sum += e
	}
	avg := sum / float64(len(d.history))

	intensity := 0.0
	if avg > beatAvgFloor {
		intensity = math.Min(energy/avg, beatIntensityCap)
	}

	if d.cooldown > 0 {
		d.cooldown--
		return false, intensity
	}

	isBeat := intensity > d.threshold && energy > beatEnergyFloor
	if isBeat {
		d.cooldown = max(1, int(math.Round(d.sensitivityMs/1000.0*beatAssumedTicks)))
	}

	return isBeat, intensity
}

// Reset clears the energy history and cooldown.
func (d *BeatDetector) Reset() {
	d.history = d.history[:0]
	d.cooldown = 0
}

// rms returns the root mean square of the frame, 0 for an empty frame.
func rms(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}
