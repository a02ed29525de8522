// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"spectrum/pkg/utils"
)

const beatFrameSize = 1024

func quietFrame() []float64 {
	return utils.ConstantWave(beatFrameSize, 0.001)
}

func loudFrame() []float64 {
	return utils.ConstantWave(beatFrameSize, 0.5)
}

func TestDetectSilence(t *testing.T) {
	d := NewBeatDetector(DefaultBeatSensMs, DefaultBeatThresh)
	silence := make([]float64, beatFrameSize)

	for i := range 50 {
		isBeat, intensity := d.Detect(silence)
		if isBeat {
			t.Fatalf("tick %d: beat on silent input", i)
		}
		if intensity != 0 {
			t.Fatalf("tick %d: intensity = %v, want 0 (degenerate average)", i, intensity)
		}
	}
}

func TestDetectBurstAfterQuiet(t *testing.T) {
	d := NewBeatDetector(DefaultBeatSensMs, DefaultBeatThresh)

	// Warm up with near-silence; the constant 0.001 RMS keeps the average
	// at the degenerate floor, so no beats fire.
	for i := range beatHistorySize {
		if isBeat, _ := d.Detect(quietFrame()); isBeat {
			t.Fatalf("warmup tick %d: unexpected beat", i)
		}
	}

	isBeat, intensity := d.Detect(loudFrame())
	if !isBeat {
		t.Fatal("burst after quiet warmup must register a beat")
	}
	if intensity <= DefaultBeatThresh {
		t.Errorf("burst intensity = %v, want > %v", intensity, DefaultBeatThresh)
	}
	if intensity > beatIntensityCap {
		t.Errorf("intensity = %v exceeds cap %v", intensity, beatIntensityCap)
	}
}

func TestCooldownSuppressesBeats(t *testing.T) {
	// 100 ms sensitivity at the assumed 60 fps tick rate gives a 6-tick
	// cooldown.
	d := NewBeatDetector(100, DefaultBeatThresh)

	for range beatHistorySize {
		d.Detect(quietFrame())
	}
	if isBeat, _ := d.Detect(loudFrame()); !isBeat {
		t.Fatal("expected initial beat")
	}

	const wantCooldown = 6
	for i := range wantCooldown {
		isBeat, intensity := d.Detect(loudFrame())
		if isBeat {
			t.Fatalf("tick %d of cooldown: beat must be suppressed", i)
		}
		if intensity < 0 || intensity > beatIntensityCap {
			t.Fatalf("tick %d: intensity %v outside [0, %v]", i, intensity, beatIntensityCap)
		}
	}

	// Cooldown expired; the sustained burst is still well above the rolling
	// average and retriggers.
	if isBeat, _ := d.Detect(loudFrame()); !isBeat {
		t.Error("beat should retrigger once cooldown has expired")
	}
}

func TestIntensityAlwaysCapped(t *testing.T) {
	d := NewBeatDetector(DefaultBeatSensMs, DefaultBeatThresh)

	frames := [][]float64{
		make([]float64, beatFrameSize),
		quietFrame(),
		loudFrame(),
		utils.ConstantWave(beatFrameSize, 1.0),
		quietFrame(),
		utils.ConstantWave(beatFrameSize, 1.0),
	}
	for range 20 {
		for _, f := range frames {
			_, intensity := d.Detect(f)
			if intensity < 0 || intensity > beatIntensityCap {
				t.Fatalf("intensity %v outside [0, %v]", intensity, beatIntensityCap)
			}
		}
	}
}

func TestMinimumCooldownIsOneTick(t *testing.T) {
	// A 1 ms sensitivity rounds to zero ticks; the detector must still
	// apply at least one.
	d := NewBeatDetector(1, DefaultBeatThresh)

	for range beatHistorySize {
		d.Detect(quietFrame())
	}
	if isBeat, _ := d.Detect(loudFrame()); !isBeat {
		t.Fatal("expected initial beat")
	}
	if isBeat, _ := d.Detect(loudFrame()); isBeat {
		t.Error("the tick immediately after a beat must be suppressed")
	}
}

func TestHistoryBounded(t *testing.T) {
	d := NewBeatDetector(DefaultBeatSensMs, DefaultBeatThresh)

	for range beatHistorySize * 3 {
		d.Detect(loudFrame())
	}
	if len(d.history) != beatHistorySize {
		t.Errorf("history length = %d, want %d", len(d.history), beatHistorySize)
	}
}

func TestResetIdempotent(t *testing.T) {
	d := NewBeatDetector(100, DefaultBeatThresh)

	for range beatHistorySize {
		d.Detect(quietFrame())
	}
	d.Detect(loudFrame())

	d.Reset()
	if len(d.history) != 0 || d.cooldown != 0 {
		t.Fatalf("after Reset: history=%d cooldown=%d, want 0/0", len(d.history), d.cooldown)
	}

	d.Reset()
	if len(d.history) != 0 || d.cooldown != 0 {
		t.Errorf("second Reset changed state: history=%d cooldown=%d", len(d.history), d.cooldown)
	}
}

func TestRMS(t *testing.T) {
	tests := []struct {
		name  string
		frame []float64
		want  float64
	}{
		{"Empty", nil, 0},
		{"Zeros", make([]float64, 8), 0},
		{"Constant half", utils.ConstantWave(16, 0.5), 0.5},
		{"Constant negative", utils.ConstantWave(16, -0.25), 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rms(tt.frame); absFloat(got-tt.want) > 1e-12 {
				t.Errorf("rms = %v, want %v", got, tt.want)
			}
		})
	}
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
