// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"spectrum/pkg/utils"
)

func newTestAnalyzer(t *testing.T, mode Mode) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(mode, testSampleRate, testFFTSize, 50)
	if err != nil {
		t.Fatalf("NewAnalyzer error: %v", err)
	}
	return a
}

func TestNewAnalyzerRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := NewAnalyzer(Modern, testSampleRate, 1000, 50); err == nil {
		t.Error("expected error for non-power-of-2 FFT size")
	}
}

func TestAnalyzeSilence(t *testing.T) {
	for _, mode := range []Mode{Legacy, Modern} {
		t.Run(mode.String(), func(t *testing.T) {
			a := newTestAnalyzer(t, mode)
			silence := make([]float64, testFFTSize)

			res := a.Analyze(silence, 15.0)
			if len(res.Bands) != 50 {
				t.Fatalf("got %d bands, want 50", len(res.Bands))
			}
			for i, b := range res.Bands {
				if b != 0 {
					t.Errorf("band %d = %v, want 0 for silence", i, b)
				}
			}
			if res.IsBeat {
				t.Error("beat on silent input")
			}
			if res.PeakLevel != 0 || res.RMSLevel != 0 {
				t.Errorf("levels = %v/%v, want 0/0", res.PeakLevel, res.RMSLevel)
			}
		})
	}
}

func TestAnalyzeSineLandsInCoveringBand(t *testing.T) {
	a := newTestAnalyzer(t, Modern)

	// Sine centered exactly on bin 93 (~1 kHz).
	const bin = 93
	freq := float64(bin) * testSampleRate / float64(testFFTSize)
	frame := utils.GenerateSineWave(testFFTSize, testSampleRate, freq, 0.8)

	res := a.Analyze(frame, 0)

	if utils.FindPeakBin(res.Magnitudes, 1, len(res.Magnitudes)-1) != bin {
		t.Errorf("magnitude peak at bin %d, want %d",
			utils.FindPeakBin(res.Magnitudes, 1, len(res.Magnitudes)-1), bin)
	}

	hotBand := -1
	for i, r := range a.Mapper().Ranges() {
		if bin >= r.Low && bin < r.High {
			hotBand = i
			break
		}
	}
	if hotBand < 0 {
		t.Fatalf("no band covers bin %d", bin)
	}
	if got := utils.ArgMax(res.Bands); got != hotBand {
		t.Errorf("dominant band = %d, want %d", got, hotBand)
	}
}

func TestAnalyzeLevels(t *testing.T) {
	a := newTestAnalyzer(t, Legacy)
	frame := utils.ConstantWave(testFFTSize, 0.5)

	res := a.Analyze(frame, 15.0)
	if math.Abs(res.PeakLevel-0.5) > 1e-12 {
		t.Errorf("peak = %v, want 0.5", res.PeakLevel)
	}
	if math.Abs(res.RMSLevel-0.5) > 1e-9 {
		t.Errorf("rms = %v, want 0.5", res.RMSLevel)
	}
}

func TestAnalyzeResizesInput(t *testing.T) {
	a := newTestAnalyzer(t, Modern)

	t.Run("Short input zero-padded", func(t *testing.T) {
		short := utils.ConstantWave(testFFTSize/4, 0.5)
		res := a.Analyze(short, 0)
		// Padding dilutes the RMS by a factor of two (quarter of the energy).
		if math.Abs(res.RMSLevel-0.25) > 1e-9 {
			t.Errorf("rms = %v, want 0.25 after zero-padding", res.RMSLevel)
		}
		if res.PeakLevel != 0.5 {
			t.Errorf("peak = %v, want 0.5", res.PeakLevel)
		}
	})

	t.Run("Long input truncated", func(t *testing.T) {
		long := make([]float64, testFFTSize*2)
		for i := range long {
			long[i] = 0.1
		}
		long[testFFTSize] = 100.0 // Beyond the truncation point.
		res := a.Analyze(long, 0)
		if res.PeakLevel != 0.1 {
			t.Errorf("peak = %v, want 0.1 (sample past fftSize must be dropped)", res.PeakLevel)
		}
	})
}

func TestModernSmoothing(t *testing.T) {
	a := newTestAnalyzer(t, Modern)
	loud := utils.GenerateComplexWave(testFFTSize, testSampleRate)
	silence := make([]float64, testFFTSize)

	first := a.Analyze(loud, 0)
	second := a.Analyze(silence, 0)

	// With silent raw bands the smoothed output is alpha times the previous
	// frame's bands.
	for i := range second.Bands {
		want := modernSmoothing * first.Bands[i]
		if math.Abs(second.Bands[i]-want) > 1e-9 {
			t.Errorf("band %d = %v, want %v (0.3 of previous)", i, second.Bands[i], want)
			break
		}
	}
}

func TestLegacyNoSmoothing(t *testing.T) {
	a := newTestAnalyzer(t, Legacy)
	loud := utils.GenerateComplexWave(testFFTSize, testSampleRate)
	silence := make([]float64, testFFTSize)

	a.Analyze(loud, 15.0)
	second := a.Analyze(silence, 15.0)

	for i, b := range second.Bands {
		if b != 0 {
			t.Errorf("band %d = %v, want 0 (legacy mode applies no smoothing)", i, b)
			break
		}
	}
}

func TestAnalyzeResultsAreIndependent(t *testing.T) {
	a := newTestAnalyzer(t, Modern)
	loud := utils.GenerateComplexWave(testFFTSize, testSampleRate)

	first := a.Analyze(loud, 0)
	snapshot := make([]float64, len(first.Bands))
	copy(snapshot, first.Bands)

	a.Analyze(make([]float64, testFFTSize), 0)

	for i := range first.Bands {
		if first.Bands[i] != snapshot[i] {
			t.Fatal("a later Analyze call must not mutate an earlier Result")
		}
	}
}

func TestAnalyzerReset(t *testing.T) {
	a := newTestAnalyzer(t, Modern)
	loud := utils.GenerateComplexWave(testFFTSize, testSampleRate)
	silence := make([]float64, testFFTSize)

	a.Analyze(loud, 0)
	a.Reset()
	a.Reset() // Idempotent.

	res := a.Analyze(silence, 0)
	for i, b := range res.Bands {
		if b != 0 {
			t.Errorf("band %d = %v, want 0 after reset (no smoothing carry-over)", i, b)
			break
		}
	}
}

func TestFrequencyForBin(t *testing.T) {
	a := newTestAnalyzer(t, Modern)

	if got := a.FrequencyForBin(0); got != 0 {
		t.Errorf("bin 0 = %v Hz, want 0", got)
	}
	want := testSampleRate / float64(testFFTSize)
	if got := a.FrequencyForBin(1); math.Abs(got-want) > 1e-9 {
		t.Errorf("bin 1 = %v Hz, want %v", got, want)
	}
	if got := a.FrequencyForBin(-1); got != 0 {
		t.Errorf("negative bin = %v, want 0", got)
	}
	if got := a.FrequencyForBin(testFFTSize); got != 0 {
		t.Errorf("out-of-range bin = %v, want 0", got)
	}
}

func BenchmarkAnalyze(b *testing.B) {
	frame := utils.GenerateComplexWave(testFFTSize, testSampleRate)

	for _, mode := range []Mode{Legacy, Modern} {
		b.Run(mode.String(), func(b *testing.B) {
			a, err := NewAnalyzer(mode, testSampleRate, testFFTSize, 50)
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			for b.Loop() {
				_ = a.Analyze(frame, 15.0)
			}
		})
	}
}
