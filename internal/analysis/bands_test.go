// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

const (
	testFFTSize    = 4096
	testSampleRate = 44100.0
)

func TestMapperRangeInvariants(t *testing.T) {
	nyquistBins := testFFTSize/2 + 1

	for _, mode := range []Mode{Legacy, Modern} {
		for _, bandCount := range []int{1, 8, 32, 50} {
			t.Run(mode.String(), func(t *testing.T) {
				m, err := NewMapper(mode, testSampleRate, testFFTSize, bandCount)
				if err != nil {
					t.Fatalf("NewMapper(%v, %d bands) error: %v", mode, bandCount, err)
				}

				ranges := m.Ranges()
				if len(ranges) != bandCount {
					t.Fatalf("got %d ranges, want %d", len(ranges), bandCount)
				}
				for i, r := range ranges {
					if r.High <= r.Low {
						t.Errorf("band %d: high %d must exceed low %d", i, r.High, r.Low)
					}
					if r.Low < 0 {
						t.Errorf("band %d: negative low bin %d", i, r.Low)
					}
					if r.High > nyquistBins {
						t.Errorf("band %d: high bin %d exceeds %d", i, r.High, nyquistBins)
					}
				}
			})
		}
	}
}

func TestMapperConstructionErrors(t *testing.T) {
	tests := []struct {
		name       string
		mode       Mode
		sampleRate float64
		fftSize    int
		bands      int
	}{
		{"Zero bands", Modern, testSampleRate, testFFTSize, 0},
		{"Negative sample rate", Modern, -44100, testFFTSize, 50},
		{"Zero fft size", Modern, testSampleRate, 0, 50},
		{"Legacy band overflow", Legacy, testSampleRate, testFFTSize, 56},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMapper(tt.mode, tt.sampleRate, tt.fftSize, tt.bands); err == nil {
				t.Error("expected construction error, got nil")
			}
		})
	}
}

func TestLegacyReduceFormula(t *testing.T) {
	const bandCount = 50
	m, err := NewMapper(Legacy, testSampleRate, testFFTSize, bandCount)
	if err != nil {
		t.Fatal(err)
	}

	magnitudes := make([]float64, testFFTSize/2+1)
	for i := range magnitudes {
		magnitudes[i] = float64(i%17) * 0.25
	}

	const amplitudeScale = 15.0
	got := make([]float64, bandCount)
	m.Reduce(magnitudes, amplitudeScale, got)

	resolution := testSampleRate / float64(testFFTSize)
	for i := range bandCount {
		b1 := int(legacyBreakpoints[i+1] / resolution)
		b2 := int(legacyBreakpoints[i+2] / resolution)
		b3 := int(legacyBreakpoints[i+3] / resolution)
		val := (magnitudes[b1] + 2*magnitudes[b2] + magnitudes[b3]) / 4
		want := math.Sqrt(val*amplitudeScale) * amplitudeScale * (float64(i)/25.0 + 0.8)

		if math.Abs(got[i]-want) > 1e-9 {
			t.Errorf("band %d = %v, want %v", i, got[i], want)
		}
	}
}

func TestLegacyReduceSilence(t *testing.T) {
	m, err := NewMapper(Legacy, testSampleRate, testFFTSize, 50)
	if err != nil {
		t.Fatal(err)
	}

	magnitudes := make([]float64, testFFTSize/2+1)
	bands := make([]float64, 50)
	m.Reduce(magnitudes, 15.0, bands)

	for i, b := range bands {
		if b != 0 {
			t.Errorf("band %d = %v, want 0 for silent spectrum", i, b)
		}
	}
}

func TestModernReduceOneHotBin(t *testing.T) {
	const bandCount = 50
	m, err := NewMapper(Modern, testSampleRate, testFFTSize, bandCount)
	if err != nil {
		t.Fatal(err)
	}

	// Place energy in a single bin and confirm only the band covering that
	// bin reports a value.
	magnitudes := make([]float64, testFFTSize/2+1)
	hotBin := 93 // ~1 kHz at 4096/44100
	magnitudes[hotBin] = 100.0

	hotBand := -1
	for i, r := range m.Ranges() {
		if hotBin >= r.Low && hotBin < r.High {
			hotBand = i
			break
		}
	}
	if hotBand < 0 {
		t.Fatalf("no band covers bin %d", hotBin)
	}

	bands := make([]float64, bandCount)
	m.Reduce(magnitudes, 0, bands)

	for i, b := range bands {
		covers := hotBin >= m.Ranges()[i].Low && hotBin < m.Ranges()[i].High
		if covers && b <= 0 {
			t.Errorf("band %d covers the hot bin but is %v", i, b)
		}
		if !covers && b != 0 {
			t.Errorf("band %d = %v, want 0 (does not cover hot bin)", i, b)
		}
	}
}

func TestAWeightingUnityAt1kHz(t *testing.T) {
	if got := aWeight(1000); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("aWeight(1000) = %v, want 1", got)
	}

	// The curve rolls off toward both extremes relative to 1 kHz.
	if aWeight(20) >= 1.0 {
		t.Errorf("aWeight(20) = %v, want < 1", aWeight(20))
	}
	if aWeight(20000) >= 1.0 {
		t.Errorf("aWeight(20000) = %v, want < 1", aWeight(20000))
	}

	// Out-of-range frequencies clamp rather than diverge.
	if aWeight(5) != aWeight(20) {
		t.Error("frequencies below 20 Hz must clamp to the 20 Hz gain")
	}
}

func TestLogSpacedBreakpoints(t *testing.T) {
	edges := logSpacedBreakpoints(50, testSampleRate)

	if len(edges) != 51 {
		t.Fatalf("got %d edges, want 51", len(edges))
	}
	if math.Abs(edges[0]-20.0) > 1e-9 {
		t.Errorf("first edge = %v, want 20", edges[0])
	}
	want := math.Min(testSampleRate/2, 20000)
	if math.Abs(edges[50]-want) > 1e-6 {
		t.Errorf("last edge = %v, want %v", edges[50], want)
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			t.Errorf("edges must be strictly increasing: edge[%d]=%v, edge[%d]=%v",
				i-1, edges[i-1], i, edges[i])
		}
	}
}

func TestLowSampleRateCapsBands(t *testing.T) {
	// At 8 kHz the top band edge is the 4 kHz Nyquist, not 20 kHz.
	edges := logSpacedBreakpoints(32, 8000)
	if math.Abs(edges[len(edges)-1]-4000) > 1e-6 {
		t.Errorf("top edge = %v, want 4000 at 8 kHz sample rate", edges[len(edges)-1])
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("legacy"); err != nil || m != Legacy {
		t.Errorf("ParseMode(legacy) = %v, %v", m, err)
	}
	if m, err := ParseMode("modern"); err != nil || m != Modern {
		t.Errorf("ParseMode(modern) = %v, %v", m, err)
	}
	if _, err := ParseMode("neon"); err == nil {
		t.Error("ParseMode(neon) should fail")
	}
}

func TestReduceZeroAllocs(t *testing.T) {
	magnitudes := make([]float64, testFFTSize/2+1)
	for i := range magnitudes {
		magnitudes[i] = float64(i % 7)
	}
	bands := make([]float64, 50)

	for _, mode := range []Mode{Legacy, Modern} {
		m, err := NewMapper(mode, testSampleRate, testFFTSize, 50)
		if err != nil {
			t.Fatal(err)
		}
		allocs := testing.AllocsPerRun(100, func() {
			m.Reduce(magnitudes, 15.0, bands)
		})
		if allocs > 0 {
			t.Errorf("%s Reduce allocated %.1f times per run, want 0", mode, allocs)
		}
	}
}

func BenchmarkReduce(b *testing.B) {
	magnitudes := make([]float64, testFFTSize/2+1)
	for i := range magnitudes {
		magnitudes[i] = float64(i % 7)
	}
	bands := make([]float64, 50)

	for _, mode := range []Mode{Legacy, Modern} {
		b.Run(mode.String(), func(b *testing.B) {
			m, err := NewMapper(mode, testSampleRate, testFFTSize, 50)
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			for b.Loop() {
				m.Reduce(magnitudes, 15.0, bands)
			}
		})
	}
}
