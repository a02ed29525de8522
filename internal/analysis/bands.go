// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	applog "spectrum/internal/log"
)

// Mode selects the band extraction algorithm.
type Mode int

const (
	// Legacy reproduces the original hand-tuned breakpoint table and the
	// weighted 3-tap band formula.
	Legacy Mode = iota
	// Modern uses log-spaced bands with A-weighting.
	Modern
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Legacy {
		return "legacy"
	}
	return "modern"
}

// ParseMode converts a mode name (case-sensitive, as stored in config) to a
// Mode. Returns Modern and an error for unknown names.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "legacy":
		return Legacy, nil
	case "modern":
		return Modern, nil
	default:
		return Modern, fmt.Errorf("unknown visualization mode: %q", name)
	}
}

// legacyBreakpoints is the original fixed table of 56 increasing frequency
// breakpoints in Hz. Band values are read from the magnitude bins at
// breakpoints i+1..i+3, not from a contiguous range, so the table carries
// a few extra entries beyond the band count. The repeated 15360 entries are
// part of the original tuning.
var legacyBreakpoints = [56]float64{
	1, 3, 5, 10, 16, 22, 26, 31, 39, 42, 45, 55, 60, 65, 70, 80, 90, 100,
	120, 140, 160, 200, 240, 280, 320, 400, 480, 560, 590, 640, 720, 800,
	960, 1024, 1120, 1280, 1600, 1920, 2240, 2560, 3200, 3340, 3590, 3720,
	3840, 4480, 5120, 6400, 7680, 8960, 10240, 12800, 15360, 15360, 15360, 17800,
}

// Modern mapping constants.
const (
	modernMinFreq    = 20.0    // Lowest band edge (Hz).
	modernMaxFreq    = 20000.0 // Highest band edge, capped by Nyquist (Hz).
	modernBandScale  = 50.0    // Fixed display scale after weighting.
	legacyExtraBands = 6       // Breakpoints kept beyond the band count for the 3-tap reads.
)

// BinRange is a half-open [Low, High) range of FFT bin indices for one band.
type BinRange struct {
	Low  int
	High int
}

// Mapper precomputes the mapping from FFT bins to output bands for a fixed
// {mode, sampleRate, fftSize, bandCount}. It is immutable after construction
// and must be rebuilt whenever the sample rate or band count changes.
type Mapper struct {
	mode        Mode
	sampleRate  float64
	fftSize     int
	bandCount   int
	breakpoints []float64  // bandCount+1 edges (modern) or the truncated legacy table.
	ranges      []BinRange // One half-open bin range per band.
	weights     []float64  // Per-band A-weighting gains (modern only).
}

// NewMapper builds the bin-to-band mapping.
func NewMapper(mode Mode, sampleRate float64, fftSize, bandCount int) (*Mapper, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if fftSize <= 0 {
		return nil, fmt.Errorf("fft size must be positive, got %d", fftSize)
	}
	if bandCount < 1 {
		return nil, fmt.Errorf("band count must be at least 1, got %d", bandCount)
	}
	if mode == Legacy && bandCount+1 > len(legacyBreakpoints) {
		return nil, fmt.Errorf("legacy mode supports at most %d bands, got %d", len(legacyBreakpoints)-1, bandCount)
	}

	m := &Mapper{
		mode:       mode,
		sampleRate: sampleRate,
		fftSize:    fftSize,
		bandCount:  bandCount,
	}

	if mode == Legacy {
		n := min(bandCount+legacyExtraBands, len(legacyBreakpoints))
		m.breakpoints = legacyBreakpoints[:n]
	} else {
		m.breakpoints = logSpacedBreakpoints(bandCount, sampleRate)
		m.weights = make([]float64, bandCount)
		for i := range m.weights {
			center := (m.breakpoints[i] + m.breakpoints[i+1]) / 2
			m.weights[i] = aWeight(center)
		}
	}

	m.ranges = make([]BinRange, bandCount)
	nyquistBins := fftSize/2 + 1
	resolution := sampleRate / float64(fftSize)
	for i := range bandCount {
		low := int(m.breakpoints[i] / resolution)
		high := int(m.breakpoints[i+1] / resolution)
		if high < low+1 {
			high = low + 1 // never an empty band
		}
		if low > nyquistBins-1 {
			low = nyquistBins - 1
		}
		if high > nyquistBins {
			high = nyquistBins
		}
		m.ranges[i] = BinRange{Low: low, High: high}
	}

	applog.Debugf("Analysis: band mapper built (%s, %d bands, %d-point FFT, %.1f Hz)",
		mode, bandCount, fftSize, sampleRate)
	return m, nil
}

// logSpacedBreakpoints generates bandCount+1 log-spaced frequency edges
// between 20 Hz and min(sampleRate/2, 20 kHz).
func logSpacedBreakpoints(bandCount int, sampleRate float64) []float64 {
	maxFreq := math.Min(sampleRate/2, modernMaxFreq)
	logMin := math.Log10(modernMinFreq)
	logMax := math.Log10(maxFreq)

	edges := make([]float64, bandCount+1)
	for i := range edges {
		t := float64(i) / float64(bandCount)
		edges[i] = math.Pow(10, logMin+t*(logMax-logMin))
	}
	return edges
}

// aWeight returns the A-weighting gain for a frequency, using the standard
// two-pole approximation normalized to unity at 1 kHz. Frequencies are
// clamped to the audible range first.
func aWeight(freq float64) float64 {
	return aResponse(math.Min(math.Max(freq, 20), 20000)) / aResponse(1000)
}

func aResponse(f float64) float64 {
	f2 := f * f
	const c1, c2, c3, c4 = 20.6, 107.7, 737.9, 12194.0
	num := c4 * c4 * f2 * f2
	den := (f2 + c1*c1) * math.Sqrt((f2+c2*c2)*(f2+c3*c3)) * (f2 + c4*c4)
	return num / den
}

// BandCount returns the number of output bands.
func (m *Mapper) BandCount() int {
	return m.bandCount
}

// Mode returns the extraction algorithm in use.
func (m *Mapper) Mode() Mode {
	return m.mode
}

// Ranges returns the per-band bin ranges. The slice is owned by the mapper
// and must not be modified.
func (m *Mapper) Ranges() []BinRange {
	return m.ranges
}

// CenterFrequency returns the center frequency (Hz) for a band index.
func (m *Mapper) CenterFrequency(band int) float64 {
	if band < 0 || band >= m.bandCount {
		return 0
	}
	if band+1 < len(m.breakpoints) {
		return (m.breakpoints[band] + m.breakpoints[band+1]) / 2
	}
	return m.breakpoints[len(m.breakpoints)-1]
}

// Reduce folds a magnitude spectrum into dst, which must have bandCount
// entries. amplitudeScale only affects legacy mode; the modern algorithm
// applies its fixed ×50 scale after A-weighting.
func (m *Mapper) Reduce(magnitudes []float64, amplitudeScale float64, dst []float64) {
	if m.mode == Legacy {
		m.reduceLegacy(magnitudes, amplitudeScale, dst)
	} else {
		m.reduceModern(magnitudes, dst)
	}
}

// reduceLegacy computes each band from the magnitude bins at breakpoints
// i+1..i+3 with center-weighted averaging, then applies the original
// sqrt(v*scale)*scale*((i/25)+0.8) shaping. The amplitude scale really is
// applied twice; the legacy visual tuning depends on it.
func (m *Mapper) reduceLegacy(magnitudes []float64, amplitudeScale float64, dst []float64) {
	resolution := m.sampleRate / float64(m.fftSize)
	last := len(m.breakpoints) - 1

	for i := range m.bandCount {
		f1 := m.breakpoints[min(i+1, last)]
		f2 := m.breakpoints[min(i+2, last)]
		f3 := m.breakpoints[min(i+3, last)]

		b1 := clampBin(int(f1/resolution), len(magnitudes))
		b2 := clampBin(int(f2/resolution), len(magnitudes))
		b3 := clampBin(int(f3/resolution), len(magnitudes))

		val := (magnitudes[b1] + 2*magnitudes[b2] + magnitudes[b3]) / 4
		ramp := float64(i)/25.0 + 0.8
		dst[i] = math.Sqrt(val*amplitudeScale) * amplitudeScale * ramp
	}
}

// reduceModern computes each band as the RMS of its bin range, weighted by
// the precomputed A-weighting curve and the fixed display scale.
func (m *Mapper) reduceModern(magnitudes []float64, dst []float64) {
	for i, r := range m.ranges {
		dst[i] = 0
		if r.Low >= len(magnitudes) || r.High > len(magnitudes) {
			continue
		}
		var sum float64
		for _, mag := range magnitudes[r.Low:r.High] {
			sum += mag * mag
		}
		rms := math.Sqrt(sum / float64(r.High-r.Low))
		dst[i] = rms * m.weights[i] * modernBandScale
	}
}

func clampBin(bin, n int) int {
	if bin < 0 {
		return 0
	}
	if bin > n-1 {
		return n - 1
	}
	return bin
}
