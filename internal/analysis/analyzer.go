// SPDX-License-Identifier: MIT
/*
Package analysis implements the signal pipeline of the visualizer: windowed
FFT band extraction (legacy fixed-table or modern log-spaced perceptually
weighted mapping), temporal smoothing, and energy-based beat detection.

All processing runs on the render thread; the package holds no locks and
performs its per-tick work in pre-allocated workspace buffers. Results are
copied out fresh on each call so callers may retain them.
*/
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	applog "spectrum/internal/log"
	"spectrum/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Temporal smoothing factor applied to band values in modern mode. Legacy
// mode applies none; the legacy bar animator supplies its own dynamics.
const modernSmoothing = 0.3

// Result holds the outcome of analyzing one audio frame. All slices are
// freshly allocated per call.
type Result struct {
	Bands         []float64 `json:"bands"`          // One non-negative value per band.
	Magnitudes    []float64 `json:"-"`              // Raw FFT magnitude spectrum (fftSize/2+1 bins).
	IsBeat        bool      `json:"is_beat"`        // Beat detected on this frame.
	BeatIntensity float64   `json:"beat_intensity"` // Current/average energy ratio, in [0, 5].
	PeakLevel     float64   `json:"peak_level"`     // max(|sample|) over the frame.
	RMSLevel      float64   `json:"rms_level"`      // Root mean square of the frame.
}

// analyzerWorkspace holds pre-allocated buffers for the per-tick analysis.
type analyzerWorkspace struct {
	frame     []float64    // Frame resized to exactly fftSize (zero-padded or truncated).
	input     []float64    // Windowed input signal.
	fftOutput []complex128 // FFT complex output.
	magnitude []float64    // Magnitude spectrum.
	bands     []float64    // Reduced band values.
	prevBands []float64    // Previous smoothed bands.
	window    []float64    // Hann window coefficients.
}

// Analyzer converts raw audio frames into band values, levels and beat
// events. The band mapping, window and smoothing state are all derived from
// {mode, sampleRate, fftSize, bandCount}; changing any of those requires
// constructing a new Analyzer rather than mutating this one.
type Analyzer struct {
	mode       Mode
	fftSize    int
	sampleRate float64
	mapper     *Mapper
	beat       *BeatDetector
	fft        *fourier.FFT
	smoothing  float64
	havePrev   bool
	workspace  analyzerWorkspace
}

// NewAnalyzer creates an analyzer for the given configuration. The FFT size
// must be a power of 2.
func NewAnalyzer(mode Mode, sampleRate float64, fftSize, bandCount int) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}

	mapper, err := NewMapper(mode, sampleRate, fftSize, bandCount)
	if err != nil {
		return nil, err
	}

	windowCoeffs := make([]float64, fftSize)
	for i := range windowCoeffs {
		windowCoeffs[i] = 1.0
	}
	window.Hann(windowCoeffs)

	smoothing := 0.0
	if mode == Modern {
		smoothing = modernSmoothing
	}

	magnitudeSize := fftSize/2 + 1
	applog.Infof("Analysis: analyzer ready (%s mode, %d bands, %d-point FFT, %.1f Hz)",
		mode, bandCount, fftSize, sampleRate)

	return &Analyzer{
		mode:       mode,
		fftSize:    fftSize,
		sampleRate: sampleRate,
		mapper:     mapper,
		beat:       NewBeatDetector(DefaultBeatSensMs, DefaultBeatThresh),
		fft:        fourier.NewFFT(fftSize),
		smoothing:  smoothing,
		workspace: analyzerWorkspace{
			frame:     make([]float64, fftSize),
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, magnitudeSize),
			magnitude: make([]float64, magnitudeSize),
			bands:     make([]float64, bandCount),
			prevBands: make([]float64, bandCount),
			window:    windowCoeffs,
		},
	}, nil
}

// Mode returns the band extraction mode.
func (a *Analyzer) Mode() Mode {
	return a.mode
}

// SampleRate returns the configured sample rate (Hz).
func (a *Analyzer) SampleRate() float64 {
	return a.sampleRate
}

// FFTSize returns the configured FFT size.
func (a *Analyzer) FFTSize() int {
	return a.fftSize
}

// BandCount returns the number of output bands.
func (a *Analyzer) BandCount() int {
	return a.mapper.BandCount()
}

// Mapper returns the active band mapper.
func (a *Analyzer) Mapper() *Mapper {
	return a.mapper
}

// BeatDetector returns the analyzer's beat detector, exposed so the
// orchestrator can reset it across reconfigurations.
func (a *Analyzer) BeatDetector() *BeatDetector {
	return a.beat
}

// Analyze performs one full analysis pass: resize to fftSize (zero-pad or
// truncate, never resample), Hann window, real FFT, raw magnitudes (no
// normalization — downstream consumers expect raw scale), band reduction,
// temporal smoothing, level measurement and beat detection.
func (a *Analyzer) Analyze(frame []float64, amplitudeScale float64) Result {
	ws := &a.workspace

	n := copy(ws.frame, frame)
	for i := n; i < a.fftSize; i++ {
		ws.frame[i] = 0
	}

	for i := range a.fftSize {
		ws.input[i] = ws.frame[i] * ws.window[i]
	}

	a.fft.Coefficients(ws.fftOutput, ws.input)
	for i, c := range ws.fftOutput {
		ws.magnitude[i] = cmplx.Abs(c)
	}

	a.mapper.Reduce(ws.magnitude, amplitudeScale, ws.bands)

	if a.smoothing > 0 && a.havePrev {
		for i := range ws.bands {
			ws.bands[i] = a.smoothing*ws.prevBands[i] + (1-a.smoothing)*ws.bands[i]
		}
	}
	copy(ws.prevBands, ws.bands)
	a.havePrev = true

	var peak float64
	for _, s := range ws.frame {
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}

	isBeat, intensity := a.beat.Detect(ws.frame)

	result := Result{
		Bands:         make([]float64, len(ws.bands)),
		Magnitudes:    make([]float64, len(ws.magnitude)),
		IsBeat:        isBeat,
		BeatIntensity: intensity,
		PeakLevel:     peak,
		RMSLevel:      rms(ws.frame),
	}
	copy(result.Bands, ws.bands)
	copy(result.Magnitudes, ws.magnitude)
	return result
}

// FrequencyForBin returns the center frequency (Hz) for an FFT bin index.
func (a *Analyzer) FrequencyForBin(bin int) float64 {
	if bin < 0 || bin >= len(a.workspace.fftOutput) {
		return 0
	}
	return float64(bin) * (a.sampleRate / float64(a.fftSize))
}

// Reset clears the smoothing and beat detection state.
func (a *Analyzer) Reset() {
	a.havePrev = false
	for i := range a.workspace.prevBands {
		a.workspace.prevBands[i] = 0
	}
	a.beat.Reset()
}
