// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/go-audio/wav"
)

// newTestCapture builds a capture with no live stream; the callback can be
// driven directly with synthetic chunks.
func newTestCapture(channels, framesPerBuffer int) *Capture {
	return &Capture{
		ring:            NewRing(minRingDepth, framesPerBuffer*channels, channels),
		sampleRate:      44100,
		channels:        channels,
		framesPerBuffer: framesPerBuffer,
		bitDepth:        16,
	}
}

func TestRecordingStartStop(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "take.wav")
	c := newTestCapture(1, 256)

	if err := c.StartRecording(filename); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if !c.IsRecording() {
		t.Error("capture should be in recording state")
	}
	if c.wavEncoder == nil || c.outputFile == nil || c.sampleBuf == nil {
		t.Fatal("recording state not initialized")
	}
	if c.sampleBuf.Format.NumChannels != 1 || c.sampleBuf.Format.SampleRate != 44100 {
		t.Errorf("sample buffer format = %+v", c.sampleBuf.Format)
	}

	if err := c.StartRecording(filename); err == nil {
		t.Error("second StartRecording should fail while active")
	}

	if err := c.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if c.IsRecording() {
		t.Error("capture still flagged as recording")
	}
	if err := c.StopRecording(); err != nil {
		t.Errorf("StopRecording when idle should be nil, got %v", err)
	}
}

func TestRecordingWritesDecodableWAV(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "take.wav")
	c := newTestCapture(1, 4)

	if err := c.StartRecording(filename); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}

	// Full-scale and half-scale samples, plus out-of-range input that must
	// clip instead of wrapping.
	c.processInput([]float32{1.0, -1.0, 0.5, 2.0})
	c.processInput([]float32{0, 0, 0, 0})

	if err := c.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}

	file, err := os.Open(filename)
	if err != nil {
		t.Fatalf("open recorded file: %v", err)
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode recorded file: %v", err)
	}
	if dec.SampleRate != 44100 {
		t.Errorf("sample rate %d, want 44100", dec.SampleRate)
	}
	if dec.BitDepth != 16 {
		t.Errorf("bit depth %d, want 16", dec.BitDepth)
	}
	if len(buf.Data) != 8 {
		t.Fatalf("decoded %d samples, want 8", len(buf.Data))
	}

	const fullScale = 1<<15 - 1
	want := []int{fullScale, -fullScale, fullScale / 2, fullScale, 0, 0, 0, 0}
	for i, w := range want {
		got := buf.Data[i]
		if got < w-1 || got > w+1 {
			t.Errorf("sample %d = %d, want ~%d", i, got, w)
		}
	}
}

func TestRecordingCallbackFeedsRing(t *testing.T) {
	c := newTestCapture(1, 4)

	c.processInput([]float32{0.1, 0.2, 0.3, 0.4})

	dst := make([]float64, 4)
	if n := c.Latest(dst); n != 4 {
		t.Fatalf("real sample count %d, want 4", n)
	}
	if dst[3] < 0.39 || dst[3] > 0.41 {
		t.Errorf("last sample %v, want ~0.4", dst[3])
	}
}

func TestRecordingInvalidBitDepthFallsBack(t *testing.T) {
	c := newTestCapture(1, 4)
	c.bitDepth = 12

	filename := filepath.Join(t.TempDir(), "take.wav")
	if err := c.StartRecording(filename); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if c.sampleBuf.SourceBitDepth != 16 {
		t.Errorf("bit depth %d, want fallback 16", c.sampleBuf.SourceBitDepth)
	}
	if err := c.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
}

func TestRecordingCloseStopsEverything(t *testing.T) {
	c := newTestCapture(1, 4)

	filename := filepath.Join(t.TempDir(), "take.wav")
	if err := c.StartRecording(filename); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if atomic.LoadInt32(&c.isRecording) != 0 {
		t.Error("recording flag still set after Close")
	}
}
