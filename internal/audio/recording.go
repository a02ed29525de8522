// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "spectrum/internal/log"
)

// StartRecording begins writing the raw capture stream to a WAV file at the
// capture sample rate and channel count. Float samples are rescaled to the
// configured integer bit depth.
func (c *Capture) StartRecording(filename string) error {
	if atomic.LoadInt32(&c.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	bitDepth := c.bitDepth
	switch bitDepth {
	case 16, 24, 32:
	default:
		bitDepth = 16
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	c.outputFile = file

	c.wavEncoder = wav.NewEncoder(file, int(c.sampleRate), bitDepth, c.channels, 1)
	c.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: c.channels,
			SampleRate:  int(c.sampleRate),
		},
		SourceBitDepth: bitDepth,
		Data:           make([]int, c.framesPerBuffer*c.channels),
	}

	atomic.StoreInt32(&c.isRecording, 1)
	applog.Infof("Recording: started (%s, %d-bit)", filename, bitDepth)
	return nil
}

// StopRecording finalizes the WAV file. Returns nil when not recording.
func (c *Capture) StopRecording() error {
	if atomic.LoadInt32(&c.isRecording) == 0 {
		return nil
	}
	atomic.StoreInt32(&c.isRecording, 0)

	if c.wavEncoder != nil {
		if err := c.wavEncoder.Close(); err != nil {
			return err
		}
		c.wavEncoder = nil
	}
	if c.outputFile != nil {
		if err := c.outputFile.Close(); err != nil {
			return err
		}
		c.outputFile = nil
	}

	applog.Infof("Recording: stopped")
	return nil
}

// IsRecording reports whether a WAV file is currently being written.
func (c *Capture) IsRecording() bool {
	return atomic.LoadInt32(&c.isRecording) == 1
}

// writeRecording converts one callback chunk to integer samples and appends
// it to the WAV file. Runs on the callback thread against the pre-allocated
// sample buffer.
func (c *Capture) writeRecording(in []float32) {
	scale := float32(int(1)<<(c.sampleBuf.SourceBitDepth-1) - 1)

	c.sampleBuf.Data = c.sampleBuf.Data[:cap(c.sampleBuf.Data)]
	if len(in) > len(c.sampleBuf.Data) {
		in = in[:len(c.sampleBuf.Data)]
	}
	for i, sample := range in {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		c.sampleBuf.Data[i] = int(sample * scale)
	}
	c.sampleBuf.Data = c.sampleBuf.Data[:len(in)]

	if err := c.wavEncoder.Write(c.sampleBuf); err != nil {
		applog.Errorf("Recording: write failed: %v", err)
	}
}
