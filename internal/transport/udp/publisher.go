// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "spectrum/internal/log"
	"spectrum/internal/transport"
)

// DefaultInterval is used when the configured publish interval is invalid.
const DefaultInterval = 16 * time.Millisecond // ~60 Hz

// Publisher periodically pulls the latest bar heights from a frame source,
// packs them into the binary packet layout below and sends them through a
// Sender. Runs in its own goroutine between Start and Stop.
//
// Packet layout (big endian):
//
//	sequence  uint32      monotonically increasing
//	timestamp int64       nanoseconds since epoch
//	count     uint16      number of heights (N)
//	heights   N * float32 current bar heights
type Publisher struct {
	sender   *Sender
	source   transport.FrameSource
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker/doneChan across Start/Stop

	sequenceNum uint32

	// Pre-allocated packing buffers.
	heights64 []float64
	heights32 []float32
	packet    *bytes.Buffer
}

// NewPublisher creates a publisher for bandCount bar heights. An interval
// <= 0 falls back to DefaultInterval.
func NewPublisher(interval time.Duration, sender *Sender, source transport.FrameSource, bandCount int) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("udp publisher: frame source cannot be nil")
	}
	if bandCount < 1 {
		return nil, fmt.Errorf("udp publisher: invalid band count %d", bandCount)
	}

	if interval <= 0 {
		applog.Warnf("UDP: invalid publish interval, defaulting to %s", DefaultInterval)
		interval = DefaultInterval
	}

	return &Publisher{
		sender:    sender,
		source:    source,
		interval:  interval,
		heights64: make([]float64, bandCount),
		heights32: make([]float32, bandCount),
		packet:    new(bytes.Buffer),
	}, nil
}

// Start launches the publish goroutine. A second Start while running is a
// no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDP: Start called but publisher already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDP: publisher started (every %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publishPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publish goroutine and waits for it to exit. Safe to
// call repeatedly.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDP: publisher stopped")
	return nil
}

func (p *Publisher) publishPacket() {
	n := p.source.CopyHeights(p.heights64)
	if n == 0 {
		return // No frame produced yet.
	}
	if n > len(p.heights32) {
		n = len(p.heights32)
	}
	for i := range n {
		p.heights32[i] = float32(p.heights64[i])
	}

	p.sequenceNum++
	timestamp := time.Now().UnixNano()

	p.packet.Reset()
	err := binary.Write(p.packet, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packet, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packet, binary.BigEndian, uint16(n))
	}
	if err == nil {
		err = binary.Write(p.packet, binary.BigEndian, p.heights32[:n])
	}
	if err != nil {
		applog.Errorf("UDP: error packing frame: %v", err)
		return
	}

	if err := p.sender.Send(p.packet.Bytes()); err != nil {
		applog.Debugf("UDP: send failed: %v", err)
		return
	}
	applog.Debugf("UDP: sent packet %d (%d bars)", p.sequenceNum, n)
}

// Close stops the publisher; the sender is owned by the caller.
func (p *Publisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*Publisher)(nil)
