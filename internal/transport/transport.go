// SPDX-License-Identifier: MIT
/*
Package transport delivers per-tick visualization frames to external
renderer clients. Two concrete transports exist: a WebSocket broadcaster
streaming JSON frames and a UDP publisher streaming a compact binary
bar-height packet. Implementations are thread-safe and never block the
render loop; slow consumers drop frames.
*/
package transport

// Transport sends one processed frame to whoever is listening.
type Transport interface {
	Send(data any) error
	Close() error
}

// FrameSource exposes the latest bar heights for pull-based transports.
// CopyHeights fills dst and returns the number of bars written; it must be
// safe to call from any goroutine.
type FrameSource interface {
	CopyHeights(dst []float64) int
}
