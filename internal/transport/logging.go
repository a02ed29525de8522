// SPDX-License-Identifier: MIT
package transport

import (
	applog "spectrum/internal/log"
)

// LoggingTransport is the fallback sink used when no network transport is
// enabled. Frames are dropped; only lifecycle events are logged.
type LoggingTransport struct{}

// NewLoggingTransport creates the no-op logging sink.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: using logging sink (no network transport enabled)")
	return &LoggingTransport{}
}

func (lt *LoggingTransport) Send(data any) error {
	return nil
}

func (lt *LoggingTransport) Close() error {
	applog.Debugf("Transport: logging sink closed")
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
