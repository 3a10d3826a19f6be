// Package transport provides the byte links a NAV350 can be reached over: its Ethernet command
// port and its auxiliary serial port.
package transport

import (
	"time"
)

// A Conn is a bidirectional byte stream to the device.
//
// Send and ReadAvailable may be called from different goroutines, but each of them must only be
// called from one goroutine at a time. Errors are protocol.ErrTimeout when nothing arrived in
// time and protocol.ErrIO for anything that breaks the link.
type Conn interface {
	// Send writes all of p.
	Send(p []byte) error

	// ReadAvailable waits up to timeout for data and returns whatever has arrived, never an
	// empty slice with a nil error.
	ReadAvailable(timeout time.Duration) ([]byte, error)

	// Close releases the link. Pending and future calls fail with protocol.ErrIO.
	Close() error
}

const readChunkSize = 4096
