package transport

import (
	"time"

	"github.com/pkg/errors"
	ser "go.bug.st/serial"
	"go.uber.org/atomic"

	"go.viam.com/sicknav/logging"
	"go.viam.com/sicknav/protocol"
)

// Parity describes a serial port parity setting.
type Parity int

const (
	// NoParity disable parity control (default).
	NoParity Parity = iota
	// OddParity enable odd-parity check.
	OddParity
	// EvenParity enable even-parity check.
	EvenParity
)

// StopBits describe a serial port stop bits setting.
type StopBits int

const (
	// OneStopBit sets 1 stop bit (default).
	OneStopBit StopBits = iota
	// OnePointFiveStopBits sets 1.5 stop bits.
	OnePointFiveStopBits
	// TwoStopBits sets 2 stop bits.
	TwoStopBits
)

// SerialOptions configure the auxiliary port.
type SerialOptions struct {
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits
}

// DefaultSerialOptions is the NAV350 factory setting of the auxiliary port.
var DefaultSerialOptions = SerialOptions{BaudRate: 57600, DataBits: 8}

// openPort opens a serial port. It's a variable so tests can substitute a fake port.
var openPort = func(path string, mode *ser.Mode) (ser.Port, error) {
	return ser.Open(path, mode)
}

// SerialConn is a Conn over a serial port.
type SerialConn struct {
	port    ser.Port
	path    string
	closed  atomic.Bool
	readBuf []byte
	logger  logging.Logger
}

// OpenSerial opens the serial device at path.
func OpenSerial(path string, options SerialOptions, logger logging.Logger) (*SerialConn, error) {
	if options.BaudRate == 0 {
		options.BaudRate = DefaultSerialOptions.BaudRate
	}
	if options.DataBits == 0 {
		options.DataBits = DefaultSerialOptions.DataBits
	}
	mode := &ser.Mode{
		BaudRate: options.BaudRate,
		DataBits: options.DataBits,
		Parity:   ser.Parity(options.Parity),
		StopBits: ser.StopBits(options.StopBits),
	}
	port, err := openPort(path, mode)
	if err != nil {
		return nil, errors.Wrapf(protocol.ErrIO, "open %s: %v", path, err)
	}
	logger.Debugw("opened serial port", "path", path, "baud", options.BaudRate)
	return &SerialConn{port: port, path: path, readBuf: make([]byte, readChunkSize), logger: logger}, nil
}

// Send writes all of p to the port.
func (c *SerialConn) Send(p []byte) error {
	if c.closed.Load() {
		return errors.Wrap(protocol.ErrIO, "port closed")
	}
	for len(p) > 0 {
		n, err := c.port.Write(p)
		if err != nil {
			return errors.Wrapf(protocol.ErrIO, "write to %s: %v", c.path, err)
		}
		p = p[n:]
	}
	return nil
}

// ReadAvailable waits up to timeout for bytes from the port.
func (c *SerialConn) ReadAvailable(timeout time.Duration) ([]byte, error) {
	if c.closed.Load() {
		return nil, errors.Wrap(protocol.ErrIO, "port closed")
	}
	if err := c.port.SetReadTimeout(timeout); err != nil {
		return nil, errors.Wrapf(protocol.ErrIO, "set read timeout on %s: %v", c.path, err)
	}
	n, err := c.port.Read(c.readBuf)
	if err != nil {
		return nil, errors.Wrapf(protocol.ErrIO, "read from %s: %v", c.path, err)
	}
	if n == 0 {
		if c.closed.Load() {
			return nil, errors.Wrap(protocol.ErrIO, "port closed")
		}
		return nil, errors.Wrap(protocol.ErrTimeout, "no data")
	}
	out := make([]byte, n)
	copy(out, c.readBuf[:n])
	return out, nil
}

// Close closes the port. Closing twice is a no-op.
func (c *SerialConn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.Debugw("closing serial port", "path", c.path)
	return c.port.Close()
}
