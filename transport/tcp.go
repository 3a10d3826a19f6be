package transport

import (
	"context"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/sicknav/logging"
	"go.viam.com/sicknav/protocol"
)

// DefaultTCPPort is the NAV350's CoLa-A command port.
const DefaultTCPPort = 2111

// TCPConn is a Conn over a TCP socket.
type TCPConn struct {
	conn    net.Conn
	addr    string
	closed  atomic.Bool
	readBuf []byte
	logger  logging.Logger
}

// DialTCP connects to address:port, giving up after connectTimeout.
func DialTCP(
	ctx context.Context,
	address string,
	port int,
	connectTimeout time.Duration,
	logger logging.Logger,
) (*TCPConn, error) {
	if port == 0 {
		port = DefaultTCPPort
	}
	addr := net.JoinHostPort(address, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, mapNetError(err, "dial "+addr)
	}
	logger.Debugw("connected", "address", addr)
	return &TCPConn{
		conn:    conn,
		addr:    addr,
		readBuf: make([]byte, readChunkSize),
		logger:  logger,
	}, nil
}

// Send writes all of p to the socket.
func (c *TCPConn) Send(p []byte) error {
	if c.closed.Load() {
		return errors.Wrap(protocol.ErrIO, "connection closed")
	}
	for len(p) > 0 {
		n, err := c.conn.Write(p)
		if err != nil {
			return mapNetError(err, "write to "+c.addr)
		}
		p = p[n:]
	}
	return nil
}

// ReadAvailable waits up to timeout for bytes from the socket.
func (c *TCPConn) ReadAvailable(timeout time.Duration) ([]byte, error) {
	if c.closed.Load() {
		return nil, errors.Wrap(protocol.ErrIO, "connection closed")
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, mapNetError(err, "set read deadline")
	}
	n, err := c.conn.Read(c.readBuf)
	if n > 0 {
		out := make([]byte, n)
		copy(out, c.readBuf[:n])
		return out, nil
	}
	if err == nil {
		return nil, errors.Wrap(protocol.ErrTimeout, "no data")
	}
	if c.closed.Load() {
		return nil, errors.Wrap(protocol.ErrIO, "connection closed")
	}
	return nil, mapNetError(err, "read from "+c.addr)
}

// Close closes the socket. Closing twice is a no-op.
func (c *TCPConn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.Debugw("closing connection", "address", c.addr)
	return c.conn.Close()
}

// RemoteAddr is the address the connection was dialed to.
func (c *TCPConn) RemoteAddr() string {
	return c.addr
}

func mapNetError(err error, op string) error {
	var netErr net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrapf(protocol.ErrTimeout, "%s: %v", op, err)
	}
	return errors.Wrapf(protocol.ErrIO, "%s: %v", op, err)
}
