package inject

import (
	"time"

	"go.viam.com/sicknav/transport"
)

// Conn is an injected transport.Conn.
type Conn struct {
	transport.Conn
	SendFunc          func(p []byte) error
	ReadAvailableFunc func(timeout time.Duration) ([]byte, error)
	CloseFunc         func() error
}

// Send calls the injected Send or the real version.
func (c *Conn) Send(p []byte) error {
	if c.SendFunc == nil {
		return c.Conn.Send(p)
	}
	return c.SendFunc(p)
}

// ReadAvailable calls the injected ReadAvailable or the real version.
func (c *Conn) ReadAvailable(timeout time.Duration) ([]byte, error) {
	if c.ReadAvailableFunc == nil {
		return c.Conn.ReadAvailable(timeout)
	}
	return c.ReadAvailableFunc(timeout)
}

// Close calls the injected Close or the real version.
func (c *Conn) Close() error {
	if c.CloseFunc == nil {
		if c.Conn == nil {
			return nil
		}
		return c.Conn.Close()
	}
	return c.CloseFunc()
}
