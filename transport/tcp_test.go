package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/sicknav/logging"
	"go.viam.com/sicknav/protocol"
	"go.viam.com/sicknav/transport"
)

func listen(t *testing.T) (net.Listener, int) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { listener.Close() })
	return listener, listener.Addr().(*net.TCPAddr).Port
}

func TestTCPConn(t *testing.T) {
	logger := logging.NewTestLogger(t)
	listener, port := listen(t)

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	conn, err := transport.DialTCP(context.Background(), "127.0.0.1", port, time.Second, logger)
	test.That(t, err, test.ShouldBeNil)
	peer := <-accepted
	defer peer.Close()

	t.Run("nothing to read times out", func(t *testing.T) {
		_, err := conn.ReadAvailable(20 * time.Millisecond)
		test.That(t, errors.Is(err, protocol.ErrTimeout), test.ShouldBeTrue)
	})

	t.Run("send and receive", func(t *testing.T) {
		test.That(t, conn.Send([]byte("\x02sRN DeviceIdent\x25\x03")), test.ShouldBeNil)
		buf := make([]byte, 64)
		n, err := peer.Read(buf)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, string(buf[:n]), test.ShouldEqual, "\x02sRN DeviceIdent\x25\x03")

		_, err = peer.Write([]byte("hello"))
		test.That(t, err, test.ShouldBeNil)
		data, err := conn.ReadAvailable(time.Second)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, string(data), test.ShouldEqual, "hello")
	})

	t.Run("peer hang up is an io error", func(t *testing.T) {
		test.That(t, peer.Close(), test.ShouldBeNil)
		var err error
		for i := 0; i < 10; i++ {
			if _, err = conn.ReadAvailable(100 * time.Millisecond); !errors.Is(err, protocol.ErrTimeout) {
				break
			}
		}
		test.That(t, errors.Is(err, protocol.ErrIO), test.ShouldBeTrue)
	})

	test.That(t, conn.Close(), test.ShouldBeNil)
	test.That(t, conn.Close(), test.ShouldBeNil)
	test.That(t, errors.Is(conn.Send([]byte("x")), protocol.ErrIO), test.ShouldBeTrue)
	_, err = conn.ReadAvailable(time.Millisecond)
	test.That(t, errors.Is(err, protocol.ErrIO), test.ShouldBeTrue)
}

func TestTCPDialRefused(t *testing.T) {
	logger := logging.NewTestLogger(t)
	listener, port := listen(t)
	test.That(t, listener.Close(), test.ShouldBeNil)

	_, err := transport.DialTCP(context.Background(), "127.0.0.1", port, time.Second, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, protocol.ErrIO), test.ShouldBeTrue)
}

func TestTCPDialCanceled(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := transport.DialTCP(ctx, "127.0.0.1", 1, time.Second, logger)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}
