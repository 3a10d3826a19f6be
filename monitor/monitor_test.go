package monitor_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/sicknav/logging"
	"go.viam.com/sicknav/monitor"
	"go.viam.com/sicknav/protocol"
	"go.viam.com/sicknav/testutils/inject"
)

// feed returns a conn whose reads are served from the returned channels.
func feed() (*inject.Conn, chan []byte, chan error) {
	chunks := make(chan []byte, 64)
	failures := make(chan error, 1)
	conn := &inject.Conn{
		ReadAvailableFunc: func(timeout time.Duration) ([]byte, error) {
			select {
			case chunk := <-chunks:
				return chunk, nil
			case err := <-failures:
				return nil, err
			case <-time.After(timeout):
				return nil, protocol.ErrTimeout
			}
		},
	}
	return conn, chunks, failures
}

func encode(t *testing.T, payload string) []byte {
	t.Helper()
	frame, err := protocol.Encode([]byte(payload))
	test.That(t, err, test.ShouldBeNil)
	return frame
}

func receive(t *testing.T, m *monitor.Monitor) protocol.Telegram {
	t.Helper()
	select {
	case tel := <-m.Telegrams():
		return tel
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for telegram")
	}
	return protocol.Telegram{}
}

func TestMonitorFragmentedOrder(t *testing.T) {
	logger := logging.NewTestLogger(t)
	conn, chunks, _ := feed()
	m := monitor.New(conn, logger, monitor.Options{PollInterval: 10 * time.Millisecond})
	defer m.Close()

	a := encode(t, "sRA DeviceIdent 8 NAV350-3232 10 V1.0.0")
	b := encode(t, "sAN mNEVAChangeState 0 1")
	stream := append(append([]byte{}, a...), b...)
	// split a inside its payload and b just before its end delimiter
	chunks <- stream[:7]
	chunks <- stream[7 : len(stream)-1]
	chunks <- stream[len(stream)-1:]

	first := receive(t, m)
	test.That(t, first.Kind, test.ShouldEqual, protocol.KindResponse)
	test.That(t, first.Command, test.ShouldEqual, "DeviceIdent")
	second := receive(t, m)
	test.That(t, second.Kind, test.ShouldEqual, protocol.KindResult)
	test.That(t, second.Command, test.ShouldEqual, "mNEVAChangeState")

	test.That(t, m.Stats().Frames, test.ShouldEqual, uint64(2))
}

func TestMonitorDropsCorruptFrames(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	conn, chunks, _ := feed()
	m := monitor.New(conn, logger, monitor.Options{PollInterval: 10 * time.Millisecond})
	defer m.Close()

	bad := encode(t, "sRA DeviceIdent 0")
	bad[len(bad)-2] ^= 0x40
	chunks <- append(append([]byte("junk"), bad...), encode(t, "sRA SerialNumber 8 12345678")...)

	tel := receive(t, m)
	test.That(t, tel.Command, test.ShouldEqual, "SerialNumber")
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, m.Stats().Dropped, test.ShouldBeGreaterThanOrEqualTo, uint64(1))
	})
	test.That(t, logs.FilterMessage("dropping frame").Len(), test.ShouldBeGreaterThanOrEqualTo, 1)
	test.That(t, m.Stats().Frames, test.ShouldEqual, uint64(1))
}

func TestMonitorIOErrorEndsLoop(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	conn, _, failures := feed()
	m := monitor.New(conn, logger, monitor.Options{PollInterval: 10 * time.Millisecond})
	defer m.Close()

	failures <- errors.Wrap(protocol.ErrIO, "connection reset")
	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
	test.That(t, errors.Is(m.Err(), protocol.ErrIO), test.ShouldBeTrue)
	test.That(t, logs.FilterMessage("connection failed, monitor exiting").Len(), test.ShouldEqual, 1)
}

func TestMonitorShutdownIsQuiet(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	conn, _, failures := feed()
	m := monitor.New(conn, logger, monitor.Options{PollInterval: 10 * time.Millisecond})
	defer m.Close()

	m.Shutdown()
	failures <- errors.Wrap(protocol.ErrIO, "use of closed network connection")
	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
	test.That(t, errors.Is(m.Err(), protocol.ErrIO), test.ShouldBeTrue)
	test.That(t, logs.FilterMessage("connection failed, monitor exiting").Len(), test.ShouldEqual, 0)
}

func TestMonitorOverflowDropsOldest(t *testing.T) {
	logger := logging.NewTestLogger(t)
	conn, chunks, _ := feed()
	m := monitor.New(conn, logger, monitor.Options{PollInterval: 10 * time.Millisecond, InboxSize: 2})
	defer m.Close()

	var stream []byte
	for _, payload := range []string{"sAN a 1", "sAN b 2", "sAN c 3", "sAN d 4"} {
		stream = append(stream, encode(t, payload)...)
	}
	chunks <- stream

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, m.Stats().Frames, test.ShouldEqual, uint64(4))
		test.That(tb, m.Stats().Overflowed, test.ShouldEqual, uint64(2))
	})
	test.That(t, receive(t, m).Command, test.ShouldEqual, "c")
	test.That(t, receive(t, m).Command, test.ShouldEqual, "d")
}

func TestMonitorClose(t *testing.T) {
	logger := logging.NewTestLogger(t)
	conn, _, _ := feed()
	m := monitor.New(conn, logger, monitor.Options{PollInterval: 10 * time.Millisecond})
	m.Close()
	<-m.Done()
	test.That(t, errors.Is(m.Err(), protocol.ErrIO), test.ShouldBeTrue)
}
