// Package monitor turns the byte stream coming from a NAV350 into telegrams on a background
// goroutine.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"go.viam.com/sicknav/logging"
	"go.viam.com/sicknav/protocol"
)

const (
	// DefaultPollInterval bounds how long a single read waits before the loop checks for stop.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultInboxSize is the number of telegrams kept before the oldest is dropped.
	DefaultInboxSize = 16
)

// A Reader is the receiving half of a transport.Conn.
type Reader interface {
	ReadAvailable(timeout time.Duration) ([]byte, error)
}

// Options tune a Monitor. Zero values select the defaults.
type Options struct {
	PollInterval time.Duration
	InboxSize    int
}

// Stats counts what the monitor has seen.
type Stats struct {
	// Frames is the number of valid frames extracted.
	Frames uint64
	// Dropped is the number of corrupt or oversized frames discarded.
	Dropped uint64
	// Overflowed is the number of telegrams evicted because nobody was reading the inbox.
	Overflowed uint64
}

// Monitor reads from a connection, extracts frames and queues the classified telegrams.
type Monitor struct {
	conn   Reader
	logger logging.Logger
	poll   time.Duration

	inbox chan protocol.Telegram
	buf   []byte

	done    chan struct{}
	errMu   sync.Mutex
	err     error
	workers *goutils.StoppableWorkers

	// stopping is set before the owner closes the connection
	stopping atomic.Bool

	frames     atomic.Uint64
	dropped    atomic.Uint64
	overflowed atomic.Uint64
}

// New starts monitoring conn. The returned Monitor must be closed.
func New(conn Reader, logger logging.Logger, opts Options) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}
	m := &Monitor{
		conn:   conn,
		logger: logger,
		poll:   opts.PollInterval,
		inbox:  make(chan protocol.Telegram, opts.InboxSize),
		done:   make(chan struct{}),
	}
	m.workers = goutils.NewBackgroundStoppableWorkers(m.run)
	return m
}

// Telegrams is the inbox. Telegrams arrive in the order their frames completed on the wire.
func (m *Monitor) Telegrams() <-chan protocol.Telegram {
	return m.inbox
}

// Done is closed when the loop has exited, either because of Close or a fatal read error.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Err returns the error that stopped the loop, if any.
func (m *Monitor) Err() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.err
}

// Stats returns a snapshot of the counters.
func (m *Monitor) Stats() Stats {
	return Stats{
		Frames:     m.frames.Load(),
		Dropped:    m.dropped.Load(),
		Overflowed: m.overflowed.Load(),
	}
}

// Close stops the loop and waits for it to exit. The loop notices within one poll interval, or
// immediately if the connection has been closed.
func (m *Monitor) Close() {
	m.workers.Stop()
}

// Shutdown tells the loop that the connection is about to be closed locally, without waiting for
// it to exit. The read failure that follows ends the loop quietly.
func (m *Monitor) Shutdown() {
	m.stopping.Store(true)
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	for {
		if ctx.Err() != nil {
			m.setErr(errors.Wrap(protocol.ErrIO, "monitor stopped"))
			return
		}
		data, err := m.conn.ReadAvailable(m.poll)
		if err != nil {
			if errors.Is(err, protocol.ErrTimeout) {
				continue
			}
			if ctx.Err() != nil || m.stopping.Load() {
				m.setErr(errors.Wrap(protocol.ErrIO, "monitor stopped"))
				return
			}
			m.logger.Warnw("connection failed, monitor exiting", "error", err)
			m.setErr(err)
			return
		}
		m.buf = append(m.buf, data...)
		m.drain()
	}
}

// drain extracts every complete frame currently buffered.
func (m *Monitor) drain() {
	for len(m.buf) > 0 {
		payload, n, err := protocol.Extract(m.buf)
		m.buf = m.buf[n:]
		if err != nil {
			m.dropped.Inc()
			m.logger.Debugw("dropping frame", "error", err)
			continue
		}
		if payload == nil {
			break
		}
		m.frames.Inc()
		m.push(protocol.Classify(payload))
	}
	if len(m.buf) == 0 {
		m.buf = nil
	}
}

// push queues tel, evicting the oldest queued telegram when the inbox is full. The loop is the
// only sender, so at most one eviction is needed unless a reader races it.
func (m *Monitor) push(tel protocol.Telegram) {
	for {
		select {
		case m.inbox <- tel:
			return
		default:
		}
		select {
		case old := <-m.inbox:
			m.overflowed.Inc()
			m.logger.Debugw("inbox full, dropping oldest telegram", "telegram", old.String())
		default:
		}
	}
}

func (m *Monitor) setErr(err error) {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	if m.err == nil {
		m.err = err
	}
}
