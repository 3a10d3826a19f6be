// Package transaction correlates requests sent to a NAV350 with the telegrams that answer them.
package transaction

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/sicknav/logging"
	"go.viam.com/sicknav/protocol"
)

// ErrRequestInFlight is returned when a request is issued while another is still waiting for its
// reply. Nothing is sent in that case.
var ErrRequestInFlight = errors.New("another request is already waiting for a reply")

// A Sender writes frames to the device.
type Sender interface {
	Send(p []byte) error
}

// An Inbox delivers classified telegrams. *monitor.Monitor is one.
type Inbox interface {
	Telegrams() <-chan protocol.Telegram
	Done() <-chan struct{}
	Err() error
}

// An Option configures a Transactor.
type Option func(*Transactor)

// WithClock replaces the clock used for reply deadlines.
func WithClock(c clock.Clock) Option {
	return func(t *Transactor) {
		t.clock = c
	}
}

// Transactor runs one request/reply exchange at a time.
type Transactor struct {
	sender Sender
	inbox  Inbox
	clock  clock.Clock
	logger logging.Logger

	mu         sync.Mutex
	pending    string
	hasPending bool
}

// New returns a Transactor sending on sender and reading replies from inbox.
func New(sender Sender, inbox Inbox, logger logging.Logger, opts ...Option) *Transactor {
	t := &Transactor{
		sender: sender,
		inbox:  inbox,
		clock:  clock.New(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Pending returns the command name of the request currently waiting for a reply.
func (t *Transactor) Pending() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending, t.hasPending
}

// Do encodes a telegram and runs it through RequestReply, expecting a reply to the same command.
func (t *Transactor) Do(
	ctx context.Context,
	kind protocol.Kind,
	command string,
	args []string,
	timeout time.Duration,
) (protocol.Telegram, error) {
	frame, err := protocol.EncodeTelegram(kind, command, args...)
	if err != nil {
		return protocol.Telegram{}, err
	}
	return t.RequestReply(ctx, frame, command, timeout)
}

// RequestReply sends frame and waits up to timeout for a response or result telegram carrying
// expectedCommand. An error telegram received meanwhile ends the wait with a
// *protocol.DeviceError. Acknowledgements of the request are skipped and any other telegram is
// discarded.
func (t *Transactor) RequestReply(
	ctx context.Context,
	frame []byte,
	expectedCommand string,
	timeout time.Duration,
) (protocol.Telegram, error) {
	if err := t.begin(expectedCommand); err != nil {
		return protocol.Telegram{}, err
	}
	defer t.end()

	select {
	case <-t.inbox.Done():
		return protocol.Telegram{}, t.inboxErr(expectedCommand)
	default:
	}
	t.sweep()

	if err := t.sender.Send(frame); err != nil {
		return protocol.Telegram{}, errors.Wrapf(err, "sending %s", expectedCommand)
	}

	timer := t.clock.Timer(timeout)
	defer timer.Stop()
	for {
		select {
		case tel := <-t.inbox.Telegrams():
			if reply, done, err := t.accept(tel, expectedCommand); done {
				return reply, err
			}
		case <-timer.C:
			return protocol.Telegram{}, errors.Wrapf(protocol.ErrTimeout, "no reply to %s after %s", expectedCommand, timeout)
		case <-t.inbox.Done():
			// the loop may have queued the reply just before exiting
			for {
				select {
				case tel := <-t.inbox.Telegrams():
					if reply, done, err := t.accept(tel, expectedCommand); done {
						return reply, err
					}
					continue
				default:
				}
				return protocol.Telegram{}, t.inboxErr(expectedCommand)
			}
		case <-ctx.Done():
			return protocol.Telegram{}, ctx.Err()
		}
	}
}

// accept reports whether tel completes the request for expectedCommand.
func (t *Transactor) accept(tel protocol.Telegram, expectedCommand string) (protocol.Telegram, bool, error) {
	switch {
	case tel.Kind == protocol.KindError:
		return tel, true, errors.Wrapf(protocol.NewDeviceError(tel.Body), "%s failed", expectedCommand)
	case tel.Kind.IsReply() && tel.Command == expectedCommand:
		return tel, true, nil
	case tel.Kind == protocol.KindAcknowledge && tel.Command == expectedCommand:
		t.logger.Debugw("request acknowledged", "command", expectedCommand)
	default:
		t.logger.Debugw("discarding unrelated telegram", "waiting_for", expectedCommand, "telegram", tel.String())
	}
	return protocol.Telegram{}, false, nil
}

func (t *Transactor) begin(command string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hasPending {
		return errors.Wrapf(ErrRequestInFlight, "cannot send %s while waiting for %s", command, t.pending)
	}
	t.pending = command
	t.hasPending = true
	return nil
}

func (t *Transactor) end() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = ""
	t.hasPending = false
}

// sweep discards telegrams that arrived before the request was sent.
func (t *Transactor) sweep() {
	for {
		select {
		case tel := <-t.inbox.Telegrams():
			t.logger.Debugw("discarding stale telegram", "telegram", tel.String())
		default:
			return
		}
	}
}

func (t *Transactor) inboxErr(command string) error {
	if err := t.inbox.Err(); err != nil {
		if errors.Is(err, protocol.ErrIO) {
			return errors.Wrapf(err, "waiting for %s", command)
		}
		return errors.Wrapf(protocol.ErrIO, "waiting for %s: %v", command, err)
	}
	return errors.Wrapf(protocol.ErrIO, "waiting for %s: connection monitor stopped", command)
}
