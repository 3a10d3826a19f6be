// Package nav350 is the host driver of the SICK NAV350 navigation laser scanner.
//
// A Device owns one connection. Initialize dials the scanner, starts the background monitor that
// turns the byte stream into telegrams and confirms the scanner is alive by reading its
// identity. Every operation after that is a single request/reply transaction; operations are
// serialized by the device.
package nav350

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/sicknav/logging"
	"go.viam.com/sicknav/monitor"
	"go.viam.com/sicknav/transaction"
	"go.viam.com/sicknav/transport"
)

// State is the session state of a Device.
type State int

// The session states. A device is Idle after Initialize until an operating mode is set.
const (
	StateDisconnected State = iota
	StateIdle
	StateStandby
	StateMapping
	StateLandmarkDetection
	StateNavigation
	StatePowerdown
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateIdle:
		return "idle"
	case StateStandby:
		return "standby"
	case StateMapping:
		return "mapping"
	case StateLandmarkDetection:
		return "landmark detection"
	case StateNavigation:
		return "navigation"
	case StatePowerdown:
		return "powerdown"
	default:
		return "unknown"
	}
}

// Mode is an operating mode of the scanner, as sent with mNEVAChangeState.
type Mode int

// The operating modes.
const (
	ModePowerdown Mode = iota
	ModeStandby
	ModeMapping
	ModeLandmarkDetection
	ModeNavigation
)

var modeNames = map[Mode]string{
	ModePowerdown:         "powerdown",
	ModeStandby:           "standby",
	ModeMapping:           "mapping",
	ModeLandmarkDetection: "landmark",
	ModeNavigation:        "navigation",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMode returns the mode named s, as printed by Mode.String.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown operating mode %q", s)
}

func (m Mode) state() State {
	switch m {
	case ModePowerdown:
		return StatePowerdown
	case ModeStandby:
		return StateStandby
	case ModeMapping:
		return StateMapping
	case ModeLandmarkDetection:
		return StateLandmarkDetection
	case ModeNavigation:
		return StateNavigation
	default:
		return StateIdle
	}
}

// Identity is what the scanner reports about itself at initialization.
type Identity struct {
	Name            string `mapstructure:"name"`
	Version         string `mapstructure:"version"`
	SerialNumber    string `mapstructure:"serial_number"`
	FirmwareVersion string `mapstructure:"firmware_version"`
	DeviceInfo      string `mapstructure:"device_info"`
}

// A Dialer opens the connection described by cfg.
type Dialer func(ctx context.Context, cfg Config, logger logging.Logger) (transport.Conn, error)

// An Option configures a Device.
type Option func(*Device)

// WithDialer replaces how the device connects.
func WithDialer(dial Dialer) Option {
	return func(d *Device) {
		d.dial = dial
	}
}

// WithClock replaces the clock used for reply deadlines.
func WithClock(c clock.Clock) Option {
	return func(d *Device) {
		d.clock = c
	}
}

// Device is a session with one NAV350.
type Device struct {
	cfg          Config
	logger       logging.Logger
	dial         Dialer
	clock        clock.Clock
	replyTimeout time.Duration

	// mu serializes operations and is held for the whole of a transaction.
	mu sync.Mutex

	// linkMu guards conn and mon so teardown can reach them while a transaction holds mu.
	// Writers hold both locks.
	linkMu      sync.Mutex
	interrupted bool

	conn      transport.Conn
	mon       *monitor.Monitor
	tr        *transaction.Transactor
	state     State
	mode      Mode
	modeKnown bool
	identity  Identity
	step      float64
}

// NewDevice returns a disconnected device for cfg.
func NewDevice(cfg Config, logger logging.Logger, opts ...Option) (*Device, error) {
	if _, err := cfg.Validate("nav350"); err != nil {
		return nil, err
	}
	cfg.populateDefaults()
	d := &Device{
		cfg:          cfg,
		logger:       logger,
		dial:         dialConfig,
		clock:        clock.New(),
		replyTimeout: time.Duration(cfg.ReplyTimeoutMs) * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func dialConfig(ctx context.Context, cfg Config, logger logging.Logger) (transport.Conn, error) {
	if cfg.SerialPath != "" {
		conn, err := transport.OpenSerial(cfg.SerialPath, transport.SerialOptions{BaudRate: cfg.BaudRate}, logger)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	conn, err := transport.DialTCP(ctx, cfg.Host, cfg.Port, time.Duration(cfg.ConnectTimeoutMs)*time.Millisecond, logger)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Initialize connects to the scanner and reads its identity. The operating mode is left as the
// scanner has it and reported as unknown until SetOperatingMode.
func (d *Device) Initialize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateDisconnected {
		return ErrAlreadyInitialized
	}

	conn, err := d.dial(ctx, d.cfg, d.logger.Sublogger("transport"))
	if err != nil {
		return errors.Wrap(err, "connecting to nav350")
	}
	mon := monitor.New(conn, d.logger.Sublogger("monitor"), monitor.Options{
		PollInterval: time.Duration(d.cfg.PollIntervalMs) * time.Millisecond,
	})
	d.linkMu.Lock()
	d.conn = conn
	d.mon = mon
	d.interrupted = false
	d.linkMu.Unlock()
	d.tr = transaction.New(conn, d.mon, d.logger.Sublogger("transaction"), transaction.WithClock(d.clock))
	d.state = StateIdle
	d.modeKnown = false

	ident, err := d.execute(ctx, "DeviceIdent")
	if err != nil {
		err = errors.Wrap(err, "reading device identity")
		return multierr.Combine(err, d.teardown())
	}
	d.identity = Identity{}
	if err := DecodeResult(ident, &d.identity); err != nil {
		return multierr.Combine(err, d.teardown())
	}
	for _, name := range []string{"SerialNumber", "FirmwareVersion", "DeviceInfo"} {
		res, err := d.execute(ctx, name)
		if err != nil {
			d.logger.Warnw("could not read device identity field", "command", name, "error", err)
			continue
		}
		if err := DecodeResult(res, &d.identity); err != nil {
			d.logger.Warnw("could not decode device identity field", "command", name, "error", err)
		}
	}
	d.logger.Infow("initialized", "name", d.identity.Name, "version", d.identity.Version,
		"serial_number", d.identity.SerialNumber)
	return nil
}

// Uninitialize asks the scanner to stop any running asynchronous method, then closes the
// connection and stops the monitor whatever the outcome of that request. If another operation is
// waiting for the scanner, the connection is closed at once so that operation fails with
// protocol.ErrIO, and no stop request is sent. It is a no-op on a disconnected device.
func (d *Device) Uninitialize(ctx context.Context) error {
	if !d.mu.TryLock() {
		err := d.interrupt()
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.state == StateDisconnected {
			return err
		}
		err = multierr.Combine(err, d.teardown())
		d.logger.Info("uninitialized")
		return err
	}
	defer d.mu.Unlock()
	if d.state == StateDisconnected {
		return nil
	}
	if _, err := d.execute(ctx, "BreakAsyncCall"); err != nil {
		d.logger.Warnw("could not stop asynchronous calls", "error", err)
	}
	err := d.teardown()
	d.logger.Info("uninitialized")
	return err
}

// Close uninitializes the device.
func (d *Device) Close(ctx context.Context) error {
	return d.Uninitialize(ctx)
}

// interrupt closes the connection without waiting for mu, which makes the monitor exit and any
// pending transaction fail. It returns the error the monitor had already died with, if any.
func (d *Device) interrupt() error {
	d.linkMu.Lock()
	defer d.linkMu.Unlock()
	if d.interrupted || d.conn == nil {
		return nil
	}
	d.interrupted = true
	var err error
	select {
	case <-d.mon.Done():
		// the loop died before teardown; report why
		err = d.mon.Err()
	default:
	}
	d.mon.Shutdown()
	return multierr.Combine(err, d.conn.Close())
}

// teardown closes the connection first so a blocked read returns, then stops the monitor.
// The caller holds mu.
func (d *Device) teardown() error {
	err := d.interrupt()
	if d.mon != nil {
		d.mon.Close()
	}
	d.linkMu.Lock()
	d.conn = nil
	d.mon = nil
	d.interrupted = false
	d.linkMu.Unlock()
	d.tr = nil
	d.state = StateDisconnected
	d.modeKnown = false
	return err
}

// transactor returns the running transactor. The caller holds mu.
func (d *Device) transactor() (*transaction.Transactor, error) {
	if d.state == StateDisconnected || d.tr == nil {
		return nil, ErrNotInitialized
	}
	return d.tr, nil
}

// SetOperatingMode switches the scanner to mode. On failure the tracked mode is unchanged.
func (d *Device) SetOperatingMode(ctx context.Context, mode Mode) error {
	if _, ok := modeNames[mode]; !ok {
		return errors.Errorf("invalid operating mode %d", mode)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.execute(ctx, "SetOperatingMode", int(mode)); err != nil {
		return errors.Wrapf(err, "changing to %s mode", mode)
	}
	d.mode = mode
	d.modeKnown = true
	d.state = mode.state()
	d.logger.Infow("operating mode changed", "mode", mode.String())
	return nil
}

// State returns the session state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Mode returns the operating mode last set, and false if none was set in this session.
func (d *Device) Mode() (Mode, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode, d.modeKnown
}

// Identity returns what the scanner reported at initialization.
func (d *Device) Identity() Identity {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.identity
}

// MonitorStats returns the monitor counters, or zero values on a disconnected device.
func (d *Device) MonitorStats() monitor.Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mon == nil {
		return monitor.Stats{}
	}
	return d.mon.Stats()
}
