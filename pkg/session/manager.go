package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmslink/pkg/utils/clock"
)

// Conn is one open transport connection.
type Conn interface {
	// ReadFrame blocks until the next frame arrives or the connection
	// fails.
	ReadFrame() ([]byte, error)
	WriteFrame(frame []byte) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Hooks are called from the event loop goroutine.
type Hooks interface {
	// OnConnected runs right after the manager enters Connected. Frames
	// written from here go out before any inbound frame is handled.
	OnConnected()
	OnFrame(frame []byte)
	OnStateChange(from, to State, attempts int)
}

type Options struct {
	URL    string
	Dialer Dialer
	Hooks  Hooks
	// Clock defaults to the real clock.
	Clock clock.Clock
}

// Manager keeps one session with the device alive. All state changes
// happen on the goroutine running Run, in the order the transport
// delivers events.
type Manager struct {
	url    string
	dialer Dialer
	hooks  Hooks
	clock  clock.Clock

	// spawn starts the dial. Tests replace it to dial inline.
	spawn func(func())

	events chan event
	done   chan struct{}
	ctx    context.Context

	// mu guards the fields read by other goroutines.
	mu       sync.RWMutex
	state    State
	attempts int
	present  bool
	conn     Conn

	writeMu sync.Mutex

	// Owned by the event loop.
	dialSeq    uint64
	dialCancel context.CancelFunc
	retryToken uint64
	retryTimer clock.Timer
}

type event interface{}

type (
	connectRequest struct{}
	closeRequest   struct{}
	dialResult     struct {
		seq  uint64
		conn Conn
		err  error
	}
	frameReceived struct {
		conn Conn
		data []byte
	}
	connClosed struct {
		conn Conn
		err  error
	}
	retryFired struct {
		token uint64
	}
)

func NewManager(opts Options) *Manager {
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}
	return &Manager{
		url:    opts.URL,
		dialer: opts.Dialer,
		hooks:  opts.Hooks,
		clock:  c,
		spawn:  func(f func()) { go f() },
		events: make(chan event, 64),
		done:   make(chan struct{}),
		ctx:    context.Background(),
		state:  Disconnected,
	}
}

// Run processes session events until ctx is done, then tears the session
// down.
func (m *Manager) Run(ctx context.Context) error {
	m.ctx = ctx
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			m.handle(closeRequest{})
			return nil
		case ev := <-m.events:
			m.handle(ev)
		}
	}
}

// Connect starts a connection attempt. It is ignored while connecting or
// connected. From GivenUp it resets the failure counter.
func (m *Manager) Connect() {
	m.post(connectRequest{})
}

// Close tears the connection down without scheduling a retry.
func (m *Manager) Close() {
	m.post(closeRequest{})
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Attempts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attempts
}

// Present reports whether the device last said a battery is on its bus.
func (m *Manager) Present() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.present
}

// SetPresence records the device's presence report. Reports are only
// accepted while connected.
func (m *Manager) SetPresence(present bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Connected {
		logrus.WithField("present", present).Debug("ignoring presence while not connected")
		return false
	}
	m.present = present
	return true
}

// Connected reports whether frames can be written.
func (m *Manager) Connected() bool {
	return m.State() == Connected
}

// WriteFrame writes one frame to the current connection. It is safe to
// call from any goroutine.
func (m *Manager) WriteFrame(frame []byte) error {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.WriteFrame(frame)
}

func (m *Manager) post(ev event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

func (m *Manager) handle(ev event) {
	switch e := ev.(type) {
	case connectRequest:
		m.handleConnect()
	case closeRequest:
		m.handleClose()
	case dialResult:
		m.handleDialResult(e)
	case frameReceived:
		m.handleFrame(e)
	case connClosed:
		m.handleConnClosed(e)
	case retryFired:
		m.handleRetry(e)
	default:
		logrus.Warnf("unknown session event %T", ev)
	}
}

func (m *Manager) handleConnect() {
	state := m.State()
	if state == Connecting || state == Connected {
		logrus.WithField("state", state).Debug("connect ignored")
		return
	}

	if state == GivenUp {
		m.mu.Lock()
		m.attempts = 0
		m.mu.Unlock()
	}

	m.transition(Connecting)
	m.dial()
}

func (m *Manager) handleClose() {
	m.cancelRetry()
	m.cancelDial()

	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			logrus.WithError(err).Debug("failed to close connection")
		}
	}

	if m.State() != Disconnected {
		m.transition(Disconnected)
	}
}

func (m *Manager) handleDialResult(r dialResult) {
	if r.seq != m.dialSeq || m.State() != Connecting {
		logrus.WithField("seq", r.seq).Debug("discarding stale dial result")
		if r.conn != nil {
			_ = r.conn.Close()
		}
		return
	}
	m.dialCancel()
	m.dialCancel = nil

	if r.err != nil {
		logrus.WithError(r.err).WithField("url", m.url).Info("failed to connect")
		m.lost()
		return
	}

	m.mu.Lock()
	m.conn = r.conn
	m.attempts = 0
	m.mu.Unlock()

	m.transition(Connected)
	logrus.WithField("url", m.url).Info("connected")

	go m.read(r.conn)

	m.hooks.OnConnected()
}

func (m *Manager) handleFrame(f frameReceived) {
	if !m.isCurrent(f.conn) {
		return
	}
	m.hooks.OnFrame(f.data)
}

func (m *Manager) handleConnClosed(c connClosed) {
	if !m.isCurrent(c.conn) {
		return
	}

	m.mu.Lock()
	m.conn = nil
	m.mu.Unlock()
	_ = c.conn.Close()

	logrus.WithError(c.err).Info("connection lost")
	m.lost()
}

func (m *Manager) handleRetry(r retryFired) {
	if r.token != m.retryToken || m.State() != Disconnected {
		logrus.WithField("token", r.token).Debug("ignoring stale retry")
		return
	}
	m.retryTimer = nil

	m.transition(Connecting)
	m.dial()
}

// lost moves to Disconnected and arms a retry, or gives up once the
// failure budget is spent.
func (m *Manager) lost() {
	m.transition(Disconnected)

	attempts := m.Attempts()
	if attempts >= MaxAttempts {
		logrus.WithField("attempts", attempts).Error("max reconnect attempts reached, giving up")
		m.transition(GivenUp)
		return
	}

	if m.retryTimer != nil {
		return
	}

	delay := ReconnectDelay(attempts)
	m.mu.Lock()
	m.attempts++
	m.mu.Unlock()

	m.retryToken++
	token := m.retryToken
	m.retryTimer = m.clock.AfterFunc(delay, func() {
		m.post(retryFired{token: token})
	})

	logrus.WithFields(logrus.Fields{
		"delay":    delay,
		"attempts": attempts + 1,
		"max":      MaxAttempts,
	}).Info("reconnect scheduled")
}

func (m *Manager) transition(to State) {
	m.mu.Lock()
	from := m.state
	m.state = to
	if to != Connected {
		m.present = false
	}
	attempts := m.attempts
	m.mu.Unlock()

	if from == Disconnected && to != Disconnected {
		m.cancelRetry()
	}

	logrus.WithFields(logrus.Fields{
		"from":     from,
		"to":       to,
		"attempts": attempts,
	}).Debug("session state changed")

	m.hooks.OnStateChange(from, to, attempts)
}

// cancelRetry invalidates the outstanding retry token, if any.
func (m *Manager) cancelRetry() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	m.retryToken++
}

func (m *Manager) cancelDial() {
	m.dialSeq++
	if m.dialCancel != nil {
		m.dialCancel()
		m.dialCancel = nil
	}
}

func (m *Manager) dial() {
	m.cancelDial()
	seq := m.dialSeq

	ctx, cancel := context.WithCancel(m.ctx)
	m.dialCancel = cancel

	m.spawn(func() {
		conn, err := m.dialer.Dial(ctx, m.url)
		m.post(dialResult{seq: seq, conn: conn, err: err})
	})
}

func (m *Manager) read(conn Conn) {
	for {
		data, err := conn.ReadFrame()
		if err != nil {
			m.post(connClosed{conn: conn, err: err})
			return
		}
		m.post(frameReceived{conn: conn, data: data})
	}
}

func (m *Manager) isCurrent(conn Conn) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return conn != nil && conn == m.conn
}
