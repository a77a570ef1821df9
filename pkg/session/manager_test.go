package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/bmslink/pkg/utils/clock"
)

type fakeConn struct {
	in      chan []byte
	closed  chan struct{}
	once    sync.Once
	mu      sync.Mutex
	written []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 8), closed: make(chan struct{})}
}

func (c *fakeConn) ReadFrame() ([]byte, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteFrame(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, string(frame))
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeDialer struct {
	mu    sync.Mutex
	fail  bool
	calls int
	conns []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.fail {
		return nil, errors.New("connection refused")
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) setFail(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = fail
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

type recordingHooks struct {
	mu        sync.Mutex
	connected int
	frames    []string
	states    []State
	onConnect func()
}

func (h *recordingHooks) OnConnected() {
	h.mu.Lock()
	h.connected++
	f := h.onConnect
	h.mu.Unlock()
	if f != nil {
		f()
	}
}

func (h *recordingHooks) OnFrame(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, string(frame))
}

func (h *recordingHooks) OnStateChange(from, to State, attempts int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, to)
}

func newTestManager() (*Manager, *fakeDialer, *recordingHooks, *clock.Fake) {
	d := &fakeDialer{}
	h := &recordingHooks{}
	c := clock.NewFake(time.Unix(1700000000, 0))
	m := NewManager(Options{URL: "ws://bms.local/ws", Dialer: d, Hooks: h, Clock: c})
	m.spawn = func(f func()) { f() }
	return m, d, h, c
}

// drain handles every event already queued.
func drain(m *Manager) {
	for {
		select {
		case ev := <-m.events:
			m.handle(ev)
		default:
			return
		}
	}
}

// next waits for one event posted by a reader goroutine and handles it.
func next(t *testing.T, m *Manager) {
	t.Helper()
	select {
	case ev := <-m.events:
		m.handle(ev)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for session event")
	}
}

func TestReconnectDelay(t *testing.T) {
	for attempts := 0; attempts <= 7; attempts++ {
		assert.Equal(t, time.Duration(2000+attempts*1000)*time.Millisecond, ReconnectDelay(attempts), "attempts=%d", attempts)
	}
	for _, attempts := range []int{8, 9, 20, 49, 50, 100} {
		assert.Equal(t, 10*time.Second, ReconnectDelay(attempts), "attempts=%d", attempts)
	}
}

func TestConnect(t *testing.T) {
	m, d, h, _ := newTestManager()

	m.Connect()
	drain(m)

	assert.Equal(t, Connected, m.State())
	assert.Equal(t, 0, m.Attempts())
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, 1, h.connected)
	assert.Equal(t, []State{Connecting, Connected}, h.states)

	m.Connect()
	drain(m)
	assert.Equal(t, 1, d.calls)
}

func TestHandshakeWritesBeforeFrames(t *testing.T) {
	m, d, h, _ := newTestManager()
	h.onConnect = func() {
		require.NoError(t, m.WriteFrame([]byte(`{"command":"presence"}`)))
	}

	m.Connect()
	drain(m)

	assert.Equal(t, []string{`{"command":"presence"}`}, d.last().written)
}

func TestDialFailureSchedulesRetry(t *testing.T) {
	m, d, _, clk := newTestManager()
	d.setFail(true)

	m.Connect()
	drain(m)

	assert.Equal(t, Disconnected, m.State())
	assert.Equal(t, 1, m.Attempts())
	assert.Equal(t, 1, clk.Pending())

	clk.Advance(1999 * time.Millisecond)
	drain(m)
	assert.Equal(t, 1, d.calls)

	clk.Advance(time.Millisecond)
	drain(m)
	assert.Equal(t, 2, d.calls)
	assert.Equal(t, Disconnected, m.State())
	assert.Equal(t, 2, m.Attempts())
	assert.Equal(t, 1, clk.Pending())

	d.setFail(false)
	clk.Advance(3 * time.Second)
	drain(m)
	assert.Equal(t, Connected, m.State())
	assert.Equal(t, 0, m.Attempts())
	assert.Equal(t, 0, clk.Pending())
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	m, d, h, clk := newTestManager()
	d.setFail(true)

	m.Connect()
	drain(m)
	for i := 0; i < MaxAttempts; i++ {
		require.Equal(t, Disconnected, m.State())
		require.Equal(t, 1, clk.Pending())
		clk.Advance(ReconnectDelay(i))
		drain(m)
	}

	assert.Equal(t, GivenUp, m.State())
	assert.Equal(t, MaxAttempts+1, d.calls)
	assert.Equal(t, 0, clk.Pending())
	assert.Equal(t, GivenUp, h.states[len(h.states)-1])

	clk.Advance(time.Hour)
	drain(m)
	assert.Equal(t, MaxAttempts+1, d.calls)

	d.setFail(false)
	m.Connect()
	drain(m)
	assert.Equal(t, Connected, m.State())
	assert.Equal(t, 0, m.Attempts())
}

func TestStaleRetryIgnored(t *testing.T) {
	m, d, _, clk := newTestManager()
	d.setFail(true)

	m.Connect()
	drain(m)
	require.Equal(t, 1, clk.Pending())
	stale := m.retryToken

	d.setFail(false)
	m.Connect()
	drain(m)
	require.Equal(t, Connected, m.State())
	assert.Equal(t, 0, clk.Pending())

	m.handle(retryFired{token: stale})
	drain(m)
	assert.Equal(t, Connected, m.State())
	assert.Equal(t, 2, d.calls)
}

func TestConnectionLostSchedulesRetry(t *testing.T) {
	m, d, h, clk := newTestManager()

	m.Connect()
	drain(m)
	conn := d.last()

	conn.in <- []byte("a")
	conn.in <- []byte("b")
	next(t, m)
	next(t, m)
	assert.Equal(t, []string{"a", "b"}, h.frames)

	require.NoError(t, conn.Close())
	next(t, m)

	assert.Equal(t, Disconnected, m.State())
	assert.Equal(t, 1, m.Attempts())
	assert.Equal(t, 1, clk.Pending())
	assert.ErrorIs(t, m.WriteFrame([]byte("x")), ErrNotConnected)

	clk.Advance(2 * time.Second)
	drain(m)
	assert.Equal(t, Connected, m.State())
	assert.Equal(t, 2, d.calls)
}

func TestClose(t *testing.T) {
	m, d, _, clk := newTestManager()

	m.Connect()
	drain(m)
	conn := d.last()

	m.Close()
	drain(m)

	assert.Equal(t, Disconnected, m.State())
	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, clk.Pending())

	// a late close report for the old connection changes nothing
	m.handle(connClosed{conn: conn, err: io.EOF})
	assert.Equal(t, Disconnected, m.State())
	assert.Equal(t, 0, clk.Pending())
}

func TestPresence(t *testing.T) {
	m, _, _, _ := newTestManager()

	assert.False(t, m.SetPresence(true))
	assert.False(t, m.Present())

	m.Connect()
	drain(m)

	assert.True(t, m.SetPresence(true))
	assert.True(t, m.Present())
	assert.True(t, m.SetPresence(false))
	assert.False(t, m.Present())
	assert.True(t, m.SetPresence(true))

	m.Close()
	drain(m)
	assert.False(t, m.Present())
}

func TestWriteFrame(t *testing.T) {
	m, d, _, _ := newTestManager()

	assert.ErrorIs(t, m.WriteFrame([]byte("x")), ErrNotConnected)
	assert.False(t, m.Connected())

	m.Connect()
	drain(m)

	assert.True(t, m.Connected())
	require.NoError(t, m.WriteFrame([]byte("x")))
	assert.Equal(t, []string{"x"}, d.last().written)
}

func TestRun(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(Options{URL: "ws://bms.local/ws", Dialer: d, Hooks: &recordingHooks{}})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()

	m.Connect()
	require.Eventually(t, func() bool { return m.State() == Connected }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, Disconnected, m.State())
	assert.True(t, d.last().isClosed())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "given_up", GivenUp.String())
}

func TestStateText(t *testing.T) {
	for _, s := range []State{Disconnected, Connecting, Connected, GivenUp} {
		b, err := s.MarshalText()
		require.NoError(t, err)

		var got State
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}

	var s State
	assert.Error(t, s.UnmarshalText([]byte("sleeping")))
}
