// Package monitor ties the session, the protocol channel and the derived
// state together. It is the single owner of the telemetry store, the
// history buffers and the device caches, and the only thing render layers
// talk to.
package monitor

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmslink/pkg/channel"
	"github.com/charlie0129/bmslink/pkg/config"
	"github.com/charlie0129/bmslink/pkg/diagnostics"
	"github.com/charlie0129/bmslink/pkg/events"
	"github.com/charlie0129/bmslink/pkg/history"
	"github.com/charlie0129/bmslink/pkg/poller"
	"github.com/charlie0129/bmslink/pkg/protocol"
	"github.com/charlie0129/bmslink/pkg/session"
	"github.com/charlie0129/bmslink/pkg/telemetry"
	"github.com/charlie0129/bmslink/pkg/types"
	"github.com/charlie0129/bmslink/pkg/utils/clock"
)

type Options struct {
	URL    string
	Dialer session.Dialer
	Config config.Config
	// Hub may be nil.
	Hub *events.Hub
	// Estimator defaults to diagnostics.DefaultEstimator.
	Estimator       diagnostics.Estimator
	HistoryCapacity int
	Clock           clock.Clock
}

// sessionControl is the part of session.Manager the monitor drives.
type sessionControl interface {
	Run(ctx context.Context) error
	Connect()
	Close()
	State() session.State
	Attempts() int
	Present() bool
	SetPresence(present bool) bool
}

type commandChannel interface {
	Send(cmd protocol.Command) bool
	OnMessage(frame []byte)
}

type Monitor struct {
	url    string
	conf   config.Config
	hub    *events.Hub
	engine *diagnostics.Engine
	clock  clock.Clock

	store    *telemetry.Store
	buffer   *history.Buffer
	longTerm *history.LongTermView

	sess   sessionControl
	ch     commandChannel
	poller *poller.Poller

	mu           sync.RWMutex
	diag         *diagnostics.Result
	features     *types.Features
	batteries    []types.BatteryListEntry
	wifiStatus   *types.WifiStatus
	wifiNetworks []types.WifiNetwork
}

var (
	_ channel.Handler = (*Monitor)(nil)
	_ session.Hooks   = (*Monitor)(nil)
)

func New(opts Options) *Monitor {
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}

	m := &Monitor{
		url:      opts.URL,
		conf:     opts.Config,
		hub:      opts.Hub,
		engine:   &diagnostics.Engine{Estimator: opts.Estimator},
		clock:    c,
		store:    telemetry.NewStore(),
		buffer:   history.NewBuffer(opts.HistoryCapacity),
		longTerm: history.NewLongTermView(),
	}

	mgr := session.NewManager(session.Options{
		URL:    opts.URL,
		Dialer: opts.Dialer,
		Hooks:  m,
		Clock:  c,
	})
	m.sess = mgr
	m.ch = channel.New(mgr, m)
	m.poller = poller.New(m.Poll, m.PollGate)

	m.store.Subscribe(m.onSnapshot)

	return m
}

// Run connects and keeps the session alive until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.poller.Schedule(m.conf.PollSchedule()); err != nil {
		logrus.WithError(err).WithField("schedule", m.conf.PollSchedule()).Error("invalid poll schedule, auto poll disabled")
	} else {
		m.poller.Start()
		defer m.poller.Stop()
	}

	m.sess.Connect()
	return m.sess.Run(ctx)
}

// Connect starts a new connection attempt, also out of GivenUp.
func (m *Monitor) Connect() {
	m.sess.Connect()
}

// Reset drops every piece of battery state the monitor holds. The
// session itself is left alone.
func (m *Monitor) Reset() {
	m.store.Clear()
	m.buffer.Clear()
	m.longTerm.Clear()

	m.mu.Lock()
	m.diag = nil
	m.features = nil
	m.batteries = nil
	m.wifiStatus = nil
	m.wifiNetworks = nil
	m.mu.Unlock()
}

// Send forwards cmd to the device. It reports false if the command was
// dropped because the session is not connected. Preference commands
// update the local config either way, so the next handshake repeats them.
func (m *Monitor) Send(cmd protocol.Command) bool {
	m.rememberPreference(cmd)
	return m.ch.Send(cmd)
}

// Poll requests fresh dynamic readings.
func (m *Monitor) Poll() error {
	if !m.Send(protocol.ReadDynamic()) {
		return session.ErrNotConnected
	}
	return nil
}

// PollGate reports whether auto polling should run: the session is up,
// the pack supports dynamic reads and the user enabled it.
func (m *Monitor) PollGate() bool {
	if m.sess.State() != session.Connected || !m.conf.AutoPoll() {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.features != nil && m.features.ReadDynamic
}

// SetAutoPoll stores the auto poll preference.
func (m *Monitor) SetAutoPoll(enabled bool) error {
	m.conf.SetAutoPoll(enabled)
	return m.conf.Save()
}

// ReloadConfig re-reads the preference file and applies the schedule.
func (m *Monitor) ReloadConfig() error {
	if err := m.conf.Load(); err != nil {
		return err
	}
	return m.poller.Schedule(m.conf.PollSchedule())
}

func (m *Monitor) Config() config.Config {
	return m.conf
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	var features *types.Features
	if m.features != nil {
		f := *m.features
		features = &f
	}
	m.mu.RUnlock()

	return Status{
		URL:      m.url,
		State:    m.sess.State(),
		Attempts: m.sess.Attempts(),
		Present:  m.sess.Present(),
		Features: features,
		AutoPoll: m.conf.AutoPoll(),
		Poller:   m.poller.Status(),
	}
}

func (m *Monitor) Snapshot() *types.BatterySnapshot {
	return m.store.Snapshot()
}

// Diagnostics returns the result derived from the latest snapshot.
func (m *Monitor) Diagnostics() *diagnostics.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.diag
}

func (m *Monitor) History() history.Series {
	return m.buffer.Series()
}

func (m *Monitor) Samples() []types.HistorySample {
	return m.buffer.Samples()
}

func (m *Monitor) LongTerm() *types.LongTermHistory {
	return m.longTerm.Get()
}

func (m *Monitor) Batteries() []types.BatteryListEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.BatteryListEntry(nil), m.batteries...)
}

func (m *Monitor) Wifi() Wifi {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w := Wifi{Networks: append([]types.WifiNetwork(nil), m.wifiNetworks...)}
	if m.wifiStatus != nil {
		s := *m.wifiStatus
		w.Status = &s
	}
	return w
}

// WriteReport writes a text report of the current pack.
func (m *Monitor) WriteReport(w io.Writer) error {
	s := m.store.Snapshot()
	if s == nil {
		return telemetry.ErrNoSnapshot
	}
	return diagnostics.WriteReport(w, s, m.engine.Compute(s), m.clock.Now())
}

func (m *Monitor) publish(name string, payload any) {
	m.hub.Publish(name, payload)
}

func (m *Monitor) now() int64 {
	return m.clock.Now().Unix()
}
