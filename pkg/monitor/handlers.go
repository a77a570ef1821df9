package monitor

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmslink/pkg/events"
	"github.com/charlie0129/bmslink/pkg/protocol"
	"github.com/charlie0129/bmslink/pkg/session"
	"github.com/charlie0129/bmslink/pkg/telemetry"
	"github.com/charlie0129/bmslink/pkg/types"
)

// OnConnected sends the handshake: presence probe, device config, wall
// clock, stored batteries and the auto-detect preference.
func (m *Monitor) OnConnected() {
	m.Send(protocol.RequestPresence())
	m.Send(protocol.GetConfig())
	m.Send(protocol.SetTime(m.now()))
	m.Send(protocol.ListBatteries())
	m.Send(protocol.SetAutoDetect(m.conf.AutoDetect()))
}

func (m *Monitor) OnFrame(frame []byte) {
	m.ch.OnMessage(frame)
}

func (m *Monitor) OnStateChange(from, to session.State, attempts int) {
	if to == session.GivenUp {
		logrus.WithField("attempts", attempts).Error("device unreachable, use connect to try again")
	}

	m.publish(events.SessionState, events.SessionStateEvent{
		From:     from.String(),
		To:       to.String(),
		Attempts: attempts,
		Ts:       m.now(),
	})
}

func (m *Monitor) OnStaticData(msg protocol.StaticData) {
	if msg.Features != nil {
		f := *msg.Features
		m.mu.Lock()
		m.features = &f
		m.mu.Unlock()
	}

	logrus.WithFields(logrus.Fields{
		"model": msg.Data.Model,
		"romID": msg.Data.RomID,
		"cells": len(msg.Data.CellVoltages),
	}).Info("battery identified")

	m.store.ApplyStatic(msg.Data)
}

func (m *Monitor) OnDynamicData(msg protocol.DynamicData) {
	err := m.store.ApplyDynamic(msg.Data)
	if errors.Is(err, telemetry.ErrOutOfRange) {
		m.publish(events.Rejected, events.RejectedEvent{Reason: err.Error(), Ts: m.now()})
	}
}

// onSnapshot runs after every successful apply with a private copy of the
// new snapshot, so diagnostics and history see the same value.
func (m *Monitor) onSnapshot(s *types.BatterySnapshot) {
	diag := m.engine.Compute(s)

	if len(s.CellVoltages) > 0 {
		m.buffer.Append(types.HistorySample{
			Timestamp:    m.clock.Now(),
			CellVoltages: s.CellVoltages,
		})
	}

	m.mu.Lock()
	m.diag = diag
	var features *types.Features
	if m.features != nil {
		f := *m.features
		features = &f
	}
	m.mu.Unlock()

	m.publish(events.Snapshot, events.SnapshotEvent{
		Snapshot:    s,
		Diagnostics: diag,
		Features:    features,
		Ts:          m.now(),
	})
}

func (m *Monitor) OnPresence(present bool) {
	if !m.sess.SetPresence(present) {
		return
	}

	logrus.WithField("present", present).Debug("presence updated")

	if !present {
		m.store.Clear()
		m.buffer.Clear()
		m.mu.Lock()
		m.diag = nil
		m.features = nil
		m.mu.Unlock()

		m.Send(protocol.ListBatteries())
	}

	m.publish(events.Presence, events.PresenceEvent{Present: present, Ts: m.now()})
}

func (m *Monitor) OnNotification(kind protocol.Kind, message string) {
	entry := logrus.WithField("message", message)
	if kind == protocol.KindError {
		entry.Warn("device reported an error")
	} else {
		entry.Info("device reported success")
	}

	m.publish(events.Notification, events.NotificationEvent{
		Level:   string(kind),
		Message: message,
		Ts:      m.now(),
	})
}

func (m *Monitor) OnDebug(message string) {
	logrus.WithField("source", "device").Debug(message)
	m.publish(events.Debug, events.DebugEvent{Message: message, Ts: m.now()})
}

// OnConfig adopts the language and theme stored on the device.
func (m *Monitor) OnConfig(msg protocol.Config) {
	if m.adoptPreferences(msg.Lang, msg.Theme) {
		if err := m.conf.Save(); err != nil {
			logrus.WithError(err).Warn("failed to save preferences")
		}
	}

	m.publish(events.Config, events.ConfigEvent{Lang: m.conf.Lang(), Theme: m.conf.Theme()})
}

func (m *Monitor) OnWifiStatus(s types.WifiStatus) {
	m.mu.Lock()
	m.wifiStatus = &s
	m.mu.Unlock()

	m.publish(events.WifiStatus, s)
}

func (m *Monitor) OnBatteryList(entries []types.BatteryListEntry) {
	m.mu.Lock()
	m.batteries = append([]types.BatteryListEntry(nil), entries...)
	m.mu.Unlock()

	m.publish(events.BatteryList, entries)
}

func (m *Monitor) OnBatteryHistory(h types.LongTermHistory) {
	m.longTerm.Replace(&h)

	logrus.WithFields(logrus.Fields{
		"romID":   h.RomID,
		"records": len(h.Records),
	}).Debug("long-term history received")

	m.publish(events.BatteryHistory, m.longTerm.Get())
}

func (m *Monitor) OnWifiList(networks []types.WifiNetwork) {
	m.mu.Lock()
	m.wifiNetworks = append([]types.WifiNetwork(nil), networks...)
	m.mu.Unlock()

	m.publish(events.WifiList, networks)
}
