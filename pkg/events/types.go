package events

import (
	"encoding/json"

	"github.com/charlie0129/bmslink/pkg/diagnostics"
	"github.com/charlie0129/bmslink/pkg/types"
)

// Event names
const (
	SessionState   = "session.state"
	Snapshot       = "telemetry.snapshot"
	Rejected       = "telemetry.rejected"
	Presence       = "battery.presence"
	BatteryList    = "battery.list"
	BatteryHistory = "battery.history"
	Notification   = "device.notification"
	Debug          = "device.debug"
	Config         = "device.config"
	WifiStatus     = "wifi.status"
	WifiList       = "wifi.list"
)

// Event is one SSE event.
type Event struct {
	Name string
	Data json.RawMessage
}

type SessionStateEvent struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Attempts int    `json:"attempts"`
	Ts       int64  `json:"ts"`
}

// SnapshotEvent carries a snapshot and the diagnostics derived from that
// same snapshot.
type SnapshotEvent struct {
	Snapshot    *types.BatterySnapshot `json:"snapshot"`
	Diagnostics *diagnostics.Result    `json:"diagnostics,omitempty"`
	Features    *types.Features        `json:"features,omitempty"`
	Ts          int64                  `json:"ts"`
}

type RejectedEvent struct {
	Reason string `json:"reason"`
	Ts     int64  `json:"ts"`
}

type PresenceEvent struct {
	Present bool  `json:"present"`
	Ts      int64 `json:"ts"`
}

// NotificationEvent is a success or error message reported by the device.
type NotificationEvent struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Ts      int64  `json:"ts"`
}

type DebugEvent struct {
	Message string `json:"message"`
	Ts      int64  `json:"ts"`
}

type ConfigEvent struct {
	Lang  string `json:"lang,omitempty"`
	Theme string `json:"theme,omitempty"`
}

// DecodeAs unmarshals the payload of e into T. An empty payload yields
// the zero value.
//
//	p, err := events.DecodeAs[events.PresenceEvent](ev)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
