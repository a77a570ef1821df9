package protocol

import (
	"encoding/json"
	"errors"
	"slices"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/bmslink/pkg/types"
)

// Kind is the discriminator of an inbound message.
type Kind string

const (
	KindStaticData     Kind = "static_data"
	KindDynamicData    Kind = "dynamic_data"
	KindPresence       Kind = "presence"
	KindSuccess        Kind = "success"
	KindError          Kind = "error"
	KindDebug          Kind = "debug"
	KindConfig         Kind = "config"
	KindWifiStatus     Kind = "wifi_status"
	KindBatteryList    Kind = "battery_list"
	KindBatteryHistory Kind = "battery_history"
	KindWifiList       Kind = "wifi_list"
)

// ErrMalformed is returned for frames that are not a valid message.
var ErrMalformed = errors.New("malformed message")

// Message is one decoded inbound frame. The concrete type is one of the
// types below; Unknown carries kinds this client does not understand.
type Message interface {
	Kind() Kind
}

type StaticData struct {
	Data     *types.BatterySnapshot `json:"data"`
	Features *types.Features        `json:"features,omitempty"`
}

type DynamicData struct {
	Data *types.SnapshotPatch `json:"data"`
}

type Presence struct {
	Present *bool `json:"present"`
}

// Success, Error and Debug carry a human readable text.
type Success struct {
	Message string `json:"message"`
}

type Error struct {
	Message string `json:"message"`
}

type Debug struct {
	Message string `json:"message"`
}

// Config holds the UI preferences stored on the device.
type Config struct {
	Lang  *string `json:"lang,omitempty"`
	Theme *string `json:"theme,omitempty"`
}

type WifiStatus struct {
	types.WifiStatus
}

type BatteryList struct {
	Data []types.BatteryListEntry `json:"data"`
}

type BatteryHistory struct {
	types.LongTermHistory
}

type WifiList struct {
	Data []types.WifiNetwork `json:"data"`
}

// Unknown is a well-formed message of a kind this client does not know.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (StaticData) Kind() Kind     { return KindStaticData }
func (DynamicData) Kind() Kind    { return KindDynamicData }
func (Presence) Kind() Kind       { return KindPresence }
func (Success) Kind() Kind        { return KindSuccess }
func (Error) Kind() Kind          { return KindError }
func (Debug) Kind() Kind          { return KindDebug }
func (Config) Kind() Kind         { return KindConfig }
func (WifiStatus) Kind() Kind     { return KindWifiStatus }
func (BatteryList) Kind() Kind    { return KindBatteryList }
func (BatteryHistory) Kind() Kind { return KindBatteryHistory }
func (WifiList) Kind() Kind       { return KindWifiList }
func (u Unknown) Kind() Kind      { return Kind(u.Type) }

type envelope struct {
	Type *string `json:"type"`
}

// Decode parses one inbound frame.
func Decode(frame []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, pkgerrors.Wrapf(ErrMalformed, "invalid json: %v", err)
	}
	if env.Type == nil {
		return nil, pkgerrors.Wrap(ErrMalformed, "missing type")
	}

	switch kind := Kind(*env.Type); kind {
	case KindStaticData:
		m, err := decodeAs[StaticData](kind, frame)
		if err != nil {
			return nil, err
		}
		if m.Data == nil {
			return nil, missing(kind, "data")
		}
		return m, nil
	case KindDynamicData:
		m, err := decodeAs[DynamicData](kind, frame)
		if err != nil {
			return nil, err
		}
		if m.Data == nil {
			return nil, missing(kind, "data")
		}
		return m, nil
	case KindPresence:
		m, err := decodeAs[Presence](kind, frame)
		if err != nil {
			return nil, err
		}
		if m.Present == nil {
			return nil, missing(kind, "present")
		}
		return m, nil
	case KindSuccess:
		return asMessage(decodeAs[Success](kind, frame))
	case KindError:
		return asMessage(decodeAs[Error](kind, frame))
	case KindDebug:
		return asMessage(decodeAs[Debug](kind, frame))
	case KindConfig:
		return asMessage(decodeAs[Config](kind, frame))
	case KindWifiStatus:
		return asMessage(decodeAs[WifiStatus](kind, frame))
	case KindBatteryList:
		return asMessage(decodeAs[BatteryList](kind, frame))
	case KindBatteryHistory:
		return asMessage(decodeAs[BatteryHistory](kind, frame))
	case KindWifiList:
		return asMessage(decodeAs[WifiList](kind, frame))
	default:
		return Unknown{Type: *env.Type, Raw: json.RawMessage(slices.Clone(frame))}, nil
	}
}

func decodeAs[T any](kind Kind, frame []byte) (T, error) {
	var v T
	if err := json.Unmarshal(frame, &v); err != nil {
		return v, pkgerrors.Wrapf(ErrMalformed, "decode %s: %v", kind, err)
	}
	return v, nil
}

func asMessage[T Message](v T, err error) (Message, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

func missing(kind Kind, field string) error {
	return pkgerrors.Wrapf(ErrMalformed, "%s: missing field %q", kind, field)
}
