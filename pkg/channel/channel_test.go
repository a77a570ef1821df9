package channel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/bmslink/pkg/protocol"
	"github.com/charlie0129/bmslink/pkg/types"
)

type fakeLink struct {
	connected bool
	err       error
	frames    []string
}

func (l *fakeLink) Connected() bool { return l.connected }

func (l *fakeLink) WriteFrame(frame []byte) error {
	if l.err != nil {
		return l.err
	}
	l.frames = append(l.frames, string(frame))
	return nil
}

type recorder struct {
	calls    []string
	static   *protocol.StaticData
	dynamic  *protocol.DynamicData
	present  *bool
	notified string
	panicOn  string
}

func (r *recorder) record(name string) {
	if name == r.panicOn {
		panic("boom")
	}
	r.calls = append(r.calls, name)
}

func (r *recorder) OnStaticData(m protocol.StaticData) {
	r.record("static")
	r.static = &m
}

func (r *recorder) OnDynamicData(m protocol.DynamicData) {
	r.record("dynamic")
	r.dynamic = &m
}

func (r *recorder) OnPresence(present bool) {
	r.record("presence")
	r.present = &present
}

func (r *recorder) OnNotification(kind protocol.Kind, message string) {
	r.record(string(kind))
	r.notified = message
}

func (r *recorder) OnDebug(string)                          { r.record("debug") }
func (r *recorder) OnConfig(protocol.Config)                { r.record("config") }
func (r *recorder) OnWifiStatus(types.WifiStatus)           { r.record("wifi_status") }
func (r *recorder) OnBatteryList([]types.BatteryListEntry)  { r.record("battery_list") }
func (r *recorder) OnBatteryHistory(types.LongTermHistory)  { r.record("battery_history") }
func (r *recorder) OnWifiList(networks []types.WifiNetwork) { r.record("wifi_list") }

func TestSendConnected(t *testing.T) {
	link := &fakeLink{connected: true}
	c := New(link, &recorder{})

	assert.True(t, c.Send(protocol.ReadDynamic()))
	require.Len(t, link.frames, 1)
	assert.JSONEq(t, `{"command":"read_dynamic"}`, link.frames[0])
}

func TestSendDisconnectedDrops(t *testing.T) {
	link := &fakeLink{connected: false}
	c := New(link, &recorder{})

	assert.False(t, c.Send(protocol.ReadDynamic()))
	assert.Empty(t, link.frames)
}

func TestSendWriteError(t *testing.T) {
	link := &fakeLink{connected: true, err: errors.New("broken pipe")}
	c := New(link, &recorder{})

	assert.False(t, c.Send(protocol.RequestPresence()))
}

func TestOnMessageDispatch(t *testing.T) {
	tests := []struct {
		frame string
		want  string
	}{
		{`{"type":"static_data","data":{"model":"BL1850","rom_id":"AA","cell_voltages":[3.9]}}`, "static"},
		{`{"type":"dynamic_data","data":{"pack_voltage":18.5}}`, "dynamic"},
		{`{"type":"presence","present":true}`, "presence"},
		{`{"type":"success","message":"ok"}`, "success"},
		{`{"type":"error","message":"bad"}`, "error"},
		{`{"type":"debug","message":"x"}`, "debug"},
		{`{"type":"config","lang":"en","theme":"dark"}`, "config"},
		{`{"type":"wifi_status","sta_connected":true}`, "wifi_status"},
		{`{"type":"battery_list","data":[]}`, "battery_list"},
		{`{"type":"battery_history","rom_id":"AA","data":[]}`, "battery_history"},
		{`{"type":"wifi_list","data":[]}`, "wifi_list"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := &recorder{}
			New(&fakeLink{}, r).OnMessage([]byte(tt.frame))
			assert.Equal(t, []string{tt.want}, r.calls)
		})
	}
}

func TestOnMessageFields(t *testing.T) {
	r := &recorder{}
	c := New(&fakeLink{}, r)

	c.OnMessage([]byte(`{"type":"presence","present":false}`))
	require.NotNil(t, r.present)
	assert.False(t, *r.present)

	c.OnMessage([]byte(`{"type":"error","message":"Battery locked"}`))
	assert.Equal(t, "Battery locked", r.notified)

	c.OnMessage([]byte(`{"type":"dynamic_data","data":{"cell_voltages":[3.9,3.91]}}`))
	require.NotNil(t, r.dynamic)
	assert.Equal(t, []float64{3.9, 3.91}, r.dynamic.Data.CellVoltages)
}

func TestOnMessageDiscards(t *testing.T) {
	frames := []string{
		``,
		`not json`,
		`{"type":"presence"}`,
		`{"type":"static_data"}`,
		`{"type":"firmware_progress","pct":10}`,
	}
	r := &recorder{}
	c := New(&fakeLink{}, r)
	for _, f := range frames {
		assert.NotPanics(t, func() { c.OnMessage([]byte(f)) })
	}
	assert.Empty(t, r.calls)
}

func TestOnMessageRecoversHandlerPanic(t *testing.T) {
	r := &recorder{panicOn: "debug"}
	c := New(&fakeLink{}, r)

	assert.NotPanics(t, func() { c.OnMessage([]byte(`{"type":"debug","message":"x"}`)) })
	c.OnMessage([]byte(`{"type":"success","message":"ok"}`))
	assert.Equal(t, []string{"success"}, r.calls)
}
