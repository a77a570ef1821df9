package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandEncoding(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{RequestPresence(), `{"command":"presence"}`},
		{SetTime(1700000000), `{"command":"set_time","epoch":1700000000}`},
		{SetAutoDetect(true), `{"command":"set_auto_detect","enabled":true}`},
		{SaveConfig("es", "dark"), `{"command":"save_config","lang":"es","theme":"dark"}`},
		{SetWifi("home", "secret"), `{"command":"set_wifi","pass":"secret","ssid":"home"}`},
		{GetHistory("28AB"), `{"command":"get_history","rom_id":"28AB"}`},
		{ClearHistory("28AB"), `{"command":"clear_history","rom_id":"28AB"}`},
		{Led(true), `{"command":"led_on"}`},
		{Led(false), `{"command":"led_off"}`},
		{NewCommand("read_dynamic", map[string]any{"command": "ignored"}), `{"command":"read_dynamic"}`},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.Name, func(t *testing.T) {
			b, err := json.Marshal(tt.cmd)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestCommandEmptyName(t *testing.T) {
	_, err := json.Marshal(Command{})
	assert.Error(t, err)
}

func TestCommandUnmarshal(t *testing.T) {
	var c Command
	require.NoError(t, json.Unmarshal([]byte(`{"command":"get_history","rom_id":"X"}`), &c))
	assert.Equal(t, CmdGetHistory, c.Name)
	assert.Equal(t, map[string]any{"rom_id": "X"}, c.Params)

	require.NoError(t, json.Unmarshal([]byte(`{"command":"scan_wifi"}`), &c))
	assert.Nil(t, c.Params)

	assert.Error(t, json.Unmarshal([]byte(`{"rom_id":"X"}`), &c))
}
