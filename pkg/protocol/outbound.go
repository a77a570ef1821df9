package protocol

import (
	"encoding/json"
	"maps"

	pkgerrors "github.com/pkg/errors"
)

// Command names understood by the adapter.
const (
	CmdPresence      = "presence"
	CmdGetConfig     = "get_config"
	CmdSaveConfig    = "save_config"
	CmdSetTime       = "set_time"
	CmdListBatteries = "list_batteries"
	CmdSetAutoDetect = "set_auto_detect"
	CmdReadStatic    = "read_static"
	CmdReadDynamic   = "read_dynamic"
	CmdClearErrors   = "clear_errors"
	CmdLedOn         = "led_on"
	CmdLedOff        = "led_off"
	CmdSetWifi       = "set_wifi"
	CmdScanWifi      = "scan_wifi"
	CmdGetWifiStatus = "get_wifi_status"
	CmdGetHistory    = "get_history"
	CmdClearHistory  = "clear_history"
	CmdSetLogging    = "set_logging"
)

// Command is an outbound request. It is encoded as a flat JSON object:
// {"command": Name, ...Params}.
type Command struct {
	Name   string
	Params map[string]any
}

// NewCommand builds a command with optional parameters.
func NewCommand(name string, params map[string]any) Command {
	return Command{Name: name, Params: params}
}

func (c Command) MarshalJSON() ([]byte, error) {
	if c.Name == "" {
		return nil, pkgerrors.New("command name is empty")
	}
	m := make(map[string]any, len(c.Params)+1)
	maps.Copy(m, c.Params)
	m["command"] = c.Name
	return json.Marshal(m)
}

func (c *Command) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	name, ok := m["command"].(string)
	if !ok || name == "" {
		return pkgerrors.New("missing command name")
	}
	delete(m, "command")
	c.Name = name
	c.Params = nil
	if len(m) > 0 {
		c.Params = m
	}
	return nil
}

// RequestPresence asks the adapter whether a pack is seated.
func RequestPresence() Command { return Command{Name: CmdPresence} }
func GetConfig() Command       { return Command{Name: CmdGetConfig} }
func ListBatteries() Command   { return Command{Name: CmdListBatteries} }
func ReadStatic() Command      { return Command{Name: CmdReadStatic} }
func ReadDynamic() Command     { return Command{Name: CmdReadDynamic} }
func ClearErrors() Command     { return Command{Name: CmdClearErrors} }
func ScanWifi() Command        { return Command{Name: CmdScanWifi} }
func GetWifiStatus() Command   { return Command{Name: CmdGetWifiStatus} }

func SaveConfig(lang, theme string) Command {
	return Command{Name: CmdSaveConfig, Params: map[string]any{"lang": lang, "theme": theme}}
}

// SetTime hands the adapter the current unix time; it has no RTC.
func SetTime(epoch int64) Command {
	return Command{Name: CmdSetTime, Params: map[string]any{"epoch": epoch}}
}

func SetAutoDetect(enabled bool) Command {
	return Command{Name: CmdSetAutoDetect, Params: map[string]any{"enabled": enabled}}
}

// Led switches the pack LEDs on or off.
func Led(on bool) Command {
	if on {
		return Command{Name: CmdLedOn}
	}
	return Command{Name: CmdLedOff}
}

// SetWifi makes the adapter join a network and restart.
func SetWifi(ssid, pass string) Command {
	return Command{Name: CmdSetWifi, Params: map[string]any{"ssid": ssid, "pass": pass}}
}

func GetHistory(romID string) Command {
	return Command{Name: CmdGetHistory, Params: map[string]any{"rom_id": romID}}
}

func ClearHistory(romID string) Command {
	return Command{Name: CmdClearHistory, Params: map[string]any{"rom_id": romID}}
}

func SetLogging(enabled bool) Command {
	return Command{Name: CmdSetLogging, Params: map[string]any{"enabled": enabled}}
}
