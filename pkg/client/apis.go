package client

import (
	"encoding/json"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/bmslink/pkg/config"
	"github.com/charlie0129/bmslink/pkg/diagnostics"
	"github.com/charlie0129/bmslink/pkg/history"
	"github.com/charlie0129/bmslink/pkg/monitor"
	"github.com/charlie0129/bmslink/pkg/protocol"
	"github.com/charlie0129/bmslink/pkg/types"
)

func getJSON[T any](c *Client, path, what string) (*T, error) {
	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get %s", what)
	}
	var v T
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal %s", what)
	}
	return &v, nil
}

func (c *Client) GetState() (*monitor.Status, error) {
	return getJSON[monitor.Status](c, "/state", "session state")
}

func (c *Client) GetSnapshot() (*types.BatterySnapshot, error) {
	return getJSON[types.BatterySnapshot](c, "/snapshot", "battery snapshot")
}

func (c *Client) GetDiagnostics() (*diagnostics.Result, error) {
	return getJSON[diagnostics.Result](c, "/diagnostics", "diagnostics")
}

func (c *Client) GetHistory() (*history.Series, error) {
	return getJSON[history.Series](c, "/history", "history")
}

func (c *Client) GetSamples() ([]types.HistorySample, error) {
	s, err := getJSON[[]types.HistorySample](c, "/history?format=samples", "history samples")
	if err != nil {
		return nil, err
	}
	return *s, nil
}

func (c *Client) GetLongTerm() (*types.LongTermHistory, error) {
	return getJSON[types.LongTermHistory](c, "/long-term", "long-term history")
}

func (c *Client) GetBatteries() ([]types.BatteryListEntry, error) {
	b, err := getJSON[[]types.BatteryListEntry](c, "/batteries", "battery list")
	if err != nil {
		return nil, err
	}
	return *b, nil
}

func (c *Client) GetWifi() (*monitor.Wifi, error) {
	return getJSON[monitor.Wifi](c, "/wifi", "wifi status")
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	return getJSON[config.RawFileConfig](c, "/config", "config")
}

func (c *Client) GetReport() (string, error) {
	ret, err := c.Get("/report")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get report")
	}
	return ret, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return unquote(ret), nil
}

// SendCommand asks the session to forward cmd to the device.
func (c *Client) SendCommand(cmd protocol.Command) (string, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return "", err
	}
	ret, err := c.Post("/command", string(payload))
	if err != nil {
		return "", err
	}
	return unquote(ret), nil
}

func (c *Client) SetAutoPoll(enabled bool) (string, error) {
	ret, err := c.Put("/auto-poll", strconv.FormatBool(enabled))
	return unquote(ret), err
}

func (c *Client) SetAutoDetect(enabled bool) (string, error) {
	ret, err := c.Put("/auto-detect", strconv.FormatBool(enabled))
	return unquote(ret), err
}

// SetPreferences updates the UI language and theme. Empty values are left
// unchanged.
func (c *Client) SetPreferences(lang, theme string) (string, error) {
	payload, err := json.Marshal(map[string]string{"lang": lang, "theme": theme})
	if err != nil {
		return "", err
	}
	ret, err := c.Put("/preferences", string(payload))
	return unquote(ret), err
}

func (c *Client) Connect() (string, error) {
	ret, err := c.Post("/connect", "")
	return unquote(ret), err
}
