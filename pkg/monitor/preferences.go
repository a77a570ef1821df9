package monitor

import (
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmslink/pkg/protocol"
)

// SetAutoDetect stores the auto-detect preference and forwards it to the
// device. The stored value is what every handshake sends, so it is saved
// even while disconnected.
func (m *Monitor) SetAutoDetect(enabled bool) error {
	m.conf.SetAutoDetect(enabled)
	if err := m.conf.Save(); err != nil {
		return err
	}

	m.ch.Send(protocol.SetAutoDetect(enabled))
	return nil
}

// SetPreferences stores the UI language and theme and pushes them to the
// device with save_config. Empty values keep the current setting.
func (m *Monitor) SetPreferences(lang, theme string) error {
	if lang == "" {
		lang = m.conf.Lang()
	}
	if theme == "" {
		theme = m.conf.Theme()
	}
	prevLang := m.conf.Lang()
	if err := m.conf.SetLang(lang); err != nil {
		return err
	}
	if err := m.conf.SetTheme(theme); err != nil {
		_ = m.conf.SetLang(prevLang)
		return err
	}
	if err := m.conf.Save(); err != nil {
		return err
	}

	m.ch.Send(protocol.SaveConfig(lang, theme))
	return nil
}

// rememberPreference keeps the local config in step with preference
// commands sent through Send, e.g. raw commands from the dashboard.
func (m *Monitor) rememberPreference(cmd protocol.Command) {
	changed := false

	switch cmd.Name {
	case protocol.CmdSetAutoDetect:
		enabled, ok := cmd.Params["enabled"].(bool)
		if !ok {
			logrus.WithField("params", cmd.Params).Warn("set_auto_detect without a boolean enabled")
			return
		}
		if enabled != m.conf.AutoDetect() {
			m.conf.SetAutoDetect(enabled)
			changed = true
		}
	case protocol.CmdSaveConfig:
		changed = m.adoptPreferences(stringParam(cmd.Params, "lang"), stringParam(cmd.Params, "theme"))
	default:
		return
	}

	if !changed {
		return
	}
	if err := m.conf.Save(); err != nil {
		logrus.WithError(err).Warn("failed to save preferences")
	}
}

// adoptPreferences applies the non-nil values that differ from the
// current config and reports whether anything changed.
func (m *Monitor) adoptPreferences(lang, theme *string) bool {
	changed := false
	if lang != nil && *lang != m.conf.Lang() {
		if err := m.conf.SetLang(*lang); err != nil {
			logrus.WithError(err).Warn("ignoring language")
		} else {
			changed = true
		}
	}
	if theme != nil && *theme != m.conf.Theme() {
		if err := m.conf.SetTheme(*theme); err != nil {
			logrus.WithError(err).Warn("ignoring theme")
		} else {
			changed = true
		}
	}
	return changed
}

func stringParam(params map[string]any, key string) *string {
	s, ok := params[key].(string)
	if !ok {
		return nil
	}
	return &s
}
