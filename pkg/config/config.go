package config

import "errors"

// ErrInvalidValue is returned by setters for values outside the allowed set.
var ErrInvalidValue = errors.New("invalid config value")

// Config holds the client-local preferences.
type Config interface {
	Host() string
	Lang() string
	Theme() string
	AutoDetect() bool
	AutoPoll() bool
	PollSchedule() string

	SetHost(string)
	SetLang(string) error
	SetTheme(string) error
	SetAutoDetect(bool)
	SetAutoPoll(bool)
	SetPollSchedule(string)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Languages lists the UI languages the device firmware knows about.
var Languages = []string{"en", "es"}
