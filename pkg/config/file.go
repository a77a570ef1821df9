package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmslink/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		Host:       ptr.To("192.168.4.1"),
		Lang:       ptr.To("en"),
		Theme:      ptr.To(ThemeLight),
		AutoDetect: ptr.To(false),
		// Polling only starts once the battery reports read_dynamic support.
		AutoPoll:     ptr.To(false),
		PollSchedule: ptr.To("@every 3s"),
	}
)

var _ Config = &File{}

// File is a Config backed by a JSON file. Unset keys fall back to the
// defaults.
type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

type RawFileConfig struct {
	Host         *string `json:"host,omitempty"`
	Lang         *string `json:"lang,omitempty"`
	Theme        *string `json:"theme,omitempty"`
	AutoDetect   *bool   `json:"autoDetect,omitempty"`
	AutoPoll     *bool   `json:"autoPoll,omitempty"`
	PollSchedule *string `json:"pollSchedule,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	return &RawFileConfig{
		Host:         ptr.To(c.Host()),
		Lang:         ptr.To(c.Lang()),
		Theme:        ptr.To(c.Theme()),
		AutoDetect:   ptr.To(c.AutoDetect()),
		AutoPoll:     ptr.To(c.AutoPoll()),
		PollSchedule: ptr.To(c.PollSchedule()),
	}, nil
}

func (f *File) Host() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.Host, *defaultFileConfig.Host)
}

func (f *File) Lang() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.Lang, *defaultFileConfig.Lang)
}

func (f *File) Theme() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.Theme, *defaultFileConfig.Theme)
}

func (f *File) AutoDetect() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.AutoDetect, *defaultFileConfig.AutoDetect)
}

func (f *File) AutoPoll() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.AutoPoll, *defaultFileConfig.AutoPoll)
}

func (f *File) PollSchedule() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.PollSchedule, *defaultFileConfig.PollSchedule)
}

func (f *File) SetHost(host string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw().Host = &host
}

func (f *File) SetLang(lang string) error {
	if !slices.Contains(Languages, lang) {
		return pkgerrors.Wrapf(ErrInvalidValue, "unsupported language %q, expected one of %v", lang, Languages)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw().Lang = &lang
	return nil
}

func (f *File) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return pkgerrors.Wrapf(ErrInvalidValue, "unsupported theme %q, expected %s or %s", theme, ThemeLight, ThemeDark)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw().Theme = &theme
	return nil
}

func (f *File) SetAutoDetect(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw().AutoDetect = &b
}

func (f *File) SetAutoPoll(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw().AutoPoll = &b
}

func (f *File) SetPollSchedule(spec string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw().PollSchedule = &spec
}

// raw must be called with mu held.
func (f *File) raw() *RawFileConfig {
	if f.c == nil {
		f.c = &RawFileConfig{}
	}
	return f.c
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// A missing file means all defaults.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Read everything so an empty file can be told apart from bad JSON.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	if dir := filepath.Dir(f.filepath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return pkgerrors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

// Path returns the file backing this config.
func (f *File) Path() string {
	return f.filepath
}

func (f *File) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"host":         f.Host(),
		"lang":         f.Lang(),
		"theme":        f.Theme(),
		"autoDetect":   f.AutoDetect(),
		"autoPoll":     f.AutoPoll(),
		"pollSchedule": f.PollSchedule(),
	}
}
