package telemetry

import (
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmslink/pkg/types"
)

// Listener receives a private copy of the snapshot after every
// successful apply.
type Listener func(snapshot *types.BatterySnapshot)

// Store holds the single authoritative snapshot of the seated pack. It is
// only changed by ApplyStatic, a validated ApplyDynamic, or Clear.
type Store struct {
	mu        sync.RWMutex
	current   *types.BatterySnapshot
	listeners []Listener
}

func NewStore() *Store {
	return &Store{}
}

// Subscribe registers l for future updates.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// ApplyStatic replaces the whole snapshot. Full static payloads are
// trusted as a baseline and not validated.
func (s *Store) ApplyStatic(snapshot *types.BatterySnapshot) {
	if snapshot == nil {
		return
	}

	s.mu.Lock()
	s.current = snapshot.Clone()
	updated := s.current.Clone()
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, updated)
}

// ApplyDynamic validates p and merges it into the current snapshot. On
// rejection the previous snapshot is kept.
func (s *Store) ApplyDynamic(p *types.SnapshotPatch) error {
	if err := Validate(p); err != nil {
		logrus.WithError(err).Warn("rejected dynamic data")
		return err
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		logrus.Debug("dynamic data received before static data, ignoring")
		return pkgerrors.WithStack(ErrNoSnapshot)
	}
	p.MergeInto(s.current)
	updated := s.current.Clone()
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, updated)
	return nil
}

// Clear drops the current snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Snapshot returns a copy of the current snapshot, or nil.
func (s *Store) Snapshot() *types.BatterySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

func notify(listeners []Listener, snapshot *types.BatterySnapshot) {
	for _, l := range listeners {
		l(snapshot.Clone())
	}
}
