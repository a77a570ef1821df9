package telemetry

import "errors"

var (
	// ErrOutOfRange is returned when a reading is physically impossible for
	// the supported chemistries.
	ErrOutOfRange = errors.New("reading out of range")

	// ErrNoSnapshot is returned when a partial update arrives before any
	// full snapshot.
	ErrNoSnapshot = errors.New("no snapshot to update")
)
