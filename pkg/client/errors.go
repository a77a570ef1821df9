package client

import (
	"errors"
	"syscall"
)

var (
	// ErrDaemonNotRunning is returned when nothing listens on the socket.
	ErrDaemonNotRunning = errors.New("bmslink is not running")

	// ErrPermissionDenied is returned when the socket cannot be opened.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned for 404 responses, e.g. no battery data yet.
	ErrNotFound = errors.New("not found")

	// ErrNotConnected is returned when a command was dropped because the
	// device is not connected.
	ErrNotConnected = errors.New("device not connected")
)

func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
