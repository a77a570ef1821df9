package session

import (
	"errors"
)

var (
	ErrNotConnected = errors.New("not connected")
)
