package session

import (
	"time"

	pkgerrors "github.com/pkg/errors"
)

// State is the connection state of a Manager.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	// GivenUp is terminal until Connect is called again.
	GivenUp
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case GivenUp:
		return "given_up"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{Disconnected, Connecting, Connected, GivenUp} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return pkgerrors.Errorf("unknown session state %q", string(b))
}

const (
	BaseDelay = 2 * time.Second
	DelayStep = time.Second
	MaxDelay  = 10 * time.Second
	// MaxAttempts is the number of consecutive failed connections after
	// which the manager stops retrying.
	MaxAttempts = 50
)

// ReconnectDelay returns how long to wait before the retry that follows
// the given number of consecutive failures. It grows linearly from
// BaseDelay and is capped at MaxDelay from attempt 8 on.
func ReconnectDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	d := BaseDelay + time.Duration(attempts)*DelayStep
	if d > MaxDelay {
		return MaxDelay
	}
	return d
}
