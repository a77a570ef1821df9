package monitor

import (
	"github.com/charlie0129/bmslink/pkg/poller"
	"github.com/charlie0129/bmslink/pkg/session"
	"github.com/charlie0129/bmslink/pkg/types"
)

// Status is the connection level view of the monitor.
type Status struct {
	URL      string          `json:"url"`
	State    session.State   `json:"state"`
	Attempts int             `json:"attempts"`
	Present  bool            `json:"present"`
	Features *types.Features `json:"features,omitempty"`
	AutoPoll bool            `json:"autoPoll"`
	Poller   poller.Status   `json:"poller"`
}

type Wifi struct {
	Status   *types.WifiStatus   `json:"status,omitempty"`
	Networks []types.WifiNetwork `json:"networks"`
}
