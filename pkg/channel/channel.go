package channel

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmslink/pkg/protocol"
	"github.com/charlie0129/bmslink/pkg/types"
)

// Link is the connection a Channel writes to.
type Link interface {
	// Connected reports whether frames can be written right now.
	Connected() bool
	// WriteFrame writes one text frame. It must be safe for concurrent use.
	WriteFrame(frame []byte) error
}

// Handler receives decoded inbound messages, one method per kind.
type Handler interface {
	OnStaticData(m protocol.StaticData)
	OnDynamicData(m protocol.DynamicData)
	OnPresence(present bool)
	// OnNotification receives success and error messages.
	OnNotification(kind protocol.Kind, message string)
	OnDebug(message string)
	OnConfig(m protocol.Config)
	OnWifiStatus(s types.WifiStatus)
	OnBatteryList(entries []types.BatteryListEntry)
	OnBatteryHistory(h types.LongTermHistory)
	OnWifiList(networks []types.WifiNetwork)
}

// Channel wraps a Link with the command/response protocol. Commands are
// fire-and-forget: nothing correlates a reply with its request.
type Channel struct {
	link    Link
	handler Handler
}

func New(link Link, handler Handler) *Channel {
	return &Channel{link: link, handler: handler}
}

// Send writes cmd if the link is connected and drops it otherwise. Nothing
// is queued or retried. It reports whether the frame was written.
func (c *Channel) Send(cmd protocol.Command) bool {
	if !c.link.Connected() {
		logrus.WithField("command", cmd.Name).Debug("not connected, dropping command")
		return false
	}

	b, err := json.Marshal(cmd)
	if err != nil {
		logrus.WithError(err).WithField("command", cmd.Name).Error("failed to encode command")
		return false
	}

	if err := c.link.WriteFrame(b); err != nil {
		logrus.WithError(err).WithField("command", cmd.Name).Warn("failed to send command")
		return false
	}

	logrus.WithField("command", cmd.Name).Trace("command sent")
	return true
}

// OnMessage decodes frame and hands it to the handler. Bad frames are
// logged and dropped; it never panics.
func (c *Channel) OnMessage(frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("panic while handling message: %v", r)
		}
	}()

	msg, err := protocol.Decode(frame)
	if err != nil {
		logrus.WithError(err).WithField("frame", truncate(frame, 256)).Warn("discarding undecodable frame")
		return
	}

	c.dispatch(msg)
}

func (c *Channel) dispatch(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.StaticData:
		c.handler.OnStaticData(m)
	case protocol.DynamicData:
		c.handler.OnDynamicData(m)
	case protocol.Presence:
		c.handler.OnPresence(*m.Present)
	case protocol.Success:
		c.handler.OnNotification(protocol.KindSuccess, m.Message)
	case protocol.Error:
		c.handler.OnNotification(protocol.KindError, m.Message)
	case protocol.Debug:
		c.handler.OnDebug(m.Message)
	case protocol.Config:
		c.handler.OnConfig(m)
	case protocol.WifiStatus:
		c.handler.OnWifiStatus(m.WifiStatus)
	case protocol.BatteryList:
		c.handler.OnBatteryList(m.Data)
	case protocol.BatteryHistory:
		c.handler.OnBatteryHistory(m.LongTermHistory)
	case protocol.WifiList:
		c.handler.OnWifiList(m.Data)
	case protocol.Unknown:
		logrus.WithField("type", m.Type).Debug("ignoring unknown message type")
	default:
		logrus.Warnf("unhandled message %T", msg)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
