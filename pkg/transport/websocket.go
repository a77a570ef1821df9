// Package transport connects the session to the device over WebSocket.
package transport

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/bmslink/pkg/session"
)

const (
	DefaultHandshakeTimeout = 5 * time.Second
	closeGracePeriod        = time.Second
)

// URL returns the session endpoint of the device at host. A host that
// already carries a ws:// or wss:// scheme is used as is.
func URL(host string) string {
	if strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://") {
		return host
	}
	return "ws://" + strings.TrimSuffix(host, "/") + "/ws"
}

type Dialer struct {
	HandshakeTimeout time.Duration
	Header           http.Header
}

var _ session.Dialer = (*Dialer)(nil)

func (d *Dialer) Dial(ctx context.Context, url string) (session.Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	wd := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	ws, resp, err := wd.DialContext(ctx, url, d.Header)
	if err != nil {
		if resp != nil {
			return nil, pkgerrors.Wrapf(err, "dial %s: status %s", url, resp.Status)
		}
		return nil, pkgerrors.Wrapf(err, "dial %s", url)
	}

	return &Conn{ws: ws}, nil
}

// Conn is a session.Conn over a gorilla websocket connection. Reads must
// come from a single goroutine; writes are serialized by the caller.
type Conn struct {
	ws        *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

var _ session.Conn = (*Conn)(nil)

// ReadFrame returns the payload of the next data frame.
func (c *Conn) ReadFrame() ([]byte, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (c *Conn) WriteFrame(frame []byte) error {
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// Close sends a close frame and closes the underlying connection.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
