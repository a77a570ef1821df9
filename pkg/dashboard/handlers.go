package dashboard

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmslink/pkg/config"
	"github.com/charlie0129/bmslink/pkg/protocol"
	"github.com/charlie0129/bmslink/pkg/session"
	"github.com/charlie0129/bmslink/pkg/telemetry"
	"github.com/charlie0129/bmslink/pkg/version"
)

var errNoLongTerm = errors.New("no long-term history loaded")

func (s *Server) getState(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.backend.Status())
}

func (s *Server) getSnapshot(c *gin.Context) {
	snap := s.backend.Snapshot()
	if snap == nil {
		abort(c, http.StatusNotFound, telemetry.ErrNoSnapshot)
		return
	}
	c.IndentedJSON(http.StatusOK, snap)
}

func (s *Server) getDiagnostics(c *gin.Context) {
	d := s.backend.Diagnostics()
	if d == nil {
		abort(c, http.StatusNotFound, telemetry.ErrNoSnapshot)
		return
	}
	c.IndentedJSON(http.StatusOK, d)
}

// getHistory returns the chart view, or the raw samples with
// ?format=samples.
func (s *Server) getHistory(c *gin.Context) {
	if c.Query("format") == "samples" {
		c.IndentedJSON(http.StatusOK, s.backend.Samples())
		return
	}
	c.IndentedJSON(http.StatusOK, s.backend.History())
}

func (s *Server) getLongTerm(c *gin.Context) {
	h := s.backend.LongTerm()
	if h == nil {
		abort(c, http.StatusNotFound, errNoLongTerm)
		return
	}
	c.IndentedJSON(http.StatusOK, h)
}

func (s *Server) getBatteries(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.backend.Batteries())
}

func (s *Server) getWifi(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.backend.Wifi())
}

func (s *Server) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(s.backend.Config())
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func (s *Server) getReport(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.backend.WriteReport(&buf); err != nil {
		if errors.Is(err, telemetry.ErrNoSnapshot) {
			abort(c, http.StatusNotFound, err)
			return
		}
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

// postCommand forwards a {command, ...params} object to the device.
func (s *Server) postCommand(c *gin.Context) {
	var cmd protocol.Command
	if err := c.BindJSON(&cmd); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if cmd.Name == "" {
		abort(c, http.StatusBadRequest, pkgerrors.New("missing command"))
		return
	}

	if !s.backend.Send(cmd) {
		abort(c, http.StatusServiceUnavailable, pkgerrors.Wrapf(session.ErrNotConnected, "command %s dropped", cmd.Name))
		return
	}

	logrus.WithField("command", cmd.Name).Debug("command forwarded")
	c.IndentedJSON(http.StatusAccepted, "sent")
}

func (s *Server) setAutoPoll(c *gin.Context) {
	var enabled bool
	if err := c.BindJSON(&enabled); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	if err := s.backend.SetAutoPoll(enabled); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set auto poll to %t", enabled)
	c.IndentedJSON(http.StatusCreated, "ok")
}

// setAutoDetect stores the preference sent on every handshake and
// forwards it to the device when connected.
func (s *Server) setAutoDetect(c *gin.Context) {
	var enabled bool
	if err := c.BindJSON(&enabled); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	if err := s.backend.SetAutoDetect(enabled); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set auto detect to %t", enabled)
	c.IndentedJSON(http.StatusCreated, "ok")
}

type preferencesRequest struct {
	Lang  string `json:"lang"`
	Theme string `json:"theme"`
}

func (s *Server) setPreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.BindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	if err := s.backend.SetPreferences(req.Lang, req.Theme); err != nil {
		if errors.Is(err, config.ErrInvalidValue) {
			abort(c, http.StatusBadRequest, err)
			return
		}
		logrus.Errorf("saveConfig failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}

	logrus.WithFields(logrus.Fields{"lang": req.Lang, "theme": req.Theme}).Info("preferences updated")
	c.IndentedJSON(http.StatusCreated, "ok")
}

func (s *Server) connect(c *gin.Context) {
	s.backend.Connect()
	c.IndentedJSON(http.StatusAccepted, "connecting")
}

// streamEvents relays hub events as server-sent events until the client
// goes away.
func (s *Server) streamEvents(c *gin.Context) {
	if s.hub == nil {
		abort(c, http.StatusNotFound, pkgerrors.New("events are disabled"))
		return
	}

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	// Make sure the client sees the stream as open before the first event.
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
