// Package dashboard exposes the monitor to render layers over HTTP on a
// unix socket.
package dashboard

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmslink/pkg/config"
	"github.com/charlie0129/bmslink/pkg/diagnostics"
	"github.com/charlie0129/bmslink/pkg/events"
	"github.com/charlie0129/bmslink/pkg/history"
	"github.com/charlie0129/bmslink/pkg/monitor"
	"github.com/charlie0129/bmslink/pkg/protocol"
	"github.com/charlie0129/bmslink/pkg/types"
)

const DefaultSocketPath = "/tmp/bmslink.sock"

// Backend is what the dashboard reads from and sends through.
// *monitor.Monitor implements it.
type Backend interface {
	Status() monitor.Status
	Snapshot() *types.BatterySnapshot
	Diagnostics() *diagnostics.Result
	History() history.Series
	Samples() []types.HistorySample
	LongTerm() *types.LongTermHistory
	Batteries() []types.BatteryListEntry
	Wifi() monitor.Wifi
	Config() config.Config
	WriteReport(w io.Writer) error

	Send(cmd protocol.Command) bool
	SetAutoPoll(enabled bool) error
	SetAutoDetect(enabled bool) error
	SetPreferences(lang, theme string) error
	Connect()
}

var _ Backend = (*monitor.Monitor)(nil)

type Server struct {
	backend Backend
	hub     *events.Hub
	router  *gin.Engine
	srv     *http.Server
}

func New(backend Backend, hub *events.Hub) *Server {
	s := &Server{backend: backend, hub: hub}
	s.router = s.setupRoutes()
	s.srv = &http.Server{Handler: s.router}
	return s
}

func (s *Server) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/state", s.getState)
	router.GET("/snapshot", s.getSnapshot)
	router.GET("/diagnostics", s.getDiagnostics)
	router.GET("/history", s.getHistory)
	router.GET("/long-term", s.getLongTerm)
	router.GET("/batteries", s.getBatteries)
	router.GET("/wifi", s.getWifi)
	router.GET("/config", s.getConfig)
	router.GET("/report", s.getReport)
	router.GET("/version", getVersion)
	router.GET("/events", s.streamEvents)
	router.POST("/command", s.postCommand)
	router.PUT("/auto-poll", s.setAutoPoll)
	router.PUT("/auto-detect", s.setAutoDetect)
	router.PUT("/preferences", s.setPreferences)
	router.POST("/connect", s.connect)

	return router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenUnix creates the unix socket, replacing a stale one left by a
// previous run.
func ListenUnix(path string, allowNonRoot bool) (net.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		if conn, err := net.Dial("unix", path); err == nil {
			_ = conn.Close()
			return nil, pkgerrors.Errorf("another instance is already listening on %s", path)
		}
		logrus.WithField("path", path).Debug("removing stale socket")
		if err := os.Remove(path); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to remove stale socket %s", path)
		}
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to listen on %s", path)
	}

	if allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", path)
		if err := os.Chmod(path, 0777); err != nil {
			_ = l.Close()
			return nil, pkgerrors.Wrapf(err, "failed to chmod %s", path)
		}
	}

	return l, nil
}

// Serve blocks until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	logrus.Infof("http server listening on %s", l.Addr().String())
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
