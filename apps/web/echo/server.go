// Package echoweb serves the attendance pages.
package echoweb

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/services/gateway"
	"github.com/trezcool/attendance/storage/sessions"
	"github.com/trezcool/attendance/storage/workspace"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Gateway        *gateway.Client
		Sessions       sessions.Repository
		Workspaces     *workspace.Registry
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
		RequestLog     io.Writer // defaults to stdout
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		ServerDeps
		app      *echo.Echo
		renderer *renderer
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

// requestLogFormat logs the path without its query: the login callback carries the API token there.
const requestLogFormat = `{"time":"${time_rfc3339_nano}","id":"${id}","remote_ip":"${remote_ip}",` +
	`"host":"${host}","method":"${method}","path":"${path}","user_agent":"${user_agent}",` +
	`"status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}"` +
	`,"bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n"

func NewServer(deps ServerDeps) Server {
	s := &server{
		ServerDeps: deps,
		app:        echo.New(),
		errs:       make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	debug := s.Conf.Debug

	s.renderer = newRenderer(s.Conf)
	s.app.Renderer = s.renderer
	s.app.HideBanner = true
	s.app.Debug = debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.DisableReqLogs {
		s.app.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: requestLogFormat,
			Output: s.RequestLog,
		}))
	}
	// do not recover in DEV|TEST mode
	if !(debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.BodyLimit(s.bodyLimit()))
	s.app.Use(s.sessionMiddleware)

	s.app.GET("/healthz", s.healthz)

	s.registerAuthRoutes()
	s.registerPageRoutes()
	s.registerResourceRoutes()
	s.registerBatchRoutes()
	s.registerManagerRoutes()
	s.registerAttendanceRoutes()
	s.registerRuleRoutes()
	s.registerDownloadRoutes()
}

// bodyLimit fits a full selection of maximum-size files.
func (s *server) bodyLimit() string {
	limit := s.Conf.Upload.MaxFileSize * int64(s.Conf.Upload.MaxFiles)
	if limit <= 0 {
		return "32M"
	}
	return strconv.FormatInt(limit+1<<20, 10)
}

func (s *server) Start() {
	if err := s.app.Start(s.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *server) Close() error { return s.app.Close() }

func (s *server) Errors() <-chan error { return s.errs }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "build": s.Conf.Build})
}
