package echoapi

import (
	"context"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/assignment"
	"github.com/douaaea/schoolhub/core/grade"
	"github.com/douaaea/schoolhub/core/identity"
	"github.com/douaaea/schoolhub/core/workreturn"
	"github.com/douaaea/schoolhub/services/metrics"
)

type (
	Options struct {
		Address        string
		Debug          bool
		TestMode       bool
		DisableReqLogs bool

		Logger         core.Logger
		SignalShutdown func()
		Validate       *validator.Validate
		Translator     ut.Translator
		Metrics        *metrics.Recorder
		DB             core.DB

		Resolver      *identity.Resolver
		Ingestor      *workreturn.Ingestor
		Grader        *workreturn.Grader
		WorkReturnSvc *workreturn.Service
		AssignmentSvc *assignment.Service
		GradeSvc      *grade.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	signalShutdown := s.opts.SignalShutdown
	if signalShutdown == nil {
		signalShutdown = func() {}
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, signalShutdown)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", home)
	s.app.GET("/healthz", s.healthz)
	if s.opts.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.opts.Metrics.Handler()))
	}

	registerAuthAPI(s.app, s.opts.Resolver, s.opts.Metrics)
	registerWorkReturnAPI(s.app, workReturnApi{
		ingestor: s.opts.Ingestor,
		grader:   s.opts.Grader,
		svc:      s.opts.WorkReturnSvc,
		metrics:  s.opts.Metrics,
	})
	registerAssignmentAPI(s.app, s.opts.AssignmentSvc, s.opts.Validate)
	registerGradeAPI(s.app, s.opts.GradeSvc, s.opts.Validate, s.opts.Metrics)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to SchoolHub API!")
}

func (s *server) healthz(ctx echo.Context) error {
	if s.opts.DB != nil {
		start := time.Now()
		err := s.opts.DB.PingContext(ctx.Request().Context())
		if s.opts.Metrics != nil {
			s.opts.Metrics.ObserveDBPing(time.Since(start))
		}
		if err != nil {
			s.opts.Logger.Warn("database ping failed", err)
			return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
