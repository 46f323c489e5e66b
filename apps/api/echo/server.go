package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classform"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database"
)

type (
	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		DB         *sqlx.DB
		Validate   *validator.Validate
		Translator ut.Translator
		// Registerer receives the HTTP metrics; a private registry is used when nil.
		Registerer prometheus.Registerer

		UserSvc       user.Service
		ClassFormSvc  classform.Service
		SubjectSvc    subject.Service
		StudentSvc    student.Service
		AssignmentSvc assignment.Service
		GradeSvc      grade.Service
		GradebookSvc  gradebook.Service
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     Deps
		app      *echo.Echo
		auth     *tokenAuth
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps Deps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		auth:     newTokenAuth(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	reg := s.deps.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(newMetrics(reg).middleware)
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)

	v1 := s.app.Group("/api/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)
	authed := []echo.MiddlewareFunc{jwt, ctxUserMiddleware(s.deps.UserSvc)}

	registerUserAPI(v1, authed, s.auth, s.deps)
	registerClassFormAPI(v1, authed, s.deps)
	registerSubjectAPI(v1, authed, s.deps)
	registerStudentAPI(v1, authed, s.deps)
	registerAssignmentAPI(v1, authed, s.deps)
	registerGradeAPI(v1, authed, s.deps)
}

// Start listens until the server is shut down; listener errors are sent on Errors.
func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

func (s *server) health(ctx echo.Context) error {
	status := echo.Map{"status": "ok", "build": s.deps.Conf.Build}
	if err := database.StatusCheck(ctx.Request().Context(), s.deps.DB); err != nil {
		s.deps.Logger.Warn("health check failed", err)
		status["status"] = "db not ready"
		return ctx.JSON(http.StatusInternalServerError, status)
	}
	return ctx.JSON(http.StatusOK, status)
}
