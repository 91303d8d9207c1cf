package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/insight"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
	}

	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Uni        *ut.UniversalTranslator
		UserSvc    user.Service
		StudentSvc student.Service
		InsightSvc insight.Service
		Sessions   user.SessionStore
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}

	server struct {
		opts     *Options
		deps     *Deps
		app      *echo.Echo
		tokens   *tokenIssuer
		metrics  *metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options, deps *Deps) Server {
	if deps.Conf.Server.Address != "" && opts.Address == "" {
		opts.Address = deps.Conf.Server.Address
	}
	s := &server{
		opts:     opts,
		deps:     deps,
		app:      echo.New(),
		tokens:   newTokenIssuer(deps.Conf, deps.Sessions),
		metrics:  newMetrics(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf
	defaultLang := i18n.ParseLanguage(conf.DefaultLanguage, i18n.Default)

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{conf.FrontendBaseURL},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Accept-Language"},
		ExposeHeaders: []string{echo.HeaderContentDisposition},
	}))
	s.app.Use(s.metrics.middleware)

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Uni, defaultLang, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET(metricsPath, s.metrics.handler())

	v1 := s.app.Group("/v1")
	jwt := s.tokens.jwtMiddleware

	registerAuthAPI(v1, jwt, s.tokens, s.deps.UserSvc, s.deps.Validate, s.deps.Uni)
	registerProfileAPI(v1, jwt, s.deps.UserSvc, s.deps.Validate, s.lookupRateLimiter())
	registerStudentAPI(v1, jwt, s.deps.StudentSvc, s.deps.InsightSvc, s.deps.Validate, s.metrics, defaultLang)
	registerMetaAPI(v1, jwt, s.deps.StudentSvc, student.ParseInstitutionType(conf.InstitutionType))
}

// lookupRateLimiter throttles the un-authed profile lookup per client IP.
func (s *server) lookupRateLimiter() echo.MiddlewareFunc {
	limit := s.deps.Conf.Server.LookupRateLimit
	if limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	burst := int(limit)
	if burst < 1 {
		burst = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(limit),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler:  func(echo.Context, string, error) error { return errTooManyRequests },
		ErrorHandler: func(echo.Context, error) error { return errHttpForbidden },
	})
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // a shutdown is already pending
	}
}

func (s *server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error { return s.errors }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shikkhaloy API!")
}
