package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/fretemais/driver-directory/docs"
	"github.com/fretemais/driver-directory/internal/api/handler"
	"github.com/fretemais/driver-directory/internal/api/metrics"
	"github.com/fretemais/driver-directory/internal/api/middleware"
	"github.com/fretemais/driver-directory/internal/core/ports"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Logger   zerolog.Logger
	Auth     ports.AuthService
	Drivers  ports.DriverService
	Verifier ports.TokenVerifier
	Metrics  *metrics.Metrics
	// Registry backs both the HTTP metrics middleware and GET /metrics.
	Registry *prometheus.Registry
	// Readiness lists the dependencies pinged by GET /health/ready.
	Readiness map[string]handler.Pinger
}

// publicPaths are reachable without a bearer token.
var publicPaths = []string{"/auth/login", "/health", "/health/ready", "/metrics", "/swagger/"}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	if d.Registry != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "http",
			Registerer: d.Registry,
		}))
	}

	gate := middleware.AuthConfig{
		Verifier:   d.Verifier,
		Skipper:    middleware.PublicPaths(publicPaths...),
		ContextKey: handler.SubjectKey,
	}
	if d.Metrics != nil {
		gate.OnReject = d.Metrics.TokenRejected
	}
	e.Use(middleware.Auth(gate))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	e.POST("/auth/login", authHandler.Login)

	// --- Driver routes (bearer token required) ---
	driverHandler := handler.NewDriverHandler(d.Drivers)
	drivers := e.Group("/drivers")
	drivers.POST("", driverHandler.Create)
	drivers.GET("", driverHandler.List)
	drivers.GET("/:id", driverHandler.Get)
	drivers.PUT("/:id", driverHandler.Update)
	drivers.DELETE("/:id", driverHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(d.Readiness)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Observability and docs ---
	if d.Registry != nil {
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Registry}))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger emits one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Error != nil:
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
