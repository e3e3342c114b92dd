package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/devoops/user-service/internal/api/handler"
	"github.com/devoops/user-service/internal/api/middleware"
	"github.com/devoops/user-service/internal/core/domain"
	"github.com/devoops/user-service/internal/core/ports"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Auth      ports.AuthService
	Accounts  ports.AccountService
	Extractor middleware.IdentityExtractor
	Readiness map[string]handler.Pinger
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Metrics())
	// the request logger renders errors itself, so Metrics sees the final status
	e.Use(requestLogger(deps.Log))

	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Accounts)
	healthHandler := handler.NewHealthHandler(deps.Readiness)

	gate := middleware.NewGate(deps.Extractor, domain.RoleHost.String(), domain.RoleGuest.String())
	members := gate.Require()

	// --- Auth routes (public) ---
	auth := e.Group("/api/user/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// --- Account routes ---
	me := e.Group("/api/user/me")
	me.GET("", userHandler.GetMe, members)
	me.PUT("", userHandler.UpdateMe, members)
	me.DELETE("", userHandler.DeleteMe, members)
	me.PUT("/password", userHandler.ChangePassword, members)

	e.GET("/api/user/:id", userHandler.GetByID, members)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

// requestLogger writes one access log entry per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			entry := log.Info()
			if v.Error != nil {
				entry = log.Warn().Err(v.Error)
			}
			entry.
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
