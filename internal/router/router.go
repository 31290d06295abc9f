// Package router registers the HTTP surface per area.  Middleware that
// applies to every request (logging, metrics, identity) is installed by
// the caller; groups here add caching, rate limiting and auth.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ALVINfrs/caffeine/internal/handler"
	"github.com/ALVINfrs/caffeine/internal/middleware"
)

// Guards are the optional per-route middlewares built from config.
type Guards struct {
	Cache     echo.MiddlewareFunc // response cache for catalog reads
	RateLimit echo.MiddlewareFunc // token bucket for writes
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// filled replaces unset guards with pass-through middleware.
func (g Guards) filled() Guards {
	if g.Cache == nil {
		g.Cache = passThrough
	}
	if g.RateLimit == nil {
		g.RateLimit = passThrough
	}
	return g
}

// RegisterRoutes exposes the health probe and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
	e.GET("/metrics", middleware.PrometheusHandler())
}

// RegisterAuth registers session login and logout plus the admin login
// that also issues a bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	g = g.filled()
	auth := e.Group("/api/auth")
	auth.POST("/register", a.Register, g.RateLimit)
	auth.POST("/login", a.Login, g.RateLimit)
	auth.POST("/admin/login", a.AdminLogin, g.RateLimit)
	auth.POST("/logout", a.Logout)
	auth.GET("/me", a.Me)
}
