// Package httpserver exposes the dashboard API over echo.
package httpserver

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/middleware/csrf"
)

// New builds the echo instance with the shared middleware chain and every route.
func New(d *Deps, base *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.Secure())
	e.Use(logging.RequestLogger(base))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	if len(d.ExtensionOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			Skipper: func(c echo.Context) bool {
				return !strings.HasPrefix(c.Request().URL.Path, extensionPrefix)
			},
			AllowOrigins: d.ExtensionOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPatch, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}

	cfg := csrf.DefaultConfig()
	cfg.Secure = d.SecureCookie
	cfg.SkipPaths = []string{"/api/login"}
	cfg.SkipPrefixes = []string{extensionPrefix, "/health", "/metrics"}
	e.Use(csrf.Middleware(cfg))

	Register(e, d)
	return e
}
