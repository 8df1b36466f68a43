package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/medflow/internal/jwtmiddleware"
	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/repo"
)

type UserLoader interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// RequireBearerUser loads the user named by the extension token claims. It must run
// after jwtmiddleware.Extension.
func RequireBearerUser(users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := jwtmiddleware.ClaimsFrom(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing bearer token")
			}
			u, err := users.GetUser(c.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
				}
				logging.FromContext(c.Request().Context()).Error("bearer_user_failed", "status", 500, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
			}
			if !u.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "account is disabled")
			}
			setUser(c, u)
			return next(c)
		}
	}
}
