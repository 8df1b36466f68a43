// Package auth holds the session and role middlewares of the API.
package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/service"
	"github.com/Skotchmaster/medflow/internal/session"
)

const userKey = "auth.user"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireLogin resolves the session cookie to an active user and stores it on the
// context. Missing or expired sessions get 401, disabled accounts 403.
func RequireLogin(a Authenticator, secureCookie bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("mw", "require_login")

			ck, err := c.Cookie(session.CookieName)
			if err != nil || ck.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			u, err := a.Authenticate(ctx, ck.Value)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrUnauthorized):
				c.SetCookie(session.DeleteCookie(secureCookie))
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			case errors.Is(err, service.ErrForbidden):
				l.Warn("require_login_failed", "status", 403, "reason", "account disabled")
				return echo.NewHTTPError(http.StatusForbidden, "account is disabled")
			default:
				l.Error("require_login_failed", "status", 500, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot resolve session")
			}

			setUser(c, u)
			return next(c)
		}
	}
}

// RequireRole must run after a middleware that stored the user.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := UserFrom(c)
			if u == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !slices.Contains(roles, u.Role) {
				logging.FromContext(c.Request().Context()).Warn("require_role_failed",
					"status", 403, "user_id", u.ID, "role", u.Role)
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

func setUser(c echo.Context, u *models.User) {
	c.Set(userKey, u)
	ctx := logging.IntoContext(c.Request().Context(),
		logging.FromContext(c.Request().Context()).With("user_id", u.ID))
	c.SetRequest(c.Request().WithContext(ctx))
}

func UserFrom(c echo.Context) *models.User {
	u, _ := c.Get(userKey).(*models.User)
	return u
}

// Actor describes the current request for activity logging.
func Actor(c echo.Context) service.Actor {
	a := service.Actor{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
	if u := UserFrom(c); u != nil {
		a.UserID, a.Role = u.ID, u.Role
	}
	return a
}
