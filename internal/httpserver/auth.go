package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/middleware/auth"
	"github.com/Skotchmaster/medflow/internal/service"
	"github.com/Skotchmaster/medflow/internal/session"
	"github.com/Skotchmaster/medflow/internal/transport"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	Users        *service.UserService
	IDPLoginURL  string
	SecureCookie bool
}

// LoginRedirect handles the identity-provider handoff. Without a token it sends the
// browser to the provider; with one it opens a session and goes home.
func (h *AuthHTTP) LoginRedirect(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login_redirect")

	token := c.QueryParam("token")
	if token == "" {
		if h.IDPLoginURL == "" {
			l.Warn("login_failed", "status", 404, "reason", "identity provider not configured")
			return echo.NewHTTPError(http.StatusNotFound, "identity provider not configured")
		}
		return c.Redirect(http.StatusFound, h.IDPLoginURL)
	}

	res, err := h.Svc.LoginIdentity(ctx, token, auth.Actor(c))
	if err != nil {
		return fail(l, "login_failed", err)
	}
	c.SetCookie(session.CreateCookie(res.Token, res.Expire, h.SecureCookie))
	l.Info("login_successful", "user_id", res.User.ID, "method", "identity")
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "login_failed", err)
	}

	res, err := h.Svc.LoginLocal(ctx, req, auth.Actor(c))
	if err != nil {
		return fail(l, "login_failed", err)
	}
	c.SetCookie(session.CreateCookie(res.Token, res.Expire, h.SecureCookie))
	l.Info("login_successful", "user_id", res.User.ID, "method", "password")
	return c.JSON(http.StatusOK, res.User)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if ck, err := c.Cookie(session.CookieName); err == nil && ck.Value != "" {
		if err := h.Svc.Logout(ctx, ck.Value, auth.Actor(c)); err != nil {
			c.SetCookie(session.DeleteCookie(h.SecureCookie))
			l.Error("logout_failed", "status", 500, "reason", "cannot destroy session", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot destroy session")
		}
	}
	c.SetCookie(session.DeleteCookie(h.SecureCookie))
	l.Info("logout_successful")

	if c.Request().Method == http.MethodGet {
		return c.Redirect(http.StatusFound, "/")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) CurrentUser(c echo.Context) error {
	return c.JSON(http.StatusOK, auth.UserFrom(c))
}

func (h *AuthHTTP) UpdateCurrentUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.update_current_user")

	var req transport.UpdateUser
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_profile_failed", err)
	}
	u, err := h.Users.UpdateSelf(ctx, auth.Actor(c), req)
	if err != nil {
		return fail(l, "update_profile_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}
