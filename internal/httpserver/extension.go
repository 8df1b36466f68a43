package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/middleware/auth"
	"github.com/Skotchmaster/medflow/internal/service"
	"github.com/Skotchmaster/medflow/internal/transport"
)

// ExtensionHTTP serves both the dashboard view of the extension and the bearer
// authenticated API the extension itself syncs with.
type ExtensionHTTP struct {
	Svc         *service.ExtensionService
	KeyBindings *service.KeyBindingService
}

func (h *ExtensionHTTP) GetSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "extension.get_settings")

	es, err := h.Svc.Get(ctx, auth.UserFrom(c).ID)
	if err != nil {
		return fail(l, "get_extension_settings_failed", err)
	}
	return c.JSON(http.StatusOK, es)
}

func (h *ExtensionHTTP) UpdateSettings(c echo.Context) error {
	return h.update(c, false)
}

func (h *ExtensionHTTP) SyncSettings(c echo.Context) error {
	return h.update(c, true)
}

func (h *ExtensionHTTP) update(c echo.Context, sync bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "extension.update_settings", "sync", sync)

	var req transport.UpdateExtensionSettings
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_extension_settings_failed", err)
	}
	es, err := h.Svc.Update(ctx, auth.Actor(c), req, sync)
	if err != nil {
		return fail(l, "update_extension_settings_failed", err)
	}
	return c.JSON(http.StatusOK, es)
}

func (h *ExtensionHTTP) IssueToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "extension.issue_token")

	tok, exp, err := h.Svc.IssueToken(ctx, auth.Actor(c))
	if err != nil {
		return fail(l, "issue_extension_token_failed", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"token": tok, "expires_at": exp})
}

func (h *ExtensionHTTP) ActiveKeyBindings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "extension.key_bindings")

	items, err := h.KeyBindings.List(ctx, auth.UserFrom(c).ID, true)
	if err != nil {
		return fail(l, "list_extension_key_bindings_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}
