package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/middleware/auth"
	"github.com/Skotchmaster/medflow/internal/service"
	"github.com/Skotchmaster/medflow/internal/transport"
	"github.com/Skotchmaster/medflow/internal/util"
)

type KeyBindingsHTTP struct {
	Svc *service.KeyBindingService
}

func (h *KeyBindingsHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "key_bindings.list")

	activeOnly, _ := strconv.ParseBool(c.QueryParam("active"))
	items, err := h.Svc.List(ctx, auth.UserFrom(c).ID, activeOnly)
	if err != nil {
		return fail(l, "list_key_bindings_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *KeyBindingsHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "key_bindings.create")

	var req transport.NewKeyBinding
	if err := c.Bind(&req); err != nil {
		return badBody(l, "create_key_binding_failed", err)
	}
	kb, err := h.Svc.Create(ctx, auth.Actor(c), req)
	if err != nil {
		return fail(l, "create_key_binding_failed", err)
	}
	return c.JSON(http.StatusCreated, kb)
}

func (h *KeyBindingsHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "key_bindings.update")

	id, err := idParam(c, l, "update_key_binding_failed")
	if err != nil {
		return err
	}
	var req transport.UpdateKeyBinding
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_key_binding_failed", err)
	}
	kb, err := h.Svc.Update(ctx, auth.Actor(c), id, req)
	if err != nil {
		return fail(l, "update_key_binding_failed", err)
	}
	return c.JSON(http.StatusOK, kb)
}

func (h *KeyBindingsHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "key_bindings.delete")

	id, err := idParam(c, l, "delete_key_binding_failed")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, auth.Actor(c), id); err != nil {
		return fail(l, "delete_key_binding_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *KeyBindingsHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "key_bindings.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		l.Warn("search_key_bindings_failed", "status", 400, "reason", "empty query")
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	p := page(c)
	total, items, err := h.Svc.Search(ctx, auth.UserFrom(c).ID, q, p)
	if err != nil {
		return fail(l, "search_key_bindings_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "meta": util.Meta(p, total)})
}
