package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/middleware/auth"
	"github.com/Skotchmaster/medflow/internal/service"
	"github.com/Skotchmaster/medflow/internal/transport"
	"github.com/Skotchmaster/medflow/internal/util"
)

type UsersHTTP struct {
	Svc         *service.UserService
	KeyBindings *service.KeyBindingService
	Activity    *service.ActivityService
}

func page(c echo.Context) util.Page {
	return util.Calculate(
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	)
}

func (h *UsersHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.list")

	p := page(c)
	total, items, err := h.Svc.List(ctx, p)
	if err != nil {
		return fail(l, "list_users_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "meta": util.Meta(p, total)})
}

func (h *UsersHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.get")

	u, err := h.Svc.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "get_user_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UsersHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.create")

	var req transport.NewUser
	if err := c.Bind(&req); err != nil {
		return badBody(l, "create_user_failed", err)
	}
	u, err := h.Svc.Create(ctx, auth.Actor(c), req)
	if err != nil {
		return fail(l, "create_user_failed", err)
	}
	l.Info("create_user_success", "created_id", u.ID)
	return c.JSON(http.StatusCreated, u)
}

func (h *UsersHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update")

	var req transport.UpdateUser
	if err := c.Bind(&req); err != nil {
		return badBody(l, "update_user_failed", err)
	}
	req.ID = c.Param("id")

	u, err := h.Svc.Update(ctx, auth.Actor(c), req)
	if err != nil {
		return fail(l, "update_user_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UsersHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.delete")

	if err := h.Svc.Delete(ctx, auth.Actor(c), c.Param("id")); err != nil {
		return fail(l, "delete_user_failed", err)
	}
	l.Info("delete_user_success", "deleted_id", c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (h *UsersHTTP) KeyBindingsOf(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.key_bindings")

	if _, err := h.Svc.Get(ctx, c.Param("id")); err != nil {
		return fail(l, "list_user_key_bindings_failed", err)
	}
	items, err := h.KeyBindings.List(ctx, c.Param("id"), false)
	if err != nil {
		return fail(l, "list_user_key_bindings_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

// ActivityOf works for deleted users too: their activity rows are kept.
func (h *UsersHTTP) ActivityOf(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.activity_logs")

	p := page(c)
	total, items, err := h.Activity.List(ctx, c.Param("id"), p)
	if err != nil {
		return fail(l, "list_user_activity_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "meta": util.Meta(p, total)})
}
