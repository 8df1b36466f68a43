package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/middleware/auth"
	"github.com/Skotchmaster/medflow/internal/service"
	"github.com/Skotchmaster/medflow/internal/transport"
	"github.com/Skotchmaster/medflow/internal/util"
)

type ActivityHTTP struct {
	Svc *service.ActivityService
}

func (h *ActivityHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "activity.list")

	p := page(c)
	total, items, err := h.Svc.List(ctx, auth.UserFrom(c).ID, p)
	if err != nil {
		return fail(l, "list_activity_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "meta": util.Meta(p, total)})
}

type AdminHTTP struct {
	Incidents *service.IncidentService
	Settings  *service.SettingsService
	Stats     *service.StatsService
}

func (h *AdminHTTP) ListIncidents(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_incidents")

	var resolved *bool
	if raw := c.QueryParam("resolved"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			l.Warn("list_incidents_failed", "status", 400, "reason", "resolved is not a boolean")
			return echo.NewHTTPError(http.StatusBadRequest, "resolved must be true or false")
		}
		resolved = &b
	}

	p := page(c)
	total, items, err := h.Incidents.List(ctx, resolved, p)
	if err != nil {
		return fail(l, "list_incidents_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "meta": util.Meta(p, total)})
}

func (h *AdminHTTP) ResolveIncident(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.resolve_incident")

	id, err := idParam(c, l, "resolve_incident_failed")
	if err != nil {
		return err
	}
	inc, err := h.Incidents.Resolve(ctx, auth.Actor(c), id)
	if err != nil {
		return fail(l, "resolve_incident_failed", err)
	}
	return c.JSON(http.StatusOK, inc)
}

func (h *AdminHTTP) ListToolSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_tool_settings")

	items, err := h.Settings.ListTools(ctx)
	if err != nil {
		return fail(l, "list_tool_settings_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) GetToolSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_tool_settings")

	s, err := h.Settings.GetTool(ctx, c.Param("tool"))
	if err != nil {
		return fail(l, "get_tool_settings_failed", err)
	}
	return c.JSON(http.StatusOK, s)
}

// PutToolSettings upserts by the :tool path segment, or by tool_type in the body when
// the route has no segment.
func (h *AdminHTTP) PutToolSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.put_tool_settings")

	var req transport.NewAdminToolSettings
	if err := c.Bind(&req); err != nil {
		return badBody(l, "put_tool_settings_failed", err)
	}
	if tool := c.Param("tool"); tool != "" {
		req.ToolType = tool
	}
	s, err := h.Settings.SaveTool(ctx, auth.Actor(c), req)
	if err != nil {
		return fail(l, "put_tool_settings_failed", err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AdminHTTP) ListAdminSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_settings")

	items, err := h.Settings.ListAdmin(ctx)
	if err != nil {
		return fail(l, "list_admin_settings_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) GetAdminSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_settings")

	s, err := h.Settings.GetAdmin(ctx, c.Param("category"))
	if err != nil {
		return fail(l, "get_admin_settings_failed", err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AdminHTTP) PutAdminSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.put_settings")

	var req transport.NewAdminSettings
	if err := c.Bind(&req); err != nil {
		return badBody(l, "put_admin_settings_failed", err)
	}
	if category := c.Param("category"); category != "" {
		req.Category = category
	}
	s, err := h.Settings.SaveAdmin(ctx, auth.Actor(c), req)
	if err != nil {
		return fail(l, "put_admin_settings_failed", err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AdminHTTP) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.stats")

	st, err := h.Stats.Get(ctx)
	if err != nil {
		return fail(l, "get_stats_failed", err)
	}
	return c.JSON(http.StatusOK, st)
}
