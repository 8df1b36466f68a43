package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/medflow/internal/repo"
	"github.com/Skotchmaster/medflow/internal/service"
	"github.com/Skotchmaster/medflow/internal/transport"
)

// fail logs err under event and converts it to the HTTP error for its sentinel.
func fail(l *slog.Logger, event string, err error) error {
	var (
		code int
		msg  string
	)
	switch {
	case errors.Is(err, transport.ErrValidation):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, repo.ErrNotFound):
		code, msg = http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrConflict):
		code, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrForbidden):
		code, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		code, msg = http.StatusUnauthorized, "not authenticated"
	default:
		l.Error(event, "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	l.Warn(event, "status", code, "reason", msg, "error", err)
	return echo.NewHTTPError(code, msg)
}

func badBody(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
}

func idParam(c echo.Context, l *slog.Logger, event string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		l.Warn(event, "status", http.StatusBadRequest, "reason", "id is not a positive integer", "id", c.Param("id"))
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id is not a positive integer")
	}
	return uint(id), nil
}
