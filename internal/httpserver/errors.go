package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/canteen/internal/service"
)

// fail logs err under "<op>_error" and returns the HTTP error for it.
// Service sentinels keep their message; anything else becomes a 500.
func fail(l *slog.Logger, op string, err error) error {
	var status int
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	default:
		l.Error(op+"_error", "status", http.StatusInternalServerError, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Warn(op+"_error", "status", status, "reason", err.Error(), "error", err)
	return echo.NewHTTPError(status, err.Error())
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

func uintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 0)
	return uint(v), err
}
