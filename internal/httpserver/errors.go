package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bus_pass/internal/service"
)

// serviceError logs err under "<op>_error" and turns it into the HTTP error
// the client sees. Unknown errors stay opaque.
func serviceError(l *slog.Logger, op string, err error) error {
	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		l.Warn(op+"_error", "status", 409, "reason", "conflict", "fields", conflict.Fields, "error", err)
		body := echo.Map{"message": conflict.Error()}
		if len(conflict.Fields) > 0 {
			body["fields"] = conflict.Fields
		}
		return echo.NewHTTPError(http.StatusConflict, body)
	case errors.Is(err, service.ErrValidation):
		l.Warn(op+"_error", "status", 400, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		l.Warn(op+"_error", "status", 401, "reason", "invalid credentials")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrNotFound):
		l.Warn(op+"_error", "status", 404, "reason", "not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	default:
		l.Error(op+"_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", "status", 400, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}
