package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bus_pass/internal/gate"
	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/service"
	"github.com/Skotchmaster/bus_pass/internal/transport"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
	"github.com/Skotchmaster/bus_pass/pkg/tokens"
)

// PagesHTTP serves the page routes as JSON view models.
type PagesHTTP struct {
	Accounts *service.AccountService
	Now      func() time.Time
}

func (h *PagesHTTP) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *PagesHTTP) StudentLogin(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"page":    "student_login",
		"actions": echo.Map{"login": "/api/auth/login", "signup": "/signup"},
	})
}

func (h *PagesHTTP) AdminLogin(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"page":    "admin_login",
		"actions": echo.Map{"login": "/api/admin/login"},
	})
}

func (h *PagesHTTP) Signup(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"page":    "signup",
		"fields":  []string{"name", "email", "password", "mobileNo", "rollNumber"},
		"actions": echo.Map{"signup": "/api/auth/signup"},
	})
}

func (h *PagesHTTP) AdminDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pages.admindash")

	students, err := h.Accounts.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return serviceError(l, "admindash", err)
	}
	admins, err := h.Accounts.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return serviceError(l, "admindash", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"page":     "admin_dashboard",
		"students": students,
		"admins":   admins,
	})
}

func (h *PagesHTTP) StudentDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pages.studentdash")

	userID, _, _ := gate.Identity(c)
	acc, err := h.Accounts.Get(ctx, userID)
	if err != nil {
		return serviceError(l, "studentdash", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"page":    "student_dashboard",
		"profile": acc,
		"actions": echo.Map{"generatePass": "/api/generate-qr", "chat": "/api/chat"},
	})
}

// PassCountdown decodes a pass for display. The token is not verified and
// grants nothing.
func (h *PagesHTTP) PassCountdown(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "pages.pass")

	raw := c.QueryParam("token")
	if raw == "" {
		return badRequest(l, "pass_view", "token is required", nil)
	}
	claims, err := tokens.DecodePass(raw)
	if err != nil {
		return badRequest(l, "pass_view", "invalid pass token", err)
	}

	now := h.now()
	return c.JSON(http.StatusOK, transport.PassView{
		UserID:        claims.UserID,
		ExpiresAt:     claims.ExpiresAtMillis,
		RemainingDays: tokens.RemainingDays(claims, now),
		Active:        claims.Expiry().After(now),
	})
}
