package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bus_pass/internal/gate"
	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/service"
	"github.com/Skotchmaster/bus_pass/internal/transport"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	SecureCookie bool
}

func userView(acc *models.Account) transport.UserView {
	return transport.UserView{ID: acc.ID, Email: acc.Email, Name: models.Deref(acc.Name), Role: acc.Role}
}

func (h *AuthHTTP) startSession(c echo.Context, status int, msg string, res *service.LoginResult) error {
	c.SetCookie(gate.SessionCookie(res.Token, res.ExpiresAt, h.SecureCookie))
	return c.JSON(status, transport.AuthResponse{
		Message:   msg,
		User:      userView(res.Account),
		ExpiresAt: res.ExpiresAt,
	})
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "signup", "invalid body", err)
	}

	res, err := h.Svc.Signup(ctx, req)
	if err != nil {
		return serviceError(l, "signup", err)
	}

	l.Info("signup_success", "user_id", res.Account.ID)
	return h.startSession(c, http.StatusCreated, "signed up", res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login", "invalid body", err)
	}

	return h.login(c, l, req.Email, req.Password, req.Role)
}

// AdminLogin only accepts admin accounts.
func (h *AuthHTTP) AdminLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.admin_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "admin_login", "invalid body", err)
	}

	return h.login(c, l, req.Email, req.Password, models.RoleAdmin)
}

func (h *AuthHTTP) login(c echo.Context, l *slog.Logger, email, password, role string) error {
	res, err := h.Svc.Login(c.Request().Context(), email, password, role)
	if err != nil {
		return serviceError(l, "login", err)
	}
	l.Info("login_successful", "user_id", res.Account.ID, "role", res.Account.Role)
	return h.startSession(c, http.StatusOK, "logged in", res)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth.logout")

	c.SetCookie(gate.ClearSessionCookie(h.SecureCookie))
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
