package gate

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bus_pass/pkg/logging"
	"github.com/Skotchmaster/bus_pass/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// Middleware enforces p on every request. Allowed requests carry the session
// identity in the echo context.
func Middleware(iss *tokens.Issuer, p Policy, secureCookie bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			var (
				claims    *tokens.SessionClaims
				verifyErr error
			)
			if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
				claims, verifyErr = iss.Verify(ck.Value)
			}

			d := p.Decide(path, claims, verifyErr)
			if d.Outcome == Allow {
				if claims != nil && verifyErr == nil {
					c.Set(CtxUserID, claims.UserID())
					c.Set(CtxEmail, claims.Email)
					c.Set(CtxRole, claims.Role)
				}
				return next(c)
			}

			l := logging.FromContext(c.Request().Context()).With("middleware", "gate")
			if d.ClearCookie {
				c.SetCookie(ClearSessionCookie(secureCookie))
			}

			switch d.Outcome {
			case Redirect:
				l.Info("gate_redirect", "path", path, "location", d.Location, "error", verifyErr)
				return c.Redirect(http.StatusSeeOther, d.Location)
			case Forbidden:
				l.Warn("gate_denied", "status", 403, "path", path, "role", claims.Role)
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			default:
				reason := "missing token"
				if verifyErr != nil {
					reason = "invalid or expired token"
				}
				l.Warn("gate_denied", "status", 401, "path", path, "reason", reason)
				return echo.NewHTTPError(http.StatusUnauthorized, reason)
			}
		}
	}
}

// Identity returns what the gate stored for an allowed request.
func Identity(c echo.Context) (userID, email, role string) {
	userID, _ = c.Get(CtxUserID).(string)
	email, _ = c.Get(CtxEmail).(string)
	role, _ = c.Get(CtxRole).(string)
	return userID, email, role
}
