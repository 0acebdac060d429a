package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bus_pass/internal/gate"
	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/service"
	"github.com/Skotchmaster/bus_pass/internal/transport"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
)

type PassHTTP struct {
	Svc *service.PassService
}

// GenerateQR issues a pass for the caller. Admins may name any userId;
// students only get their own.
func (h *PassHTTP) GenerateQR(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pass.generate_qr")

	var req transport.GenerateQRRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "generate_qr", "invalid body", err)
	}

	callerID, _, role := gate.Identity(c)
	target := strings.TrimSpace(req.UserID)
	if target == "" {
		target = callerID
	}
	if target != callerID && role != models.RoleAdmin {
		l.Warn("generate_qr_error", "status", 403, "reason", "pass for another user", "target_id", target)
		return echo.NewHTTPError(http.StatusForbidden, "cannot issue a pass for another user")
	}

	res, err := h.Svc.Issue(ctx, target)
	if err != nil {
		return serviceError(l, "generate_qr", err)
	}

	return c.JSON(http.StatusOK, transport.PassResponse{
		Token:      res.Token,
		QRImageURL: res.QRImageURL,
		ExpiresAt:  res.ExpiresAt.UnixMilli(),
	})
}
