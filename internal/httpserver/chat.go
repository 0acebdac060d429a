package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bus_pass/internal/assistant"
	"github.com/Skotchmaster/bus_pass/internal/transport"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
)

type ChatHTTP struct {
	Assistant *assistant.Service
}

func (h *ChatHTTP) Chat(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "chat")

	var req transport.ChatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "chat", "invalid body", err)
	}

	answer, err := h.Assistant.Answer(ctx, req.Message)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyQuestion) {
			return badRequest(l, "chat", "message is required", err)
		}
		l.Error("chat_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process chat message")
	}
	return c.JSON(http.StatusOK, transport.ChatResponse{Response: answer})
}
