package loggingmw

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bus_pass/pkg/logging"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var last string
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		last = sc.Text()
	}
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(last), &out))
	return out
}

func TestRequestLogger_LevelsFollowStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		err    error
		level  string
	}{
		{name: "ok", status: http.StatusOK, level: "INFO"},
		{name: "client error", err: echo.NewHTTPError(http.StatusBadRequest, "invalid body"), level: "WARN"},
		{name: "server error", err: echo.NewHTTPError(http.StatusInternalServerError, "boom"), level: "ERROR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			e := echo.New()
			e.Use(RequestLogger(logging.NewWithWriter(&buf, "debug")))
			e.GET("/api/users", func(c echo.Context) error {
				assert.NotNil(t, logging.FromContext(c.Request().Context()))
				if tt.err != nil {
					return tt.err
				}
				return c.NoContent(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			req.Header.Set(echo.HeaderXRequestID, "rid-1")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			line := lastLine(t, &buf)
			assert.Equal(t, tt.level, line["level"])
			assert.Equal(t, "rid-1", line["request_id"])
			assert.Equal(t, "/api/users", line["path"])
			assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))
		})
	}
}
