package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bus_pass/internal/importer"
	"github.com/Skotchmaster/bus_pass/internal/service"
	"github.com/Skotchmaster/bus_pass/internal/transport"
	"github.com/Skotchmaster/bus_pass/internal/util"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
)

type UsersHTTP struct {
	Accounts *service.AccountService
	Ingest   *service.IngestService
}

// ListUsers returns every account as a plain array, or one page with meta
// when page or size is given.
func (h *UsersHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.list")

	pageParam, sizeParam := c.QueryParam("page"), c.QueryParam("size")
	if pageParam == "" && sizeParam == "" {
		_, items, err := h.Accounts.List(ctx, 0, 0)
		if err != nil {
			return serviceError(l, "list_users", err)
		}
		return c.JSON(http.StatusOK, items)
	}

	page := util.ParseIntDefault(pageParam, 1)
	offset, limit := util.Calculate(page, util.ParseIntDefault(sizeParam, util.DefaultPageSize))

	total, items, err := h.Accounts.List(ctx, offset, limit)
	if err != nil {
		return serviceError(l, "list_users", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *UsersHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.get")

	acc, err := h.Accounts.Get(ctx, c.Param("id"))
	if err != nil {
		return serviceError(l, "get_user", err)
	}
	return c.JSON(http.StatusOK, acc)
}

// BulkCreate takes a JSON array of user objects, the shape the dashboard
// sends after parsing a sheet in the browser.
func (h *UsersHTTP) BulkCreate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.bulk_create")

	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return badRequest(l, "bulk_create", "body must be a JSON array of user objects", err)
	}
	if err := checkBatch(dec, items); err != nil {
		return badRequest(l, "bulk_create", "body must be a JSON array of user objects", err)
	}

	reqs, _ := importer.Normalize(importer.RowsFromJSON(items))
	return h.ingest(c, l, "bulk_create", reqs)
}

// checkBatch rejects what Decode lets through: a null body, null elements
// and anything after the array.
func checkBatch(dec *json.Decoder, items []map[string]any) error {
	if items == nil {
		return errors.New("batch is null")
	}
	for i, it := range items {
		if it == nil {
			return fmt.Errorf("element %d is not an object", i)
		}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after the array")
	}
	return nil
}

func (h *UsersHTTP) Import(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.import")

	reqs, ignored, err := readUpload(c)
	if err != nil {
		return badRequest(l, "import", "cannot read spreadsheet", err)
	}
	if len(ignored) > 0 {
		l.Info("import_ignored_columns", "columns", ignored)
	}
	return h.ingest(c, l, "import", reqs)
}

// PreviewImport shows how a spreadsheet would be read without saving it.
func (h *UsersHTTP) PreviewImport(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.import_preview")

	reqs, ignored, err := readUpload(c)
	if err != nil {
		return badRequest(l, "import_preview", "cannot read spreadsheet", err)
	}
	return c.JSON(http.StatusOK, transport.PreviewResponse{Rows: reqs, IgnoredColumns: ignored})
}

func readUpload(c echo.Context) ([]transport.AccountRequest, []string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := importer.Parse(fh.Filename, f)
	if err != nil {
		return nil, nil, err
	}
	reqs, ignored := importer.Normalize(rows)
	return reqs, ignored, nil
}

func (h *UsersHTTP) ingest(c echo.Context, l *slog.Logger, op string, reqs []transport.AccountRequest) error {
	batch := make([]service.Candidate, 0, len(reqs))
	for _, r := range reqs {
		batch = append(batch, service.NewCandidate(r))
	}

	res, err := h.Ingest.Ingest(c.Request().Context(), batch)
	if err != nil {
		return serviceError(l, op, err)
	}

	l.Info(op+"_success", "rows", len(batch), "count", res.Count, "skipped", res.Skipped)
	msg := "users created"
	if res.Count == 0 {
		msg = "no new users"
	}
	return c.JSON(http.StatusCreated, transport.IngestResponse{Message: msg, Count: res.Count, Skipped: res.Skipped})
}

func (h *UsersHTTP) CreateManual(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.create_manual")

	var req transport.AccountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_manual", "invalid body", err)
	}

	acc, err := h.Accounts.CreateManual(ctx, req)
	if err != nil {
		return serviceError(l, "create_manual", err)
	}
	return c.JSON(http.StatusCreated, acc)
}

func (h *UsersHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update")

	var req transport.PatchAccountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_user", "invalid body", err)
	}

	acc, err := h.Accounts.Update(ctx, c.Param("id"), req)
	if err != nil {
		return serviceError(l, "update_user", err)
	}
	return c.JSON(http.StatusOK, acc)
}

func (h *UsersHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.delete")

	if err := h.Accounts.Delete(ctx, c.Param("id")); err != nil {
		return serviceError(l, "delete_user", err)
	}
	l.Info("user_deleted", "target_id", c.Param("id"))
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

func (h *UsersHTTP) UpdatePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update_password")

	var req transport.UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_password", "invalid body", err)
	}

	acc, err := h.Accounts.ResetPassword(ctx, req.Email, req.RollNumber)
	if err != nil {
		return serviceError(l, "update_password", err)
	}
	l.Info("password_reset", "target_id", acc.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
