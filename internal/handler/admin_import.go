package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kamyarm/wedding-seating/internal/engine"
	"github.com/kamyarm/wedding-seating/internal/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Import handles POST /v1/events/:id/import. The request is multipart with
// an xlsx under "file" and an optional "mode" field (replace_all or upsert,
// default upsert). The whole batch commits or none of it does; a 422 lists
// every violation so the admin can fix the sheet in one pass.
func (h *AdminHandler) Import(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	mode := engine.ModeUpsert
	switch strings.ToLower(strings.TrimSpace(c.FormValue("mode"))) {
	case "", string(engine.ModeUpsert):
	case string(engine.ModeReplaceAll):
		mode = engine.ModeReplaceAll
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mode must be replace_all or upsert"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}
	defer f.Close()

	rows, err := spreadsheet.Parse(f)
	if err != nil {
		var shapeErr *spreadsheet.ShapeError
		var rowErr *spreadsheet.RowError
		switch {
		case errors.As(err, &shapeErr):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": shapeErr.Error()})
		case errors.As(err, &rowErr):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": rowErr.Error()})
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "not a valid spreadsheet"})
		}
	}

	res, err := h.Engine.ImportSeating(c.Request().Context(), eventID, rows, mode)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Export handles GET /v1/events/:id/export. It serializes the current
// snapshot into the same sheet shape Import accepts, so export→import
// round-trips cleanly, check-in timestamps included.
func (h *AdminHandler) Export(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	snap, err := h.Engine.Snapshot(c.Request().Context(), eventID)
	if err != nil {
		return engineError(c, err)
	}
	var buf bytes.Buffer
	if err := spreadsheet.Write(&buf, snap); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="seating-event-%d.xlsx"`, eventID))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Template handles GET /v1/import-template: an empty sheet with the expected
// headers and a few sample rows for planners starting from scratch.
func (h *AdminHandler) Template(c echo.Context) error {
	var buf bytes.Buffer
	if err := spreadsheet.Template(&buf); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "template failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="seating-template.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
