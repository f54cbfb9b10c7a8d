package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kamyarm/wedding-seating/internal/model"
)

type addTableReq struct {
	Label    string `json:"label"`
	Capacity int    `json:"capacity"` // 0 means the default of 12
}

// AddTable handles POST /v1/events/:id/tables.
func (h *AdminHandler) AddTable(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req addTableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label required"})
	}
	if req.Capacity == 0 {
		req.Capacity = model.MaxTableCapacity
	}
	t, err := h.Engine.AddTable(c.Request().Context(), eventID, req.Label, req.Capacity)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// RemoveTable handles DELETE /v1/events/:id/tables/:table_id. Rejected while
// any guest still sits at the table; the admin unseats them first.
func (h *AdminHandler) RemoveTable(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	tableID, err := pathID(c, "table_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if err := h.Engine.RemoveTable(c.Request().Context(), eventID, tableID); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
