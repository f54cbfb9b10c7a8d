package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kamyarm/wedding-seating/internal/config"
	"github.com/kamyarm/wedding-seating/internal/engine"
)

// AdminHandler exposes the planner-facing API: event lifecycle, seating
// edits, imports and exports. Every mutation goes through the engine, which
// owns validation and broadcast ordering; handlers only translate HTTP.
type AdminHandler struct {
	Cfg    config.Config
	Engine *engine.Engine
}

func NewAdminHandler(cfg config.Config, eng *engine.Engine) *AdminHandler {
	if eng == nil {
		panic("nil engine passed to NewAdminHandler")
	}
	return &AdminHandler{Cfg: cfg, Engine: eng}
}

type createEventReq struct {
	Name string `json:"name"`
}

// CreateEvent handles POST /v1/events.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	ev, err := h.Engine.CreateEvent(c.Request().Context(), req.Name)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// ListEvents handles GET /v1/events.
func (h *AdminHandler) ListEvents(c echo.Context) error {
	evs, err := h.Engine.ListEvents(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": evs})
}

// GetEvent handles GET /v1/events/:id.
func (h *AdminHandler) GetEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, err := h.Engine.GetEvent(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// DeleteEvent handles DELETE /v1/events/:id. Lookup tokens minted for the
// event stay burned forever even though the guests go away with it.
func (h *AdminHandler) DeleteEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.Engine.DeleteEvent(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Snapshot handles GET /v1/events/:id/snapshot. The returned sequence number
// pairs the state with the live feed so a client can resume from it.
func (h *AdminHandler) Snapshot(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	snap, err := h.Engine.Snapshot(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// Summary handles GET /v1/events/:id/summary.
func (h *AdminHandler) Summary(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	sum, err := h.Engine.Summary(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}
