package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kamyarm/wedding-seating/internal/engine"
	"github.com/kamyarm/wedding-seating/internal/qr"
)

type addGuestReq struct {
	Name    string  `json:"name"`
	Contact *string `json:"contact"`
	Dietary string  `json:"dietary"`
	TableID *uint64 `json:"table_id"`
	SeatNo  *int    `json:"seat_no"`
}

// AddGuest handles POST /v1/events/:id/guests.
func (h *AdminHandler) AddGuest(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req addGuestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	g, err := h.Engine.AddGuest(c.Request().Context(), eventID, engine.AddGuestParams{
		Name:    req.Name,
		Contact: req.Contact,
		Dietary: req.Dietary,
		TableID: req.TableID,
		SeatNo:  req.SeatNo,
	})
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

// RemoveGuest handles DELETE /v1/events/:id/guests/:guest_id. The guest's
// lookup token is retired permanently, never recycled.
func (h *AdminHandler) RemoveGuest(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	guestID, err := pathID(c, "guest_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest id"})
	}
	if err := h.Engine.RemoveGuest(c.Request().Context(), eventID, guestID); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type assignReq struct {
	// TableID nil means unseat the guest; SeatNo picks a numbered
	// seat at the table when given.
	TableID *uint64 `json:"table_id"`
	SeatNo  *int    `json:"seat_no"`
}

// AssignGuest handles PUT /v1/events/:id/guests/:guest_id/table. Moving a
// guest between tables is one atomic operation; viewers never observe the
// guest seated at both.
func (h *AdminHandler) AssignGuest(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	guestID, err := pathID(c, "guest_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest id"})
	}
	var req assignReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	delta, err := h.Engine.AssignGuestToTable(c.Request().Context(), eventID, guestID, req.TableID, req.SeatNo)
	if err != nil {
		return engineError(c, err)
	}
	if delta == nil {
		// Same assignment as before, nothing changed.
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, delta)
}

// CheckInGuest handles POST /v1/events/:id/guests/:guest_id/checkin. Door
// staff use this when a guest shows up without their QR card. Idempotent:
// repeating it returns the original arrival time.
func (h *AdminHandler) CheckInGuest(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	guestID, err := pathID(c, "guest_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest id"})
	}
	res, err := h.Engine.CheckIn(c.Request().Context(), eventID, guestID)
	if err != nil {
		return engineError(c, err)
	}
	status := http.StatusOK
	if !res.Already {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{
		"guest_id":      res.Guest.ID,
		"status":        res.Guest.Status,
		"checked_in_at": res.Guest.CheckedInAt,
		"already":       res.Already,
	})
}

// RevertCheckIn handles DELETE /v1/events/:id/guests/:guest_id/checkin. It
// corrects a mistaken scan and is announced to live viewers as its own delta
// kind so dashboards can decrement their counters.
func (h *AdminHandler) RevertCheckIn(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	guestID, err := pathID(c, "guest_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest id"})
	}
	delta, err := h.Engine.RevertCheckIn(c.Request().Context(), eventID, guestID)
	if err != nil {
		return engineError(c, err)
	}
	if delta == nil {
		return c.NoContent(http.StatusNoContent) // was not checked in
	}
	return c.JSON(http.StatusOK, delta)
}

// GuestQR handles GET /v1/events/:id/guests/:guest_id/qr. It renders the
// guest's portal link as a JPEG QR image for printing on invitation cards.
func (h *AdminHandler) GuestQR(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	guestID, err := pathID(c, "guest_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest id"})
	}
	token, err := h.Engine.GuestToken(c.Request().Context(), eventID, guestID)
	if err != nil {
		return engineError(c, err)
	}
	img, err := qr.Encode(h.Cfg.PortalBaseURL, token)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "qr encode failed"})
	}
	return c.Blob(http.StatusOK, qr.ContentType, img)
}
