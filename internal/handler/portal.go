package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kamyarm/wedding-seating/internal/engine"
)

// PortalHandler serves the guest-facing routes. A guest's lookup token is
// their entire credential: opaque, unguessable and bound to exactly one
// guest. No session or login exists on this surface.
type PortalHandler struct {
	Engine *engine.Engine
}

func NewPortalHandler(eng *engine.Engine) *PortalHandler {
	if eng == nil {
		panic("nil engine passed to NewPortalHandler")
	}
	return &PortalHandler{Engine: eng}
}

// Lookup handles GET /v1/portal/:token. It resolves the token to the guest's
// seat, the event name and their table mates. Unknown and retired tokens are
// indistinguishable in the response.
func (p *PortalHandler) Lookup(c echo.Context) error {
	view, err := p.Engine.LookupByToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// CheckIn handles POST /v1/portal/:token/checkin, the door-scan path.
// Idempotent: scanning the same card twice returns the first arrival time
// and does not emit a second delta.
func (p *PortalHandler) CheckIn(c echo.Context) error {
	ev, guest, err := p.Engine.Issuer().Verify(c.Request().Context(), c.Param("token"))
	if err != nil {
		return engineError(c, err)
	}
	res, err := p.Engine.CheckIn(c.Request().Context(), ev.ID, guest.ID)
	if err != nil {
		return engineError(c, err)
	}
	status := http.StatusOK
	if !res.Already {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{
		"guest_name":    res.Guest.Name,
		"status":        res.Guest.Status,
		"checked_in_at": res.Guest.CheckedInAt,
		"already":       res.Already,
	})
}
