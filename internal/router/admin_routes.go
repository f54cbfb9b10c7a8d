package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/kamyarm/wedding-seating/internal/handler"
	"github.com/kamyarm/wedding-seating/internal/middleware"
)

// RegisterAdmin registers planner-scoped endpoints under /v1.
// All routes require a valid JWT with the ADMIN role.  The optional
// middlewares (response cache) apply only to the static template
// download; seating reads always serve the latest committed state.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string, templateMW ...echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Events ----
	g.POST("/events", a.CreateEvent)
	g.GET("/events", a.ListEvents)
	g.GET("/events/:id", a.GetEvent)
	g.DELETE("/events/:id", a.DeleteEvent)
	g.GET("/events/:id/snapshot", a.Snapshot)
	g.GET("/events/:id/summary", a.Summary)

	// ---- Tables ----
	g.POST("/events/:id/tables", a.AddTable)
	g.DELETE("/events/:id/tables/:table_id", a.RemoveTable)

	// ---- Guests ----
	g.POST("/events/:id/guests", a.AddGuest)
	g.DELETE("/events/:id/guests/:guest_id", a.RemoveGuest)
	g.PUT("/events/:id/guests/:guest_id/table", a.AssignGuest)
	g.POST("/events/:id/guests/:guest_id/checkin", a.CheckInGuest)
	g.DELETE("/events/:id/guests/:guest_id/checkin", a.RevertCheckIn)
	g.GET("/events/:id/guests/:guest_id/qr", a.GuestQR)

	// ---- Batch import/export ----
	g.POST("/events/:id/import", a.Import)
	g.GET("/events/:id/export", a.Export)
	g.GET("/import-template", a.Template, templateMW...)
}
