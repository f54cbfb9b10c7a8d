package router

import (
	"github.com/labstack/echo/v4"

	"github.com/kamyarm/wedding-seating/internal/handler"
)

// RegisterPortal registers the guest-facing portal routes. No JWT applies
// here: the lookup token in the path is the credential. The provided
// middlewares (rate limiter) guard against token scanning and door-rush
// load. Lookups are never served from a cache: a guest who was just
// reseated must see the new table on the next scan.
func RegisterPortal(e *echo.Echo, p *handler.PortalHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1/portal", mw...)
	g.GET("/:token", p.Lookup)
	g.POST("/:token/checkin", p.CheckIn)
}

// RegisterLive registers the websocket seating feed, addressed by the
// event's public code so lobby screens need no credential at all.
func RegisterLive(e *echo.Echo, l *handler.LiveHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/v1/live/:code", l.Serve, mw...)
}
