package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kamyarm/wedding-seating/internal/engine"
	"github.com/kamyarm/wedding-seating/internal/repository"
)

// pathID parses a numeric path parameter into a uint64.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// engineError translates engine and repository errors into HTTP responses.
// Validation failures carry their violation list so admins can point at the
// exact offending spreadsheet rows. Storage trouble maps to 503 rather than
// 500: the request was fine, retrying it later is the right move.
func engineError(c echo.Context, err error) error {
	var ve *engine.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":      "validation_failed",
			"violations": ve.Violations,
		})
	case errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrGuestNotFound),
		errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, repository.ErrTokenNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrVersionConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "concurrent update, retry"})
	case errors.Is(err, engine.ErrStorageUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusRequestTimeout, echo.Map{"error": "request cancelled"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
