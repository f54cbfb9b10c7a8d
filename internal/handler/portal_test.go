package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamyarm/wedding-seating/internal/broadcast"
	"github.com/kamyarm/wedding-seating/internal/engine"
	"github.com/kamyarm/wedding-seating/internal/handler"
	"github.com/kamyarm/wedding-seating/internal/model"
	"github.com/kamyarm/wedding-seating/internal/repository"
	"github.com/kamyarm/wedding-seating/internal/router"
)

// newPortalServer wires the portal routes over a memory-backed engine
// with one event, one table and one seated guest.
func newPortalServer(t *testing.T) (*echo.Echo, *engine.Engine, model.Event, model.Guest) {
	t.Helper()
	store := repository.NewMemoryStore()
	feed := broadcast.New(0, 0)
	eng := engine.New(store, feed, nil)

	ctx := context.Background()
	ev, err := eng.CreateEvent(ctx, "Mina & Arash")
	require.NoError(t, err)
	tbl, err := eng.AddTable(ctx, ev.ID, "Garden", 12)
	require.NoError(t, err)
	g, err := eng.AddGuest(ctx, ev.ID, engine.AddGuestParams{Name: "Sara Lee", TableID: &tbl.ID})
	require.NoError(t, err)
	_, err = eng.AddGuest(ctx, ev.ID, engine.AddGuestParams{Name: "Dana", TableID: &tbl.ID})
	require.NoError(t, err)

	e := echo.New()
	router.RegisterPortal(e, handler.NewPortalHandler(eng))
	return e, eng, ev, g
}

func TestPortalLookup(t *testing.T) {
	e, _, _, g := newPortalServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/portal/"+g.LookupToken, nil)
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view model.GuestView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Sara Lee", view.GuestName)
	require.NotNil(t, view.TableLabel)
	assert.Equal(t, "Garden", *view.TableLabel)
	require.Len(t, view.TableMates, 1)
	assert.Equal(t, "Dana", view.TableMates[0].Name)
	assert.False(t, view.CheckedIn)
}

func TestPortalLookup_UnknownToken(t *testing.T) {
	e, _, _, _ := newPortalServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/portal/ffffffffffffffffffffffffffffffff", nil)
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPortalCheckIn_Idempotent(t *testing.T) {
	e, _, _, g := newPortalServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/portal/"+g.LookupToken+"/checkin", nil)
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var first map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, false, first["already"])
	firstAt := first["checked_in_at"]
	require.NotNil(t, firstAt)

	// A second scan of the same card reports the original arrival.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/portal/"+g.LookupToken+"/checkin", nil)
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var second map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, true, second["already"])
	assert.Equal(t, firstAt, second["checked_in_at"])
}

func TestPortal_RemovedGuestTokenGone(t *testing.T) {
	e, eng, ev, g := newPortalServer(t)
	require.NoError(t, eng.RemoveGuest(context.Background(), ev.ID, g.ID))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/portal/"+g.LookupToken, nil)
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/portal/"+g.LookupToken+"/checkin", nil)
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
