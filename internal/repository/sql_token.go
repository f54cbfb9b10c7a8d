package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kamyarm/wedding-seating/internal/model"
)

// FindGuestByToken resolves a lookup token directly against committed
// rows.  It deliberately runs outside any event serialization: a
// portal lookup may observe a state at most one commit behind a
// concurrent admin edit, which the product accepts.
func (s *SQLStore) FindGuestByToken(ctx context.Context, token string) (model.Event, model.Guest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT g.id,g.event_id,g.name,g.contact,g.dietary,g.table_id,g.seat_no,g.status,g.checked_in_at,g.lookup_token,g.created_at,g.updated_at
		 FROM guests g WHERE g.lookup_token=? LIMIT 1`, token)
	g, err := scanGuest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, model.Guest{}, ErrTokenNotFound
	}
	if err != nil {
		return model.Event{}, model.Guest{}, err
	}
	ev, err := s.GetEvent(ctx, g.EventID)
	if err != nil {
		return model.Event{}, model.Guest{}, err
	}
	return ev, g, nil
}

// TokenSeen consults the permanent ledger of every token ever issued.
func (s *SQLStore) TokenSeen(ctx context.Context, token string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM used_tokens WHERE token=? LIMIT 1", token).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
