package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/kamyarm/wedding-seating/internal/model"
)

// SQLStore implements Store on top of MySQL.  All multi-row mutations
// run inside a single transaction; MySQL's default REPEATABLE READ is
// stronger than the read-committed floor the engine requires.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a SQLStore bound to the provided database.
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// DB exposes the underlying handle for callers that need to open their
// own transactions, e.g. the admin repository sharing a pool.
func (s *SQLStore) DB() *sql.DB { return s.db }

// CreateEvent inserts a new event with version zero and returns the
// stored row.
func (s *SQLStore) CreateEvent(ctx context.Context, name, publicCode string) (model.Event, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO events (name, public_code) VALUES (?,?)",
		name, publicCode)
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return s.GetEvent(ctx, uint64(id))
}

// GetEvent fetches an event by id.
func (s *SQLStore) GetEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	return scanEvent(s.db.QueryRowContext(ctx,
		"SELECT id,name,public_code,version,created_at,updated_at FROM events WHERE id=? LIMIT 1",
		eventID))
}

// GetEventByCode fetches an event by its public code.
func (s *SQLStore) GetEventByCode(ctx context.Context, code string) (model.Event, error) {
	return scanEvent(s.db.QueryRowContext(ctx,
		"SELECT id,name,public_code,version,created_at,updated_at FROM events WHERE public_code=? LIMIT 1",
		strings.TrimSpace(code)))
}

// ListEvents returns all events, newest first.
func (s *SQLStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id,name,public_code,version,created_at,updated_at FROM events ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []model.Event
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.PublicCode, &ev.Version, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// DeleteEvent removes the event and, via ON DELETE CASCADE, its guests
// and tables.  Rows in the token ledger are kept on purpose.
func (s *SQLStore) DeleteEvent(ctx context.Context, eventID uint64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id=?", eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func scanEvent(row *sql.Row) (model.Event, error) {
	var ev model.Event
	err := row.Scan(&ev.ID, &ev.Name, &ev.PublicCode, &ev.Version, &ev.CreatedAt, &ev.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return ev, err
}
