package repository

import (
	"context"
	"database/sql"

	"github.com/kamyarm/wedding-seating/internal/model"
)

// Load returns the full committed state of an event: the event row,
// its tables ordered by label and its guests ordered by id.
func (s *SQLStore) Load(ctx context.Context, eventID uint64) (*EventState, error) {
	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	st := &EventState{Event: ev}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id,event_id,label,capacity,created_at FROM tables WHERE event_id=? ORDER BY label",
		eventID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.EventID, &t.Label, &t.Capacity, &t.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		st.Tables = append(st.Tables, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id,event_id,name,contact,dietary,table_id,seat_no,status,checked_in_at,lookup_token,created_at,updated_at
		 FROM guests WHERE event_id=? ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		st.Guests = append(st.Guests, g)
	}
	return st, rows.Err()
}

// Apply commits the ChangeSet in one transaction.  The event version
// row acts both as the optimistic lock and as the write barrier other
// transactions queue on; everything else happens behind it.
func (s *SQLStore) Apply(ctx context.Context, eventID uint64, cs ChangeSet) (*EventState, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"UPDATE events SET version=version+1, updated_at=NOW() WHERE id=? AND version=?",
		eventID, cs.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id=?", eventID).Scan(&exists); err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrEventNotFound
			}
			return nil, err
		}
		return nil, ErrVersionConflict
	}

	if cs.ReplaceAll {
		if _, err := tx.ExecContext(ctx, "DELETE FROM guests WHERE event_id=?", eventID); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tables WHERE event_id=?", eventID); err != nil {
			return nil, err
		}
	}

	for _, id := range cs.DeleteGuests {
		if _, err := tx.ExecContext(ctx, "DELETE FROM guests WHERE id=? AND event_id=?", id, eventID); err != nil {
			return nil, err
		}
	}
	for _, id := range cs.DeleteTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tables WHERE id=? AND event_id=?", id, eventID); err != nil {
			return nil, err
		}
	}

	labelToID := make(map[string]uint64)
	for _, t := range cs.UpsertTables {
		if t.ID == 0 {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO tables (event_id,label,capacity) VALUES (?,?,?)",
				eventID, t.Label, t.Capacity)
			if err != nil {
				return nil, err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return nil, err
			}
			labelToID[t.Label] = uint64(id)
		} else {
			if _, err := tx.ExecContext(ctx,
				"UPDATE tables SET label=?, capacity=? WHERE id=? AND event_id=?",
				t.Label, t.Capacity, t.ID, eventID); err != nil {
				return nil, err
			}
			labelToID[t.Label] = t.ID
		}
	}

	for _, up := range cs.UpsertGuests {
		g := up.Guest
		tableID := g.TableID
		if up.TableLabel != nil {
			if id, ok := labelToID[*up.TableLabel]; ok {
				tableID = &id
			} else {
				var id uint64
				err := tx.QueryRowContext(ctx,
					"SELECT id FROM tables WHERE event_id=? AND label=?", eventID, *up.TableLabel).Scan(&id)
				if err == sql.ErrNoRows {
					return nil, ErrTableNotFound
				}
				if err != nil {
					return nil, err
				}
				tableID = &id
			}
		}
		var checkedInAt any
		if g.CheckedInAt != nil {
			checkedInAt = g.CheckedInAt.UTC().Format("2006-01-02 15:04:05")
		}
		if g.ID == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO guests (event_id,name,contact,dietary,table_id,seat_no,status,checked_in_at,lookup_token)
				 VALUES (?,?,?,?,?,?,?,?,?)`,
				eventID, g.Name, g.Contact, g.Dietary, tableID, g.SeatNo, string(g.Status), checkedInAt, g.LookupToken); err != nil {
				return nil, err
			}
		} else {
			if _, err := tx.ExecContext(ctx,
				`UPDATE guests SET name=?, contact=?, dietary=?, table_id=?, seat_no=?, status=?, checked_in_at=?, updated_at=NOW()
				 WHERE id=? AND event_id=?`,
				g.Name, g.Contact, g.Dietary, tableID, g.SeatNo, string(g.Status), checkedInAt, g.ID, eventID); err != nil {
				return nil, err
			}
		}
	}

	for _, token := range cs.ReserveTokens {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO used_tokens (token, event_id) VALUES (?,?)", token, eventID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return s.Load(ctx, eventID)
}

// guestScanner covers both *sql.Row and *sql.Rows.
type guestScanner interface {
	Scan(dest ...any) error
}

func scanGuest(sc guestScanner) (model.Guest, error) {
	var (
		g           model.Guest
		contact     sql.NullString
		tableID     sql.NullInt64
		seatNo      sql.NullInt64
		status      string
		checkedInAt sql.NullTime
	)
	err := sc.Scan(&g.ID, &g.EventID, &g.Name, &contact, &g.Dietary, &tableID,
		&seatNo, &status, &checkedInAt, &g.LookupToken, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return model.Guest{}, err
	}
	if contact.Valid {
		g.Contact = &contact.String
	}
	if tableID.Valid {
		id := uint64(tableID.Int64)
		g.TableID = &id
	}
	if seatNo.Valid {
		n := int(seatNo.Int64)
		g.SeatNo = &n
	}
	g.Status = model.CheckInStatus(status)
	if checkedInAt.Valid {
		t := checkedInAt.Time.UTC()
		g.CheckedInAt = &t
	}
	return g, nil
}
