package engine

import (
	"context"
	"strings"
	"time"

	"github.com/kamyarm/wedding-seating/internal/model"
	"github.com/kamyarm/wedding-seating/internal/repository"
)

// ImportSeating replaces or merges the guest/table set of an event
// from a batch of rows.  The whole batch is validated against
// committed state before any commit; a rejected batch has zero side
// effects.  The validation phase honors ctx cancellation, the commit
// itself is atomic and never cancelled midway.  Unknown table labels
// are created implicitly with the maximum capacity, matching how
// planners lay out their spreadsheets.
func (e *Engine) ImportSeating(ctx context.Context, eventID uint64, rows []ImportRow, mode ImportMode) (*ImportResult, error) {
	if mode != ModeReplaceAll && mode != ModeUpsert {
		return nil, newValidationError(Violation{
			Reason: ReasonMalformedRow,
			Detail: "import mode must be replace_all or upsert",
		})
	}
	l := e.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	rows = normalizeRows(rows)
	if v := validateBatch(st, rows, mode); v != nil {
		return nil, v
	}
	if err := ctx.Err(); err != nil {
		// Cancellable while validating, untouched state guaranteed.
		return nil, err
	}

	cs := repository.ChangeSet{ExpectedVersion: st.Event.Version}
	outcomes := make([]RowOutcome, len(rows))

	existingLabels := make(map[string]struct{}, len(st.Tables))
	if mode == ModeUpsert {
		for _, t := range st.Tables {
			existingLabels[t.Label] = struct{}{}
		}
	} else {
		cs.ReplaceAll = true
	}
	seenLabels := make(map[string]struct{})
	for _, r := range rows {
		if r.TableLabel == "" {
			continue
		}
		if _, ok := existingLabels[r.TableLabel]; ok {
			continue
		}
		if _, ok := seenLabels[r.TableLabel]; ok {
			continue
		}
		seenLabels[r.TableLabel] = struct{}{}
		cs.UpsertTables = append(cs.UpsertTables, model.Table{
			Label:    r.TableLabel,
			Capacity: model.MaxTableCapacity,
		})
	}

	byKey := make(map[string]*model.Guest, len(st.Guests))
	if mode == ModeUpsert {
		for i := range st.Guests {
			byKey[naturalKey(st.Guests[i].Name, st.Guests[i].Contact)] = &st.Guests[i]
		}
	}

	// Tokens for rows that will create a new guest, minted as one batch
	// up front so committed rows can be matched back to their outcome
	// afterwards.
	var createdRows []int
	for i, r := range rows {
		if byKey[naturalKey(r.GuestName, r.Contact)] == nil {
			createdRows = append(createdRows, i)
		}
	}
	tokens, err := e.issuer.MintBatch(ctx, len(createdRows))
	if err != nil {
		return nil, &StorageError{Err: err}
	}
	rowTokens := make([]string, len(rows))
	for j, i := range createdRows {
		rowTokens[i] = tokens[j]
	}

	for i, r := range rows {
		existing := byKey[naturalKey(r.GuestName, r.Contact)]

		var label *string
		if r.TableLabel != "" {
			lbl := r.TableLabel
			label = &lbl
		}
		if existing != nil {
			g := *existing
			g.Name = r.GuestName
			g.Contact = r.Contact
			g.Dietary = r.Dietary
			g.TableID = nil
			g.SeatNo = r.SeatNo
			// Imports may record an arrival but never revert one;
			// un-checking-in is an explicit admin correction.
			if r.CheckedIn && !g.CheckedIn() {
				g.Status = model.StatusCheckedIn
				g.CheckedInAt = checkInTime(r.CheckedInAt)
			}
			cs.UpsertGuests = append(cs.UpsertGuests, repository.GuestUpsert{Guest: g, TableLabel: label})
			outcomes[i] = RowOutcome{Row: i, GuestID: g.ID, GuestName: g.Name, Outcome: "updated", TableLabel: label}
			continue
		}
		tok := rowTokens[i]
		cs.ReserveTokens = append(cs.ReserveTokens, tok)
		g := model.Guest{
			Name:        r.GuestName,
			Contact:     r.Contact,
			Dietary:     r.Dietary,
			SeatNo:      r.SeatNo,
			Status:      model.StatusNotArrived,
			LookupToken: tok,
		}
		if r.CheckedIn {
			g.Status = model.StatusCheckedIn
			g.CheckedInAt = checkInTime(r.CheckedInAt)
		}
		cs.UpsertGuests = append(cs.UpsertGuests, repository.GuestUpsert{Guest: g, TableLabel: label})
		outcomes[i] = RowOutcome{Row: i, GuestName: r.GuestName, Outcome: "created", TableLabel: label}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	committed, err := e.commit(context.WithoutCancel(ctx), eventID, cs)
	if err != nil {
		return nil, err
	}

	// Resolve ids assigned during the commit for the created rows.
	byToken := make(map[string]uint64, len(committed.Guests))
	for _, g := range committed.Guests {
		byToken[g.LookupToken] = g.ID
	}
	for i := range outcomes {
		if rowTokens[i] != "" {
			outcomes[i].GuestID = byToken[rowTokens[i]]
		}
	}

	e.broadcaster.Append(eventID, model.DeltaSeatingImported, nil)
	return &ImportResult{EventID: eventID, Mode: mode, Outcomes: outcomes}, nil
}

// checkInTime keeps the invariant that a checked-in guest always has
// a timestamp, even when the source sheet lost the column.
func checkInTime(t *time.Time) *time.Time {
	if t != nil {
		u := t.UTC().Truncate(time.Second)
		return &u
	}
	now := time.Now().UTC().Truncate(time.Second)
	return &now
}

func normalizeRows(rows []ImportRow) []ImportRow {
	out := make([]ImportRow, len(rows))
	for i, r := range rows {
		r.GuestName = strings.Join(strings.Fields(r.GuestName), " ")
		r.TableLabel = strings.TrimSpace(r.TableLabel)
		r.Dietary = NormalizeDietary(r.Dietary)
		if r.Contact != nil {
			c := strings.TrimSpace(*r.Contact)
			if c == "" {
				r.Contact = nil
			} else {
				r.Contact = &c
			}
		}
		out[i] = r
	}
	return out
}
