package engine

import (
	"fmt"
	"sort"

	"github.com/kamyarm/wedding-seating/internal/model"
	"github.com/kamyarm/wedding-seating/internal/repository"
)

// The validator is pure: it inspects a proposed change against a
// committed EventState and returns nil or a ValidationError.  It never
// mutates anything, so the engine can run it before taking any
// transactional step and a rejection is guaranteed side-effect free.
//
// Checks run in a fixed order and the first failing check wins:
// MalformedRow, DuplicateGuestKey, UnknownTable, CapacityExceeded,
// InvalidSeat, DuplicateSeat, OrphanTableReference.

// validateBatch checks a whole import batch at once.  Per-table
// occupancy is projected for the entire batch before any row is
// accepted, so a batch that would transiently overflow one table while
// underflowing another is still rejected atomically.
func validateBatch(state *repository.EventState, rows []ImportRow, mode ImportMode) *ValidationError {
	var malformed []int
	for i, r := range rows {
		if r.GuestName == "" {
			malformed = append(malformed, i)
		}
	}
	if len(malformed) > 0 {
		return newValidationError(Violation{
			Reason:     ReasonMalformedRow,
			RowIndexes: malformed,
			Detail:     "guest name is required",
		})
	}

	seen := make(map[string]int, len(rows))
	for i, r := range rows {
		key := naturalKey(r.GuestName, r.Contact)
		if first, dup := seen[key]; dup {
			return newValidationError(Violation{
				Reason:     ReasonDuplicateGuestKey,
				RowIndexes: []int{first, i},
				Detail:     fmt.Sprintf("rows %d and %d resolve to the same guest", first, i),
			})
		}
		seen[key] = i
	}

	// Projected capacity per table label.  Imports create unknown
	// labels implicitly, sized at the maximum, so UnknownTable cannot
	// fire here; it guards single-row edits instead.
	capacity := make(map[string]int)
	occupancy := make(map[string]int)
	if mode == ModeUpsert {
		byID := make(map[uint64]string, len(state.Tables))
		for _, t := range state.Tables {
			capacity[t.Label] = t.Capacity
			byID[t.ID] = t.Label
		}
		batchKeys := make(map[string]struct{}, len(rows))
		for _, r := range rows {
			batchKeys[naturalKey(r.GuestName, r.Contact)] = struct{}{}
		}
		for _, g := range state.Guests {
			if g.TableID == nil {
				continue
			}
			// A guest matched by the batch is re-seated by its row, so
			// its current seat does not count toward the projection.
			if _, moved := batchKeys[naturalKey(g.Name, g.Contact)]; moved {
				continue
			}
			occupancy[byID[*g.TableID]]++
		}
	}
	rowsByLabel := make(map[string][]int)
	for i, r := range rows {
		if r.TableLabel == "" {
			continue
		}
		if _, ok := capacity[r.TableLabel]; !ok {
			capacity[r.TableLabel] = model.MaxTableCapacity
		}
		occupancy[r.TableLabel]++
		rowsByLabel[r.TableLabel] = append(rowsByLabel[r.TableLabel], i)
	}
	labels := make([]string, 0, len(occupancy))
	for label := range occupancy {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		if occupancy[label] > capacity[label] {
			return newValidationError(Violation{
				Reason:     ReasonCapacityExceeded,
				TableLabel: label,
				RowIndexes: rowsByLabel[label],
				Detail: fmt.Sprintf("table %q would seat %d guests (capacity %d)",
					label, occupancy[label], capacity[label]),
			})
		}
	}
	return validateBatchSeats(state, rows, mode)
}

// validateBatchSeats enforces seat numbering across the whole batch:
// a seat needs a table and a positive number, and no two guests may
// hold the same seat at one table.  In upsert mode seats already held
// by guests the batch does not touch count as taken.
func validateBatchSeats(state *repository.EventState, rows []ImportRow, mode ImportMode) *ValidationError {
	var invalid []int
	for i, r := range rows {
		if r.SeatNo == nil {
			continue
		}
		if r.TableLabel == "" || *r.SeatNo < 1 {
			invalid = append(invalid, i)
		}
	}
	if len(invalid) > 0 {
		return newValidationError(Violation{
			Reason:     ReasonInvalidSeat,
			RowIndexes: invalid,
			Detail:     "seat numbers start at 1 and require a table",
		})
	}

	type seatKey struct {
		label string
		seat  int
	}
	firstRow := make(map[seatKey]int)
	for i, r := range rows {
		if r.SeatNo == nil {
			continue
		}
		key := seatKey{label: r.TableLabel, seat: *r.SeatNo}
		if first, dup := firstRow[key]; dup {
			return newValidationError(Violation{
				Reason:     ReasonDuplicateSeat,
				TableLabel: r.TableLabel,
				RowIndexes: []int{first, i},
				Detail:     fmt.Sprintf("seat %d at table %q is claimed twice", *r.SeatNo, r.TableLabel),
			})
		}
		firstRow[key] = i
	}

	if mode != ModeUpsert {
		return nil
	}
	byID := make(map[uint64]string, len(state.Tables))
	for _, t := range state.Tables {
		byID[t.ID] = t.Label
	}
	batchKeys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		batchKeys[naturalKey(r.GuestName, r.Contact)] = struct{}{}
	}
	for _, g := range state.Guests {
		if g.TableID == nil || g.SeatNo == nil {
			continue
		}
		if _, moved := batchKeys[naturalKey(g.Name, g.Contact)]; moved {
			continue
		}
		key := seatKey{label: byID[*g.TableID], seat: *g.SeatNo}
		if row, taken := firstRow[key]; taken {
			return newValidationError(Violation{
				Reason:     ReasonDuplicateSeat,
				TableLabel: key.label,
				RowIndexes: []int{row},
				GuestIDs:   []uint64{g.ID},
				Detail: fmt.Sprintf("seat %d at table %q is already held by guest %d",
					key.seat, key.label, g.ID),
			})
		}
	}
	return nil
}

// validateAssign checks a single-guest seating change against current
// committed state plus this one change.
func validateAssign(state *repository.EventState, guest *model.Guest, tableID *uint64, seatNo *int) *ValidationError {
	if tableID == nil {
		if seatNo != nil {
			return newValidationError(Violation{
				Reason: ReasonInvalidSeat,
				Detail: "a seat number requires a table",
			})
		}
		return nil // unassigning is always valid
	}
	table := state.TableByID(*tableID)
	if table == nil {
		return newValidationError(Violation{
			Reason: ReasonUnknownTable,
			Detail: fmt.Sprintf("table %d does not exist in event %d", *tableID, state.Event.ID),
		})
	}
	if guest.TableID == nil || *guest.TableID != *tableID {
		projected := state.Occupancy()[*tableID] + 1
		if projected > table.Capacity {
			return newValidationError(Violation{
				Reason:     ReasonCapacityExceeded,
				TableLabel: table.Label,
				GuestIDs:   []uint64{guest.ID},
				Detail: fmt.Sprintf("table %q would seat %d guests (capacity %d)",
					table.Label, projected, table.Capacity),
			})
		}
	}
	if seatNo == nil {
		return nil
	}
	if *seatNo < 1 {
		return newValidationError(Violation{
			Reason:     ReasonInvalidSeat,
			TableLabel: table.Label,
			GuestIDs:   []uint64{guest.ID},
			Detail:     "seat numbers start at 1",
		})
	}
	for _, g := range state.Guests {
		if g.ID == guest.ID || g.TableID == nil || *g.TableID != *tableID {
			continue
		}
		if g.SeatNo != nil && *g.SeatNo == *seatNo {
			return newValidationError(Violation{
				Reason:     ReasonDuplicateSeat,
				TableLabel: table.Label,
				GuestIDs:   []uint64{guest.ID, g.ID},
				Detail: fmt.Sprintf("seat %d at table %q is already held by guest %d",
					*seatNo, table.Label, g.ID),
			})
		}
	}
	return nil
}

// validateNewTable rejects labels already in use and capacities
// outside 1..MaxTableCapacity.
func validateNewTable(state *repository.EventState, label string, capacity int) *ValidationError {
	if label == "" {
		return newValidationError(Violation{
			Reason: ReasonMalformedRow,
			Detail: "table label is required",
		})
	}
	if state.TableByLabel(label) != nil {
		return newValidationError(Violation{
			Reason:     ReasonMalformedRow,
			TableLabel: label,
			Detail:     fmt.Sprintf("table %q already exists", label),
		})
	}
	if capacity < 1 || capacity > model.MaxTableCapacity {
		return newValidationError(Violation{
			Reason:     ReasonCapacityExceeded,
			TableLabel: label,
			Detail:     fmt.Sprintf("capacity must be between 1 and %d", model.MaxTableCapacity),
		})
	}
	return nil
}

// validateRemoveTable refuses to remove a table while guests still
// reference it; the guests would be orphaned by the removal.
func validateRemoveTable(state *repository.EventState, tableID uint64) *ValidationError {
	table := state.TableByID(tableID)
	if table == nil {
		return newValidationError(Violation{
			Reason: ReasonUnknownTable,
			Detail: fmt.Sprintf("table %d does not exist in event %d", tableID, state.Event.ID),
		})
	}
	var occupants []uint64
	for _, g := range state.Guests {
		if g.TableID != nil && *g.TableID == tableID {
			occupants = append(occupants, g.ID)
		}
	}
	if len(occupants) > 0 {
		return newValidationError(Violation{
			Reason:     ReasonOrphanTableReference,
			TableLabel: table.Label,
			GuestIDs:   occupants,
			Detail:     fmt.Sprintf("%d guests are still assigned to table %q", len(occupants), table.Label),
		})
	}
	return nil
}
