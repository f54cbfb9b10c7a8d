package engine

import (
	"strings"
	"time"
)

// ImportMode selects how a batch import treats existing rows.
type ImportMode string

const (
	// ModeReplaceAll wipes the event's guests and tables and installs
	// the batch as the new complete state.
	ModeReplaceAll ImportMode = "replace_all"
	// ModeUpsert merges the batch: rows matching an existing guest's
	// natural key update that guest, others are created.
	ModeUpsert ImportMode = "upsert"
)

// ImportRow is the strict intermediate record the spreadsheet adapter
// hands to the engine.  Loose spreadsheet cells are mapped onto these
// explicit optional fields before any validation runs; a shape the
// adapter cannot map is rejected there, never re-checked at runtime here.
type ImportRow struct {
	GuestName  string
	TableLabel string // empty means unassigned
	SeatNo     *int   // seat within the table, nil means unnumbered
	Dietary    string
	Contact    *string
	// Check-in state travels through export/import so that a
	// replace_all re-import of an exported sheet preserves arrivals,
	// timestamps included, instead of resetting them.
	CheckedIn   bool
	CheckedInAt *time.Time
}

// RowOutcome reports what happened to one accepted batch row.
type RowOutcome struct {
	Row        int     `json:"row"`
	GuestID    uint64  `json:"guest_id"`
	GuestName  string  `json:"guest_name"`
	Outcome    string  `json:"outcome"` // "created" or "updated"
	TableLabel *string `json:"table_label"`
}

// ImportResult is the per-guest outcome list of a committed batch.
type ImportResult struct {
	EventID  uint64       `json:"event_id"`
	Mode     ImportMode   `json:"mode"`
	Outcomes []RowOutcome `json:"outcomes"`
}

// NormalizeDietary folds free-text dietary cells onto the small set of
// values the kitchen actually works with.  Anything mentioning an
// allergy keeps its original text behind the allergies: prefix.
func NormalizeDietary(s string) string {
	d := strings.ToLower(strings.TrimSpace(s))
	switch {
	case d == "" || d == "nan" || d == "none" || d == "-":
		return "none"
	case d == "veg" || d == "vegetarian":
		return "vegetarian"
	case d == "halal":
		return "halal"
	case strings.Contains(d, "allerg"):
		return "allergies:" + d
	default:
		return d
	}
}

// naturalKey is the identity under which import rows and existing
// guests are matched: lower-cased, space-collapsed name plus
// lower-cased contact.
func naturalKey(name string, contact *string) string {
	n := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	c := ""
	if contact != nil {
		c = strings.ToLower(strings.TrimSpace(*contact))
	}
	return n + "|" + c
}
