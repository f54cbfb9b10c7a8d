// Package spreadsheet is the batch import/export adapter.  It maps
// loosely-typed xlsx cells onto the engine's strict ImportRow records
// and serializes snapshots back into workbooks.  Shape problems are
// reported through typed errors so an admin can fix the sheet; it
// never guesses at ambiguous data.
package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kamyarm/wedding-seating/internal/engine"
	"github.com/kamyarm/wedding-seating/internal/model"
)

// SheetName is the worksheet both import and export use.
const SheetName = "Guest List"

var requiredColumns = []string{"name", "table"}

// column headers recognized, compared case-insensitively after
// trimming.  "seat no.", "dietary preference", "contact", "checked in"
// and "checked in at" are optional.

// ShapeError reports a workbook whose structure cannot be mapped:
// missing required columns or no usable sheet.
type ShapeError struct {
	MissingColumns []string
	Detail         string
}

func (e *ShapeError) Error() string {
	if len(e.MissingColumns) > 0 {
		return "workbook shape invalid: missing columns " + strings.Join(e.MissingColumns, ", ")
	}
	return "workbook shape invalid: " + e.Detail
}

// RowError reports a cell value that cannot be interpreted.  Row is
// the 1-based worksheet row so the admin can jump straight to it.
type RowError struct {
	Row    int
	Column string
	Detail string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Detail)
}

type columnMap struct {
	name, table, seat, dietary, contact, checkedIn, checkedInAt int // -1 when absent
}

// Parse reads an uploaded workbook into engine import rows.  The first
// sheet is used; header matching is case-insensitive; fully empty rows
// are skipped.  Check-in columns round-trip exported state so a
// re-import preserves arrivals.
func Parse(r io.Reader) ([]engine.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ShapeError{Detail: "not a readable xlsx workbook"}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ShapeError{Detail: "workbook has no sheets"}
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, &ShapeError{Detail: "workbook has no header row"}
	}

	cols, missing := mapColumns(cells[0])
	if len(missing) > 0 {
		return nil, &ShapeError{MissingColumns: missing}
	}

	var rows []engine.ImportRow
	for i, rec := range cells[1:] {
		if emptyRecord(rec) {
			continue
		}
		row := engine.ImportRow{
			GuestName:  cell(rec, cols.name),
			TableLabel: cell(rec, cols.table),
			Dietary:    cell(rec, cols.dietary),
		}
		if v := cell(rec, cols.seat); v != "" {
			seat, err := strconv.Atoi(v)
			if err != nil {
				return nil, &RowError{Row: i + 2, Column: "Seat No.", Detail: fmt.Sprintf("expected a number, got %q", v)}
			}
			row.SeatNo = &seat
		}
		if c := cell(rec, cols.contact); c != "" {
			row.Contact = &c
		}
		if v := cell(rec, cols.checkedIn); v != "" {
			checked, err := parseYesNo(v)
			if err != nil {
				return nil, &RowError{Row: i + 2, Column: "Checked In", Detail: err.Error()}
			}
			row.CheckedIn = checked
		}
		if v := cell(rec, cols.checkedInAt); v != "" && row.CheckedIn {
			ts, err := parseTimestamp(v)
			if err != nil {
				return nil, &RowError{Row: i + 2, Column: "Checked In At", Detail: err.Error()}
			}
			row.CheckedInAt = &ts
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Write serializes a snapshot into a workbook on w, one guest per row
// with the table label resolved and check-in state included so the
// sheet can be re-imported losslessly.
func Write(w io.Writer, snap *model.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}
	headers := []string{"Name", "Table", "Seat No.", "Dietary Preference", "Contact", "Checked In", "Checked In At"}
	for i, h := range headers {
		cellRef, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cellRef, h); err != nil {
			return err
		}
	}
	for i, g := range snap.Guests {
		table := ""
		if g.TableLabel != nil {
			table = *g.TableLabel
		}
		seat := any("")
		if g.SeatNo != nil {
			seat = *g.SeatNo
		}
		contact := ""
		if g.Contact != nil {
			contact = *g.Contact
		}
		checked := "No"
		checkedAt := ""
		if g.CheckedIn {
			checked = "Yes"
			if g.CheckedInAt != nil {
				checkedAt = g.CheckedInAt.UTC().Format(timestampLayout)
			}
		}
		values := []any{g.Name, table, seat, g.Dietary, contact, checked, checkedAt}
		for j, v := range values {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cellRef, v); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

// Template writes an empty workbook with the expected headers and a
// few sample rows for guidance.
func Template(w io.Writer) error {
	sample := &model.Snapshot{Guests: []model.SnapshotGuest{
		{Name: "Sample Guest 1", TableLabel: strptr("A1"), SeatNo: intptr(1), Dietary: "none"},
		{Name: "Sample Guest 2", TableLabel: strptr("A1"), SeatNo: intptr(2), Dietary: "vegetarian"},
		{Name: "Sample Guest 3", TableLabel: strptr("B1"), SeatNo: intptr(1), Dietary: "halal"},
	}}
	return Write(w, sample)
}

const timestampLayout = "2006-01-02 15:04:05"

func mapColumns(header []string) (columnMap, []string) {
	cols := columnMap{name: -1, table: -1, seat: -1, dietary: -1, contact: -1, checkedIn: -1, checkedInAt: -1}
	for i, h := range header {
		switch normalized := strings.ToLower(strings.TrimSpace(h)); {
		case normalized == "name" || normalized == "guest name":
			cols.name = i
		case normalized == "table" || normalized == "table label":
			cols.table = i
		case strings.HasPrefix(normalized, "seat"):
			cols.seat = i
		case strings.Contains(normalized, "dietary"):
			cols.dietary = i
		case normalized == "contact" || normalized == "phone" || normalized == "email":
			cols.contact = i
		case normalized == "checked in at" || normalized == "checkin time":
			cols.checkedInAt = i
		case normalized == "checked in" || normalized == "checkin":
			cols.checkedIn = i
		}
	}
	var missing []string
	for _, req := range requiredColumns {
		switch req {
		case "name":
			if cols.name == -1 {
				missing = append(missing, "name")
			}
		case "table":
			if cols.table == -1 {
				missing = append(missing, "table")
			}
		}
	}
	return cols, missing
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func emptyRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseYesNo(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("expected Yes or No, got %q", v)
}

func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range []string{timestampLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}

func strptr(s string) *string { return &s }

func intptr(n int) *int { return &n }
