package spreadsheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kamyarm/wedding-seating/internal/model"
)

// buildSheet writes an xlsx with the given header and records.
func buildSheet(t *testing.T, header []string, records [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, h := range header {
		ref, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, ref, h))
	}
	for r, rec := range records {
		for c, v := range rec {
			ref, err := excelize.CoordinatesToCellName(c+1, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, ref, v))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParse_HeadersCaseInsensitive(t *testing.T) {
	buf := buildSheet(t,
		[]string{"NAME", " table ", "Dietary Preference", "Email"},
		[][]string{
			{"Sara Lee", "A1", "veg", "sara@example.com"},
			{"Ali", "", "", ""},
		})

	rows, err := Parse(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sara Lee", rows[0].GuestName)
	assert.Equal(t, "A1", rows[0].TableLabel)
	require.NotNil(t, rows[0].Contact)
	assert.Equal(t, "sara@example.com", *rows[0].Contact)
	assert.Equal(t, "", rows[1].TableLabel)
	assert.Nil(t, rows[1].Contact)
}

func TestParse_SkipsEmptyRows(t *testing.T) {
	buf := buildSheet(t,
		[]string{"Name", "Table"},
		[][]string{
			{"One", "A"},
			{"", ""},
			{"Two", "B"},
		})

	rows, err := Parse(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Two", rows[1].GuestName)
}

func TestParse_MissingRequiredColumns(t *testing.T) {
	buf := buildSheet(t, []string{"Name", "Dietary Preference"}, nil)

	_, err := Parse(buf)
	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, []string{"table"}, shapeErr.MissingColumns)
}

func TestParse_NotAWorkbook(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte("name,table\nSara,A1\n")))
	var shapeErr *ShapeError
	assert.ErrorAs(t, err, &shapeErr)
}

func TestParse_SeatNumbers(t *testing.T) {
	buf := buildSheet(t,
		[]string{"Name", "Table", "Seat No."},
		[][]string{
			{"Sara", "A", "3"},
			{"Dana", "A", ""},
		})

	rows, err := Parse(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].SeatNo)
	assert.Equal(t, 3, *rows[0].SeatNo)
	assert.Nil(t, rows[1].SeatNo)
}

func TestParse_BadSeatCell(t *testing.T) {
	buf := buildSheet(t,
		[]string{"Name", "Table", "Seat No."},
		[][]string{{"Sara", "A", "front-left"}})

	_, err := Parse(buf)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, "Seat No.", rowErr.Column)
}

func TestParse_BadCheckInCell(t *testing.T) {
	buf := buildSheet(t,
		[]string{"Name", "Table", "Checked In"},
		[][]string{{"Sara", "A", "maybe"}})

	_, err := Parse(buf)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, "Checked In", rowErr.Column)
}

func TestParse_BadTimestampCell(t *testing.T) {
	buf := buildSheet(t,
		[]string{"Name", "Table", "Checked In", "Checked In At"},
		[][]string{{"Sara", "A", "Yes", "last tuesday"}})

	_, err := Parse(buf)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "Checked In At", rowErr.Column)
}

func TestWriteParseRoundTrip(t *testing.T) {
	arrived := time.Date(2026, 6, 20, 19, 30, 12, 0, time.UTC)
	table := "Garden"
	contact := "dana@example.com"
	seat := 7
	snap := &model.Snapshot{
		EventName: "Mina & Arash",
		Guests: []model.SnapshotGuest{
			{Name: "Dana", TableLabel: &table, SeatNo: &seat, Dietary: "halal", Contact: &contact,
				CheckedIn: true, CheckedInAt: &arrived},
			{Name: "Nima", Dietary: "none"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, snap))

	rows, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Dana", rows[0].GuestName)
	assert.Equal(t, "Garden", rows[0].TableLabel)
	require.NotNil(t, rows[0].SeatNo)
	assert.Equal(t, seat, *rows[0].SeatNo)
	assert.Equal(t, "halal", rows[0].Dietary)
	require.NotNil(t, rows[0].Contact)
	assert.Equal(t, contact, *rows[0].Contact)
	assert.True(t, rows[0].CheckedIn)
	require.NotNil(t, rows[0].CheckedInAt)
	assert.True(t, rows[0].CheckedInAt.Equal(arrived))

	assert.Equal(t, "Nima", rows[1].GuestName)
	assert.Equal(t, "", rows[1].TableLabel)
	assert.Nil(t, rows[1].SeatNo)
	assert.False(t, rows[1].CheckedIn)
	assert.Nil(t, rows[1].CheckedInAt)
}

func TestTemplate_ParsesCleanly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Template(&buf))

	rows, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.NotEmpty(t, r.GuestName)
		assert.NotEmpty(t, r.TableLabel)
		assert.NotNil(t, r.SeatNo)
	}
}
