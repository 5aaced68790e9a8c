package dataprocessing

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"scoutlens/pkg/contracts/domain"
)

func testParser() *Parser {
	return NewParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseCSV_Coercion(t *testing.T) {
	data := []byte("date,hits,at_bats\n2024-05-01,2,4\n2024-05-02,3,5\n")

	result, err := testParser().Parse(data, domain.FileKindCSV)
	require.NoError(t, err)
	require.Len(t, result.Table.Rows, 2)
	assert.Equal(t, []string{"date", "hits", "at_bats"}, result.Table.Headers)

	row := result.Table.Rows[0]
	assert.Equal(t, domain.CellText, row["date"].Kind)
	assert.Equal(t, "2024-05-01", row["date"].Text)
	assert.Equal(t, domain.CellNumber, row["hits"].Kind)
	assert.Equal(t, 2.0, row["hits"].Number)
}

func TestParseCSV_BlankBecomesNull(t *testing.T) {
	data := []byte("player,goals\nSmith,\n,3\n")

	result, err := testParser().Parse(data, domain.FileKindCSV)
	require.NoError(t, err)
	require.Len(t, result.Table.Rows, 2)

	assert.True(t, result.Table.Rows[0]["goals"].IsNull())
	assert.True(t, result.Table.Rows[1]["player"].IsNull())
}

func TestParseCSV_NoBoolCoercion(t *testing.T) {
	data := []byte("player,starter\nSmith,true\n")

	result, err := testParser().Parse(data, domain.FileKindCSV)
	require.NoError(t, err)

	// CSV coercion only produces numbers, text and nulls.
	cell := result.Table.Rows[0]["starter"]
	assert.Equal(t, domain.CellText, cell.Kind)
	assert.Equal(t, "true", cell.Text)
}

func TestParseCSV_ThousandsSeparator(t *testing.T) {
	data := []byte("stadium,attendance\nHome,42,318\n")

	// The unquoted comma splits the record; the mismatch is a warning.
	result, err := testParser().Parse(data, domain.FileKindCSV)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Warnings)

	data = []byte("stadium,attendance\nHome,\"42,318\"\n")
	result, err = testParser().Parse(data, domain.FileKindCSV)
	require.NoError(t, err)
	cell := result.Table.Rows[0]["attendance"]
	assert.Equal(t, domain.CellNumber, cell.Kind)
	assert.Equal(t, 42318.0, cell.Number)
}

func TestParseCSV_ShortRowPaddedWithWarning(t *testing.T) {
	data := []byte("a,b,c\n1,2\n")

	result, err := testParser().Parse(data, domain.FileKindCSV)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "expected 3 cells, got 2")

	row := result.Table.Rows[0]
	assert.Equal(t, 1.0, row["a"].Number)
	assert.True(t, row["c"].IsNull())
}

func TestParseCSV_EmptyInputFatal(t *testing.T) {
	_, err := testParser().Parse(nil, domain.FileKindCSV)
	assert.Error(t, err)
}

func TestParseCSV_Deterministic(t *testing.T) {
	data := []byte("date,hits\n2024-05-01,2\n2024-05-02,3\n")

	first, err := testParser().Parse(data, domain.FileKindCSV)
	require.NoError(t, err)
	second, err := testParser().Parse(data, domain.FileKindCSV)
	require.NoError(t, err)

	assert.Equal(t, first.Table, second.Table)
	assert.Equal(t, first.Warnings, second.Warnings)
}

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}, order []string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for rowIdx, row := range sheets[name] {
			cellRef, err := excelize.CoordinatesToCellName(1, rowIdx+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cellRef, &row))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseWorkbook_SingleSheetNoSheetColumn(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Stats": {
			{"player", "goals"},
			{"Smith", 2},
		},
	}, []string{"Stats"})

	result, err := testParser().Parse(data, domain.FileKindXLSX)
	require.NoError(t, err)
	assert.Equal(t, []string{"player", "goals"}, result.Table.Headers)
	assert.NotContains(t, result.Table.Headers, domain.SheetColumn)
}

func TestParseWorkbook_MultiSheetUnion(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Home": {
			{"A", "B"},
			{"a1", 1},
		},
		"Away": {
			{"B", "C"},
			{2, "c1"},
		},
	}, []string{"Home", "Away"})

	result, err := testParser().Parse(data, domain.FileKindXLSX)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.SheetColumn, "A", "B", "C"}, result.Table.Headers)
	require.Len(t, result.Table.Rows, 2)

	homeRow := result.Table.Rows[0]
	assert.Equal(t, "Home", homeRow[domain.SheetColumn].Text)
	assert.True(t, homeRow["C"].IsNull())

	awayRow := result.Table.Rows[1]
	assert.Equal(t, "Away", awayRow[domain.SheetColumn].Text)
	assert.True(t, awayRow["A"].IsNull())
}

func TestParseWorkbook_Deterministic(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Home": {
			{"A", "B"},
			{"a1", 1},
			{"a2", 2},
		},
		"Away": {
			{"B", "C"},
			{3, "c1"},
		},
	}, []string{"Home", "Away"})

	first, err := testParser().Parse(data, domain.FileKindXLSX)
	require.NoError(t, err)
	second, err := testParser().Parse(data, domain.FileKindXLSX)
	require.NoError(t, err)

	// Sheet order, header union and row order must not vary between
	// parses of the same workbook.
	assert.Equal(t, first.Table, second.Table)
	assert.Equal(t, first.Warnings, second.Warnings)
}

func TestParseWorkbook_BoolCoercion(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Stats": {
			{"player", "starter"},
			{"Smith", "TRUE"},
			{"Jones", "false"},
		},
	}, []string{"Stats"})

	result, err := testParser().Parse(data, domain.FileKindXLSX)
	require.NoError(t, err)
	require.Len(t, result.Table.Rows, 2)

	assert.Equal(t, domain.CellBool, result.Table.Rows[0]["starter"].Kind)
	assert.True(t, result.Table.Rows[0]["starter"].Bool)
	assert.False(t, result.Table.Rows[1]["starter"].Bool)
}

func TestParseWorkbook_EmptySheetDoesNotContribute(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Stats": {
			{"player", "goals"},
			{"Smith", 2},
		},
		"Notes": {},
	}, []string{"Stats", "Notes"})

	result, err := testParser().Parse(data, domain.FileKindXLSX)
	require.NoError(t, err)

	// Only one sheet produced rows, so no provenance column.
	assert.NotContains(t, result.Table.Headers, domain.SheetColumn)
}

func TestParseWorkbook_Unreadable(t *testing.T) {
	_, err := testParser().Parse([]byte("definitely not a zip archive"), domain.FileKindXLSX)
	assert.Error(t, err)
}

func TestParse_UnsupportedKind(t *testing.T) {
	_, err := testParser().Parse([]byte("a,b\n1,2\n"), domain.FileKind("pdf"))
	assert.Error(t, err)
}
