package sheet

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/labor-ledger/internal/types"
)

func TestParseCSV(t *testing.T) {
	in := "\ufeff작업자,현장,일자,공수,\nKim,SiteA,2025-03-01,1,ignored\n,,,,\nLee, SiteA ,2025-03-01,,\n"

	rows, err := Parse(strings.NewReader(in), "work.csv", Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, types.RawRow{"작업자": "Kim", "현장": "SiteA", "일자": "2025-03-01", "공수": "1"}, rows[0])
	assert.Equal(t, "SiteA ", rows[1]["현장"])
	_, hasHours := rows[1]["공수"]
	assert.False(t, hasHours)
}

func TestParseCSVSemicolon(t *testing.T) {
	in := "worker;site\nKim;SiteA\n"
	rows, err := Parse(strings.NewReader(in), "work.txt", Options{Delimiter: ";"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SiteA", rows[0]["site"])
}

func TestParseInsufficientRows(t *testing.T) {
	_, err := Parse(strings.NewReader("worker,site\n"), "work.csv", Options{})
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "work.csv", pe.File)
	assert.ErrorIs(t, err, ErrInsufficientRows)
}

func TestParseUnsupported(t *testing.T) {
	_, err := Parse(strings.NewReader("x"), "work.pdf", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseXLSXKeepsNumbers(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"작업자", "현장", "일자", "공수", "메모"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Kim", "SiteA", 45672, 1.5, "note"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Lee", "SiteA", "2025-01-16", 1}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Parse(bytes.NewReader(buf.Bytes()), "work.xlsx", Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Kim", rows[0]["작업자"])
	assert.Equal(t, float64(45672), rows[0]["일자"])
	assert.Equal(t, 1.5, rows[0]["공수"])
	assert.Equal(t, "note", rows[0]["메모"])

	assert.Equal(t, "2025-01-16", rows[1]["일자"])
	assert.Equal(t, float64(1), rows[1]["공수"])
	_, hasMemo := rows[1]["메모"]
	assert.False(t, hasMemo)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expense.csv")
	require.NoError(t, os.WriteFile(path, []byte("현장,사용일,항목,금액\nSiteA,2025-03-01,자재,\"12,000\"\n"), 0644))

	rows, err := ParseFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "12,000", rows[0]["금액"])

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}
