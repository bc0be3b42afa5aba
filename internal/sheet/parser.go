// =============================================================================
// Labor Ledger - Spreadsheet Ingestion
// =============================================================================
//
// Turns an uploaded spreadsheet into RawRows: the first row is the header,
// every later non-blank row becomes header -> cell value.
//
// SUPPORTED FORMATS (by file extension):
//   .xlsx .xlsm .xltx  : excelize, typed cells (numbers become float64)
//   .xls               : extrame/xls, text cells
//   .csv .txt          : encoding/csv, text cells, configurable delimiter
//
// RULES:
//   - Fewer than two rows (header + one data row) is a ParseError.
//   - Columns with a blank header are ignored.
//   - Blank cells are omitted from the row.
//   - Rows with no non-blank cell are skipped.
//
// =============================================================================

package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// ErrInsufficientRows means the sheet lacks a header row plus one data row.
var ErrInsufficientRows = errors.New("not enough data: a header row and at least one data row are required")

// ErrUnsupportedFormat means the file extension is not a known spreadsheet type.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// ParseError reports why an upload could not be read. Nothing from a failed
// upload is retained.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options tunes the readers.
type Options struct {
	// Sheet selects a worksheet by name. Empty means the first sheet.
	Sheet string

	// Delimiter for delimited text: ",", ";", "|" or "tab".
	Delimiter string
}

// ParseFile opens path and parses it by extension.
func ParseFile(path string, opts Options) ([]types.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{File: filepath.Base(path), Err: err}
	}
	defer f.Close()
	return Parse(f, filepath.Base(path), opts)
}

// Parse reads a spreadsheet from r. filename selects the reader.
func Parse(r io.Reader, filename string, opts Options) ([]types.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{File: filename, Err: err}
	}

	var table [][]any
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx":
		table, err = readXLSX(bytes.NewReader(data), opts)
	case ".xls":
		table, err = readXLS(bytes.NewReader(data), opts)
	case ".csv", ".txt":
		table, err = readCSV(bytes.NewReader(data), opts)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, &ParseError{File: filename, Err: err}
	}

	rows, err := buildRows(table)
	if err != nil {
		return nil, &ParseError{File: filename, Err: err}
	}
	return rows, nil
}

// buildRows maps every data row onto the header row.
func buildRows(table [][]any) ([]types.RawRow, error) {
	if len(table) < 2 {
		return nil, ErrInsufficientRows
	}

	headers := make([]string, len(table[0]))
	for i, h := range table[0] {
		if h == nil {
			continue
		}
		headers[i] = strings.TrimSpace(strings.TrimPrefix(fmt.Sprint(h), "\ufeff"))
	}

	rows := make([]types.RawRow, 0, len(table)-1)
	for _, line := range table[1:] {
		row := make(types.RawRow)
		for i, cell := range line {
			if i >= len(headers) || headers[i] == "" || isBlank(cell) {
				continue
			}
			row[headers[i]] = cell
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func isBlank(cell any) bool {
	switch v := cell.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

// textTable lifts a [][]string reader result into the shared table shape.
func textTable(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = make([]any, len(row))
		for j, cell := range row {
			out[i][j] = cell
		}
	}
	return out
}
