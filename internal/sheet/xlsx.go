package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads the selected worksheet with raw cell values so that dates
// stay spreadsheet serials and numbers stay numbers.
func readXLSX(r io.Reader, opts Options) ([][]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheetName := opts.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}

	table := make([][]any, len(rows))
	for r, row := range rows {
		table[r] = make([]any, len(row))
		for c, raw := range row {
			if r == 0 || strings.TrimSpace(raw) == "" {
				table[r][c] = raw
				continue
			}
			table[r][c] = typedCell(f, sheetName, c, r, raw)
		}
	}
	return table, nil
}

// typedCell converts a raw cell string into float64 or bool when the cell's
// stored type says it is one.
func typedCell(f *excelize.File, sheetName string, col, row int, raw string) any {
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return raw
	}
	typ, err := f.GetCellType(sheetName, ref)
	if err != nil {
		return raw
	}

	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	}
	return raw
}
