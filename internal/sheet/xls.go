package sheet

import (
	"fmt"
	"io"

	"github.com/extrame/xls"
)

// maxXLSRows bounds how many rows the legacy reader pulls from one sheet.
const maxXLSRows = 100000

// readXLS reads a legacy BIFF workbook. Cells arrive as display text.
func readXLS(r io.ReadSeeker, opts Options) ([][]any, error) {
	workbook, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}

	ws := workbook.GetSheet(0)
	if opts.Sheet != "" {
		ws = nil
		for i := 0; i < workbook.NumSheets(); i++ {
			if s := workbook.GetSheet(i); s != nil && s.Name == opts.Sheet {
				ws = s
				break
			}
		}
		if ws == nil {
			return nil, fmt.Errorf("worksheet %q not found", opts.Sheet)
		}
	}

	return textTable(sheetRows(ws)), nil
}

// sheetRows copies a worksheet into a dense table, keeping column positions
// so cells stay aligned with their headers.
func sheetRows(ws *xls.WorkSheet) [][]string {
	if ws == nil {
		return nil
	}
	var out [][]string
	for i := 0; i <= int(ws.MaxRow) && i < maxXLSRows; i++ {
		row := rowAt(ws, i)
		if row == nil {
			out = append(out, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		out = append(out, cells)
	}
	return out
}

// rowAt returns nil for rows the sheet never stored; the library panics on them.
func rowAt(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}
