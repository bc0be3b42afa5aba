package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
)

// readCSV reads every record of a delimited text file.
func readCSV(r io.Reader, opts Options) ([][]any, error) {
	reader := csv.NewReader(r)
	configureReader(reader, opts.Delimiter)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return textTable(records), nil
}

// configureReader applies the delimiter and the lenient parsing settings
// spreadsheet exports need.
func configureReader(reader *csv.Reader, delimiter string) {
	switch delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(delimiter) > 0 {
			reader.Comma = rune(delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Allow quotes that don't follow strict CSV rules.
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
}
