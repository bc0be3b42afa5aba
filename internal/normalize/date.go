package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

var (
	isoDashRe   = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	isoSlashRe  = regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}$`)
	compactRe   = regexp.MustCompile(`^\d{8}$`)
	usSlashRe   = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	numericRe   = regexp.MustCompile(`^\d+(\.\d+)?$`)
	genericDate = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006/01/02 15:04:05",
		"2006.1.2",
		"2006. 1. 2",
		"2006-1-2",
		"2006/1/2",
		"Jan 2, 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"Mon Jan 2 2006",
	}
)

// ParseDate normalizes a spreadsheet date cell to "YYYY-MM-DD".
//
// Accepted, in priority order:
//  1. numeric spreadsheet serials (1899-12-30 + serial days)
//  2. YYYY-MM-DD
//  3. YYYY/MM/DD
//  4. YYYYMMDD
//  5. MM/DD/YYYY, falling back to DD/MM/YYYY when the month is impossible
//  6. a handful of generic layouts, then numeric text as a serial
//
// It returns false when nothing matches. It never panics.
func ParseDate(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.Format(dateLayout), true
	case int:
		return parseNumericDate(float64(t))
	case int64:
		return parseNumericDate(float64(t))
	case float64:
		return parseNumericDate(t)
	case string:
		return parseDateString(strings.TrimSpace(t))
	}
	return "", false
}

func parseNumericDate(serial float64) (string, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return "", false
	}
	if serial >= 1 && serial <= maxExcelSerial {
		return fromSerial(serial)
	}
	// 20250115 typed into a numeric cell.
	if serial == math.Trunc(serial) && serial > 0 {
		return parseDateString(strconv.FormatFloat(serial, 'f', 0, 64))
	}
	return "", false
}

func fromSerial(serial float64) (string, bool) {
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return t.Format(dateLayout), true
}

func parseDateString(s string) (string, bool) {
	if s == "" {
		return "", false
	}

	switch {
	case isoDashRe.MatchString(s):
		return layoutDate("2006-1-2", s)
	case isoSlashRe.MatchString(s):
		return layoutDate("2006/1/2", s)
	case compactRe.MatchString(s):
		return layoutDate("20060102", s)
	case usSlashRe.MatchString(s):
		if d, ok := layoutDate("1/2/2006", s); ok {
			return d, true
		}
		return layoutDate("2/1/2006", s)
	}

	cleaned := strings.TrimSuffix(s, ".")
	for _, layout := range genericDate {
		if d, ok := layoutDate(layout, cleaned); ok {
			return d, true
		}
	}

	if numericRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 1 && f <= maxExcelSerial {
			return fromSerial(f)
		}
	}
	return "", false
}

func layoutDate(layout, s string) (string, bool) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return "", false
	}
	return t.Format(dateLayout), true
}
