package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// IsBlank reports whether a cell carries no usable value.
// Numeric zero is a value.
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return math.IsNaN(t)
	case time.Time:
		return t.IsZero()
	}
	return false
}

// Lookup returns the first non-blank value stored under any of keys.
func Lookup(row types.RawRow, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := row[k]; ok && !IsBlank(v) {
			return v, true
		}
	}
	return nil, false
}

// Text renders a cell as trimmed text.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(dateLayout)
	}
	return ""
}

// ParseNumber parses a numeric cell. Strings are trimmed and thousands
// separators removed; anything else that is not a number fails.
func ParseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Number coerces a cell to a number, yielding 0 for anything unparseable.
func Number(v any) float64 {
	f, ok := ParseNumber(v)
	if !ok {
		return 0
	}
	return f
}
