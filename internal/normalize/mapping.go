// =============================================================================
// Labor Ledger - Row Normalizer: Field Mapping
// =============================================================================
//
// Spreadsheets arrive with inconsistent headers (일자, 날짜, 년-월-일 ... all
// mean "date"). A FieldMapping names, for each logical field, the ordered
// list of headers that may carry it. The first candidate with a value wins.
//
// =============================================================================

package normalize

import (
	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// Logical field names shared by the mappings, rule sets and analyzers.
const (
	FieldDate     = "date"
	FieldSite     = "site"
	FieldWorker   = "worker"
	FieldHours    = "hours"
	FieldMemo     = "memo"
	FieldCategory = "category"
	FieldAmount   = "amount"
	FieldVendor   = "vendor"
	FieldAddress  = "address"
)

// FieldMapping maps a logical field onto its candidate headers in priority order.
type FieldMapping map[string][]string

// DefaultWorkMapping returns the header synonyms used by daily labor sheets.
func DefaultWorkMapping() FieldMapping {
	return FieldMapping{
		FieldDate:   {"일자", "사용일", "년-월-일", "날짜", "date"},
		FieldSite:   {"현장", "site"},
		FieldWorker: {"작업자", "worker"},
		FieldHours:  {"공수", "hours"},
		FieldMemo:   {"메모", "memo"},
	}
}

// DefaultExpenseMapping returns the header synonyms used by expense sheets.
func DefaultExpenseMapping() FieldMapping {
	return FieldMapping{
		FieldDate:     {"사용일", "날짜", "date"},
		FieldSite:     {"현장", "site"},
		FieldWorker:   {"작업자", "worker"},
		FieldCategory: {"항목", "category"},
		FieldAmount:   {"금액", "amount"},
		FieldVendor:   {"사용처", "vendor"},
		FieldAddress:  {"주소", "address"},
	}
}

// Columns returns the candidate headers for a field. A name the mapping does
// not know is treated as a literal header.
func (m FieldMapping) Columns(field string) []string {
	if cols, ok := m[field]; ok && len(cols) > 0 {
		return cols
	}
	return []string{field}
}

// Merge returns a copy of m with every field in override replacing its entry.
func (m FieldMapping) Merge(override map[string][]string) FieldMapping {
	out := make(FieldMapping, len(m)+len(override))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range override {
		if len(v) > 0 {
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}

// Value returns the first non-blank cell among the field's candidate headers.
func (m FieldMapping) Value(row types.RawRow, field string) (any, bool) {
	return Lookup(row, m.Columns(field)...)
}

// Text is Value rendered as trimmed text ("" when absent).
func (m FieldMapping) Text(row types.RawRow, field string) string {
	v, ok := m.Value(row, field)
	if !ok {
		return ""
	}
	return Text(v)
}

// Raw returns the cell under the field's first present header, blank or not.
// The duplicate analyzer compares raw cells, so it needs blanks too.
func (m FieldMapping) Raw(row types.RawRow, field string) any {
	for _, col := range m.Columns(field) {
		if v, ok := row[col]; ok {
			return v
		}
	}
	return nil
}
