package normalize

import (
	"time"

	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// Date resolves the field's first non-blank candidate and parses it.
// An unparseable or missing date yields "".
func (m FieldMapping) Date(row types.RawRow, field string) string {
	v, ok := m.Value(row, field)
	if !ok {
		return ""
	}
	d, _ := ParseDate(v)
	return d
}

// Work maps a raw row onto a WorkRecord. Wages are left at zero; the
// reconciliation pipeline fills them in once the worker is known.
func Work(row types.RawRow, m FieldMapping, now time.Time) types.WorkRecord {
	hours, _ := m.Value(row, FieldHours)
	return types.WorkRecord{
		Date:      m.Date(row, FieldDate),
		Site:      m.Text(row, FieldSite),
		Worker:    m.Text(row, FieldWorker),
		Hours:     Number(hours),
		Memo:      m.Text(row, FieldMemo),
		CreatedAt: now,
	}
}

// Expense maps a raw row onto an ExpenseRecord.
func Expense(row types.RawRow, m FieldMapping, now time.Time) types.ExpenseRecord {
	amount, _ := m.Value(row, FieldAmount)
	return types.ExpenseRecord{
		Date:      m.Date(row, FieldDate),
		Site:      m.Text(row, FieldSite),
		Worker:    m.Text(row, FieldWorker),
		Category:  m.Text(row, FieldCategory),
		Amount:    Number(amount),
		Vendor:    m.Text(row, FieldVendor),
		Address:   m.Text(row, FieldAddress),
		CreatedAt: now,
	}
}
