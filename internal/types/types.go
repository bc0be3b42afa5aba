// =============================================================================
// Labor Ledger - Shared Types
// =============================================================================
//
// This package contains the data model shared across the ledger modules. It
// sits at the bottom of the import graph so that normalize, validation,
// analysis, pipeline, registry and storage can all speak the same types
// without import cycles.
//
// DURABLE ENTITIES:
//   Worker, Site        : reference registry entries, keyed by Name
//   WorkRecord          : one worker's hours at one site on one date
//   ExpenseRecord       : one expense line at one site on one date
//
// EPHEMERAL:
//   RawRow              : one spreadsheet row, header -> cell value
//
// =============================================================================

package types

import (
	"time"
)

// =============================================================================
// RECORD KINDS
// =============================================================================

// Kind identifies which record variant an import produces.
type Kind string

const (
	// KindWork is the daily labor import.
	KindWork Kind = "work"

	// KindExpense is the site expense import.
	KindExpense Kind = "expense"
)

// ParseKind maps a user supplied name onto a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindWork:
		return KindWork, true
	case KindExpense:
		return KindExpense, true
	}
	return "", false
}

// =============================================================================
// RAW INPUT
// =============================================================================

// RawRow is one spreadsheet data row keyed by its column header.
// Values are string, float64, bool or time.Time depending on the reader.
type RawRow map[string]any

// =============================================================================
// REFERENCE ENTITIES
// =============================================================================

// Worker is a person who can be paid for work records.
type Worker struct {
	ID            string    `json:"id"`
	Name          string    `json:"name" validate:"required"`
	DailyRate     int64     `json:"dailyRate" validate:"gte=0"`
	MonthlySalary int64     `json:"monthlySalary,omitempty" validate:"gte=0"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Site is a job site that work and expense records are booked against.
type Site struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Address   string    `json:"address,omitempty"`
	Manager   string    `json:"manager,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// =============================================================================
// LEDGER RECORDS
// =============================================================================

// Wage is the computed pay for one work record, in whole currency units.
// NetPay is always GrossPay - Tax.
type Wage struct {
	GrossPay int64 `json:"grossPay"`
	Tax      int64 `json:"tax"`
	NetPay   int64 `json:"netPay"`
}

// WorkRecord is one worker's labor at one site on one date.
//
// Date is "YYYY-MM-DD" or empty when the source date could not be parsed.
// Hours is a day fraction (1.0 is one full day).
type WorkRecord struct {
	Date      string    `json:"date" csv:"date"`
	Site      string    `json:"site" csv:"site"`
	Worker    string    `json:"worker" csv:"worker"`
	Hours     float64   `json:"hours" csv:"hours"`
	Memo      string    `json:"memo" csv:"memo"`
	GrossPay  int64     `json:"grossPay" csv:"gross_pay"`
	Tax       int64     `json:"tax" csv:"tax"`
	NetPay    int64     `json:"netPay" csv:"net_pay"`
	CreatedAt time.Time `json:"createdAt" csv:"created_at"`
}

// ApplyWage copies a computed wage onto the record.
func (r *WorkRecord) ApplyWage(w Wage) {
	r.GrossPay = w.GrossPay
	r.Tax = w.Tax
	r.NetPay = w.NetPay
}

// ExpenseRecord is one expense line booked against a site.
type ExpenseRecord struct {
	Date      string    `json:"date" csv:"date"`
	Site      string    `json:"site" csv:"site"`
	Worker    string    `json:"worker" csv:"worker"`
	Category  string    `json:"category" csv:"category"`
	Amount    float64   `json:"amount" csv:"amount"`
	Vendor    string    `json:"vendor" csv:"vendor"`
	Address   string    `json:"address" csv:"address"`
	CreatedAt time.Time `json:"createdAt" csv:"created_at"`
}
