package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/labor-ledger/internal/analysis"
	"github.com/ginjaninja78/labor-ledger/internal/normalize"
	"github.com/ginjaninja78/labor-ledger/internal/types"
	"github.com/ginjaninja78/labor-ledger/internal/validation"
	"github.com/ginjaninja78/labor-ledger/internal/wage"
)

// Lookup is the slice of the registry the pipeline reads.
type Lookup interface {
	FindWorker(name string) (types.Worker, bool)
	HasWorker(name string) bool
	HasSite(name string) bool
}

// =============================================================================
// WORK RECORDS
// =============================================================================

// WorkRules is the validation rule set for daily labor uploads.
func WorkRules(reg Lookup, m normalize.FieldMapping) validation.RuleSet {
	return validation.RuleSet{
		Mapping:        m,
		RequiredFields: []string{normalize.FieldWorker, normalize.FieldSite, normalize.FieldHours},
		DateFields:     []string{normalize.FieldDate},
		NumericFields:  []string{normalize.FieldHours},
		EntityValidations: []validation.EntityValidation{
			{Field: normalize.FieldWorker, Label: "worker", Exists: reg.HasWorker},
			{Field: normalize.FieldSite, Label: "site", Exists: reg.HasSite},
		},
	}
}

// WorkAnalysis configures the analyzer for daily labor uploads.
// Rows collide on date, site and worker; only hours decide exactness.
func WorkAnalysis(reg Lookup, m normalize.FieldMapping) analysis.Config {
	site := func(r types.RawRow) string { return m.Text(r, normalize.FieldSite) }
	return analysis.Config{
		DuplicateKey: func(r types.RawRow) string {
			return joinKey(m.Date(r, normalize.FieldDate), site(r), m.Text(r, normalize.FieldWorker))
		},
		IsExactDuplicate: func(r, first types.RawRow) bool {
			return rawNumber(m, r, normalize.FieldHours) == rawNumber(m, first, normalize.FieldHours)
		},
		Difference: func(r, first types.RawRow) string {
			return fmt.Sprintf("hours differ: %s vs %s",
				m.Text(first, normalize.FieldHours), m.Text(r, normalize.FieldHours))
		},
		Entities: []analysis.EntityCheck{
			{Kind: analysis.EntityWorker, Value: func(r types.RawRow) string { return m.Text(r, normalize.FieldWorker) }, Exists: reg.HasWorker},
			{Kind: analysis.EntitySite, Value: site, Exists: reg.HasSite},
		},
		SiteValue:  site,
		SiteExists: reg.HasSite,
	}
}

// WorkSpec configures reconciliation for daily labor uploads.
func WorkSpec(reg Lookup, calc wage.Calculator, m normalize.FieldMapping, now time.Time) Spec[types.WorkRecord] {
	return Spec[types.WorkRecord]{
		Kind:       types.KindWork,
		Normalize:  func(r types.RawRow) types.WorkRecord { return normalize.Work(r, m, now) },
		Site:       func(r types.WorkRecord) string { return r.Site },
		SiteExists: reg.HasSite,
		Key:        WorkKey,
		Entities: []EntityCheck[types.WorkRecord]{
			{Field: normalize.FieldWorker, Value: func(r types.WorkRecord) string { return r.Worker }, Exists: reg.HasWorker},
			{Field: normalize.FieldSite, Value: func(r types.WorkRecord) string { return r.Site }, Exists: reg.HasSite},
		},
		PostProcess: func(r *types.WorkRecord) {
			var worker *types.Worker
			if w, ok := reg.FindWorker(r.Worker); ok {
				worker = &w
			}
			r.ApplyWage(calc.Compute(worker, r.Hours))
		},
	}
}

// WorkKey identifies a work record: one worker, one site, one day.
func WorkKey(r types.WorkRecord) string {
	return joinKey(r.Date, r.Site, r.Worker)
}

// =============================================================================
// EXPENSE RECORDS
// =============================================================================

// expenseFields are the seven fields that identify an expense line.
var expenseFields = []string{
	normalize.FieldDate,
	normalize.FieldSite,
	normalize.FieldWorker,
	normalize.FieldCategory,
	normalize.FieldAmount,
	normalize.FieldVendor,
	normalize.FieldAddress,
}

// ExpenseRules is the validation rule set for expense uploads.
func ExpenseRules(reg Lookup, m normalize.FieldMapping) validation.RuleSet {
	return validation.RuleSet{
		Mapping:        m,
		RequiredFields: []string{normalize.FieldSite, normalize.FieldCategory, normalize.FieldAmount},
		DateFields:     []string{normalize.FieldDate},
		NumericFields:  []string{normalize.FieldAmount},
		EntityValidations: []validation.EntityValidation{
			{Field: normalize.FieldSite, Label: "site", Exists: reg.HasSite},
		},
	}
}

// ExpenseAnalysis configures the analyzer for expense uploads. Rows collide
// on the normalized seven-field tuple and are exact only when every raw cell
// matches too.
func ExpenseAnalysis(reg Lookup, m normalize.FieldMapping) analysis.Config {
	site := func(r types.RawRow) string { return m.Text(r, normalize.FieldSite) }
	return analysis.Config{
		DuplicateKey: func(r types.RawRow) string {
			return ExpenseKey(normalize.Expense(r, m, time.Time{}))
		},
		IsExactDuplicate: func(r, first types.RawRow) bool {
			return len(rawDifferences(m, r, first)) == 0
		},
		Difference: func(r, first types.RawRow) string {
			return "fields differ: " + strings.Join(rawDifferences(m, r, first), ", ")
		},
		Entities: []analysis.EntityCheck{
			{Kind: analysis.EntitySite, Value: site, Exists: reg.HasSite},
		},
		SiteValue:  site,
		SiteExists: reg.HasSite,
	}
}

// ExpenseSpec configures reconciliation for expense uploads.
func ExpenseSpec(reg Lookup, m normalize.FieldMapping, now time.Time) Spec[types.ExpenseRecord] {
	return Spec[types.ExpenseRecord]{
		Kind:       types.KindExpense,
		Normalize:  func(r types.RawRow) types.ExpenseRecord { return normalize.Expense(r, m, now) },
		Site:       func(r types.ExpenseRecord) string { return r.Site },
		SiteExists: reg.HasSite,
		Key:        ExpenseKey,
		Entities: []EntityCheck[types.ExpenseRecord]{
			{Field: normalize.FieldSite, Value: func(r types.ExpenseRecord) string { return r.Site }, Exists: reg.HasSite},
		},
	}
}

// ExpenseKey identifies an expense line by all seven of its fields.
func ExpenseKey(r types.ExpenseRecord) string {
	return joinKey(r.Date, r.Site, r.Worker, r.Category,
		strconv.FormatFloat(r.Amount, 'f', -1, 64), r.Vendor, r.Address)
}

// =============================================================================
// HELPERS
// =============================================================================

func joinKey(parts ...string) string {
	return strings.Join(parts, "|")
}

func rawNumber(m normalize.FieldMapping, r types.RawRow, field string) float64 {
	v, _ := m.Value(r, field)
	return normalize.Number(v)
}

// rawDifferences lists the expense fields whose raw cells differ.
func rawDifferences(m normalize.FieldMapping, r, first types.RawRow) []string {
	var diff []string
	for _, f := range expenseFields {
		a := normalize.Text(m.Raw(r, f))
		b := normalize.Text(m.Raw(first, f))
		if a != b {
			diff = append(diff, fmt.Sprintf("%s (%s vs %s)", f, b, a))
		}
	}
	return diff
}
