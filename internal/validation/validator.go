// =============================================================================
// Labor Ledger - Validation Engine
// =============================================================================
//
// This module checks uploaded spreadsheet rows against a RuleSet before they
// are analyzed or reconciled. It never aborts on bad data: every problem is
// collected as a ValidationError tagged with its spreadsheet row number.
//
// RULES (applied to every row, in order):
//   1. Required : each required field must carry a value (0 counts)
//   2. Date     : at least one of the date columns must carry a value
//   3. Numeric  : numeric fields, when present, must parse as numbers
//   4. Entity   : referenced workers/sites should exist (warning only)
//
// ROW CLASSIFICATION:
//   A row with any error counts as an error row. Otherwise a row with any
//   warning counts as a warning row. Otherwise it is valid. The upload is
//   valid when no row is an error row.
//
// ROW NUMBERS:
//   Reported as index + 2 so they match the spreadsheet (header is row 1).
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/labor-ledger/internal/normalize"
	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// =============================================================================
// SEVERITY
// =============================================================================

const (
	// SeverityError marks a row the admin must fix before importing.
	SeverityError = "error"

	// SeverityWarning marks a row that imports but will likely be rejected
	// as unmatched during reconciliation.
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string `json:"severity"`

	// Field is the logical field (or literal header) that failed.
	Field string `json:"field,omitempty"`

	// Value is the offending cell rendered as text.
	Value string `json:"value,omitempty"`

	// Rule is the rule that was violated: required, date, numeric, entity, empty.
	Rule string `json:"rule"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// RowNumber is the spreadsheet row (header is row 1). Zero for
	// upload-level findings.
	RowNumber int `json:"row,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.RowNumber == 0 {
		return fmt.Sprintf("[%s] %s", strings.ToUpper(e.Severity), e.Message)
	}
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Summary counts rows by classification.
type Summary struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Result contains the outcome of validating one upload.
type Result struct {
	// IsValid is true when no row carries an error.
	IsValid bool `json:"isValid"`

	// Errors holds every error-severity finding.
	Errors []*ValidationError `json:"errors"`

	// Warnings holds every warning-severity finding.
	Warnings []*ValidationError `json:"warnings"`

	// Summary counts rows by classification.
	Summary Summary `json:"summary"`
}

// =============================================================================
// RULE SET
// =============================================================================

// EntityValidation checks that a referenced entity exists in the registry.
type EntityValidation struct {
	// Field is the logical field holding the entity name.
	Field string

	// Label names the entity in messages ("worker", "site").
	Label string

	// Exists reports whether the name is registered.
	Exists func(name string) bool
}

// RuleSet is the per-kind validation configuration.
type RuleSet struct {
	// Mapping resolves logical field names to candidate headers.
	Mapping normalize.FieldMapping

	// RequiredFields must each carry a value.
	RequiredFields []string

	// DateFields lists the fields of which at least one must carry a value.
	DateFields []string

	// NumericFields must parse as numbers when present.
	NumericFields []string

	// EntityValidations flag references to unregistered entities.
	EntityValidations []EntityValidation
}

// dateColumns expands the date fields to every candidate header.
func (rs RuleSet) dateColumns() []string {
	var cols []string
	for _, f := range rs.DateFields {
		cols = append(cols, rs.Mapping.Columns(f)...)
	}
	return cols
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks every row against the rule set.
//
// PARAMETERS:
//   - rows: The parsed spreadsheet rows.
//   - rules: The rule set for the record kind being uploaded.
//
// RETURNS:
//   - A Result. An empty upload is invalid with a single "data is empty" error.
func Validate(rows []types.RawRow, rules RuleSet) *Result {
	result := &Result{
		Errors:   make([]*ValidationError, 0),
		Warnings: make([]*ValidationError, 0),
	}

	if len(rows) == 0 {
		result.IsValid = false
		result.Errors = append(result.Errors, &ValidationError{
			Severity: SeverityError,
			Rule:     "empty",
			Message:  "data is empty",
		})
		return result
	}

	result.Summary.Total = len(rows)
	dateCols := rules.dateColumns()

	for i, row := range rows {
		rowNum := i + 2
		rowErrors, rowWarnings := validateRow(row, rowNum, rules, dateCols)

		result.Errors = append(result.Errors, rowErrors...)
		result.Warnings = append(result.Warnings, rowWarnings...)

		switch {
		case len(rowErrors) > 0:
			result.Summary.Errors++
		case len(rowWarnings) > 0:
			result.Summary.Warnings++
		default:
			result.Summary.Valid++
		}
	}

	result.IsValid = result.Summary.Errors == 0
	return result
}

// validateRow applies every rule to one row.
func validateRow(row types.RawRow, rowNum int, rules RuleSet, dateCols []string) (errs, warns []*ValidationError) {
	// =========================================================================
	// REQUIRED FIELD VALIDATION
	// =========================================================================
	for _, field := range rules.RequiredFields {
		if _, ok := rules.Mapping.Value(row, field); !ok {
			errs = append(errs, &ValidationError{
				Severity:  SeverityError,
				Field:     field,
				Rule:      "required",
				Message:   fmt.Sprintf("required field '%s' is empty", field),
				RowNumber: rowNum,
			})
		}
	}

	// =========================================================================
	// DATE PRESENCE VALIDATION
	// =========================================================================
	if len(dateCols) > 0 {
		if _, ok := normalize.Lookup(row, dateCols...); !ok {
			errs = append(errs, &ValidationError{
				Severity:  SeverityError,
				Field:     strings.Join(rules.DateFields, "/"),
				Rule:      "date",
				Message:   "no date column has a value",
				RowNumber: rowNum,
			})
		}
	}

	// =========================================================================
	// NUMERIC VALIDATION
	// =========================================================================
	for _, field := range rules.NumericFields {
		v, ok := rules.Mapping.Value(row, field)
		if !ok {
			continue
		}
		if _, isNum := normalize.ParseNumber(v); !isNum {
			errs = append(errs, &ValidationError{
				Severity:  SeverityError,
				Field:     field,
				Value:     normalize.Text(v),
				Rule:      "numeric",
				Message:   fmt.Sprintf("field '%s' must be a number", field),
				RowNumber: rowNum,
			})
		}
	}

	// =========================================================================
	// ENTITY VALIDATION
	// =========================================================================
	for _, ev := range rules.EntityValidations {
		name := rules.Mapping.Text(row, ev.Field)
		if name == "" || ev.Exists == nil {
			continue
		}
		if !ev.Exists(name) {
			warns = append(warns, &ValidationError{
				Severity:  SeverityWarning,
				Field:     ev.Field,
				Value:     name,
				Rule:      "entity",
				Message:   fmt.Sprintf("%s '%s' is not registered", ev.Label, name),
				RowNumber: rowNum,
			})
		}
	}

	return errs, warns
}

// =============================================================================
// CLEANING
// =============================================================================

// Clean drops rows that would not survive import: a required field missing or
// zero, no value in any date column, a numeric field that is not a positive
// number, or an entity that is not registered.
//
// RETURNS:
//   - The surviving rows, in input order.
//   - How many rows were removed.
func Clean(rows []types.RawRow, rules RuleSet) ([]types.RawRow, int) {
	kept := make([]types.RawRow, 0, len(rows))

	for _, row := range rows {
		if keepRow(row, rules) {
			kept = append(kept, row)
		}
	}

	return kept, len(rows) - len(kept)
}

func keepRow(row types.RawRow, rules RuleSet) bool {
	if dateCols := rules.dateColumns(); len(dateCols) > 0 {
		if _, ok := normalize.Lookup(row, dateCols...); !ok {
			return false
		}
	}

	for _, field := range rules.RequiredFields {
		v, ok := rules.Mapping.Value(row, field)
		if !ok {
			return false
		}
		if n, isNum := v.(float64); isNum && n == 0 {
			return false
		}
	}

	for _, field := range rules.NumericFields {
		v, _ := rules.Mapping.Value(row, field)
		if n, ok := normalize.ParseNumber(v); !ok || n <= 0 {
			return false
		}
	}

	for _, ev := range rules.EntityValidations {
		if ev.Exists == nil {
			continue
		}
		if !ev.Exists(rules.Mapping.Text(row, ev.Field)) {
			return false
		}
	}

	return true
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats findings as a numbered human-readable listing.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// All returns errors followed by warnings.
func (r *Result) All() []*ValidationError {
	all := make([]*ValidationError, 0, len(r.Errors)+len(r.Warnings))
	all = append(all, r.Errors...)
	return append(all, r.Warnings...)
}
