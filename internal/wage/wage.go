// =============================================================================
// Labor Ledger - Wage Calculator
// =============================================================================
//
// Computes gross pay, withholding tax and net pay for one work record.
//
// FORMULA:
//   gross = round(dailyRate * hours)
//   tax   = round(gross * taxRate / 100)
//   net   = gross - tax
//
// Rounding is half away from zero to whole currency units. Arithmetic runs on
// shopspring/decimal so that 150000 * 3.3 / 100 lands on 4950 exactly.
//
// =============================================================================

package wage

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// DefaultTaxRate is the withholding percentage applied when none is configured.
const DefaultTaxRate = 3.3

// Calculator holds the configured withholding rate.
type Calculator struct {
	taxRate decimal.Decimal
}

// NewCalculator returns a calculator for the given tax percentage.
// A zero or negative rate falls back to DefaultTaxRate.
func NewCalculator(taxRatePercent float64) Calculator {
	if taxRatePercent <= 0 {
		taxRatePercent = DefaultTaxRate
	}
	return Calculator{taxRate: decimal.NewFromFloat(taxRatePercent)}
}

// TaxRate returns the percentage in effect.
func (c Calculator) TaxRate() float64 {
	f, _ := c.taxRate.Float64()
	return f
}

// Compute returns the wage for a worker and an hours fraction.
// An unknown worker, a missing daily rate or non-positive hours yields a
// zero wage.
func (c Calculator) Compute(worker *types.Worker, hours float64) types.Wage {
	if worker == nil || worker.DailyRate <= 0 || hours <= 0 {
		return types.Wage{}
	}

	gross := decimal.NewFromInt(worker.DailyRate).
		Mul(decimal.NewFromFloat(hours)).
		Round(0)
	tax := gross.Mul(c.taxRate).
		Div(decimal.NewFromInt(100)).
		Round(0)

	return types.Wage{
		GrossPay: gross.IntPart(),
		Tax:      tax.IntPart(),
		NetPay:   gross.Sub(tax).IntPart(),
	}
}
