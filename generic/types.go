/*
Package generic provides the domain-agnostic building blocks of the
remittance engine.

PURPOSE:
  Everything in here is free of ministry/department knowledge. The
  remittance package composes these pieces into the reconciliation and
  ranking engine; the storage and API layers use them for persistence
  boundaries, clocks and error classification.

KEY CONCEPTS:
  - Money:     decimal currency amounts, rounded to whole units
  - Period:    a (year, month) reporting cycle, linearised as year*100+month
  - Clock:     injectable "now" so grace-period logic is testable
  - KeyValue:  the blob persistence boundary (load/save by fixed key)
  - Collation: Arabic-aware string ordering for reports

DESIGN PRINCIPLES:
  1. Precision: money uses decimal.Decimal, never float64
  2. Determinism: no function here reads the wall clock implicitly
  3. Errors: sentinel errors in errors.go, matched with errors.Is

SEE ALSO:
  - period.go: Period arithmetic and ranges
  - numbers.go: parsing and formatting of user-entered amounts
  - errors.go: sentinel and structured errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amounts (whole units, no minor currency)
// =============================================================================

// Money is a non-negative currency amount. Stored amounts are always whole
// units; intermediate products (salary × rate) are rounded with RoundUnit.
type Money = decimal.Decimal

// Zero is the zero amount.
var Zero = decimal.Zero

// NewMoney builds a Money value from an integer number of units.
func NewMoney(units int64) Money {
	return decimal.NewFromInt(units)
}

// RoundUnit rounds to the nearest whole currency unit (half away from zero,
// which equals half-up for the non-negative amounts this engine handles).
func RoundUnit(m Money) Money {
	return m.Round(0)
}

// Percent returns round(base × pct / 100).
func Percent(base Money, pct int64) Money {
	return RoundUnit(base.Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100)))
}
