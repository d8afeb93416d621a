/*
Package generic provides the primitives shared by the shift, attendance and
payroll engines.

PURPOSE:
  Nothing in this package knows what a shift or a payslip is. It holds the
  value types the domain packages compute with: clock values, calendar
  dates, date ranges, decimal quantities, the error taxonomy and the
  append-only adjustment ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A decimal quantity with a unit (hours, minutes, currency)
  - Money helpers: RoundMoney, NonNegative, HoursFromMinutes
  - Tenant/Staff IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, never float64, for money and hours
  2. Rounding: Results are rounded to 2 places once, as the final step
  3. Type Safety: Strong typing for IDs prevents mixing tenant/staff IDs

USAGE:
  pay := generic.RoundMoney(hours.Mul(rate).Mul(multiplier))
  worked := generic.NewAmountFromInt(480, generic.UnitMinutes)

SEE ALSO:
  - clock.go: HH:mm minute-of-day values with overnight wraparound
  - time.go: Calendar dates
  - period.go: Inclusive date ranges
  - errors.go: Error taxonomy
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitHours    Unit = "hours"
	UnitMinutes  Unit = "minutes"
	UnitCurrency Unit = "currency"
)

func NewAmountFromInt(value int64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(value), Unit: unit}
}

func NewAmount(value decimal.Decimal, unit Unit) Amount {
	return Amount{Value: value, Unit: unit}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// MoneyPlaces is the fixed precision of every monetary and hour result.
const MoneyPlaces = 2

var minutesPerHour = decimal.NewFromInt(60)

// RoundMoney rounds to MoneyPlaces, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// NonNegative returns d, or zero when d is negative.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// HoursFromMinutes converts minutes to exact decimal hours (unrounded).
func HoursFromMinutes(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerHour)
}

// MinutesFromHours converts decimal hours to whole minutes, truncating.
func MinutesFromHours(hours decimal.Decimal) int {
	return int(hours.Mul(minutesPerHour).IntPart())
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type StaffID string
