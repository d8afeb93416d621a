package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RATES - Overtime multiplier lookup
// =============================================================================

var (
	weekendTier1Limit = decimal.NewFromInt(8)
	weekendTier2Limit = decimal.NewFromInt(9)
	one               = decimal.NewFromInt(1)
)

// Rates is the overtime multiplier schedule of a Setting.
//
// Weekday overtime is split: the first hour at tier 1, the rest at tier 2.
// Weekend overtime picks a single tier from the day's overtime hours
// (<=8 tier 1, <=9 tier 2, >9 tier 3) and bills every hour at it; there is
// no first-hour split on weekends.
type Rates struct {
	Weekday1 decimal.Decimal
	Weekday2 decimal.Decimal
	Weekend1 decimal.Decimal
	Weekend2 decimal.Decimal
	Weekend3 decimal.Decimal
}

func (s Setting) Rates() Rates {
	return Rates{
		Weekday1: s.OvertimeRate1,
		Weekday2: s.OvertimeRate2,
		Weekend1: s.OvertimeRateWeekend1,
		Weekend2: s.OvertimeRateWeekend2,
		Weekend3: s.OvertimeRateWeekend3,
	}
}

// WeekdayRate returns the multiplier for the nth overtime hour of a weekday
// (1-based).
func (r Rates) WeekdayRate(hour int) decimal.Decimal {
	if hour <= 1 {
		return r.Weekday1
	}
	return r.Weekday2
}

// WeekendRate returns the multiplier for a weekend day with the given
// overtime hours.
func (r Rates) WeekendRate(overtimeHours decimal.Decimal) decimal.Decimal {
	switch {
	case overtimeHours.LessThanOrEqual(weekendTier1Limit):
		return r.Weekend1
	case overtimeHours.LessThanOrEqual(weekendTier2Limit):
		return r.Weekend2
	default:
		return r.Weekend3
	}
}

// WeekdayPay bills overtime hours with the two-tier weekday split. Unrounded.
func (r Rates) WeekdayPay(overtimeHours, hourlyRate decimal.Decimal) decimal.Decimal {
	if !overtimeHours.IsPositive() {
		return decimal.Zero
	}
	first := decimal.Min(overtimeHours, one)
	rest := overtimeHours.Sub(first)

	return first.Mul(hourlyRate).Mul(r.WeekdayRate(1)).
		Add(rest.Mul(hourlyRate).Mul(r.WeekdayRate(2)))
}

// WeekendPay bills a weekend day's overtime at its single tier. Unrounded.
func (r Rates) WeekendPay(overtimeHours, hourlyRate decimal.Decimal) decimal.Decimal {
	if !overtimeHours.IsPositive() {
		return decimal.Zero
	}
	return overtimeHours.Mul(hourlyRate).Mul(r.WeekendRate(overtimeHours))
}
