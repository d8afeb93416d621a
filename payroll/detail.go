package payroll

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/generic"
)

// =============================================================================
// PAYROLL DETAIL - One staff member's outcome for one period
// =============================================================================

type DetailID string

type Detail struct {
	ID       DetailID
	TenantID generic.TenantID
	PeriodID PeriodID
	StaffID  generic.StaffID

	BasicSalaryAmount    decimal.Decimal
	FixedAllowanceAmount decimal.Decimal
	OvertimeHours        decimal.Decimal
	OvertimePay          decimal.Decimal
	BonusAmount          decimal.Decimal
	DeductionsAmount     decimal.Decimal
	TakeHomePay          decimal.Decimal

	// Breakdown of how the figures were produced
	Mode           Mode
	TotalWorkHours decimal.Decimal
	HourlyRate     decimal.Decimal
	GrossPay       decimal.Decimal

	IsPaid bool
	PaidAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Gross is basic + allowance + overtimePay + bonus.
func (d Detail) Gross() decimal.Decimal {
	return d.BasicSalaryAmount.
		Add(d.FixedAllowanceAmount).
		Add(d.OvertimePay).
		Add(d.BonusAmount)
}

// TakeHome is max(0, gross - deductions), rounded to two places.
func (d Detail) TakeHome() decimal.Decimal {
	return generic.RoundMoney(generic.NonNegative(d.Gross().Sub(d.DeductionsAmount)))
}

// withTotals recomputes the derived GrossPay and TakeHomePay.
func (d Detail) withTotals() Detail {
	d.GrossPay = generic.RoundMoney(d.Gross())
	d.TakeHomePay = d.TakeHome()
	return d
}

// Validate checks the non-negative fields and the take-home invariant.
func (d Detail) Validate() error {
	var errs []error
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"basic_salary_amount", d.BasicSalaryAmount},
		{"fixed_allowance_amount", d.FixedAllowanceAmount},
		{"overtime_hours", d.OvertimeHours},
		{"overtime_pay", d.OvertimePay},
		{"bonus_amount", d.BonusAmount},
		{"deductions_amount", d.DeductionsAmount},
		{"take_home_pay", d.TakeHomePay},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			errs = append(errs, generic.NewRuleError(generic.ErrNegativeAmount, "payroll_detail", string(d.ID), f.name, "must not be negative").
				WithBounds(f.value, 0))
		}
	}
	if want := d.TakeHome(); !d.TakeHomePay.Equal(want) {
		errs = append(errs, generic.NewRuleError(generic.ErrInconsistentDetail, "payroll_detail", string(d.ID), "take_home_pay", "does not match its components").
			WithBounds(d.TakeHomePay, want))
	}
	return errors.Join(errs...)
}

// =============================================================================
// AMENDMENTS - Pure transformations, the input detail is never modified
// =============================================================================

// AddBonus returns a copy with delta added to the bonus and take-home
// recomputed.
func AddBonus(d Detail, delta decimal.Decimal) (Detail, error) {
	if err := amendable(d, "bonus_amount", delta); err != nil {
		return d, err
	}
	d.BonusAmount = d.BonusAmount.Add(delta)
	return d.withTotals(), nil
}

// AddDeduction returns a copy with delta added to the deductions and
// take-home recomputed. Take-home never goes below zero.
func AddDeduction(d Detail, delta decimal.Decimal) (Detail, error) {
	if err := amendable(d, "deductions_amount", delta); err != nil {
		return d, err
	}
	d.DeductionsAmount = d.DeductionsAmount.Add(delta)
	return d.withTotals(), nil
}

// MarkPaid locks the detail. It can only happen once.
func MarkPaid(d Detail, at time.Time) (Detail, error) {
	if d.IsPaid {
		return d, generic.NewRuleError(generic.ErrDetailLocked, "payroll_detail", string(d.ID), "is_paid", "already paid")
	}
	d.IsPaid = true
	d.PaidAt = &at
	d.UpdatedAt = at
	return d, nil
}

func amendable(d Detail, field string, delta decimal.Decimal) error {
	if d.IsPaid {
		return generic.NewRuleError(generic.ErrDetailLocked, "payroll_detail", string(d.ID), field, "paid details cannot be amended")
	}
	if delta.IsNegative() {
		return generic.NewRuleError(generic.ErrNegativeAmount, "payroll_detail", string(d.ID), field, "delta must not be negative").
			WithBounds(delta, 0)
	}
	if !delta.Equal(generic.RoundMoney(delta)) {
		return generic.NewRuleError(generic.ErrInvalidAmount, "payroll_detail", string(d.ID), field, "delta has more than 2 decimal places").
			WithBounds(delta, generic.MoneyPlaces)
	}
	return nil
}
