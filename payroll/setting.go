/*
Package payroll turns salaries, settings and worked hours into pay.

PURPOSE:
  The payroll engine combines a staff member's Salary, the tenant's
  Setting and the period's attendance or shift records into a Detail:
  basic salary, allowance, overtime pay, bonus, deductions and take-home.

KEY CONCEPTS:
  - Setting: Per-tenant normal hours and overtime multipliers
  - Rates: Weekday (two tiers) and weekend (three tiers) rate lookup
  - Engine: Manual, attendance-based, hybrid and default modes
  - Period: Open -> Finalized date range, never overlapping its siblings
  - Detail: The computed outcome, amendable until paid

MONEY:
  Everything is decimal.Decimal. Rate multiplications are rounded to two
  places once, at the end of a calculation. The hourly rate is
  floor(basic / normal hours per month).

INVARIANT:
  TakeHomePay = max(0, basic + allowance + overtimePay + bonus - deductions)

SEE ALSO:
  - engine.go: Calculation modes
  - period.go: Period lifecycle
  - detail.go: Amendments
  - service.go: Orchestration against a store
*/
package payroll

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/generic"
)

// =============================================================================
// PAYROLL SETTING - Per-tenant configuration (singleton)
// =============================================================================

type OvertimeCalculationType string

const (
	// OvertimeHourly measures overtime per day against NormalWorkHoursPerDay.
	OvertimeHourly OvertimeCalculationType = "HOURLY"
	// OvertimeMonthly measures overtime against NormalWorkHoursPerMonth.
	OvertimeMonthly OvertimeCalculationType = "MONTHLY"
)

func (t OvertimeCalculationType) Valid() bool {
	return t == OvertimeHourly || t == OvertimeMonthly
}

type Setting struct {
	TenantID generic.TenantID

	NormalWorkHoursPerDay   decimal.Decimal
	NormalWorkHoursPerMonth decimal.Decimal

	// Weekday tiers: first overtime hour, remaining hours
	OvertimeRate1 decimal.Decimal
	OvertimeRate2 decimal.Decimal

	// Weekend tiers by daily overtime hours: <=8, <=9, >9
	OvertimeRateWeekend1 decimal.Decimal
	OvertimeRateWeekend2 decimal.Decimal
	OvertimeRateWeekend3 decimal.Decimal

	OvertimeCalculationType OvertimeCalculationType

	// UMP is the optional minimum-wage floor for monthly salaries.
	UMP *decimal.Decimal

	UpdatedAt time.Time
}

// DefaultSetting is used for tenants that never configured payroll.
func DefaultSetting(tenantID generic.TenantID) Setting {
	return Setting{
		TenantID:                tenantID,
		NormalWorkHoursPerDay:   decimal.NewFromInt(8),
		NormalWorkHoursPerMonth: decimal.NewFromInt(173),
		OvertimeRate1:           decimal.RequireFromString("1.5"),
		OvertimeRate2:           decimal.NewFromInt(2),
		OvertimeRateWeekend1:    decimal.NewFromInt(2),
		OvertimeRateWeekend2:    decimal.NewFromInt(3),
		OvertimeRateWeekend3:    decimal.NewFromInt(4),
		OvertimeCalculationType: OvertimeMonthly,
	}
}

var (
	maxHoursPerDay   = decimal.NewFromInt(24)
	maxHoursPerMonth = decimal.NewFromInt(31 * 24)
)

func (s Setting) Validate() error {
	var errs []error
	add := func(field, msg string, value, limit any) {
		errs = append(errs, generic.NewRuleError(generic.ErrInvalidPayrollSetting, "payroll_setting", string(s.TenantID), field, msg).
			WithBounds(value, limit))
	}

	if !s.NormalWorkHoursPerDay.IsPositive() || s.NormalWorkHoursPerDay.GreaterThan(maxHoursPerDay) {
		add("normal_work_hours_per_day", "must be in (0, 24]", s.NormalWorkHoursPerDay, maxHoursPerDay)
	}
	if !s.NormalWorkHoursPerMonth.IsPositive() || s.NormalWorkHoursPerMonth.GreaterThan(maxHoursPerMonth) {
		add("normal_work_hours_per_month", "must be in (0, 744]", s.NormalWorkHoursPerMonth, maxHoursPerMonth)
	}

	rates := []struct {
		field string
		value decimal.Decimal
	}{
		{"overtime_rate_1", s.OvertimeRate1},
		{"overtime_rate_2", s.OvertimeRate2},
		{"overtime_rate_weekend_1", s.OvertimeRateWeekend1},
		{"overtime_rate_weekend_2", s.OvertimeRateWeekend2},
		{"overtime_rate_weekend_3", s.OvertimeRateWeekend3},
	}
	for _, r := range rates {
		if !r.value.IsPositive() {
			add(r.field, "must be greater than zero", r.value, 0)
		}
	}

	if !s.OvertimeCalculationType.Valid() {
		add("overtime_calculation_type", "must be HOURLY or MONTHLY", string(s.OvertimeCalculationType), nil)
	}
	if s.UMP != nil && s.UMP.IsNegative() {
		add("ump", "must not be negative", *s.UMP, 0)
	}

	return errors.Join(errs...)
}

// =============================================================================
// SALARY - One active record per staff
// =============================================================================

type SalaryType string

const (
	SalaryMonthly SalaryType = "MONTHLY"
	SalaryDaily   SalaryType = "DAILY"
	SalaryHourly  SalaryType = "HOURLY"
)

func (t SalaryType) Valid() bool {
	switch t {
	case SalaryMonthly, SalaryDaily, SalaryHourly:
		return true
	}
	return false
}

type Salary struct {
	ID             string
	TenantID       generic.TenantID
	StaffID        generic.StaffID
	BasicSalary    decimal.Decimal
	FixedAllowance decimal.Decimal
	Type           SalaryType
	UpdatedAt      time.Time
}

func (s Salary) Validate() error {
	var errs []error
	add := func(field, msg string, value, limit any) {
		errs = append(errs, generic.NewRuleError(generic.ErrInvalidSalaryConfig, "salary", string(s.StaffID), field, msg).
			WithBounds(value, limit))
	}

	if s.StaffID == "" {
		errs = append(errs, generic.NewRuleError(generic.ErrInvalidSalaryConfig, "salary", s.ID, "staff_id", "is required"))
	}
	if !s.BasicSalary.IsPositive() {
		add("basic_salary", "must be greater than zero", s.BasicSalary, 0)
	}
	if s.FixedAllowance.IsNegative() {
		add("fixed_allowance", "must not be negative", s.FixedAllowance, 0)
	}
	if !s.Type.Valid() {
		add("type", "must be MONTHLY, DAILY or HOURLY", string(s.Type), nil)
	}
	return errors.Join(errs...)
}
