package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/attendance"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
	"github.com/warp/shiftpay/staffshift"
)

// =============================================================================
// CALCULATION MODES
// =============================================================================

type Mode string

const (
	// ModeManual bills explicitly entered overtime hours.
	ModeManual Mode = "manual"
	// ModeAttendance derives overtime from the records, per day or per month
	// depending on the setting's OvertimeCalculationType.
	ModeAttendance Mode = "attendance"
	// ModeHybrid sums the records but measures overtime against the monthly
	// threshold with the weekday split, ignoring weekend flags.
	ModeHybrid Mode = "hybrid"
	// ModeDefault assumes exactly the normal monthly hours and no overtime.
	ModeDefault Mode = "default"
)

// WorkDay is one record's worth of effective hours. Several WorkDays may
// share a date; they are grouped before per-day overtime is measured.
type WorkDay struct {
	Date      generic.Date
	Hours     decimal.Decimal
	IsWeekend bool
}

// Adjustments are the manual amounts carried onto a computed detail.
type Adjustments struct {
	Bonus      decimal.Decimal
	Deductions decimal.Decimal
}

// Input is everything one staff member's calculation needs. Mode is
// resolved in priority order: ManualOvertimeHours set -> Manual; Days
// present and UseActualWorkHours -> Attendance; Days present -> Hybrid;
// otherwise Default.
type Input struct {
	Salary              Salary
	Setting             Setting
	Days                []WorkDay
	ManualOvertimeHours *decimal.Decimal
	UseActualWorkHours  bool
	Adjustments         Adjustments
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine is stateless; the zero value is ready to use.
type Engine struct{}

// Calculate computes a detail for one staff member. IDs and timestamps are
// left for the caller.
func (Engine) Calculate(in Input) (Detail, error) {
	if err := in.Salary.Validate(); err != nil {
		return Detail{}, err
	}
	if err := in.Setting.Validate(); err != nil {
		return Detail{}, err
	}
	if err := nonNegative(in.Salary.StaffID, "bonus_amount", in.Adjustments.Bonus); err != nil {
		return Detail{}, err
	}
	if err := nonNegative(in.Salary.StaffID, "deductions_amount", in.Adjustments.Deductions); err != nil {
		return Detail{}, err
	}
	if in.ManualOvertimeHours != nil {
		if err := nonNegative(in.Salary.StaffID, "manual_overtime_hours", *in.ManualOvertimeHours); err != nil {
			return Detail{}, err
		}
	}

	setting := in.Setting
	rates := setting.Rates()
	hourly := HourlyRate(in.Salary, setting)

	var (
		mode          Mode
		totalHours    decimal.Decimal
		overtimeHours decimal.Decimal
		overtimePay   decimal.Decimal
	)

	switch {
	case in.ManualOvertimeHours != nil:
		mode = ModeManual
		overtimeHours = *in.ManualOvertimeHours
		totalHours = setting.NormalWorkHoursPerMonth.Add(overtimeHours)
		overtimePay = rates.WeekdayPay(overtimeHours, hourly)

	case len(in.Days) > 0 && in.UseActualWorkHours:
		mode = ModeAttendance
		totalHours = sumHours(in.Days)
		if setting.OvertimeCalculationType == OvertimeHourly {
			overtimeHours, overtimePay = dailyOvertime(in.Days, setting, hourly)
		} else {
			overtimeHours = generic.NonNegative(totalHours.Sub(setting.NormalWorkHoursPerMonth))
			overtimePay = overtimeHours.Mul(hourly).Mul(rates.Weekday1)
		}

	case len(in.Days) > 0:
		mode = ModeHybrid
		totalHours = sumHours(in.Days)
		overtimeHours = generic.NonNegative(totalHours.Sub(setting.NormalWorkHoursPerMonth))
		overtimePay = rates.WeekdayPay(overtimeHours, hourly)

	default:
		mode = ModeDefault
		totalHours = setting.NormalWorkHoursPerMonth
		overtimeHours = decimal.Zero
		overtimePay = decimal.Zero
	}

	d := Detail{
		TenantID:             in.Salary.TenantID,
		StaffID:              in.Salary.StaffID,
		BasicSalaryAmount:    in.Salary.BasicSalary,
		FixedAllowanceAmount: in.Salary.FixedAllowance,
		OvertimeHours:        generic.RoundMoney(overtimeHours),
		OvertimePay:          generic.RoundMoney(overtimePay),
		BonusAmount:          in.Adjustments.Bonus,
		DeductionsAmount:     in.Adjustments.Deductions,
		Mode:                 mode,
		TotalWorkHours:       generic.RoundMoney(totalHours),
		HourlyRate:           hourly,
	}
	return d.withTotals(), nil
}

// CalculateFromManualOvertime bills explicitly entered overtime hours.
func (e Engine) CalculateFromManualOvertime(salary Salary, setting Setting, overtimeHours decimal.Decimal, adj Adjustments) (Detail, error) {
	return e.Calculate(Input{Salary: salary, Setting: setting, ManualOvertimeHours: &overtimeHours, Adjustments: adj})
}

// CalculateFromWorkDays runs the attendance-based (useActual) or hybrid mode
// over pre-measured days.
func (e Engine) CalculateFromWorkDays(salary Salary, setting Setting, days []WorkDay, useActual bool, adj Adjustments) (Detail, error) {
	return e.Calculate(Input{Salary: salary, Setting: setting, Days: days, UseActualWorkHours: useActual, Adjustments: adj})
}

// CalculateFromAttendance measures the attendance records and runs the
// attendance-based or hybrid mode over them.
func (e Engine) CalculateFromAttendance(salary Salary, setting Setting, records []attendance.Attendance, shifts shift.Lookup, useActual bool, adj Adjustments) (Detail, error) {
	days, err := DaysFromAttendance(records, shifts)
	if err != nil {
		return Detail{}, err
	}
	return e.CalculateFromWorkDays(salary, setting, days, useActual, adj)
}

// CalculateFromStaffShifts runs the attendance-based or hybrid mode over
// completed assignments.
func (e Engine) CalculateFromStaffShifts(salary Salary, setting Setting, assignments []staffshift.Assignment, useActual bool, adj Adjustments) (Detail, error) {
	return e.CalculateFromWorkDays(salary, setting, DaysFromStaffShifts(assignments), useActual, adj)
}

// HourlyRate is floor(basic / normal hours per month).
func HourlyRate(salary Salary, setting Setting) decimal.Decimal {
	if !setting.NormalWorkHoursPerMonth.IsPositive() {
		return decimal.Zero
	}
	return salary.BasicSalary.Div(setting.NormalWorkHoursPerMonth).Floor()
}

// =============================================================================
// HELPERS
// =============================================================================

func sumHours(days []WorkDay) decimal.Decimal {
	total := decimal.Zero
	for _, d := range days {
		total = total.Add(d.Hours)
	}
	return total
}

// dailyOvertime groups records by date and bills each day's overtime above
// NormalWorkHoursPerDay: weekday with the two-tier split, weekend at the
// single tier chosen by the day's overtime hours.
func dailyOvertime(days []WorkDay, setting Setting, hourly decimal.Decimal) (hours, pay decimal.Decimal) {
	type day struct {
		hours   decimal.Decimal
		weekend bool
	}
	byDate := make(map[string]*day)
	var order []generic.Date
	for _, wd := range days {
		key := wd.Date.String()
		d, ok := byDate[key]
		if !ok {
			d = &day{hours: decimal.Zero}
			byDate[key] = d
			order = append(order, wd.Date)
		}
		d.hours = d.hours.Add(wd.Hours)
		d.weekend = d.weekend || wd.IsWeekend
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	rates := setting.Rates()
	hours, pay = decimal.Zero, decimal.Zero
	for _, date := range order {
		d := byDate[date.String()]
		over := generic.NonNegative(d.hours.Sub(setting.NormalWorkHoursPerDay))
		if !over.IsPositive() {
			continue
		}
		hours = hours.Add(over)
		if d.weekend {
			pay = pay.Add(rates.WeekendPay(over, hourly))
		} else {
			pay = pay.Add(rates.WeekdayPay(over, hourly))
		}
	}
	return hours, pay
}

func nonNegative(staffID generic.StaffID, field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return generic.NewRuleError(generic.ErrNegativeAmount, "payroll_detail", string(staffID), field, "must not be negative").
			WithBounds(v, 0)
	}
	return nil
}
