package payroll

import (
	"time"
)

// CanCalculate reports why a calculation for this salary in this period
// must not run, or "" when it may. It never returns an error so callers can
// decide whether to retry or surface the reason to an operator.
func CanCalculate(salary Salary, setting Setting, period Period, siblings []Period, now time.Time) string {
	if !setting.OvertimeCalculationType.Valid() {
		return "unsupported overtime calculation type " + string(setting.OvertimeCalculationType)
	}
	if err := setting.Validate(); err != nil {
		return "invalid payroll setting: " + err.Error()
	}
	if err := salary.Validate(); err != nil {
		return "invalid salary: " + err.Error()
	}
	if setting.UMP != nil && salary.Type == SalaryMonthly && salary.BasicSalary.LessThan(*setting.UMP) {
		return "basic salary " + salary.BasicSalary.StringFixed(2) + " is below the minimum wage " + setting.UMP.StringFixed(2)
	}
	if period.IsFinalized {
		return "payroll period " + string(period.ID) + " is finalized"
	}
	if err := period.Validate(siblings, now); err != nil {
		return "invalid payroll period: " + err.Error()
	}
	return ""
}
