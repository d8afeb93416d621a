/*
Package attendance turns a day's check-in/check-out pair into worked hours.

PURPOSE:
  An Attendance is a standalone daily presence record. It may be linked to
  a shift or not, and that link decides how the record is measured:

  - Legacy mode (no shift): raw clock difference, 8h day, no lateness
  - Shift-aware mode: break deducted, lateness and overtime taken from
    the shift's policy

  Both modes handle overnight pairs (22:00 -> 06:00 is 8h).

USAGE:
  result, err := attendance.Calculate(att, &nightShift)
  if err != nil { ... }
  fmt.Println(result.EffectiveHours, result.LateMinutes)

SEE ALSO:
  - validate.go: Duplicate and check-in window rules
  - shift/: Lateness and overtime policy
  - payroll/: Sums attendance results into pay
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
)

// =============================================================================
// ATTENDANCE RECORD
// =============================================================================

type ID string

type Attendance struct {
	ID       ID
	TenantID generic.TenantID
	StaffID  generic.StaffID
	Date     generic.Date

	CheckIn  *generic.Clock
	CheckOut *generic.Clock

	// ShiftID switches the record to shift-aware mode when set.
	ShiftID shift.ID

	// BreakOverrideMinutes replaces the shift's configured break when set.
	BreakOverrideMinutes *int

	IsWeekend  bool
	TotalHours decimal.Decimal
	Notes      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Attendance) HasShift() bool {
	return a.ShiftID != ""
}

// IsComplete reports whether both check-in and check-out are recorded.
func (a Attendance) IsComplete() bool {
	return a.CheckIn != nil && a.CheckOut != nil
}

// =============================================================================
// CALCULATION
// =============================================================================

type Mode string

const (
	ModeLegacy     Mode = "legacy"
	ModeShiftAware Mode = "shift_aware"
)

// LegacyNormalHours is the full-day and overtime threshold without a shift.
var LegacyNormalHours = decimal.NewFromInt(8)

// Result is the measured outcome of one attendance record. Hour fields are
// rounded to two places.
type Result struct {
	Mode             Mode
	WorkedMinutes    int
	EffectiveMinutes int
	TotalHours       decimal.Decimal
	EffectiveHours   decimal.Decimal
	OvertimeHours    decimal.Decimal
	LateMinutes      int
	IsFullDay        bool
}

// Calculate measures a complete attendance record. s must be the record's
// shift when the record is shift-linked and is ignored otherwise.
func Calculate(a Attendance, s *shift.Shift) (Result, error) {
	if !a.IsComplete() {
		return Result{}, generic.NewRuleError(generic.ErrInvalidAttendanceData, "attendance", string(a.ID), "check_out_time", "check-in and check-out are both required")
	}

	worked := a.CheckIn.MinutesUntil(*a.CheckOut)

	if !a.HasShift() {
		return legacy(worked), nil
	}
	if s == nil || s.ID != a.ShiftID {
		return Result{}, generic.NewRuleError(generic.ErrInvalidAttendanceData, "attendance", string(a.ID), "shift_id", "linked shift was not resolved").
			WithBounds(string(a.ShiftID), nil)
	}
	return shiftAware(a, *s, worked), nil
}

func legacy(worked int) Result {
	hours := generic.HoursFromMinutes(worked)
	return Result{
		Mode:             ModeLegacy,
		WorkedMinutes:    worked,
		EffectiveMinutes: worked,
		TotalHours:       generic.RoundMoney(hours),
		EffectiveHours:   generic.RoundMoney(hours),
		OvertimeHours:    generic.RoundMoney(generic.NonNegative(hours.Sub(LegacyNormalHours))),
		IsFullDay:        hours.GreaterThanOrEqual(LegacyNormalHours),
	}
}

func shiftAware(a Attendance, s shift.Shift, worked int) Result {
	breakMinutes := s.BreakMinutes()
	if a.BreakOverrideMinutes != nil {
		breakMinutes = *a.BreakOverrideMinutes
	}

	effective := worked - breakMinutes
	if effective < 0 {
		effective = 0
	}
	effectiveHours := generic.HoursFromMinutes(effective)

	return Result{
		Mode:             ModeShiftAware,
		WorkedMinutes:    worked,
		EffectiveMinutes: effective,
		TotalHours:       generic.RoundMoney(generic.HoursFromMinutes(worked)),
		EffectiveHours:   generic.RoundMoney(effectiveHours),
		OvertimeHours:    generic.RoundMoney(s.OvertimeHours(effective)),
		LateMinutes:      s.LateMinutes(*a.CheckIn),
		IsFullDay:        effectiveHours.GreaterThanOrEqual(s.MinWorkingHours),
	}
}

// WithTotals stamps the calculated hours onto the record.
func WithTotals(a Attendance, r Result) Attendance {
	a.TotalHours = r.TotalHours
	return a
}

// =============================================================================
// SHIFT SUGGESTION
// =============================================================================

// SuggestShift returns the first active candidate whose window contains the
// record's check-in. Advisory only: the record is never modified.
func SuggestShift(a Attendance, candidates []shift.Shift) (shift.Shift, bool) {
	if a.CheckIn == nil {
		return shift.Shift{}, false
	}
	for _, s := range candidates {
		if s.IsActive && s.IsTimeWithin(*a.CheckIn) {
			return s, true
		}
	}
	return shift.Shift{}, false
}
