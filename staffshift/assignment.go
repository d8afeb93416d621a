/*
Package staffshift tracks one staff member's assignment to a shift on a day.

PURPOSE:
  An Assignment links a staff member, a shift and a calendar date, then
  records what actually happened: check-in, check-out and the derived
  worked, late and overtime minutes.

STATE MACHINE:
  Unstarted --CheckIn--> Active --CheckOut--> Completed
                                               |
                                     Correct (explicit fix)

  Every transition is a function returning a new Assignment value. The
  input is never modified. Once Completed, the derived minutes only change
  through Correct: later edits to the shift's break or bounds do not reach
  them.

KEY INVARIANTS:
  - A staff member's same-day assignments never overlap in time
  - Assignments are only created on active shifts, for today or later
  - Bulk assignment is per-item: one failure never aborts the batch

SEE ALSO:
  - assign.go: Assigner and bulk assignment
  - shift/: Overlap, lateness and overtime rules
*/
package staffshift

import (
	"time"

	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
)

// =============================================================================
// ASSIGNMENT
// =============================================================================

type ID string

type Status string

const (
	StatusUnstarted Status = "unstarted"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type Assignment struct {
	ID       ID
	TenantID generic.TenantID
	StaffID  generic.StaffID
	ShiftID  shift.ID
	Date     generic.Date

	CheckIn                    *generic.Clock
	CheckOut                   *generic.Clock
	ActualBreakDurationMinutes *int

	// Derived on check-out, frozen until Correct
	TotalWorkedMinutes int
	EffectiveMinutes   int
	LateMinutes        int
	OvertimeMinutes    int
	IsCompleted        bool

	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Assignment) Status() Status {
	switch {
	case a.IsCompleted:
		return StatusCompleted
	case a.CheckIn != nil:
		return StatusActive
	default:
		return StatusUnstarted
	}
}

// =============================================================================
// WORK TIME
// =============================================================================

// WorkTime is the measured outcome of a completed assignment.
type WorkTime struct {
	TotalMinutes     int
	BreakMinutes     int
	EffectiveMinutes int
	LateMinutes      int
	OvertimeMinutes  int
}

// ComputeWorkTime measures an in/out pair against the shift. actualBreak
// replaces the shift's configured break when given.
func ComputeWorkTime(s shift.Shift, in, out generic.Clock, actualBreak *int) WorkTime {
	total := in.MinutesUntil(out)

	breakMinutes := s.BreakMinutes()
	if actualBreak != nil {
		breakMinutes = *actualBreak
	}

	effective := total - breakMinutes
	if effective < 0 {
		effective = 0
	}

	return WorkTime{
		TotalMinutes:     total,
		BreakMinutes:     breakMinutes,
		EffectiveMinutes: effective,
		LateMinutes:      s.LateMinutes(in),
		OvertimeMinutes:  s.OvertimeMinutes(effective),
	}
}

// WorkTime returns the minutes frozen on a completed assignment.
func (a Assignment) WorkTime() (WorkTime, bool) {
	if !a.IsCompleted {
		return WorkTime{}, false
	}
	return WorkTime{
		TotalMinutes:     a.TotalWorkedMinutes,
		BreakMinutes:     a.TotalWorkedMinutes - a.EffectiveMinutes,
		EffectiveMinutes: a.EffectiveMinutes,
		LateMinutes:      a.LateMinutes,
		OvertimeMinutes:  a.OvertimeMinutes,
	}, true
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// CheckIn moves an Unstarted assignment to Active.
func CheckIn(a Assignment, at generic.Clock) (Assignment, error) {
	if a.Status() != StatusUnstarted {
		return a, transitionError(a, "check_in_time", "already checked in")
	}
	if !at.Valid() {
		return a, generic.NewRuleError(generic.ErrInvalidAttendanceData, "staff_shift", string(a.ID), "check_in_time", "must be a minute of day").
			WithBounds(int(at), generic.MinutesPerDay-1)
	}

	a.CheckIn = generic.ClockPtr(at)
	return a, nil
}

// CheckOut moves an Active assignment to Completed and fills the derived
// minutes. s must be the assignment's shift.
func CheckOut(a Assignment, s shift.Shift, at generic.Clock, actualBreak *int) (Assignment, error) {
	if a.Status() != StatusActive {
		return a, transitionError(a, "check_out_time", "check-out requires an active assignment")
	}
	return complete(a, s, *a.CheckIn, at, actualBreak)
}

// Correct rewrites the times of a Completed assignment and recomputes its
// derived minutes. It is the only way to change a completed record.
func Correct(a Assignment, s shift.Shift, in, out generic.Clock, actualBreak *int) (Assignment, error) {
	if a.Status() != StatusCompleted {
		return a, transitionError(a, "is_completed", "only completed assignments can be corrected")
	}
	return complete(a, s, in, out, actualBreak)
}

func complete(a Assignment, s shift.Shift, in, out generic.Clock, actualBreak *int) (Assignment, error) {
	id := string(a.ID)
	if s.ID != a.ShiftID {
		return a, generic.NewRuleError(generic.ErrInvalidAttendanceData, "staff_shift", id, "shift_id", "shift does not match the assignment").
			WithBounds(string(s.ID), string(a.ShiftID))
	}
	if !in.Valid() || !out.Valid() {
		return a, generic.NewRuleError(generic.ErrInvalidAttendanceData, "staff_shift", id, "check_out_time", "must be a minute of day")
	}
	if actualBreak != nil && *actualBreak < 0 {
		return a, generic.NewRuleError(generic.ErrInvalidAttendanceData, "staff_shift", id, "actual_break_duration_minutes", "must not be negative").
			WithBounds(*actualBreak, 0)
	}

	wt := ComputeWorkTime(s, in, out, actualBreak)

	a.CheckIn = generic.ClockPtr(in)
	a.CheckOut = generic.ClockPtr(out)
	if actualBreak != nil {
		b := *actualBreak
		a.ActualBreakDurationMinutes = &b
	} else {
		a.ActualBreakDurationMinutes = nil
	}
	a.TotalWorkedMinutes = wt.TotalMinutes
	a.EffectiveMinutes = wt.EffectiveMinutes
	a.LateMinutes = wt.LateMinutes
	a.OvertimeMinutes = wt.OvertimeMinutes
	a.IsCompleted = true
	return a, nil
}

func transitionError(a Assignment, field, msg string) error {
	return generic.NewRuleError(generic.ErrInvalidStateTransition, "staff_shift", string(a.ID), field, msg).
		WithBounds(string(a.Status()), nil)
}
