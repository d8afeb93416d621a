package attendance

import (
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
)

// LateCheckInWindowMinutes is how long after shift start a check-in is still
// accepted.
const LateCheckInWindowMinutes = 4 * 60

// Validate checks a record before it is saved. existing holds the staff's
// other records (the record itself may be included and is skipped by ID).
// s is the linked shift, or nil for legacy records.
func Validate(a Attendance, existing []Attendance, s *shift.Shift) error {
	id := string(a.ID)

	if a.StaffID == "" {
		return generic.NewRuleError(generic.ErrInvalidAttendanceData, "attendance", id, "staff_id", "is required")
	}
	if a.Date.IsZero() {
		return generic.NewRuleError(generic.ErrInvalidAttendanceData, "attendance", id, "date", "is required")
	}
	if a.CheckOut != nil && a.CheckIn == nil {
		return generic.NewRuleError(generic.ErrInvalidAttendanceData, "attendance", id, "check_out_time", "check-out without check-in")
	}
	if a.CheckIn != nil && !a.CheckIn.Valid() {
		return generic.NewRuleError(generic.ErrInvalidAttendanceData, "attendance", id, "check_in_time", "must be a minute of day").
			WithBounds(int(*a.CheckIn), generic.MinutesPerDay-1)
	}
	if a.CheckOut != nil && !a.CheckOut.Valid() {
		return generic.NewRuleError(generic.ErrInvalidAttendanceData, "attendance", id, "check_out_time", "must be a minute of day").
			WithBounds(int(*a.CheckOut), generic.MinutesPerDay-1)
	}
	if a.BreakOverrideMinutes != nil && *a.BreakOverrideMinutes < 0 {
		return generic.NewRuleError(generic.ErrInvalidAttendanceData, "attendance", id, "break_duration_minutes", "must not be negative").
			WithBounds(*a.BreakOverrideMinutes, 0)
	}
	if a.HasShift() && (s == nil || s.ID != a.ShiftID) {
		return generic.NewRuleError(generic.ErrInvalidAttendanceData, "attendance", id, "shift_id", "linked shift was not resolved")
	}

	for _, other := range existing {
		if (a.ID != "" && other.ID == a.ID) || other.StaffID != a.StaffID || !other.Date.Equal(a.Date) {
			continue
		}
		if !a.HasShift() && !other.HasShift() {
			return generic.NewRuleError(generic.ErrDuplicateAttendance, "attendance", id, "date", "staff already has an attendance on this day").
				WithBounds(a.Date.String(), string(other.ID))
		}
		if a.HasShift() && other.ShiftID == a.ShiftID {
			return generic.NewRuleError(generic.ErrDuplicateAttendance, "attendance", id, "shift_id", "staff already has an attendance for this shift on this day").
				WithBounds(a.Date.String(), string(other.ID))
		}
	}

	if s != nil && a.CheckIn != nil {
		if err := checkInWindow(a, *s); err != nil {
			return err
		}
	}
	return nil
}

// checkInWindow accepts check-ins in [start - earlyAllowed, start + 4h],
// wrapping around midnight.
func checkInWindow(a Attendance, s shift.Shift) error {
	offset := s.Start.MinutesUntil(*a.CheckIn)
	if offset <= LateCheckInWindowMinutes {
		return nil
	}
	if early := generic.MinutesPerDay - offset; early <= s.EarlyCheckInAllowedMinutes {
		return nil
	}
	return generic.NewRuleError(generic.ErrAttendanceOutOfWindow, "attendance", string(a.ID), "check_in_time",
		"outside ["+s.Start.Add(-s.EarlyCheckInAllowedMinutes).String()+", "+s.Start.Add(LateCheckInWindowMinutes).String()+"]").
		WithBounds(a.CheckIn.String(), s.Start.String())
}
