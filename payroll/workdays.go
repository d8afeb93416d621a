package payroll

import (
	"github.com/warp/shiftpay/attendance"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
	"github.com/warp/shiftpay/staffshift"
)

// DaysFromAttendance measures complete attendance records into WorkDays.
// Incomplete records (no check-out yet) contribute nothing.
func DaysFromAttendance(records []attendance.Attendance, shifts shift.Lookup) ([]WorkDay, error) {
	days := make([]WorkDay, 0, len(records))
	for _, rec := range records {
		if !rec.IsComplete() {
			continue
		}

		var linked *shift.Shift
		if rec.HasShift() {
			s, ok := shifts.Shift(rec.ShiftID)
			if !ok {
				return nil, generic.NewRuleError(generic.ErrNotFound, "shift", string(rec.ShiftID), "shift_id", "referenced by attendance "+string(rec.ID))
			}
			linked = &s
		}

		result, err := attendance.Calculate(rec, linked)
		if err != nil {
			return nil, err
		}
		days = append(days, WorkDay{
			Date:      rec.Date,
			Hours:     generic.HoursFromMinutes(result.EffectiveMinutes),
			IsWeekend: rec.IsWeekend,
		})
	}
	return days, nil
}

// DaysFromStaffShifts turns completed assignments into WorkDays. Hours come
// from the minutes frozen at check-out, not from the shift's current
// configuration. The weekend flag comes from the assignment's calendar date.
func DaysFromStaffShifts(assignments []staffshift.Assignment) []WorkDay {
	days := make([]WorkDay, 0, len(assignments))
	for _, a := range assignments {
		wt, ok := a.WorkTime()
		if !ok {
			continue
		}
		days = append(days, WorkDay{
			Date:      a.Date,
			Hours:     generic.HoursFromMinutes(wt.EffectiveMinutes),
			IsWeekend: a.Date.IsWeekend(),
		})
	}
	return days
}
