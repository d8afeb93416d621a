package attendance_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shiftpay/attendance"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func nightShift() shift.Shift {
	return shift.Shift{
		ID:                         "night",
		Name:                       "Night",
		Start:                      generic.MustParseClock("22:00"),
		End:                        generic.MustParseClock("06:00"),
		IsActive:                   true,
		MinWorkingHours:            decimal.NewFromInt(6),
		MaxWorkingHours:            decimal.NewFromInt(8),
		OvertimeMultiplier:         decimal.RequireFromString("1.5"),
		LateThresholdMinutes:       10,
		EarlyCheckInAllowedMinutes: 30,
	}
}

func dayShift() shift.Shift {
	return shift.Shift{
		ID:                         "day",
		Name:                       "Day",
		Start:                      generic.MustParseClock("09:00"),
		End:                        generic.MustParseClock("17:00"),
		IsActive:                   true,
		HasBreakTime:               true,
		BreakDurationMinutes:       60,
		MinWorkingHours:            decimal.NewFromInt(7),
		MaxWorkingHours:            decimal.NewFromInt(7),
		OvertimeMultiplier:         decimal.RequireFromString("1.5"),
		LateThresholdMinutes:       15,
		EarlyCheckInAllowedMinutes: 60,
	}
}

func record(id string, in, out string, shiftID shift.ID) attendance.Attendance {
	a := attendance.Attendance{
		ID:      attendance.ID(id),
		StaffID: "staff-1",
		Date:    generic.MustParseDate("2025-10-14"),
		ShiftID: shiftID,
	}
	if in != "" {
		a.CheckIn = generic.ClockPtr(generic.MustParseClock(in))
	}
	if out != "" {
		a.CheckOut = generic.ClockPtr(generic.MustParseClock(out))
	}
	return a
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// CALCULATION
// =============================================================================

func TestCalculate_OvernightShift(t *testing.T) {
	// GIVEN: Night shift 22:00-06:00 with no break
	// WHEN: Staff checks in 22:00 and out 06:00
	// THEN: 480 minutes worked, 8.00 effective hours

	s := nightShift()
	result, err := attendance.Calculate(record("a1", "22:00", "06:00", s.ID), &s)
	require.NoError(t, err)

	assert.Equal(t, attendance.ModeShiftAware, result.Mode)
	assert.Equal(t, 480, result.WorkedMinutes)
	assert.True(t, result.EffectiveHours.Equal(dec("8")))
	assert.True(t, result.OvertimeHours.IsZero())
	assert.Equal(t, 0, result.LateMinutes)
	assert.True(t, result.IsFullDay)
}

func TestCalculate_Legacy(t *testing.T) {
	tests := []struct {
		name     string
		in, out  string
		total    string
		overtime string
		fullDay  bool
	}{
		{"short day", "09:00", "15:30", "6.5", "0", false},
		{"exact day", "08:00", "16:00", "8", "0", true},
		{"long day", "08:00", "18:20", "10.33", "2.33", true},
		{"overnight", "23:00", "08:00", "9", "1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := attendance.Calculate(record("a", tt.in, tt.out, ""), nil)
			require.NoError(t, err)

			assert.Equal(t, attendance.ModeLegacy, result.Mode)
			assert.True(t, result.TotalHours.Equal(dec(tt.total)), "total %s", result.TotalHours)
			assert.True(t, result.OvertimeHours.Equal(dec(tt.overtime)), "overtime %s", result.OvertimeHours)
			assert.Equal(t, 0, result.LateMinutes)
			assert.Equal(t, tt.fullDay, result.IsFullDay)
		})
	}
}

func TestCalculate_ShiftAware_BreakAndLateness(t *testing.T) {
	s := dayShift()

	// 09:20 -> 18:20 is 540 worked, 480 effective after the 60 minute break
	result, err := attendance.Calculate(record("a", "09:20", "18:20", s.ID), &s)
	require.NoError(t, err)
	assert.Equal(t, 540, result.WorkedMinutes)
	assert.Equal(t, 480, result.EffectiveMinutes)
	assert.True(t, result.TotalHours.Equal(dec("9")))
	assert.True(t, result.EffectiveHours.Equal(dec("8")))
	assert.True(t, result.OvertimeHours.Equal(dec("1")))
	assert.Equal(t, 20, result.LateMinutes)
	assert.True(t, result.IsFullDay)
}

func TestCalculate_ShiftAware_BreakOverride(t *testing.T) {
	s := dayShift()
	a := record("a", "09:00", "17:00", s.ID)
	shortBreak := 30
	a.BreakOverrideMinutes = &shortBreak

	result, err := attendance.Calculate(a, &s)
	require.NoError(t, err)
	assert.Equal(t, 450, result.EffectiveMinutes)
	assert.True(t, result.OvertimeHours.Equal(dec("0.5")))
}

func TestCalculate_ShiftAware_NotFullDay(t *testing.T) {
	s := dayShift()
	result, err := attendance.Calculate(record("a", "09:00", "14:00", s.ID), &s)
	require.NoError(t, err)
	assert.True(t, result.EffectiveHours.Equal(dec("4")))
	assert.False(t, result.IsFullDay)
}

func TestCalculate_Rejects(t *testing.T) {
	s := dayShift()

	_, err := attendance.Calculate(record("a", "09:00", "", ""), nil)
	assert.ErrorIs(t, err, generic.ErrInvalidAttendanceData, "incomplete record")

	_, err = attendance.Calculate(record("a", "09:00", "17:00", "other"), &s)
	assert.ErrorIs(t, err, generic.ErrInvalidAttendanceData, "shift mismatch")

	_, err = attendance.Calculate(record("a", "09:00", "17:00", s.ID), nil)
	assert.ErrorIs(t, err, generic.ErrInvalidAttendanceData, "unresolved shift")
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_CheckOutWithoutCheckIn(t *testing.T) {
	err := attendance.Validate(record("a", "", "17:00", ""), nil, nil)
	assert.ErrorIs(t, err, generic.ErrInvalidAttendanceData)
}

func TestValidate_Duplicates(t *testing.T) {
	day := dayShift()
	night := nightShift()

	legacy := record("existing-legacy", "08:00", "16:00", "")
	linked := record("existing-day", "09:00", "17:00", day.ID)
	existing := []attendance.Attendance{legacy, linked}

	// Second legacy record on the same day
	err := attendance.Validate(record("new", "09:00", "12:00", ""), existing, nil)
	assert.ErrorIs(t, err, generic.ErrDuplicateAttendance)

	// Same shift, same day
	err = attendance.Validate(record("new", "09:00", "17:00", day.ID), existing, &day)
	assert.ErrorIs(t, err, generic.ErrDuplicateAttendance)

	// Different shift on the same day is allowed
	err = attendance.Validate(record("new", "22:00", "06:00", night.ID), existing, &night)
	assert.NoError(t, err)

	// Updating the record itself is not a duplicate
	err = attendance.Validate(legacy, existing, nil)
	assert.NoError(t, err)

	// Another day is fine
	other := record("new", "08:00", "16:00", "")
	other.Date = other.Date.AddDays(1)
	assert.NoError(t, attendance.Validate(other, existing, nil))
}

func TestValidate_CheckInWindow(t *testing.T) {
	s := dayShift() // 09:00 start, 60 minutes early allowed

	tests := []struct {
		checkIn string
		ok      bool
	}{
		{"08:00", true},
		{"07:59", false},
		{"09:00", true},
		{"13:00", true},
		{"13:01", false},
	}

	for _, tt := range tests {
		t.Run(tt.checkIn, func(t *testing.T) {
			err := attendance.Validate(record("a", tt.checkIn, "", s.ID), nil, &s)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, generic.ErrAttendanceOutOfWindow)
			}
		})
	}
}

func TestValidate_CheckInWindow_Overnight(t *testing.T) {
	s := nightShift() // 22:00 start, 30 minutes early allowed

	assert.NoError(t, attendance.Validate(record("a", "21:30", "", s.ID), nil, &s))
	assert.NoError(t, attendance.Validate(record("a", "01:30", "", s.ID), nil, &s))
	assert.ErrorIs(t, attendance.Validate(record("a", "21:00", "", s.ID), nil, &s), generic.ErrAttendanceOutOfWindow)
	assert.ErrorIs(t, attendance.Validate(record("a", "02:30", "", s.ID), nil, &s), generic.ErrAttendanceOutOfWindow)
}

// =============================================================================
// SUGGESTION
// =============================================================================

func TestSuggestShift(t *testing.T) {
	day := dayShift()
	night := nightShift()
	retired := nightShift()
	retired.ID = "retired"
	retired.IsActive = false

	got, ok := attendance.SuggestShift(record("a", "23:15", "06:00", ""), []shift.Shift{retired, day, night})
	require.True(t, ok)
	assert.Equal(t, shift.ID("night"), got.ID, "inactive shifts are skipped")

	_, ok = attendance.SuggestShift(record("a", "18:30", "", ""), []shift.Shift{day, night})
	assert.False(t, ok)

	_, ok = attendance.SuggestShift(record("a", "", "", ""), []shift.Shift{day})
	assert.False(t, ok)
}
