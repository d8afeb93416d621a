package shift

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/generic"
)

// =============================================================================
// VALIDATION - Shift invariants
// =============================================================================

const (
	MinDurationMinutes = 60
	MaxDurationMinutes = generic.MinutesPerDay
)

// Validate checks every shift invariant and returns all violations joined.
// Each violation is a *generic.RuleError of kind ErrInvalidShiftConfig.
func (s Shift) Validate() error {
	var errs []error
	add := func(field, msg string, value, limit any) {
		errs = append(errs, generic.NewRuleError(generic.ErrInvalidShiftConfig, "shift", string(s.ID), field, msg).
			WithBounds(value, limit))
	}

	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, generic.NewRuleError(generic.ErrInvalidShiftConfig, "shift", string(s.ID), "name", "is required"))
	}
	if !s.Start.Valid() {
		add("start_time", "must be a minute of day", int(s.Start), generic.MinutesPerDay-1)
	}
	if !s.End.Valid() {
		add("end_time", "must be a minute of day", int(s.End), generic.MinutesPerDay-1)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	duration := s.DurationMinutes()
	if duration < MinDurationMinutes || duration > MaxDurationMinutes {
		add("duration", "must be between 60 and 1440 minutes", duration, MinDurationMinutes)
	}
	if s.BreakDurationMinutes < 0 {
		add("break_duration_minutes", "must not be negative", s.BreakDurationMinutes, 0)
	}
	if s.BreakDurationMinutes >= duration {
		add("break_duration_minutes", "must be shorter than the shift", s.BreakDurationMinutes, duration)
	}
	if s.MinWorkingHours.IsNegative() {
		add("min_working_hours", "must not be negative", s.MinWorkingHours, 0)
	}
	if s.MaxWorkingHours.LessThan(s.MinWorkingHours) {
		add("max_working_hours", "must be at least min_working_hours", s.MaxWorkingHours, s.MinWorkingHours)
	}
	if effective := s.EffectiveWorkingHours(); s.MinWorkingHours.GreaterThan(effective) {
		add("min_working_hours", "exceeds effective working hours", s.MinWorkingHours, generic.RoundMoney(effective))
	}
	if !s.OvertimeMultiplier.IsPositive() {
		add("overtime_multiplier", "must be greater than zero", s.OvertimeMultiplier, 0)
	}
	if s.LateThresholdMinutes < 0 {
		add("late_threshold_minutes", "must not be negative", s.LateThresholdMinutes, 0)
	}
	if s.EarlyCheckInAllowedMinutes < 0 {
		add("early_check_in_allowed_minutes", "must not be negative", s.EarlyCheckInAllowedMinutes, 0)
	}

	return errors.Join(errs...)
}

// =============================================================================
// PARTIAL UPDATE
// =============================================================================

// Update carries the fields of a partial shift update; nil means unchanged.
type Update struct {
	Name                       *string
	Start                      *generic.Clock
	End                        *generic.Clock
	IsActive                   *bool
	HasBreakTime               *bool
	BreakDurationMinutes       *int
	MinWorkingHours            *decimal.Decimal
	MaxWorkingHours            *decimal.Decimal
	OvertimeMultiplier         *decimal.Decimal
	LateThresholdMinutes       *int
	EarlyCheckInAllowedMinutes *int
}

// Apply returns a copy of s with the update applied, re-validated as a whole.
// s itself is not modified.
func (s Shift) Apply(u Update, now time.Time) (Shift, error) {
	next := s
	if u.Name != nil {
		next.Name = *u.Name
	}
	if u.Start != nil {
		next.Start = *u.Start
	}
	if u.End != nil {
		next.End = *u.End
	}
	if u.IsActive != nil {
		next.IsActive = *u.IsActive
	}
	if u.HasBreakTime != nil {
		next.HasBreakTime = *u.HasBreakTime
	}
	if u.BreakDurationMinutes != nil {
		next.BreakDurationMinutes = *u.BreakDurationMinutes
	}
	if u.MinWorkingHours != nil {
		next.MinWorkingHours = *u.MinWorkingHours
	}
	if u.MaxWorkingHours != nil {
		next.MaxWorkingHours = *u.MaxWorkingHours
	}
	if u.OvertimeMultiplier != nil {
		next.OvertimeMultiplier = *u.OvertimeMultiplier
	}
	if u.LateThresholdMinutes != nil {
		next.LateThresholdMinutes = *u.LateThresholdMinutes
	}
	if u.EarlyCheckInAllowedMinutes != nil {
		next.EarlyCheckInAllowedMinutes = *u.EarlyCheckInAllowedMinutes
	}

	if err := next.Validate(); err != nil {
		return s, err
	}
	next.UpdatedAt = now
	return next, nil
}

// Retire deactivates the shift. Retired shifts stay resolvable for existing
// assignments but cannot receive new ones.
func (s Shift) Retire(now time.Time) Shift {
	s.IsActive = false
	s.UpdatedAt = now
	return s
}
