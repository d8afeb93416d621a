/*
errors.go - Centralized error taxonomy for the engines

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Every validation failure is a *RuleError that unwraps to one of the
  sentinel kinds below, so callers branch with errors.Is and still get
  the entity, field and boundary values for a user-facing message.

ERROR CATEGORIES:
  1. Configuration errors - Shift, salary and payroll settings
  2. Record errors - Attendance and assignment data
  3. Lifecycle errors - State transitions, locked periods and details
  4. Store errors - Not found, duplicate keys

USAGE:
  if errors.Is(err, generic.ErrOverlappingAssignment) {
      // conflict with an existing same-day assignment
  }

  var ruleErr *generic.RuleError
  if errors.As(err, &ruleErr) {
      fmt.Println(ruleErr.Field, ruleErr.Limit)
  }

SEE ALSO:
  - api/errors.go: Maps kinds to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrInvalidShiftConfig     = errors.New("invalid shift configuration")
	ErrInvalidAttendanceData  = errors.New("invalid attendance data")
	ErrAttendanceOutOfWindow  = errors.New("attendance outside shift window")
	ErrDuplicateAttendance    = errors.New("duplicate attendance")
	ErrOverlappingAssignment  = errors.New("overlapping shift assignment")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidSalaryConfig    = errors.New("invalid salary configuration")
	ErrInvalidPayrollSetting  = errors.New("invalid payroll setting")
	ErrInvalidPeriod          = errors.New("invalid payroll period")
	ErrPeriodOverlap          = errors.New("payroll period overlaps an existing period")
	ErrPeriodNotFinalizable   = errors.New("payroll period cannot be finalized")
	ErrPeriodFinalized        = errors.New("payroll period is finalized")
	ErrDetailLocked           = errors.New("payroll detail is paid and locked")
	ErrNegativeAmount         = errors.New("amount must not be negative")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrCalculationRefused     = errors.New("payroll calculation refused")
	ErrInconsistentDetail     = errors.New("payroll detail totals are inconsistent")

	// ErrInvalidClock is returned for malformed "HH:mm" values.
	ErrInvalidClock = errors.New("invalid clock value")

	// ErrNotFound is returned by stores when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdempotencyKey is returned when a ledger entry with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrIdempotencyKeyReused is returned when a tenant's idempotency key is
	// already bound to a different reference. Unlike a retry, this is a conflict.
	ErrIdempotencyKeyReused = errors.New("idempotency key already used for another record")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RuleError describes one violated rule. Kind is always one of the sentinel
// errors above.
type RuleError struct {
	Kind    error
	Entity  string // "shift", "attendance", "payroll_period", ...
	ID      string
	Field   string
	Value   any
	Limit   any
	Message string
}

func (e *RuleError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
		if e.ID != "" {
			fmt.Fprintf(&b, " %s", e.ID)
		}
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, " %s", e.Message)
	}
	if e.Value != nil {
		fmt.Fprintf(&b, " (got %v", e.Value)
		if e.Limit != nil {
			fmt.Fprintf(&b, ", limit %v", e.Limit)
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *RuleError) Unwrap() error {
	return e.Kind
}

// NewRuleError is shorthand for the common (kind, entity, field, message) case.
func NewRuleError(kind error, entity, id, field, message string) *RuleError {
	return &RuleError{Kind: kind, Entity: entity, ID: id, Field: field, Message: message}
}

// WithBounds attaches the offending value and the boundary it crossed.
func (e *RuleError) WithBounds(value, limit any) *RuleError {
	e.Value = value
	e.Limit = limit
	return e
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidShiftConfig) ||
		errors.Is(err, ErrInvalidAttendanceData) ||
		errors.Is(err, ErrAttendanceOutOfWindow) ||
		errors.Is(err, ErrInvalidSalaryConfig) ||
		errors.Is(err, ErrInvalidPayrollSetting) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidClock)
}

// IsConflict returns true if the error is a clash with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateAttendance) ||
		errors.Is(err, ErrOverlappingAssignment) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrPeriodOverlap) ||
		errors.Is(err, ErrPeriodNotFinalizable) ||
		errors.Is(err, ErrPeriodFinalized) ||
		errors.Is(err, ErrDetailLocked) ||
		errors.Is(err, ErrCalculationRefused) ||
		errors.Is(err, ErrInconsistentDetail) ||
		errors.Is(err, ErrDuplicateIdempotencyKey) ||
		errors.Is(err, ErrIdempotencyKeyReused)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
