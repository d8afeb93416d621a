/*
Package shift implements the shift template rules.

PURPOSE:
  A Shift is a reusable, tenant-scoped time window (e.g. 09:00-17:00 or the
  overnight 22:00-06:00) with a break policy, working-hour bounds and a
  lateness grace period. Everything the attendance and assignment engines
  need to know about "what counts as late" or "what counts as overtime"
  is answered here.

KEY CONCEPTS:
  - Duration: end - start, wrapping past midnight for overnight shifts
  - Effective working minutes: duration minus the configured break
  - Lateness: minutes after start, forgiven up to LateThresholdMinutes
  - Overtime: worked hours beyond MaxWorkingHours
  - Overlap: two windows sharing any minute, wraparound-aware

OVERNIGHT SHIFTS:
  End < Start means the shift ends on the next calendar day. End == Start
  is a full 24h shift. Clock arithmetic uses generic.Clock, which wraps
  at 1440 minutes.

LIFECYCLE:
  Created by a tenant admin, mutated through Apply (each update is
  re-validated), retired by IsActive=false. Shifts are never hard-deleted
  while assignments reference them.

SEE ALSO:
  - validate.go: Invariants
  - attendance/: Uses lateness and overtime for shift-aware attendance
  - staffshift/: Uses Overlaps to reject double-booked staff
*/
package shift

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/generic"
)

// =============================================================================
// SHIFT - Time window template with break/overtime/lateness policy
// =============================================================================

type ID string

type Shift struct {
	ID       ID
	TenantID generic.TenantID
	Name     string

	// Time window. End < Start means overnight.
	Start generic.Clock
	End   generic.Clock

	IsActive bool

	// Break policy
	HasBreakTime         bool
	BreakDurationMinutes int

	// Working-hour bounds; worked hours above MaxWorkingHours are overtime
	MinWorkingHours    decimal.Decimal
	MaxWorkingHours    decimal.Decimal
	OvertimeMultiplier decimal.Decimal

	// Grace periods
	LateThresholdMinutes       int
	EarlyCheckInAllowedMinutes int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// lateCutoff splits the clock face: check-ins more than half a day after
// start are read as early arrivals for the next occurrence of the shift.
const lateCutoff = generic.MinutesPerDay / 2

// IsOvernight reports whether the window crosses midnight.
func (s Shift) IsOvernight() bool {
	return s.End < s.Start
}

// IsFullDay reports a 24h window (End == Start).
func (s Shift) IsFullDay() bool {
	return s.End == s.Start
}

// DurationMinutes is the length of the window, wrapping past midnight.
func (s Shift) DurationMinutes() int {
	switch {
	case s.IsFullDay():
		return generic.MinutesPerDay
	case s.IsOvernight():
		return (generic.MinutesPerDay - int(s.Start)) + int(s.End)
	default:
		return int(s.End) - int(s.Start)
	}
}

// BreakMinutes is the configured break, or zero when the shift has none.
func (s Shift) BreakMinutes() int {
	if !s.HasBreakTime {
		return 0
	}
	return s.BreakDurationMinutes
}

// EffectiveWorkingMinutes is the duration minus the configured break.
func (s Shift) EffectiveWorkingMinutes() int {
	return s.DurationMinutes() - s.BreakMinutes()
}

// EffectiveWorkingHours is EffectiveWorkingMinutes in exact decimal hours.
func (s Shift) EffectiveWorkingHours() decimal.Decimal {
	return generic.HoursFromMinutes(s.EffectiveWorkingMinutes())
}

// IsTimeWithin reports whether c falls inside [Start, End], inclusive.
func (s Shift) IsTimeWithin(c generic.Clock) bool {
	switch {
	case s.IsFullDay():
		return true
	case s.IsOvernight():
		return c >= s.Start || c <= s.End
	default:
		return c >= s.Start && c <= s.End
	}
}

// LateMinutes returns how late a check-in is, measured from Start.
// A check-in within LateThresholdMinutes of Start is on time (0); past the
// threshold the full delay from Start is counted. Early check-ins are
// never late.
func (s Shift) LateMinutes(checkIn generic.Clock) int {
	offset := s.Start.MinutesUntil(checkIn)
	if offset > lateCutoff {
		return 0
	}
	if offset <= s.LateThresholdMinutes {
		return 0
	}
	return offset
}

// EarlyMinutes returns how long before Start a check-in happened, or 0.
func (s Shift) EarlyMinutes(checkIn generic.Clock) int {
	offset := s.Start.MinutesUntil(checkIn)
	if offset <= lateCutoff {
		return 0
	}
	return generic.MinutesPerDay - offset
}

// OvertimeHours returns max(0, worked/60 - MaxWorkingHours), unrounded.
func (s Shift) OvertimeHours(workedMinutes int) decimal.Decimal {
	return generic.NonNegative(generic.HoursFromMinutes(workedMinutes).Sub(s.MaxWorkingHours))
}

// OvertimeMinutes is OvertimeHours in whole minutes.
func (s Shift) OvertimeMinutes(workedMinutes int) int {
	over := workedMinutes - generic.MinutesFromHours(s.MaxWorkingHours)
	if over < 0 {
		return 0
	}
	return over
}

// Overlaps reports whether two shift windows share any minute.
func (s Shift) Overlaps(other Shift) bool {
	return Overlaps(s, other)
}

// Overlaps reports whether two time windows overlap. Each window becomes a
// half-open interval [start, start+duration) on a two-day line, so an
// overnight window simply runs past 1440. The second window is then tried
// one day earlier, same day and one day later. Touching boundaries
// (08:00-16:00 vs 16:00-23:00) do not overlap. The test is symmetric.
func Overlaps(a, b Shift) bool {
	aStart, aEnd := int(a.Start), int(a.Start)+a.DurationMinutes()
	bStart, bEnd := int(b.Start), int(b.Start)+b.DurationMinutes()

	for _, offset := range []int{-generic.MinutesPerDay, 0, generic.MinutesPerDay} {
		if aStart < bEnd+offset && bStart+offset < aEnd {
			return true
		}
	}
	return false
}

// =============================================================================
// LOOKUP - Resolve shift ids to shifts
// =============================================================================

// Lookup resolves a shift id. Implemented by Catalog and by stores.
type Lookup interface {
	Shift(id ID) (Shift, bool)
}

// Catalog is an in-memory Lookup keyed by shift id.
type Catalog map[ID]Shift

func NewCatalog(shifts ...Shift) Catalog {
	c := make(Catalog, len(shifts))
	for _, s := range shifts {
		c[s.ID] = s
	}
	return c
}

func (c Catalog) Shift(id ID) (Shift, bool) {
	s, ok := c[id]
	return s, ok
}
