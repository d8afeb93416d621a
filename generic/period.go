package generic

// =============================================================================
// DATE RANGE - Inclusive [Start, End] span of calendar days
// =============================================================================

// DateRange is an inclusive range of calendar days.
//
// Examples:
//   - Payroll period: Oct 1 - Oct 31
//   - Half-month period: Oct 16 - Oct 31
type DateRange struct {
	Start Date
	End   Date
}

// Contains returns true if the day is within [Start, End].
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Overlaps reports whether two ranges share at least one day. Bounds are
// inclusive: [Oct 1, Oct 15] and [Oct 15, Oct 31] overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(r.End)
}

// SpanDays is the inclusive number of days in the range.
func (r DateRange) SpanDays() int {
	return DaysBetween(r.Start, r.End) + 1
}

// Days returns all days in the range.
func (r DateRange) Days() []Date {
	var days []Date
	for current := r.Start; current.BeforeOrEqual(r.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// String returns a string representation of the range.
func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
