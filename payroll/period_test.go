package payroll_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/payroll"
)

var today = time.Date(2025, time.October, 15, 9, 0, 0, 0, time.UTC)

func period(id, start, end string) payroll.Period {
	return payroll.Period{
		ID:       payroll.PeriodID(id),
		TenantID: "tenant-1",
		Start:    generic.MustParseDate(start),
		End:      generic.MustParseDate(end),
	}
}

func TestNewPeriod_Rules(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		kind       error
	}{
		{"full month", "2025-10-01", "2025-10-31", nil},
		{"end before start", "2025-10-10", "2025-10-01", generic.ErrInvalidPeriod},
		{"same day", "2025-10-10", "2025-10-10", generic.ErrInvalidPeriod},
		{"32 days", "2025-10-01", "2025-11-01", generic.ErrInvalidPeriod},
		{"31 days across months", "2025-08-15", "2025-09-14", nil},
		{"32 days across months", "2025-08-15", "2025-09-15", generic.ErrInvalidPeriod},
		{"six months out", "2026-04-15", "2026-04-30", nil},
		{"beyond six months", "2026-04-16", "2026-04-30", generic.ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := payroll.NewPeriod("p", "tenant-1", generic.MustParseDate(tt.start), generic.MustParseDate(tt.end), nil, today)
			if tt.kind == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.kind)
			}
		})
	}
}

func TestNewPeriod_SpanCountsBothEnds(t *testing.T) {
	// GIVEN: Jan 1 to Feb 1, 31 days apart but 32 calendar days
	_, err := payroll.NewPeriod("p", "tenant-1", generic.MustParseDate("2025-01-01"), generic.MustParseDate("2025-02-01"), nil, today)

	// THEN: Rejected, reporting the inclusive count
	require.ErrorIs(t, err, generic.ErrInvalidPeriod)
	var ruleErr *generic.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, 32, ruleErr.Value)
	assert.Equal(t, payroll.MaxPeriodDays, ruleErr.Limit)

	_, err = payroll.NewPeriod("p", "tenant-1", generic.MustParseDate("2025-01-01"), generic.MustParseDate("2025-01-31"), nil, today)
	assert.NoError(t, err)
}

func TestNewPeriod_OverlapInclusive(t *testing.T) {
	siblings := []payroll.Period{period("sept", "2025-09-01", "2025-09-30")}

	_, err := payroll.NewPeriod("oct", "tenant-1", generic.MustParseDate("2025-09-30"), generic.MustParseDate("2025-10-29"), siblings, today)
	assert.ErrorIs(t, err, generic.ErrPeriodOverlap, "shared boundary day")

	_, err = payroll.NewPeriod("oct", "tenant-1", generic.MustParseDate("2025-10-01"), generic.MustParseDate("2025-10-31"), siblings, today)
	assert.NoError(t, err)

	other := period("other", "2025-10-01", "2025-10-31")
	other.TenantID = "tenant-2"
	_, err = payroll.NewPeriod("oct", "tenant-1", generic.MustParseDate("2025-10-01"), generic.MustParseDate("2025-10-31"), []payroll.Period{other}, today)
	assert.NoError(t, err, "other tenants do not count")
}

func TestReschedule(t *testing.T) {
	oct := period("oct", "2025-10-01", "2025-10-31")
	siblings := []payroll.Period{oct, period("nov", "2025-11-01", "2025-11-30")}

	moved, err := payroll.Reschedule(oct, generic.MustParseDate("2025-10-01"), generic.MustParseDate("2025-10-30"), siblings, today)
	require.NoError(t, err, "the period itself is excluded from the overlap check")
	assert.Equal(t, "2025-10-30", moved.End.String())

	_, err = payroll.Reschedule(oct, generic.MustParseDate("2025-10-05"), generic.MustParseDate("2025-11-02"), siblings, today)
	assert.ErrorIs(t, err, generic.ErrPeriodOverlap)

	oct.IsFinalized = true
	_, err = payroll.Reschedule(oct, generic.MustParseDate("2025-10-01"), generic.MustParseDate("2025-10-30"), siblings, today)
	assert.ErrorIs(t, err, generic.ErrPeriodFinalized)
}

func TestFinalize_RequiresEndPassed(t *testing.T) {
	sept := period("sept", "2025-09-01", "2025-09-30")
	_, err := payroll.Finalize(sept, time.Date(2025, time.September, 30, 23, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, generic.ErrPeriodNotFinalizable, "last day has not passed")

	done, err := payroll.Finalize(sept, today)
	require.NoError(t, err)
	assert.Equal(t, payroll.PeriodFinalized, done.Status())
	require.NotNil(t, done.FinalizedAt)
}

func TestFinalize_SecondCallRejected(t *testing.T) {
	// GIVEN: A finalized period
	// WHEN: Finalizing again
	// THEN: ErrPeriodNotFinalizable, still finalized with the first timestamp

	first, err := payroll.Finalize(period("sept", "2025-09-01", "2025-09-30"), today)
	require.NoError(t, err)

	second, err := payroll.Finalize(first, today.Add(time.Hour))
	assert.ErrorIs(t, err, generic.ErrPeriodNotFinalizable)
	assert.True(t, second.IsFinalized)
	assert.Equal(t, today, *second.FinalizedAt)
}

// =============================================================================
// GUARD
// =============================================================================

func TestCanCalculate(t *testing.T) {
	oct := period("oct", "2025-10-01", "2025-10-31")
	setting := monthlySetting()

	assert.Empty(t, payroll.CanCalculate(salary("1730"), setting, oct, nil, today))

	assert.Contains(t, payroll.CanCalculate(salary("0"), setting, oct, nil, today), "invalid salary")

	finalized := oct
	finalized.IsFinalized = true
	assert.Contains(t, payroll.CanCalculate(salary("1730"), setting, finalized, nil, today), "finalized")

	weekly := setting
	weekly.OvertimeCalculationType = "WEEKLY"
	assert.Contains(t, payroll.CanCalculate(salary("1730"), weekly, oct, nil, today), "unsupported overtime calculation type")

	clash := []payroll.Period{period("clash", "2025-10-20", "2025-11-05")}
	assert.Contains(t, payroll.CanCalculate(salary("1730"), setting, oct, clash, today), "invalid payroll period")

	ump := dec("2000")
	floored := setting
	floored.UMP = &ump
	assert.Contains(t, payroll.CanCalculate(salary("1730"), floored, oct, nil, today), "minimum wage")

	daily := salary("1730")
	daily.Type = payroll.SalaryDaily
	assert.Empty(t, payroll.CanCalculate(daily, floored, oct, nil, today), "the floor applies to monthly salaries only")
}
