package generic_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/shiftpay/generic"
)

func dateRange(start, end string) generic.DateRange {
	return generic.DateRange{Start: generic.MustParseDate(start), End: generic.MustParseDate(end)}
}

func TestDateRange_Overlaps_InclusiveBounds(t *testing.T) {
	october := dateRange("2025-10-01", "2025-10-31")

	assert.True(t, october.Overlaps(dateRange("2025-10-31", "2025-11-15")), "shared last day")
	assert.True(t, october.Overlaps(dateRange("2025-09-15", "2025-10-01")), "shared first day")
	assert.True(t, october.Overlaps(dateRange("2025-10-10", "2025-10-12")), "contained")
	assert.False(t, october.Overlaps(dateRange("2025-11-01", "2025-11-30")))
	assert.False(t, october.Overlaps(dateRange("2025-09-01", "2025-09-30")))
}

func TestDateRange_SpanDays(t *testing.T) {
	assert.Equal(t, 31, dateRange("2025-10-01", "2025-10-31").SpanDays())
	assert.Equal(t, 1, dateRange("2025-10-01", "2025-10-01").SpanDays())
	assert.Equal(t, 29, dateRange("2024-02-01", "2024-02-29").SpanDays())
	assert.Len(t, dateRange("2025-10-30", "2025-11-02").Days(), 4)
}

func TestDate_Weekend(t *testing.T) {
	assert.True(t, generic.MustParseDate("2025-10-11").IsWeekend(), "saturday")
	assert.True(t, generic.MustParseDate("2025-10-12").IsWeekend(), "sunday")
	assert.False(t, generic.MustParseDate("2025-10-13").IsWeekend(), "monday")
}

func TestDateOf_DropsTimeOfDay(t *testing.T) {
	ts := time.Date(2025, time.October, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, generic.MustParseDate("2025-10-15"), generic.DateOf(ts))
	assert.Equal(t, generic.MustParseDate("2025-10-31"), generic.EndOfMonth(2025, time.October))
}

func TestDecimalHelpers(t *testing.T) {
	assert.True(t, generic.HoursFromMinutes(90).Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, 90, generic.MinutesFromHours(decimal.RequireFromString("1.5")))
	assert.True(t, generic.RoundMoney(decimal.RequireFromString("10.005")).Equal(decimal.RequireFromString("10.01")))
	assert.True(t, generic.NonNegative(decimal.NewFromInt(-3)).IsZero())
}
