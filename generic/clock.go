package generic

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// CLOCK - Minute of day ("HH:mm")
// =============================================================================

// MinutesPerDay is the length of the clock face. Minute arithmetic wraps here.
const MinutesPerDay = 24 * 60

// Clock is a wall-clock time expressed as minutes since midnight (0-1439).
// It carries no date: 22:00 -> 06:00 is an overnight window, resolved by the
// wraparound-aware helpers below.
type Clock int

// ParseClock parses a strict "HH:mm" value.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q is not HH:mm", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: hour out of range in %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: minute out of range in %q", ErrInvalidClock, s)
	}
	return Clock(h*60 + m), nil
}

// MustParseClock panics on malformed input. Use in tests and fixtures.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf builds a Clock from hour and minute.
func ClockOf(hour, minute int) Clock { return Clock(hour*60 + minute) }

func (c Clock) Hour() int     { return int(c) / 60 }
func (c Clock) Minute() int   { return int(c) % 60 }
func (c Clock) Minutes() int  { return int(c) }
func (c Clock) Valid() bool   { return c >= 0 && c < MinutesPerDay }
func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

// Add moves the clock by n minutes, wrapping around midnight.
func (c Clock) Add(n int) Clock {
	return Clock(WrapMinutes(int(c) + n))
}

// MinutesUntil returns the forward distance from c to other, wrapping past
// midnight: 22:00 -> 06:00 is 480.
func (c Clock) MinutesUntil(other Clock) int {
	return WrapMinutes(int(other) - int(c))
}

// WrapMinutes normalises any minute count into [0, MinutesPerDay).
func WrapMinutes(n int) int {
	n %= MinutesPerDay
	if n < 0 {
		n += MinutesPerDay
	}
	return n
}

func (c Clock) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidClock, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ClockPtr is a convenience for optional check-in/check-out fields.
func ClockPtr(c Clock) *Clock { return &c }
