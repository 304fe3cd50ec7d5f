// Package calendar implements business-day arithmetic for the scheduler.
// It is the only place in the module that decides which dates are working
// days; every other package asks a Calendar.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DefaultMaxHorizonDays caps how many consecutive non-working days a
// working-day search may cross (ten years of calendar days).
const DefaultMaxHorizonDays = 3650

// ErrCalendarExhausted is returned when a working-day search crosses more
// non-working days in a row than the horizon allows, e.g. when every day is
// a holiday.
var ErrCalendarExhausted = errors.New("calendar exhausted")

// Settings controls which days count as working days. A Settings value is
// immutable for the duration of a scheduling run.
type Settings struct {
	ExcludeWeekends bool
	ExcludeHolidays bool
	CustomHolidays  []civil.Date

	// MaxHorizonDays is the longest run of consecutive non-working days a
	// search may cross, and the longest span WorkingDaysIn will count.
	// Long moves over a healthy calendar are not limited by it. Zero means
	// DefaultMaxHorizonDays.
	MaxHorizonDays int
}

// Calendar answers working-day questions for one Settings value. It is
// read-only after New and safe for concurrent use.
type Calendar struct {
	excludeWeekends bool
	excludeHolidays bool
	holidays        map[civil.Date]bool
	horizon         int
}

// New builds a Calendar from settings. The holiday list is copied.
func New(s Settings) *Calendar {
	horizon := s.MaxHorizonDays
	if horizon <= 0 {
		horizon = DefaultMaxHorizonDays
	}
	holidays := make(map[civil.Date]bool, len(s.CustomHolidays))
	for _, d := range s.CustomHolidays {
		holidays[d] = true
	}
	return &Calendar{
		excludeWeekends: s.ExcludeWeekends,
		excludeHolidays: s.ExcludeHolidays,
		holidays:        holidays,
		horizon:         horizon,
	}
}

// IsWorkingDay reports whether d is a working day.
func (c *Calendar) IsWorkingDay(d civil.Date) bool {
	if c.excludeWeekends {
		switch weekday(d) {
		case time.Saturday, time.Sunday:
			return false
		}
	}
	if c.excludeHolidays && c.holidays[d] {
		return false
	}
	return true
}

// AddWorkingDays moves n working days away from d. Positive n walks forward,
// negative n walks backward; d itself is never counted. With n == 0 the
// result is d when d is a working day, otherwise the next working day
// forward.
func (c *Calendar) AddWorkingDays(d civil.Date, n int) (civil.Date, error) {
	if n == 0 {
		return c.RollForward(d)
	}
	step := 1
	remaining := n
	if n < 0 {
		step = -1
		remaining = -n
	}
	cur := d
	idle := 0
	for remaining > 0 {
		if idle > c.horizon {
			return civil.Date{}, c.exhausted(d, n)
		}
		cur = cur.AddDays(step)
		if c.IsWorkingDay(cur) {
			remaining--
			idle = 0
		} else {
			idle++
		}
	}
	return cur, nil
}

// RollForward returns d if it is a working day, otherwise the first working
// day after it.
func (c *Calendar) RollForward(d civil.Date) (civil.Date, error) {
	return c.roll(d, 1)
}

// RollBackward returns d if it is a working day, otherwise the last working
// day before it.
func (c *Calendar) RollBackward(d civil.Date) (civil.Date, error) {
	return c.roll(d, -1)
}

func (c *Calendar) roll(d civil.Date, step int) (civil.Date, error) {
	cur := d
	for walked := 0; !c.IsWorkingDay(cur); walked++ {
		if walked >= c.horizon {
			return civil.Date{}, c.exhausted(d, 0)
		}
		cur = cur.AddDays(step)
	}
	return cur, nil
}

// WorkingDaysBetween returns the signed number of working days in the
// half-open interval (a, b]. When b is before a the count covers (b, a] and
// is negated. For working days a and b, AddWorkingDays(a, n) == b where n is
// the returned value.
func (c *Calendar) WorkingDaysBetween(a, b civil.Date) int {
	if a == b {
		return 0
	}
	sign := 1
	lo, hi := a, b
	if b.Before(a) {
		sign = -1
		lo, hi = b, a
	}
	count := 0
	for cur := lo.AddDays(1); !cur.After(hi); cur = cur.AddDays(1) {
		if c.IsWorkingDay(cur) {
			count++
		}
	}
	return sign * count
}

// WorkingDaysIn returns the number of working days in the closed interval
// [start, end]. It returns ErrCalendarExhausted when the interval is longer
// than the horizon.
func (c *Calendar) WorkingDaysIn(start, end civil.Date) (int, error) {
	if end.Before(start) {
		return 0, nil
	}
	if span := end.DaysSince(start); span >= c.horizon {
		return 0, fmt.Errorf("%w: span %s..%s is %d days, horizon is %d",
			ErrCalendarExhausted, start, end, span, c.horizon)
	}
	n := c.WorkingDaysBetween(start, end)
	if c.IsWorkingDay(start) {
		n++
	}
	return n, nil
}

func (c *Calendar) exhausted(from civil.Date, n int) error {
	return fmt.Errorf("%w: no result for %s%+d working days, more than %d non-working days in a row",
		ErrCalendarExhausted, from, n, c.horizon)
}

func weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}
