// utils/dates.go
package utils

import (
	"fmt"
	"time"
)

const ClockLayout = "15:04"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

// ParseWeekday accepts an English weekday name such as "Monday".
func ParseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return d, true
		}
	}
	return time.Sunday, false
}

// NextWeekday returns midnight of the first day on or after from that falls
// on day. When from is already that weekday, from's own date is returned.
func NextWeekday(from time.Time, day time.Weekday) time.Time {
	diff := (int(day) - int(from.Weekday()) + 7) % 7
	return BeginningOfDay(from).AddDate(0, 0, diff)
}

// AtClock places an "HH:MM" clock time on date's calendar day.
func AtClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", clock)
	}
	year, month, day := date.Date()
	return time.Date(year, month, day, t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}
