package domain

import "time"

// Daily figures use UTC calendar days: [00:00, 24:00) UTC.

// Day is a UTC calendar date.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayLayout is the wire format of a Day.
const DayLayout = "2006-01-02"

// DayOf returns the UTC calendar day t falls on.
func DayOf(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{Year: y, Month: m, Day: d}
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, err
	}
	return DayOf(t), nil
}

// Start is the first instant of the day.
func (d Day) Start() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the following day.
func (d Day) End() time.Time {
	return d.Start().AddDate(0, 0, 1)
}

// Contains reports whether t falls on the day.
func (d Day) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(d.Start()) && t.Before(d.End())
}

func (d Day) String() string {
	return d.Start().Format(DayLayout)
}
