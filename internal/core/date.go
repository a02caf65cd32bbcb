package core

import (
	"strconv"
	"time"
)

// Date is a calendar day (no time-of-day component, UTC).
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// AddMonths advances the date by n calendar months, clamping the
// day-of-month to the last valid day of the target month (Jan 31 plus
// one month is Feb 28, or Feb 29 in a leap year). This is the only
// month-arithmetic operation in the codebase; time.AddDate normalizes
// overflow days into the next month and must not be used for schedules.
func (d Date) AddMonths(n int) Date {
	year, month, day := d.Date()
	total := year*12 + int(month) - 1 + n
	y := total / 12
	m := time.Month(total%12 + 1)
	if last := daysInMonth(y, m); day > last {
		day = last
	}
	return NewDate(y, int(m), day)
}

// Label renders the date as a month label, e.g. "Jan 2024".
func (d Date) Label() string {
	return d.Format("Jan 2006")
}

// ISO renders the date as "2006-01-02".
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON emits the ISO form instead of time.Time's RFC 3339.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.ISO())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return ErrInvalidDate
	}
	*d = parsed
	return nil
}

func daysInMonth(year int, m time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
