package models

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// DateLayout is the stored calendar date form
	DateLayout = "2006-01-02"
	// DisplayLayout is the day-first form used in exports
	DisplayLayout = "02/01/2006"
)

// Date is a calendar day with no time-of-day, held at UTC midnight
type Date struct {
	time.Time
}

// NewDate builds a Date from its parts
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate reads a YYYY-MM-DD date
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(DateLayout) }

// Display returns DD/MM/YYYY
func (d Date) Display() string { return d.Format(DisplayLayout) }

// DaysSince returns the whole days elapsed from d to the calendar day of now
func (d Date) DaysSince(now time.Time) int {
	return int(DateOf(now).Sub(d.Time).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid date %s", data)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
