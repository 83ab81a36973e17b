// Package clock resolves local civil days for the class timezone.
package clock

import (
	"fmt"
	"time"
)

// DateLayout is the civil-date format stored with leave requests.
const DateLayout = "2006-01-02"

// Clock reads the current time in a fixed location.
type Clock struct {
	Loc *time.Location
	Now func() time.Time
}

// New returns a wall clock in loc; a nil loc means UTC.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Loc: loc, Now: time.Now}
}

// Load builds a clock from an IANA zone name.
func Load(name string) (Clock, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Clock{}, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return New(loc), nil
}

// Current is Now in the clock's location.
func (c Clock) Current() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().In(c.Location())
}

// Today is the current civil date as YYYY-MM-DD.
func (c Clock) Today() string {
	return c.Current().Format(DateLayout)
}

// Window returns the [start, end) bounds of a civil date.
func (c Clock) Window(date string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout, date, c.Location())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return start, start.AddDate(0, 0, 1), nil
}

// DaysBack lists the n civil dates ending today, newest first.
func (c Clock) DaysBack(n int) []string {
	today := c.Current()
	base := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, c.Location())
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, base.AddDate(0, 0, -i).Format(DateLayout))
	}
	return out
}

// Location is the clock's zone, UTC when unset.
func (c Clock) Location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}
