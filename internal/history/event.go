// internal/history/event.go
//
// Core data types for the historical-events corpus.
// Defines:
//   - Event: one dated historical event as served by the data service.
//   - Date:  a calendar date (year, month, day) used for guesses and lookups.
//   - Query: a lookup at day, month or year granularity.

package history

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Event is a single historical event. Events are immutable once fetched.
type Event struct {
	ID          int    `json:"id" yaml:"id"`
	Year        int    `json:"year" yaml:"year"`
	Month       int    `json:"month" yaml:"month"` // 1–12
	Day         int    `json:"day" yaml:"day"`     // 1–31
	Description string `json:"description" yaml:"description"`
}

// Date returns the calendar date the event happened on.
func (e Event) Date() Date { return Date{Year: e.Year, Month: e.Month, Day: e.Day} }

// Valid reports whether the event carries a usable calendar date.
func (e Event) Valid() bool { return e.Date().Valid() }

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English name for month m (1–12), or "" if out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// Date is a proleptic Gregorian calendar date.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Valid reports whether d names a real day (month 1–12, day within month).
func (d Date) Valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return false
	}
	t := d.Time()
	return t.Year() == d.Year && int(t.Month()) == d.Month && t.Day() == d.Day
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Key is the unpadded "Y-M-D" form used to recognise repeated guesses.
func (d Date) Key() string {
	return fmt.Sprintf("%d-%d-%d", d.Year, d.Month, d.Day)
}

// String renders d as "Month D, Y".
func (d Date) String() string {
	return fmt.Sprintf("%s %d, %d", MonthName(d.Month), d.Day, d.Year)
}

// Before orders dates by (year, month, day).
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// DaysBetween returns the absolute number of whole calendar days between a and b.
func DaysBetween(a, b Date) int {
	hours := a.Time().Sub(b.Time()).Hours()
	if hours < 0 {
		hours = -hours
	}
	return int(hours / 24)
}

// ParseDate accepts "YYYY-MM-DD" (padding optional) and validates the result.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("parse date %q: want YYYY-MM-DD", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("parse date %q: %w", s, err)
		}
		nums[i] = n
	}
	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if !d.Valid() {
		return Date{}, fmt.Errorf("parse date %q: no such day", s)
	}
	return d, nil
}

// Tier is the granularity of a lookup.
type Tier string

const (
	TierDay   Tier = "day"
	TierMonth Tier = "month"
	TierYear  Tier = "year"
)

// Query selects events by year, optionally narrowed to a month and a day.
// Month and Day are zero when not part of the filter.
type Query struct {
	Year  int
	Month int
	Day   int
}

// QueryFor builds the query for date d at the given tier.
func QueryFor(d Date, t Tier) Query {
	switch t {
	case TierDay:
		return Query{Year: d.Year, Month: d.Month, Day: d.Day}
	case TierMonth:
		return Query{Year: d.Year, Month: d.Month}
	default:
		return Query{Year: d.Year}
	}
}

// Tier reports the granularity q filters at.
func (q Query) Tier() Tier {
	switch {
	case q.Day != 0:
		return TierDay
	case q.Month != 0:
		return TierMonth
	default:
		return TierYear
	}
}

// Key is a stable string form of q, e.g. "year=1800&month=1&day=1".
func (q Query) Key() string {
	var b strings.Builder
	b.WriteString("year=")
	b.WriteString(strconv.Itoa(q.Year))
	if q.Month != 0 {
		b.WriteString("&month=")
		b.WriteString(strconv.Itoa(q.Month))
		if q.Day != 0 {
			b.WriteString("&day=")
			b.WriteString(strconv.Itoa(q.Day))
		}
	}
	return b.String()
}

// Matches reports whether e falls inside q.
func (q Query) Matches(e Event) bool {
	if e.Year != q.Year {
		return false
	}
	if q.Month != 0 && e.Month != q.Month {
		return false
	}
	if q.Day != 0 && e.Day != q.Day {
		return false
	}
	return true
}
