// Package calendar provides the business-day arithmetic behind the Texas
// one-call waiting period. A business day is any weekday that is not an
// observed holiday; dates are compared by calendar day, never by clock time.
package calendar

import (
	"sync"
	"time"
)

// Holiday is one observed non-working day.
type Holiday struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

var (
	holidayMu    sync.RWMutex
	holidayCache = make(map[int][]Holiday)
)

// Normalize truncates a timestamp to its calendar day, anchored at midnight
// UTC so day arithmetic is immune to the caller's zone and to DST.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// HolidaysForYear returns the observed holidays for a year, in date order.
func HolidaysForYear(year int) []Holiday {
	holidayMu.RLock()
	cached, ok := holidayCache[year]
	holidayMu.RUnlock()
	if ok {
		out := make([]Holiday, len(cached))
		copy(out, cached)
		return out
	}

	hs := []Holiday{
		{Name: "New Year's Day", Date: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "Memorial Day", Date: lastWeekday(year, time.May, time.Monday)},
		{Name: "Independence Day", Date: time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC)},
		{Name: "Labor Day", Date: nthWeekday(year, time.September, time.Monday, 1)},
		{Name: "Thanksgiving Day", Date: nthWeekday(year, time.November, time.Thursday, 4)},
		{Name: "Christmas Day", Date: time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)},
	}

	holidayMu.Lock()
	holidayCache[year] = hs
	holidayMu.Unlock()

	out := make([]Holiday, len(hs))
	copy(out, hs)
	return out
}

// HolidayOn reports whether the day is an observed holiday.
func HolidayOn(t time.Time) (Holiday, bool) {
	d := Normalize(t)
	for _, h := range HolidaysForYear(d.Year()) {
		if h.Date.Equal(d) {
			return h, true
		}
	}
	return Holiday{}, false
}

// IsBusinessDay reports whether work may lawfully be scheduled on the day.
func IsBusinessDay(t time.Time) bool {
	d := Normalize(t)
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, holiday := HolidayOn(d)
	return !holiday
}

// AddBusinessDays advances from t by n business days, skipping weekends and
// holidays. n <= 0 returns the normalized start day unchanged.
func AddBusinessDays(t time.Time, n int) time.Time {
	d := Normalize(t)
	for counted := 0; counted < n; {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d) {
			counted++
		}
	}
	return d
}

// NextBusinessDay returns the first business day strictly after t.
func NextBusinessDay(t time.Time) time.Time {
	return AddBusinessDays(t, 1)
}

// HolidaysBetween returns the holidays in [from, to], inclusive on both ends.
func HolidaysBetween(from, to time.Time) []Holiday {
	lo, hi := Normalize(from), Normalize(to)
	if hi.Before(lo) {
		return nil
	}
	var out []Holiday
	for year := lo.Year(); year <= hi.Year(); year++ {
		for _, h := range HolidaysForYear(year) {
			if !h.Date.Before(lo) && !h.Date.After(hi) {
				out = append(out, h)
			}
		}
	}
	return out
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
