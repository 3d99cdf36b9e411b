package service

import (
	"fmt"
	"time"

	"github.com/EpicMandM/rental-calendar/internal/models"
)

// Placeholder day prices. The availability data below is synthetic: there is
// no booking ledger behind it, weekends are simply reported as taken.
const (
	WeekendPrice = 150.00
	MidweekPrice = 120.00
)

// MaxAvailabilityDays caps how many days one availability request may span.
const MaxAvailabilityDays = 366

// GenerateAvailability returns one entry per calendar day in [start, end],
// ascending. An inverted range yields an empty, non-nil slice.
func GenerateAvailability(start, end time.Time) []models.AvailabilityEntry {
	start, end = calendarDay(start), calendarDay(end)
	if end.Before(start) {
		return []models.AvailabilityEntry{}
	}

	days := int(end.Sub(start).Hours()/24) + 1
	entries := make([]models.AvailabilityEntry, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		entries = append(entries, entryFor(d))
	}
	return entries
}

func entryFor(day time.Time) models.AvailabilityEntry {
	if isWeekend(day) {
		return models.AvailabilityEntry{
			Date:      day.Format(models.DateLayout),
			Available: false,
			Price:     WeekendPrice,
			Type:      models.CategoryWeekend,
		}
	}
	return models.AvailabilityEntry{
		Date:      day.Format(models.DateLayout),
		Available: true,
		Price:     MidweekPrice,
		Type:      models.CategoryMidweek,
	}
}

func isWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// calendarDay drops the clock and zone, keeping the wall-clock date.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDateRange parses two YYYY-MM-DD dates. Ranges spanning more than
// MaxAvailabilityDays are rejected; inverted ranges are not an error.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", start)
	}
	e, err := time.Parse(models.DateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: expected YYYY-MM-DD", end)
	}
	if e.Sub(s) >= MaxAvailabilityDays*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("date range %s to %s exceeds %d days", start, end, MaxAvailabilityDays)
	}
	return s, e, nil
}

// DefaultRange is the current-month window: the first day of now's month
// through the first day of the following month.
func DefaultRange(now time.Time) (time.Time, time.Time) {
	y, m, _ := now.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
