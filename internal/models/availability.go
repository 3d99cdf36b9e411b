package models

// Availability categories, derived from the day of the week.
const (
	CategoryWeekend = "weekend"
	CategoryMidweek = "midweek"
)

// AvailabilityEntry describes a single calendar day.
type AvailabilityEntry struct {
	Date      string  `json:"date"`
	Available bool    `json:"available"`
	Price     float64 `json:"price"`
	Type      string  `json:"type"`
}
