package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// DefaultRentalStatus is assigned to rentals created without an explicit status.
const DefaultRentalStatus = "pending"

// Rental is a stored reservation record.
type Rental struct {
	ID            int64     `json:"id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Validate checks the fields a rental needs before it can be stored.
func (r *Rental) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return fmt.Errorf("customer_name is required")
	}
	if _, err := mail.ParseAddress(r.CustomerEmail); err != nil {
		return fmt.Errorf("customer_email is invalid: %w", err)
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return fmt.Errorf("start_date and end_date are required")
	}
	if r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("end_date %s is before start_date %s",
			r.EndDate.Format(DateLayout), r.StartDate.Format(DateLayout))
	}
	return nil
}

func (r *Rental) String() string {
	return fmt.Sprintf("%s - %s", r.CustomerName, r.StartDate.Format(DateLayout))
}
