package store

import (
	"context"
	"errors"
	"time"

	"github.com/EpicMandM/rental-calendar/internal/models"
)

// ErrNotFound is returned when a rental id does not exist.
var ErrNotFound = errors.New("rental not found")

// Store defines the interface for rental record persistence.
type Store interface {
	CreateRental(ctx context.Context, rental *models.Rental) error
	GetRental(ctx context.Context, id int64) (*models.Rental, error)
	// ListRentals returns rentals overlapping [from, to], ordered by start date.
	ListRentals(ctx context.Context, from, to time.Time) ([]*models.Rental, error)
	UpdateRentalStatus(ctx context.Context, id int64, status string) error
	CountRentals(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Close() error
}
