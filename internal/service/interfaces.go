package service

import (
	"context"

	"github.com/EpicMandM/rental-calendar/internal/models"
)

// ContentClient abstracts the remote content system for testability.
type ContentClient interface {
	TestConnection(ctx context.Context) models.ConnectionStatus
	AuthenticateUser(ctx context.Context, username, password string) models.Result[models.AuthSession]
	GetAvailability(ctx context.Context, start, end string) models.Result[[]models.AvailabilityEntry]
	CreateReservation(ctx context.Context, payload map[string]any) models.Result[models.RemoteReservation]
	GetUser(ctx context.Context, username string) models.Result[models.WordPressUser]
	CheckURLs(ctx context.Context) models.URLReport
	Info() models.ClientInfo
}

var _ ContentClient = (*WordPressClient)(nil)
