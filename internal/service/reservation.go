package service

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/google/uuid"

	"github.com/EpicMandM/rental-calendar/internal/logger"
	"github.com/EpicMandM/rental-calendar/internal/models"
)

// ReservationConfirmedMessage is shown to the customer after intake.
const ReservationConfirmedMessage = "Reservering succesvol aangemaakt!"

// ErrForwardFailed is returned when WordPress refuses a forwarded reservation.
var ErrForwardFailed = errors.New("reservation forwarding failed")

// IntakeResult is the confirmation returned for a reservation payload.
type IntakeResult struct {
	ReservationID string `json:"reservation_id"`
	Message       string `json:"message"`
	Persisted     bool   `json:"persisted"`
}

// ReservationService accepts reservation payloads.
//
// Intake is not finished: payloads are neither validated nor written to the
// rental store. Unless forwarding is enabled the confirmation carries a
// placeholder id and persisted=false.
type ReservationService struct {
	content ContentClient
	forward bool
	logger  *logger.Logger
	newID   func() string
}

// NewReservationService creates the intake service. With forward set, payloads
// are posted to WordPress through content.
func NewReservationService(content ContentClient, forward bool, log *logger.Logger) *ReservationService {
	if log == nil {
		log = logger.NewWithWriter(io.Discard)
	}
	return &ReservationService{
		content: content,
		forward: forward,
		logger:  log,
		newID:   func() string { return "pending-" + uuid.NewString() },
	}
}

// Submit handles one reservation payload.
func (s *ReservationService) Submit(ctx context.Context, payload map[string]any) (*IntakeResult, error) {
	if !s.forward {
		id := s.newID()
		s.logger.Info("Reservation accepted without persistence", logger.Action("create_reservation"),
			logger.Status("placeholder"), logger.Reason("forwarding disabled"), logger.F("RESERVATION_ID", id))
		return &IntakeResult{ReservationID: id, Message: ReservationConfirmedMessage}, nil
	}

	res := s.content.CreateReservation(ctx, payload)
	if !res.Success {
		return nil, &ForwardError{Kind: res.Kind, Message: res.Message}
	}
	return &IntakeResult{
		ReservationID: strconv.FormatInt(res.Data.ID, 10),
		Message:       ReservationConfirmedMessage,
		Persisted:     true,
	}, nil
}

// ForwardError carries the remote failure of a forwarded reservation.
type ForwardError struct {
	Kind    models.ErrorKind
	Message string
}

func (e *ForwardError) Error() string { return e.Message }

func (e *ForwardError) Unwrap() error { return ErrForwardFailed }
