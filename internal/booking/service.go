package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitconnect/internal/logger"
	"fitconnect/internal/metrics"

	"github.com/google/uuid"
)

var (
	ErrForbidden     = errors.New("booking belongs to another user")
	ErrInvalidStatus = errors.New("invalid booking status")
)

const (
	referencePrefix = "FC-"
	// referenceAttempts bounds retries when a generated code collides.
	referenceAttempts = 3
)

// Notifier queues the booking e-mails.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, email, name, className, studioName, reference string, when time.Time) error
	SendCancellation(ctx context.Context, email, name, className, reference string) error
}

type Service interface {
	BookClass(ctx context.Context, userID int, req BookRequest) (*Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID int) (*Booking, error)
	ListUserBookings(ctx context.Context, userID int) ([]Booking, error)
	StudioBookings(ctx context.Context, studioID int, status string) ([]BookingWithDetails, error)
	RecentForStudio(ctx context.Context, studioID, limit int) ([]BookingWithDetails, error)
}

type service struct {
	repo         Repository
	notifier     Notifier
	newReference func() string
}

func NewService(repo Repository, notifier Notifier) Service {
	return &service{
		repo:         repo,
		notifier:     notifier,
		newReference: NewReferenceCode,
	}
}

// NewReferenceCode returns FC- followed by eight upper-case hex characters.
func NewReferenceCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return referencePrefix + strings.ToUpper(id[:8])
}

func (s *service) BookClass(ctx context.Context, userID int, req BookRequest) (*Booking, error) {
	var (
		booking *Booking
		err     error
	)
	for attempt := 1; attempt <= referenceAttempts; attempt++ {
		booking, err = s.repo.Create(ctx, userID, req.ClassID, s.newReference())
		if !errors.Is(err, ErrDuplicateReference) {
			break
		}
		logger.Warn("Booking reference collided, retrying", "class_id", req.ClassID, "attempt", attempt)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrClassFull):
			metrics.RecordBookingRejection("class_full")
		case errors.Is(err, ErrClassNotFound):
			metrics.RecordBookingRejection("class_not_found")
		default:
			return nil, fmt.Errorf("create booking: %w", err)
		}
		return nil, err
	}

	metrics.RecordBooking(booking.Status, booking.PaymentStatus)
	logger.Info("Booking created",
		"booking_id", booking.ID,
		"user_id", userID,
		"class_id", req.ClassID,
		"reference", booking.ReferenceCode,
	)

	s.sendConfirmation(ctx, booking)
	return booking, nil
}

func (s *service) CancelBooking(ctx context.Context, userID, bookingID int) (*Booking, error) {
	existing, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if existing.UserID != userID {
		return nil, ErrForbidden
	}

	booking, err := s.repo.Cancel(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotActive) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	metrics.RecordBookingCancellation()
	logger.Info("Booking cancelled", "booking_id", bookingID, "user_id", userID)

	s.sendCancellation(ctx, booking)
	return booking, nil
}

func (s *service) ListUserBookings(ctx context.Context, userID int) ([]Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) StudioBookings(ctx context.Context, studioID int, status string) ([]BookingWithDetails, error) {
	switch status {
	case "", "all":
		status = ""
	case StatusConfirmed, StatusWaitlist, StatusCancelled:
	default:
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByStudio(ctx, studioID, status)
}

func (s *service) RecentForStudio(ctx context.Context, studioID, limit int) ([]BookingWithDetails, error) {
	return s.repo.RecentByStudio(ctx, studioID, limit)
}

func (s *service) sendConfirmation(ctx context.Context, b *Booking) {
	if s.notifier == nil {
		return
	}

	receipt, err := s.repo.Receipt(ctx, b.ID)
	if err != nil {
		logger.Warn("Booking receipt unavailable", "booking_id", b.ID, "error", err)
		return
	}

	err = s.notifier.SendBookingConfirmation(ctx, receipt.UserEmail, receipt.UserName,
		receipt.ClassName, receipt.StudioName, receipt.ReferenceCode, receipt.StartsAt)
	if err != nil {
		logger.Warn("Booking confirmation not queued", "booking_id", b.ID, "error", err)
	}
}

func (s *service) sendCancellation(ctx context.Context, b *Booking) {
	if s.notifier == nil {
		return
	}

	receipt, err := s.repo.Receipt(ctx, b.ID)
	if err != nil {
		logger.Warn("Booking receipt unavailable", "booking_id", b.ID, "error", err)
		return
	}

	err = s.notifier.SendCancellation(ctx, receipt.UserEmail, receipt.UserName, receipt.ClassName, receipt.ReferenceCode)
	if err != nil {
		logger.Warn("Cancellation notice not queued", "booking_id", b.ID, "error", err)
	}
}
