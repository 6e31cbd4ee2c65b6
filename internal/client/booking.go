package client

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitconnect/internal/appstate"
	"fitconnect/internal/backend"
	"fitconnect/internal/booking"
)

const localReferencePrefix = "LOCAL-"

type bookInput struct {
	ClassID int `validate:"required,min=1"`
}

// BookClass books a class for the signed-in user. Refusals from the API
// (class full, unknown class) leave the cache as it was. When the API cannot
// be reached and the policy is FailOpen, a provisional booking with a negative
// id and a LOCAL- reference is cached and returned along with the error.
func (c *Client) BookClass(ctx context.Context, classID int) (*booking.Booking, error) {
	s, err := c.signedIn()
	if err != nil {
		return nil, err
	}
	if err := validateStruct(bookInput{ClassID: classID}); err != nil {
		return nil, err
	}

	b, err := c.backend.CreateBooking(ctx, classID)
	if err == nil {
		c.store.Dispatch(appstate.AddBooking{Booking: *b, Gen: s.Generation})
		return b, nil
	}

	if !c.fallback("book_class", err) {
		return nil, err
	}

	now := time.Now().UTC()
	provisional := booking.Booking{
		ID:            int(c.localID.Add(-1)),
		UserID:        s.User.ID,
		ClassID:       classID,
		Status:        booking.StatusConfirmed,
		PaymentStatus: booking.PaymentPending,
		ReferenceCode: localReference(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	next := c.store.Dispatch(appstate.AddBooking{Booking: provisional, Gen: s.Generation})
	if _, ok := next.Booking(provisional.ID); !ok {
		return nil, err
	}
	return &provisional, err
}

// CancelBooking cancels one of the signed-in user's bookings. Provisional
// bookings only exist locally and are cancelled without a remote call.
func (c *Client) CancelBooking(ctx context.Context, bookingID int) (*booking.Booking, error) {
	s, err := c.signedIn()
	if err != nil {
		return nil, err
	}
	gen := s.Generation

	if bookingID < 0 {
		next := c.store.Dispatch(appstate.CancelBooking{ID: bookingID, Gen: gen})
		b, ok := next.Booking(bookingID)
		if !ok {
			return nil, backend.ErrNotFound
		}
		return &b, nil
	}

	b, err := c.backend.CancelBooking(ctx, bookingID)
	if err == nil {
		c.store.Dispatch(appstate.CancelBooking{ID: bookingID, Gen: gen})
		return b, nil
	}

	if !c.fallback("cancel_booking", err) {
		return nil, err
	}

	next := c.store.Dispatch(appstate.CancelBooking{ID: bookingID, Gen: gen})
	if cached, ok := next.Booking(bookingID); ok {
		return &cached, err
	}
	return nil, err
}

func localReference() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return localReferencePrefix + strings.ToUpper(hex[:8])
}
