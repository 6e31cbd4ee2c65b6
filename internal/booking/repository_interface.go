package booking

import "context"

type Repository interface {
	Create(ctx context.Context, userID, classID int, referenceCode string) (*Booking, error)
	GetByID(ctx context.Context, id int) (*Booking, error)
	Cancel(ctx context.Context, id int) (*Booking, error)
	ListByUser(ctx context.Context, userID int) ([]Booking, error)
	ListByStudio(ctx context.Context, studioID int, status string) ([]BookingWithDetails, error)
	RecentByStudio(ctx context.Context, studioID, limit int) ([]BookingWithDetails, error)
	Receipt(ctx context.Context, bookingID int) (*Receipt, error)
}
