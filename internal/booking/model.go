package booking

import (
	"time"
)

const (
	StatusConfirmed = "confirmed"
	StatusWaitlist  = "waitlist"
	StatusCancelled = "cancelled"
)

const (
	PaymentPaid     = "paid"
	PaymentPending  = "pending"
	PaymentRefunded = "refunded"
)

type Booking struct {
	ID            int           `db:"id" json:"id"`
	UserID        int           `db:"user_id" json:"user_id"`
	ClassID       int           `db:"class_id" json:"class_id"`
	Status        string        `db:"status" json:"status"`
	PaymentStatus string        `db:"payment_status" json:"payment_status"`
	AmountCents   int64         `db:"amount_cents" json:"amount_cents"`
	ReferenceCode string        `db:"reference_code" json:"reference_code"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
	Class         *ClassSummary `db:"-" json:"class,omitempty"`
}

func (b *Booking) IsActive() bool {
	return b.Status == StatusConfirmed
}

// ClassSummary is the slice of a class shown next to a user's booking.
type ClassSummary struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	StudioID   int    `json:"studio_id"`
	StudioName string `json:"studio_name"`
}

// BookingWithDetails is a booking row as studio staff see it.
type BookingWithDetails struct {
	Booking
	UserName  string `db:"user_name" json:"user_name"`
	UserEmail string `db:"user_email" json:"user_email"`
	ClassName string `db:"class_name" json:"class_name"`
	ClassDate string `db:"class_date" json:"class_date"`
	ClassTime string `db:"class_time" json:"class_time"`
}

// Receipt carries what the confirmation and cancellation e-mails need.
type Receipt struct {
	UserEmail     string    `db:"user_email"`
	UserName      string    `db:"user_name"`
	ClassName     string    `db:"class_name"`
	StudioName    string    `db:"studio_name"`
	ReferenceCode string    `db:"reference_code"`
	StartsAt      time.Time `db:"starts_at"`
}

// BookRequest is the public booking payload. The reference code is always
// generated by the server.
type BookRequest struct {
	ClassID int `json:"class_id" binding:"required,min=1" example:"7"`
}
