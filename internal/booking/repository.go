package booking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrBookingNotFound    = errors.New("booking not found")
	ErrBookingNotActive   = errors.New("booking already cancelled")
	ErrClassNotFound      = errors.New("class not found")
	ErrClassFull          = errors.New("class full")
	ErrDuplicateReference = errors.New("reference code already used")
)

const bookingColumns = `id, user_id, class_id, status, payment_status, amount_cents, reference_code, created_at, updated_at`

const detailColumns = `b.id, b.user_id, b.class_id, b.status, b.payment_status, b.amount_cents, b.reference_code,
	b.created_at, b.updated_at, a.full_name AS user_name, a.email AS user_email, c.name AS class_name,
	to_char(c.class_date, 'YYYY-MM-DD') AS class_date, to_char(c.start_time, 'HH24:MI') AS class_time`

const uniqueViolation = "23505"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create takes a seat and writes the booking in one transaction. The seat is
// taken by a conditional increment, so two callers can never both get the
// last spot.
func (r *repository) Create(ctx context.Context, userID, classID int, referenceCode string) (*Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var price int64
	err = tx.GetContext(ctx, &price, `
		UPDATE classes
		SET current_capacity = current_capacity + 1
		WHERE id = $1 AND current_capacity < max_capacity
		RETURNING price_cents
	`, classID)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM classes WHERE id = $1)`, classID); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrClassNotFound
		}
		return nil, ErrClassFull
	}
	if err != nil {
		return nil, err
	}

	var booking Booking
	err = tx.GetContext(ctx, &booking, `
		INSERT INTO bookings (user_id, class_id, status, payment_status, amount_cents, reference_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+bookingColumns,
		userID, classID, StatusConfirmed, PaymentPaid, price, referenceCode)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateReference
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

// Cancel flips a confirmed booking to cancelled and gives its seat back. The
// row is kept.
func (r *repository) Cancel(ctx context.Context, id int) (*Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var booking Booking
	err = tx.GetContext(ctx, &booking, `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING `+bookingColumns,
		id, StatusCancelled, StatusConfirmed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotActive
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE classes
		SET current_capacity = current_capacity - 1
		WHERE id = $1 AND current_capacity > 0
	`, booking.ClassID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &booking, nil
}

type userBookingRow struct {
	Booking
	ClassName  string `db:"class_name"`
	ClassType  string `db:"class_type"`
	ClassDate  string `db:"class_date"`
	ClassTime  string `db:"class_time"`
	StudioID   int    `db:"studio_id"`
	StudioName string `db:"studio_name"`
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Booking, error) {
	query := `
		SELECT b.id, b.user_id, b.class_id, b.status, b.payment_status, b.amount_cents, b.reference_code,
			b.created_at, b.updated_at, c.name AS class_name, c.type AS class_type,
			to_char(c.class_date, 'YYYY-MM-DD') AS class_date, to_char(c.start_time, 'HH24:MI') AS class_time,
			c.studio_id, s.name AS studio_name
		FROM bookings b
		JOIN classes c ON c.id = b.class_id
		JOIN studios s ON s.id = c.studio_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, b.id DESC
	`

	var rows []userBookingRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	bookings := make([]Booking, 0, len(rows))
	for _, row := range rows {
		b := row.Booking
		b.Class = &ClassSummary{
			ID:         row.ClassID,
			Name:       row.ClassName,
			Type:       row.ClassType,
			Date:       row.ClassDate,
			Time:       row.ClassTime,
			StudioID:   row.StudioID,
			StudioName: row.StudioName,
		}
		bookings = append(bookings, b)
	}

	return bookings, nil
}

// ListByStudio returns every booking for the studio's classes, newest first.
// An empty status means no filter.
func (r *repository) ListByStudio(ctx context.Context, studioID int, status string) ([]BookingWithDetails, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM bookings b
		JOIN accounts a ON a.id = b.user_id
		JOIN classes c ON c.id = b.class_id
		WHERE c.studio_id = $1`
	args := []any{studioID}

	if status != "" {
		query += ` AND b.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY b.created_at DESC, b.id DESC`

	var list []BookingWithDetails
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) RecentByStudio(ctx context.Context, studioID, limit int) ([]BookingWithDetails, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM bookings b
		JOIN accounts a ON a.id = b.user_id
		JOIN classes c ON c.id = b.class_id
		WHERE c.studio_id = $1
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $2
	`

	var list []BookingWithDetails
	if err := r.db.SelectContext(ctx, &list, query, studioID, limit); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) Receipt(ctx context.Context, bookingID int) (*Receipt, error) {
	query := `
		SELECT a.email AS user_email, a.full_name AS user_name, c.name AS class_name,
			s.name AS studio_name, b.reference_code, (c.class_date + c.start_time) AS starts_at
		FROM bookings b
		JOIN accounts a ON a.id = b.user_id
		JOIN classes c ON c.id = b.class_id
		JOIN studios s ON s.id = c.studio_id
		WHERE b.id = $1
	`

	var receipt Receipt
	err := r.db.GetContext(ctx, &receipt, query, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	return &receipt, nil
}
