package booking

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingCols = []string{"id", "user_id", "class_id", "status", "payment_status", "amount_cents",
	"reference_code", "created_at", "updated_at"}

const (
	takeSeatSQL   = "UPDATE classes SET current_capacity = current_capacity + 1 WHERE id = $1 AND current_capacity < max_capacity"
	insertSQL     = "INSERT INTO bookings (user_id, class_id, status, payment_status, amount_cents, reference_code)"
	classExistSQL = "SELECT EXISTS(SELECT 1 FROM classes WHERE id = $1)"
	cancelSQL     = "UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3"
	releaseSQL    = "UPDATE classes SET current_capacity = current_capacity - 1 WHERE id = $1 AND current_capacity > 0"
)

func setupBookingMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewRepository(sqlxDB), mock, func() { sqlxDB.Close() }
}

func expectSeatTaken(mock sqlmock.Sqlmock, bookingID, userID, classID int, price int64, ref string) {
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(takeSeatSQL)).
		WithArgs(classID).
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}).AddRow(price))
	mock.ExpectQuery(regexp.QuoteMeta(insertSQL)).
		WithArgs(userID, classID, StatusConfirmed, PaymentPaid, price, ref).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(bookingID, userID, classID, StatusConfirmed, PaymentPaid, price, ref, now, now))
	mock.ExpectCommit()
}

func TestCreateBooking(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	expectSeatTaken(mock, 11, 1, 7, 3500, "FC-1A2B3C4D")

	b, err := repo.Create(context.Background(), 1, 7, "FC-1A2B3C4D")
	require.NoError(t, err)
	assert.Equal(t, 11, b.ID)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, PaymentPaid, b.PaymentStatus)
	assert.Equal(t, int64(3500), b.AmountCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingClassFull(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(takeSeatSQL)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}))
	mock.ExpectQuery(regexp.QuoteMeta(classExistSQL)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	b, err := repo.Create(context.Background(), 1, 7, "FC-1A2B3C4D")
	assert.ErrorIs(t, err, ErrClassFull)
	assert.Nil(t, b)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingClassNotFound(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(takeSeatSQL)).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}))
	mock.ExpectQuery(regexp.QuoteMeta(classExistSQL)).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), 1, 99, "FC-1A2B3C4D")
	assert.ErrorIs(t, err, ErrClassNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingDuplicateReferenceRollsBack(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(takeSeatSQL)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}).AddRow(int64(3500)))
	mock.ExpectQuery(regexp.QuoteMeta(insertSQL)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "bookings_reference_code_key"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), 1, 7, "FC-1A2B3C4D")
	assert.ErrorIs(t, err, ErrDuplicateReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A class at 5 of 8 takes exactly three more bookings.
func TestCreateBookingFillsClassThenRejects(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	for i := 1; i <= 3; i++ {
		expectSeatTaken(mock, 100+i, i, 7, 3500, fmt.Sprintf("FC-0000000%d", i))
	}
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(takeSeatSQL)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}))
	mock.ExpectQuery(regexp.QuoteMeta(classExistSQL)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		_, err := repo.Create(ctx, i, 7, fmt.Sprintf("FC-0000000%d", i))
		require.NoError(t, err)
	}

	_, err := repo.Create(ctx, 4, 7, "FC-00000004")
	assert.ErrorIs(t, err, ErrClassFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBookingByIDNotFound(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
		WithArgs(5).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelBooking(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(cancelSQL)).
		WithArgs(11, StatusCancelled, StatusConfirmed).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(11, 1, 7, StatusCancelled, PaymentPaid, int64(3500), "FC-1A2B3C4D", now, now))
	mock.ExpectExec(regexp.QuoteMeta(releaseSQL)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b, err := repo.Cancel(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b.Status)
	assert.Equal(t, PaymentPaid, b.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingAlreadyCancelled(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(cancelSQL)).
		WithArgs(11, StatusCancelled, StatusConfirmed).
		WillReturnRows(sqlmock.NewRows(bookingCols))
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), 11)
	assert.ErrorIs(t, err, ErrBookingNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingReleaseFailureRollsBack(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(cancelSQL)).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(11, 1, 7, StatusCancelled, PaymentPaid, int64(3500), "FC-1A2B3C4D", now, now))
	mock.ExpectExec(regexp.QuoteMeta(releaseSQL)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), 11)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUserAttachesClass(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	now := time.Now()
	cols := append(append([]string{}, bookingCols...),
		"class_name", "class_type", "class_date", "class_time", "studio_id", "studio_name")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.user_id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(11, 1, 7, StatusConfirmed, PaymentPaid, int64(3500), "FC-1A2B3C4D", now, now,
				"Morning Vinyasa Flow", "Yoga", "2025-11-20", "07:00", 1, "ZenFlow Yoga Studio"))

	bookings, err := repo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	require.NotNil(t, bookings[0].Class)
	assert.Equal(t, 7, bookings[0].Class.ID)
	assert.Equal(t, "ZenFlow Yoga Studio", bookings[0].Class.StudioName)
	assert.Equal(t, "07:00", bookings[0].Class.Time)
}

var detailCols = append(append([]string{}, bookingCols...),
	"user_name", "user_email", "class_name", "class_date", "class_time")

func TestListByStudioWithStatus(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.studio_id = $1 AND b.status = $2")).
		WithArgs(1, StatusCancelled).
		WillReturnRows(sqlmock.NewRows(detailCols).
			AddRow(12, 2, 7, StatusCancelled, PaymentPaid, int64(3500), "FC-22222222", now, now,
				"Sarah Johnson", "sarah@example.com", "Morning Vinyasa Flow", "2025-11-20", "07:00"))

	list, err := repo.ListByStudio(context.Background(), 1, StatusCancelled)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sarah Johnson", list[0].UserName)
	assert.Equal(t, StatusCancelled, list[0].Status)
}

func TestListByStudioWithoutStatus(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.studio_id = $1 ORDER BY b.created_at DESC")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(detailCols))

	list, err := repo.ListByStudio(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentByStudio(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2")).
		WithArgs(1, 10).
		WillReturnRows(sqlmock.NewRows(detailCols))

	_, err := repo.RecentByStudio(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceipt(t *testing.T) {
	repo, mock, close := setupBookingMock(t)
	defer close()

	starts := time.Date(2025, 11, 20, 7, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("(c.class_date + c.start_time) AS starts_at")).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"user_email", "user_name", "class_name", "studio_name", "reference_code", "starts_at"}).
			AddRow("sarah@example.com", "Sarah Johnson", "Morning Vinyasa Flow", "ZenFlow Yoga Studio", "FC-1A2B3C4D", starts))

	r, err := repo.Receipt(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, "sarah@example.com", r.UserEmail)
	assert.True(t, starts.Equal(r.StartsAt))
}
