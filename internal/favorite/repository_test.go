package favorite

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFavoriteMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewRepository(sqlxDB), mock, func() { sqlxDB.Close() }
}

func TestAddFavorite(t *testing.T) {
	repo, mock, close := setupFavoriteMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (user_id, favoritable_type, favoritable_id) DO NOTHING")).
		WithArgs(1, TypeStudio, 3).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).
		WithArgs(1, TypeStudio, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	added, err := repo.Add(context.Background(), 1, TypeStudio, 3)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(context.Background(), 1, TypeStudio, 3)
	require.NoError(t, err)
	assert.False(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveFavorite(t *testing.T) {
	repo, mock, close := setupFavoriteMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites WHERE user_id = $1 AND favoritable_type = $2 AND favoritable_id = $3")).
		WithArgs(1, TypeClass, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.Remove(context.Background(), 1, TypeClass, 7)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestExistsFavorite(t *testing.T) {
	repo, mock, close := setupFavoriteMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(")).
		WithArgs(1, TypeClass, 7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), 1, TypeClass, 7)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListFavoritesByUser(t *testing.T) {
	repo, mock, close := setupFavoriteMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM favorites WHERE user_id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "favoritable_type", "favoritable_id", "created_at"}).
			AddRow(1, 1, TypeStudio, 3, now).
			AddRow(2, 1, TypeClass, 7, now))

	list, err := repo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, TypeClass, list[1].Type)
	assert.Equal(t, 7, list[1].ItemID)
}
