package user

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountCols = []string{"id", "email", "password_hash", "provider", "provider_subject", "full_name", "role", "created_at", "updated_at"}

var profileCols = []string{"id", "email", "full_name", "phone", "avatar_url", "role", "studio_id", "member_since", "created_at", "updated_at"}

func setupUserMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func TestCreateAndFindAccount(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts (email, password_hash, full_name, role)")).
		WithArgs("a@example.com", "hash", "Alice", "user").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow(1, "a@example.com", "hash", "email", nil, "Alice", "user", now, now))

	acc, err := repo.CreateAccount(ctx, "a@example.com", "hash", "Alice", "user")
	require.NoError(t, err)
	require.Equal(t, 1, acc.ID)
	assert.Equal(t, "hash", acc.PasswordHash.String)
	assert.False(t, acc.ProviderSubject.Valid)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE email = $1")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow(1, "a@example.com", "hash", "email", nil, "Alice", "user", now, now))

	found, err := repo.FindAccountByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", found.FullName)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.EmailExists(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAccountNotFound(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindAccountByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFindAccountByProvider(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE provider = $1 AND provider_subject = $2")).
		WithArgs("github", "12345").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow(3, "gh@example.com", nil, "github", "12345", "Octo", "user", now, now))

	acc, err := repo.FindAccountByProvider(context.Background(), "github", "12345")
	require.NoError(t, err)
	assert.False(t, acc.PasswordHash.Valid)
	assert.Equal(t, "12345", acc.ProviderSubject.String)
}

func TestUpdatePassword(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET password_hash = $2")).
		WithArgs(1, "newhash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET password_hash = $2")).
		WithArgs(2, "newhash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdatePassword(ctx, 1, "newhash"))
	assert.ErrorIs(t, repo.UpdatePassword(ctx, 2, "newhash"), ErrUserNotFound)
}

func TestCreateProfileIsIdempotent(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	now := time.Now()
	p := &User{ID: 5, Email: "p@example.com", FullName: "Pat", AvatarURL: DefaultAvatarURL, Role: "user", MemberSince: now}

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO NOTHING")).
		WithArgs(5, "p@example.com", "Pat", "", DefaultAvatarURL, "user", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(5, "p@example.com", "Pat Existing", "", DefaultAvatarURL, "user", nil, now, now, now))

	got, err := repo.CreateProfile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Pat Existing", got.FullName)
	assert.Nil(t, got.StudioID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileNotFound(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(8).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetProfile(context.Background(), 8)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestUpdateProfile(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	now := time.Now()
	name := "New Name"

	mock.ExpectQuery(regexp.QuoteMeta("full_name = COALESCE($2, full_name)")).
		WithArgs(5, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(5, "p@example.com", name, "555-0100", DefaultAvatarURL, "studio_owner", 2, now, now, now))

	got, err := repo.UpdateProfile(context.Background(), 5, UpdateProfileRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, got.FullName)
	require.NotNil(t, got.StudioID)
	assert.Equal(t, 2, *got.StudioID)
}
