package studio

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var studioCols = []string{"id", "name", "type", "location", "description", "amenities", "price_range", "rating",
	"review_count", "latitude", "longitude", "image_url", "phone", "email", "hours", "created_at"}

func setupStudioMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewRepository(sqlxDB), mock, func() { sqlxDB.Close() }
}

func TestGetAllStudios(t *testing.T) {
	repo, mock, close := setupStudioMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM studios ORDER BY rating DESC")).
		WillReturnRows(sqlmock.NewRows(studioCols).
			AddRow(1, "ZenFlow Yoga Studio", "Yoga", "Lakeview", "", `{Showers,"Mat Rental"}`, "$$", 4.8, 120, 41.94, -87.65, "", "", "", "", now).
			AddRow(2, "Iron Temple", "Strength", "Logan Square", "", "{}", "$$$", 4.6, 80, 41.92, -87.70, "", "", "", "", now))

	studios, err := repo.GetAllStudios(context.Background())
	require.NoError(t, err)
	require.Len(t, studios, 2)
	assert.Equal(t, pq.StringArray{"Showers", "Mat Rental"}, studios[0].Amenities)
	assert.Empty(t, studios[1].Amenities)
}

func TestGetStudioByIDNotFound(t *testing.T) {
	repo, mock, close := setupStudioMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM studios WHERE id = $1")).
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetStudioByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrStudioNotFound)
}

func TestCreateStudio(t *testing.T) {
	repo, mock, close := setupStudioMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO studios")).
		WithArgs("ZenFlow", "Yoga", "Lakeview", "", sqlmock.AnyArg(), "$$", 4.8, 120, 41.94, -87.65, "", "", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))

	created, err := repo.CreateStudio(context.Background(), &Studio{
		Name: "ZenFlow", Type: "Yoga", Location: "Lakeview", Amenities: pq.StringArray{"Showers"},
		PriceRange: "$$", Rating: 4.8, ReviewCount: 120, Latitude: 41.94, Longitude: -87.65,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, created.ID)
	assert.Equal(t, "ZenFlow", created.Name)
}

func TestInstructors(t *testing.T) {
	repo, mock, close := setupStudioMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO instructors")).
		WithArgs(1, "Maya Chen", sqlmock.AnyArg(), sqlmock.AnyArg(), "", 8, "", 4.9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	in, err := repo.CreateInstructor(ctx, &Instructor{StudioID: 1, Name: "Maya Chen", YearsExperience: 8, Rating: 4.9})
	require.NoError(t, err)
	assert.Equal(t, 5, in.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM instructors WHERE studio_id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "studio_id", "name", "specialties", "certifications", "bio", "years_experience", "image_url", "rating"}).
			AddRow(5, 1, "Maya Chen", "{Vinyasa,Yin}", "{RYT-500}", "", 8, "", 4.9))

	list, err := repo.GetInstructorsByStudio(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pq.StringArray{"Vinyasa", "Yin"}, list[0].Specialties)
}
