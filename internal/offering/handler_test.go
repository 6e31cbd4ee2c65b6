package offering

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, o *Offering) (*Offering, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Offering), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]Offering, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Offering), args.Error(1)
}

func (m *MockRepository) ListByStudio(ctx context.Context, studioID int) ([]Offering, error) {
	args := m.Called(ctx, studioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Offering), args.Error(1)
}

func (m *MockRepository) Upcoming(ctx context.Context, studioID, limit int) ([]Offering, error) {
	args := m.Called(ctx, studioID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Offering), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int) (*Detail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Detail), args.Error(1)
}

func setupRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(NewService(repo))
	router.GET("/api/v1/classes", h.ListClasses)
	router.GET("/api/v1/classes/:id", h.GetClass)
	router.GET("/api/v1/studios/:id/classes", h.ListStudioClasses)
	return router
}

func TestListClassesHandler(t *testing.T) {
	repo := new(MockRepository)
	repo.On("List", mock.Anything).Return(fixture(), nil)
	router := setupRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/classes?type=Yoga&difficulty=Beginner", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got []Offering
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []int{3, 1}, ids(got))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/classes?max_price_cents=cheap", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetClassHandler(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByID", mock.Anything, 1).Return(&Detail{Offering: fixture()[0], StudioName: "ZenFlow"}, nil)
	repo.On("GetByID", mock.Anything, 99).Return(nil, ErrClassNotFound)
	router := setupRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/classes/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"studio_name":"ZenFlow"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/classes/99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListStudioClassesHandler(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListByStudio", mock.Anything, 1).Return(fixture()[:1], nil)
	router := setupRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/studios/1/classes", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
