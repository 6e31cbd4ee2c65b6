package offering

import (
	"context"
	"errors"
)

var ErrClassNotFound = errors.New("class not found")

type Service interface {
	List(ctx context.Context, q Query) ([]Offering, error)
	ListByStudio(ctx context.Context, studioID int) ([]Offering, error)
	Get(ctx context.Context, id int) (*Detail, error)
	Upcoming(ctx context.Context, studioID, limit int) ([]Offering, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// List loads the whole schedule and narrows it with Apply.
func (s *service) List(ctx context.Context, q Query) ([]Offering, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(list, q), nil
}

func (s *service) ListByStudio(ctx context.Context, studioID int) ([]Offering, error) {
	return s.repo.ListByStudio(ctx, studioID)
}

func (s *service) Get(ctx context.Context, id int) (*Detail, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Upcoming(ctx context.Context, studioID, limit int) ([]Offering, error) {
	return s.repo.Upcoming(ctx, studioID, limit)
}
