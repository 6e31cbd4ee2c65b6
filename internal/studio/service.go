package studio

import (
	"context"
	"errors"
	"sort"

	"fitconnect/internal/geo"
)

var ErrStudioNotFound = errors.New("studio not found")

type Service interface {
	ListStudios(ctx context.Context, q NearbyQuery) ([]StudioWithDistance, error)
	GetStudio(ctx context.Context, id int) (*Studio, error)
	GetInstructors(ctx context.Context, studioID int) ([]Instructor, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListStudios(ctx context.Context, q NearbyQuery) ([]StudioWithDistance, error) {
	studios, err := s.repo.GetAllStudios(ctx)
	if err != nil {
		return nil, err
	}

	return RankByDistance(studios, q), nil
}

// RankByDistance annotates each studio with its distance from the query
// position, drops those outside the radius and orders the rest closest first.
// Without a position the input order is kept.
func RankByDistance(studios []Studio, q NearbyQuery) []StudioWithDistance {
	result := make([]StudioWithDistance, 0, len(studios))

	if !q.hasPosition() {
		for _, st := range studios {
			result = append(result, StudioWithDistance{Studio: withArea(st)})
		}
		return result
	}

	unit := q.unit()
	for _, st := range studios {
		miles := geo.DistanceMiles(*q.Latitude, *q.Longitude, st.Latitude, st.Longitude)
		d := geo.Distance(unit, *q.Latitude, *q.Longitude, st.Latitude, st.Longitude)
		if q.Radius > 0 && !geo.WithinRadius(d, q.Radius) {
			continue
		}
		result = append(result, StudioWithDistance{
			Studio:        withArea(st),
			Distance:      &d,
			Unit:          unit,
			DistanceLabel: geo.FormatDistanceIn(d, unit),
			Nearby:        geo.IsNearby(miles),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return *result[i].Distance < *result[j].Distance
	})
	return result
}

// withArea fills a missing location with a label for the studio's coordinates.
func withArea(st Studio) Studio {
	if st.Location == "" && (st.Latitude != 0 || st.Longitude != 0) {
		st.Location = geo.Describe(st.Latitude, st.Longitude)
	}
	return st
}

func (s *service) GetStudio(ctx context.Context, id int) (*Studio, error) {
	st, err := s.repo.GetStudioByID(ctx, id)
	if err != nil {
		return nil, err
	}
	labelled := withArea(*st)
	return &labelled, nil
}

func (s *service) GetInstructors(ctx context.Context, studioID int) ([]Instructor, error) {
	if _, err := s.repo.GetStudioByID(ctx, studioID); err != nil {
		return nil, err
	}
	return s.repo.GetInstructorsByStudio(ctx, studioID)
}
