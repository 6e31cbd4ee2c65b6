package favorite

import (
	"context"
	"errors"
	"fmt"

	"fitconnect/internal/logger"
	"fitconnect/internal/metrics"
)

var ErrInvalidType = errors.New("favorite type must be studio or class")

type Service interface {
	List(ctx context.Context, userID int) (*Set, error)
	Add(ctx context.Context, userID int, kind string, itemID int) error
	Remove(ctx context.Context, userID int, kind string, itemID int) error
	Toggle(ctx context.Context, userID int, kind string, itemID int) (bool, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validType(kind string) bool {
	return kind == TypeStudio || kind == TypeClass
}

func (s *service) List(ctx context.Context, userID int) (*Set, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	set := &Set{Studios: []int{}, Classes: []int{}}
	for _, f := range list {
		switch f.Type {
		case TypeStudio:
			set.Studios = append(set.Studios, f.ItemID)
		case TypeClass:
			set.Classes = append(set.Classes, f.ItemID)
		}
	}
	return set, nil
}

func (s *service) Add(ctx context.Context, userID int, kind string, itemID int) error {
	if !validType(kind) {
		return ErrInvalidType
	}

	added, err := s.repo.Add(ctx, userID, kind, itemID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	if added {
		metrics.RecordFavoriteToggle(kind, true)
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID int, kind string, itemID int) error {
	if !validType(kind) {
		return ErrInvalidType
	}

	removed, err := s.repo.Remove(ctx, userID, kind, itemID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if removed {
		metrics.RecordFavoriteToggle(kind, false)
	}
	return nil
}

// Toggle removes the favorite when present and adds it otherwise. It returns
// whether the item is a favorite afterwards.
func (s *service) Toggle(ctx context.Context, userID int, kind string, itemID int) (bool, error) {
	if !validType(kind) {
		return false, ErrInvalidType
	}

	exists, err := s.repo.Exists(ctx, userID, kind, itemID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}

	if exists {
		if err := s.Remove(ctx, userID, kind, itemID); err != nil {
			return true, err
		}
		logger.Debug("Favorite removed", "user_id", userID, "type", kind, "id", itemID)
		return false, nil
	}

	if err := s.Add(ctx, userID, kind, itemID); err != nil {
		return false, err
	}
	logger.Debug("Favorite added", "user_id", userID, "type", kind, "id", itemID)
	return true, nil
}
