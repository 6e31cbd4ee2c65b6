package favorite

import "context"

type Repository interface {
	Add(ctx context.Context, userID int, kind string, itemID int) (bool, error)
	Remove(ctx context.Context, userID int, kind string, itemID int) (bool, error)
	Exists(ctx context.Context, userID int, kind string, itemID int) (bool, error)
	ListByUser(ctx context.Context, userID int) ([]Favorite, error)
}
