package client

import (
	"context"

	"fitconnect/internal/appstate"
	"fitconnect/internal/favorite"
)

type favoriteInput struct {
	Kind string `validate:"required,oneof=studio class"`
	ID   int    `validate:"required,min=1"`
}

// ToggleFavorite flips a studio or class in or out of the user's favorites
// and reports whether it is a favorite afterwards. Failure handling follows
// the same policy as bookings.
func (c *Client) ToggleFavorite(ctx context.Context, kind string, id int) (bool, error) {
	s, err := c.signedIn()
	if err != nil {
		return false, err
	}
	if err := validateStruct(favoriteInput{Kind: kind, ID: id}); err != nil {
		return false, err
	}

	favorited, err := c.backend.ToggleFavorite(ctx, kind, id)
	if err == nil {
		c.store.Dispatch(appstate.SetFavorite{Kind: kind, ID: id, Favorited: favorited, Gen: s.Generation})
		return favorited, nil
	}

	if !c.fallback("toggle_favorite", err) {
		return false, err
	}

	next := c.store.Dispatch(appstate.ToggleFavorite{Kind: kind, ID: id, Gen: s.Generation})
	if kind == favorite.TypeStudio {
		return next.IsStudioFavorited(id), err
	}
	return next.IsClassFavorited(id), err
}
