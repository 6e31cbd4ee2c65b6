package client

import (
	"context"

	"fitconnect/internal/offering"
	"fitconnect/internal/studio"
)

// Classes runs the class search on the API. It gives up with ErrTimeout
// after ReadTimeout.
func (c *Client) Classes(ctx context.Context, q offering.Query) ([]offering.Offering, error) {
	return guard(ctx, c.opts.ReadTimeout, func(ctx context.Context) ([]offering.Offering, error) {
		return c.backend.Classes(ctx, q)
	})
}

func (c *Client) Class(ctx context.Context, id int) (*offering.Detail, error) {
	return guard(ctx, c.opts.ReadTimeout, func(ctx context.Context) (*offering.Detail, error) {
		return c.backend.Class(ctx, id)
	})
}

func (c *Client) Studios(ctx context.Context) ([]studio.StudioWithDistance, error) {
	return guard(ctx, c.opts.ReadTimeout, func(ctx context.Context) ([]studio.StudioWithDistance, error) {
		return c.backend.Studios(ctx)
	})
}
