package offering

import "context"

type Repository interface {
	Create(ctx context.Context, o *Offering) (*Offering, error)
	List(ctx context.Context) ([]Offering, error)
	ListByStudio(ctx context.Context, studioID int) ([]Offering, error)
	Upcoming(ctx context.Context, studioID, limit int) ([]Offering, error)
	GetByID(ctx context.Context, id int) (*Detail, error)
}
