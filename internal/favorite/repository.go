package favorite

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Add reports whether a new row was written. Adding an existing favorite is
// not an error.
func (r *repository) Add(ctx context.Context, userID int, kind string, itemID int) (bool, error) {
	query := `
		INSERT INTO favorites (user_id, favoritable_type, favoritable_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, favoritable_type, favoritable_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, userID, kind, itemID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *repository) Remove(ctx context.Context, userID int, kind string, itemID int) (bool, error) {
	query := `
		DELETE FROM favorites
		WHERE user_id = $1 AND favoritable_type = $2 AND favoritable_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, userID, kind, itemID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *repository) Exists(ctx context.Context, userID int, kind string, itemID int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM favorites
			WHERE user_id = $1 AND favoritable_type = $2 AND favoritable_id = $3
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, kind, itemID); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Favorite, error) {
	query := `
		SELECT id, user_id, favoritable_type, favoritable_id, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	var list []Favorite
	if err := r.db.SelectContext(ctx, &list, query, userID); err != nil {
		return nil, err
	}
	return list, nil
}
