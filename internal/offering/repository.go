package offering

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Dates and times leave the database already formatted for string ordering.
const offeringColumns = `c.id, c.studio_id, c.instructor_id, c.name, c.type, c.difficulty, c.description,
	c.duration_minutes, to_char(c.class_date, 'YYYY-MM-DD') AS class_date,
	to_char(c.start_time, 'HH24:MI') AS start_time, c.price_cents, c.current_capacity,
	c.max_capacity, c.image_url`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, o *Offering) (*Offering, error) {
	query := `
		INSERT INTO classes (studio_id, instructor_id, name, type, difficulty, description, duration_minutes,
			class_date, start_time, price_cents, current_capacity, max_capacity, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	created := *o
	err := r.db.GetContext(ctx, &created.ID, query,
		o.StudioID, o.InstructorID, o.Name, o.Type, o.Difficulty, o.Description, o.DurationMinutes,
		o.Date, o.Time, o.PriceCents, o.CurrentCapacity, o.MaxCapacity, o.ImageURL)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) List(ctx context.Context) ([]Offering, error) {
	query := `SELECT ` + offeringColumns + ` FROM classes c ORDER BY c.class_date, c.start_time, c.id`

	var list []Offering
	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) ListByStudio(ctx context.Context, studioID int) ([]Offering, error) {
	query := `SELECT ` + offeringColumns + ` FROM classes c WHERE c.studio_id = $1 ORDER BY c.class_date, c.start_time, c.id`

	var list []Offering
	if err := r.db.SelectContext(ctx, &list, query, studioID); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) Upcoming(ctx context.Context, studioID, limit int) ([]Offering, error) {
	query := `
		SELECT ` + offeringColumns + `
		FROM classes c
		WHERE c.studio_id = $1 AND c.class_date >= CURRENT_DATE
		ORDER BY c.class_date, c.start_time, c.id
		LIMIT $2
	`

	var list []Offering
	if err := r.db.SelectContext(ctx, &list, query, studioID, limit); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Detail, error) {
	query := `
		SELECT ` + offeringColumns + `,
			s.name AS studio_name,
			s.location AS studio_location,
			i.name AS instructor_name
		FROM classes c
		JOIN studios s ON s.id = c.studio_id
		LEFT JOIN instructors i ON i.id = c.instructor_id
		WHERE c.id = $1
	`

	var d Detail
	err := r.db.GetContext(ctx, &d, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	d.fillDerived()
	return &d, nil
}
