package studio

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const studioColumns = `id, name, type, location, description, amenities, price_range, rating, review_count,
	latitude, longitude, image_url, phone, email, hours, created_at`

const instructorColumns = `id, studio_id, name, specialties, certifications, bio, years_experience, image_url, rating`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateStudio(ctx context.Context, s *Studio) (*Studio, error) {
	query := `
		INSERT INTO studios (name, type, location, description, amenities, price_range, rating, review_count,
			latitude, longitude, image_url, phone, email, hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`

	created := *s
	err := r.db.QueryRowxContext(ctx, query,
		s.Name, s.Type, s.Location, s.Description, s.Amenities, s.PriceRange, s.Rating, s.ReviewCount,
		s.Latitude, s.Longitude, s.ImageURL, s.Phone, s.Email, s.Hours,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetAllStudios(ctx context.Context) ([]Studio, error) {
	query := `SELECT ` + studioColumns + ` FROM studios ORDER BY rating DESC, id ASC`

	var studios []Studio
	err := r.db.SelectContext(ctx, &studios, query)
	if err != nil {
		return nil, err
	}

	return studios, nil
}

func (r *repository) GetStudioByID(ctx context.Context, id int) (*Studio, error) {
	query := `SELECT ` + studioColumns + ` FROM studios WHERE id = $1`

	var s Studio
	err := r.db.GetContext(ctx, &s, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudioNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *repository) CreateInstructor(ctx context.Context, in *Instructor) (*Instructor, error) {
	query := `
		INSERT INTO instructors (studio_id, name, specialties, certifications, bio, years_experience, image_url, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	created := *in
	err := r.db.GetContext(ctx, &created.ID, query,
		in.StudioID, in.Name, in.Specialties, in.Certifications, in.Bio, in.YearsExperience, in.ImageURL, in.Rating)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetInstructorsByStudio(ctx context.Context, studioID int) ([]Instructor, error) {
	query := `SELECT ` + instructorColumns + ` FROM instructors WHERE studio_id = $1 ORDER BY rating DESC, id ASC`

	var instructors []Instructor
	err := r.db.SelectContext(ctx, &instructors, query, studioID)
	if err != nil {
		return nil, err
	}

	return instructors, nil
}
