package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitconnect/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const dateLayout = "2006-01-02"

var ErrAlreadySeeded = errors.New("database already has studios; rerun with -clear to replace them")

type Fixtures struct {
	Studios     []StudioFixture     `json:"studios"`
	Instructors []InstructorFixture `json:"instructors"`
	Classes     []ClassFixture      `json:"classes"`
}

type StudioFixture struct {
	Ref         int      `json:"ref"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Amenities   []string `json:"amenities"`
	PriceRange  string   `json:"price_range"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	ImageURL    string   `json:"image_url"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	Hours       string   `json:"hours"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
}

type InstructorFixture struct {
	Ref             int      `json:"ref"`
	StudioRef       int      `json:"studio_ref"`
	Name            string   `json:"name"`
	Specialties     []string `json:"specialties"`
	Certifications  []string `json:"certifications"`
	Bio             string   `json:"bio"`
	YearsExperience int      `json:"years_experience"`
	ImageURL        string   `json:"image_url"`
	Rating          float64  `json:"rating"`
}

type ClassFixture struct {
	Ref             int    `json:"ref"`
	StudioRef       int    `json:"studio_ref"`
	InstructorRef   int    `json:"instructor_ref"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Difficulty      string `json:"difficulty"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	PriceCents      int64  `json:"price_cents"`
	CurrentCapacity int    `json:"current_capacity"`
	MaxCapacity     int    `json:"max_capacity"`
	ImageURL        string `json:"image_url"`
}

// Summary counts the rows a seed run wrote.
type Summary struct {
	Studios     int
	Instructors int
	Classes     int
}

func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &f, nil
}

// RebaseDates shifts every class date by the same number of days so that the
// earliest one lands on start. Relative spacing is preserved.
func (f *Fixtures) RebaseDates(start time.Time) error {
	var earliest time.Time
	for _, c := range f.Classes {
		d, err := time.Parse(dateLayout, c.Date)
		if err != nil {
			return fmt.Errorf("class %d: bad date %q: %w", c.Ref, c.Date, err)
		}
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
	}
	if earliest.IsZero() {
		return nil
	}

	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	days := int(start.Sub(earliest).Hours() / 24)
	for i := range f.Classes {
		d, _ := time.Parse(dateLayout, f.Classes[i].Date)
		f.Classes[i].Date = d.AddDate(0, 0, days).Format(dateLayout)
	}
	return nil
}

// Seed writes the fixtures in one transaction, translating fixture refs into
// the ids the database assigns. Without wipe it refuses to touch a database
// that already has studios.
func Seed(ctx context.Context, db *sqlx.DB, f *Fixtures, wipe bool) (*Summary, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if wipe {
		if _, err := tx.ExecContext(ctx, `TRUNCATE favorites, bookings, classes, instructors, studios RESTART IDENTITY CASCADE`); err != nil {
			return nil, fmt.Errorf("clear tables: %w", err)
		}
		logger.Info("Cleared catalog tables")
	} else {
		var seeded bool
		if err := tx.GetContext(ctx, &seeded, `SELECT EXISTS(SELECT 1 FROM studios)`); err != nil {
			return nil, fmt.Errorf("check studios: %w", err)
		}
		if seeded {
			return nil, ErrAlreadySeeded
		}
	}

	summary := &Summary{}
	studioIDs := make(map[int]int, len(f.Studios))
	for _, s := range f.Studios {
		var id int
		err := tx.GetContext(ctx, &id, `
			INSERT INTO studios (name, type, location, description, amenities, price_range, rating,
				review_count, latitude, longitude, image_url, phone, email, hours)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id`,
			s.Name, s.Type, s.Location, s.Description, pq.Array(s.Amenities), s.PriceRange, s.Rating,
			s.ReviewCount, s.Latitude, s.Longitude, s.ImageURL, s.Phone, s.Email, s.Hours)
		if err != nil {
			return nil, fmt.Errorf("insert studio %q: %w", s.Name, err)
		}
		studioIDs[s.Ref] = id
		summary.Studios++
	}

	instructorIDs := make(map[int]int, len(f.Instructors))
	for _, in := range f.Instructors {
		studioID, ok := studioIDs[in.StudioRef]
		if !ok {
			return nil, fmt.Errorf("instructor %q: unknown studio ref %d", in.Name, in.StudioRef)
		}
		var id int
		err := tx.GetContext(ctx, &id, `
			INSERT INTO instructors (studio_id, name, specialties, certifications, bio, years_experience, image_url, rating)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			studioID, in.Name, pq.Array(in.Specialties), pq.Array(in.Certifications), in.Bio,
			in.YearsExperience, in.ImageURL, in.Rating)
		if err != nil {
			return nil, fmt.Errorf("insert instructor %q: %w", in.Name, err)
		}
		instructorIDs[in.Ref] = id
		summary.Instructors++
	}

	for _, c := range f.Classes {
		studioID, ok := studioIDs[c.StudioRef]
		if !ok {
			return nil, fmt.Errorf("class %q: unknown studio ref %d", c.Name, c.StudioRef)
		}
		var instructorID *int
		if id, ok := instructorIDs[c.InstructorRef]; ok {
			instructorID = &id
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO classes (studio_id, instructor_id, name, type, difficulty, description, duration_minutes,
				class_date, start_time, price_cents, current_capacity, max_capacity, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			studioID, instructorID, c.Name, c.Type, c.Difficulty, c.Description, c.DurationMinutes,
			c.Date, c.Time, c.PriceCents, c.CurrentCapacity, c.MaxCapacity, c.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("insert class %q: %w", c.Name, err)
		}
		summary.Classes++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return summary, nil
}
