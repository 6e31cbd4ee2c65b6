package studio

import (
	"time"

	"fitconnect/internal/geo"

	"github.com/lib/pq"
)

type Studio struct {
	ID          int            `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Type        string         `db:"type" json:"type"`
	Location    string         `db:"location" json:"location"`
	Description string         `db:"description" json:"description"`
	Amenities   pq.StringArray `db:"amenities" json:"amenities"`
	PriceRange  string         `db:"price_range" json:"price_range"`
	Rating      float64        `db:"rating" json:"rating"`
	ReviewCount int            `db:"review_count" json:"review_count"`
	Latitude    float64        `db:"latitude" json:"latitude"`
	Longitude   float64        `db:"longitude" json:"longitude"`
	ImageURL    string         `db:"image_url" json:"image_url"`
	Phone       string         `db:"phone" json:"phone"`
	Email       string         `db:"email" json:"email"`
	Hours       string         `db:"hours" json:"hours"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// StudioWithDistance is a studio ranked against a caller position.
type StudioWithDistance struct {
	Studio
	Distance      *float64 `json:"distance,omitempty"`
	Unit          string   `json:"unit,omitempty"`
	DistanceLabel string   `json:"distance_label,omitempty"`
	Nearby        bool     `json:"nearby"`
}

type Instructor struct {
	ID              int            `db:"id" json:"id"`
	StudioID        int            `db:"studio_id" json:"studio_id"`
	Name            string         `db:"name" json:"name"`
	Specialties     pq.StringArray `db:"specialties" json:"specialties"`
	Certifications  pq.StringArray `db:"certifications" json:"certifications"`
	Bio             string         `db:"bio" json:"bio"`
	YearsExperience int            `db:"years_experience" json:"years_experience"`
	ImageURL        string         `db:"image_url" json:"image_url"`
	Rating          float64        `db:"rating" json:"rating"`
}

// NearbyQuery positions the caller. Without coordinates studios come back
// unranked. Radius and the reported distances use Unit, miles by default.
type NearbyQuery struct {
	Latitude  *float64
	Longitude *float64
	Radius    float64
	Unit      string
}

func (q NearbyQuery) unit() string {
	if q.Unit == geo.UnitKm {
		return geo.UnitKm
	}
	return geo.UnitMiles
}

func (q NearbyQuery) hasPosition() bool {
	return q.Latitude != nil && q.Longitude != nil
}
