package offering

const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

const (
	StatusFull        = "full"
	StatusFillingFast = "filling-fast"
	StatusAvailable   = "available"

	fillingFastSpots = 3
)

// Offering is a scheduled class. Date is YYYY-MM-DD and Time is HH:MM, so
// both order correctly as strings.
type Offering struct {
	ID              int    `db:"id" json:"id"`
	StudioID        int    `db:"studio_id" json:"studio_id"`
	InstructorID    *int   `db:"instructor_id" json:"instructor_id,omitempty"`
	Name            string `db:"name" json:"name"`
	Type            string `db:"type" json:"type"`
	Difficulty      string `db:"difficulty" json:"difficulty"`
	Description     string `db:"description" json:"description"`
	DurationMinutes int    `db:"duration_minutes" json:"duration_minutes"`
	Date            string `db:"class_date" json:"date"`
	Time            string `db:"start_time" json:"time"`
	PriceCents      int64  `db:"price_cents" json:"price_cents"`
	CurrentCapacity int    `db:"current_capacity" json:"current_capacity"`
	MaxCapacity     int    `db:"max_capacity" json:"max_capacity"`
	ImageURL        string `db:"image_url" json:"image_url"`
}

func (o *Offering) AvailableSpots() int {
	spots := o.MaxCapacity - o.CurrentCapacity
	if spots < 0 {
		return 0
	}
	return spots
}

func (o *Offering) IsFull() bool {
	return o.AvailableSpots() == 0
}

func (o *Offering) Status() string {
	switch spots := o.AvailableSpots(); {
	case spots == 0:
		return StatusFull
	case spots <= fillingFastSpots:
		return StatusFillingFast
	default:
		return StatusAvailable
	}
}

// Detail is an offering with the names of its studio and instructor.
type Detail struct {
	Offering
	StudioName     string  `db:"studio_name" json:"studio_name"`
	StudioLocation string  `db:"studio_location" json:"studio_location"`
	InstructorName *string `db:"instructor_name" json:"instructor_name,omitempty"`
	AvailableSpots int     `db:"-" json:"available_spots"`
	Status         string  `db:"-" json:"status"`
}

func (d *Detail) fillDerived() {
	d.AvailableSpots = d.Offering.AvailableSpots()
	d.Status = d.Offering.Status()
}
