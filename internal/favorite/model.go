package favorite

import "time"

const (
	TypeStudio = "studio"
	TypeClass  = "class"
)

type Favorite struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Type      string    `db:"favoritable_type" json:"favoritable_type"`
	ItemID    int       `db:"favoritable_id" json:"favoritable_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Set holds a user's favorites as two ID lists.
type Set struct {
	Studios []int `json:"studios"`
	Classes []int `json:"classes"`
}

type ToggleRequest struct {
	Type string `json:"type" binding:"required,oneof=studio class" example:"studio"`
	ID   int    `json:"id" binding:"required,min=1" example:"3"`
}

type ToggleResponse struct {
	Type      string `json:"type"`
	ID        int    `json:"id"`
	Favorited bool   `json:"favorited"`
}
