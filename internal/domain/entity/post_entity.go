package entity

import "time"

// Post is a free-standing community item with no ownership or auth linkage.
// Read-only from the API's perspective.
type Post struct {
	ID         string    `json:"id"`
	Comment    string    `json:"comment"`
	AuthorName string    `json:"authorName"`
	ImageURL   string    `json:"imageUrl"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"`
}
