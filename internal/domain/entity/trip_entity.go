package entity

import "time"

// Trip sub-records are persisted as JSONB columns; the trip row is always
// read and written as a whole document.

type VisitedPlace struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Rating      int    `json:"rating"`
}

type Accommodation struct {
	Name string  `json:"name"`
	Type string  `json:"type,omitempty"`
	Cost float64 `json:"cost"`
}

type Transportation struct {
	Type string  `json:"type"`
	Cost float64 `json:"cost"`
}

type BudgetItem struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Photo references an uploaded object: the public URL plus the opaque
// storage id used to destroy it later.
type Photo struct {
	URL      string `json:"url"`
	ObjectID string `json:"objectId"`
}

// TripOwner is the joined owner identity attached to public trip listings.
type TripOwner struct {
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Trip is exclusively owned by one user. The four collections are enforced
// non-empty on create and on full update.
type Trip struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	Country         string           `json:"country"`
	StartDate       time.Time        `json:"startDate"`
	EndDate         time.Time        `json:"endDate"`
	VisitedPlaces   []VisitedPlace   `json:"visitedPlaces"`
	Accommodations  []Accommodation  `json:"accommodations"`
	Transportations []Transportation `json:"transportations"`
	BudgetItems     []BudgetItem     `json:"budgetItems"`
	WeatherNotes    string           `json:"weatherNotes,omitempty"`
	ClothingNotes   string           `json:"clothingNotes,omitempty"`
	Photos          []Photo          `json:"photos"`
	CreatedAt       time.Time        `json:"createdAt"`

	// Populated by queries that join the owner; never persisted.
	Owner *TripOwner `json:"owner,omitempty"`
}
