package validation

import (
	"fmt"
	"strings"
	"time"
)

// Trip payloads arrive as a JSON document inside a multipart form, so the
// usual struct-tag binding cannot cover them. The rule set below is evaluated
// exhaustively: every violated rule is reported, not just the first, so one
// response enumerates every problem.

type TravelPeriod struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type VisitedPlace struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rating      int    `json:"rating"`
}

type Accommodation struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
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

// TripPayload is the inbound trip document shared by create and full update.
type TripPayload struct {
	Country         string           `json:"country"`
	TravelPeriod    TravelPeriod     `json:"travelPeriod"`
	VisitedPlaces   []VisitedPlace   `json:"visitedPlaces"`
	Accommodations  []Accommodation  `json:"accommodations"`
	Transportations []Transportation `json:"transportations"`
	BudgetItems     []BudgetItem     `json:"budgetItems"`
	WeatherNotes    string           `json:"weatherNotes"`
	ClothingNotes   string           `json:"clothingNotes"`
}

// FieldErrors aggregates rule violations keyed by field path.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for k, v := range e {
		parts = append(parts, k+" "+v)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "2006/01/02", "01/02/2006"}

// ParseDate accepts ISO-8601 timestamps and common date-only formats.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ValidateTrip checks every rule and returns nil when the payload is valid.
func ValidateTrip(p *TripPayload) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(p.Country) == "" {
		errs["country"] = "is required"
	}

	if strings.TrimSpace(p.TravelPeriod.StartDate) == "" {
		errs["travelPeriod.startDate"] = "is required"
	} else if _, err := ParseDate(p.TravelPeriod.StartDate); err != nil {
		errs["travelPeriod.startDate"] = "must be a valid date"
	}
	if strings.TrimSpace(p.TravelPeriod.EndDate) == "" {
		errs["travelPeriod.endDate"] = "is required"
	} else if _, err := ParseDate(p.TravelPeriod.EndDate); err != nil {
		errs["travelPeriod.endDate"] = "must be a valid date"
	}

	if len(p.VisitedPlaces) == 0 {
		errs["visitedPlaces"] = "at least one visited place is required"
	} else {
		for i, vp := range p.VisitedPlaces {
			if vp.Rating < 1 || vp.Rating > 5 {
				errs[fmt.Sprintf("visitedPlaces[%d].rating", i)] = "must be between 1 and 5"
			}
		}
	}
	if len(p.Accommodations) == 0 {
		errs["accommodations"] = "at least one accommodation is required"
	}
	if len(p.Transportations) == 0 {
		errs["transportations"] = "at least one transportation is required"
	}
	if len(p.BudgetItems) == 0 {
		errs["budgetItems"] = "at least one budget item is required"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
