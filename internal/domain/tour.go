package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AkshatJain-webdev/Natours/pkg/slug"
	"github.com/AkshatJain-webdev/Natours/pkg/validator"
)

// Tour difficulties.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Rating aggregate of a tour without reviews.
const (
	DefaultRatingsAverage  = 4.5
	DefaultRatingsQuantity = 0
)

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

// Lng returns the longitude, or 0 for a point without coordinates.
func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

// Lat returns the latitude, or 0 for a point without coordinates.
func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Guide is the public summary of a user guiding a tour.
type Guide struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Photo string `json:"photo,omitempty"`
	Role  string `json:"role,omitempty"`
}

// UnmarshalJSON accepts either a bare user id or a guide object, so
// request bodies can list guides by id.
func (g *Guide) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*g = Guide{ID: id}
		return nil
	}
	type plain Guide
	return json.Unmarshal(b, (*plain)(g))
}

// Tour is a bookable trip.
type Tour struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize"`
	Difficulty      string      `json:"difficulty"`
	RatingsAverage  float64     `json:"ratingsAverage"`
	RatingsQuantity int         `json:"ratingsQuantity"`
	Price           float64     `json:"price"`
	PriceDiscount   *float64    `json:"priceDiscount,omitempty"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"imageCover"`
	Images          []string    `json:"images"`
	StartDates      []time.Time `json:"startDates"`
	SecretTour      bool        `json:"secretTour"`
	StartLocation   *GeoPoint   `json:"startLocation,omitempty"`
	Locations       []GeoPoint  `json:"locations"`
	Guides          []Guide     `json:"guides"`
	CreatedAt       time.Time   `json:"createdAt"`

	// Reviews is only populated when a single tour is fetched.
	Reviews []Review `json:"reviews,omitempty"`
}

// DurationWeeks is the duration in weeks.
func (t *Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

// MarshalJSON adds the durationWeeks virtual field.
func (t Tour) MarshalJSON() ([]byte, error) {
	type plain Tour
	return json.Marshal(struct {
		plain
		DurationWeeks float64 `json:"durationWeeks"`
	}{plain(t), t.DurationWeeks()})
}

// GuideIDs returns the ids of the tour's guides.
func (t *Tour) GuideIDs() []string {
	ids := make([]string, 0, len(t.Guides))
	for _, g := range t.Guides {
		ids = append(ids, g.ID)
	}
	return ids
}

// Normalize trims text fields, derives the slug and fills defaults.
func (t *Tour) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.Slug = slug.Generate(t.Name)
	t.RatingsAverage = RoundRating(t.RatingsAverage)
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
	if t.Locations == nil {
		t.Locations = []GeoPoint{}
	}
	if t.Guides == nil {
		t.Guides = []Guide{}
	}
	if t.StartLocation != nil && t.StartLocation.Type == "" {
		t.StartLocation.Type = "Point"
	}
	for i := range t.Locations {
		if t.Locations[i].Type == "" {
			t.Locations[i].Type = "Point"
		}
	}
}

// Validate checks the tour's constraints.
func (t *Tour) Validate() error {
	var v validator.Violations

	switch n := len([]rune(t.Name)); {
	case n == 0:
		v.Add("name", "A tour must have a name")
	case n > 40:
		v.Add("name", "A tour name must not have more than 40 characters")
	case n < 10:
		v.Add("name", "A tour name must have at least 10 characters")
	}
	v.Check(t.Duration > 0, "duration", "A tour must have a duration")
	v.Check(t.MaxGroupSize > 0, "maxGroupSize", "A tour must have a group size")

	switch t.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
	case "":
		v.Add("difficulty", "A tour must have a difficulty level")
	default:
		v.Add("difficulty", "A tour can only be easy, medium or difficult")
	}

	v.Check(t.RatingsAverage >= 1, "ratingsAverage", "Rating must be above 1.0")
	v.Check(t.RatingsAverage <= 5, "ratingsAverage", "Rating must be below 5.0")
	v.Check(t.Price > 0, "price", "A tour must have a price")
	if t.PriceDiscount != nil {
		v.Check(*t.PriceDiscount < t.Price, "priceDiscount",
			fmt.Sprintf("Discount price %g should be below regular price", *t.PriceDiscount))
	}
	v.Check(t.Summary != "", "summary", "A tour must have a description")
	v.Check(t.ImageCover != "", "imageCover", "A tour must have a cover image")

	checkPoint := func(p GeoPoint, field string) {
		v.Check(p.Type == "Point", field, "Location type must be Point")
		v.Check(len(p.Coordinates) == 2, field, "Location coordinates must be [longitude, latitude]")
	}
	if t.StartLocation != nil {
		checkPoint(*t.StartLocation, "startLocation")
	}
	for _, l := range t.Locations {
		checkPoint(l, "locations")
	}
	for _, g := range t.Guides {
		v.Check(uuid.Validate(g.ID) == nil, "guides", fmt.Sprintf("Invalid guide: %s.", g.ID))
	}
	return v.Err()
}

// RoundRating rounds a rating to two decimals.
func RoundRating(r float64) float64 {
	return math.Round(r*100) / 100
}

// TourStats is one difficulty bucket of the tour statistics.
type TourStats struct {
	Difficulty string  `json:"_id"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// MonthlyPlan counts the tour starts in one month of a year.
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// TourDistance is the distance from a point to a tour's start location.
type TourDistance struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}
