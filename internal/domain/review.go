package domain

import (
	"strings"
	"time"

	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/validator"
)

// ErrAlreadyReviewed is returned when a user reviews the same tour twice.
var ErrAlreadyReviewed = apperrors.Conflict("You have already reviewed this tour")

// Author is the public summary of the user who wrote a review.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// Review is a user's rating of a tour. A user reviews a tour at most once.
type Review struct {
	ID         string    `json:"id"`
	ReviewBody string    `json:"reviewBody"`
	Rating     float64   `json:"rating"`
	TourID     string    `json:"tour"`
	UserID     string    `json:"-"`
	User       *Author   `json:"user,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Normalize trims the body.
func (r *Review) Normalize() {
	r.ReviewBody = strings.TrimSpace(r.ReviewBody)
}

// Validate checks the review's constraints.
func (r *Review) Validate() error {
	var v validator.Violations
	v.Check(r.ReviewBody != "", "reviewBody", "Review cannot be without text body")
	v.Check(r.Rating >= 1 && r.Rating <= 5, "rating", "Rating must be between 1 and 5")
	v.Check(r.TourID != "", "tour", "A review must belong to a tour")
	v.Check(r.UserID != "", "user", "A review must belong to a user")
	return v.Err()
}

// IsAuthoredBy reports whether userID wrote the review.
func (r *Review) IsAuthoredBy(userID string) bool {
	return r.UserID != "" && r.UserID == userID
}
