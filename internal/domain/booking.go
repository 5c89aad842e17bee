package domain

import (
	"time"

	"github.com/AkshatJain-webdev/Natours/pkg/validator"
)

// BookedTour is the tour summary embedded in a booking.
type BookedTour struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Booker is the user summary embedded in a booking.
type Booker struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Booking records a paid place on a tour.
type Booking struct {
	ID        string      `json:"id"`
	TourID    string      `json:"-"`
	UserID    string      `json:"-"`
	Tour      *BookedTour `json:"tour,omitempty"`
	User      *Booker     `json:"user,omitempty"`
	Price     float64     `json:"price"`
	Paid      bool        `json:"paid"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Validate checks the booking's constraints.
func (b *Booking) Validate() error {
	var v validator.Violations
	v.Check(b.TourID != "", "tour", "Booking must belong to a Tour!")
	v.Check(b.UserID != "", "user", "Booking must belong to a User!")
	v.Check(b.Price > 0, "price", "Booking must have a price.")
	return v.Err()
}

// IsOwnedBy reports whether the booking belongs to userID.
func (b *Booking) IsOwnedBy(userID string) bool {
	return b.UserID != "" && b.UserID == userID
}
