package repository

import (
	"context"
	"time"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/query"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A taken email is a Conflict.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves an active user by id.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves an active user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByResetToken retrieves the active user holding an unexpired reset
	// token with the given hash.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)

	// Update writes every stored field of user.
	Update(ctx context.Context, user *domain.User) error

	// Deactivate soft-deletes a user.
	Deactivate(ctx context.Context, id string) error

	// Delete removes a user row.
	Delete(ctx context.Context, id string) error

	// Find returns the users selected by q.
	Find(ctx context.Context, q *query.Query) ([]domain.User, error)

	// Count returns how many users q selects, ignoring pagination.
	Count(ctx context.Context, q *query.Query) (int, error)
}

// TourRepository defines the interface for tour persistence operations.
type TourRepository interface {
	// Create inserts a tour and its guides.
	Create(ctx context.Context, tour *domain.Tour) error

	// Get returns the single tour matching scopes, with guides.
	Get(ctx context.Context, scopes ...query.Scope) (*domain.Tour, error)

	// Update writes every stored field of tour and replaces its guides.
	Update(ctx context.Context, tour *domain.Tour) error

	// Delete removes a tour.
	Delete(ctx context.Context, id string) error

	// Find returns the tours selected by q, with guides.
	Find(ctx context.Context, q *query.Query) ([]domain.Tour, error)

	// Count returns how many tours q selects, ignoring pagination.
	Count(ctx context.Context, q *query.Query) (int, error)

	// Stats aggregates tours rated 4 or better by difficulty.
	Stats(ctx context.Context) ([]domain.TourStats, error)

	// MonthlyPlan counts tour starts per month of year.
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error)

	// Within returns public tours starting within radius of a point.
	// radius is expressed in the same unit as earthRadius.
	Within(ctx context.Context, lat, lng, radius, earthRadius float64) ([]domain.Tour, error)

	// Distances returns every public tour's distance from a point in metres
	// scaled by multiplier.
	Distances(ctx context.Context, lat, lng, multiplier float64) ([]domain.TourDistance, error)

	// BookedBy returns the tours userID has booked.
	BookedBy(ctx context.Context, userID string) ([]domain.Tour, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a review. A second review of a tour by the same user
	// is a Conflict.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review with its author.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Exists reports whether userID already reviewed tourID.
	Exists(ctx context.Context, tourID, userID string) (bool, error)

	// Update writes the body and rating of review.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review.
	Delete(ctx context.Context, id string) error

	// Find returns the reviews selected by q, with authors.
	Find(ctx context.Context, q *query.Query) ([]domain.Review, error)

	// Count returns how many reviews q selects, ignoring pagination.
	Count(ctx context.Context, q *query.Query) (int, error)

	// RecalculateRatings rewrites the rating aggregate of tourID from its
	// current reviews.
	RecalculateRatings(ctx context.Context, tourID string) error
}

// BookingRepository defines the interface for booking persistence operations.
type BookingRepository interface {
	// Create inserts a booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking with its tour and user summaries.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// Update writes the price and paid flag of booking.
	Update(ctx context.Context, booking *domain.Booking) error

	// Delete removes a booking.
	Delete(ctx context.Context, id string) error

	// Find returns the bookings selected by q.
	Find(ctx context.Context, q *query.Query) ([]domain.Booking, error)

	// Count returns how many bookings q selects, ignoring pagination.
	Count(ctx context.Context, q *query.Query) (int, error)
}
