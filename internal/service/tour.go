package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/event"
	"github.com/AkshatJain-webdev/Natours/internal/query"
	"github.com/AkshatJain-webdev/Natours/internal/repository"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
)

// Distance units accepted by the geo endpoints. Anything but mi is read as
// kilometres.
const (
	UnitMiles      = "mi"
	UnitKilometres = "km"
)

// Earth radius per unit, and the factor converting metres to each unit.
const (
	earthRadiusMiles      = 3963.2
	earthRadiusKilometres = 6378.1
	metresToMiles         = 0.000621371
	metresToKilometres    = 0.001
)

// TourService manages the tour catalogue.
type TourService struct {
	tours   repository.TourRepository
	reviews repository.ReviewRepository
	events  *event.Producer
	logger  *slog.Logger
	now     Clock
}

// NewTourService creates a new tour service.
func NewTourService(
	tours repository.TourRepository,
	reviews repository.ReviewRepository,
	events *event.Producer,
	logger *slog.Logger,
) *TourService {
	return &TourService{tours: tours, reviews: reviews, events: events, logger: logger, now: utcNow}
}

// Create validates and inserts a tour. The rating aggregate always starts
// from the no-review defaults.
func (s *TourService) Create(ctx context.Context, t *domain.Tour) error {
	t.ID = uuid.New().String()
	t.CreatedAt = s.now()
	t.RatingsAverage = domain.DefaultRatingsAverage
	t.RatingsQuantity = domain.DefaultRatingsQuantity
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.tours.Create(ctx, t); err != nil {
		return fmt.Errorf("create tour: %w", err)
	}

	s.events.TourCreated(ctx, t)
	logFor(ctx, s.logger).InfoContext(ctx, "tour created",
		slog.String("tour_id", t.ID),
		slog.String("slug", t.Slug),
	)
	return nil
}

// Get returns a public tour. Asking for domain.ExpandReviews also loads its
// reviews.
func (s *TourService) Get(ctx context.Context, id string, expand ...string) (*domain.Tour, error) {
	t, err := s.tours.Get(ctx, domain.PublicTours, domain.TourByID(id))
	if err != nil {
		return nil, err
	}
	if slices.Contains(expand, domain.ExpandReviews) {
		if err := s.loadReviews(ctx, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// GetBySlug returns a public tour with its reviews.
func (s *TourService) GetBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	t, err := s.tours.Get(ctx, domain.PublicTours, domain.TourBySlug(slug))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("There is no tour with that name.")
		}
		return nil, err
	}
	if err := s.loadReviews(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TourService) loadReviews(ctx context.Context, t *domain.Tour) error {
	reviews, err := s.reviews.Find(ctx, query.Scoped(domain.ReviewsOfTour(t.ID)))
	if err != nil {
		return fmt.Errorf("load reviews of tour %s: %w", t.ID, err)
	}
	t.Reviews = reviews
	return nil
}

// Update applies patch to a public tour. A rename re-derives the slug.
func (s *TourService) Update(ctx context.Context, id string, patch map[string]any) (*domain.Tour, error) {
	t, err := s.tours.Get(ctx, domain.PublicTours, domain.TourByID(id))
	if err != nil {
		return nil, err
	}
	if err := domain.ApplyPatch(t, patch); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.tours.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update tour: %w", err)
	}

	s.events.TourUpdated(ctx, t)
	return t, nil
}

// Delete removes a public tour together with its reviews and bookings.
// Secret tours report NotFound, as they do for Get and Update.
func (s *TourService) Delete(ctx context.Context, id string) error {
	if _, err := s.tours.Get(ctx, domain.PublicTours, domain.TourByID(id)); err != nil {
		return err
	}
	if err := s.tours.Delete(ctx, id); err != nil {
		return err
	}
	s.events.TourDeleted(ctx, id)
	logFor(ctx, s.logger).InfoContext(ctx, "tour deleted", slog.String("tour_id", id))
	return nil
}

// Find lists public tours.
func (s *TourService) Find(ctx context.Context, q *query.Query) ([]domain.Tour, error) {
	return s.tours.Find(ctx, q.WithScope(domain.PublicTours))
}

// Count counts public tours.
func (s *TourService) Count(ctx context.Context, q *query.Query) (int, error) {
	return s.tours.Count(ctx, q.WithScope(domain.PublicTours))
}

// Stats aggregates well-rated tours by difficulty.
func (s *TourService) Stats(ctx context.Context) ([]domain.TourStats, error) {
	return s.tours.Stats(ctx)
}

// MonthlyPlan counts the tour starts of each month of year.
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	if year < 1 || year > 9999 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid year: %d.", year))
	}
	return s.tours.MonthlyPlan(ctx, year)
}

// Within returns the public tours starting within distance of a point.
func (s *TourService) Within(ctx context.Context, distance, lat, lng float64, unit string) ([]domain.Tour, error) {
	if distance <= 0 {
		return nil, apperrors.InvalidInput("Please provide a positive distance.")
	}
	radius := earthRadiusKilometres
	if unit == UnitMiles {
		radius = earthRadiusMiles
	}
	return s.tours.Within(ctx, lat, lng, distance, radius)
}

// Distances returns how far every public tour starts from a point.
func (s *TourService) Distances(ctx context.Context, lat, lng float64, unit string) ([]domain.TourDistance, error) {
	multiplier := metresToKilometres
	if unit == UnitMiles {
		multiplier = metresToMiles
	}
	return s.tours.Distances(ctx, lat, lng, multiplier)
}
