package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/event"
	"github.com/AkshatJain-webdev/Natours/internal/query"
	"github.com/AkshatJain-webdev/Natours/internal/repository"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
)

// Errors returned by the review rules.
var (
	ErrNotReviewAuthor = apperrors.Forbidden("You can only change your own reviews")
	ErrNoSuchTour      = apperrors.NotFound("No tour found with that ID")
)

// ReviewService manages reviews and keeps the rating aggregate of their
// tours current.
type ReviewService struct {
	reviews repository.ReviewRepository
	tours   repository.TourRepository
	events  *event.Producer
	logger  *slog.Logger
	now     Clock
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	tours repository.TourRepository,
	events *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{reviews: reviews, tours: tours, events: events, logger: logger, now: utcNow}
}

// Create adds a review. A user reviews a tour at most once.
func (s *ReviewService) Create(ctx context.Context, r *domain.Review) error {
	r.ID = uuid.New().String()
	r.CreatedAt = s.now()
	r.Normalize()
	if err := r.Validate(); err != nil {
		return err
	}

	if _, err := s.tours.Get(ctx, domain.TourByID(r.TourID)); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrNoSuchTour
		}
		return fmt.Errorf("check tour: %w", err)
	}

	exists, err := s.reviews.Exists(ctx, r.TourID, r.UserID)
	if err != nil {
		return fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return domain.ErrAlreadyReviewed
	}

	if err := s.reviews.Create(ctx, r); err != nil {
		return err
	}

	s.recalculate(ctx, r.TourID)
	s.events.ReviewCreated(ctx, r)
	return nil
}

// Get returns a review with its author.
func (s *ReviewService) Get(ctx context.Context, id string, _ ...string) (*domain.Review, error) {
	return s.reviews.GetByID(ctx, id)
}

// Update changes the body or rating of a review. Only its author and
// admins may do so.
func (s *ReviewService) Update(ctx context.Context, id string, patch map[string]any) (*domain.Review, error) {
	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, r.UserID, ErrNotReviewAuthor); err != nil {
		return nil, err
	}

	if err := domain.ApplyPatch(r, patch); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, err
	}

	s.recalculate(ctx, r.TourID)
	s.events.ReviewUpdated(ctx, r)
	return r, nil
}

// Delete removes a review. Only its author and admins may do so.
func (s *ReviewService) Delete(ctx context.Context, id string) error {
	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(ctx, r.UserID, ErrNotReviewAuthor); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}

	s.recalculate(ctx, r.TourID)
	s.events.ReviewDeleted(ctx, r)
	return nil
}

// Find lists reviews.
func (s *ReviewService) Find(ctx context.Context, q *query.Query) ([]domain.Review, error) {
	return s.reviews.Find(ctx, q)
}

// Count counts reviews.
func (s *ReviewService) Count(ctx context.Context, q *query.Query) (int, error) {
	return s.reviews.Count(ctx, q)
}

// recalculate refreshes the tour's rating aggregate. The review write has
// already happened, so a failure is only logged.
func (s *ReviewService) recalculate(ctx context.Context, tourID string) {
	if err := s.reviews.RecalculateRatings(ctx, tourID); err != nil {
		logFor(ctx, s.logger).ErrorContext(ctx, "failed to recalculate tour ratings",
			slog.String("tour_id", tourID),
			slog.String("error", err.Error()),
		)
	}
}
