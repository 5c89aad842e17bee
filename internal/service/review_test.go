package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/query"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
)

const (
	authorID   = "0b9f1c1e-6f7e-4f39-9d55-1f6d2b3f5a11"
	strangerID = "7d1e2b3c-4a5f-4e6d-8c7b-9a0f1e2d3c4b"
	reviewID   = "e3c1b7a2-1f0d-4c9e-8b6a-5d4c3b2a1f00"
)

func newReviewService() (*ReviewService, *mockReviewRepository, *mockTourRepository) {
	reviews := &mockReviewRepository{}
	tours := &mockTourRepository{}
	svc := NewReviewService(reviews, tours, noEvents(), quietLogger())
	svc.now = fixedClock(authNow)
	return svc, reviews, tours
}

func storedReview() *domain.Review {
	return &domain.Review{
		ID:         reviewID,
		ReviewBody: "Humble bragging about the sunrise.",
		Rating:     4,
		TourID:     tourID,
		UserID:     authorID,
	}
}

func TestReviewService_CreateRecalculatesRatings(t *testing.T) {
	svc, reviews, tours := newReviewService()
	tours.On("Get", mock.Anything, []query.Scope{domain.TourByID(tourID)}).Return(sampleTour(), nil)
	reviews.On("Exists", mock.Anything, tourID, authorID).Return(false, nil)
	reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	reviews.On("RecalculateRatings", mock.Anything, tourID).Return(nil).Once()

	r := &domain.Review{ReviewBody: "  Loved it  ", Rating: 5, TourID: tourID, UserID: authorID}
	require.NoError(t, svc.Create(context.Background(), r))

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Loved it", r.ReviewBody)
	assert.Equal(t, authNow, r.CreatedAt)
	reviews.AssertExpectations(t)
}

func TestReviewService_CreateDuplicateNeverInserts(t *testing.T) {
	svc, reviews, tours := newReviewService()
	tours.On("Get", mock.Anything, mock.Anything).Return(sampleTour(), nil)
	reviews.On("Exists", mock.Anything, tourID, authorID).Return(true, nil)

	err := svc.Create(context.Background(), &domain.Review{ReviewBody: "Again", Rating: 3, TourID: tourID, UserID: authorID})
	assert.Same(t, domain.ErrAlreadyReviewed, err)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	reviews.AssertNotCalled(t, "RecalculateRatings", mock.Anything, mock.Anything)
}

func TestReviewService_CreateUnknownTour(t *testing.T) {
	svc, reviews, tours := newReviewService()
	tours.On("Get", mock.Anything, mock.Anything).Return(nil, apperrors.NoDocument("tour"))

	err := svc.Create(context.Background(), &domain.Review{ReviewBody: "Hmm", Rating: 3, TourID: "missing", UserID: authorID})
	assert.Same(t, ErrNoSuchTour, err)
	reviews.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_CreateRecalculationFailureIsLogged(t *testing.T) {
	svc, reviews, tours := newReviewService()
	tours.On("Get", mock.Anything, mock.Anything).Return(sampleTour(), nil)
	reviews.On("Exists", mock.Anything, tourID, authorID).Return(false, nil)
	reviews.On("Create", mock.Anything, mock.Anything).Return(nil)
	reviews.On("RecalculateRatings", mock.Anything, tourID).Return(errors.New("deadlock"))

	err := svc.Create(context.Background(), &domain.Review{ReviewBody: "Fine", Rating: 3, TourID: tourID, UserID: authorID})
	assert.NoError(t, err)
}

func TestReviewService_UpdateByAuthor(t *testing.T) {
	svc, reviews, _ := newReviewService()
	reviews.On("GetByID", mock.Anything, reviewID).Return(storedReview(), nil)
	reviews.On("Update", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	reviews.On("RecalculateRatings", mock.Anything, tourID).Return(nil).Once()

	ctx := asUser(context.Background(), authorID, domain.RoleUser)
	got, err := svc.Update(ctx, reviewID, map[string]any{"rating": 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Rating)
	reviews.AssertExpectations(t)
}

func TestReviewService_UpdateRejectsOutOfRangeRating(t *testing.T) {
	svc, reviews, _ := newReviewService()
	reviews.On("GetByID", mock.Anything, reviewID).Return(storedReview(), nil)

	ctx := asUser(context.Background(), authorID, domain.RoleUser)
	_, err := svc.Update(ctx, reviewID, map[string]any{"rating": 6})
	require.Error(t, err)
	reviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReviewService_OwnershipRules(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{name: "author", ctx: asUser(context.Background(), authorID, domain.RoleUser)},
		{name: "admin", ctx: asUser(context.Background(), strangerID, domain.RoleAdmin)},
		{name: "another user", ctx: asUser(context.Background(), strangerID, domain.RoleUser), wantErr: ErrNotReviewAuthor},
		{name: "lead guide", ctx: asUser(context.Background(), strangerID, domain.RoleLeadGuide), wantErr: ErrNotReviewAuthor},
		{name: "no principal", ctx: context.Background(), wantErr: ErrNotReviewAuthor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, reviews, _ := newReviewService()
			reviews.On("GetByID", mock.Anything, reviewID).Return(storedReview(), nil)
			reviews.On("Delete", mock.Anything, reviewID).Return(nil)
			reviews.On("RecalculateRatings", mock.Anything, tourID).Return(nil)

			err := svc.Delete(tt.ctx, reviewID)
			if tt.wantErr != nil {
				assert.Same(t, tt.wantErr, err)
				reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			reviews.AssertCalled(t, "RecalculateRatings", mock.Anything, tourID)
		})
	}
}

func TestReviewService_GetMissing(t *testing.T) {
	svc, reviews, _ := newReviewService()
	reviews.On("GetByID", mock.Anything, "gone").Return(nil, apperrors.NoDocument("review"))

	_, err := svc.Get(context.Background(), "gone")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
