package http

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/query"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	args := m.Called(ctx, tokenHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) Find(ctx context.Context, q *query.Query) ([]domain.User, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepo) Count(ctx context.Context, q *query.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

// --- Mock Tour Repository ---

type mockTourRepo struct {
	mock.Mock
}

func (m *mockTourRepo) Create(ctx context.Context, t *domain.Tour) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTourRepo) Get(ctx context.Context, scopes ...query.Scope) (*domain.Tour, error) {
	args := m.Called(ctx, scopes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}

func (m *mockTourRepo) Update(ctx context.Context, t *domain.Tour) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTourRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTourRepo) Find(ctx context.Context, q *query.Query) ([]domain.Tour, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Tour), args.Error(1)
}

func (m *mockTourRepo) Count(ctx context.Context, q *query.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *mockTourRepo) Stats(ctx context.Context) ([]domain.TourStats, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TourStats), args.Error(1)
}

func (m *mockTourRepo) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	args := m.Called(ctx, year)
	return args.Get(0).([]domain.MonthlyPlan), args.Error(1)
}

func (m *mockTourRepo) Within(ctx context.Context, lat, lng, radius, earthRadius float64) ([]domain.Tour, error) {
	args := m.Called(ctx, lat, lng, radius, earthRadius)
	return args.Get(0).([]domain.Tour), args.Error(1)
}

func (m *mockTourRepo) Distances(ctx context.Context, lat, lng, multiplier float64) ([]domain.TourDistance, error) {
	args := m.Called(ctx, lat, lng, multiplier)
	return args.Get(0).([]domain.TourDistance), args.Error(1)
}

func (m *mockTourRepo) BookedBy(ctx context.Context, userID string) ([]domain.Tour, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Tour), args.Error(1)
}

// --- Mock Review Repository ---

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) Exists(ctx context.Context, tourID, userID string) (bool, error) {
	args := m.Called(ctx, tourID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepo) Update(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReviewRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockReviewRepo) Find(ctx context.Context, q *query.Query) ([]domain.Review, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepo) Count(ctx context.Context, q *query.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *mockReviewRepo) RecalculateRatings(ctx context.Context, tourID string) error {
	return m.Called(ctx, tourID).Error(0)
}

// --- Mock Booking Repository ---

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBookingRepo) Find(ctx context.Context, q *query.Query) ([]domain.Booking, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) Count(ctx context.Context, q *query.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}
