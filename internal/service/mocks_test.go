package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/event"
	"github.com/AkshatJain-webdev/Natours/internal/payment"
	"github.com/AkshatJain-webdev/Natours/internal/query"
	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func noEvents() *event.Producer { return event.NewProducer(nil, quietLogger()) }

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func asUser(ctx context.Context, id, role string) context.Context {
	return middleware.WithPrincipal(ctx, middleware.Principal{UserID: id, Role: role})
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	args := m.Called(ctx, tokenHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepository) Find(ctx context.Context, q *query.Query) ([]domain.User, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

// --- Mock Tour Repository ---

type mockTourRepository struct {
	mock.Mock
}

func (m *mockTourRepository) Create(ctx context.Context, t *domain.Tour) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTourRepository) Get(ctx context.Context, scopes ...query.Scope) (*domain.Tour, error) {
	args := m.Called(ctx, scopes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tour), args.Error(1)
}

func (m *mockTourRepository) Update(ctx context.Context, t *domain.Tour) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTourRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTourRepository) Find(ctx context.Context, q *query.Query) ([]domain.Tour, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Tour), args.Error(1)
}

func (m *mockTourRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *mockTourRepository) Stats(ctx context.Context) ([]domain.TourStats, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TourStats), args.Error(1)
}

func (m *mockTourRepository) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	args := m.Called(ctx, year)
	return args.Get(0).([]domain.MonthlyPlan), args.Error(1)
}

func (m *mockTourRepository) Within(ctx context.Context, lat, lng, radius, earthRadius float64) ([]domain.Tour, error) {
	args := m.Called(ctx, lat, lng, radius, earthRadius)
	return args.Get(0).([]domain.Tour), args.Error(1)
}

func (m *mockTourRepository) Distances(ctx context.Context, lat, lng, multiplier float64) ([]domain.TourDistance, error) {
	args := m.Called(ctx, lat, lng, multiplier)
	return args.Get(0).([]domain.TourDistance), args.Error(1)
}

func (m *mockTourRepository) BookedBy(ctx context.Context, userID string) ([]domain.Tour, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Tour), args.Error(1)
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Exists(ctx context.Context, tourID, userID string) (bool, error) {
	args := m.Called(ctx, tourID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepository) Update(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockReviewRepository) Find(ctx context.Context, q *query.Query) ([]domain.Review, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *mockReviewRepository) RecalculateRatings(ctx context.Context, tourID string) error {
	return m.Called(ctx, tourID).Error(0)
}

// --- Mock Booking Repository ---

type mockBookingRepository struct {
	mock.Mock
}

func (m *mockBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBookingRepository) Find(ctx context.Context, q *query.Query) ([]domain.Booking, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *mockBookingRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

// --- Mock Mailer ---

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendWelcome(ctx context.Context, u *domain.User, url string) error {
	return m.Called(ctx, u, url).Error(0)
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, u *domain.User, resetURL string) error {
	return m.Called(ctx, u, resetURL).Error(0)
}

// --- Mock Payment Provider ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "test" }

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, in payment.CheckoutInput) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}
