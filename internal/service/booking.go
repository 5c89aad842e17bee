package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/event"
	"github.com/AkshatJain-webdev/Natours/internal/payment"
	"github.com/AkshatJain-webdev/Natours/internal/query"
	"github.com/AkshatJain-webdev/Natours/internal/repository"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
)

// ErrBookingNotYours is returned when a user reaches for someone else's
// booking.
var ErrBookingNotYours = apperrors.Forbidden("You cannot access this booking")

// BookingService sells tours and manages the resulting bookings.
type BookingService struct {
	bookings  repository.BookingRepository
	tours     repository.TourRepository
	payments  payment.Provider
	publicURL string
	events    *event.Producer
	logger    *slog.Logger
	now       Clock
}

// NewBookingService creates a new booking service. publicURL is the
// origin used for checkout redirects and tour images.
func NewBookingService(
	bookings repository.BookingRepository,
	tours repository.TourRepository,
	payments payment.Provider,
	publicURL string,
	events *event.Producer,
	logger *slog.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		tours:     tours,
		payments:  payments,
		publicURL: publicURL,
		events:    events,
		logger:    logger,
		now:       utcNow,
	}
}

// CheckoutSession opens a payment session for user buying tourID.
func (s *BookingService) CheckoutSession(ctx context.Context, user *domain.User, tourID string) (*payment.CheckoutSession, error) {
	t, err := s.tours.Get(ctx, domain.PublicTours, domain.TourByID(tourID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrNoSuchTour
		}
		return nil, err
	}

	success := url.Values{}
	success.Set("tour", t.ID)
	success.Set("user", user.ID)
	success.Set("price", strconv.FormatFloat(t.Price, 'f', -1, 64))

	session, err := s.payments.CreateCheckoutSession(ctx, payment.CheckoutInput{
		TourID:        t.ID,
		TourName:      t.Name,
		Summary:       t.Summary,
		ImageURL:      s.publicURL + "/img/tours/" + t.ImageCover,
		Price:         t.Price,
		CustomerEmail: user.Email,
		SuccessURL:    s.publicURL + "/?" + success.Encode(),
		CancelURL:     s.publicURL + "/tour/" + t.Slug,
	})
	if err != nil {
		return nil, err
	}

	logFor(ctx, s.logger).InfoContext(ctx, "checkout session opened",
		slog.String("provider", s.payments.Name()),
		slog.String("session_id", session.ID),
		slog.String("tour_id", t.ID),
	)
	return session, nil
}

// CompleteCheckout records the paid booking a checkout redirect reports.
func (s *BookingService) CompleteCheckout(ctx context.Context, tourID, userID string, price float64) (*domain.Booking, error) {
	b := &domain.Booking{TourID: tourID, UserID: userID, Price: price, Paid: true}
	if err := s.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Create inserts a booking.
func (s *BookingService) Create(ctx context.Context, b *domain.Booking) error {
	b.ID = uuid.New().String()
	b.CreatedAt = s.now()
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	s.events.BookingCreated(ctx, b)
	logFor(ctx, s.logger).InfoContext(ctx, "booking created",
		slog.String("booking_id", b.ID),
		slog.String("tour_id", b.TourID),
	)
	return nil
}

// Get returns a booking to its owner or an admin.
func (s *BookingService) Get(ctx context.Context, id string, _ ...string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ctx, b.UserID, ErrBookingNotYours); err != nil {
		return nil, err
	}
	return b, nil
}

// Update changes the price or paid flag of a booking for its owner or an
// admin.
func (s *BookingService) Update(ctx context.Context, id string, patch map[string]any) (*domain.Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ApplyPatch(b, patch); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a booking.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	return s.bookings.Delete(ctx, id)
}

// Find lists bookings.
func (s *BookingService) Find(ctx context.Context, q *query.Query) ([]domain.Booking, error) {
	return s.bookings.Find(ctx, q)
}

// Count counts bookings.
func (s *BookingService) Count(ctx context.Context, q *query.Query) (int, error) {
	return s.bookings.Count(ctx, q)
}
