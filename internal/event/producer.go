// Package event publishes Natours domain events.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	pkgkafka "github.com/AkshatJain-webdev/Natours/pkg/kafka"
	"github.com/AkshatJain-webdev/Natours/pkg/logger"
)

// Aggregate types.
const (
	AggregateUser    = "user"
	AggregateTour    = "tour"
	AggregateReview  = "review"
	AggregateBooking = "booking"
)

// Topics for domain events.
var (
	TopicUserRegistered         = pkgkafka.Topic(AggregateUser, "registered")
	TopicPasswordResetRequested = pkgkafka.Topic(AggregateUser, "password_reset_requested")
	TopicTourCreated            = pkgkafka.Topic(AggregateTour, "created")
	TopicTourUpdated            = pkgkafka.Topic(AggregateTour, "updated")
	TopicTourDeleted            = pkgkafka.Topic(AggregateTour, "deleted")
	TopicReviewCreated          = pkgkafka.Topic(AggregateReview, "created")
	TopicReviewUpdated          = pkgkafka.Topic(AggregateReview, "updated")
	TopicReviewDeleted          = pkgkafka.Topic(AggregateReview, "deleted")
	TopicBookingCreated         = pkgkafka.Topic(AggregateBooking, "created")
)

// Source identifies events originating from this API.
const Source = "natours-api"

// PublishTimeout bounds every background publish.
const PublishTimeout = 5 * time.Second

// UserData is the payload of user events.
type UserData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TourData is the payload of tour events.
type TourData struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`
}

// ReviewData is the payload of review events.
type ReviewData struct {
	ID     string  `json:"id"`
	TourID string  `json:"tourId"`
	UserID string  `json:"userId"`
	Rating float64 `json:"rating,omitempty"`
}

// BookingData is the payload of booking events.
type BookingData struct {
	ID     string  `json:"id"`
	TourID string  `json:"tourId"`
	UserID string  `json:"userId"`
	Price  float64 `json:"price"`
	Paid   bool    `json:"paid"`
}

// Publisher writes one event to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes domain events in the background. Failures are logged
// and never reach the caller. A Producer without a publisher only logs.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewProducer creates a new event producer. publisher may be nil.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// UserRegistered announces a signup.
func (p *Producer) UserRegistered(ctx context.Context, u *domain.User) {
	p.publish(ctx, TopicUserRegistered, AggregateUser, u.ID, UserData{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

// PasswordResetRequested announces a forgot-password request.
func (p *Producer) PasswordResetRequested(ctx context.Context, u *domain.User) {
	p.publish(ctx, TopicPasswordResetRequested, AggregateUser, u.ID, UserData{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

// TourCreated announces a new tour.
func (p *Producer) TourCreated(ctx context.Context, t *domain.Tour) {
	p.publish(ctx, TopicTourCreated, AggregateTour, t.ID, TourData{ID: t.ID, Name: t.Name, Slug: t.Slug})
}

// TourUpdated announces a tour change.
func (p *Producer) TourUpdated(ctx context.Context, t *domain.Tour) {
	p.publish(ctx, TopicTourUpdated, AggregateTour, t.ID, TourData{ID: t.ID, Name: t.Name, Slug: t.Slug})
}

// TourDeleted announces a tour removal.
func (p *Producer) TourDeleted(ctx context.Context, id string) {
	p.publish(ctx, TopicTourDeleted, AggregateTour, id, TourData{ID: id})
}

// ReviewCreated announces a new review.
func (p *Producer) ReviewCreated(ctx context.Context, r *domain.Review) {
	p.publish(ctx, TopicReviewCreated, AggregateReview, r.ID, reviewData(r))
}

// ReviewUpdated announces a review change.
func (p *Producer) ReviewUpdated(ctx context.Context, r *domain.Review) {
	p.publish(ctx, TopicReviewUpdated, AggregateReview, r.ID, reviewData(r))
}

// ReviewDeleted announces a review removal.
func (p *Producer) ReviewDeleted(ctx context.Context, r *domain.Review) {
	p.publish(ctx, TopicReviewDeleted, AggregateReview, r.ID, ReviewData{ID: r.ID, TourID: r.TourID, UserID: r.UserID})
}

// BookingCreated announces a paid booking.
func (p *Producer) BookingCreated(ctx context.Context, b *domain.Booking) {
	p.publish(ctx, TopicBookingCreated, AggregateBooking, b.ID, BookingData{
		ID:     b.ID,
		TourID: b.TourID,
		UserID: b.UserID,
		Price:  b.Price,
		Paid:   b.Paid,
	})
}

// Wait blocks until every publish started so far has finished.
func (p *Producer) Wait() {
	p.wg.Wait()
}

func reviewData(r *domain.Review) ReviewData {
	return ReviewData{ID: r.ID, TourID: r.TourID, UserID: r.UserID, Rating: r.Rating}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType, aggregateID string, data any) {
	log := logger.WithContext(ctx, p.logger)

	evt, err := pkgkafka.NewEvent(topic, aggregateType, aggregateID, Source, data)
	if err != nil {
		log.ErrorContext(ctx, "failed to build event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
		return
	}
	evt.CorrelationID = logger.CorrelationIDFromContext(ctx)

	if p.publisher == nil {
		log.DebugContext(ctx, "event publishing disabled, dropping event",
			slog.String("topic", topic),
			slog.String("aggregate_id", aggregateID),
		)
		return
	}

	// The request may finish before the broker answers.
	bg := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(bg, PublishTimeout)
		defer cancel()

		if err := p.publisher.Publish(ctx, topic, evt); err != nil {
			log.ErrorContext(ctx, fmt.Sprintf("failed to publish %s event", topic),
				slog.String("aggregate_id", aggregateID),
				slog.String("error", err.Error()),
			)
			return
		}
		log.DebugContext(ctx, fmt.Sprintf("published %s event", topic),
			slog.String("aggregate_id", aggregateID),
		)
	}()
}
