package postgres

import (
	"context"
	"fmt"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/query"
	"github.com/AkshatJain-webdev/Natours/pkg/database"
)

const bookingColumns = `b.id, b.tour_id, b.user_id, b.price, b.paid, b.created_at, t.name, u.name, u.email`

const bookingFrom = `FROM bookings b
		JOIN tours t ON t.id = b.tour_id
		JOIN users u ON u.id = b.user_id`

// BookingRepository implements repository.BookingRepository using PostgreSQL.
type BookingRepository struct {
	pool database.DBTX
}

// NewBookingRepository creates a new PostgreSQL-backed booking repository.
func NewBookingRepository(pool database.DBTX) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// Create inserts a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) (err error) {
	stmt := `
		INSERT INTO bookings (id, tour_id, user_id, price, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "CreateBooking", stmt)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, stmt,
		b.ID,
		b.TourID,
		b.UserID,
		b.Price,
		b.Paid,
		b.CreatedAt,
	)
	return translate(err, "booking", "insert booking")
}

// GetByID retrieves a booking with its tour and user summaries.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (b *domain.Booking, err error) {
	where, args := query.Scoped(query.Scope{SQL: "b.id = ?", Args: []any{id}}).Where(0)
	stmt := selectStatement("SELECT "+bookingColumns, bookingFrom, where)

	ctx, end := database.TraceQuery(ctx, "GetBooking", stmt)
	defer func() { end(err) }()

	b, err = scanBooking(r.pool.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, translate(err, "booking", "get booking")
	}
	return b, nil
}

// Update writes the price and paid flag of b.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	return execAffecting(ctx, r.pool, "UpdateBooking", "booking",
		`UPDATE bookings SET price = $1, paid = $2 WHERE id = $3`,
		b.Price, b.Paid, b.ID)
}

// Delete removes a booking.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	return execAffecting(ctx, r.pool, "DeleteBooking", "booking", `DELETE FROM bookings WHERE id = $1`, id)
}

// Find returns the bookings selected by q.
func (r *BookingRepository) Find(ctx context.Context, q *query.Query) (bookings []domain.Booking, err error) {
	where, args := q.Where(0)
	stmt := selectStatement("SELECT "+bookingColumns, bookingFrom, where, q.OrderBy(), q.LimitOffset())

	ctx, end := database.TraceQuery(ctx, "FindBookings", stmt)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	defer rows.Close()

	bookings = []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}
	return bookings, nil
}

// Count returns how many bookings q selects.
func (r *BookingRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	return count(ctx, r.pool, "CountBookings", "FROM bookings b", q)
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b    domain.Booking
		tour domain.BookedTour
		user domain.Booker
	)
	if err := row.Scan(
		&b.ID,
		&b.TourID,
		&b.UserID,
		&b.Price,
		&b.Paid,
		&b.CreatedAt,
		&tour.Name,
		&user.Name,
		&user.Email,
	); err != nil {
		return nil, err
	}
	tour.ID, user.ID = b.TourID, b.UserID
	b.Tour, b.User = &tour, &user
	return &b, nil
}
