package postgres

import (
	"context"
	"fmt"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/query"
	"github.com/AkshatJain-webdev/Natours/pkg/database"
)

const reviewColumns = `r.id, r.review_body, r.rating, r.tour_id, r.user_id, r.created_at, u.id, u.name, u.photo`

// Authors who deactivated their account are not shown.
const reviewFrom = `FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id AND u.active = true`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	stmt := `
		INSERT INTO reviews (id, review_body, rating, tour_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "CreateReview", stmt)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, stmt,
		rv.ID,
		rv.ReviewBody,
		rv.Rating,
		rv.TourID,
		rv.UserID,
		rv.CreatedAt,
	)
	if _, dup := database.IsUniqueViolation(err); dup {
		return domain.ErrAlreadyReviewed
	}
	return translate(err, "review", "insert review")
}

// GetByID retrieves a review with its author.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (rv *domain.Review, err error) {
	where, args := query.Scoped(query.Scope{SQL: "r.id = ?", Args: []any{id}}).Where(0)
	stmt := selectStatement("SELECT "+reviewColumns, reviewFrom, where)

	ctx, end := database.TraceQuery(ctx, "GetReview", stmt)
	defer func() { end(err) }()

	rv, err = scanReview(r.pool.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, translate(err, "review", "get review")
	}
	return rv, nil
}

// Exists reports whether userID already reviewed tourID.
func (r *ReviewRepository) Exists(ctx context.Context, tourID, userID string) (exists bool, err error) {
	stmt := `SELECT EXISTS (SELECT 1 FROM reviews WHERE tour_id = $1 AND user_id = $2)`

	ctx, end := database.TraceQuery(ctx, "ReviewExists", stmt)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, stmt, tourID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}
	return exists, nil
}

// Update writes the body and rating of rv.
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	return execAffecting(ctx, r.pool, "UpdateReview", "review",
		`UPDATE reviews SET review_body = $1, rating = $2 WHERE id = $3`,
		rv.ReviewBody, rv.Rating, rv.ID)
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	return execAffecting(ctx, r.pool, "DeleteReview", "review", `DELETE FROM reviews WHERE id = $1`, id)
}

// Find returns the reviews selected by q.
func (r *ReviewRepository) Find(ctx context.Context, q *query.Query) (reviews []domain.Review, err error) {
	where, args := q.Where(0)
	stmt := selectStatement("SELECT "+reviewColumns, reviewFrom, where, q.OrderBy(), q.LimitOffset())

	ctx, end := database.TraceQuery(ctx, "FindReviews", stmt)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer rows.Close()

	reviews = []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

// Count returns how many reviews q selects.
func (r *ReviewRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	return count(ctx, r.pool, "CountReviews", "FROM reviews r", q)
}

// RecalculateRatings sets the rating aggregate of tourID from its reviews
// in one statement. A tour without reviews falls back to the defaults.
func (r *ReviewRepository) RecalculateRatings(ctx context.Context, tourID string) (err error) {
	stmt := `
		UPDATE tours t
		SET ratings_quantity = s.n,
		    ratings_average = CASE WHEN s.n = 0 THEN $2 ELSE ROUND(s.avg::numeric, 2)::float8 END
		FROM (SELECT COUNT(*) AS n, AVG(rating) AS avg FROM reviews WHERE tour_id = $1) s
		WHERE t.id = $1`

	ctx, end := database.TraceQuery(ctx, "RecalculateRatings", stmt)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, stmt, tourID, domain.DefaultRatingsAverage); err != nil {
		return fmt.Errorf("recalculate ratings: %w", err)
	}
	return nil
}

func scanReview(row rowScanner) (*domain.Review, error) {
	var (
		rv                  domain.Review
		authorID, name, pic *string
	)
	if err := row.Scan(
		&rv.ID,
		&rv.ReviewBody,
		&rv.Rating,
		&rv.TourID,
		&rv.UserID,
		&rv.CreatedAt,
		&authorID,
		&name,
		&pic,
	); err != nil {
		return nil, err
	}
	if authorID != nil {
		rv.User = &domain.Author{ID: *authorID}
		if name != nil {
			rv.User.Name = *name
		}
		if pic != nil {
			rv.User.Photo = *pic
		}
	}
	return &rv, nil
}
