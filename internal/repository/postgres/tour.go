package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/query"
	"github.com/AkshatJain-webdev/Natours/pkg/database"
)

// Guides are aggregated into one JSON column so a tour scans from a single
// row. Deactivated users drop out of the list.
const guidesColumn = `COALESCE((
			SELECT json_agg(json_build_object(
				'id', g.id, 'name', g.name, 'email', g.email, 'photo', g.photo, 'role', g.role
			) ORDER BY tg.position)
			FROM tour_guides tg
			JOIN users g ON g.id = tg.user_id
			WHERE tg.tour_id = t.id AND g.active = true
		), '[]'::json)`

const tourColumns = `t.id, t.name, t.slug, t.duration, t.max_group_size, t.difficulty,
		t.ratings_average, t.ratings_quantity, t.price, t.price_discount, t.summary, t.description,
		t.image_cover, t.images, t.start_dates, t.secret_tour, t.start_location, t.locations,
		t.created_at, ` + guidesColumn

// Great-circle angle in radians between the start location of t and the
// point given by the lat and lng placeholders. The haversine term is clamped
// to 1 so rounding near antipodal points cannot push ASIN out of its domain.
const angleExpr = `2 * ASIN(LEAST(1, SQRT(
			POWER(SIN(RADIANS((t.start_location->'coordinates'->>1)::float8 - %[1]s::float8) / 2), 2) +
			COS(RADIANS(%[1]s::float8)) * COS(RADIANS((t.start_location->'coordinates'->>1)::float8)) *
			POWER(SIN(RADIANS((t.start_location->'coordinates'->>0)::float8 - %[2]s::float8) / 2), 2)
		)))`

// earthRadiusMetres matches the radius the distance multipliers assume.
const earthRadiusMetres = 6378100

// TourRepository implements repository.TourRepository using PostgreSQL.
type TourRepository struct {
	pool database.DBTX
}

// NewTourRepository creates a new PostgreSQL-backed tour repository.
func NewTourRepository(pool database.DBTX) *TourRepository {
	return &TourRepository{pool: pool}
}

// Create inserts a tour and its guides in one transaction.
func (r *TourRepository) Create(ctx context.Context, t *domain.Tour) (err error) {
	startLocation, locations, err := marshalLocations(t)
	if err != nil {
		return err
	}

	stmt := `
		INSERT INTO tours (id, name, slug, duration, max_group_size, difficulty, ratings_average, ratings_quantity,
		                   price, price_discount, summary, description, image_cover, images, start_dates, secret_tour,
		                   start_location, locations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	ctx, end := database.TraceQuery(ctx, "CreateTour", stmt)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, stmt,
		t.ID,
		t.Name,
		t.Slug,
		t.Duration,
		t.MaxGroupSize,
		t.Difficulty,
		t.RatingsAverage,
		t.RatingsQuantity,
		t.Price,
		t.PriceDiscount,
		t.Summary,
		t.Description,
		t.ImageCover,
		t.Images,
		t.StartDates,
		t.SecretTour,
		startLocation,
		locations,
		t.CreatedAt,
	)
	if err != nil {
		return translate(err, "tour", "insert tour")
	}

	if err = insertGuides(ctx, tx, t.ID, t.GuideIDs()); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get returns the single tour matching scopes.
func (r *TourRepository) Get(ctx context.Context, scopes ...query.Scope) (t *domain.Tour, err error) {
	where, args := query.Scoped(scopes...).Where(0)
	stmt := selectStatement("SELECT "+tourColumns, "FROM tours t", where)

	ctx, end := database.TraceQuery(ctx, "GetTour", stmt)
	defer func() { end(err) }()

	t, err = scanTour(r.pool.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, translate(err, "tour", "get tour")
	}
	return t, nil
}

// Update writes every stored field of t and replaces its guides.
func (r *TourRepository) Update(ctx context.Context, t *domain.Tour) (err error) {
	startLocation, locations, err := marshalLocations(t)
	if err != nil {
		return err
	}

	stmt := `
		UPDATE tours
		SET name = $1, slug = $2, duration = $3, max_group_size = $4, difficulty = $5, ratings_average = $6,
		    ratings_quantity = $7, price = $8, price_discount = $9, summary = $10, description = $11,
		    image_cover = $12, images = $13, start_dates = $14, secret_tour = $15, start_location = $16,
		    locations = $17
		WHERE id = $18`

	ctx, end := database.TraceQuery(ctx, "UpdateTour", stmt)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, stmt,
		t.Name,
		t.Slug,
		t.Duration,
		t.MaxGroupSize,
		t.Difficulty,
		t.RatingsAverage,
		t.RatingsQuantity,
		t.Price,
		t.PriceDiscount,
		t.Summary,
		t.Description,
		t.ImageCover,
		t.Images,
		t.StartDates,
		t.SecretTour,
		startLocation,
		locations,
		t.ID,
	)
	if err != nil {
		return translate(err, "tour", "update tour")
	}
	if ct.RowsAffected() == 0 {
		return errNoDocument
	}

	if _, err = tx.Exec(ctx, `DELETE FROM tour_guides WHERE tour_id = $1`, t.ID); err != nil {
		return fmt.Errorf("clear tour guides: %w", err)
	}
	if err = insertGuides(ctx, tx, t.ID, t.GuideIDs()); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes a tour. Guides, reviews and bookings cascade.
func (r *TourRepository) Delete(ctx context.Context, id string) error {
	return execAffecting(ctx, r.pool, "DeleteTour", "tour", `DELETE FROM tours WHERE id = $1`, id)
}

// Find returns the tours selected by q.
func (r *TourRepository) Find(ctx context.Context, q *query.Query) ([]domain.Tour, error) {
	where, args := q.Where(0)
	stmt := selectStatement("SELECT "+tourColumns, "FROM tours t", where, q.OrderBy(), q.LimitOffset())
	return r.list(ctx, "FindTours", stmt, args...)
}

// Count returns how many tours q selects.
func (r *TourRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	return count(ctx, r.pool, "CountTours", "FROM tours t", q)
}

// Stats aggregates tours rated 4 or better by difficulty, cheapest bucket
// first.
func (r *TourRepository) Stats(ctx context.Context) (stats []domain.TourStats, err error) {
	stmt := `
		SELECT UPPER(t.difficulty), COUNT(*), COALESCE(SUM(t.ratings_quantity), 0),
		       AVG(t.ratings_average), AVG(t.price), MIN(t.price), MAX(t.price)
		FROM tours t
		WHERE t.ratings_average >= 4
		GROUP BY UPPER(t.difficulty)
		ORDER BY AVG(t.price) ASC`

	ctx, end := database.TraceQuery(ctx, "TourStats", stmt)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("tour stats: %w", err)
	}
	defer rows.Close()

	stats = []domain.TourStats{}
	for rows.Next() {
		var s domain.TourStats
		if err = rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, fmt.Errorf("scan tour stats row: %w", err)
		}
		stats = append(stats, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tour stats rows: %w", err)
	}
	return stats, nil
}

// MonthlyPlan counts the tour starts of every month of year, busiest month
// first.
func (r *TourRepository) MonthlyPlan(ctx context.Context, year int) (plan []domain.MonthlyPlan, err error) {
	stmt := `
		SELECT EXTRACT(MONTH FROM s.start_date AT TIME ZONE 'UTC')::int AS month,
		       COUNT(*) AS num_tour_starts,
		       array_agg(t.name ORDER BY s.start_date) AS tours
		FROM tours t
		CROSS JOIN LATERAL unnest(t.start_dates) AS s(start_date)
		WHERE s.start_date > $1 AND s.start_date <= $2
		GROUP BY month
		ORDER BY num_tour_starts DESC, month ASC
		LIMIT 12`

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 999_000_000, time.UTC)

	ctx, end := database.TraceQuery(ctx, "MonthlyPlan", stmt)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, stmt, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly plan: %w", err)
	}
	defer rows.Close()

	plan = []domain.MonthlyPlan{}
	for rows.Next() {
		var m domain.MonthlyPlan
		if err = rows.Scan(&m.Month, &m.NumTourStarts, &m.Tours); err != nil {
			return nil, fmt.Errorf("scan monthly plan row: %w", err)
		}
		plan = append(plan, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly plan rows: %w", err)
	}
	return plan, nil
}

// Within returns the public tours whose start location lies within radius
// of (lat, lng). radius and earthRadius share a unit.
func (r *TourRepository) Within(ctx context.Context, lat, lng, radius, earthRadius float64) ([]domain.Tour, error) {
	stmt := selectStatement(
		"SELECT "+tourColumns,
		"FROM tours t",
		"WHERE t.secret_tour = false AND t.start_location IS NOT NULL AND "+fmt.Sprintf(angleExpr, "$1", "$2")+" <= $3",
		"ORDER BY t.created_at DESC, t.id ASC",
	)
	return r.list(ctx, "ToursWithin", stmt, lat, lng, radius/earthRadius)
}

// Distances returns the distance from (lat, lng) to the start of every
// public tour, nearest first. Distances are metres times multiplier.
func (r *TourRepository) Distances(ctx context.Context, lat, lng, multiplier float64) (out []domain.TourDistance, err error) {
	stmt := selectStatement(
		"SELECT t.id, t.name, "+fmt.Sprintf(angleExpr, "$1", "$2")+fmt.Sprintf(" * %d * $3::float8 AS distance", earthRadiusMetres),
		"FROM tours t",
		"WHERE t.secret_tour = false AND t.start_location IS NOT NULL",
		"ORDER BY distance ASC",
	)

	ctx, end := database.TraceQuery(ctx, "TourDistances", stmt)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, stmt, lat, lng, multiplier)
	if err != nil {
		return nil, fmt.Errorf("tour distances: %w", err)
	}
	defer rows.Close()

	out = []domain.TourDistance{}
	for rows.Next() {
		var d domain.TourDistance
		if err = rows.Scan(&d.ID, &d.Name, &d.Distance); err != nil {
			return nil, fmt.Errorf("scan tour distance row: %w", err)
		}
		out = append(out, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tour distance rows: %w", err)
	}
	return out, nil
}

// BookedBy returns the tours userID holds a booking for.
func (r *TourRepository) BookedBy(ctx context.Context, userID string) ([]domain.Tour, error) {
	stmt := selectStatement(
		"SELECT "+tourColumns,
		"FROM tours t",
		"WHERE t.id IN (SELECT b.tour_id FROM bookings b WHERE b.user_id = $1)",
		"ORDER BY t.created_at DESC, t.id ASC",
	)
	return r.list(ctx, "ToursBookedBy", stmt, userID)
}

func (r *TourRepository) list(ctx context.Context, op, stmt string, args ...any) (tours []domain.Tour, err error) {
	ctx, end := database.TraceQuery(ctx, op, stmt)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	defer rows.Close()

	tours = []domain.Tour{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tour row: %w", err)
		}
		tours = append(tours, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tour rows: %w", err)
	}
	return tours, nil
}

func insertGuides(ctx context.Context, tx pgx.Tx, tourID string, guideIDs []string) error {
	if len(guideIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO tour_guides (tour_id, user_id, position)
		SELECT $1, g.id, g.ord
		FROM unnest($2::uuid[]) WITH ORDINALITY AS g(id, ord)
		ON CONFLICT (tour_id, user_id) DO NOTHING`,
		tourID, guideIDs,
	)
	return translate(err, "tour guides", "insert tour guides")
}

func marshalLocations(t *domain.Tour) (startLocation, locations []byte, err error) {
	if t.StartLocation != nil {
		if startLocation, err = json.Marshal(t.StartLocation); err != nil {
			return nil, nil, fmt.Errorf("marshal start location: %w", err)
		}
	}
	points := t.Locations
	if points == nil {
		points = []domain.GeoPoint{}
	}
	if locations, err = json.Marshal(points); err != nil {
		return nil, nil, fmt.Errorf("marshal locations: %w", err)
	}
	return startLocation, locations, nil
}

func scanTour(row rowScanner) (*domain.Tour, error) {
	var (
		t             domain.Tour
		startLocation []byte
		locations     []byte
		guides        []byte
	)
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Slug,
		&t.Duration,
		&t.MaxGroupSize,
		&t.Difficulty,
		&t.RatingsAverage,
		&t.RatingsQuantity,
		&t.Price,
		&t.PriceDiscount,
		&t.Summary,
		&t.Description,
		&t.ImageCover,
		&t.Images,
		&t.StartDates,
		&t.SecretTour,
		&startLocation,
		&locations,
		&t.CreatedAt,
		&guides,
	); err != nil {
		return nil, err
	}

	if len(startLocation) > 0 {
		t.StartLocation = &domain.GeoPoint{}
		if err := json.Unmarshal(startLocation, t.StartLocation); err != nil {
			return nil, fmt.Errorf("unmarshal start location: %w", err)
		}
	}
	if len(locations) > 0 {
		if err := json.Unmarshal(locations, &t.Locations); err != nil {
			return nil, fmt.Errorf("unmarshal locations: %w", err)
		}
	}
	if len(guides) > 0 {
		if err := json.Unmarshal(guides, &t.Guides); err != nil {
			return nil, fmt.Errorf("unmarshal guides: %w", err)
		}
	}

	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
	if t.Locations == nil {
		t.Locations = []domain.GeoPoint{}
	}
	if t.Guides == nil {
		t.Guides = []domain.Guide{}
	}
	return &t, nil
}
