// Package seed loads the development dataset into an empty database and
// wipes it again.
//
// The JSON files use the document layout the data was first exported in:
// every record carries an "_id", tours list guides by user id, and reviews
// name their tour and user. Ids that are not UUIDs are mapped onto
// name-based UUIDs, so cross references survive the import.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/repository"
	"github.com/AkshatJain-webdev/Natours/pkg/database"
)

// File names read by Load.
const (
	ToursFile   = "tours.json"
	UsersFile   = "users.json"
	ReviewsFile = "reviews.json"
)

// Dataset is a decoded set of seed files.
type Dataset struct {
	Tours   []domain.Tour
	Users   []domain.User
	Reviews []domain.Review
}

type userRecord struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Photo    string `json:"photo"`
	Active   *bool  `json:"active"`
	Password string `json:"password"`
}

type reviewRecord struct {
	ID         string  `json:"_id"`
	Review     string  `json:"review"`
	ReviewBody string  `json:"reviewBody"`
	Rating     float64 `json:"rating"`
	Tour       string  `json:"tour"`
	User       string  `json:"user"`
}

// ID maps a seed id onto a UUID. UUIDs pass through unchanged, anything
// else gets a stable name-based UUID.
func ID(raw string) string {
	if raw == "" {
		return uuid.NewString()
	}
	if id, err := uuid.Parse(raw); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(raw)).String()
}

// Load reads the three seed files from dir.
func Load(dir string) (*Dataset, error) {
	var ds Dataset

	var tours []json.RawMessage
	if err := readJSON(filepath.Join(dir, ToursFile), &tours); err != nil {
		return nil, err
	}
	for i, raw := range tours {
		t, err := decodeTour(raw)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", ToursFile, i, err)
		}
		ds.Tours = append(ds.Tours, t)
	}

	var users []userRecord
	if err := readJSON(filepath.Join(dir, UsersFile), &users); err != nil {
		return nil, err
	}
	for _, rec := range users {
		ds.Users = append(ds.Users, rec.user())
	}

	var reviews []reviewRecord
	if err := readJSON(filepath.Join(dir, ReviewsFile), &reviews); err != nil {
		return nil, err
	}
	for _, rec := range reviews {
		ds.Reviews = append(ds.Reviews, rec.review())
	}

	return &ds, nil
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func decodeTour(raw json.RawMessage) (domain.Tour, error) {
	var t domain.Tour
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, err
	}
	var ref struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil {
		return t, err
	}
	if ref.ID != "" {
		t.ID = ref.ID
	}
	t.ID = ID(t.ID)
	for i := range t.Guides {
		t.Guides[i].ID = ID(t.Guides[i].ID)
	}
	return t, nil
}

func (r userRecord) user() domain.User {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return domain.User{
		ID:           ID(r.ID),
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		Photo:        r.Photo,
		Active:       active,
		PasswordHash: r.Password,
	}
}

func (r reviewRecord) review() domain.Review {
	body := r.ReviewBody
	if body == "" {
		body = r.Review
	}
	return domain.Review{
		ID:         ID(r.ID),
		ReviewBody: body,
		Rating:     r.Rating,
		TourID:     ID(r.Tour),
		UserID:     ID(r.User),
	}
}

// Seeder writes a Dataset through the repositories.
type Seeder struct {
	db      database.DBTX
	users   repository.UserRepository
	tours   repository.TourRepository
	reviews repository.ReviewRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewSeeder creates a Seeder. db is used for the bulk delete.
func NewSeeder(
	db database.DBTX,
	users repository.UserRepository,
	tours repository.TourRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{db: db, users: users, tours: tours, reviews: reviews, logger: logger, now: time.Now}
}

// Import inserts users, then tours, then reviews, and finally refreshes the
// rating aggregate of every reviewed tour. Users skip validation because
// their passwords arrive already hashed.
func (s *Seeder) Import(ctx context.Context, ds *Dataset) error {
	now := s.now().UTC()

	for i := range ds.Users {
		u := &ds.Users[i]
		u.Normalize()
		u.CreatedAt = now
		if err := s.users.Create(ctx, u); err != nil {
			return fmt.Errorf("import user %s: %w", u.Email, err)
		}
	}

	for i := range ds.Tours {
		t := &ds.Tours[i]
		if t.RatingsAverage == 0 {
			t.RatingsAverage = domain.DefaultRatingsAverage
		}
		t.Normalize()
		if err := t.Validate(); err != nil {
			return fmt.Errorf("import tour %q: %w", t.Name, err)
		}
		t.CreatedAt = now
		if err := s.tours.Create(ctx, t); err != nil {
			return fmt.Errorf("import tour %q: %w", t.Name, err)
		}
	}

	reviewed := make(map[string]struct{})
	var order []string
	for i := range ds.Reviews {
		r := &ds.Reviews[i]
		r.Normalize()
		if err := r.Validate(); err != nil {
			return fmt.Errorf("import review %s: %w", r.ID, err)
		}
		r.CreatedAt = now
		if err := s.reviews.Create(ctx, r); err != nil {
			return fmt.Errorf("import review %s: %w", r.ID, err)
		}
		if _, ok := reviewed[r.TourID]; !ok {
			reviewed[r.TourID] = struct{}{}
			order = append(order, r.TourID)
		}
	}
	for _, tourID := range order {
		if err := s.reviews.RecalculateRatings(ctx, tourID); err != nil {
			return fmt.Errorf("recalculate ratings of %s: %w", tourID, err)
		}
	}

	s.logger.InfoContext(ctx, "Data successfully loaded!",
		slog.Int("users", len(ds.Users)),
		slog.Int("tours", len(ds.Tours)),
		slog.Int("reviews", len(ds.Reviews)),
	)
	return nil
}

// Delete removes every review, tour and user and reports how many rows
// went. Bookings and guide assignments follow their tours.
func (s *Seeder) Delete(ctx context.Context) (int64, error) {
	var total int64
	for _, table := range []string{"reviews", "tours", "users"} {
		tag, err := s.db.Exec(ctx, "DELETE FROM "+table)
		if err != nil {
			return total, fmt.Errorf("delete %s: %w", table, err)
		}
		total += tag.RowsAffected()
	}
	s.logger.InfoContext(ctx, fmt.Sprintf("Successfully deleted %d documents", total))
	return total, nil
}
