package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/repository"
)

const (
	toursJSON = `[{
		"_id": "5c88fa8cf4afda39709c2955",
		"name": "The Sea Explorer",
		"duration": 7,
		"maxGroupSize": 15,
		"difficulty": "medium",
		"price": 497,
		"summary": "Exploring the jaw-dropping US east coast by foot and by boat",
		"imageCover": "tour-2-cover.jpg",
		"startLocation": {"type": "Point", "coordinates": [-80.185942, 25.774772], "address": "301 Biscayne Blvd, Miami, FL 33132, USA"},
		"guides": ["5c8a22c62f8fb814b56fa18b"]
	}]`
	usersJSON = `[
		{"_id": "5c8a22c62f8fb814b56fa18b", "name": "Miyah Myles", "email": "Miyah@Example.com", "role": "lead-guide", "password": "$2a$12$hash"},
		{"_id": "5c8a1dfa2f8fb814b56fa181", "name": "Lourdes Browning", "email": "loulou@example.com", "role": "user", "active": false, "password": "$2a$12$hash"}
	]`
	reviewsJSON = `[{
		"_id": "5c8a355b14eb5c17645c9109",
		"review": "Tempus curabitur faucibus auctor bibendum duis gravida tincidunt litora himenaeos facilisis vivamus vehicula potenti semper fusce suspendisse sagittis!",
		"rating": 4,
		"user": "5c8a1dfa2f8fb814b56fa181",
		"tour": "5c88fa8cf4afda39709c2955"
	}]`
)

func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{ToursFile: toursJSON, UsersFile: usersJSON, ReviewsFile: reviewsJSON} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestID(t *testing.T) {
	const uuidID = "0b9f1c1e-8c1a-4b4e-9a59-2b1f0d6c5a11"
	assert.Equal(t, uuidID, ID(uuidID))

	mapped := ID("5c88fa8cf4afda39709c2955")
	assert.Len(t, mapped, 36)
	assert.Equal(t, mapped, ID("5c88fa8cf4afda39709c2955"))
	assert.NotEqual(t, mapped, ID("5c88fa8cf4afda39709c2956"))

	assert.NotEqual(t, ID(""), ID(""))
}

func TestLoad_MapsCrossReferences(t *testing.T) {
	ds, err := Load(writeDataset(t))
	require.NoError(t, err)

	require.Len(t, ds.Tours, 1)
	require.Len(t, ds.Users, 2)
	require.Len(t, ds.Reviews, 1)

	tour, guide, reviewer, review := ds.Tours[0], ds.Users[0], ds.Users[1], ds.Reviews[0]
	assert.Equal(t, ID("5c88fa8cf4afda39709c2955"), tour.ID)
	require.Len(t, tour.Guides, 1)
	assert.Equal(t, guide.ID, tour.Guides[0].ID)

	assert.Equal(t, "$2a$12$hash", guide.PasswordHash)
	assert.True(t, guide.Active)
	assert.False(t, reviewer.Active)

	assert.Equal(t, tour.ID, review.TourID)
	assert.Equal(t, reviewer.ID, review.UserID)
	assert.Contains(t, review.ReviewBody, "Tempus curabitur")
}

func TestLoad_MissingFile(t *testing.T) {
	dir := writeDataset(t)
	require.NoError(t, os.Remove(filepath.Join(dir, ReviewsFile)))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ReviewsFile)
}

// ============================================================================
// Import
// ============================================================================

type fakeUsers struct {
	repository.UserRepository
	created []domain.User
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.created = append(f.created, *u)
	return nil
}

type fakeTours struct {
	repository.TourRepository
	created []domain.Tour
}

func (f *fakeTours) Create(_ context.Context, t *domain.Tour) error {
	f.created = append(f.created, *t)
	return nil
}

type fakeReviews struct {
	repository.ReviewRepository
	created      []domain.Review
	recalculated []string
	createErr    error
}

func (f *fakeReviews) Create(_ context.Context, r *domain.Review) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *r)
	return nil
}

func (f *fakeReviews) RecalculateRatings(_ context.Context, tourID string) error {
	f.recalculated = append(f.recalculated, tourID)
	return nil
}

func TestImport(t *testing.T) {
	ds, err := Load(writeDataset(t))
	require.NoError(t, err)

	users, tours, reviews := &fakeUsers{}, &fakeTours{}, &fakeReviews{}
	s := NewSeeder(nil, users, tours, reviews, quietLogger())

	require.NoError(t, s.Import(context.Background(), ds))

	require.Len(t, users.created, 2)
	assert.Equal(t, "miyah@example.com", users.created[0].Email)

	require.Len(t, tours.created, 1)
	assert.Equal(t, "the-sea-explorer", tours.created[0].Slug)
	assert.Equal(t, domain.DefaultRatingsAverage, tours.created[0].RatingsAverage)

	require.Len(t, reviews.created, 1)
	assert.Equal(t, []string{tours.created[0].ID}, reviews.recalculated)
}

func TestImport_StopsOnReviewFailure(t *testing.T) {
	ds, err := Load(writeDataset(t))
	require.NoError(t, err)

	reviews := &fakeReviews{createErr: errors.New("duplicate")}
	s := NewSeeder(nil, &fakeUsers{}, &fakeTours{}, reviews, quietLogger())

	err = s.Import(context.Background(), ds)
	require.Error(t, err)
	assert.Empty(t, reviews.recalculated)
}

func TestImport_RejectsInvalidTour(t *testing.T) {
	ds := &Dataset{Tours: []domain.Tour{{Name: "Short"}}}
	tours := &fakeTours{}
	s := NewSeeder(nil, &fakeUsers{}, tours, &fakeReviews{}, quietLogger())

	err := s.Import(context.Background(), ds)
	require.Error(t, err)
	assert.Empty(t, tours.created)
}

// ============================================================================
// Delete
// ============================================================================

func TestDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM reviews").WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec("DELETE FROM tours").WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("DELETE FROM users").WillReturnResult(pgxmock.NewResult("DELETE", 4))

	s := NewSeeder(mock, nil, nil, nil, quietLogger())
	n, err := s.Delete(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 9, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM reviews").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM tours").WillReturnError(errors.New("connection reset"))

	s := NewSeeder(mock, nil, nil, nil, quietLogger())
	n, err := s.Delete(context.Background())

	require.Error(t, err)
	assert.EqualValues(t, 1, n)
	assert.Contains(t, err.Error(), "delete tours")
}
