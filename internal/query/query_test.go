package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
)

var testSchema = Schema{
	Fields: map[string]Field{
		"id":             {Column: "id", Kind: UUID},
		"name":           {Column: "name"},
		"difficulty":     {Column: "difficulty", Multi: true},
		"duration":       {Column: "duration", Kind: Integer, Multi: true},
		"price":          {Column: "price", Kind: Number, Multi: true},
		"ratingsAverage": {Column: "ratings_average", Kind: Number, Multi: true},
		"secretTour":     {Column: "secret_tour", Kind: Bool},
		"createdAt":      {Column: "created_at", Kind: Time},
	},
}

func build(t *testing.T, raw string) *Query {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	q, err := New(values, testSchema).Filter().Sort().LimitFields().Paginate().Build()
	require.NoError(t, err)
	return q
}

func TestSort_RendersDirectionsWithTieBreaker(t *testing.T) {
	q := build(t, "sort=-ratingsAverage,price")
	assert.Equal(t, "ORDER BY ratings_average DESC, price ASC, id ASC", q.OrderBy())
}

func TestSort_DefaultsToNewestFirst(t *testing.T) {
	q := build(t, "")
	assert.Equal(t, "ORDER BY created_at DESC, id ASC", q.OrderBy())
}

func TestSort_UnknownFieldsIgnored(t *testing.T) {
	q := build(t, "sort=password,-price")
	assert.Equal(t, "ORDER BY price DESC, id ASC", q.OrderBy())

	q = build(t, "sort=password")
	assert.Equal(t, "ORDER BY created_at DESC, id ASC", q.OrderBy())
}

func TestFilter_EqualityAndOperators(t *testing.T) {
	q := build(t, "difficulty=easy&duration[gte]=5&price[lt]=1500&page=2&limit=3")

	where, args := q.Where(0)
	assert.Equal(t, "WHERE difficulty = $1 AND duration >= $2 AND price < $3", where)
	assert.Equal(t, []any{"easy", 5, 1500.0}, args)
	assert.Equal(t, "LIMIT 3 OFFSET 3", q.LimitOffset())
}

func TestFilter_IgnoresUnknownFieldsAndOperators(t *testing.T) {
	q := build(t, "passwordHash=x&price[ne]=5&role=admin")
	where, args := q.Where(0)
	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestFilter_RepeatedParameters(t *testing.T) {
	q := build(t, "difficulty=easy&difficulty=medium&name=a&name=The+Sea+Explorer")

	where, args := q.Where(0)
	assert.Equal(t, "WHERE difficulty IN ($1, $2) AND name = $3", where)
	assert.Equal(t, []any{"easy", "medium", "The Sea Explorer"}, args)
}

func TestFilter_CastFailure(t *testing.T) {
	values := url.Values{"price[gte]": {"cheap"}}
	_, err := New(values, testSchema).Filter().Sort().Build()
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Invalid price: cheap.", appErr.Message)
}

func TestFilter_CastKinds(t *testing.T) {
	q := build(t, "secretTour=true&createdAt[gt]=2021-03-01&id=5C8A1D5B-0190-4F3D-9C1F-000000000001")
	_, args := q.Where(0)
	require.Len(t, args, 3)
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), args[0])
	assert.Equal(t, "5c8a1d5b-0190-4f3d-9c1f-000000000001", args[1])
	assert.Equal(t, true, args[2])
}

func TestWhere_ScopesComeFirstAndRenumber(t *testing.T) {
	q := build(t, "difficulty=easy")
	q = q.WithScope(Scope{SQL: "secret_tour = false"}, Scope{SQL: "tour_id = ?", Args: []any{"t-1"}})

	where, args := q.Where(1)
	assert.Equal(t, "WHERE secret_tour = false AND tour_id = $2 AND difficulty = $3", where)
	assert.Equal(t, []any{"t-1", "easy"}, args)
}

func TestWithScope_DoesNotMutateOriginal(t *testing.T) {
	q := build(t, "")
	_ = q.WithScope(Scope{SQL: "active = true"})
	where, _ := q.Where(0)
	assert.Empty(t, where)
}

func TestPaginate_InvalidValues(t *testing.T) {
	_, err := New(url.Values{"page": {"zero"}}, testSchema).Paginate().Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestCheckPage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		total   int
		wantErr bool
	}{
		{"no page never fails", "limit=5", 0, false},
		{"no page past end never fails", "", 0, false},
		{"explicit page inside range", "page=2&limit=2", 3, false},
		{"explicit page at end", "page=3&limit=2", 4, true},
		{"explicit first page of empty set", "page=1", 0, true},
		{"page whose offset overflows int", "page=1000000000000000000&limit=15", 1000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := build(t, tt.raw)
			err := q.CheckPage(tt.total)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrNotFound))
			assert.Contains(t, err.Error(), "This page does not exist")
		})
	}
}

func TestLimitOffset_HugePageStaysNonNegative(t *testing.T) {
	q := build(t, "page=1000000000000000000&limit=15")
	assert.Equal(t, fmt.Sprintf("LIMIT 15 OFFSET %d", math.MaxInt), q.LimitOffset())
}

func TestNeedsCount(t *testing.T) {
	assert.False(t, build(t, "limit=2").NeedsCount())
	assert.True(t, build(t, "page=1").NeedsCount())
}

type doc struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Summary string  `json:"summary"`
}

func TestProject(t *testing.T) {
	d := doc{ID: "t-1", Name: "The Forest Hiker", Price: 397, Summary: "Breathtaking hike"}

	out, err := build(t, "").Project(d)
	require.NoError(t, err)
	assert.Equal(t, d, out)

	out, err = build(t, "fields=name,price").Project(d)
	require.NoError(t, err)
	m := out.(map[string]json.RawMessage)
	assert.ElementsMatch(t, []string{"id", "name", "price"}, keys(m))

	out, err = build(t, "fields=-summary,-id").Project(d)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"id", "name", "price"}, keys(out.(map[string]json.RawMessage)))
}

func TestExpands(t *testing.T) {
	q, err := New(url.Values{}, testSchema).Expand("reviews").Build()
	require.NoError(t, err)
	assert.True(t, q.Expands("reviews"))
	assert.False(t, q.Expands("guides"))
	assert.Empty(t, q.OrderBy())
	assert.Empty(t, q.LimitOffset())
}

func keys(m map[string]json.RawMessage) []string {
	return slices.Collect(maps.Keys(m))
}

func TestScoped(t *testing.T) {
	q := Scoped(Scope{SQL: "t.secret_tour = false"}, Scope{SQL: "t.slug = ?", Args: []any{"the-sea-explorer"}})
	where, args := q.Where(0)
	assert.Equal(t, "WHERE t.secret_tour = false AND t.slug = $1", where)
	assert.Equal(t, []any{"the-sea-explorer"}, args)
	assert.False(t, q.NeedsCount())
	assert.NoError(t, q.CheckPage(0))
}
