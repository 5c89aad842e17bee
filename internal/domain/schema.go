package domain

import "github.com/AkshatJain-webdev/Natours/internal/query"

// Table aliases used by the repositories. Schema columns are qualified
// with them so filters can run against joined selects.
const (
	AliasUsers    = "u"
	AliasTours    = "t"
	AliasReviews  = "r"
	AliasBookings = "b"
)

// TourSchema lists the filterable and sortable tour fields. Only the
// parameter-pollution whitelist accepts repeated values.
var TourSchema = query.Schema{
	Fields: map[string]query.Field{
		"id":              {Column: "t.id", Kind: query.UUID},
		"name":            {Column: "t.name"},
		"slug":            {Column: "t.slug"},
		"duration":        {Column: "t.duration", Kind: query.Integer, Multi: true},
		"maxGroupSize":    {Column: "t.max_group_size", Kind: query.Integer, Multi: true},
		"difficulty":      {Column: "t.difficulty", Multi: true},
		"ratingsAverage":  {Column: "t.ratings_average", Kind: query.Number, Multi: true},
		"ratingsQuantity": {Column: "t.ratings_quantity", Kind: query.Integer, Multi: true},
		"price":           {Column: "t.price", Kind: query.Number, Multi: true},
		"priceDiscount":   {Column: "t.price_discount", Kind: query.Number},
		"secretTour":      {Column: "t.secret_tour", Kind: query.Bool},
		"createdAt":       {Column: "t.created_at", Kind: query.Time},
	},
	DefaultSort: "-createdAt",
}

// UserSchema lists the filterable and sortable user fields.
var UserSchema = query.Schema{
	Fields: map[string]query.Field{
		"id":        {Column: "u.id", Kind: query.UUID},
		"name":      {Column: "u.name"},
		"email":     {Column: "u.email"},
		"role":      {Column: "u.role", Multi: true},
		"createdAt": {Column: "u.created_at", Kind: query.Time},
	},
	DefaultSort: "-createdAt",
}

// ReviewSchema lists the filterable and sortable review fields.
var ReviewSchema = query.Schema{
	Fields: map[string]query.Field{
		"id":        {Column: "r.id", Kind: query.UUID},
		"rating":    {Column: "r.rating", Kind: query.Number, Multi: true},
		"tour":      {Column: "r.tour_id", Kind: query.UUID},
		"user":      {Column: "r.user_id", Kind: query.UUID},
		"createdAt": {Column: "r.created_at", Kind: query.Time},
	},
	DefaultSort: "-createdAt",
}

// BookingSchema lists the filterable and sortable booking fields.
var BookingSchema = query.Schema{
	Fields: map[string]query.Field{
		"id":        {Column: "b.id", Kind: query.UUID},
		"tour":      {Column: "b.tour_id", Kind: query.UUID},
		"user":      {Column: "b.user_id", Kind: query.UUID},
		"price":     {Column: "b.price", Kind: query.Number},
		"paid":      {Column: "b.paid", Kind: query.Bool},
		"createdAt": {Column: "b.created_at", Kind: query.Time},
	},
	DefaultSort: "-createdAt",
}

// ActiveUsers hides users who deleted their account.
var ActiveUsers = query.Scope{SQL: "u.active = true"}

// PublicTours hides secret tours.
var PublicTours = query.Scope{SQL: "t.secret_tour = false"}

// TourByID selects one tour by id.
func TourByID(id string) query.Scope {
	return query.Scope{SQL: "t.id = ?", Args: []any{id}}
}

// TourBySlug selects tours by slug.
func TourBySlug(slug string) query.Scope {
	return query.Scope{SQL: "t.slug = ?", Args: []any{slug}}
}

// ReviewsOfTour restricts reviews to one tour.
func ReviewsOfTour(tourID string) query.Scope {
	return query.Scope{SQL: "r.tour_id = ?", Args: []any{tourID}}
}

// BookingsOfUser restricts bookings to one user.
func BookingsOfUser(userID string) query.Scope {
	return query.Scope{SQL: "b.user_id = ?", Args: []any{userID}}
}

// Relations that can be expanded on read.
const (
	ExpandReviews = "reviews"
)
