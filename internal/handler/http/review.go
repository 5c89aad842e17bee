package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/query"
	"github.com/AkshatJain-webdev/Natours/internal/service"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/httputil"
	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
)

var errMissingTour = apperrors.InvalidInput("Please provide tour id")

// ReviewHandler serves reviews, both at /reviews and nested under
// /tours/{tourId}/reviews.
type ReviewHandler struct {
	resource Resource[domain.Review]
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(reviews *service.ReviewService, writeErr middleware.ErrorFunc) *ReviewHandler {
	return &ReviewHandler{resource: Resource[domain.Review]{
		Name:     "review",
		Store:    reviews,
		Schema:   domain.ReviewSchema,
		WriteErr: writeErr,
	}}
}

// CreateReviewRequest is the JSON body of POST /reviews. The author is
// always the caller.
type CreateReviewRequest struct {
	ReviewBody string  `json:"reviewBody"`
	Rating     float64 `json:"rating"`
	Tour       string  `json:"tour" validate:"omitempty,uuid"`
}

// List handles GET /api/v1/reviews and GET /api/v1/tours/{tourId}/reviews
func (h *ReviewHandler) List() http.HandlerFunc {
	return GetAll(h.resource, func(r *http.Request) ([]query.Scope, error) {
		raw := chi.URLParam(r, "tourId")
		if raw == "" {
			return nil, nil
		}
		tourID, err := httputil.ParseUUID(raw, "tour")
		if err != nil {
			return nil, err
		}
		return []query.Scope{domain.ReviewsOfTour(tourID)}, nil
	})
}

// Create handles POST /api/v1/reviews and POST /api/v1/tours/{tourId}/reviews
func (h *ReviewHandler) Create() http.HandlerFunc {
	return CreateOne(h.resource, func(r *http.Request, in *CreateReviewRequest) (*domain.Review, error) {
		user, err := currentUser(r)
		if err != nil {
			return nil, err
		}

		tourID := in.Tour
		if raw := chi.URLParam(r, "tourId"); raw != "" {
			id, err := httputil.ParseUUID(raw, "tour")
			if err != nil {
				return nil, err
			}
			tourID = id
		}
		if tourID == "" {
			return nil, errMissingTour
		}

		return &domain.Review{
			ReviewBody: in.ReviewBody,
			Rating:     in.Rating,
			TourID:     tourID,
			UserID:     user.ID,
		}, nil
	})
}

// Get handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) Get() http.HandlerFunc { return GetOne(h.resource) }

// Update handles PATCH /api/v1/reviews/{id}
func (h *ReviewHandler) Update() http.HandlerFunc {
	return UpdateOne(h.resource, JSONPatch("reviewBody", "rating"))
}

// Delete handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) Delete() http.HandlerFunc { return DeleteOne(h.resource) }
