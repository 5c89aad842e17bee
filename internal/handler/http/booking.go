package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/service"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/httputil"
	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
)

// BookingHandler serves checkout and booking administration.
type BookingHandler struct {
	bookings *service.BookingService
	resource Resource[domain.Booking]
	writeErr middleware.ErrorFunc
}

// NewBookingHandler creates a new booking HTTP handler.
func NewBookingHandler(bookings *service.BookingService, writeErr middleware.ErrorFunc) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		resource: Resource[domain.Booking]{
			Name:     "booking",
			Store:    bookings,
			Schema:   domain.BookingSchema,
			WriteErr: writeErr,
		},
		writeErr: writeErr,
	}
}

// CreateBookingRequest is the admin body of POST /bookings.
type CreateBookingRequest struct {
	Tour  string  `json:"tour" validate:"required,uuid"`
	User  string  `json:"user" validate:"required,uuid"`
	Price float64 `json:"price"`
	Paid  *bool   `json:"paid"`
}

// CheckoutSession handles GET /api/v1/bookings/checkout-session/{tourId}
func (h *BookingHandler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	tourID, err := httputil.ParseUUID(chi.URLParam(r, "tourId"), "tour")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	session, err := h.bookings.CheckoutSession(r.Context(), user, tourID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  apperrors.OutcomeSuccess,
		"session": session,
	})
}

// CheckoutComplete handles GET /api/v1/bookings/checkout-complete. It
// records the booking the success URL describes and redirects home.
func (h *BookingHandler) CheckoutComplete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tourID, userID, rawPrice := q.Get("tour"), q.Get("user"), q.Get("price")
	if tourID == "" || userID == "" || rawPrice == "" {
		h.writeErr(w, r, apperrors.InvalidInput("tour, user and price are required"))
		return
	}
	price, err := strconv.ParseFloat(rawPrice, 64)
	if err != nil {
		h.writeErr(w, r, apperrors.InvalidInput("Invalid price: "+rawPrice+"."))
		return
	}

	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok || (p.UserID != userID && p.Role != domain.RoleAdmin) {
		h.writeErr(w, r, service.ErrBookingNotYours)
		return
	}

	if _, err := h.bookings.CompleteCheckout(r.Context(), tourID, userID, price); err != nil {
		h.writeErr(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// List handles GET /api/v1/bookings
func (h *BookingHandler) List() http.HandlerFunc { return GetAll(h.resource, nil) }

// Create handles POST /api/v1/bookings
func (h *BookingHandler) Create() http.HandlerFunc {
	return CreateOne(h.resource, func(_ *http.Request, in *CreateBookingRequest) (*domain.Booking, error) {
		b := &domain.Booking{TourID: in.Tour, UserID: in.User, Price: in.Price, Paid: true}
		if in.Paid != nil {
			b.Paid = *in.Paid
		}
		return b, nil
	})
}

// Get handles GET /api/v1/bookings/{id}
func (h *BookingHandler) Get() http.HandlerFunc { return GetOne(h.resource) }

// Update handles PATCH /api/v1/bookings/{id}
func (h *BookingHandler) Update() http.HandlerFunc {
	return UpdateOne(h.resource, JSONPatch("price", "paid"))
}

// Delete handles DELETE /api/v1/bookings/{id}
func (h *BookingHandler) Delete() http.HandlerFunc { return DeleteOne(h.resource) }
