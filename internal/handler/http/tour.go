package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/imaging"
	"github.com/AkshatJain-webdev/Natours/internal/service"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/httputil"
	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
)

// ErrBadLatLng rejects a malformed lat,lng path segment.
var ErrBadLatLng = apperrors.InvalidInput("Please provide latitude and longitude in the format lat,lng.")

// tourPatchFields are the tour fields a PATCH may change. The slug and
// the rating aggregate are derived.
var tourPatchFields = []string{
	"name", "duration", "maxGroupSize", "difficulty", "price", "priceDiscount",
	"summary", "description", "imageCover", "images", "startDates", "secretTour",
	"startLocation", "locations", "guides",
}

// tourFormFields are the plain text fields accepted next to uploaded images.
var tourFormFields = []string{"name", "difficulty", "summary", "description"}

// TourHandler serves the tour catalogue.
type TourHandler struct {
	tours    *service.TourService
	images   *imaging.Processor
	resource Resource[domain.Tour]
	writeErr middleware.ErrorFunc
	now      func() time.Time
}

// NewTourHandler creates a new tour HTTP handler.
func NewTourHandler(tours *service.TourService, images *imaging.Processor, writeErr middleware.ErrorFunc) *TourHandler {
	return &TourHandler{
		tours:  tours,
		images: images,
		resource: Resource[domain.Tour]{
			Name:     "tour",
			Store:    tours,
			Schema:   domain.TourSchema,
			WriteErr: writeErr,
		},
		writeErr: writeErr,
		now:      time.Now,
	}
}

// List handles GET /api/v1/tours
func (h *TourHandler) List() http.HandlerFunc { return GetAll(h.resource, nil) }

// Get handles GET /api/v1/tours/{id}
func (h *TourHandler) Get() http.HandlerFunc { return GetOne(h.resource, domain.ExpandReviews) }

// Create handles POST /api/v1/tours
func (h *TourHandler) Create() http.HandlerFunc {
	return CreateOne(h.resource, func(_ *http.Request, in *domain.Tour) (*domain.Tour, error) {
		return in, nil
	})
}

// Update handles PATCH /api/v1/tours/{id}. A multipart body may carry an
// imageCover file and up to three images files.
func (h *TourHandler) Update() http.HandlerFunc {
	updateJSON := UpdateOne(h.resource, JSONPatch(tourPatchFields...))
	return func(w http.ResponseWriter, r *http.Request) {
		if !isMultipart(r) {
			updateJSON(w, r)
			return
		}
		h.updateWithImages(w, r)
	}
}

// updateWithImages stores the uploaded images first and removes them again
// when the patch is rejected.
func (h *TourHandler) updateWithImages(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "tour")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	saved := &uploads{images: h.images, kind: imaging.KindTours}
	patch, err := h.imagePatch(r, id, saved)
	if err == nil {
		var tour *domain.Tour
		if tour, err = h.tours.Update(r.Context(), id, patch); err == nil {
			httputil.WriteData(w, http.StatusOK, map[string]any{"tour": tour})
			return
		}
	}
	saved.discard(r.Context())
	h.writeErr(w, r, err)
}

func (h *TourHandler) imagePatch(r *http.Request, id string, saved *uploads) (map[string]any, error) {
	form, err := parseUpload(r)
	if err != nil {
		return nil, err
	}

	patch := make(map[string]any)
	for _, k := range tourFormFields {
		if v := form.Value[k]; len(v) > 0 {
			patch[k] = v[0]
		}
	}

	files := form.File["images"]
	if len(files) > imaging.MaxTourImages {
		return nil, apperrors.InvalidInput(fmt.Sprintf("A tour can have at most %d images.", imaging.MaxTourImages))
	}

	now := h.now()
	if cover := form.File["imageCover"]; len(cover) > 0 {
		name := imaging.TourCoverName(id, now)
		if err := saved.save(r, cover[0], name, imaging.TourCoverWidth, imaging.TourCoverHeight); err != nil {
			return nil, err
		}
		patch["imageCover"] = name
	}

	if len(files) > 0 {
		names := make([]string, 0, len(files))
		for i, fh := range files {
			name := imaging.TourImageName(id, now, i)
			if err := saved.save(r, fh, name, imaging.TourCoverWidth, imaging.TourCoverHeight); err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		patch["images"] = names
	}
	return patch, nil
}

// Delete handles DELETE /api/v1/tours/{id}
func (h *TourHandler) Delete() http.HandlerFunc { return DeleteOne(h.resource) }

// AliasTopCheap rewrites the query string to the five best rated, cheapest
// tours before the list handler runs.
func AliasTopCheap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		values.Set("limit", "5")
		values.Set("sort", "-ratingsAverage,price")

		r2 := r.Clone(r.Context())
		u := *r.URL
		u.RawQuery = values.Encode()
		r2.URL = &u
		next.ServeHTTP(w, r2)
	})
}

// GetBySlug handles GET /api/v1/tours/slug/{slug}
func (h *TourHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	t, err := h.tours.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"tour": t})
}

// Stats handles GET /api/v1/tours/tour-stats
func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tours.Stats(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"stats": nonNil(stats)})
}

// MonthlyPlan handles GET /api/v1/tours/monthly-plan/{year}
func (h *TourHandler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		h.writeErr(w, r, apperrors.InvalidInput("Invalid year: "+raw+"."))
		return
	}
	plan, err := h.tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"plan": nonNil(plan)})
}

// Within handles GET /api/v1/tours/tours-within/{distance}/center/{latlng}/unit/{unit}
func (h *TourHandler) Within(w http.ResponseWriter, r *http.Request) {
	distance, err := parseFloatParam("distance", chi.URLParam(r, "distance"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	tours, err := h.tours.Within(r.Context(), distance, lat, lng, chi.URLParam(r, "unit"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteList(w, len(tours), map[string]any{"data": nonNil(tours)})
}

// Distances handles GET /api/v1/tours/distances/{latlng}/unit/{unit}
func (h *TourHandler) Distances(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	distances, err := h.tours.Distances(r.Context(), lat, lng, chi.URLParam(r, "unit"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteList(w, len(distances), map[string]any{"data": nonNil(distances)})
}

// parseLatLng reads "lat,lng". The segment may arrive percent-encoded.
func parseLatLng(raw string) (lat, lng float64, err error) {
	if s, err := url.PathUnescape(raw); err == nil {
		raw = s
	}
	latS, lngS, ok := strings.Cut(raw, ",")
	if !ok {
		return 0, 0, ErrBadLatLng
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, ErrBadLatLng
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, ErrBadLatLng
	}
	return lat, lng, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
