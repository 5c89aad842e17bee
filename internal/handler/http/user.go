package http

import (
	"net/http"
	"time"

	"github.com/AkshatJain-webdev/Natours/internal/domain"
	"github.com/AkshatJain-webdev/Natours/internal/imaging"
	"github.com/AkshatJain-webdev/Natours/internal/service"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/httputil"
	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
)

// errCreateUser answers the admin POST /users, which has no meaning.
var errCreateUser = &apperrors.AppError{
	Code:    "ROUTE_NOT_DEFINED",
	Message: "This route is not defined! Please use /signup instead",
	Status:  http.StatusInternalServerError,
	Err:     apperrors.ErrInternal,
}

// UserHandler serves self-service and admin user endpoints.
type UserHandler struct {
	users    *service.UserService
	images   *imaging.Processor
	resource Resource[domain.User]
	writeErr middleware.ErrorFunc
	now      func() time.Time
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(users *service.UserService, images *imaging.Processor, writeErr middleware.ErrorFunc) *UserHandler {
	return &UserHandler{
		users:  users,
		images: images,
		resource: Resource[domain.User]{
			Name:     "user",
			Store:    users,
			Schema:   domain.UserSchema,
			WriteErr: writeErr,
		},
		writeErr: writeErr,
		now:      time.Now,
	}
}

// updateMeRequest is the JSON body of PATCH /users/updateMe. Password
// fields are only decoded to be refused.
type updateMeRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

// Me handles GET /api/v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"user": user})
}

// UpdateMe handles PATCH /api/v1/users/updateMe. A multipart body may
// carry a photo field.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	var in service.UpdateMeInput
	saved := &uploads{images: h.images, kind: imaging.KindUsers}
	if isMultipart(r) {
		in, err = h.updateMeFromForm(r, user.ID, saved)
	} else {
		in, err = updateMeFromJSON(r)
	}
	if err != nil {
		saved.discard(r.Context())
		h.writeErr(w, r, err)
		return
	}

	updated, err := h.users.UpdateMe(r.Context(), user.ID, in)
	if err != nil {
		saved.discard(r.Context())
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"user": updated})
}

func updateMeFromJSON(r *http.Request) (service.UpdateMeInput, error) {
	var req updateMeRequest
	if err := decodeJSON(r, &req); err != nil {
		return service.UpdateMeInput{}, err
	}
	if req.Password != nil || req.PasswordConfirm != nil {
		return service.UpdateMeInput{}, service.ErrPasswordViaUpdateMe
	}
	return service.UpdateMeInput{Name: req.Name, Email: req.Email}, nil
}

func (h *UserHandler) updateMeFromForm(r *http.Request, userID string, saved *uploads) (service.UpdateMeInput, error) {
	var in service.UpdateMeInput
	form, err := parseUpload(r)
	if err != nil {
		return in, err
	}
	if _, ok := form.Value["password"]; ok {
		return in, service.ErrPasswordViaUpdateMe
	}
	if _, ok := form.Value["passwordConfirm"]; ok {
		return in, service.ErrPasswordViaUpdateMe
	}
	if v, ok := form.Value["name"]; ok && len(v) > 0 {
		in.Name = &v[0]
	}
	if v, ok := form.Value["email"]; ok && len(v) > 0 {
		in.Email = &v[0]
	}

	if files := form.File["photo"]; len(files) > 0 {
		name := imaging.UserPhotoName(userID, h.now())
		if err := saved.save(r, files[0], name, imaging.UserPhotoSize, imaging.UserPhotoSize); err != nil {
			return in, err
		}
		in.Photo = &name
	}
	return in, nil
}

// DeleteMe handles DELETE /api/v1/users/deleteMe
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := h.users.DeleteMe(r.Context(), user.ID); err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// MyTours handles GET /api/v1/users/me/tours
func (h *UserHandler) MyTours(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	tours, err := h.users.MyTours(r.Context(), user.ID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httputil.WriteList(w, len(tours), map[string]any{"data": nonNil(tours)})
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.writeErr(w, r, errCreateUser)
}

// List handles GET /api/v1/users
func (h *UserHandler) List() http.HandlerFunc { return GetAll(h.resource, nil) }

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get() http.HandlerFunc { return GetOne(h.resource) }

// Update handles PATCH /api/v1/users/{id}
func (h *UserHandler) Update() http.HandlerFunc {
	return UpdateOne(h.resource, JSONPatch("name", "email", "role", "photo"))
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete() http.HandlerFunc { return DeleteOne(h.resource) }
