package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AkshatJain-webdev/Natours/internal/query"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/httputil"
	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
	"github.com/AkshatJain-webdev/Natours/pkg/validator"
)

// Store is what the generic handlers need from a service.
type Store[T any] interface {
	Create(ctx context.Context, doc *T) error
	Get(ctx context.Context, id string, expand ...string) (*T, error)
	Update(ctx context.Context, id string, patch map[string]any) (*T, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, q *query.Query) ([]T, error)
	Count(ctx context.Context, q *query.Query) (int, error)
}

// Resource binds a Store to the key its documents are rendered under and
// the schema its list queries are parsed with.
type Resource[T any] struct {
	Name     string
	Store    Store[T]
	Schema   query.Schema
	WriteErr middleware.ErrorFunc
}

// ScopeFunc derives base conditions for a list from the request, e.g. a
// nested route parameter.
type ScopeFunc func(r *http.Request) ([]query.Scope, error)

// PatchFunc extracts an update patch from the request.
type PatchFunc func(r *http.Request) (map[string]any, error)

// JSONPatch decodes a JSON object and keeps only the allowed keys.
func JSONPatch(allowed ...string) PatchFunc {
	return func(r *http.Request) (map[string]any, error) {
		var body map[string]any
		if err := decodeJSON(r, &body); err != nil {
			return nil, err
		}
		return filterKeys(body, allowed...), nil
	}
}

func filterKeys(body map[string]any, allowed ...string) map[string]any {
	out := make(map[string]any, len(allowed))
	for _, k := range allowed {
		if v, ok := body[k]; ok {
			out[k] = v
		}
	}
	return out
}

func (res Resource[T]) id(r *http.Request) (string, error) {
	return httputil.ParseUUID(chi.URLParam(r, "id"), res.Name)
}

// CreateOne decodes an In, checks its validate tags and inserts the
// document build makes of it.
func CreateOne[T, In any](res Resource[T], build func(r *http.Request, in *In) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decodeJSON(r, &in); err != nil {
			res.WriteErr(w, r, err)
			return
		}
		if err := validator.Validate(in); err != nil {
			res.WriteErr(w, r, err)
			return
		}
		doc, err := build(r, &in)
		if err != nil {
			res.WriteErr(w, r, err)
			return
		}
		if err := res.Store.Create(r.Context(), doc); err != nil {
			res.WriteErr(w, r, err)
			return
		}
		httputil.WriteData(w, http.StatusCreated, map[string]any{res.Name: doc})
	}
}

// GetOne renders the document named by the id parameter with the given
// relations expanded.
func GetOne[T any](res Resource[T], expand ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := res.id(r)
		if err != nil {
			res.WriteErr(w, r, err)
			return
		}
		doc, err := res.Store.Get(r.Context(), id, expand...)
		if err != nil {
			res.WriteErr(w, r, err)
			return
		}
		httputil.WriteData(w, http.StatusOK, map[string]any{res.Name: doc})
	}
}

// UpdateOne applies the patch decode extracts. The store re-validates the
// merged document.
func UpdateOne[T any](res Resource[T], decode PatchFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := res.id(r)
		if err != nil {
			res.WriteErr(w, r, err)
			return
		}
		patch, err := decode(r)
		if err != nil {
			res.WriteErr(w, r, err)
			return
		}
		doc, err := res.Store.Update(r.Context(), id, patch)
		if err != nil {
			res.WriteErr(w, r, err)
			return
		}
		httputil.WriteData(w, http.StatusOK, map[string]any{res.Name: doc})
	}
}

// DeleteOne removes the document named by the id parameter.
func DeleteOne[T any](res Resource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := res.id(r)
		if err != nil {
			res.WriteErr(w, r, err)
			return
		}
		if err := res.Store.Delete(r.Context(), id); err != nil {
			res.WriteErr(w, r, err)
			return
		}
		httputil.WriteNoContent(w)
	}
}

// GetAll lists documents matching the query string. scope may be nil.
func GetAll[T any](res Resource[T], scope ScopeFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var scopes []query.Scope
		if scope != nil {
			var err error
			if scopes, err = scope(r); err != nil {
				res.WriteErr(w, r, err)
				return
			}
		}

		q, err := query.New(r.URL.Query(), res.Schema).
			Filter().Sort().LimitFields().Paginate().
			Scope(scopes...).
			Build()
		if err != nil {
			res.WriteErr(w, r, err)
			return
		}

		if q.NeedsCount() {
			total, err := res.Store.Count(r.Context(), q)
			if err != nil {
				res.WriteErr(w, r, err)
				return
			}
			if err := q.CheckPage(total); err != nil {
				res.WriteErr(w, r, err)
				return
			}
		}

		docs, err := res.Store.Find(r.Context(), q)
		if err != nil {
			res.WriteErr(w, r, err)
			return
		}

		out, err := project(q, docs)
		if err != nil {
			res.WriteErr(w, r, apperrors.Internal(err))
			return
		}
		httputil.WriteList(w, len(docs), map[string]any{"data": out})
	}
}

func project[T any](q *query.Query, docs []T) (any, error) {
	if !q.Projected() {
		return nonNil(docs), nil
	}
	out := make([]any, len(docs))
	for i := range docs {
		p, err := q.Project(docs[i])
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
