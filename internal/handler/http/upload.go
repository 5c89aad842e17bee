package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/AkshatJain-webdev/Natours/internal/imaging"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
	"github.com/AkshatJain-webdev/Natours/pkg/logger"
)

// parseUpload reads a multipart body of at most imaging.MaxUploadSize.
func parseUpload(r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, imaging.MaxUploadSize)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, apperrors.InvalidInput("Invalid multipart body: " + err.Error())
	}
	return r.MultipartForm, nil
}

// saveUpload resizes one uploaded image to width x height and stores it
// under name in the kind folder.
func saveUpload(r *http.Request, p *imaging.Processor, fh *multipart.FileHeader, kind, name string, width, height int) error {
	if ct := fh.Header.Get("Content-Type"); ct != "" && !imaging.IsImageContentType(ct) {
		return imaging.ErrNotAnImage
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := p.Resize(f, width, height, imaging.JPEGQuality)
	if err != nil {
		return err
	}
	return p.Save(r.Context(), kind, name, data)
}

// uploads remembers the images one request has written so they can be
// removed again if the update they belong to is rejected.
type uploads struct {
	images *imaging.Processor
	kind   string
	names  []string
}

func (u *uploads) save(r *http.Request, fh *multipart.FileHeader, name string, width, height int) error {
	if err := saveUpload(r, u.images, fh, u.kind, name, width, height); err != nil {
		return err
	}
	u.names = append(u.names, name)
	return nil
}

func (u *uploads) discard(ctx context.Context) {
	for _, name := range u.names {
		if err := u.images.Remove(u.kind, name); err != nil {
			logger.FromContext(ctx).WarnContext(ctx, "orphaned upload not removed",
				slog.String("name", name),
				slog.String("error", err.Error()),
			)
		}
	}
	u.names = nil
}
