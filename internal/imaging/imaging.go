// Package imaging resizes uploaded photos and stores them under the public
// directory.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder

	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
)

// Upload folders below <public>/img.
const (
	KindUsers = "users"
	KindTours = "tours"
)

// Output sizes and quality.
const (
	UserPhotoSize   = 500
	TourCoverWidth  = 2000
	TourCoverHeight = 1333
	JPEGQuality     = 90
	MaxTourImages   = 3
)

// MaxUploadSize bounds a multipart upload.
const MaxUploadSize int64 = 10 << 20

// ErrNotAnImage rejects uploads that do not decode as an image.
var ErrNotAnImage = apperrors.InvalidInput("Not an image! Please upload only images.")

// IsImageContentType reports whether a declared MIME type is an image.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// Processor resizes images and writes them below dir/img.
type Processor struct {
	dir string
}

// NewProcessor creates a processor rooted at the public directory.
func NewProcessor(publicDir string) *Processor {
	return &Processor{dir: publicDir}
}

// Resize decodes src, crops it to the w:h aspect ratio around its centre,
// scales it to w x h and encodes it as JPEG.
func (p *Processor) Resize(src io.Reader, w, h, quality int) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, ErrNotAnImage
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, coverRect(img.Bounds(), w, h), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// coverRect is the largest centred part of b with the aspect ratio w:h.
func coverRect(b image.Rectangle, w, h int) image.Rectangle {
	sw, sh := b.Dx(), b.Dy()
	if sw*h > sh*w {
		cw := sh * w / h
		x0 := b.Min.X + (sw-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := sw * h / w
	y0 := b.Min.Y + (sh-ch)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
}

// Save writes data to <dir>/img/<kind>/<name>.
func (p *Processor) Save(ctx context.Context, kind, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validName(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	folder := filepath.Join(p.dir, "img", kind)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("create image folder: %w", err)
	}
	if err := os.WriteFile(filepath.Join(folder, name), data, 0o644); err != nil {
		return fmt.Errorf("write image %s: %w", name, err)
	}
	return nil
}

// Remove deletes <dir>/img/<kind>/<name>. A missing file is not an error.
func (p *Processor) Remove(kind, name string) error {
	if !validName(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	err := os.Remove(filepath.Join(p.dir, "img", kind, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image %s: %w", name, err)
	}
	return nil
}

func validName(name string) bool {
	return name != "" && name != "." && name == filepath.Base(name)
}

// UserPhotoName names a user's uploaded photo.
func UserPhotoName(userID string, at time.Time) string {
	return fmt.Sprintf("user-%s-%d.jpeg", userID, at.UnixMilli())
}

// TourCoverName names a tour's cover image.
func TourCoverName(tourID string, at time.Time) string {
	return fmt.Sprintf("tour-%s-%d-cover.jpeg", tourID, at.UnixMilli())
}

// TourImageName names the i-th (0-based) gallery image of a tour.
func TourImageName(tourID string, at time.Time, i int) string {
	return fmt.Sprintf("tour-%s-%d-%d.jpeg", tourID, at.UnixMilli(), i+1)
}
