package handler

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
	"github.com/storefront/catalog-api/internal/pkg/metrics"
)

const imagesField = "images"

// extTypes maps each accepted extension to the only content type it may carry.
var extTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ImageUploader checks and persists the image files of a multipart request.
type ImageUploader struct {
	store    ports.ImageStore
	maxFiles int
	maxBytes int64
	log      zerolog.Logger
}

func NewImageUploader(store ports.ImageStore, maxFiles int, maxBytes int64, log zerolog.Logger) *ImageUploader {
	return &ImageUploader{store: store, maxFiles: maxFiles, maxBytes: maxBytes, log: log}
}

// Accept validates every file under the "images" field before saving any of
// them, then saves them in order. If a save fails the files already saved for
// this request are deleted. Requests that are not multipart carry no files.
func (u *ImageUploader) Accept(c echo.Context) ([]ports.UploadedImage, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form").SetInternal(err)
	}

	files := form.File[imagesField]
	if len(files) > u.maxFiles {
		return nil, domain.NewValidationError(imagesField, fmt.Sprintf("at most %d images are allowed", u.maxFiles))
	}
	for _, fh := range files {
		if err := u.check(fh); err != nil {
			return nil, err
		}
	}

	ctx := c.Request().Context()
	saved := make([]ports.UploadedImage, 0, len(files))
	for _, fh := range files {
		ref, err := u.save(ctx, fh)
		if err != nil {
			u.Discard(ctx, saved)
			return nil, err
		}
		metrics.ImagesStoredTotal.Inc()
		saved = append(saved, ports.UploadedImage{OriginalName: filepath.Base(fh.Filename), Ref: ref})
	}
	return saved, nil
}

// Discard deletes uploads, logging each failure with its path.
func (u *ImageUploader) Discard(ctx context.Context, uploads []ports.UploadedImage) {
	for _, up := range uploads {
		err := u.store.Delete(context.WithoutCancel(ctx), up.Ref)
		metrics.ImageDeletionsTotal.WithLabelValues("compensate", metrics.Result(err)).Inc()
		if err != nil {
			u.log.Error().Err(err).Str("path", up.Ref).Msg("uploaded image delete failed")
		}
	}
}

// check requires the extension, the declared Content-Type and the sniffed
// content to name the same image type.
func (u *ImageUploader) check(fh *multipart.FileHeader) error {
	want, ok := extTypes[strings.ToLower(filepath.Ext(fh.Filename))]
	if !ok {
		return domain.ErrUnsupportedFileType
	}
	declared, _, err := mime.ParseMediaType(fh.Header.Get(echo.HeaderContentType))
	if err != nil || declared != want {
		return domain.ErrUnsupportedFileType
	}
	if u.maxBytes > 0 && fh.Size > u.maxBytes {
		return domain.NewValidationError(imagesField, fmt.Sprintf("each image must be at most %d bytes", u.maxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload").SetInternal(err)
	}
	defer f.Close()

	sniffed, err := mimetype.DetectReader(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload").SetInternal(err)
	}
	if !sniffed.Is(want) {
		return domain.ErrUnsupportedFileType
	}
	return nil
}

func (u *ImageUploader) save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", &domain.StorageError{Op: "open", Path: fh.Filename, Err: err}
	}
	defer f.Close()
	return u.store.Save(ctx, fh.Filename, f)
}
