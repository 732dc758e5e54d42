package ports

import (
	"context"
	"io"
	"time"
)

// StoredImage describes one file held by an ImageStore.
type StoredImage struct {
	Ref     string
	Size    int64
	ModTime time.Time
}

// ImageStore persists uploaded image files and addresses them by the public
// reference under which they are served.
type ImageStore interface {
	// Save writes the content under a fresh collision-free name derived from
	// originalName's extension and returns its reference.
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	// Ref returns the canonical reference for a stored file's reference or
	// bare file name.
	Ref(name string) string
	Delete(ctx context.Context, ref string) error
	Exists(ctx context.Context, ref string) (bool, error)
	List(ctx context.Context) ([]StoredImage, error)
}

// UploadedImage is a file already persisted by the ingress layer.
type UploadedImage struct {
	OriginalName string
	Ref          string
}
