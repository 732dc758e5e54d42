// Package local stores uploaded images in a flat directory on the local
// filesystem. The directory is served statically under the reference prefix,
// so every reference is a public URL path.
package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

const tempPattern = ".upload-*"

// fileMode lets a static server running as another user read the files.
const fileMode os.FileMode = 0o644

var errInvalidRef = errors.New("reference outside the image store")

// ImageStore is safe for concurrent use.
type ImageStore struct {
	dir    string
	prefix string
}

// NewImageStore creates dir if needed. prefix is the URL path the directory
// is served under, e.g. "/uploads/images".
func NewImageStore(dir, prefix string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.StorageError{Op: "mkdir", Path: dir, Err: err}
	}
	return &ImageStore{dir: dir, prefix: "/" + strings.Trim(prefix, "/")}, nil
}

// Dir returns the directory files are written to.
func (s *ImageStore) Dir() string { return s.dir }

// Prefix returns the URL path prefix of every reference.
func (s *ImageStore) Prefix() string { return s.prefix }

// Save writes r under <uuid><ext> through a temporary file, so a reference is
// only ever issued for a complete file.
func (s *ImageStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + normalizeExt(originalName)
	final := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return "", &domain.StorageError{Op: "create", Path: final, Err: err}
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", &domain.StorageError{Op: "write", Path: final, Err: err}
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", &domain.StorageError{Op: "chmod", Path: final, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", &domain.StorageError{Op: "close", Path: final, Err: err}
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		cleanup()
		return "", &domain.StorageError{Op: "rename", Path: final, Err: err}
	}
	return s.prefix + "/" + name, nil
}

// Ref maps a bare file name to its reference; references pass through.
func (s *ImageStore) Ref(name string) string {
	if strings.HasPrefix(name, s.prefix+"/") {
		return name
	}
	return s.prefix + "/" + strings.TrimPrefix(name, "/")
}

// Delete removes the file behind ref. A file that is already gone is not an error.
func (s *ImageStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.StorageError{Op: "delete", Path: p, Err: err}
	}
	return nil
}

// Exists reports whether ref names a stored file. References outside the
// store never exist.
func (s *ImageStore) Exists(_ context.Context, ref string) (bool, error) {
	p, err := s.resolve(ref)
	if err != nil {
		return false, nil
	}
	info, err := os.Stat(p)
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, &domain.StorageError{Op: "stat", Path: p, Err: err}
	}
}

// List returns every complete file in the store.
func (s *ImageStore) List(ctx context.Context) ([]ports.StoredImage, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Path: s.dir, Err: err}
	}

	out := make([]ports.StoredImage, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, &domain.StorageError{Op: "stat", Path: filepath.Join(s.dir, e.Name()), Err: err}
		}
		out = append(out, ports.StoredImage{
			Ref:     s.prefix + "/" + e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

// resolve converts ref to a file path inside dir.
func (s *ImageStore) resolve(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, s.prefix+"/")
	if !ok || name == "" || name != path.Base(name) || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return "", &domain.StorageError{Op: "resolve", Path: ref, Err: errInvalidRef}
	}
	return filepath.Join(s.dir, name), nil
}

func normalizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".jpeg" {
		return ".jpg"
	}
	return ext
}
