package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpegBytes = append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), make([]byte, 32)...)
	gifBytes  = []byte("GIF89a\x01\x00\x01\x00")
)

type memStore struct {
	files   map[string][]byte
	saveErr error
	failAt  int
	saves   int
}

func newMemStore() *memStore { return &memStore{files: make(map[string][]byte)} }

func (m *memStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	m.saves++
	if m.saveErr != nil && m.saves == m.failAt {
		return "", m.saveErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	ref := fmt.Sprintf("/uploads/images/%d-%s", m.saves, name)
	m.files[ref] = b
	return ref, nil
}

func (m *memStore) Ref(name string) string { return "/uploads/images/" + name }

func (m *memStore) Delete(_ context.Context, ref string) error {
	delete(m.files, ref)
	return nil
}

func (m *memStore) Exists(_ context.Context, ref string) (bool, error) {
	_, ok := m.files[ref]
	return ok, nil
}

func (m *memStore) List(context.Context) ([]ports.StoredImage, error) { return nil, nil }

type filePart struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func png(name string) filePart  { return filePart{"images", name, "image/png", pngBytes} }
func jpeg(name string) filePart { return filePart{"images", name, "image/jpeg", jpegBytes} }

func accept(t *testing.T, u *ImageUploader, req *http.Request) ([]ports.UploadedImage, error) {
	t.Helper()
	c := newTestEcho().NewContext(req, httptest.NewRecorder())
	return u.Accept(c)
}

func TestImageUploader_Accept(t *testing.T) {
	store := newMemStore()
	u := NewImageUploader(store, 5, 1<<20, zerolog.Nop())

	got, err := accept(t, u, multipartRequest(t, http.MethodPost, "/", nil, png("a.png"), jpeg("b.jpeg")))
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if len(got) != 2 || got[0].OriginalName != "a.png" || got[1].OriginalName != "b.jpeg" {
		t.Fatalf("unexpected uploads: %+v", got)
	}
	if len(store.files) != 2 {
		t.Fatalf("expected 2 stored files, got %d", len(store.files))
	}
}

func TestImageUploader_NotMultipart(t *testing.T) {
	u := NewImageUploader(newMemStore(), 5, 1<<20, zerolog.Nop())
	req := httptest.NewRequest(http.MethodPut, "/", bytes.NewReader([]byte("quantity=3")))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	got, err := accept(t, u, req)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no uploads, got %v, %v", got, err)
	}
}

func TestImageUploader_RejectsBeforeSaving(t *testing.T) {
	cases := []struct {
		name   string
		files  []filePart
		target error
	}{
		{"wrong extension", []filePart{png("a.png"), {"images", "b.gif", "image/png", pngBytes}}, domain.ErrUnsupportedFileType},
		{"wrong declared type", []filePart{png("a.png"), {"images", "b.png", "application/pdf", pngBytes}}, domain.ErrUnsupportedFileType},
		{"disguised content", []filePart{png("a.png"), {"images", "b.png", "image/png", gifBytes}}, domain.ErrUnsupportedFileType},
		{"png named jpg", []filePart{{"images", "b.jpg", "image/png", pngBytes}}, domain.ErrUnsupportedFileType},
		{"declared type disagrees", []filePart{{"images", "b.png", "image/jpeg", pngBytes}}, domain.ErrUnsupportedFileType},
		{"jpeg content as png", []filePart{{"images", "b.png", "image/png", jpegBytes}}, domain.ErrUnsupportedFileType},
		{"too many", []filePart{png("1.png"), png("2.png"), png("3.png")}, domain.ErrValidation},
		{"too large", []filePart{{"images", "big.png", "image/png", append(append([]byte{}, pngBytes...), make([]byte, 200)...)}}, domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			u := NewImageUploader(store, 2, 128, zerolog.Nop())

			_, err := accept(t, u, multipartRequest(t, http.MethodPost, "/", nil, tc.files...))
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
			if store.saves != 0 {
				t.Fatalf("nothing may be saved, got %d saves", store.saves)
			}
		})
	}
}

func TestImageUploader_SaveFailureRemovesEarlierFiles(t *testing.T) {
	store := newMemStore()
	store.saveErr = &domain.StorageError{Op: "write", Path: "x", Err: errors.New("disk full")}
	store.failAt = 2
	u := NewImageUploader(store, 5, 1<<20, zerolog.Nop())

	_, err := accept(t, u, multipartRequest(t, http.MethodPost, "/", nil, png("a.png"), png("b.png")))
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if len(store.files) != 0 {
		t.Fatalf("expected no files left, got %v", store.files)
	}
}
