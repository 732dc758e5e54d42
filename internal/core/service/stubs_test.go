package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

const testPrefix = "/uploads/images"

// stubImageStore keeps files in memory, keyed by reference.
type stubImageStore struct {
	files     map[string]time.Time
	deleteErr map[string]error
	deleted   []string
	listErr   error
	n         int
}

func newStubImageStore() *stubImageStore {
	return &stubImageStore{files: make(map[string]time.Time), deleteErr: make(map[string]error)}
}

func (s *stubImageStore) Save(_ context.Context, originalName string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.n++
	ref := fmt.Sprintf("%s/img-%d%s", testPrefix, s.n, path.Ext(originalName))
	s.files[ref] = time.Now()
	return ref, nil
}

func (s *stubImageStore) Ref(name string) string {
	if strings.HasPrefix(name, testPrefix+"/") {
		return name
	}
	return testPrefix + "/" + name
}

func (s *stubImageStore) Delete(_ context.Context, ref string) error {
	if err := s.deleteErr[ref]; err != nil {
		return err
	}
	s.deleted = append(s.deleted, ref)
	delete(s.files, ref)
	return nil
}

func (s *stubImageStore) Exists(_ context.Context, ref string) (bool, error) {
	_, ok := s.files[ref]
	return ok, nil
}

func (s *stubImageStore) List(_ context.Context) ([]ports.StoredImage, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]ports.StoredImage, 0, len(s.files))
	for ref, mod := range s.files {
		out = append(out, ports.StoredImage{Ref: ref, Size: 1, ModTime: mod})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out, nil
}

// upload simulates the ingress layer having saved a file.
func (s *stubImageStore) upload(originalName string) ports.UploadedImage {
	ref, _ := s.Save(context.Background(), originalName, strings.NewReader("x"))
	return ports.UploadedImage{OriginalName: originalName, Ref: ref}
}

type stubProductRepo struct {
	products  map[string]*domain.Product
	nextID    int
	createErr error
	updateErr error
	deleteErr error
	refsErr   error
	searchHit []*domain.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[string]*domain.Product)}
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	c.Images = append([]string(nil), p.Images...)
	return &c
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.products {
		if existing.SKU == p.SKU {
			return domain.ErrDuplicateSku
		}
	}
	r.nextID++
	p.ID = fmt.Sprintf("prod-%d", r.nextID)
	r.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (r *stubProductRepo) FindAll(_ context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range r.products {
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *domain.Product) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	r.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) Search(_ context.Context, _ string) ([]*domain.Product, error) {
	return r.searchHit, nil
}

func (r *stubProductRepo) ReferencedImages(_ context.Context) (map[string]struct{}, error) {
	if r.refsErr != nil {
		return nil, r.refsErr
	}
	held := make(map[string]struct{})
	for _, p := range r.products {
		for _, ref := range p.ImageRefs() {
			held[ref] = struct{}{}
		}
	}
	return held, nil
}

var errBoom = errors.New("boom")

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
