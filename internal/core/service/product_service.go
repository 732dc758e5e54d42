package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
	"github.com/storefront/catalog-api/internal/pkg/metrics"
)

// ProductService keeps each product document consistent with the image
// files it references. Files and documents live in separate stores with no
// joint commit, so every failed write is unwound by deleting the files it
// would have orphaned.
type ProductService struct {
	repo  ports.ProductRepository
	store ports.ImageStore
	log   zerolog.Logger
}

func NewProductService(repo ports.ProductRepository, store ports.ImageStore, log zerolog.Logger) *ProductService {
	return &ProductService{repo: repo, store: store, log: log}
}

// Create stores a new product that references the already saved uploads.
// On any failure the uploads are deleted before the error is returned.
func (s *ProductService) Create(ctx context.Context, in ports.ProductInput, uploads []ports.UploadedImage) (p *domain.Product, err error) {
	refs := uploadRefs(uploads)
	defer func() {
		metrics.ProductOperationsTotal.WithLabelValues("create", metrics.Result(err)).Inc()
		if err != nil {
			s.discard(ctx, refs, "compensate")
		}
	}()

	now := time.Now().UTC()
	p = &domain.Product{
		SKU:         strings.TrimSpace(in.SKU),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Images:      refs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ve := &domain.ValidationError{}
	if in.Quantity == nil {
		ve.Add("quantity", "is required")
	} else {
		p.Quantity = *in.Quantity
	}
	if in.Price == nil {
		ve.Add("price", "is required")
	} else {
		p.Price = *in.Price
	}

	if in.MainImage != "" {
		main, err := s.resolveMainImage(ctx, in.MainImage, uploads, refs)
		if err != nil {
			return nil, err
		}
		p.MainImage = main
	}

	if err := p.Validate(); err != nil {
		var docErr *domain.ValidationError
		if errors.As(err, &docErr) {
			for field, msg := range docErr.Fields {
				ve.Add(field, msg)
			}
		}
	}
	if !ve.Empty() {
		return nil, ve
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.log.Info().Str("product_id", p.ID).Str("sku", p.SKU).Int("images", len(p.Images)).Msg("product created")
	return p, nil
}

// Update merges the non-empty fields of in into the stored product. When
// uploads is non-empty it replaces the product's image set and the replaced
// files are released after the document is written; otherwise the image set
// is left untouched.
func (s *ProductService) Update(ctx context.Context, id string, in ports.ProductInput, uploads []ports.UploadedImage) (p *domain.Product, err error) {
	refs := uploadRefs(uploads)
	defer func() {
		metrics.ProductOperationsTotal.WithLabelValues("update", metrics.Result(err)).Inc()
		if err != nil {
			s.discard(ctx, refs, "compensate")
		}
	}()

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	next.Images = append([]string(nil), current.Images...)
	if v := strings.TrimSpace(in.SKU); v != "" {
		next.SKU = v
	}
	if v := strings.TrimSpace(in.Name); v != "" {
		next.Name = v
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		next.Description = v
	}
	if in.Quantity != nil {
		next.Quantity = *in.Quantity
	}
	if in.Price != nil {
		next.Price = *in.Price
	}

	if len(refs) > 0 {
		next.Images = refs
		if in.MainImage == "" && current.HasImage(current.MainImage) {
			next.MainImage = refs[0]
		}
	}
	if in.MainImage != "" {
		main, err := s.resolveMainImage(ctx, in.MainImage, uploads, next.Images)
		if err != nil {
			return nil, err
		}
		next.MainImage = main
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}

	next.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}

	s.release(ctx, subtract(current.ImageRefs(), next.ImageRefs()))
	s.log.Info().Str("product_id", id).Bool("images_replaced", len(refs) > 0).Msg("product updated")
	return &next, nil
}

// Delete removes the product document and then releases its image files.
// File deletion failures are logged and do not fail the operation.
func (s *ProductService) Delete(ctx context.Context, id string) (err error) {
	defer func() {
		metrics.ProductOperationsTotal.WithLabelValues("delete", metrics.Result(err)).Inc()
	}()

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	s.release(ctx, p.ImageRefs())
	s.log.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

// Search returns products matching query ordered by descending relevance.
// No match is an empty, non-nil result.
func (s *ProductService) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	products, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	metrics.SearchResultsCount.Observe(float64(len(products)))
	return products, nil
}

func (s *ProductService) GetAll(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// resolveMainImage maps name to a stored reference. name may be the original
// file name of one of uploads, one of candidates by reference or base name,
// or the reference of any file that exists in the store.
func (s *ProductService) resolveMainImage(ctx context.Context, name string, uploads []ports.UploadedImage, candidates []string) (string, error) {
	name = strings.TrimSpace(name)
	for _, u := range uploads {
		if u.OriginalName == name {
			return u.Ref, nil
		}
	}
	for _, ref := range candidates {
		if ref == name || path.Base(ref) == name {
			return ref, nil
		}
	}

	ref := s.store.Ref(name)
	ok, err := s.store.Exists(ctx, ref)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.NewValidationError("mainImage", "does not reference a stored image")
	}
	return ref, nil
}

// release deletes refs that no live product references any more. If the
// reference set cannot be loaded nothing is deleted; the reaper collects
// whatever is left behind.
func (s *ProductService) release(ctx context.Context, refs []string) {
	if len(refs) == 0 {
		return
	}
	held, err := s.repo.ReferencedImages(ctx)
	if err != nil {
		s.log.Error().Err(err).Strs("paths", refs).Msg("load image references failed, release skipped")
		return
	}

	free := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, ok := held[ref]; ok {
			s.log.Debug().Str("path", ref).Msg("image still referenced, kept")
			continue
		}
		free = append(free, ref)
	}
	s.discard(ctx, free, "release")
}

// discard deletes refs from the store, logging each failure with its path.
func (s *ProductService) discard(ctx context.Context, refs []string, reason string) {
	for _, ref := range refs {
		err := s.store.Delete(context.WithoutCancel(ctx), ref)
		metrics.ImageDeletionsTotal.WithLabelValues(reason, metrics.Result(err)).Inc()
		if err != nil {
			s.log.Error().Err(err).Str("path", ref).Str("reason", reason).Msg("image delete failed")
			continue
		}
		s.log.Debug().Str("path", ref).Str("reason", reason).Msg("image deleted")
	}
}

func uploadRefs(uploads []ports.UploadedImage) []string {
	if len(uploads) == 0 {
		return nil
	}
	refs := make([]string, 0, len(uploads))
	for _, u := range uploads {
		refs = append(refs, u.Ref)
	}
	return refs
}

// subtract returns the elements of a that are not in b.
func subtract(a, b []string) []string {
	keep := make(map[string]struct{}, len(b))
	for _, v := range b {
		keep[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := keep[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
