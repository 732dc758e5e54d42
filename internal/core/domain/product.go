package domain

import "time"

// Product is a catalog entry together with the stored image files it references.
// Every entry in Images and MainImage is a reference issued by the image store.
type Product struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	MainImage   string    `json:"mainImage"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Score is the text relevance of a search hit; zero outside search results.
	Score float64 `json:"score,omitempty"`
}

// Validate checks the document-level schema: required fields present and
// counts non-negative.
func (p *Product) Validate() error {
	ve := &ValidationError{}
	if p.SKU == "" {
		ve.Add("sku", "is required")
	}
	if p.Name == "" {
		ve.Add("name", "is required")
	}
	if p.Description == "" {
		ve.Add("description", "is required")
	}
	if p.Quantity < 0 {
		ve.Add("quantity", "must be greater than or equal to 0")
	}
	if p.Price < 0 {
		ve.Add("price", "must be greater than or equal to 0")
	}
	if len(p.Images) == 0 {
		ve.Add("images", "at least one image is required")
	}
	if p.MainImage == "" {
		ve.Add("mainImage", "is required")
	}
	if ve.Empty() {
		return nil
	}
	return ve
}

// ImageRefs returns every image reference held by the product, MainImage
// included, without duplicates.
func (p *Product) ImageRefs() []string {
	seen := make(map[string]struct{}, len(p.Images)+1)
	refs := make([]string, 0, len(p.Images)+1)
	for _, ref := range append(append([]string{}, p.Images...), p.MainImage) {
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// HasImage reports whether ref is one of the product's Images.
func (p *Product) HasImage(ref string) bool {
	for _, img := range p.Images {
		if img == ref {
			return true
		}
	}
	return false
}
