// Package catalogtest provides a configurable in-memory Accessor for unit
// tests.
package catalogtest

import (
	"context"
	"strconv"
	"sync"

	"github.com/trendora/searchsync/internal/domain"
	apperrors "github.com/trendora/searchsync/pkg/errors"
)

// Fake is an in-memory catalog.Accessor. Populate the exported fields with
// fixture data; locale-dependent lookups are keyed with Key(id, locale).
// Errs injects an error per method name, overriding the fixture data.
type Fake struct {
	mu sync.Mutex

	Products     map[string]*domain.Product
	ProductOrder []string
	Variants     map[string][]domain.Variant
	Ancestors    map[string][]domain.Category // Key(categoryID, locale)
	Translations map[string]*domain.Translation
	ProductAttrs map[string][]domain.AttributeAssignment // Key(productID, locale)
	VariantAttrs map[string][]domain.AttributeAssignment // Key(productID, locale)
	Listings     map[string][]domain.ChannelListing
	Collections  map[string][]domain.Collection
	CollectionTr map[string][]string // Key(productID, locale)
	Vendors      map[string]*domain.Vendor
	Associations map[string][]string // productID -> vendor IDs
	Celebrities  map[string][]string
	Media        map[string][]string
	Thumbnails   map[string]string
	AttrNames    map[string][]string // locale ("" = raw) -> names
	CatNames     map[string][]string

	Errs map[string]error

	// ClearedAssociations records products whose vendor set was cleared.
	ClearedAssociations []string
}

// New returns an empty Fake ready for fixture population.
func New() *Fake {
	return &Fake{
		Products:     make(map[string]*domain.Product),
		Variants:     make(map[string][]domain.Variant),
		Ancestors:    make(map[string][]domain.Category),
		Translations: make(map[string]*domain.Translation),
		ProductAttrs: make(map[string][]domain.AttributeAssignment),
		VariantAttrs: make(map[string][]domain.AttributeAssignment),
		Listings:     make(map[string][]domain.ChannelListing),
		Collections:  make(map[string][]domain.Collection),
		CollectionTr: make(map[string][]string),
		Vendors:      make(map[string]*domain.Vendor),
		Associations: make(map[string][]string),
		Celebrities:  make(map[string][]string),
		Media:        make(map[string][]string),
		Thumbnails:   make(map[string]string),
		AttrNames:    make(map[string][]string),
		CatNames:     make(map[string][]string),
		Errs:         make(map[string]error),
	}
}

// Key builds the composite key used by locale-dependent fixture maps.
func Key(id, locale string) string {
	return id + "/" + locale
}

func (f *Fake) err(method string) error {
	return f.Errs[method]
}

func (f *Fake) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if err := f.err("GetProduct"); err != nil {
		return nil, err
	}
	p, ok := f.Products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return p, nil
}

func (f *Fake) ListProductIDs(_ context.Context) ([]string, error) {
	if err := f.err("ListProductIDs"); err != nil {
		return nil, err
	}
	if f.ProductOrder != nil {
		return f.ProductOrder, nil
	}
	ids := make([]string, 0, len(f.Products))
	for id := range f.Products {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *Fake) GetVariants(_ context.Context, productID string) ([]domain.Variant, error) {
	if err := f.err("GetVariants"); err != nil {
		return nil, err
	}
	return f.Variants[productID], nil
}

func (f *Fake) GetCategoryAncestors(_ context.Context, categoryID, locale string) ([]domain.Category, error) {
	if err := f.err("GetCategoryAncestors"); err != nil {
		return nil, err
	}
	return f.Ancestors[Key(categoryID, locale)], nil
}

func (f *Fake) GetProductTranslation(_ context.Context, productID, locale string) (*domain.Translation, error) {
	if err := f.err("GetProductTranslation"); err != nil {
		return nil, err
	}
	return f.Translations[Key(productID, locale)], nil
}

func (f *Fake) GetProductAttributes(_ context.Context, productID, locale string) ([]domain.AttributeAssignment, error) {
	if err := f.err("GetProductAttributes"); err != nil {
		return nil, err
	}
	return f.ProductAttrs[Key(productID, locale)], nil
}

func (f *Fake) GetVariantAttributes(_ context.Context, productID, locale string) ([]domain.AttributeAssignment, error) {
	if err := f.err("GetVariantAttributes"); err != nil {
		return nil, err
	}
	return f.VariantAttrs[Key(productID, locale)], nil
}

func (f *Fake) GetChannelListings(_ context.Context, productID string) ([]domain.ChannelListing, error) {
	if err := f.err("GetChannelListings"); err != nil {
		return nil, err
	}
	return f.Listings[productID], nil
}

func (f *Fake) GetCollections(_ context.Context, productID string) ([]domain.Collection, error) {
	if err := f.err("GetCollections"); err != nil {
		return nil, err
	}
	return f.Collections[productID], nil
}

func (f *Fake) GetCollectionTranslations(_ context.Context, productID, locale string) ([]string, error) {
	if err := f.err("GetCollectionTranslations"); err != nil {
		return nil, err
	}
	return f.CollectionTr[Key(productID, locale)], nil
}

func (f *Fake) GetVendor(_ context.Context, vendorID string) (*domain.Vendor, error) {
	if err := f.err("GetVendor"); err != nil {
		return nil, err
	}
	v, ok := f.Vendors[vendorID]
	if !ok {
		return nil, apperrors.NotFound("vendor", vendorID)
	}
	return v, nil
}

func (f *Fake) GetVendorAssociations(_ context.Context, productID string) ([]domain.Vendor, error) {
	if err := f.err("GetVendorAssociations"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	vendors := make([]domain.Vendor, 0, len(f.Associations[productID]))
	for _, vendorID := range f.Associations[productID] {
		if v, ok := f.Vendors[vendorID]; ok {
			vendors = append(vendors, *v)
		}
	}
	return vendors, nil
}

func (f *Fake) ClearVendorAssociations(_ context.Context, productID string) error {
	if err := f.err("ClearVendorAssociations"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Associations, productID)
	f.ClearedAssociations = append(f.ClearedAssociations, productID)
	return nil
}

func (f *Fake) AddVendorAssociation(_ context.Context, productID, vendorID string) error {
	if err := f.err("AddVendorAssociation"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.Associations[productID] {
		if existing == vendorID {
			return nil
		}
	}
	f.Associations[productID] = append(f.Associations[productID], vendorID)
	return nil
}

func (f *Fake) GetCelebrities(_ context.Context, productID string) ([]string, error) {
	if err := f.err("GetCelebrities"); err != nil {
		return nil, err
	}
	return f.Celebrities[productID], nil
}

func (f *Fake) GetProductMedia(_ context.Context, productID string) ([]string, error) {
	if err := f.err("GetProductMedia"); err != nil {
		return nil, err
	}
	return f.Media[productID], nil
}

func (f *Fake) GetProductThumbnail(_ context.Context, productID string) (string, error) {
	if err := f.err("GetProductThumbnail"); err != nil {
		return "", err
	}
	return f.Thumbnails[productID], nil
}

func (f *Fake) IncrementPopularity(_ context.Context, productID string, delta int) (int64, error) {
	if err := f.err("IncrementPopularity"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Products[productID]
	if !ok {
		return 0, apperrors.NotFound("product", productID)
	}
	next := p.Popularity() + int64(delta)
	if p.Metadata == nil {
		p.Metadata = make(map[string]string)
	}
	p.Metadata[domain.MetadataKeyPopularity] = strconv.FormatInt(next, 10)
	return next, nil
}

func (f *Fake) ListAttributeNames(_ context.Context, locale string) ([]string, error) {
	if err := f.err("ListAttributeNames"); err != nil {
		return nil, err
	}
	return f.AttrNames[locale], nil
}

func (f *Fake) ListCategoryNames(_ context.Context, locale string) ([]string, error) {
	if err := f.err("ListCategoryNames"); err != nil {
		return nil, err
	}
	return f.CatNames[locale], nil
}
