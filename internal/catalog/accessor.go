package catalog

import (
	"context"

	"github.com/trendora/searchsync/internal/domain"
)

// Accessor is the read-facade over the host catalog store that document
// building consumes. Localized lookups take a locale code; passing an empty
// locale means "raw, untranslated names".
//
// Implementations return pkg/errors.NotFound for missing products and
// vendors, and (nil, nil) for absent translations.
type Accessor interface {
	// GetProduct fetches a product by primary key.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// ListProductIDs returns the IDs of all products, for bulk reindexing.
	ListProductIDs(ctx context.Context) ([]string, error)

	// GetVariants returns the product's variants in catalog order.
	GetVariants(ctx context.Context, productID string) ([]domain.Variant, error)

	// GetCategoryAncestors returns the ancestry chain of a category,
	// root-first and self-inclusive, with translated names for the given
	// locale where they exist.
	GetCategoryAncestors(ctx context.Context, categoryID, locale string) ([]domain.Category, error)

	// GetProductTranslation returns the product's translation for the
	// locale, or nil when none exists.
	GetProductTranslation(ctx context.Context, productID, locale string) (*domain.Translation, error)

	// GetProductAttributes returns product-level attribute assignments in
	// order, with translations for the locale attached.
	GetProductAttributes(ctx context.Context, productID, locale string) ([]domain.AttributeAssignment, error)

	// GetVariantAttributes returns variant-level attribute assignments
	// across all of the product's variants, variant order preserved.
	GetVariantAttributes(ctx context.Context, productID, locale string) ([]domain.AttributeAssignment, error)

	// GetChannelListings returns the product's per-channel publication and
	// pricing state.
	GetChannelListings(ctx context.Context, productID string) ([]domain.ChannelListing, error)

	// GetCollections returns the collections the product belongs to.
	GetCollections(ctx context.Context, productID string) ([]domain.Collection, error)

	// GetCollectionTranslations returns the translated names of all of the
	// product's collections for the locale, flattened.
	GetCollectionTranslations(ctx context.Context, productID, locale string) ([]string, error)

	// GetVendor fetches a vendor by primary key.
	GetVendor(ctx context.Context, vendorID string) (*domain.Vendor, error)

	// GetVendorAssociations returns the vendors currently associated with
	// the product.
	GetVendorAssociations(ctx context.Context, productID string) ([]domain.Vendor, error)

	// ClearVendorAssociations removes every vendor association from the
	// product.
	ClearVendorAssociations(ctx context.Context, productID string) error

	// AddVendorAssociation associates a vendor with the product. Adding an
	// existing association is a no-op.
	AddVendorAssociation(ctx context.Context, productID, vendorID string) error

	// GetCelebrities returns the display names of celebrities associated
	// with the product.
	GetCelebrities(ctx context.Context, productID string) ([]string, error)

	// GetProductMedia returns the product's media URLs in display order.
	GetProductMedia(ctx context.Context, productID string) ([]string, error)

	// GetProductThumbnail returns the thumbnail URL, or "" when absent.
	GetProductThumbnail(ctx context.Context, productID string) (string, error)

	// IncrementPopularity atomically adds delta to the product's
	// popularity metadata counter and returns the new value. The increment
	// must be a single storage-level operation; concurrent order
	// placements on the same product must not lose updates.
	IncrementPopularity(ctx context.Context, productID string, delta int) (int64, error)

	// ListAttributeNames returns the names of all attribute definitions
	// for facet enumeration: raw names when locale is empty, otherwise
	// only the names translated into the locale.
	ListAttributeNames(ctx context.Context, locale string) ([]string, error)

	// ListCategoryNames returns the names of all categories for facet
	// enumeration, under the same locale rule as ListAttributeNames.
	ListCategoryNames(ctx context.Context, locale string) ([]string, error)
}
