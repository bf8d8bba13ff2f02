package indexer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trendora/searchsync/internal/catalog"
	"github.com/trendora/searchsync/internal/domain"
)

// Builder assembles locale-specific search documents from catalog state.
//
// Missing auxiliary data (translations, attributes, categories, collections,
// celebrities, media) degrades the document rather than failing the build;
// only the product itself, its variants, its channel listings and a broken
// vendor reference are fatal.
type Builder struct {
	catalog    catalog.Accessor
	baseLocale string
	logger     *slog.Logger
}

// NewBuilder creates a document builder. baseLocale is the catalog's default
// locale, whose documents carry raw untranslated names.
func NewBuilder(accessor catalog.Accessor, baseLocale string, logger *slog.Logger) *Builder {
	return &Builder{
		catalog:    accessor,
		baseLocale: baseLocale,
		logger:     logger,
	}
}

// Build produces the document for one product in one locale. It returns
// (nil, nil) when the product has no eligible priced channel, meaning the
// product must not appear in the index at all.
//
// Building is not read-only: it reconciles the product's vendor
// associations from its metadata as a side effect.
func (b *Builder) Build(ctx context.Context, productID, locale string) (*domain.Document, error) {
	log := b.logger.With(slog.String("product_id", productID), slog.String("locale", locale))
	base := locale == b.baseLocale

	product, err := b.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	variants, err := b.catalog.GetVariants(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get variants: %w", err)
	}

	listings, err := b.catalog.GetChannelListings(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get channel listings: %w", err)
	}

	channels := ResolveChannels(listings, BasePrice(variants))
	if len(channels) == 0 {
		return nil, nil
	}

	name, description := b.localizedNameAndDescription(ctx, product, locale, base, log)

	vendors, err := b.reconcileVendors(ctx, product, log)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ObjectID:    product.Slug,
		Name:        name,
		Description: description,
		Categories:  b.categories(ctx, product, locale, base, log),
		Attributes:  b.attributes(ctx, productID, locale, base, log),
		Channels:    channels,
		SKUs:        skus(variants),
		Vendors:     vendors,
		Celebrities: b.celebrities(ctx, productID, log),
		Collections: b.collections(ctx, productID, locale, base, log),
		Gender:      product.MetadataValue(domain.MetadataKeyGender, ""),
		Popularity:  product.Popularity(),
	}
	doc.Images, doc.Thumbnail = b.media(ctx, productID, log)
	doc.Tags = domain.DocumentTags{
		Celebrities: doc.Celebrities,
		Gender:      doc.Gender,
	}

	return doc, nil
}

func (b *Builder) localizedNameAndDescription(ctx context.Context, product *domain.Product, locale string, base bool, log *slog.Logger) (string, string) {
	if base {
		return product.Name, product.Description
	}

	tr, err := b.catalog.GetProductTranslation(ctx, product.ID, locale)
	if err != nil {
		log.Warn("product translation lookup failed", slog.String("error", err.Error()))
		return "", ""
	}
	if tr == nil {
		return "", ""
	}
	return tr.Name, tr.Description
}

func (b *Builder) categories(ctx context.Context, product *domain.Product, locale string, base bool, log *slog.Logger) map[string]string {
	if product.CategoryID == nil {
		return nil
	}

	chainLocale := locale
	if base {
		chainLocale = ""
	}

	chain, err := b.catalog.GetCategoryAncestors(ctx, *product.CategoryID, chainLocale)
	if err != nil {
		log.Warn("category ancestors lookup failed", slog.String("error", err.Error()))
		return nil
	}

	names := CategoryNames(chain, base)
	if len(names) == 0 {
		return nil
	}
	return FlattenHierarchy(names)
}

func (b *Builder) attributes(ctx context.Context, productID, locale string, base bool, log *slog.Logger) []map[string][]string {
	attrLocale := locale
	if base {
		attrLocale = ""
	}

	assignments, err := b.catalog.GetProductAttributes(ctx, productID, attrLocale)
	if err != nil {
		log.Warn("product attributes lookup failed", slog.String("error", err.Error()))
		assignments = nil
	}

	variantAssignments, err := b.catalog.GetVariantAttributes(ctx, productID, attrLocale)
	if err != nil {
		log.Warn("variant attributes lookup failed", slog.String("error", err.Error()))
	} else {
		assignments = append(assignments, variantAssignments...)
	}

	return ProjectAttributes(assignments, base)
}

// reconcileVendors enforces that the vendor metadata reference is the sole
// source of truth for vendor associations: the referenced vendor becomes
// the product's only association, and a product without a reference keeps
// none.
func (b *Builder) reconcileVendors(ctx context.Context, product *domain.Product, log *slog.Logger) ([]string, error) {
	if err := b.catalog.ClearVendorAssociations(ctx, product.ID); err != nil {
		log.Warn("clear vendor associations failed", slog.String("error", err.Error()))
	}

	vendorID := product.MetadataValue(domain.MetadataKeyVendor, "")
	if vendorID == "" {
		return []string{}, nil
	}

	vendor, err := b.catalog.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("resolve vendor %q: %w", vendorID, err)
	}

	if err := b.catalog.AddVendorAssociation(ctx, product.ID, vendor.ID); err != nil {
		log.Warn("add vendor association failed", slog.String("error", err.Error()))
	}

	associated, err := b.catalog.GetVendorAssociations(ctx, product.ID)
	if err != nil {
		log.Warn("vendor associations lookup failed", slog.String("error", err.Error()))
		return []string{vendor.BrandName}, nil
	}

	names := make([]string, 0, len(associated))
	seen := make(map[string]bool, len(associated))
	for _, v := range associated {
		if seen[v.BrandName] {
			continue
		}
		seen[v.BrandName] = true
		names = append(names, v.BrandName)
	}
	return names, nil
}

func (b *Builder) celebrities(ctx context.Context, productID string, log *slog.Logger) []string {
	celebrities, err := b.catalog.GetCelebrities(ctx, productID)
	if err != nil {
		log.Warn("celebrities lookup failed", slog.String("error", err.Error()))
	}
	if celebrities == nil {
		celebrities = []string{}
	}
	return celebrities
}

func (b *Builder) collections(ctx context.Context, productID, locale string, base bool, log *slog.Logger) []string {
	if base {
		collections, err := b.catalog.GetCollections(ctx, productID)
		if err != nil {
			log.Warn("collections lookup failed", slog.String("error", err.Error()))
		}
		slugs := make([]string, 0, len(collections))
		for _, c := range collections {
			slugs = append(slugs, c.Slug)
		}
		return slugs
	}

	names, err := b.catalog.GetCollectionTranslations(ctx, productID, locale)
	if err != nil {
		log.Warn("collection translations lookup failed", slog.String("error", err.Error()))
	}
	if names == nil {
		names = []string{}
	}
	return names
}

// media returns at most two image URLs plus the thumbnail. The thumbnail
// never counts against the image cap.
func (b *Builder) media(ctx context.Context, productID string, log *slog.Logger) ([]string, string) {
	urls, err := b.catalog.GetProductMedia(ctx, productID)
	if err != nil {
		log.Warn("product media lookup failed", slog.String("error", err.Error()))
	}
	if len(urls) > 2 {
		urls = urls[:2]
	}
	if urls == nil {
		urls = []string{}
	}

	thumbnail, err := b.catalog.GetProductThumbnail(ctx, productID)
	if err != nil {
		log.Warn("thumbnail lookup failed", slog.String("error", err.Error()))
		thumbnail = ""
	}

	return urls, thumbnail
}

func skus(variants []domain.Variant) []string {
	list := make([]string, 0, len(variants))
	for _, v := range variants {
		list = append(list, v.SKU)
	}
	return list
}
