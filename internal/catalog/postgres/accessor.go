// Package postgres implements the catalog accessor against PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/trendora/searchsync/internal/domain"
	apperrors "github.com/trendora/searchsync/pkg/errors"
)

// DB is the subset of pgxpool.Pool the accessor needs. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Accessor reads catalog state from PostgreSQL.
type Accessor struct {
	db DB
}

// NewAccessor creates a PostgreSQL-backed catalog accessor.
func NewAccessor(db DB) *Accessor {
	return &Accessor{db: db}
}

// GetProduct retrieves a product by its ID.
func (a *Accessor) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, slug, description, category_id, metadata
		FROM products
		WHERE id = $1`

	var (
		p            domain.Product
		metadataJSON []byte
	)

	err := a.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.CategoryID,
		&metadataJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &p, nil
}

// ListProductIDs returns every product ID, oldest first.
func (a *Accessor) ListProductIDs(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM products ORDER BY created_at, id`

	rows, err := a.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list product ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product ids: %w", err)
	}

	return ids, nil
}

// GetVariants returns the product's variants with their per-channel prices,
// in catalog position order.
func (a *Accessor) GetVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	query := `
		SELECT id, product_id, sku
		FROM product_variants
		WHERE product_id = $1
		ORDER BY position, id`

	rows, err := a.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var (
		variants []domain.Variant
		ids      []string
		index    = make(map[string]int)
	)

	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		index[v.ID] = len(variants)
		variants = append(variants, v)
		ids = append(ids, v.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}

	if len(variants) == 0 {
		return nil, nil
	}

	priceQuery := `
		SELECT variant_id, channel_slug, amount, currency
		FROM variant_channel_prices
		WHERE variant_id = ANY($1)
		ORDER BY variant_id, position`

	priceRows, err := a.db.Query(ctx, priceQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("list variant prices: %w", err)
	}
	defer priceRows.Close()

	for priceRows.Next() {
		var (
			variantID string
			price     domain.VariantPrice
		)
		if err := priceRows.Scan(&variantID, &price.ChannelSlug, &price.Amount, &price.Currency); err != nil {
			return nil, fmt.Errorf("scan variant price: %w", err)
		}
		if i, ok := index[variantID]; ok {
			variants[i].Prices = append(variants[i].Prices, price)
		}
	}
	if err := priceRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant prices: %w", err)
	}

	return variants, nil
}

// GetCategoryAncestors walks the category tree upward from categoryID and
// returns the chain root-first, self included, with names translated into the
// locale where a translation row exists.
func (a *Accessor) GetCategoryAncestors(ctx context.Context, categoryID, locale string) ([]domain.Category, error) {
	query := `
		WITH RECURSIVE chain AS (
			SELECT id, name, parent_id, 0 AS depth
			FROM categories
			WHERE id = $1
			UNION ALL
			SELECT c.id, c.name, c.parent_id, chain.depth + 1
			FROM categories c
			JOIN chain ON c.id = chain.parent_id
		)
		SELECT chain.id, chain.name, chain.parent_id, ct.name
		FROM chain
		LEFT JOIN category_translations ct
			ON ct.category_id = chain.id AND ct.locale = $2
		ORDER BY chain.depth DESC`

	rows, err := a.db.Query(ctx, query, categoryID, locale)
	if err != nil {
		return nil, fmt.Errorf("list category ancestors: %w", err)
	}
	defer rows.Close()

	var chain []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.TranslatedName); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		chain = append(chain, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return chain, nil
}

// GetProductTranslation returns the translation row for the locale, nil when
// none exists.
func (a *Accessor) GetProductTranslation(ctx context.Context, productID, locale string) (*domain.Translation, error) {
	query := `
		SELECT name, description
		FROM product_translations
		WHERE product_id = $1 AND locale = $2`

	var tr domain.Translation
	err := a.db.QueryRow(ctx, query, productID, locale).Scan(&tr.Name, &tr.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan product translation: %w", err)
	}

	return &tr, nil
}

// GetProductAttributes returns product-level attribute assignments with
// locale translations attached.
func (a *Accessor) GetProductAttributes(ctx context.Context, productID, locale string) ([]domain.AttributeAssignment, error) {
	query := `
		SELECT att.id, att.name, att_tr.name, val.id, val.name, val_tr.name
		FROM product_attribute_values pav
		JOIN attributes att ON att.id = pav.attribute_id
		LEFT JOIN attribute_translations att_tr
			ON att_tr.attribute_id = att.id AND att_tr.locale = $2
		JOIN attribute_values val ON val.id = pav.value_id
		LEFT JOIN attribute_value_translations val_tr
			ON val_tr.value_id = val.id AND val_tr.locale = $2
		WHERE pav.product_id = $1
		ORDER BY pav.attribute_position, pav.value_position`

	return a.scanAssignments(ctx, query, "product attributes", productID, locale)
}

// GetVariantAttributes returns variant-level attribute assignments across all
// of the product's variants, variant order preserved.
func (a *Accessor) GetVariantAttributes(ctx context.Context, productID, locale string) ([]domain.AttributeAssignment, error) {
	query := `
		SELECT att.id, att.name, att_tr.name, val.id, val.name, val_tr.name
		FROM variant_attribute_values vav
		JOIN product_variants pv ON pv.id = vav.variant_id
		JOIN attributes att ON att.id = vav.attribute_id
		LEFT JOIN attribute_translations att_tr
			ON att_tr.attribute_id = att.id AND att_tr.locale = $2
		JOIN attribute_values val ON val.id = vav.value_id
		LEFT JOIN attribute_value_translations val_tr
			ON val_tr.value_id = val.id AND val_tr.locale = $2
		WHERE pv.product_id = $1
		ORDER BY pv.position, vav.attribute_position, vav.value_position`

	return a.scanAssignments(ctx, query, "variant attributes", productID, locale)
}

// scanAssignments groups flat (attribute, value) rows into ordered
// assignments. Consecutive rows for the same attribute fold into one entry.
func (a *Accessor) scanAssignments(ctx context.Context, query, op string, args ...any) ([]domain.AttributeAssignment, error) {
	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", op, err)
	}
	defer rows.Close()

	var assignments []domain.AttributeAssignment
	for rows.Next() {
		var (
			attr domain.AttributeRef
			val  domain.AttributeValue
		)
		if err := rows.Scan(&attr.ID, &attr.Name, &attr.TranslatedName, &val.ID, &val.Name, &val.TranslatedName); err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}

		n := len(assignments)
		if n > 0 && assignments[n-1].Attribute.ID == attr.ID {
			assignments[n-1].Values = append(assignments[n-1].Values, val)
			continue
		}
		assignments = append(assignments, domain.AttributeAssignment{
			Attribute: attr,
			Values:    []domain.AttributeValue{val},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}

	return assignments, nil
}

// GetChannelListings returns the product's per-channel publication and
// pricing state.
func (a *Accessor) GetChannelListings(ctx context.Context, productID string) ([]domain.ChannelListing, error) {
	query := `
		SELECT channel_slug, is_published, publication_date, is_available_for_purchase,
		       price_range_start, price_range_currency, has_discount, discounted_price
		FROM product_channel_listings
		WHERE product_id = $1
		ORDER BY channel_slug`

	rows, err := a.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list channel listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.ChannelListing
	for rows.Next() {
		var (
			l        domain.ChannelListing
			amount   *decimal.Decimal
			currency *string
		)
		if err := rows.Scan(
			&l.ChannelSlug,
			&l.IsPublished,
			&l.PublicationDate,
			&l.IsAvailableForPurchase,
			&amount,
			&currency,
			&l.HasDiscount,
			&l.DiscountedPrice,
		); err != nil {
			return nil, fmt.Errorf("scan channel listing: %w", err)
		}
		if amount != nil && currency != nil {
			l.PriceRangeStart = &domain.Money{Amount: *amount, Currency: *currency}
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel listings: %w", err)
	}

	return listings, nil
}

// GetCollections returns the collections the product belongs to.
func (a *Accessor) GetCollections(ctx context.Context, productID string) ([]domain.Collection, error) {
	query := `
		SELECT c.id, c.slug
		FROM product_collections pc
		JOIN collections c ON c.id = pc.collection_id
		WHERE pc.product_id = $1
		ORDER BY pc.position`

	rows, err := a.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var collections []domain.Collection
	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.ID, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}

	return collections, nil
}

// GetCollectionTranslations returns the translated names of the product's
// collections for the locale. Collections without a translation for the
// locale are omitted.
func (a *Accessor) GetCollectionTranslations(ctx context.Context, productID, locale string) ([]string, error) {
	query := `
		SELECT ct.name
		FROM product_collections pc
		JOIN collection_translations ct
			ON ct.collection_id = pc.collection_id AND ct.locale = $2
		WHERE pc.product_id = $1
		ORDER BY pc.position`

	return a.scanStrings(ctx, query, "collection translations", productID, locale)
}

// GetVendor retrieves a vendor by its ID.
func (a *Accessor) GetVendor(ctx context.Context, vendorID string) (*domain.Vendor, error) {
	query := `SELECT id, brand_name FROM vendors WHERE id = $1`

	var v domain.Vendor
	err := a.db.QueryRow(ctx, query, vendorID).Scan(&v.ID, &v.BrandName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("vendor", vendorID)
		}
		return nil, fmt.Errorf("scan vendor: %w", err)
	}

	return &v, nil
}

// GetVendorAssociations returns the vendors currently associated with the
// product.
func (a *Accessor) GetVendorAssociations(ctx context.Context, productID string) ([]domain.Vendor, error) {
	query := `
		SELECT v.id, v.brand_name
		FROM vendor_products vp
		JOIN vendors v ON v.id = vp.vendor_id
		WHERE vp.product_id = $1
		ORDER BY v.brand_name`

	rows, err := a.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list vendor associations: %w", err)
	}
	defer rows.Close()

	var vendors []domain.Vendor
	for rows.Next() {
		var v domain.Vendor
		if err := rows.Scan(&v.ID, &v.BrandName); err != nil {
			return nil, fmt.Errorf("scan vendor association: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendor associations: %w", err)
	}

	return vendors, nil
}

// ClearVendorAssociations removes every vendor association from the product.
func (a *Accessor) ClearVendorAssociations(ctx context.Context, productID string) error {
	query := `DELETE FROM vendor_products WHERE product_id = $1`

	if _, err := a.db.Exec(ctx, query, productID); err != nil {
		return fmt.Errorf("clear vendor associations: %w", err)
	}

	return nil
}

// AddVendorAssociation associates a vendor with the product. Re-adding an
// existing association is a no-op.
func (a *Accessor) AddVendorAssociation(ctx context.Context, productID, vendorID string) error {
	query := `
		INSERT INTO vendor_products (vendor_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (vendor_id, product_id) DO NOTHING`

	if _, err := a.db.Exec(ctx, query, vendorID, productID); err != nil {
		return fmt.Errorf("add vendor association: %w", err)
	}

	return nil
}

// GetCelebrities returns the display names of celebrities associated with
// the product.
func (a *Accessor) GetCelebrities(ctx context.Context, productID string) ([]string, error) {
	query := `
		SELECT c.name
		FROM product_celebrities pc
		JOIN celebrities c ON c.id = pc.celebrity_id
		WHERE pc.product_id = $1
		ORDER BY pc.position`

	return a.scanStrings(ctx, query, "celebrities", productID)
}

// GetProductMedia returns the product's media URLs in display order.
func (a *Accessor) GetProductMedia(ctx context.Context, productID string) ([]string, error) {
	query := `
		SELECT url
		FROM product_media
		WHERE product_id = $1
		ORDER BY position`

	return a.scanStrings(ctx, query, "product media", productID)
}

// GetProductThumbnail returns the product's thumbnail URL, "" when absent.
func (a *Accessor) GetProductThumbnail(ctx context.Context, productID string) (string, error) {
	query := `SELECT thumbnail_url FROM products WHERE id = $1`

	var url *string
	err := a.db.QueryRow(ctx, query, productID).Scan(&url)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NotFound("product", productID)
		}
		return "", fmt.Errorf("scan thumbnail: %w", err)
	}
	if url == nil {
		return "", nil
	}

	return *url, nil
}

// IncrementPopularity adds delta to the popularity counter inside the
// product's metadata in a single UPDATE, so concurrent increments on the
// same product never lose updates.
func (a *Accessor) IncrementPopularity(ctx context.Context, productID string, delta int) (int64, error) {
	query := `
		UPDATE products
		SET metadata = jsonb_set(
			coalesce(metadata, '{}'::jsonb),
			'{popularity}',
			to_jsonb((coalesce(metadata->>'popularity', '0')::bigint + $2)::text)
		)
		WHERE id = $1
		RETURNING (metadata->>'popularity')::bigint`

	var popularity int64
	err := a.db.QueryRow(ctx, query, productID, delta).Scan(&popularity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound("product", productID)
		}
		return 0, fmt.Errorf("increment popularity: %w", err)
	}

	return popularity, nil
}

// ListAttributeNames returns all attribute names: raw names for the empty
// locale, otherwise only names translated into the locale.
func (a *Accessor) ListAttributeNames(ctx context.Context, locale string) ([]string, error) {
	if locale == "" {
		return a.scanStrings(ctx, `SELECT name FROM attributes ORDER BY name`, "attribute names")
	}

	query := `
		SELECT at.name
		FROM attribute_translations at
		WHERE at.locale = $1
		ORDER BY at.name`

	return a.scanStrings(ctx, query, "attribute names", locale)
}

// ListCategoryNames returns all category names under the same locale rule as
// ListAttributeNames.
func (a *Accessor) ListCategoryNames(ctx context.Context, locale string) ([]string, error) {
	if locale == "" {
		return a.scanStrings(ctx, `SELECT name FROM categories ORDER BY name`, "category names")
	}

	query := `
		SELECT ct.name
		FROM category_translations ct
		WHERE ct.locale = $1
		ORDER BY ct.name`

	return a.scanStrings(ctx, query, "category names", locale)
}

// scanStrings executes a single-column query and collects the rows.
func (a *Accessor) scanStrings(ctx context.Context, query, op string, args ...any) ([]string, error) {
	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", op, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}

	return values, nil
}
