package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Metadata keys used on products.
const (
	MetadataKeyVendor     = "vendor"
	MetadataKeyGender     = "gender"
	MetadataKeyPopularity = "popularity"
)

// Product is a catalog product as read from the host store.
type Product struct {
	ID          string
	Name        string
	Slug        string
	Description string
	CategoryID  *string
	Metadata    map[string]string
}

// MetadataValue returns the metadata value for key, or fallback when absent.
func (p *Product) MetadataValue(key, fallback string) string {
	if v, ok := p.Metadata[key]; ok {
		return v
	}
	return fallback
}

// Popularity reads the popularity counter from metadata. Unparseable or
// absent values count as zero.
func (p *Product) Popularity() int64 {
	n, err := strconv.ParseInt(p.MetadataValue(MetadataKeyPopularity, "0"), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Money is an exact decimal amount in a currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// VariantPrice is one channel price attached to a variant.
type VariantPrice struct {
	ChannelSlug string
	Amount      decimal.Decimal
	Currency    string
}

// Variant is a purchasable variation of a product. Variants never get their
// own index document; they only feed SKUs, attributes and pricing into the
// parent's.
type Variant struct {
	ID        string
	ProductID string
	SKU       string
	Prices    []VariantPrice
}

// Category is one node of the self-referential category tree. TranslatedName
// is the name in the locale the node was fetched for, nil when no
// translation exists.
type Category struct {
	ID             string
	Name           string
	ParentID       *string
	TranslatedName *string
}

// AttributeRef identifies an attribute definition, with its optional
// translation for the fetch locale.
type AttributeRef struct {
	ID             string
	Name           string
	TranslatedName *string
}

// AttributeValue is one selected value of an attribute assignment.
type AttributeValue struct {
	ID             string
	Name           string
	TranslatedName *string
}

// AttributeAssignment binds an ordered list of values to an attribute on a
// product or variant.
type AttributeAssignment struct {
	Attribute AttributeRef
	Values    []AttributeValue
}

// ChannelListing is the per-sales-channel publication and pricing state of
// a product.
type ChannelListing struct {
	ChannelSlug            string
	IsPublished            bool
	PublicationDate        *time.Time
	IsAvailableForPurchase bool
	// PriceRangeStart is the gross start of the channel's price range,
	// nil when the channel carries no pricing at all.
	PriceRangeStart *Money
	// HasDiscount reports whether a discount applies on this channel.
	HasDiscount bool
	// DiscountedPrice is the discounted amount, nil when none is recorded.
	DiscountedPrice *decimal.Decimal
}

// Eligible reports whether the listing makes the product indexable on this
// channel: published and available for purchase.
func (l ChannelListing) Eligible() bool {
	return l.IsPublished && l.IsAvailableForPurchase
}

// Vendor is a brand that can be associated with products.
type Vendor struct {
	ID        string
	BrandName string
}

// Collection groups products for merchandising.
type Collection struct {
	ID   string
	Slug string
}

// Translation is localized name/description content for an entity. Absence
// of a translation never falls back to the default locale.
type Translation struct {
	Name        string
	Description string
}

// Translation entity kinds seen on translation events. Only product
// translations trigger re-indexing.
const (
	TranslationKindProduct    = "product"
	TranslationKindCategory   = "category"
	TranslationKindAttribute  = "attribute"
	TranslationKindCollection = "collection"
)

// OrderLine is the slice of an order relevant to popularity tracking.
type OrderLine struct {
	ProductID string
	Quantity  int
}
