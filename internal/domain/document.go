package domain

import (
	"github.com/shopspring/decimal"
)

// Document is the flat, locale-specific record written to the search index
// for one product. ObjectID equals the product slug and is the document's
// primary key; a slug change therefore requires an explicit delete of the
// old document.
//
// Documents deliberately carry no timestamps: rebuilding from unchanged
// catalog data must produce a byte-identical payload.
type Document struct {
	ObjectID    string `json:"objectID"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Categories maps lvl0..lvlN to " > "-joined ancestor paths.
	Categories map[string]string `json:"categories,omitempty"`

	// Attributes is an ordered list of single-key name→values mappings.
	// Nil when the product has no (localizable) attributes.
	Attributes []map[string][]string `json:"attributes,omitempty"`

	// Channels holds one pricing block per eligible sales channel. A
	// document only exists when this list is non-empty.
	Channels []ChannelBlock `json:"channels"`

	SKUs        []string `json:"skus"`
	Vendors     []string `json:"vendors"`
	Celebrities []string `json:"celebrities"`
	Collections []string `json:"collections"`
	Gender      string   `json:"gender"`
	Popularity  int64    `json:"popularity"`

	// Images holds at most two media URLs; the thumbnail is carried
	// separately and never counts against that cap.
	Images    []string `json:"images"`
	Thumbnail string   `json:"thumbnail"`

	Tags DocumentTags `json:"_tags"`
}

// ChannelBlock is the per-channel pricing block of a document. Name is the
// channel slug. Amounts are exact decimals.
type ChannelBlock struct {
	Name            string          `json:"name"`
	PublicationDate string          `json:"publication_date"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

// DocumentTags marks gender and celebrities as index tags.
type DocumentTags struct {
	Celebrities []string `json:"celebrities"`
	Gender      string   `json:"gender"`
}
