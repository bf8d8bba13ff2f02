package indexer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trendora/searchsync/internal/domain"
)

// BasePrice returns the catalog-wide base price of a product: the first
// channel price of its first variant. Products whose first variant carries
// no price get a zero base price even when later variants are priced.
func BasePrice(variants []domain.Variant) decimal.Decimal {
	if len(variants) == 0 || len(variants[0].Prices) == 0 {
		return decimal.Zero
	}
	return variants[0].Prices[0].Amount
}

// ResolveChannels builds the per-channel pricing blocks for a document.
// Listings without any pricing are skipped outright; of the priced ones only
// those both published and available for purchase contribute a block. The
// discounted price falls back to the base price unless the channel both
// flags a discount and records a discounted amount.
func ResolveChannels(listings []domain.ChannelListing, basePrice decimal.Decimal) []domain.ChannelBlock {
	var blocks []domain.ChannelBlock

	for _, listing := range listings {
		if listing.PriceRangeStart == nil {
			continue
		}
		if !listing.Eligible() {
			continue
		}

		discounted := basePrice
		if listing.HasDiscount && listing.DiscountedPrice != nil {
			discounted = *listing.DiscountedPrice
		}

		blocks = append(blocks, domain.ChannelBlock{
			Name:            listing.ChannelSlug,
			PublicationDate: formatDate(listing.PublicationDate),
			Price:           basePrice,
			Currency:        listing.PriceRangeStart.Currency,
			DiscountedPrice: discounted,
		})
	}

	return blocks
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
