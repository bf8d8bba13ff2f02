package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendora/searchsync/internal/catalog/catalogtest"
	"github.com/trendora/searchsync/internal/domain"
	apperrors "github.com/trendora/searchsync/pkg/errors"
)

const baseLocale = "en"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fullCatalog builds a fake catalog with one fully populated product.
func fullCatalog() *catalogtest.Fake {
	fake := catalogtest.New()

	fake.Products["prod-1"] = &domain.Product{
		ID:          "prod-1",
		Name:        "Silk Scarf",
		Slug:        "silk-scarf",
		Description: "A hand-rolled silk scarf",
		CategoryID:  strPtr("cat-3"),
		Metadata: map[string]string{
			domain.MetadataKeyVendor:     "vendor-1",
			domain.MetadataKeyGender:     "women",
			domain.MetadataKeyPopularity: "42",
		},
	}

	fake.Variants["prod-1"] = []domain.Variant{
		{ID: "var-1", ProductID: "prod-1", SKU: "SCARF-S", Prices: []domain.VariantPrice{
			{ChannelSlug: "web", Amount: dec("29.99"), Currency: "USD"},
		}},
		{ID: "var-2", ProductID: "prod-1", SKU: "SCARF-L"},
	}

	discounted := dec("19.99")
	fake.Listings["prod-1"] = []domain.ChannelListing{
		{
			ChannelSlug:            "web",
			IsPublished:            true,
			IsAvailableForPurchase: true,
			PriceRangeStart:        &domain.Money{Amount: dec("29.99"), Currency: "USD"},
			HasDiscount:            true,
			DiscountedPrice:        &discounted,
		},
	}

	fake.Ancestors[catalogtest.Key("cat-3", "")] = []domain.Category{
		{ID: "cat-1", Name: "Apparel"},
		{ID: "cat-2", Name: "Accessories", ParentID: strPtr("cat-1")},
		{ID: "cat-3", Name: "Scarves", ParentID: strPtr("cat-2")},
	}

	fake.ProductAttrs[catalogtest.Key("prod-1", "")] = []domain.AttributeAssignment{colorAssignment()}
	fake.VariantAttrs[catalogtest.Key("prod-1", "")] = []domain.AttributeAssignment{
		{
			Attribute: domain.AttributeRef{ID: "att-size", Name: "Size"},
			Values:    []domain.AttributeValue{{ID: "val-s", Name: "Small"}},
		},
	}

	fake.Vendors["vendor-1"] = &domain.Vendor{ID: "vendor-1", BrandName: "Acme Apparel"}
	fake.Celebrities["prod-1"] = []string{"Jane Star"}
	fake.Collections["prod-1"] = []domain.Collection{{ID: "col-1", Slug: "summer"}}
	fake.Media["prod-1"] = []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg", "https://cdn.example.com/3.jpg"}
	fake.Thumbnails["prod-1"] = "https://cdn.example.com/thumb.jpg"

	return fake
}

func TestBuild_FullDocument(t *testing.T) {
	fake := fullCatalog()
	builder := NewBuilder(fake, baseLocale, testLogger())

	doc, err := builder.Build(context.Background(), "prod-1", baseLocale)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "silk-scarf", doc.ObjectID)
	assert.Equal(t, "Silk Scarf", doc.Name)
	assert.Equal(t, "A hand-rolled silk scarf", doc.Description)
	assert.Equal(t, map[string]string{
		"lvl0": "Apparel",
		"lvl1": "Apparel > Accessories",
		"lvl2": "Apparel > Accessories > Scarves",
	}, doc.Categories)
	assert.Equal(t, []map[string][]string{
		{"Color": {"Red", "Blue"}},
		{"Size": {"Small"}},
	}, doc.Attributes)

	require.Len(t, doc.Channels, 1)
	assert.Equal(t, "web", doc.Channels[0].Name)
	assert.True(t, doc.Channels[0].Price.Equal(dec("29.99")))
	assert.True(t, doc.Channels[0].DiscountedPrice.Equal(dec("19.99")))

	assert.Equal(t, []string{"SCARF-S", "SCARF-L"}, doc.SKUs)
	assert.Equal(t, []string{"Acme Apparel"}, doc.Vendors)
	assert.Equal(t, []string{"Jane Star"}, doc.Celebrities)
	assert.Equal(t, []string{"summer"}, doc.Collections)
	assert.Equal(t, "women", doc.Gender)
	assert.Equal(t, int64(42), doc.Popularity)

	assert.Equal(t, []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"}, doc.Images)
	assert.Equal(t, "https://cdn.example.com/thumb.jpg", doc.Thumbnail)

	assert.Equal(t, domain.DocumentTags{Celebrities: []string{"Jane Star"}, Gender: "women"}, doc.Tags)
}

func TestBuild_Idempotent(t *testing.T) {
	fake := fullCatalog()
	builder := NewBuilder(fake, baseLocale, testLogger())

	first, err := builder.Build(context.Background(), "prod-1", baseLocale)
	require.NoError(t, err)
	second, err := builder.Build(context.Background(), "prod-1", baseLocale)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestBuild_NilWhenNoEligibleChannel(t *testing.T) {
	fake := fullCatalog()
	for i := range fake.Listings["prod-1"] {
		fake.Listings["prod-1"][i].IsPublished = false
	}
	builder := NewBuilder(fake, baseLocale, testLogger())

	doc, err := builder.Build(context.Background(), "prod-1", baseLocale)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestBuild_MissingProductIsFatal(t *testing.T) {
	builder := NewBuilder(catalogtest.New(), baseLocale, testLogger())

	_, err := builder.Build(context.Background(), "ghost", baseLocale)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestBuild_BrokenVendorReferenceIsFatal(t *testing.T) {
	fake := fullCatalog()
	delete(fake.Vendors, "vendor-1")
	builder := NewBuilder(fake, baseLocale, testLogger())

	_, err := builder.Build(context.Background(), "prod-1", baseLocale)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestBuild_VendorExclusivity(t *testing.T) {
	fake := fullCatalog()
	fake.Vendors["vendor-2"] = &domain.Vendor{ID: "vendor-2", BrandName: "Other Brand"}
	fake.Associations["prod-1"] = []string{"vendor-2"}
	builder := NewBuilder(fake, baseLocale, testLogger())

	doc, err := builder.Build(context.Background(), "prod-1", baseLocale)
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme Apparel"}, doc.Vendors)
	assert.Equal(t, []string{"vendor-1"}, fake.Associations["prod-1"])
	assert.Contains(t, fake.ClearedAssociations, "prod-1")
}

func TestBuild_NoVendorReferenceClearsAssociations(t *testing.T) {
	fake := fullCatalog()
	delete(fake.Products["prod-1"].Metadata, domain.MetadataKeyVendor)
	fake.Associations["prod-1"] = []string{"vendor-1"}
	builder := NewBuilder(fake, baseLocale, testLogger())

	doc, err := builder.Build(context.Background(), "prod-1", baseLocale)
	require.NoError(t, err)

	assert.Empty(t, doc.Vendors)
	assert.Empty(t, fake.Associations["prod-1"])
}

func TestBuild_TranslatedLocale(t *testing.T) {
	fake := fullCatalog()
	fake.Translations[catalogtest.Key("prod-1", "tr")] = &domain.Translation{
		Name:        "Ipek Esarp",
		Description: "El yapimi ipek esarp",
	}
	fake.Ancestors[catalogtest.Key("cat-3", "tr")] = []domain.Category{
		{ID: "cat-1", Name: "Apparel", TranslatedName: strPtr("Giyim")},
		{ID: "cat-2", Name: "Accessories", ParentID: strPtr("cat-1")},
		{ID: "cat-3", Name: "Scarves", ParentID: strPtr("cat-2"), TranslatedName: strPtr("Esarplar")},
	}
	fake.ProductAttrs[catalogtest.Key("prod-1", "tr")] = []domain.AttributeAssignment{
		{
			Attribute: domain.AttributeRef{ID: "att-1", Name: "Color", TranslatedName: strPtr("Renk")},
			Values: []domain.AttributeValue{
				{ID: "val-1", Name: "Red", TranslatedName: strPtr("Kirmizi")},
				{ID: "val-2", Name: "Blue"},
			},
		},
	}
	fake.CollectionTr[catalogtest.Key("prod-1", "tr")] = []string{"Yaz Koleksiyonu"}
	builder := NewBuilder(fake, baseLocale, testLogger())

	doc, err := builder.Build(context.Background(), "prod-1", "tr")
	require.NoError(t, err)

	assert.Equal(t, "Ipek Esarp", doc.Name)
	assert.Equal(t, "El yapimi ipek esarp", doc.Description)
	assert.Equal(t, map[string]string{
		"lvl0": "Giyim",
		"lvl1": "Giyim > Esarplar",
	}, doc.Categories)
	assert.Equal(t, []map[string][]string{{"Renk": {"Kirmizi"}}}, doc.Attributes)
	assert.Equal(t, []string{"Yaz Koleksiyonu"}, doc.Collections)
	// ObjectID stays the slug regardless of locale.
	assert.Equal(t, "silk-scarf", doc.ObjectID)
}

func TestBuild_MissingTranslationYieldsEmptyNames(t *testing.T) {
	fake := fullCatalog()
	builder := NewBuilder(fake, baseLocale, testLogger())

	doc, err := builder.Build(context.Background(), "prod-1", "de")
	require.NoError(t, err)

	assert.Empty(t, doc.Name)
	assert.Empty(t, doc.Description)
	assert.Nil(t, doc.Categories)
	assert.Nil(t, doc.Attributes)
}

func TestBuild_AuxiliaryFailuresDegrade(t *testing.T) {
	fake := fullCatalog()
	fake.Errs["GetCelebrities"] = errors.New("celebrity store down")
	fake.Errs["GetProductMedia"] = errors.New("media store down")
	fake.Errs["GetCollections"] = errors.New("collection store down")
	builder := NewBuilder(fake, baseLocale, testLogger())

	doc, err := builder.Build(context.Background(), "prod-1", baseLocale)
	require.NoError(t, err)

	assert.Empty(t, doc.Celebrities)
	assert.Empty(t, doc.Images)
	assert.Empty(t, doc.Collections)
	// Core fields are unaffected.
	assert.Equal(t, "silk-scarf", doc.ObjectID)
	require.Len(t, doc.Channels, 1)
}

func TestBuild_ChannelListingFailureIsFatal(t *testing.T) {
	fake := fullCatalog()
	fake.Errs["GetChannelListings"] = errors.New("listings unavailable")
	builder := NewBuilder(fake, baseLocale, testLogger())

	_, err := builder.Build(context.Background(), "prod-1", baseLocale)
	assert.Error(t, err)
}
