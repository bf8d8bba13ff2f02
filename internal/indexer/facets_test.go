package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendora/searchsync/internal/catalog/catalogtest"
)

func TestFacetAttributes_BaseLocale(t *testing.T) {
	fake := catalogtest.New()
	fake.AttrNames[""] = []string{"Color", "Material"}
	fake.CatNames[""] = []string{"Apparel", "Shoes", "Sneakers"}
	builder := NewBuilder(fake, baseLocale, testLogger())

	expressions, err := builder.FacetAttributes(context.Background(), baseLocale)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"searchable(attributes.Color)",
		"searchable(attributes.Material)",
		"searchable(categories.lvl0)",
		"searchable(categories.lvl1)",
		"searchable(categories.lvl2)",
		"searchable(gender)",
		"searchable(vendors)",
		"searchable(celebrities)",
	}, expressions)
}

func TestFacetAttributes_TranslatedLocale(t *testing.T) {
	fake := catalogtest.New()
	fake.AttrNames["tr"] = []string{"Renk"}
	fake.CatNames["tr"] = []string{"Giyim"}
	builder := NewBuilder(fake, baseLocale, testLogger())

	expressions, err := builder.FacetAttributes(context.Background(), "tr")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"searchable(attributes.Renk)",
		"searchable(categories.lvl0)",
		"searchable(gender)",
		"searchable(vendors)",
		"searchable(celebrities)",
	}, expressions)
}

func TestFacetAttributes_EmptyCatalog(t *testing.T) {
	builder := NewBuilder(catalogtest.New(), baseLocale, testLogger())

	expressions, err := builder.FacetAttributes(context.Background(), baseLocale)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"searchable(gender)",
		"searchable(vendors)",
		"searchable(celebrities)",
	}, expressions)
}
