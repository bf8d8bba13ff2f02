package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trendora/searchsync/internal/domain"
)

func TestFlattenHierarchy(t *testing.T) {
	levels := FlattenHierarchy([]string{"A", "B", "C"})

	assert.Equal(t, map[string]string{
		"lvl0": "A",
		"lvl1": "A > B",
		"lvl2": "A > B > C",
	}, levels)
}

func TestFlattenHierarchy_SingleAndEmpty(t *testing.T) {
	assert.Equal(t, map[string]string{"lvl0": "Shoes"}, FlattenHierarchy([]string{"Shoes"}))
	assert.Empty(t, FlattenHierarchy(nil))
}

func TestCategoryNames_BaseLocaleUsesRawNames(t *testing.T) {
	chain := []domain.Category{
		{ID: "c1", Name: "Apparel", TranslatedName: strPtr("Giyim")},
		{ID: "c2", Name: "Shoes"},
	}

	assert.Equal(t, []string{"Apparel", "Shoes"}, CategoryNames(chain, true))
}

func TestCategoryNames_OtherLocaleDropsUntranslated(t *testing.T) {
	chain := []domain.Category{
		{ID: "c1", Name: "Apparel", TranslatedName: strPtr("Giyim")},
		{ID: "c2", Name: "Shoes"},
		{ID: "c3", Name: "Sneakers", TranslatedName: strPtr("Spor Ayakkabi")},
	}

	assert.Equal(t, []string{"Giyim", "Spor Ayakkabi"}, CategoryNames(chain, false))
}

func strPtr(s string) *string { return &s }
