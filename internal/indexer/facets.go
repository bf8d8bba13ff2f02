package indexer

import (
	"context"
	"fmt"
	"strconv"
)

// Fixed facet expressions present for every locale.
var fixedFacets = []string{
	"searchable(gender)",
	"searchable(vendors)",
	"searchable(celebrities)",
}

// FacetAttributes enumerates the faceting expressions for one locale: one
// searchable(attributes.<name>) per attribute known in the locale, one
// searchable(categories.lvlK) per hierarchy level spanned by the locale's
// category names, plus the fixed gender, vendors and celebrities facets.
func (b *Builder) FacetAttributes(ctx context.Context, locale string) ([]string, error) {
	lookupLocale := locale
	if locale == b.baseLocale {
		lookupLocale = ""
	}

	attributeNames, err := b.catalog.ListAttributeNames(ctx, lookupLocale)
	if err != nil {
		return nil, fmt.Errorf("list attribute names: %w", err)
	}

	categoryNames, err := b.catalog.ListCategoryNames(ctx, lookupLocale)
	if err != nil {
		return nil, fmt.Errorf("list category names: %w", err)
	}

	expressions := make([]string, 0, len(attributeNames)+len(categoryNames)+len(fixedFacets))
	for _, name := range attributeNames {
		expressions = append(expressions, "searchable(attributes."+name+")")
	}
	for level := range categoryNames {
		expressions = append(expressions, "searchable(categories.lvl"+strconv.Itoa(level)+")")
	}
	expressions = append(expressions, fixedFacets...)

	return expressions, nil
}
