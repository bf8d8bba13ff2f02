package indexer

import (
	"github.com/trendora/searchsync/internal/domain"
)

// ProjectAttributes maps attribute assignments into the ordered
// single-key name→values entries documents carry.
//
// For the base locale every assignment contributes under its raw names. For
// other locales an assignment without an attribute translation is dropped,
// and untranslated values are dropped from translated assignments; a
// translated assignment whose values are all untranslated keeps an empty
// value list. Returns nil when nothing survives.
func ProjectAttributes(assignments []domain.AttributeAssignment, baseLocale bool) []map[string][]string {
	var entries []map[string][]string

	for _, assignment := range assignments {
		if baseLocale {
			values := make([]string, 0, len(assignment.Values))
			for _, v := range assignment.Values {
				values = append(values, v.Name)
			}
			entries = append(entries, map[string][]string{assignment.Attribute.Name: values})
			continue
		}

		if assignment.Attribute.TranslatedName == nil {
			continue
		}
		values := make([]string, 0, len(assignment.Values))
		for _, v := range assignment.Values {
			if v.TranslatedName != nil {
				values = append(values, *v.TranslatedName)
			}
		}
		entries = append(entries, map[string][]string{*assignment.Attribute.TranslatedName: values})
	}

	return entries
}
