// Package indexer turns catalog state into search index documents.
package indexer

import (
	"strconv"
	"strings"

	"github.com/trendora/searchsync/internal/domain"
)

const levelSeparator = " > "

// FlattenHierarchy turns an ordered list of names into level keys:
// lvl0 is the first name, lvlK is the " > "-joined prefix of length K+1.
// An empty input yields an empty map.
func FlattenHierarchy(names []string) map[string]string {
	levels := make(map[string]string, len(names))
	for i := range names {
		levels["lvl"+strconv.Itoa(i)] = strings.Join(names[:i+1], levelSeparator)
	}
	return levels
}

// CategoryNames extracts display names from an ancestry chain. For the base
// locale raw names are used; otherwise only categories carrying a
// translation contribute, under their translated name.
func CategoryNames(chain []domain.Category, baseLocale bool) []string {
	names := make([]string, 0, len(chain))
	for _, c := range chain {
		if baseLocale {
			names = append(names, c.Name)
			continue
		}
		if c.TranslatedName != nil {
			names = append(names, *c.TranslatedName)
		}
	}
	return names
}
