// Package searchstore abstracts the per-locale search index backend.
package searchstore

import (
	"context"

	"github.com/trendora/searchsync/internal/domain"
)

// Index is one locale's document collection.
type Index interface {
	// SaveObject writes the full document, replacing any existing one with
	// the same objectID.
	SaveObject(ctx context.Context, doc *domain.Document) error

	// PartialUpdateObject merges the document's fields into the existing
	// one, creating it when absent.
	PartialUpdateObject(ctx context.Context, doc *domain.Document) error

	// DeleteObject removes the document with the given objectID. Deleting
	// an absent document is not an error.
	DeleteObject(ctx context.Context, objectID string) error
}

// Store gives access to the index of each configured locale.
type Store interface {
	// Index returns the index for a locale, reporting false for locales
	// the store is not configured with.
	Index(locale string) (Index, bool)

	// Locales lists the configured locales in configuration order.
	Locales() []string

	// Ping checks backend reachability.
	Ping(ctx context.Context) error
}
