// Package memory provides an in-memory search store for tests and local
// development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/trendora/searchsync/internal/domain"
	"github.com/trendora/searchsync/internal/searchstore"
)

// Store keeps per-locale documents in memory. Documents are stored as
// decoded JSON maps so partial updates merge at field level, like the real
// backend.
type Store struct {
	mu      sync.RWMutex
	locales []string
	indices map[string]*index
}

// New creates a memory store for the given locales.
func New(locales []string) *Store {
	indices := make(map[string]*index, len(locales))
	for _, locale := range locales {
		indices[locale] = &index{objects: make(map[string]map[string]any)}
	}
	return &Store{
		locales: append([]string(nil), locales...),
		indices: indices,
	}
}

// Index returns the locale's index.
func (s *Store) Index(locale string) (searchstore.Index, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[locale]
	return idx, ok
}

// Locales lists the configured locales.
func (s *Store) Locales() []string {
	return append([]string(nil), s.locales...)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Object returns the stored document for a locale and objectID, decoded
// back into a Document, and whether it exists.
func (s *Store) Object(locale, objectID string) (*domain.Document, bool) {
	s.mu.RLock()
	idx, ok := s.indices[locale]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	raw, ok := idx.objects[objectID]
	if !ok {
		return nil, false
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, false
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

// Count returns the number of documents in a locale's index.
func (s *Store) Count(locale string) int {
	s.mu.RLock()
	idx, ok := s.indices[locale]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.objects)
}

type index struct {
	mu      sync.RWMutex
	objects map[string]map[string]any
}

func (i *index) SaveObject(_ context.Context, doc *domain.Document) error {
	fields, err := docFields(doc)
	if err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.objects[doc.ObjectID] = fields
	return nil
}

func (i *index) PartialUpdateObject(_ context.Context, doc *domain.Document) error {
	fields, err := docFields(doc)
	if err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	existing, ok := i.objects[doc.ObjectID]
	if !ok {
		i.objects[doc.ObjectID] = fields
		return nil
	}
	for k, v := range fields {
		existing[k] = v
	}
	return nil
}

func (i *index) DeleteObject(_ context.Context, objectID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.objects, objectID)
	return nil
}

func docFields(doc *domain.Document) (map[string]any, error) {
	if doc.ObjectID == "" {
		return nil, fmt.Errorf("document has no objectID")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode document fields: %w", err)
	}
	return fields, nil
}
