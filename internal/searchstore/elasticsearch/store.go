// Package elasticsearch implements the search store against Elasticsearch,
// one index per locale.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/trendora/searchsync/internal/domain"
	"github.com/trendora/searchsync/internal/searchstore"
	apperrors "github.com/trendora/searchsync/pkg/errors"
)

// DefaultIndexPrefix is the index name prefix when none is configured.
// Locale "en" maps to index "products_en".
const DefaultIndexPrefix = "products"

// Config holds the Elasticsearch connection settings.
type Config struct {
	URL         string
	APIKey      string
	IndexPrefix string
	Locales     []string
}

// Store is the Elasticsearch-backed search store.
type Store struct {
	client  *elasticsearch.Client
	prefix  string
	locales []string
	logger  *slog.Logger
}

// esErrorResponse decodes Elasticsearch error bodies.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates an Elasticsearch store. It fails with a configuration error
// when the URL, the API key or the locale list is missing, so a
// half-configured deployment surfaces at startup rather than at first write.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	var missing []string
	if cfg.URL == "" {
		missing = append(missing, "url")
	}
	if cfg.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if len(cfg.Locales) == 0 {
		missing = append(missing, "locales")
	}
	if len(missing) > 0 {
		return nil, apperrors.Misconfigured(missing...)
	}

	if cfg.IndexPrefix == "" {
		cfg.IndexPrefix = DefaultIndexPrefix
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		APIKey:    cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	return &Store{
		client:  client,
		prefix:  cfg.IndexPrefix,
		locales: append([]string(nil), cfg.Locales...),
		logger:  logger,
	}, nil
}

// Index returns the index for a locale.
func (s *Store) Index(locale string) (searchstore.Index, bool) {
	for _, l := range s.locales {
		if l == locale {
			return &localeIndex{store: s, name: s.indexName(locale)}, true
		}
	}
	return nil, false
}

// Locales lists the configured locales.
func (s *Store) Locales() []string {
	return append([]string(nil), s.locales...)
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

func (s *Store) indexName(locale string) string {
	return s.prefix + "_" + locale
}

type localeIndex struct {
	store *Store
	name  string
}

// SaveObject writes the full document under its objectID, replacing any
// existing version.
func (i *localeIndex) SaveObject(ctx context.Context, doc *domain.Document) error {
	if doc.ObjectID == "" {
		return apperrors.InvalidInput("document has no objectID")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("elasticsearch save: marshal document: %w", err)
	}

	client := i.store.client
	res, err := client.Index(
		i.name,
		bytes.NewReader(data),
		client.Index.WithDocumentID(doc.ObjectID),
		client.Index.WithContext(ctx),
	)
	if err != nil {
		return apperrors.RemoteStore("save", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return apperrors.RemoteStore("save", responseError(res.Body, res.Status()))
	}

	i.store.logger.Debug("saved document", "index", i.name, "object_id", doc.ObjectID)
	return nil
}

// PartialUpdateObject merges the document's fields into the stored one,
// creating the document when it does not exist yet.
func (i *localeIndex) PartialUpdateObject(ctx context.Context, doc *domain.Document) error {
	if doc.ObjectID == "" {
		return apperrors.InvalidInput("document has no objectID")
	}

	body, err := json.Marshal(map[string]any{
		"doc":           doc,
		"doc_as_upsert": true,
	})
	if err != nil {
		return fmt.Errorf("elasticsearch update: marshal document: %w", err)
	}

	client := i.store.client
	res, err := client.Update(
		i.name,
		doc.ObjectID,
		bytes.NewReader(body),
		client.Update.WithContext(ctx),
	)
	if err != nil {
		return apperrors.RemoteStore("partial_update", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return apperrors.RemoteStore("partial_update", responseError(res.Body, res.Status()))
	}

	i.store.logger.Debug("partially updated document", "index", i.name, "object_id", doc.ObjectID)
	return nil
}

// DeleteObject removes the document by objectID. A 404 is not an error: the
// document may never have been indexed.
func (i *localeIndex) DeleteObject(ctx context.Context, objectID string) error {
	client := i.store.client
	res, err := client.Delete(
		i.name,
		objectID,
		client.Delete.WithContext(ctx),
	)
	if err != nil {
		return apperrors.RemoteStore("delete", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return apperrors.RemoteStore("delete", responseError(res.Body, res.Status()))
	}

	i.store.logger.Debug("deleted document", "index", i.name, "object_id", objectID)
	return nil
}

func responseError(body io.Reader, status string) error {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("unexpected status %s", status)
}
