// Package http exposes the indexing API.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/trendora/searchsync/pkg/errors"
	"github.com/trendora/searchsync/pkg/httputil"
	"github.com/trendora/searchsync/pkg/validator"
)

// SyncService is the part of the service layer the indexing API drives.
type SyncService interface {
	ProductCreated(ctx context.Context, productID string) error
	ProductUpdated(ctx context.Context, productID string) error
	ProductDeleted(ctx context.Context, slug string) error
	ReindexAll(ctx context.Context) (int, error)
}

// FacetProvider serves per-locale faceting expressions.
type FacetProvider interface {
	Expressions(ctx context.Context, locale string) ([]string, error)
}

// IndexingHandler handles HTTP requests for index management.
type IndexingHandler struct {
	sync    SyncService
	facets  FacetProvider
	locales map[string]bool
	logger  *slog.Logger
}

// NewIndexingHandler creates the indexing HTTP handler. locales is the set
// of configured index locales; facet requests outside it are rejected.
func NewIndexingHandler(sync SyncService, facets FacetProvider, locales []string, logger *slog.Logger) *IndexingHandler {
	known := make(map[string]bool, len(locales))
	for _, l := range locales {
		known[l] = true
	}
	return &IndexingHandler{
		sync:    sync,
		facets:  facets,
		locales: known,
		logger:  logger,
	}
}

// IndexProductRequest is the JSON request body for indexing one product.
// Operation selects the write path: save replaces the whole document,
// update merges into it. The default is update.
type IndexProductRequest struct {
	Operation string `json:"operation" validate:"omitempty,oneof=save update"`
}

// ReindexResponse reports the outcome of a bulk reindex.
type ReindexResponse struct {
	Processed int `json:"processed"`
}

// IndexProduct handles POST /api/v1/indexing/products/{id}.
func (h *IndexingHandler) IndexProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("product id is required"), h.logger)
		return
	}

	req := IndexProductRequest{Operation: "update"}
	if r.ContentLength > 0 {
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
		if req.Operation == "" {
			req.Operation = "update"
		}
	}

	var err error
	if req.Operation == "save" {
		err = h.sync.ProductCreated(r.Context(), productID)
	} else {
		err = h.sync.ProductUpdated(r.Context(), productID)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"product_id": productID, "operation": req.Operation},
	})
}

// DeleteProduct handles DELETE /api/v1/indexing/products/{slug}.
func (h *IndexingHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("product slug is required"), h.logger)
		return
	}

	if err := h.sync.ProductDeleted(r.Context(), slug); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"slug": slug},
	})
}

// Reindex handles POST /api/v1/indexing/reindex.
func (h *IndexingHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	processed, err := h.sync.ReindexAll(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "bulk reindex incomplete",
			slog.Int("processed", processed),
			slog.String("error", err.Error()),
		)
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: ReindexResponse{Processed: processed},
	})
}

// Facets handles GET /api/v1/indexing/facets/{locale}.
func (h *IndexingHandler) Facets(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")
	if !h.locales[locale] {
		httputil.WriteError(w, r, apperrors.NotFound("locale", locale), h.logger)
		return
	}

	expressions, err := h.facets.Expressions(r.Context(), locale)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"locale": locale, "attributes_for_faceting": expressions},
	})
}
