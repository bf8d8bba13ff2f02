// Package service orchestrates document building against the search store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trendora/searchsync/internal/catalog"
	"github.com/trendora/searchsync/internal/domain"
	"github.com/trendora/searchsync/internal/event"
	"github.com/trendora/searchsync/internal/indexer"
	"github.com/trendora/searchsync/internal/searchstore"
	apperrors "github.com/trendora/searchsync/pkg/errors"
	pkgkafka "github.com/trendora/searchsync/pkg/kafka"
)

// EventPublisher announces pipeline outcomes to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Synchronizer keeps the per-locale search indices in step with the catalog.
// Every operation fans out over all configured locales; a failure in one
// locale does not stop the others.
type Synchronizer struct {
	builder *indexer.Builder
	store   searchstore.Store
	catalog catalog.Accessor
	events  EventPublisher
	logger  *slog.Logger
}

// NewSynchronizer creates a synchronizer over the given builder and store.
// events may be nil, which disables outcome announcements.
func NewSynchronizer(builder *indexer.Builder, store searchstore.Store, accessor catalog.Accessor, events EventPublisher, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		builder: builder,
		store:   store,
		catalog: accessor,
		events:  events,
		logger:  logger,
	}
}

const (
	opSave   = "save"
	opUpdate = "update"
	opDelete = "delete"
)

// ProductCreated indexes a new product into every locale with a full save.
func (s *Synchronizer) ProductCreated(ctx context.Context, productID string) error {
	return s.syncAllLocales(ctx, productID, opSave)
}

// ProductUpdated re-indexes a product into every locale with a partial
// update that creates the document when it does not exist yet.
func (s *Synchronizer) ProductUpdated(ctx context.Context, productID string) error {
	return s.syncAllLocales(ctx, productID, opUpdate)
}

// ProductDeleted removes the product's document from every locale by slug.
// The delete is unconditional: a document that was never indexed is not an
// error.
func (s *Synchronizer) ProductDeleted(ctx context.Context, slug string) error {
	var errs []error
	for _, locale := range s.store.Locales() {
		index, ok := s.store.Index(locale)
		if !ok {
			continue
		}
		if err := index.DeleteObject(ctx, slug); err != nil {
			documentsFailed.WithLabelValues(opDelete, locale).Inc()
			errs = append(errs, fmt.Errorf("locale %s: %w", locale, err))
			continue
		}
		documentsIndexed.WithLabelValues(opDelete, locale).Inc()
		s.logger.Info("document deleted",
			slog.String("object_id", slug),
			slog.String("locale", locale),
		)
	}
	return errors.Join(errs...)
}

// VariantChanged re-indexes the parent product of a changed variant.
// Variants carry no documents of their own: a new variant runs the save
// path, any other variant change the update path.
func (s *Synchronizer) VariantChanged(ctx context.Context, productID string, created bool) error {
	op := opUpdate
	if created {
		op = opSave
	}
	return s.syncAllLocales(ctx, productID, op)
}

// TranslationChanged re-indexes the translated product. Translations of
// entities other than products are ignored; their content only reaches the
// index through the product documents that embed it.
func (s *Synchronizer) TranslationChanged(ctx context.Context, kind, productID string) error {
	if kind != domain.TranslationKindProduct {
		s.logger.Debug("ignoring non-product translation", slog.String("kind", kind))
		return nil
	}
	return s.syncAllLocales(ctx, productID, opUpdate)
}

// OrderPlaced bumps the popularity of every ordered product by the line
// quantity and re-indexes it. Lines whose product cannot be updated are
// logged and skipped so one bad line does not block the rest of the order.
func (s *Synchronizer) OrderPlaced(ctx context.Context, lines []domain.OrderLine) error {
	var errs []error
	for _, line := range lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			continue
		}

		popularity, err := s.catalog.IncrementPopularity(ctx, line.ProductID, line.Quantity)
		if err != nil {
			s.logger.Warn("popularity increment failed",
				slog.String("product_id", line.ProductID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("product %s: %w", line.ProductID, err))
			continue
		}

		s.logger.Info("popularity incremented",
			slog.String("product_id", line.ProductID),
			slog.Int("quantity", line.Quantity),
			slog.Int64("popularity", popularity),
		)

		if err := s.syncAllLocales(ctx, line.ProductID, opSave); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReindexAll pushes every product through the update path in every locale
// and returns the number of products processed. Individual failures are
// collected rather than aborting the run.
func (s *Synchronizer) ReindexAll(ctx context.Context) (int, error) {
	ids, err := s.catalog.ListProductIDs(ctx)
	if err != nil {
		return 0, apperrors.Wrap(err, "list product ids")
	}

	var errs []error
	processed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.syncAllLocales(ctx, id, opUpdate); err != nil {
			errs = append(errs, err)
			continue
		}
		processed++
	}

	s.logger.Info("bulk reindex finished",
		slog.Int("total", len(ids)),
		slog.Int("processed", processed),
		slog.Int("failed", len(errs)),
	)
	s.announceReindex(ctx, len(ids), processed, len(errs))
	return processed, errors.Join(errs...)
}

// announceReindex publishes the reindex outcome. Publishing is best-effort:
// a broker outage must not fail a reindex run that already completed.
func (s *Synchronizer) announceReindex(ctx context.Context, total, processed, failed int) {
	if s.events == nil {
		return
	}

	evt, err := event.NewReindexCompleted(total, processed, failed)
	if err != nil {
		s.logger.Warn("build reindex completion event failed", slog.String("error", err.Error()))
		return
	}
	if err := s.events.Publish(ctx, event.TopicReindexCompleted, evt); err != nil {
		s.logger.Warn("publish reindex completion event failed", slog.String("error", err.Error()))
	}
}

// syncAllLocales builds and writes the product's document for every
// configured locale. A build that yields no document (no eligible channel)
// skips the locale without touching the index.
func (s *Synchronizer) syncAllLocales(ctx context.Context, productID, op string) error {
	var errs []error
	for _, locale := range s.store.Locales() {
		index, ok := s.store.Index(locale)
		if !ok {
			continue
		}

		doc, err := s.builder.Build(ctx, productID, locale)
		if err != nil {
			documentsFailed.WithLabelValues(op, locale).Inc()
			errs = append(errs, fmt.Errorf("build %s for locale %s: %w", productID, locale, err))
			continue
		}
		if doc == nil {
			documentsSkipped.WithLabelValues(locale).Inc()
			s.logger.Debug("no eligible channels, document skipped",
				slog.String("product_id", productID),
				slog.String("locale", locale),
			)
			continue
		}

		if op == opSave {
			err = index.SaveObject(ctx, doc)
		} else {
			err = index.PartialUpdateObject(ctx, doc)
		}
		if err != nil {
			documentsFailed.WithLabelValues(op, locale).Inc()
			errs = append(errs, fmt.Errorf("write %s to locale %s: %w", doc.ObjectID, locale, err))
			continue
		}

		documentsIndexed.WithLabelValues(op, locale).Inc()
		s.logger.Info("document indexed",
			slog.String("object_id", doc.ObjectID),
			slog.String("locale", locale),
			slog.String("operation", op),
		)
	}
	return errors.Join(errs...)
}
