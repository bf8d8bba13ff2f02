package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendora/searchsync/internal/catalog/catalogtest"
	"github.com/trendora/searchsync/internal/domain"
	"github.com/trendora/searchsync/internal/event"
	"github.com/trendora/searchsync/internal/indexer"
	"github.com/trendora/searchsync/internal/searchstore/memory"
	pkgkafka "github.com/trendora/searchsync/pkg/kafka"
)

type recordingPublisher struct {
	topics []string
	events []*pkgkafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

var locales = []string{"en", "tr"}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func addProduct(fake *catalogtest.Fake, id, slug string) {
	fake.Products[id] = &domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Slug:     slug,
		Metadata: map[string]string{},
	}
	fake.Variants[id] = []domain.Variant{
		{ID: id + "-v1", ProductID: id, SKU: id + "-SKU", Prices: []domain.VariantPrice{
			{ChannelSlug: "web", Amount: dec("10.00"), Currency: "USD"},
		}},
	}
	fake.Listings[id] = []domain.ChannelListing{
		{
			ChannelSlug:            "web",
			IsPublished:            true,
			IsAvailableForPurchase: true,
			PriceRangeStart:        &domain.Money{Amount: dec("10.00"), Currency: "USD"},
		},
	}
}

func newFixture(t *testing.T) (*catalogtest.Fake, *memory.Store, *Synchronizer) {
	t.Helper()
	fake := catalogtest.New()
	store := memory.New(locales)
	builder := indexer.NewBuilder(fake, "en", testLogger())
	sync := NewSynchronizer(builder, store, fake, nil, testLogger())
	return fake, store, sync
}

func TestProductCreated_IndexesAllLocales(t *testing.T) {
	fake, store, sync := newFixture(t)
	addProduct(fake, "prod-1", "silk-scarf")

	require.NoError(t, sync.ProductCreated(context.Background(), "prod-1"))

	en, ok := store.Object("en", "silk-scarf")
	require.True(t, ok)
	assert.Equal(t, "Product prod-1", en.Name)

	// The tr document exists but carries no translated name.
	tr, ok := store.Object("tr", "silk-scarf")
	require.True(t, ok)
	assert.Empty(t, tr.Name)
}

func TestProductCreated_MissingProduct(t *testing.T) {
	_, store, sync := newFixture(t)

	err := sync.ProductCreated(context.Background(), "ghost")
	assert.Error(t, err)
	assert.Equal(t, 0, store.Count("en"))
}

func TestProductUpdated_CreatesWhenAbsent(t *testing.T) {
	fake, store, sync := newFixture(t)
	addProduct(fake, "prod-1", "silk-scarf")

	require.NoError(t, sync.ProductUpdated(context.Background(), "prod-1"))

	_, ok := store.Object("en", "silk-scarf")
	assert.True(t, ok)
}

func TestProductDeleted_RemovesFromAllLocales(t *testing.T) {
	fake, store, sync := newFixture(t)
	addProduct(fake, "prod-1", "silk-scarf")
	ctx := context.Background()

	require.NoError(t, sync.ProductCreated(ctx, "prod-1"))
	require.NoError(t, sync.ProductDeleted(ctx, "silk-scarf"))

	assert.Equal(t, 0, store.Count("en"))
	assert.Equal(t, 0, store.Count("tr"))

	// Deleting again is not an error.
	require.NoError(t, sync.ProductDeleted(ctx, "silk-scarf"))
}

func TestSync_SkipsWhenNoEligibleChannels(t *testing.T) {
	fake, store, sync := newFixture(t)
	addProduct(fake, "prod-1", "silk-scarf")
	for i := range fake.Listings["prod-1"] {
		fake.Listings["prod-1"][i].IsAvailableForPurchase = false
	}

	require.NoError(t, sync.ProductCreated(context.Background(), "prod-1"))

	assert.Equal(t, 0, store.Count("en"))
	assert.Equal(t, 0, store.Count("tr"))
}

func TestVariantChanged_ReindexesParent(t *testing.T) {
	fake, store, sync := newFixture(t)
	addProduct(fake, "prod-1", "silk-scarf")
	ctx := context.Background()

	require.NoError(t, sync.VariantChanged(ctx, "prod-1", true))
	_, ok := store.Object("en", "silk-scarf")
	require.True(t, ok)

	fake.Variants["prod-1"] = append(fake.Variants["prod-1"], domain.Variant{
		ID: "prod-1-v2", ProductID: "prod-1", SKU: "prod-1-SKU-2",
	})
	require.NoError(t, sync.VariantChanged(ctx, "prod-1", false))

	doc, _ := store.Object("en", "silk-scarf")
	assert.Equal(t, []string{"prod-1-SKU", "prod-1-SKU-2"}, doc.SKUs)
}

func TestTranslationChanged_OnlyProductKind(t *testing.T) {
	fake, store, sync := newFixture(t)
	addProduct(fake, "prod-1", "silk-scarf")
	ctx := context.Background()

	require.NoError(t, sync.TranslationChanged(ctx, domain.TranslationKindCategory, "prod-1"))
	require.NoError(t, sync.TranslationChanged(ctx, domain.TranslationKindAttribute, "prod-1"))
	assert.Equal(t, 0, store.Count("en"))

	require.NoError(t, sync.TranslationChanged(ctx, domain.TranslationKindProduct, "prod-1"))
	assert.Equal(t, 1, store.Count("en"))
}

func TestOrderPlaced_AccumulatesPopularity(t *testing.T) {
	fake, store, sync := newFixture(t)
	addProduct(fake, "prod-1", "silk-scarf")
	ctx := context.Background()

	lines := []domain.OrderLine{
		{ProductID: "prod-1", Quantity: 5},
		{ProductID: "prod-1", Quantity: 3},
	}
	require.NoError(t, sync.OrderPlaced(ctx, lines))

	for _, locale := range locales {
		doc, ok := store.Object(locale, "silk-scarf")
		require.True(t, ok, "locale %s", locale)
		assert.Equal(t, int64(8), doc.Popularity, "locale %s", locale)
	}
}

func TestOrderPlaced_SkipsBadLines(t *testing.T) {
	fake, store, sync := newFixture(t)
	addProduct(fake, "prod-1", "silk-scarf")
	ctx := context.Background()

	lines := []domain.OrderLine{
		{ProductID: "ghost", Quantity: 2},
		{ProductID: "", Quantity: 1},
		{ProductID: "prod-1", Quantity: 0},
		{ProductID: "prod-1", Quantity: 4},
	}
	err := sync.OrderPlaced(ctx, lines)
	assert.Error(t, err)

	doc, ok := store.Object("en", "silk-scarf")
	require.True(t, ok)
	assert.Equal(t, int64(4), doc.Popularity)
}

func TestReindexAll(t *testing.T) {
	fake, store, sync := newFixture(t)
	addProduct(fake, "prod-1", "silk-scarf")
	addProduct(fake, "prod-2", "wool-hat")
	fake.ProductOrder = []string{"prod-1", "prod-2"}

	processed, err := sync.ReindexAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 2, store.Count("en"))
	assert.Equal(t, 2, store.Count("tr"))
}

func TestReindexAll_CollectsFailures(t *testing.T) {
	fake, store, sync := newFixture(t)
	addProduct(fake, "prod-1", "silk-scarf")
	addProduct(fake, "prod-2", "wool-hat")
	// prod-2 references a vendor that does not exist.
	fake.Products["prod-2"].Metadata[domain.MetadataKeyVendor] = "ghost-vendor"
	fake.ProductOrder = []string{"prod-1", "prod-2"}

	processed, err := sync.ReindexAll(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, store.Count("en"))
}

func TestReindexAll_PublishesCompletionEvent(t *testing.T) {
	fake := catalogtest.New()
	store := memory.New(locales)
	builder := indexer.NewBuilder(fake, "en", testLogger())
	publisher := &recordingPublisher{}
	sync := NewSynchronizer(builder, store, fake, publisher, testLogger())

	addProduct(fake, "prod-1", "silk-scarf")
	addProduct(fake, "prod-2", "wool-hat")
	fake.Products["prod-2"].Metadata[domain.MetadataKeyVendor] = "ghost-vendor"
	fake.ProductOrder = []string{"prod-1", "prod-2"}

	_, err := sync.ReindexAll(context.Background())
	assert.Error(t, err)

	require.Len(t, publisher.topics, 1)
	assert.Equal(t, event.TopicReindexCompleted, publisher.topics[0])

	var data event.ReindexCompletedData
	require.NoError(t, publisher.events[0].UnmarshalData(&data))
	assert.Equal(t, 2, data.Total)
	assert.Equal(t, 1, data.Processed)
	assert.Equal(t, 1, data.Failed)
}

func TestReindexAll_PublishFailureDoesNotFailRun(t *testing.T) {
	fake := catalogtest.New()
	store := memory.New(locales)
	builder := indexer.NewBuilder(fake, "en", testLogger())
	publisher := &recordingPublisher{err: errors.New("broker down")}
	sync := NewSynchronizer(builder, store, fake, publisher, testLogger())

	addProduct(fake, "prod-1", "silk-scarf")
	fake.ProductOrder = []string{"prod-1"}

	processed, err := sync.ReindexAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestReindexAll_ListFailure(t *testing.T) {
	fake, _, sync := newFixture(t)
	fake.Errs["ListProductIDs"] = errors.New("catalog down")

	_, err := sync.ReindexAll(context.Background())
	assert.Error(t, err)
}
