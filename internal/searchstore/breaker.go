package searchstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/trendora/searchsync/internal/domain"
)

// BreakerConfig holds circuit breaker tuning for the search backend.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns sensible defaults for the search backend
// breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerStore wraps a Store so that a failing backend trips a shared
// circuit breaker instead of being hammered by every indexing operation.
type BreakerStore struct {
	store   Store
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerStore wraps store with a circuit breaker. All locales share one
// breaker: the backend is a single cluster.
func NewBreakerStore(store Store, cfg BreakerConfig, logger *slog.Logger) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("search store circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &BreakerStore{
		store:   store,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Index returns the locale's index wrapped in the shared breaker.
func (s *BreakerStore) Index(locale string) (Index, bool) {
	index, ok := s.store.Index(locale)
	if !ok {
		return nil, false
	}
	return &breakerIndex{index: index, breaker: s.breaker}, true
}

// Locales lists the configured locales of the underlying store.
func (s *BreakerStore) Locales() []string {
	return s.store.Locales()
}

// Ping checks the underlying backend directly, bypassing the breaker, so
// readiness probes observe real backend state.
func (s *BreakerStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// State returns the current breaker state.
func (s *BreakerStore) State() gobreaker.State {
	return s.breaker.State()
}

type breakerIndex struct {
	index   Index
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func (i *breakerIndex) SaveObject(ctx context.Context, doc *domain.Document) error {
	_, err := i.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, i.index.SaveObject(ctx, doc)
	})
	return err
}

func (i *breakerIndex) PartialUpdateObject(ctx context.Context, doc *domain.Document) error {
	_, err := i.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, i.index.PartialUpdateObject(ctx, doc)
	})
	return err
}

func (i *breakerIndex) DeleteObject(ctx context.Context, objectID string) error {
	_, err := i.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, i.index.DeleteObject(ctx, objectID)
	})
	return err
}
