package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchsync_documents_indexed_total",
			Help: "Total number of documents written to the search index",
		},
		[]string{"operation", "locale"},
	)

	documentsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchsync_documents_skipped_total",
			Help: "Total number of builds that produced no document (no eligible channel)",
		},
		[]string{"locale"},
	)

	documentsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchsync_documents_failed_total",
			Help: "Total number of document builds or writes that failed",
		},
		[]string{"operation", "locale"},
	)

	facetCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchsync_facet_cache_hits_total",
			Help: "Facet expression cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
