package event

import (
	pkgkafka "github.com/trendora/searchsync/pkg/kafka"
)

// TopicReindexCompleted announces the outcome of a bulk reindex run so
// downstream consumers (cache warmers, monitoring) can react to it.
var TopicReindexCompleted = pkgkafka.Topic("search", "reindex_completed")

// ReindexCompletedData is the payload of search.reindex_completed.
type ReindexCompletedData struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// NewReindexCompleted builds the completion event for a reindex run.
func NewReindexCompleted(total, processed, failed int) (*pkgkafka.Event, error) {
	return pkgkafka.NewEvent(TopicReindexCompleted, "catalog", "catalog", "searchsync", ReindexCompletedData{
		Total:     total,
		Processed: processed,
		Failed:    failed,
	})
}
