package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	consumerMessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_messages_processed_total",
			Help: "Total number of successfully processed Kafka messages",
		},
		[]string{"topic"},
	)

	consumerMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_messages_failed_total",
			Help: "Total number of Kafka messages that exhausted their retry budget",
		},
		[]string{"topic"},
	)
)
