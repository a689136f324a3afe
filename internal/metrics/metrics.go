// Package metrics exposes the pipeline's prometheus instrumentation. All
// collectors are registered on the default registry and served by the
// metrics endpoint in cmd/etl.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsFetched counts parseable events pulled from the source topic.
	EventsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_events_fetched_total",
		Help: "Parseable events fetched from the source topic.",
	})

	// EventsMalformed counts payloads dropped at the source for failing
	// envelope parsing.
	EventsMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_events_malformed_total",
		Help: "Payloads dropped at the source because they failed envelope parsing.",
	})

	// EventsDropped counts parseable events dropped by the cleaner for
	// violating validity invariants.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_events_dropped_total",
		Help: "Events dropped by the cleaner for failing validity checks.",
	})

	// RecordsEnriched counts enriched records materialized by the deriver.
	RecordsEnriched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_records_enriched_total",
		Help: "Enriched records materialized by the deriver.",
	})

	// RecordsPublished counts records delivered to the output topic.
	RecordsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_records_published_total",
		Help: "Enriched records published to the output topic.",
	})

	// NullValues reports the null count per output column from the most
	// recent quality audit.
	NullValues = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "etl_column_null_values",
		Help: "Null values per output column in the last completed audit.",
	}, []string{"column"})

	// RunDuration reports the wall-clock duration of the last run.
	RunDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etl_run_duration_seconds",
		Help: "Duration of the last pipeline run in seconds.",
	})

	// RunsTotal counts completed runs by terminal status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_runs_total",
		Help: "Pipeline runs by terminal status.",
	}, []string{"status"})
)
