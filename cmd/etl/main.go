package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BarkinBalci/insurance-etl-pipeline/internal/broker/kafka"
	"github.com/BarkinBalci/insurance-etl-pipeline/internal/config"
	"github.com/BarkinBalci/insurance-etl-pipeline/internal/dimension/mysql"
	"github.com/BarkinBalci/insurance-etl-pipeline/internal/etl"
	"github.com/BarkinBalci/insurance-etl-pipeline/internal/logger"
)

func main() {
	topic := flag.String("topic", "", "source topic (overrides KAFKA_SOURCE_TOPIC)")
	flag.Parse()

	if err := run(*topic); err != nil {
		fmt.Fprintf(os.Stderr, "pipeline failed: %v\n", err)
		os.Exit(1)
	}
}

// run owns the full lifecycle of a single pipeline run. Every resource
// opened here is released on each exit path, success or failure.
func run(topicOverride string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if topicOverride != "" {
		cfg.Kafka.SourceTopic = topicOverride
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func(log *zap.Logger) {
		if err := log.Sync(); err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting insurance ETL pipeline",
		zap.String("environment", cfg.Service.Environment),
		zap.String("source_topic", cfg.Kafka.SourceTopic),
		zap.String("output_topic", cfg.Kafka.OutputTopic))

	ctx := context.Background()

	// Initialize MySQL dimension loader
	users, err := mysql.NewLoader(ctx, &cfg.MySQL, log)
	if err != nil {
		return fmt.Errorf("failed to create MySQL loader: %w", err)
	}
	defer func() {
		if err := users.Close(); err != nil {
			log.Error("Failed to close MySQL loader", zap.Error(err))
		}
	}()

	// Initialize Kafka source and sink
	source := kafka.NewSource(kafka.SourceConfig{
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.SourceTopic,
		GroupID:   cfg.Kafka.GroupID,
		DrainWait: time.Duration(cfg.Kafka.DrainWaitSec) * time.Second,
	}, log)
	defer func() {
		if err := source.Close(); err != nil {
			log.Error("Failed to close Kafka source", zap.Error(err))
		}
	}()

	sink := kafka.NewSink(kafka.SinkConfig{
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.OutputTopic,
		BatchSize: cfg.Kafka.PublishBatchSize,
	}, log)
	defer func() {
		if err := sink.Close(); err != nil {
			log.Error("Failed to close Kafka sink", zap.Error(err))
		}
	}()

	// Serve health and metrics while the run is in flight
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mux.Handle("/metrics", promhttp.Handler())

		addr := ":" + cfg.Service.MetricsPort
		log.Info("Metrics server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("Metrics server error", zap.Error(err))
		}
	}()

	// Run the pipeline once
	pipeline := etl.NewPipeline(source, users, sink, cfg.Pipeline.Workers, log)
	if _, err := pipeline.Run(ctx); err != nil {
		return err
	}

	return nil
}
