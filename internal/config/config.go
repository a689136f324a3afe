package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
	MetricsPort string `envconfig:"SERVICE_METRICS_PORT" default:"8081"`
}

type Kafka struct {
	Brokers          []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	SourceTopic      string   `envconfig:"KAFKA_SOURCE_TOPIC" default:"insurance.raw_events"`
	OutputTopic      string   `envconfig:"KAFKA_OUTPUT_TOPIC" default:"insurance.processed_events"`
	GroupID          string   `envconfig:"KAFKA_GROUP_ID" default:"insurance-etl"`
	DrainWaitSec     int      `envconfig:"KAFKA_DRAIN_WAIT_SEC" default:"5"`
	PublishBatchSize int      `envconfig:"KAFKA_PUBLISH_BATCH_SIZE" default:"500"`
}

type MySQL struct {
	Host               string `envconfig:"MYSQL_HOST" default:"localhost"`
	Port               string `envconfig:"MYSQL_PORT" default:"3306"`
	Database           string `envconfig:"MYSQL_DB" default:"insurance_db"`
	User               string `envconfig:"MYSQL_USER" required:"true"`
	Password           string `envconfig:"MYSQL_PASSWORD" default:""`
	MaxOpenConns       int    `envconfig:"MYSQL_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns       int    `envconfig:"MYSQL_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetimeSec int    `envconfig:"MYSQL_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

type Pipeline struct {
	Workers int `envconfig:"PIPELINE_WORKERS" default:"8"`
}

type Config struct {
	Service  Service
	Kafka    Kafka
	MySQL    MySQL
	Pipeline Pipeline
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
