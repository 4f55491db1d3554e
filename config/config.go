package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Destination string

const (
	DestinationPostgres Destination = "postgres"
	DestinationKafka    Destination = "kafka"
)

type Reporting struct {
	Sentry *Sentry `yaml:"sentry"`
	Debug  bool    `yaml:"debug"`
}

type Sentry struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

type MetricsProvider string

const (
	MetricsDatadog    MetricsProvider = "datadog"
	MetricsPrometheus MetricsProvider = "prometheus"
)

type Metrics struct {
	Provider  MetricsProvider `yaml:"provider"`
	Namespace string          `yaml:"namespace"`
	Tags      []string        `yaml:"tags"`
	// PrometheusAddress is the listen address of the /metrics endpoint when [MetricsPrometheus] is used.
	PrometheusAddress string `yaml:"prometheusAddress"`
}

func (m *Metrics) Validate() error {
	switch m.Provider {
	case "", MetricsDatadog:
		return nil
	case MetricsPrometheus:
		if m.PrometheusAddress == "" {
			return fmt.Errorf("prometheus address must be set")
		}
		return nil
	default:
		return fmt.Errorf("invalid metrics provider: %q", m.Provider)
	}
}

type Settings struct {
	Kafka       *Kafka      `yaml:"kafka"`
	Migration   *Migration  `yaml:"migration"`
	Destination Destination `yaml:"destination"`
	Postgres    *Postgres   `yaml:"postgres"`

	Reporting *Reporting `yaml:"reporting"`
	Metrics   *Metrics   `yaml:"metrics"`
}

func (s *Settings) Validate() error {
	if s == nil {
		return fmt.Errorf("config is nil")
	}

	if err := s.Kafka.Validate(); err != nil {
		return fmt.Errorf("kafka validation failed: %w", err)
	}

	if err := s.Migration.Validate(); err != nil {
		return fmt.Errorf("migration validation failed: %w", err)
	}

	switch s.Destination {
	case DestinationPostgres:
		if err := s.Postgres.Validate(); err != nil {
			return fmt.Errorf("postgres validation failed: %w", err)
		}
	case DestinationKafka:
		if s.Kafka.TopicPrefix == "" {
			return fmt.Errorf("kafka topic prefix must be set when publishing to kafka")
		}
	default:
		return fmt.Errorf("invalid destination: %q", s.Destination)
	}

	if s.Metrics != nil {
		if err := s.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics validation failed: %w", err)
		}
	}

	return nil
}

func ReadConfig(fp string) (*Settings, error) {
	bytes, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings Settings
	if err = yaml.Unmarshal(bytes, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	if err = settings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config file: %w", err)
	}

	return &settings, nil
}
