package kafkalib

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/zenodo/rdm-migrator/config"
)

// Topics returns every topic the migration consumes: the transaction boundaries first, then the data topics.
func Topics(cfg config.Kafka) []string {
	return append([]string{cfg.TransactionTopic}, cfg.DataTopics...)
}

// NewReader returns a consumer group reader over all the topics of the migration. Offsets are only committed
// explicitly, once the transactions they belong to were written.
func NewReader(ctx context.Context, cfg config.Kafka) (*kafka.Reader, error) {
	mechanism, tlsCfg, err := mskMechanism(ctx, cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("Setting kafka bootstrap URLs", slog.Any("urls", cfg.BootstrapAddresses()), slog.Any("topics", Topics(cfg)))
	readerCfg := kafka.ReaderConfig{
		Brokers:        cfg.BootstrapAddresses(),
		GroupID:        cfg.GroupID,
		GroupTopics:    Topics(cfg),
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0,
		Dialer: &kafka.Dialer{
			Timeout:       dialTimeout,
			DualStack:     true,
			SASLMechanism: mechanism,
			TLS:           tlsCfg,
		},
	}
	if err = readerCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kafka reader config: %w", err)
	}

	return kafka.NewReader(readerCfg), nil
}
