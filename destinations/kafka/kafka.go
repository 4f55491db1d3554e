package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/config"
	"github.com/zenodo/rdm-migrator/lib/kafkalib"
	"github.com/zenodo/rdm-migrator/lib/mtr"
)

type publisher interface {
	Write(ctx context.Context, msgs []kafka.Message) error
	Close() error
}

// Destination publishes every bundle as one JSON message, keyed by its transaction id.
type Destination struct {
	writer publisher
	topic  string
}

func New(ctx context.Context, cfg config.Kafka, metrics mtr.Client) (*Destination, error) {
	writer, err := kafkalib.NewBatchWriter(ctx, cfg, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka writer: %w", err)
	}

	return &Destination{writer: writer, topic: Topic(cfg)}, nil
}

func Topic(cfg config.Kafka) string {
	return fmt.Sprintf("%s.bundles", cfg.TopicPrefix)
}

func (d *Destination) Write(ctx context.Context, bundles []*entities.Bundle) error {
	var msgs []kafka.Message
	for _, bundle := range bundles {
		if bundle.Empty() {
			continue
		}

		msg, err := kafkalib.NewMessage(d.topic, map[string]any{"tx_id": bundle.TransactionID}, bundle)
		if err != nil {
			return fmt.Errorf("failed to build message for transaction %d: %w", bundle.TransactionID, err)
		}
		msgs = append(msgs, msg)
	}

	if len(msgs) == 0 {
		return nil
	}

	return d.writer.Write(ctx, msgs)
}

func (d *Destination) Close() error {
	return d.writer.Close()
}
