package kafkalib

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artie-labs/transfer/lib/jitter"
	"github.com/artie-labs/transfer/lib/size"
	"github.com/segmentio/kafka-go"

	"github.com/zenodo/rdm-migrator/config"
	"github.com/zenodo/rdm-migrator/lib/iterator"
	"github.com/zenodo/rdm-migrator/lib/mtr"
)

const (
	maxAttempts  = 10
	baseJitterMs = 300
	maxJitterMs  = 5000
)

func NewWriter(ctx context.Context, cfg config.Kafka) (*kafka.Writer, error) {
	mechanism, tlsCfg, err := mskMechanism(ctx, cfg)
	if err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.BootstrapAddresses()...),
		Compression:            kafka.Gzip,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}

	if cfg.MaxRequestSize > 0 {
		writer.BatchBytes = int64(cfg.MaxRequestSize)
	}

	if mechanism != nil {
		writer.Transport = &kafka.Transport{
			DialTimeout: dialTimeout,
			SASL:        mechanism,
			TLS:         tlsCfg,
		}
	}

	return writer, nil
}

// MessageWriter is the part of [kafka.Writer] the batch writer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// BatchWriter publishes messages in chunks of the configured publish size, retrying each chunk with jitter.
type BatchWriter struct {
	writer  MessageWriter
	cfg     config.Kafka
	metrics mtr.Client
	// reload builds a new writer, the old one is closed first.
	reload func(ctx context.Context) (MessageWriter, error)
}

func NewBatchWriter(ctx context.Context, cfg config.Kafka, metrics mtr.Client) (*BatchWriter, error) {
	writer, err := NewWriter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &BatchWriter{
		writer:  writer,
		cfg:     cfg,
		metrics: metrics,
		reload: func(ctx context.Context) (MessageWriter, error) {
			return NewWriter(ctx, cfg)
		},
	}, nil
}

func (w *BatchWriter) reloadWriter(ctx context.Context) error {
	if err := w.writer.Close(); err != nil {
		return err
	}

	writer, err := w.reload(ctx)
	if err != nil {
		return err
	}

	w.writer = writer
	return nil
}

func (w *BatchWriter) Write(ctx context.Context, msgs []kafka.Message) error {
	chunks := iterator.Batch(iterator.FromSlice(msgs), int(w.cfg.GetPublishSize()))
	for chunks.HasNext() {
		chunk, err := chunks.Next()
		if err != nil {
			return err
		}

		if err = w.writeChunk(ctx, chunk); err != nil {
			w.metrics.Count("kafka.publish", int64(len(chunk)), map[string]string{"what": "error"})
			return fmt.Errorf("failed to write message: %w, approxSize: %d", err, size.GetApproxSize(chunk))
		}
		w.metrics.Count("kafka.publish", int64(len(chunk)), map[string]string{"what": "success"})
	}
	return nil
}

func (w *BatchWriter) writeChunk(ctx context.Context, chunk []kafka.Message) error {
	var err error
	for attempts := 0; attempts < maxAttempts; attempts++ {
		if err = w.writer.WriteMessages(ctx, chunk...); err == nil {
			return nil
		}

		if IsExceedMaxMessageBytesErr(err) {
			slog.Warn("Skipping this chunk since the batch exceeded the server limit", slog.Int("chunkSize", len(chunk)))
			return nil
		}

		if IsRetryableError(err) {
			if reloadErr := w.reloadWriter(ctx); reloadErr != nil {
				slog.Warn("Failed to reload kafka writer", slog.Any("err", reloadErr))
			}
			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		sleepDuration := jitter.Jitter(baseJitterMs, maxJitterMs, attempts)
		slog.Info("Failed to publish to kafka",
			slog.Any("err", err),
			slog.Int("attempts", attempts),
			slog.Duration("sleep", sleepDuration),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleepDuration):
		}
	}
	return err
}

func (w *BatchWriter) Close() error {
	return w.writer.Close()
}
