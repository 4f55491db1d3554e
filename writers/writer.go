package writers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zenodo/rdm-migrator/actions"
	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/destinations"
	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/lib/iterator"
	"github.com/zenodo/rdm-migrator/lib/mtr"
	"github.com/zenodo/rdm-migrator/state"
)

// CheckpointKey is where the id of the last written transaction is kept.
const CheckpointKey = "lastCommittedTransactionID"

type Processor interface {
	Process(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error)
}

type StateStore interface {
	Save(mc *state.MigrationContext) error
}

type Checkpoint interface {
	Set(key string, value int64) error
}

type backlogger interface {
	Backlog() int
}

type Writer struct {
	destination destinations.Destination
	processor   Processor
	mc          *state.MigrationContext
	metrics     mtr.Client

	store       StateStore
	checkpoint  Checkpoint
	logProgress bool
}

type Option func(*Writer)

// WithStateStore persists the caches once the entities of a batch were written.
func WithStateStore(store StateStore) Option {
	return func(w *Writer) { w.store = store }
}

func WithCheckpoint(checkpoint Checkpoint) Option {
	return func(w *Writer) { w.checkpoint = checkpoint }
}

func WithLogProgress() Option {
	return func(w *Writer) { w.logProgress = true }
}

func New(destination destinations.Destination, processor Processor, mc *state.MigrationContext, metrics mtr.Client, opts ...Option) *Writer {
	w := &Writer{destination: destination, processor: processor, mc: mc, metrics: metrics}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write processes every transaction from the iterator and writes the resulting bundles to the destination.
// A transaction that cannot be processed is logged and skipped, it never stops the pipeline.
func (w *Writer) Write(ctx context.Context, iter iterator.Iterator[[]cdc.Transaction]) (int, error) {
	start := time.Now()
	var count int
	for iter.HasNext() {
		iterStart := time.Now()
		txs, err := iter.Next()
		if err != nil {
			return 0, fmt.Errorf("failed to iterate over transactions: %w", err)
		}

		bundles := w.process(txs)
		if len(bundles) > 0 {
			if err = w.destination.Write(ctx, bundles); err != nil {
				return 0, fmt.Errorf("failed to write bundles: %w", err)
			}
		}

		if err = w.persist(txs); err != nil {
			return 0, err
		}

		if streamingIter, isOk := iter.(iterator.StreamingIterator[[]cdc.Transaction]); isOk {
			if err = streamingIter.CommitOffset(ctx); err != nil {
				return 0, fmt.Errorf("failed to commit offset: %w", err)
			}
		}

		if backlogIter, isOk := iter.(backlogger); isOk {
			w.metrics.Gauge("assembler.pending", float64(backlogIter.Backlog()), nil)
		}
		w.metrics.Count("assembler.emitted", int64(len(txs)), nil)

		count += len(txs)
		if w.logProgress && len(txs) > 0 {
			slog.Info("Write progress",
				slog.Int("totalTransactions", count),
				slog.Duration("totalDuration", time.Since(start)),
				slog.Int("batchSize", len(txs)),
				slog.Int("bundles", len(bundles)),
				slog.Duration("batchDuration", time.Since(iterStart)),
			)
		}
	}

	return count, nil
}

func (w *Writer) process(txs []cdc.Transaction) []*entities.Bundle {
	var bundles []*entities.Bundle
	for _, tx := range txs {
		bundle, err := w.processor.Process(tx, w.mc)
		if err != nil {
			if errors.Is(err, actions.ErrNoMatchingAction) {
				slog.Warn("Skipping unhandled transaction", slog.Int64("txID", tx.ID), slog.Any("signature", tx.Signature()))
				w.metrics.Incr("transaction.skipped", map[string]string{"reason": "unmatched"})
			} else {
				slog.Error("Failed to process transaction", slog.Int64("txID", tx.ID), slog.Any("signature", tx.Signature()), slog.Any("err", err))
				w.metrics.Incr("transaction.skipped", map[string]string{"reason": "error"})
			}
			continue
		}

		w.metrics.Incr("transaction.processed", map[string]string{"action": bundle.Action})
		if !bundle.Empty() {
			bundles = append(bundles, bundle)
		}
	}
	return bundles
}

func (w *Writer) persist(txs []cdc.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	if w.store != nil {
		if err := w.store.Save(w.mc); err != nil {
			return fmt.Errorf("failed to save state: %w", err)
		}
	}

	if w.checkpoint != nil {
		lastID := txs[len(txs)-1].ID
		if err := w.checkpoint.Set(CheckpointKey, lastID); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
	}
	return nil
}
