package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/lib/mtr"
)

// TransactionIterator polls the streams, feeds the assembler and returns the transactions it completed.
// Messages of emitted transactions are committed by [TransactionIterator.CommitOffset], stale and empty
// messages are committed right away. Late transactions are committed too, each one is logged once.
type TransactionIterator struct {
	ctx       context.Context
	streams   Streams
	assembler *Assembler
	offsets   *offsetTracker
	metrics   mtr.Client
	retained  []kafkago.Message
	late      map[int64]bool
	done      bool
}

func NewTransactionIterator(ctx context.Context, streams Streams, opts Options, metrics mtr.Client) *TransactionIterator {
	return &TransactionIterator{
		ctx:       ctx,
		streams:   streams,
		assembler: NewAssembler(opts),
		offsets:   newOffsetTracker(),
		metrics:   metrics,
		late:      make(map[int64]bool),
	}
}

func (t *TransactionIterator) HasNext() bool {
	return !t.done
}

// Backlog is the number of transactions waiting for their boundary or for more rows.
func (t *TransactionIterator) Backlog() int {
	return t.assembler.Backlog()
}

// Next runs one poll cycle. It may return no transactions.
func (t *TransactionIterator) Next() ([]cdc.Transaction, error) {
	if t.done {
		return nil, fmt.Errorf("transaction iterator has finished")
	}

	txInfo, ops, err := t.streams.Poll(t.ctx)
	terminating := errors.Is(err, ErrStreamsExhausted) || errors.Is(err, context.Canceled) || t.ctx.Err() != nil
	if err != nil && !terminating {
		return nil, fmt.Errorf("failed to poll streams: %w", err)
	}

	t.offsets.track(txInfo...)
	t.offsets.track(ops...)

	var acks []kafkago.Message
	for _, msg := range txInfo {
		if !t.addTransactionInfo(msg) {
			acks = append(acks, msg)
		}
	}
	for _, msg := range ops {
		if !t.addOperation(msg) {
			acks = append(acks, msg)
		}
	}

	if len(acks) > 0 {
		t.offsets.done(acks...)
		if err = t.commit(context.WithoutCancel(t.ctx)); err != nil {
			return nil, err
		}
	}

	var txs []cdc.Transaction
	for _, assembled := range t.assembler.Assemble(terminating) {
		t.retained = append(t.retained, assembled.Messages...)
		if len(assembled.Transaction.Operations) == 0 {
			slog.Debug("Skipping empty transaction", slog.Int64("txID", assembled.Transaction.ID))
			continue
		}
		txs = append(txs, assembled.Transaction)
	}

	if terminating {
		if backlog := t.assembler.Backlog(); backlog > 0 {
			slog.Warn("Dropping incomplete transactions", slog.Int("backlog", backlog))
		}
		t.done = true
	}

	return txs, nil
}

func (t *TransactionIterator) addTransactionInfo(msg kafkago.Message) bool {
	info, err := cdc.ParseTransactionInfo(msg.Value)
	if err != nil {
		slog.Warn("Skipping malformed transaction message", slog.Any("err", err), slog.Int64("offset", msg.Offset))
		return false
	}

	if info == nil {
		return false
	}

	switch t.assembler.AddTransactionInfo(*info, msg) {
	case Buffered:
		return true
	case Late:
		t.dropLate(info.ID, slog.String("topic", msg.Topic))
	}
	return false
}

func (t *TransactionIterator) addOperation(msg kafkago.Message) bool {
	evt, err := cdc.ParseChangeEvent(msg.Key, msg.Value)
	if err != nil {
		slog.Warn("Skipping malformed change event", slog.Any("err", err), slog.String("topic", msg.Topic), slog.Int64("offset", msg.Offset))
		return false
	}

	if evt == nil {
		return false
	}

	switch t.assembler.AddOperation(*evt, msg) {
	case Buffered:
		return true
	case Late:
		t.dropLate(evt.TransactionID, slog.String("table", evt.QualifiedTable()))
	}
	return false
}

// dropLate reports a transaction that arrived after a higher one was emitted.
func (t *TransactionIterator) dropLate(txID int64, attr slog.Attr) {
	if t.late[txID] {
		return
	}

	t.late[txID] = true
	slog.Warn("Dropping late transaction", slog.Int64("txID", txID), attr, slog.Int64("lastYielded", t.assembler.LastYielded()))
	t.metrics.Incr("assembler.late", nil)
}

// CommitOffset acknowledges the messages of every transaction returned so far.
func (t *TransactionIterator) CommitOffset(ctx context.Context) error {
	t.offsets.done(t.retained...)
	t.retained = nil
	return t.commit(ctx)
}

func (t *TransactionIterator) commit(ctx context.Context) error {
	if err := t.streams.Commit(ctx, t.offsets.commitable()); err != nil {
		return fmt.Errorf("failed to commit offsets: %w", err)
	}
	return nil
}

func (t *TransactionIterator) Close() error {
	return t.streams.Close()
}
