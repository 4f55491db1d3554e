package kafka

import (
	"encoding/json"
	"fmt"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/zenodo/rdm-migrator/lib/cdc"
)

func event(txID, lsn int64, table string) cdc.ChangeEvent {
	return cdc.ChangeEvent{
		Operation:     cdc.Insert,
		Schema:        "public",
		Table:         table,
		After:         map[string]any{"id": json.Number(fmt.Sprint(lsn))},
		TransactionID: txID,
		LSN:           lsn,
	}
}

func info(txID int64, counts map[string]int) cdc.TransactionInfo {
	return cdc.TransactionInfo{ID: txID, ExpectedRowCounts: counts}
}

func lsns(tx cdc.Transaction) []int64 {
	var result []int64
	for _, op := range tx.Operations {
		result = append(result, op.LSN)
	}
	return result
}

func TestAssembler_Complete(t *testing.T) {
	a := NewAssembler(Options{})
	msg := kafkago.Message{}

	assert.Equal(t, Buffered, a.AddOperation(event(10, 3, "b"), msg))
	assert.Equal(t, Buffered, a.AddOperation(event(10, 1, "a"), msg))
	assert.Empty(t, a.Assemble(false), "no transaction info yet")

	assert.Equal(t, Buffered, a.AddTransactionInfo(info(10, map[string]int{"public.a": 1, "public.b": 2}), msg))
	assert.Empty(t, a.Assemble(false), "one row of b is missing")

	assert.Equal(t, Buffered, a.AddOperation(event(10, 2, "b"), msg))
	assembled := a.Assemble(false)
	assert.Len(t, assembled, 1)
	assert.Equal(t, int64(10), assembled[0].Transaction.ID)
	assert.Equal(t, []int64{1, 2, 3}, lsns(assembled[0].Transaction))
	assert.Len(t, assembled[0].Messages, 4)
	assert.Equal(t, 0, a.Backlog())
	assert.Equal(t, int64(10), a.LastYielded())
}

func TestAssembler_ExtraRowsNeverComplete(t *testing.T) {
	a := NewAssembler(Options{})
	a.AddTransactionInfo(info(10, map[string]int{"public.a": 1}), kafkago.Message{})
	a.AddOperation(event(10, 1, "a"), kafkago.Message{})
	a.AddOperation(event(10, 2, "a"), kafkago.Message{})
	assert.Empty(t, a.Assemble(true))
	assert.Equal(t, 1, a.Backlog())
}

func TestAssembler_HeadOfLine(t *testing.T) {
	a := NewAssembler(Options{})
	a.AddTransactionInfo(info(11, map[string]int{"public.a": 1}), kafkago.Message{})
	a.AddOperation(event(11, 5, "a"), kafkago.Message{})
	a.AddTransactionInfo(info(10, map[string]int{"public.a": 1}), kafkago.Message{})

	assert.Empty(t, a.Assemble(true), "10 is incomplete and blocks 11")
	assert.Equal(t, 2, a.Backlog())

	a.AddOperation(event(10, 4, "a"), kafkago.Message{})
	assembled := a.Assemble(false)
	assert.Len(t, assembled, 2)
	assert.Equal(t, int64(10), assembled[0].Transaction.ID)
	assert.Equal(t, int64(11), assembled[1].Transaction.ID)
}

func TestAssembler_TxBuffer(t *testing.T) {
	{
		// Waits for the run to reach the buffer size
		a := NewAssembler(Options{TxBuffer: 2})
		a.AddTransactionInfo(info(1, map[string]int{"public.a": 1}), kafkago.Message{})
		a.AddOperation(event(1, 1, "a"), kafkago.Message{})
		assert.Empty(t, a.Assemble(false))

		a.AddTransactionInfo(info(2, map[string]int{"public.a": 1}), kafkago.Message{})
		a.AddOperation(event(2, 2, "a"), kafkago.Message{})
		assert.Len(t, a.Assemble(false), 2)
	}
	{
		// Final assembly ignores the buffer
		a := NewAssembler(Options{TxBuffer: 5})
		a.AddTransactionInfo(info(1, map[string]int{"public.a": 1}), kafkago.Message{})
		a.AddOperation(event(1, 1, "a"), kafkago.Message{})
		assert.Empty(t, a.Assemble(false))
		assert.Len(t, a.Assemble(true), 1)
	}
	{
		// Zero buffer emits as soon as possible
		a := NewAssembler(Options{TxBuffer: 0})
		a.AddTransactionInfo(info(1, map[string]int{"public.a": 1}), kafkago.Message{})
		a.AddOperation(event(1, 1, "a"), kafkago.Message{})
		assert.Len(t, a.Assemble(false), 1)
	}
}

func TestAssembler_Stale(t *testing.T) {
	a := NewAssembler(Options{LastCommittedTransactionID: 10})
	assert.Equal(t, Replayed, a.AddOperation(event(9, 1, "a"), kafkago.Message{}))
	assert.Equal(t, Replayed, a.AddOperation(event(10, 1, "a"), kafkago.Message{}))
	assert.Equal(t, Replayed, a.AddTransactionInfo(info(10, map[string]int{"public.a": 1}), kafkago.Message{}))
	assert.Equal(t, 0, a.Backlog())

	assert.Equal(t, Buffered, a.AddTransactionInfo(info(12, map[string]int{"public.a": 1}), kafkago.Message{}))
	assert.Equal(t, Buffered, a.AddOperation(event(12, 1, "a"), kafkago.Message{}))
	assert.Len(t, a.Assemble(false), 1)

	// Above the last committed transaction but at or below the last emitted one
	assert.Equal(t, Late, a.AddOperation(event(11, 1, "a"), kafkago.Message{}))
	assert.Equal(t, Late, a.AddTransactionInfo(info(11, map[string]int{"public.a": 1}), kafkago.Message{}))
	assert.Equal(t, Late, a.AddOperation(event(12, 2, "a"), kafkago.Message{}))
	assert.Equal(t, Replayed, a.AddOperation(event(10, 2, "a"), kafkago.Message{}))
	assert.Equal(t, Buffered, a.AddOperation(event(13, 1, "a"), kafkago.Message{}))
	assert.Equal(t, 1, a.Backlog())
}

func TestAssembler_RemoveUnchangedFields(t *testing.T) {
	update := cdc.ChangeEvent{
		Operation:     cdc.Update,
		Table:         "accounts_user",
		Key:           map[string]any{"id": 1},
		Before:        map[string]any{"id": 1, "email": "a@b.org", "active": true},
		After:         map[string]any{"id": 1, "email": "a@b.org", "active": false},
		TransactionID: 1,
		LSN:           1,
	}

	a := NewAssembler(Options{RemoveUnchangedFields: true})
	a.AddTransactionInfo(info(1, map[string]int{"accounts_user": 1}), kafkago.Message{})
	a.AddOperation(update, kafkago.Message{})

	assembled := a.Assemble(false)
	assert.Len(t, assembled, 1)
	op := assembled[0].Transaction.Operations[0]
	assert.Equal(t, map[string]any{"id": 1, "active": true}, op.Before)
	assert.Equal(t, map[string]any{"id": 1, "active": false}, op.After)
}
