package kafka

import (
	"slices"
	"sort"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/zenodo/rdm-migrator/lib/cdc"
)

type Options struct {
	// LastCommittedTransactionID - anything at or below it is dropped.
	LastCommittedTransactionID int64
	// TxBuffer is the number of contiguous complete transactions required before any of them is emitted.
	TxBuffer              int
	RemoveUnchangedFields bool
}

type pendingTransaction struct {
	id       int64
	info     *cdc.TransactionInfo
	events   []cdc.ChangeEvent
	observed map[string]int
	messages []kafkago.Message
}

func (p *pendingTransaction) complete() bool {
	return p.info != nil && p.info.Satisfied(p.observed)
}

// insert keeps events sorted by LSN, events with the same LSN stay in arrival order.
func (p *pendingTransaction) insert(evt cdc.ChangeEvent) {
	idx := sort.Search(len(p.events), func(i int) bool { return p.events[i].LSN > evt.LSN })
	p.events = slices.Insert(p.events, idx, evt)
	p.observed[evt.QualifiedTable()]++
}

// Assembled is a complete transaction along with the messages it was built from.
type Assembled struct {
	Transaction cdc.Transaction
	Messages    []kafkago.Message
}

// Assembler turns interleaved boundary and row change events into complete transactions, emitted by ascending id.
// It is not safe for concurrent use.
type Assembler struct {
	opts        Options
	pending     map[int64]*pendingTransaction
	order       []int64
	lastYielded int64
}

func NewAssembler(opts Options) *Assembler {
	return &Assembler{
		opts:    opts,
		pending: make(map[int64]*pendingTransaction),
	}
}

// Disposition is what the assembler did with a message.
type Disposition int

const (
	// Buffered messages are retained on their pending transaction.
	Buffered Disposition = iota
	// Replayed messages belong to a transaction at or below the last committed one.
	Replayed
	// Late messages belong to a transaction below one that was already emitted, they can no longer be applied in order.
	Late
)

func (a *Assembler) classify(txID int64) Disposition {
	if txID <= a.opts.LastCommittedTransactionID {
		return Replayed
	}
	if txID <= a.lastYielded {
		return Late
	}
	return Buffered
}

func (a *Assembler) get(txID int64) *pendingTransaction {
	if p, isOk := a.pending[txID]; isOk {
		return p
	}

	p := &pendingTransaction{id: txID, observed: make(map[string]int)}
	a.pending[txID] = p
	idx, _ := slices.BinarySearch(a.order, txID)
	a.order = slices.Insert(a.order, idx, txID)
	return p
}

// AddTransactionInfo attaches the completeness oracle to its pending transaction.
// Nothing is retained unless it returns [Buffered].
func (a *Assembler) AddTransactionInfo(info cdc.TransactionInfo, msg kafkago.Message) Disposition {
	if disposition := a.classify(info.ID); disposition != Buffered {
		return disposition
	}

	p := a.get(info.ID)
	p.info = &info
	p.messages = append(p.messages, msg)
	return Buffered
}

// AddOperation buffers a row change into its pending transaction.
// Nothing is retained unless it returns [Buffered].
func (a *Assembler) AddOperation(evt cdc.ChangeEvent, msg kafkago.Message) Disposition {
	if disposition := a.classify(evt.TransactionID); disposition != Buffered {
		return disposition
	}

	if a.opts.RemoveUnchangedFields {
		evt.RemoveUnchangedFields()
	}

	p := a.get(evt.TransactionID)
	p.insert(evt)
	p.messages = append(p.messages, msg)
	return Buffered
}

// Assemble emits the contiguous run of complete transactions starting at the lowest pending id.
// Unless final is set, nothing is emitted until the run holds at least [Options.TxBuffer] transactions.
func (a *Assembler) Assemble(final bool) []Assembled {
	var run int
	for _, txID := range a.order {
		if !a.pending[txID].complete() {
			break
		}
		run++
	}

	if run == 0 || (!final && run < a.opts.TxBuffer) {
		return nil
	}

	result := make([]Assembled, 0, run)
	for _, txID := range a.order[:run] {
		p := a.pending[txID]
		delete(a.pending, txID)
		result = append(result, Assembled{
			Transaction: cdc.Transaction{ID: txID, Operations: p.events},
			Messages:    p.messages,
		})
		a.lastYielded = txID
	}

	a.order = slices.Delete(a.order, 0, run)
	return result
}

// Backlog is the number of pending transactions.
func (a *Assembler) Backlog() int {
	return len(a.order)
}

// LastYielded is the id of the last emitted transaction, zero if none was.
func (a *Assembler) LastYielded() int64 {
	return a.lastYielded
}
