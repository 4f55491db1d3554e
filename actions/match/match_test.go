package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zenodo/rdm-migrator/lib/cdc"
)

func tx(ops ...Op) cdc.Transaction {
	var events []cdc.ChangeEvent
	for i, op := range ops {
		event := cdc.ChangeEvent{Table: op.Table, Operation: op.Operation, LSN: int64(i)}
		switch op.Operation {
		case cdc.Insert:
			event.After = map[string]any{}
		case cdc.Update:
			event.Before, event.After = map[string]any{}, map[string]any{}
		case cdc.Delete:
			event.Before = map[string]any{}
		}
		events = append(events, event)
	}
	return cdc.Transaction{ID: 1, Operations: events}
}

func TestOp(t *testing.T) {
	event := cdc.ChangeEvent{Table: "files_bucket", Operation: cdc.Update}
	assert.True(t, Update("files_bucket").Matches(event))
	assert.True(t, Any("files_bucket").Matches(event))
	assert.False(t, Insert("files_bucket").Matches(event))
	assert.False(t, Update("files_object").Matches(event))

	assert.Equal(t, "files_bucket:u", Update("files_bucket").String())
	assert.Equal(t, "files_bucket:*", Any("files_bucket").String())
}

func TestSequence(t *testing.T) {
	predicate := Sequence(Insert("a"), Insert("b"), Any("c"))

	assert.True(t, predicate(tx(Insert("a"), Insert("b"), Delete("c"))))
	assert.True(t, predicate(tx(Insert("a"), Insert("b"), Update("c"))))
	// Order matters.
	assert.False(t, predicate(tx(Insert("b"), Insert("a"), Insert("c"))))
	// Missing and extra operations.
	assert.False(t, predicate(tx(Insert("a"), Insert("b"))))
	assert.False(t, predicate(tx(Insert("a"), Insert("b"), Insert("c"), Insert("c"))))
	assert.False(t, predicate(tx(Insert("a"), Update("b"), Insert("c"))))
}

func TestSet(t *testing.T) {
	predicate := Set(
		One(Insert("a")),
		Optional(Update("b")),
		Many(Insert("c")),
		AtLeastOne(Any("d")),
		Exactly(Insert("e"), 2),
	)

	type _tc struct {
		name     string
		tx       cdc.Transaction
		expected bool
	}

	tcs := []_tc{
		{name: "minimal", tx: tx(Insert("e"), Delete("d"), Insert("a"), Insert("e")), expected: true},
		{name: "all optionals", tx: tx(Insert("c"), Insert("c"), Insert("a"), Update("b"), Insert("d"), Update("d"), Insert("e"), Insert("e")), expected: true},
		{name: "missing required", tx: tx(Insert("e"), Delete("d"), Insert("e")), expected: false},
		{name: "too few", tx: tx(Insert("e"), Delete("d"), Insert("a")), expected: false},
		{name: "too many", tx: tx(Insert("e"), Delete("d"), Insert("a"), Insert("e"), Insert("e")), expected: false},
		{name: "optional twice", tx: tx(Update("b"), Update("b"), Insert("e"), Delete("d"), Insert("a"), Insert("e")), expected: false},
		{name: "extraneous", tx: tx(Insert("e"), Delete("d"), Insert("a"), Insert("e"), Insert("z")), expected: false},
		{name: "wrong operation", tx: tx(Insert("e"), Delete("d"), Delete("a"), Insert("e")), expected: false},
		{name: "empty", tx: tx(), expected: false},
	}

	for _, tc := range tcs {
		assert.Equal(t, tc.expected, predicate(tc.tx), tc.name)
	}
}

func TestSet_Where(t *testing.T) {
	isMarker := func(event cdc.ChangeEvent) bool { return event.After["file_id"] == nil }
	predicate := Set(
		One(Insert("files_object")).If(isMarker),
		Optional(Update("files_object")),
	)

	marker := tx(Insert("files_object"))
	marker.Operations[0].After = map[string]any{"file_id": nil}
	assert.True(t, predicate(marker))

	upload := tx(Insert("files_object"))
	upload.Operations[0].After = map[string]any{"file_id": "abc"}
	assert.False(t, predicate(upload))
}

func TestCombinators(t *testing.T) {
	yes := func(cdc.Transaction) bool { return true }
	no := func(cdc.Transaction) bool { return false }

	assert.True(t, And(yes, yes)(tx()))
	assert.False(t, And(yes, no)(tx()))
	assert.True(t, And()(tx()))
	assert.True(t, Or(no, yes)(tx()))
	assert.False(t, Or()(tx()))
	assert.True(t, Not(no)(tx()))

	transaction := tx(Insert("a"), Update("b"))
	assert.True(t, Has(Update("b"), nil)(transaction))
	assert.False(t, Has(Delete("b"), nil)(transaction))
	assert.False(t, Has(Insert("a"), func(event cdc.ChangeEvent) bool { return event.LSN > 0 })(transaction))
	assert.True(t, None(Delete("b"), nil)(transaction))
}

func TestNotEmpty(t *testing.T) {
	assert.False(t, NotEmpty(tx()))
	assert.True(t, NotEmpty(tx(Insert("a"))))

	// An empty transaction satisfies a set of optional rules.
	optional := Set(Optional(Insert("a")), Optional(Insert("b")))
	assert.True(t, optional(tx()))
	assert.False(t, And(optional, NotEmpty)(tx()))
}
