package cdc

import (
	"fmt"
	"maps"
)

// TransactionInfo is the completeness oracle of a transaction, built from its END marker.
type TransactionInfo struct {
	ID int64
	// ExpectedRowCounts is keyed by `schema.table`.
	ExpectedRowCounts map[string]int
	EventCount        int
}

// Satisfied returns true if the observed counts are exactly the expected ones.
func (t TransactionInfo) Satisfied(observed map[string]int) bool {
	return maps.Equal(t.ExpectedRowCounts, observed)
}

// Transaction is the complete, ordered change-set of one source transaction.
type Transaction struct {
	ID         int64
	Operations []ChangeEvent
}

// Signature is the ordered `table:op` list of the transaction, used to identify it in logs.
func (t Transaction) Signature() []string {
	signature := make([]string, len(t.Operations))
	for i, op := range t.Operations {
		signature[i] = fmt.Sprintf("%s:%s", op.Table, op.Operation.Short())
	}
	return signature
}

// ByTable returns the operations of a table in transaction order.
func (t Transaction) ByTable(table string) []ChangeEvent {
	var result []ChangeEvent
	for _, op := range t.Operations {
		if op.Table == table {
			result = append(result, op)
		}
	}
	return result
}

// Find returns the operations of a table with the given operation type.
func (t Transaction) Find(table string, operation Operation) []ChangeEvent {
	var result []ChangeEvent
	for _, op := range t.Operations {
		if op.Table == table && op.Operation == operation {
			result = append(result, op)
		}
	}
	return result
}

func (t Transaction) Count(table string, operation Operation) int {
	return len(t.Find(table, operation))
}

// Tables returns the distinct tables touched by the transaction, in order of first appearance.
func (t Transaction) Tables() []string {
	seen := make(map[string]bool)
	var tables []string
	for _, op := range t.Operations {
		if !seen[op.Table] {
			seen[op.Table] = true
			tables = append(tables, op.Table)
		}
	}
	return tables
}
