// Package match builds the predicates actions use to recognise the shape of a transaction.
package match

import (
	"fmt"

	"github.com/zenodo/rdm-migrator/lib/cdc"
)

// Op matches change events on a table. An empty Operation matches any operation.
type Op struct {
	Table     string
	Operation cdc.Operation
}

func Insert(table string) Op { return Op{Table: table, Operation: cdc.Insert} }
func Update(table string) Op { return Op{Table: table, Operation: cdc.Update} }
func Delete(table string) Op { return Op{Table: table, Operation: cdc.Delete} }
func Any(table string) Op    { return Op{Table: table} }

func (o Op) Matches(event cdc.ChangeEvent) bool {
	return event.Table == o.Table && (o.Operation == "" || event.Operation == o.Operation)
}

func (o Op) String() string {
	if o.Operation == "" {
		return o.Table + ":*"
	}
	return fmt.Sprintf("%s:%s", o.Table, o.Operation.Short())
}

// Predicate must not mutate the transaction.
type Predicate func(tx cdc.Transaction) bool

// Sequence matches transactions made of exactly these operations, in this order.
func Sequence(ops ...Op) Predicate {
	return func(tx cdc.Transaction) bool {
		if len(tx.Operations) != len(ops) {
			return false
		}
		for i, op := range ops {
			if !op.Matches(tx.Operations[i]) {
				return false
			}
		}
		return true
	}
}

// Unbounded is used as [Rule.Max] for rules without an upper bound.
const Unbounded = -1

// Rule claims between Min and Max operations of a transaction.
type Rule struct {
	Op    Op
	Min   int
	Max   int
	Where func(cdc.ChangeEvent) bool
}

func One(op Op) Rule        { return Rule{Op: op, Min: 1, Max: 1} }
func Optional(op Op) Rule   { return Rule{Op: op, Min: 0, Max: 1} }
func Many(op Op) Rule       { return Rule{Op: op, Min: 0, Max: Unbounded} }
func AtLeastOne(op Op) Rule { return Rule{Op: op, Min: 1, Max: Unbounded} }
func Exactly(op Op, n int) Rule {
	return Rule{Op: op, Min: n, Max: n}
}

// If restricts the rule to events satisfying fn.
func (r Rule) If(fn func(cdc.ChangeEvent) bool) Rule {
	r.Where = fn
	return r
}

func (r Rule) accepts(event cdc.ChangeEvent) bool {
	return r.Op.Matches(event) && (r.Where == nil || r.Where(event))
}

func (r Rule) full(count int) bool {
	return r.Max != Unbounded && count >= r.Max
}

// Set matches transactions whose operations can all be claimed by the rules, in any order, with every rule
// within its bounds. Operations are claimed by the first rule that accepts them and still has room, so more
// specific rules must come before more general ones on the same table.
func Set(rules ...Rule) Predicate {
	return func(tx cdc.Transaction) bool {
		counts := make([]int, len(rules))
		for _, event := range tx.Operations {
			claimed := false
			for i, rule := range rules {
				if rule.accepts(event) && !rule.full(counts[i]) {
					counts[i]++
					claimed = true
					break
				}
			}
			if !claimed {
				return false
			}
		}

		for i, rule := range rules {
			if counts[i] < rule.Min {
				return false
			}
		}
		return true
	}
}

func And(predicates ...Predicate) Predicate {
	return func(tx cdc.Transaction) bool {
		for _, predicate := range predicates {
			if !predicate(tx) {
				return false
			}
		}
		return true
	}
}

func Or(predicates ...Predicate) Predicate {
	return func(tx cdc.Transaction) bool {
		for _, predicate := range predicates {
			if predicate(tx) {
				return true
			}
		}
		return false
	}
}

func Not(predicate Predicate) Predicate {
	return func(tx cdc.Transaction) bool {
		return !predicate(tx)
	}
}

// Has matches transactions with at least one event accepted by the rule's op and condition.
func Has(op Op, where func(cdc.ChangeEvent) bool) Predicate {
	return func(tx cdc.Transaction) bool {
		for _, event := range tx.Operations {
			if op.Matches(event) && (where == nil || where(event)) {
				return true
			}
		}
		return false
	}
}

// None matches transactions without any event accepted by the op and condition.
func None(op Op, where func(cdc.ChangeEvent) bool) Predicate {
	return Not(Has(op, where))
}

// NotEmpty matches transactions with at least one operation.
func NotEmpty(tx cdc.Transaction) bool {
	return len(tx.Operations) > 0
}
