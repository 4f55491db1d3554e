package cdc

import (
	"fmt"
	"reflect"
)

// ChangeEvent is a single row level insert, update or delete captured from the source database.
type ChangeEvent struct {
	Operation Operation
	Schema    string
	Table     string
	// Key holds the primary key columns of the row, as sent in the message key.
	Key    map[string]any
	Before map[string]any
	After  map[string]any

	TransactionID int64
	// LSN orders events within a transaction.
	LSN  int64
	TsMs int64
}

func (c ChangeEvent) QualifiedTable() string {
	if c.Schema == "" {
		return c.Table
	}
	return fmt.Sprintf("%s.%s", c.Schema, c.Table)
}

func (c ChangeEvent) Validate() error {
	if c.Table == "" {
		return fmt.Errorf("table is empty")
	}

	switch c.Operation {
	case Insert:
		if c.After == nil {
			return fmt.Errorf("after is nil for an insert on %q", c.Table)
		}
	case Update:
		if c.After == nil || c.Before == nil {
			return fmt.Errorf("before and after must be set for an update on %q", c.Table)
		}
	case Delete:
		if c.Before == nil {
			return fmt.Errorf("before is nil for a delete on %q", c.Table)
		}
	default:
		return fmt.Errorf("unsupported operation: %q", c.Operation)
	}

	return nil
}

// Row returns the most recent image of the row: after, or before for deletes.
func (c ChangeEvent) Row() map[string]any {
	if c.After != nil {
		return c.After
	}
	return c.Before
}

// Changed returns true if the column is present in after and differs from before.
func (c ChangeEvent) Changed(column string) bool {
	afterVal, inAfter := c.After[column]
	if !inAfter {
		return false
	}
	beforeVal, inBefore := c.Before[column]
	return !inBefore || !reflect.DeepEqual(beforeVal, afterVal)
}

// RemoveUnchangedFields strips the columns that are identical in before and after from both images.
// Primary key columns are always kept. It is a no-op for anything but updates.
func (c *ChangeEvent) RemoveUnchangedFields() {
	if c.Operation != Update || c.Before == nil || c.After == nil {
		return
	}

	for column, afterVal := range c.After {
		if _, isKey := c.Key[column]; isKey {
			continue
		}

		beforeVal, isOk := c.Before[column]
		if isOk && reflect.DeepEqual(beforeVal, afterVal) {
			delete(c.Before, column)
			delete(c.After, column)
		}
	}
}
