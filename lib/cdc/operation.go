package cdc

import "fmt"

type Operation string

const (
	Insert Operation = "insert"
	Update Operation = "update"
	Delete Operation = "delete"
)

// NormalizeOperation maps a Debezium op code onto [Operation]. Snapshot reads ("r") are inserts.
func NormalizeOperation(op string) (Operation, error) {
	switch op {
	case "c", "r":
		return Insert, nil
	case "u":
		return Update, nil
	case "d":
		return Delete, nil
	default:
		return "", fmt.Errorf("unsupported operation: %q", op)
	}
}

// Short returns the one letter code used in transaction signatures.
func (o Operation) Short() string {
	switch o {
	case Insert:
		return "c"
	case Update:
		return "u"
	case Delete:
		return "d"
	default:
		return "?"
	}
}
