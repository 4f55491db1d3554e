package actions

import (
	"fmt"
	"maps"
	"strings"

	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/lib/timeutil"
)

var timestampColumns = []string{"created", "updated", "confirmed_at", "expires", "expires_at", "last_check_at", "last_login_at", "current_login_at", "deleted_at", "blocked_at", "verified_at"}

// copyRow returns a copy of the row with its timestamp columns normalized.
func copyRow(row map[string]any) (map[string]any, error) {
	out := maps.Clone(row)
	if out == nil {
		out = make(map[string]any)
	}
	if err := timeutil.NormalizeColumns(out, timestampColumns...); err != nil {
		return nil, err
	}
	return out, nil
}

// pick returns the listed columns that are present in the row.
func pick(row map[string]any, columns ...string) map[string]any {
	out := make(map[string]any)
	for _, column := range columns {
		if value, isOk := row[column]; isOk {
			out[column] = value
		}
	}
	return out
}

func rename(row map[string]any, from, to string) {
	if value, isOk := row[from]; isOk {
		delete(row, from)
		row[to] = value
	}
}

func stringColumn(row map[string]any, column string) string {
	value, _ := cdc.String(row[column])
	return value
}

func int64Column(row map[string]any, column string) (int64, bool) {
	return cdc.Int64(row[column])
}

// legacyDocument decodes the `json` column of a records_metadata image.
func legacyDocument(image map[string]any) (map[string]any, error) {
	if image == nil {
		return nil, nil
	}
	document, err := cdc.JSONColumn(image["json"])
	if err != nil {
		return nil, fmt.Errorf("failed to decode records_metadata %q: %w", stringColumn(image, "id"), err)
	}
	return document, nil
}

// mustDocument is [legacyDocument] for predicates, undecodable documents are treated as absent.
func mustDocument(image map[string]any) map[string]any {
	document, _ := legacyDocument(image)
	return document
}

func docString(document map[string]any, path ...string) string {
	value, _ := cdc.String(nestedValue(document, path...))
	return strings.TrimSpace(value)
}

func nestedValue(document map[string]any, path ...string) any {
	var current any = document
	for _, key := range path {
		m, isOk := current.(map[string]any)
		if !isOk {
			return nil
		}
		current = m[key]
	}
	return current
}

// isDeposit tells deposit documents apart from published record documents.
func isDeposit(document map[string]any) bool {
	if _, isOk := document["_deposit"]; isOk {
		return true
	}
	return strings.Contains(docString(document, "$schema"), "/deposits/")
}

func depositStatus(document map[string]any) string {
	return docString(document, "_deposit", "status")
}

// depositRecID is the recid of a deposit: the `_deposit.id`, falling back to `recid`.
func depositRecID(document map[string]any) string {
	if id := docString(document, "_deposit", "id"); id != "" {
		return id
	}
	return docString(document, "recid")
}

// recordRecID is the recid of a published record: the `recid`, falling back to `_deposit.pid.value`.
func recordRecID(document map[string]any) string {
	if recid := docString(document, "recid"); recid != "" {
		return recid
	}
	return docString(document, "_deposit", "pid", "value")
}

func isDepositEvent(event cdc.ChangeEvent) bool {
	return isDeposit(mustDocument(event.Row()))
}

func isRecordEvent(event cdc.ChangeEvent) bool {
	document := mustDocument(event.Row())
	return document != nil && !isDeposit(document)
}

// depositTransition matches deposit updates moving from one status to another.
func depositTransition(from, to string) func(cdc.ChangeEvent) bool {
	return func(event cdc.ChangeEvent) bool {
		if event.Operation != cdc.Update {
			return false
		}
		before, after := mustDocument(event.Before), mustDocument(event.After)
		return isDeposit(after) && depositStatus(before) == from && depositStatus(after) == to
	}
}

// single returns the only event of the table and operation, or a [MissingRowError].
func single(tx cdc.Transaction, table string, operation cdc.Operation) (cdc.ChangeEvent, error) {
	events := tx.Find(table, operation)
	if len(events) == 0 {
		return cdc.ChangeEvent{}, MissingRowError{Table: table, Description: fmt.Sprintf("no %s", operation)}
	}
	return events[0], nil
}

// optional returns the first event of the table and operation, if any.
func optional(tx cdc.Transaction, table string, operation cdc.Operation) (cdc.ChangeEvent, bool) {
	events := tx.Find(table, operation)
	if len(events) == 0 {
		return cdc.ChangeEvent{}, false
	}
	return events[0], true
}

// findPID returns the pid event with the given type and value.
func findPID(tx cdc.Transaction, operation cdc.Operation, pidType, pidValue string) (cdc.ChangeEvent, bool) {
	for _, event := range tx.Find(tablePID, operation) {
		row := event.Row()
		if stringColumn(row, "pid_type") == pidType && stringColumn(row, "pid_value") == pidValue {
			return event, true
		}
	}
	return cdc.ChangeEvent{}, false
}

// findBucket returns the files_bucket event of the bucket with the given id.
func findBucket(tx cdc.Transaction, operation cdc.Operation, bucketID string) (cdc.ChangeEvent, bool) {
	for _, event := range tx.Find(tableBucket, operation) {
		if stringColumn(event.Row(), "id") == bucketID {
			return event, true
		}
	}
	return cdc.ChangeEvent{}, false
}

// versionIndex derives the 1-based version index of a recid from its pid relation to the concept.
func versionIndex(tx cdc.Transaction, pidID int64) (int, bool) {
	for _, event := range tx.ByTable(tablePIDRelation) {
		if event.Operation == cdc.Delete {
			continue
		}
		row := event.Row()
		if childID, isOk := int64Column(row, "child_id"); !isOk || childID != pidID {
			continue
		}
		if index, isOk := int64Column(row, "index"); isOk {
			return int(index) + 1, true
		}
	}
	return 0, false
}
