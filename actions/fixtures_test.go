package actions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/state"
)

const (
	testPrefix = "10.5281/zenodo"

	depositUUID = "7f6b4bb0-1d9f-4d54-9a38-5d3b0e3a0c11"
	recordUUID  = "a1b2c3d4-0000-4000-8000-000000000123"
	draftBucket = "c0ffee00-0000-4000-8000-0000000000b1"
	recBucket   = "c0ffee00-0000-4000-8000-0000000000b2"
)

func newContext() *state.MigrationContext {
	return state.NewMigrationContext(&state.SequenceGenerator{})
}

type txBuilder struct {
	t      *testing.T
	id     int64
	events []cdc.ChangeEvent
}

func newTx(t *testing.T, id int64) *txBuilder {
	return &txBuilder{t: t, id: id}
}

func (b *txBuilder) add(operation cdc.Operation, table string, before, after map[string]any) *txBuilder {
	b.events = append(b.events, cdc.ChangeEvent{
		Operation:     operation,
		Schema:        "public",
		Table:         table,
		Before:        before,
		After:         after,
		TransactionID: b.id,
		LSN:           int64(len(b.events) + 1),
	})
	return b
}

func (b *txBuilder) insert(table string, after map[string]any) *txBuilder {
	return b.add(cdc.Insert, table, nil, after)
}

func (b *txBuilder) update(table string, before, after map[string]any) *txBuilder {
	return b.add(cdc.Update, table, before, after)
}

func (b *txBuilder) delete(table string, before map[string]any) *txBuilder {
	return b.add(cdc.Delete, table, before, nil)
}

func (b *txBuilder) build() cdc.Transaction {
	for _, event := range b.events {
		require.NoError(b.t, event.Validate())
	}
	return cdc.Transaction{ID: b.id, Operations: b.events}
}

// metadataRow is a records_metadata row with the document encoded the way Debezium sends json columns.
func metadataRow(t *testing.T, id string, versionID int, document map[string]any) map[string]any {
	bytes, err := json.Marshal(document)
	require.NoError(t, err)
	return map[string]any{
		"id":         id,
		"json":       string(bytes),
		"version_id": versionID,
		"created":    "2023-05-02T10:00:00.000000",
		"updated":    "2023-05-02T10:00:00.000000",
	}
}

func depositDocument(status string) map[string]any {
	return map[string]any{
		"$schema":      "https://zenodo.org/schemas/deposits/records/record-v1.0.0.json",
		"title":        "Measurements",
		"upload_type":  "dataset",
		"access_right": "open",
		"creators":     []any{map[string]any{"name": "Doe, Jane"}},
		"recid":        123,
		"conceptrecid": "122",
		"_deposit": map[string]any{
			"id":      "123",
			"status":  status,
			"owners":  []any{1},
			"pid":     map[string]any{"type": "recid", "value": "123", "revision_id": 0},
			"created": "2023-05-02T10:00:00",
		},
	}
}

func publishedDeposit(doi, conceptDOI string) map[string]any {
	document := depositDocument(depositStatusPublished)
	document["doi"] = doi
	if conceptDOI != "" {
		document["conceptdoi"] = conceptDOI
	}
	return document
}

func recordDocumentFixture(doi, conceptDOI string) map[string]any {
	document := map[string]any{
		"$schema":      "https://zenodo.org/schemas/records/record-v1.0.0.json",
		"title":        "Measurements",
		"upload_type":  "dataset",
		"access_right": "open",
		"creators":     []any{map[string]any{"name": "Doe, Jane"}},
		"recid":        123,
		"conceptrecid": "122",
		"doi":          doi,
		"owners":       []any{1},
	}
	if conceptDOI != "" {
		document["conceptdoi"] = conceptDOI
	}
	return document
}

func pidRow(id int64, pidType, pidValue, status string) map[string]any {
	return map[string]any{
		"id":           id,
		"pid_type":     pidType,
		"pid_value":    pidValue,
		"status":       status,
		"object_type":  "rec",
		"pid_provider": nil,
		"created":      "2023-05-02T10:00:00",
		"updated":      "2023-05-02T10:00:00",
	}
}

func bucketRow(id string) map[string]any {
	return map[string]any{"id": id, "default_location": 1, "default_storage_class": "S", "size": 0, "locked": false, "deleted": false}
}

// draftCreateTx is a new deposit with recid 123 under conceptrecid 122.
func draftCreateTx(t *testing.T) cdc.Transaction {
	return newTx(t, 100).
		insert(tablePIDRecID, map[string]any{"recid": 122}).
		insert(tablePID, pidRow(1, pidTypeRecID, "122", "K")).
		insert(tablePIDRecID, map[string]any{"recid": 123}).
		insert(tablePID, pidRow(2, pidTypeRecID, "123", "K")).
		insert(tablePID, pidRow(3, "depid", "123", "R")).
		insert(tableBucket, bucketRow(draftBucket)).
		insert(tableRecordMetadata, metadataRow(t, depositUUID, 1, depositDocument(depositStatusDraft))).
		insert(tableRecordBuckets, map[string]any{"record_id": depositUUID, "bucket_id": draftBucket}).
		insert(tablePIDRelation, map[string]any{"parent_id": 1, "child_id": 2, "relation_type": 0, "index": 0}).
		update(tablePIDRelation, map[string]any{"parent_id": 1, "child_id": 2, "relation_type": 1}, map[string]any{"parent_id": 1, "child_id": 2, "relation_type": 1}).
		delete(tablePIDRelation, map[string]any{"parent_id": 1, "child_id": 2, "relation_type": 1}).
		build()
}

// publishTx publishes the deposit of [draftCreateTx]. recordOp decides between a new record row and an edit.
func publishTx(t *testing.T, doi, conceptDOI string, recordOp cdc.Operation, pidInserts ...map[string]any) cdc.Transaction {
	builder := newTx(t, 200).
		update(tableRecordMetadata,
			metadataRow(t, depositUUID, 2, depositDocument(depositStatusDraft)),
			metadataRow(t, depositUUID, 3, publishedDeposit(doi, conceptDOI)))

	record := metadataRow(t, recordUUID, 1, recordDocumentFixture(doi, conceptDOI))
	if recordOp == cdc.Insert {
		builder.insert(tableRecordMetadata, record)
	} else {
		builder.update(tableRecordMetadata, metadataRow(t, recordUUID, 1, recordDocumentFixture(doi, conceptDOI)), record)
	}

	builder.
		update(tablePID, pidRow(2, pidTypeRecID, "123", "K"), pidRow(2, pidTypeRecID, "123", "R")).
		update(tablePID, pidRow(1, pidTypeRecID, "122", "K"), pidRow(1, pidTypeRecID, "122", "R"))
	for _, pid := range pidInserts {
		builder.insert(tablePID, pid)
	}
	if recordOp == cdc.Insert {
		builder.
			insert(tableBucket, bucketRow(recBucket)).
			insert(tableRecordBuckets, map[string]any{"record_id": recordUUID, "bucket_id": recBucket}).
			insert(tableObject, map[string]any{"version_id": "o2", "key": "data.csv", "bucket_id": recBucket, "file_id": "f1", "is_head": true})
	}
	return builder.
		update(tableBucket, bucketRow(draftBucket), map[string]any{"id": draftBucket, "locked": true}).
		update(tablePIDRelation, map[string]any{"parent_id": 1, "child_id": 2, "relation_type": 0, "index": 0}, map[string]any{"parent_id": 1, "child_id": 2, "relation_type": 0, "index": 0}).
		build()
}

func localPublishNewTx(t *testing.T) cdc.Transaction {
	return publishTx(t, testPrefix+".123", testPrefix+".122", cdc.Insert,
		pidRow(4, pidTypeDOI, testPrefix+".123", "R"),
		pidRow(5, pidTypeDOI, testPrefix+".122", "R"),
		pidRow(6, pidTypeOAI, "oai:zenodo.org:123", "R"),
	)
}

func fileUploadTx(t *testing.T) cdc.Transaction {
	return newTx(t, 300).
		insert(tableFile, map[string]any{"id": "f1", "uri": "/data/f1", "size": 0, "readable": false, "writable": true}).
		insert(tableObject, map[string]any{"version_id": "o1", "key": "data.csv", "bucket_id": draftBucket, "file_id": "f1", "is_head": true}).
		update(tableBucket, bucketRow(draftBucket), map[string]any{"id": draftBucket, "size": 10}).
		update(tableFile, map[string]any{"id": "f1", "size": 0}, map[string]any{"id": "f1", "size": 10, "checksum": "md5:abc", "readable": true}).
		build()
}

func fileDeleteTx(t *testing.T) cdc.Transaction {
	return newTx(t, 301).
		insert(tableObject, map[string]any{"version_id": "o3", "key": "data.csv", "bucket_id": draftBucket, "file_id": nil, "is_head": true}).
		update(tableObject,
			map[string]any{"version_id": "o1", "key": "data.csv", "bucket_id": draftBucket, "file_id": "f1", "is_head": true},
			map[string]any{"version_id": "o1", "key": "data.csv", "bucket_id": draftBucket, "file_id": "f1", "is_head": false}).
		build()
}
