package actions

import (
	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/lib/timeutil"
	"github.com/zenodo/rdm-migrator/transform/entries"
)

// pidEntity maps a pidstore_pid row onto the object it now points at.
func pidEntity(row map[string]any, status, objectUUID string) (map[string]any, error) {
	pid, err := copyRow(pick(row, "id", "pid_type", "pid_value", "pid_provider", "created", "updated"))
	if err != nil {
		return nil, err
	}

	pid["status"] = status
	pid["object_type"] = "rec"
	pid["object_uuid"] = objectUUID
	return pid, nil
}

// pidReference is the `pid` block embedded in record, draft and parent documents.
func pidReference(pk int64, status string) map[string]any {
	reference := map[string]any{
		"status":   status,
		"pid_type": pidTypeRecID,
		"obj_type": "rec",
	}
	if pk != 0 {
		reference["pk"] = pk
	}
	return reference
}

func bucketEntity(row map[string]any) (map[string]any, error) {
	return copyRow(pick(row, "id", "default_location", "default_storage_class", "size", "quota_size", "max_file_size",
		"locked", "deleted", "created", "updated"))
}

func fileEntity(row map[string]any) (map[string]any, error) {
	return copyRow(pick(row, "id", "uri", "storage_class", "size", "checksum", "readable", "writable", "last_check_at",
		"last_check", "created", "updated"))
}

func objectEntity(row map[string]any) (map[string]any, error) {
	return copyRow(pick(row, "version_id", "key", "bucket_id", "file_id", "_mimetype", "is_head", "created", "updated"))
}

// fileRecordEntity links an object version to the draft or record owning its bucket.
func fileRecordEntity(id, recordID string, object map[string]any) (map[string]any, error) {
	times, err := copyRow(pick(object, "created", "updated"))
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"id":                id,
		"json":              map[string]any{},
		"created":           times["created"],
		"updated":           times["updated"],
		"version_id":        1,
		"key":               object["key"],
		"record_id":         recordID,
		"object_version_id": object["version_id"],
	}, nil
}

// recordDocument builds the json column of a draft or record from a legacy document.
func recordDocument(legacy map[string]any, recid string, pid map[string]any, doiPrefix string) (map[string]any, error) {
	document, err := entries.Record(legacy, doiPrefix)
	if err != nil {
		return nil, err
	}

	document["id"] = recid
	document["pid"] = pid
	document["$schema"] = recordSchema
	return document, nil
}

func parentDocument(legacy map[string]any, conceptRecID string, pid map[string]any, doiPrefix string) map[string]any {
	document := entries.Parent(legacy, doiPrefix)
	if document == nil {
		document = make(map[string]any)
	}

	document["id"] = conceptRecID
	document["pid"] = pid
	document["$schema"] = parentSchema
	return document
}

// metadataTimes returns the normalized `created` and `updated` of a records_metadata image.
func metadataTimes(event cdc.ChangeEvent) (any, any, error) {
	row := event.Row()
	created, err := timeutil.ToISO(row["created"])
	if err != nil {
		return nil, nil, err
	}
	updated, err := timeutil.ToISO(row["updated"])
	if err != nil {
		return nil, nil, err
	}
	return created, updated, nil
}
