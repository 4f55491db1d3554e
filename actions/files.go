package actions

import (
	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/actions/match"
	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/state"
)

// isDeleteMarker matches object versions without a file, which is how a key is deleted from a bucket.
func isDeleteMarker(event cdc.ChangeEvent) bool {
	return event.After != nil && event.After["file_id"] == nil
}

func hasFile(event cdc.ChangeEvent) bool {
	return !isDeleteMarker(event)
}

var draftFileUploadShape = match.Set(
	match.One(match.Insert(tableFile)),
	match.Optional(match.Update(tableFile)),
	match.One(match.Insert(tableObject)).If(hasFile),
	match.Optional(match.Update(tableObject)),
	match.Optional(match.Update(tableBucket)),
)

var draftFileDeleteShape = match.Set(
	match.One(match.Insert(tableObject)).If(isDeleteMarker),
	match.Optional(match.Update(tableObject)),
	match.Optional(match.Update(tableBucket)),
)

// bucketOwner resolves the draft or record owning the bucket of an object.
func bucketOwner(mc *state.MigrationContext, object map[string]any) (state.Bucket, error) {
	bucketID := stringColumn(object, "bucket_id")
	owner, isOk := mc.Buckets.Get(bucketID)
	if !isOk {
		return state.Bucket{}, RecordNotFoundError{Key: "bucket", Value: bucketID}
	}
	return owner, nil
}

func fileLinkKind(owner state.Bucket) entities.Kind {
	if owner.Draft {
		return entities.KindDraftFile
	}
	return entities.KindRecordFile
}

// emitObjectUpdates passes updates of previous object versions, e.g. losing their head flag, through.
func emitObjectUpdates(tx cdc.Transaction, bundle *entities.Bundle) error {
	for _, event := range tx.Find(tableObject, cdc.Update) {
		object, err := objectEntity(event.After)
		if err != nil {
			return err
		}
		bundle.Update(entities.KindObject, object)
	}
	return nil
}

// DraftFileUpload adds a file to a bucket, possibly replacing the previous version of the same key.
type DraftFileUpload struct{}

func (DraftFileUpload) Name() string {
	return "draft-file-upload"
}

func (DraftFileUpload) Matches(tx cdc.Transaction) bool {
	return draftFileUploadShape(tx)
}

func (a DraftFileUpload) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	fileEvent, err := single(tx, tableFile, cdc.Insert)
	if err != nil {
		return nil, err
	}

	objectEvent, err := single(tx, tableObject, cdc.Insert)
	if err != nil {
		return nil, err
	}

	owner, err := bucketOwner(mc, objectEvent.After)
	if err != nil {
		return nil, err
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	file, err := fileEntity(fileEvent.After)
	if err != nil {
		return nil, err
	}
	if updated, isOk := optional(tx, tableFile, cdc.Update); isOk {
		// The checksum and size are only known once the upload completed.
		for column, value := range updated.After {
			file[column] = value
		}
		if file, err = fileEntity(file); err != nil {
			return nil, err
		}
	}
	bundle.Insert(entities.KindFile, file)

	object, err := objectEntity(objectEvent.After)
	if err != nil {
		return nil, err
	}
	bundle.Insert(entities.KindObject, object)

	if err = emitObjectUpdates(tx, bundle); err != nil {
		return nil, err
	}
	if err = emitBucketUpdates(tx, bundle); err != nil {
		return nil, err
	}

	link, err := fileRecordEntity(mc.IDs.NewUUID(), owner.RecordID, object)
	if err != nil {
		return nil, err
	}

	// A previous head with the same key means the file is replaced: the link is keyed on (record_id, key).
	if _, replaces := optional(tx, tableObject, cdc.Update); replaces {
		bundle.Update(fileLinkKind(owner), map[string]any{
			"record_id":         link["record_id"],
			"key":               link["key"],
			"object_version_id": link["object_version_id"],
			"updated":           link["updated"],
		})
	} else {
		bundle.Insert(fileLinkKind(owner), link)
	}

	return bundle, nil
}

// DraftFileDelete removes a key from a bucket by writing a delete marker.
type DraftFileDelete struct{}

func (DraftFileDelete) Name() string {
	return "draft-file-delete"
}

func (DraftFileDelete) Matches(tx cdc.Transaction) bool {
	return draftFileDeleteShape(tx)
}

func (a DraftFileDelete) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	marker, err := single(tx, tableObject, cdc.Insert)
	if err != nil {
		return nil, err
	}

	owner, err := bucketOwner(mc, marker.After)
	if err != nil {
		return nil, err
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	object, err := objectEntity(marker.After)
	if err != nil {
		return nil, err
	}
	bundle.Insert(entities.KindObject, object)

	if err = emitObjectUpdates(tx, bundle); err != nil {
		return nil, err
	}
	if err = emitBucketUpdates(tx, bundle); err != nil {
		return nil, err
	}

	bundle.Delete(fileLinkKind(owner), map[string]any{
		"record_id": owner.RecordID,
		"key":       marker.After["key"],
	})
	return bundle, nil
}
