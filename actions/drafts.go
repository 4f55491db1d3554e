package actions

import (
	"fmt"

	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/actions/match"
	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/state"
)

// draftRows are the rows every new draft is made of, correlated by recid and bucket id.
type draftRows struct {
	metadata     cdc.ChangeEvent
	deposit      map[string]any
	draftID      string
	recid        string
	conceptRecID string
	recidPID     cdc.ChangeEvent
	bucketID     string
	bucket       cdc.ChangeEvent
}

func collectDraftRows(tx cdc.Transaction) (draftRows, error) {
	metadata, err := single(tx, tableRecordMetadata, cdc.Insert)
	if err != nil {
		return draftRows{}, err
	}

	deposit, err := legacyDocument(metadata.After)
	if err != nil {
		return draftRows{}, err
	}
	if deposit == nil {
		return draftRows{}, MissingRowError{Table: tableRecordMetadata, Description: "deposit has no json"}
	}

	recid := depositRecID(deposit)
	if recid == "" {
		return draftRows{}, MissingRowError{Table: tableRecordMetadata, Description: "deposit has no recid"}
	}

	conceptRecID := docString(deposit, "conceptrecid")
	if conceptRecID == "" {
		return draftRows{}, NoConceptRecidForDraftError{RecID: recid}
	}

	recidPID, isOk := findPID(tx, cdc.Insert, pidTypeRecID, recid)
	if !isOk {
		return draftRows{}, MissingRowError{Table: tablePID, Description: fmt.Sprintf("no recid pid for %q", recid)}
	}

	link, err := single(tx, tableRecordBuckets, cdc.Insert)
	if err != nil {
		return draftRows{}, err
	}

	bucketID := stringColumn(link.After, "bucket_id")
	bucket, isOk := findBucket(tx, cdc.Insert, bucketID)
	if !isOk {
		return draftRows{}, MissingRowError{Table: tableBucket, Description: fmt.Sprintf("no bucket %q", bucketID)}
	}

	return draftRows{
		metadata:     metadata,
		deposit:      deposit,
		draftID:      stringColumn(metadata.After, "id"),
		recid:        recid,
		conceptRecID: conceptRecID,
		recidPID:     recidPID,
		bucketID:     bucketID,
		bucket:       bucket,
	}, nil
}

// emit adds the draft, its recid pid and its bucket to the bundle and remembers them for later transactions.
func (r draftRows) emit(bundle *entities.Bundle, mc *state.MigrationContext, parentID string, index int, doiPrefix string) error {
	pidID, _ := int64Column(r.recidPID.After, "id")
	pid, err := pidEntity(r.recidPID.After, pidStatusNew, r.draftID)
	if err != nil {
		return err
	}
	bundle.Insert(entities.KindPID, pid)

	bucket, err := bucketEntity(r.bucket.After)
	if err != nil {
		return err
	}
	bundle.Insert(entities.KindBucket, bucket)

	document, err := recordDocument(r.deposit, r.recid, pidReference(pidID, pidStatusNew), doiPrefix)
	if err != nil {
		return err
	}

	created, updated, err := metadataTimes(r.metadata)
	if err != nil {
		return err
	}

	draft := map[string]any{
		"id":              r.draftID,
		"json":            document,
		"created":         created,
		"updated":         updated,
		"version_id":      r.metadata.After["version_id"],
		"bucket_id":       r.bucketID,
		"parent_id":       parentID,
		"expires_at":      nil,
		"fork_version_id": nil,
	}
	if index > 0 {
		draft["index"] = index
	}
	bundle.Insert(entities.KindDraft, draft)

	mc.Records.Set(r.recid, state.Record{
		ID:           r.draftID,
		ParentID:     parentID,
		ConceptRecID: r.conceptRecID,
		BucketID:     r.bucketID,
		PIDID:        pidID,
		Index:        index,
	})
	mc.RecordIDs.Set(r.draftID, r.recid)
	mc.Buckets.Set(r.bucketID, state.Bucket{RecordID: r.draftID, Draft: true})
	return nil
}

// emitDraftFiles adds the objects inserted by the transaction, linking the ones in the draft bucket to the draft.
func emitDraftFiles(tx cdc.Transaction, bundle *entities.Bundle, mc *state.MigrationContext, bucketID, draftID string) error {
	for _, event := range tx.Find(tableObject, cdc.Insert) {
		object, err := objectEntity(event.After)
		if err != nil {
			return err
		}
		bundle.Insert(entities.KindObject, object)

		if stringColumn(event.After, "bucket_id") != bucketID {
			continue
		}

		draftFile, err := fileRecordEntity(mc.IDs.NewUUID(), draftID, object)
		if err != nil {
			return err
		}
		bundle.Insert(entities.KindDraftFile, draftFile)
	}
	return nil
}

var draftCreateShape = match.Sequence(
	match.Insert(tablePIDRecID),
	match.Insert(tablePID),
	match.Insert(tablePIDRecID),
	match.Insert(tablePID),
	match.Insert(tablePID),
	match.Insert(tableBucket),
	match.Insert(tableRecordMetadata),
	match.Insert(tableRecordBuckets),
	match.Any(tablePIDRelation),
	match.Any(tablePIDRelation),
	match.Any(tablePIDRelation),
)

// DraftCreate is a brand new deposit: concept and version recids are minted together with the deposit.
type DraftCreate struct {
	settings Settings
}

func (DraftCreate) Name() string {
	return "draft-create"
}

func (DraftCreate) Matches(tx cdc.Transaction) bool {
	return draftCreateShape(tx)
}

func (a DraftCreate) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	rows, err := collectDraftRows(tx)
	if err != nil {
		return nil, err
	}

	conceptPID, isOk := findPID(tx, cdc.Insert, pidTypeRecID, rows.conceptRecID)
	if !isOk {
		return nil, MissingRowError{Table: tablePID, Description: fmt.Sprintf("no concept recid pid for %q", rows.conceptRecID)}
	}

	parent, isOk := mc.Parents.Get(rows.conceptRecID)
	if !isOk {
		parent = state.Parent{ID: mc.IDs.NewUUID()}
		mc.Parents.Set(rows.conceptRecID, parent)
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	parentPID, err := pidEntity(conceptPID.After, pidStatusNew, parent.ID)
	if err != nil {
		return nil, err
	}
	bundle.Insert(entities.KindParentPID, parentPID)

	created, updated, err := metadataTimes(rows.metadata)
	if err != nil {
		return nil, err
	}

	parentPIDID, _ := int64Column(conceptPID.After, "id")
	bundle.Insert(entities.KindParent, map[string]any{
		"id":         parent.ID,
		"json":       parentDocument(rows.deposit, rows.conceptRecID, pidReference(parentPIDID, pidStatusNew), a.settings.DOIPrefix),
		"created":    created,
		"updated":    updated,
		"version_id": 1,
	})

	index := 1
	if pidID, isOk := int64Column(rows.recidPID.After, "id"); isOk {
		if found, isOk := versionIndex(tx, pidID); isOk {
			index = found
		}
	}

	if err = rows.emit(bundle, mc, parent.ID, index, a.settings.DOIPrefix); err != nil {
		return nil, err
	}

	bundle.Insert(entities.KindVersionsState, map[string]any{
		"parent_id":     parent.ID,
		"latest_index":  nil,
		"latest_id":     nil,
		"next_draft_id": rows.draftID,
	})

	return bundle, nil
}

var draftNewVersionShape = match.Set(
	match.One(match.Insert(tablePIDRecID)),
	match.Exactly(match.Insert(tablePID), 2),
	match.One(match.Insert(tableBucket)),
	match.Optional(match.Update(tableBucket)),
	match.One(match.Insert(tableRecordMetadata)),
	match.Optional(match.Update(tableRecordMetadata)),
	match.One(match.Insert(tableRecordBuckets)),
	match.Many(match.Insert(tableObject)),
	match.AtLeastOne(match.Any(tablePIDRelation)),
)

// DraftNewVersion is a new deposit for an existing concept. Its parent must be known already.
type DraftNewVersion struct {
	settings Settings
}

func (DraftNewVersion) Name() string {
	return "draft-new-version"
}

func (DraftNewVersion) Matches(tx cdc.Transaction) bool {
	return draftNewVersionShape(tx)
}

func (a DraftNewVersion) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	rows, err := collectDraftRows(tx)
	if err != nil {
		return nil, err
	}

	parent, isOk := mc.Parents.Get(rows.conceptRecID)
	if !isOk {
		return nil, ParentNotFoundError{ConceptRecID: rows.conceptRecID}
	}

	var index int
	if pidID, isOk := int64Column(rows.recidPID.After, "id"); isOk {
		index, _ = versionIndex(tx, pidID)
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	if err = rows.emit(bundle, mc, parent.ID, index, a.settings.DOIPrefix); err != nil {
		return nil, err
	}

	if err = emitDraftFiles(tx, bundle, mc, rows.bucketID, rows.draftID); err != nil {
		return nil, err
	}

	bundle.Update(entities.KindVersionsState, map[string]any{
		"parent_id":     parent.ID,
		"next_draft_id": rows.draftID,
	})

	return bundle, nil
}

// DraftEdit reopens a published deposit for editing.
type DraftEdit struct {
	settings Settings
}

func (DraftEdit) Name() string {
	return "draft-edit"
}

var draftEditShape = match.Set(
	match.One(match.Update(tableRecordMetadata)).If(depositTransition(depositStatusPublished, depositStatusDraft)),
	match.Optional(match.Update(tableBucket)),
)

func (DraftEdit) Matches(tx cdc.Transaction) bool {
	return draftEditShape(tx)
}

func (a DraftEdit) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	event, err := single(tx, tableRecordMetadata, cdc.Update)
	if err != nil {
		return nil, err
	}

	draft, err := draftUpdate(event, mc, a.settings.DOIPrefix)
	if err != nil {
		return nil, err
	}

	// The draft forks off the record version following the one recorded in the deposit.
	if revision, isOk := cdc.Int64(nestedValue(mustDocument(event.After), "_deposit", "pid", "revision_id")); isOk {
		draft["fork_version_id"] = revision + 1
	}
	draft["expires_at"] = nil

	bundle := entities.NewBundle(tx.ID, a.Name())
	bundle.Update(entities.KindDraft, draft)
	if err = emitBucketUpdates(tx, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// DraftUpdate is a plain save of a draft.
type DraftUpdate struct {
	settings Settings
}

func (DraftUpdate) Name() string {
	return "draft-update"
}

var draftUpdateShape = match.Set(
	match.One(match.Update(tableRecordMetadata)).If(depositTransition(depositStatusDraft, depositStatusDraft)),
)

func (DraftUpdate) Matches(tx cdc.Transaction) bool {
	return draftUpdateShape(tx)
}

func (a DraftUpdate) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	event, err := single(tx, tableRecordMetadata, cdc.Update)
	if err != nil {
		return nil, err
	}

	draft, err := draftUpdate(event, mc, a.settings.DOIPrefix)
	if err != nil {
		return nil, err
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	bundle.Update(entities.KindDraft, draft)
	return bundle, nil
}

// draftUpdate maps an updated deposit onto the columns of its draft.
func draftUpdate(event cdc.ChangeEvent, mc *state.MigrationContext, doiPrefix string) (map[string]any, error) {
	deposit, err := legacyDocument(event.After)
	if err != nil {
		return nil, err
	}
	if deposit == nil {
		return nil, MissingRowError{Table: tableRecordMetadata, Description: "deposit has no json"}
	}

	recid := depositRecID(deposit)
	draftID := stringColumn(event.After, "id")
	var pk int64
	if record, isOk := mc.Records.Get(recid); isOk {
		draftID = record.ID
		pk = record.PIDID
	}
	if draftID == "" {
		return nil, RecordNotFoundError{Key: "recid", Value: recid}
	}

	// Deposits that were published once carry the pid of their record.
	status := pidStatusNew
	if docString(deposit, "_deposit", "pid", "value") != "" {
		status = pidStatusRegistered
	}

	document, err := recordDocument(deposit, recid, pidReference(pk, status), doiPrefix)
	if err != nil {
		return nil, err
	}

	_, updated, err := metadataTimes(event)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"id":         draftID,
		"json":       document,
		"updated":    updated,
		"version_id": event.After["version_id"],
	}, nil
}

// emitBucketUpdates passes bucket updates, such as locking or size changes, through.
func emitBucketUpdates(tx cdc.Transaction, bundle *entities.Bundle) error {
	for _, event := range tx.Find(tableBucket, cdc.Update) {
		bucket, err := bucketEntity(event.After)
		if err != nil {
			return err
		}
		bundle.Update(entities.KindBucket, bucket)
	}
	return nil
}
