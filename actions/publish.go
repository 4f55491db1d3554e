package actions

import (
	"fmt"

	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/actions/match"
	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/state"
	"github.com/zenodo/rdm-migrator/transform/entries"
)

type PublishKind int

const (
	// PublishNew is the first publication of a record.
	PublishNew PublishKind = iota
	// PublishNewVersion publishes a new version of an existing concept.
	PublishNewVersion
	// PublishEdit publishes changes made to an already published record.
	PublishEdit
)

func (k PublishKind) String() string {
	switch k {
	case PublishNew:
		return "draft-publish-new"
	case PublishNewVersion:
		return "draft-publish-new-version"
	default:
		return "draft-publish-edit"
	}
}

var (
	// publishRecordShape writes a new record row, with its own bucket, for the published deposit.
	publishRecordShape = match.Set(
		match.One(match.Update(tableRecordMetadata)).If(depositTransition(depositStatusDraft, depositStatusPublished)),
		match.One(match.Insert(tableRecordMetadata)).If(isRecordEvent),
		match.Many(match.Any(tablePID)),
		match.One(match.Insert(tableBucket)),
		match.Many(match.Update(tableBucket)),
		match.Many(match.Insert(tableObject)),
		match.Many(match.Update(tableObject)),
		match.One(match.Insert(tableRecordBuckets)),
		match.Many(match.Any(tablePIDRelation)),
	)
	// publishEditShape writes the edited deposit over the existing record row.
	publishEditShape = match.Set(
		match.One(match.Update(tableRecordMetadata)).If(depositTransition(depositStatusDraft, depositStatusPublished)),
		match.One(match.Update(tableRecordMetadata)).If(isRecordEvent),
		match.Many(match.Any(tablePID)),
		match.Many(match.Update(tableBucket)),
		match.Many(match.Insert(tableObject)),
		match.Many(match.Update(tableObject)),
		match.Many(match.Any(tablePIDRelation)),
	)
)

// publishRows are the deposit being published and, when present, the record row written for it.
type publishRows struct {
	deposit         cdc.ChangeEvent
	depositDocument map[string]any
	record          *cdc.ChangeEvent
	// document is the record document, or the deposit document when the transaction has no record row.
	document map[string]any
}

func collectPublishRows(tx cdc.Transaction) (publishRows, error) {
	var rows publishRows
	for _, event := range tx.ByTable(tableRecordMetadata) {
		document, err := legacyDocument(event.Row())
		if err != nil {
			return publishRows{}, err
		}
		if document == nil {
			continue
		}

		if isDeposit(document) {
			rows.deposit, rows.depositDocument = event, document
		} else {
			rows.record = &event
			rows.document = document
		}
	}

	if rows.depositDocument == nil {
		return publishRows{}, MissingRowError{Table: tableRecordMetadata, Description: "no deposit"}
	}
	if rows.document == nil {
		rows.document = rows.depositDocument
	}
	return rows, nil
}

// ClassifyPublish tells the three kinds of publication apart. Locally minted DOIs come with a concept DOI, which
// is only registered on the first publication. Records with external DOIs register an OAI identifier instead.
// Only transactions writing a new record row can be a first publication or a new version, everything else
// publishes an edit.
func ClassifyPublish(tx cdc.Transaction, doiPrefix string) PublishKind {
	rows, err := collectPublishRows(tx)
	if err != nil || rows.record == nil || rows.record.Operation != cdc.Insert {
		return PublishEdit
	}

	doi, conceptDOI := docString(rows.document, "doi"), docString(rows.document, "conceptdoi")
	isLocalDOI := entries.IsLocalDOI(doi, doiPrefix) && entries.IsLocalDOI(conceptDOI, doiPrefix)
	_, hasParentDOIInsert := findPID(tx, cdc.Insert, pidTypeDOI, conceptDOI)

	var first bool
	if isLocalDOI {
		first = hasParentDOIInsert
	} else {
		first = match.Has(match.Insert(tablePID), func(event cdc.ChangeEvent) bool {
			return stringColumn(event.After, "pid_type") == pidTypeOAI
		})(tx)
	}

	switch {
	case first:
		return PublishNew
	case isLocalDOI && !hasParentDOIInsert:
		return PublishNewVersion
	default:
		return PublishEdit
	}
}

// DraftPublish publishes a deposit. One registry entry exists per [PublishKind].
type DraftPublish struct {
	settings Settings
	kind     PublishKind
}

func (a DraftPublish) Name() string {
	return a.kind.String()
}

func (a DraftPublish) Matches(tx cdc.Transaction) bool {
	if a.kind == PublishEdit {
		return publishEditShape(tx) && ClassifyPublish(tx, a.settings.DOIPrefix) == PublishEdit
	}
	return publishRecordShape(tx) && ClassifyPublish(tx, a.settings.DOIPrefix) == a.kind && a.registersRecord(tx)
}

// registersRecord checks the pids of a new record row: its recid is registered, so is the concept recid on a first
// publication, and a local DOI is minted along with it.
func (a DraftPublish) registersRecord(tx cdc.Transaction) bool {
	rows, err := collectPublishRows(tx)
	if err != nil || rows.record == nil {
		return false
	}

	if _, isOk := findPID(tx, cdc.Update, pidTypeRecID, recordRecID(rows.document)); !isOk {
		return false
	}

	if a.kind == PublishNew {
		if _, isOk := findPID(tx, cdc.Update, pidTypeRecID, docString(rows.document, "conceptrecid")); !isOk {
			return false
		}
	}

	if doi := docString(rows.document, "doi"); entries.IsLocalDOI(doi, a.settings.DOIPrefix) {
		if _, isOk := findPID(tx, cdc.Insert, pidTypeDOI, doi); !isOk {
			return false
		}
	}
	return true
}

func (a DraftPublish) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	rows, err := collectPublishRows(tx)
	if err != nil {
		return nil, err
	}

	recid := recordRecID(rows.document)
	if recid == "" {
		return nil, MissingRowError{Table: tableRecordMetadata, Description: "record has no recid"}
	}

	conceptRecID := docString(rows.document, "conceptrecid")
	if conceptRecID == "" {
		return nil, NoConceptRecidForDraftError{RecID: recid}
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	parent, parentExists := mc.Parents.Get(conceptRecID)
	if !parentExists {
		if a.kind != PublishNew {
			return nil, ParentNotFoundError{ConceptRecID: conceptRecID}
		}
		parent = state.Parent{ID: mc.IDs.NewUUID()}
		mc.Parents.Set(conceptRecID, parent)
	}

	// Records share the id of the deposit they were published from.
	recordID := stringColumn(rows.deposit.After, "id")
	cached, isCached := mc.Records.Get(recid)
	if isCached {
		recordID = cached.ID
	}

	recidPK := cached.PIDID
	if event, isOk := findPID(tx, cdc.Update, pidTypeRecID, recid); isOk {
		if id, isOk := int64Column(event.Row(), "id"); isOk {
			recidPK = id
		}
	}

	index := cached.Index
	if recidPK != 0 {
		if found, isOk := versionIndex(tx, recidPK); isOk {
			index = found
		}
	}

	if err = a.emitPIDs(tx, bundle, recid, conceptRecID, recordID, parent.ID, rows.document); err != nil {
		return nil, err
	}

	bucketID, err := a.emitRecordBucket(tx, bundle, mc, recordID)
	if err != nil {
		return nil, err
	}

	if err = a.emitRecordFiles(tx, bundle, mc, recordID); err != nil {
		return nil, err
	}

	document, err := recordDocument(rows.document, recid, pidReference(recidPK, pidStatusRegistered), a.settings.DOIPrefix)
	if err != nil {
		return nil, err
	}

	var conceptPK int64
	if event, isOk := findPID(tx, cdc.Update, pidTypeRecID, conceptRecID); isOk {
		conceptPK, _ = int64Column(event.Row(), "id")
	}

	if err = a.emitParent(bundle, rows, parent.ID, conceptRecID, conceptPK, parentExists); err != nil {
		return nil, err
	}

	record, err := a.record(rows, document, recordID, parent.ID, bucketID, index)
	if err != nil {
		return nil, err
	}
	if rows.record != nil && rows.record.Operation == cdc.Insert {
		bundle.Insert(entities.KindRecord, record)
	} else {
		bundle.Update(entities.KindRecord, record)
	}

	draft := map[string]any{
		"id":         recordID,
		"json":       document,
		"expires_at": nil,
		"version_id": rows.deposit.After["version_id"],
	}
	if version, isOk := record["version_id"]; isOk {
		draft["fork_version_id"] = version
	}
	bundle.Update(entities.KindDraft, draft)

	if a.kind != PublishEdit {
		versionsState := map[string]any{
			"parent_id":     parent.ID,
			"latest_id":     recordID,
			"next_draft_id": nil,
		}
		if index > 0 {
			versionsState["latest_index"] = index
		}
		bundle.Update(entities.KindVersionsState, versionsState)
	}

	if err = emitBucketUpdates(tx, bundle); err != nil {
		return nil, err
	}
	for _, event := range tx.Find(tableObject, cdc.Update) {
		object, err := objectEntity(event.After)
		if err != nil {
			return nil, err
		}
		bundle.Update(entities.KindObject, object)
	}

	mc.Records.Set(recid, state.Record{
		ID:           recordID,
		ParentID:     parent.ID,
		ConceptRecID: conceptRecID,
		BucketID:     cached.BucketID,
		PIDID:        recidPK,
		Index:        index,
	})
	if rows.record != nil {
		mc.RecordIDs.Set(stringColumn(rows.record.Row(), "id"), recid)
	}

	return bundle, nil
}

// emitPIDs registers the record recid and concept recid, and adds the DOIs and OAI identifier minted on publish.
func (a DraftPublish) emitPIDs(tx cdc.Transaction, bundle *entities.Bundle, recid, conceptRecID, recordID, parentID string, document map[string]any) error {
	conceptDOI := docString(document, "conceptdoi")
	for _, event := range tx.ByTable(tablePID) {
		if event.Operation == cdc.Delete {
			continue
		}

		row := event.Row()
		pidType, pidValue := stringColumn(row, "pid_type"), stringColumn(row, "pid_value")

		var kind entities.Kind
		var objectUUID string
		switch {
		case pidType == pidTypeRecID && pidValue == recid:
			kind, objectUUID = entities.KindPID, recordID
		case pidType == pidTypeRecID && pidValue == conceptRecID:
			kind, objectUUID = entities.KindParentPID, parentID
		case pidType == pidTypeDOI && pidValue == conceptDOI:
			kind, objectUUID = entities.KindParentPID, parentID
		case pidType == pidTypeDOI || pidType == pidTypeOAI:
			kind, objectUUID = entities.KindPID, recordID
		default:
			// Deposit ids have no counterpart.
			continue
		}

		pid, err := pidEntity(row, pidStatusRegistered, objectUUID)
		if err != nil {
			return err
		}
		if pidType == pidTypeDOI {
			pid["pid_provider"] = "external"
			if entries.IsLocalDOI(pidValue, a.settings.DOIPrefix) {
				pid["pid_provider"] = "datacite"
			}
		}
		bundle.Add(kind, event.Operation, pid)
	}
	return nil
}

// emitRecordBucket adds the bucket created for the record, found through records_buckets.
func (a DraftPublish) emitRecordBucket(tx cdc.Transaction, bundle *entities.Bundle, mc *state.MigrationContext, recordID string) (string, error) {
	link, isOk := optional(tx, tableRecordBuckets, cdc.Insert)
	if !isOk {
		return "", nil
	}

	bucketID := stringColumn(link.After, "bucket_id")
	event, isOk := findBucket(tx, cdc.Insert, bucketID)
	if !isOk {
		return "", MissingRowError{Table: tableBucket, Description: fmt.Sprintf("no bucket %q", bucketID)}
	}

	bucket, err := bucketEntity(event.After)
	if err != nil {
		return "", err
	}
	bundle.Insert(entities.KindBucket, bucket)
	mc.Buckets.Set(bucketID, state.Bucket{RecordID: recordID})
	return bucketID, nil
}

// emitRecordFiles adds the inserted objects and links the ones landing in a bucket of the record to it.
func (a DraftPublish) emitRecordFiles(tx cdc.Transaction, bundle *entities.Bundle, mc *state.MigrationContext, recordID string) error {
	for _, event := range tx.Find(tableObject, cdc.Insert) {
		object, err := objectEntity(event.After)
		if err != nil {
			return err
		}
		bundle.Insert(entities.KindObject, object)

		owner, isOk := mc.Buckets.Get(stringColumn(event.After, "bucket_id"))
		if !isOk || owner.Draft || owner.RecordID != recordID {
			continue
		}

		recordFile, err := fileRecordEntity(mc.IDs.NewUUID(), recordID, object)
		if err != nil {
			return err
		}
		bundle.Insert(entities.KindRecordFile, recordFile)
	}
	return nil
}

func (a DraftPublish) emitParent(bundle *entities.Bundle, rows publishRows, parentID, conceptRecID string, conceptPK int64, exists bool) error {
	created, updated, err := metadataTimes(rows.deposit)
	if err != nil {
		return err
	}

	parent := map[string]any{
		"id":      parentID,
		"json":    parentDocument(rows.document, conceptRecID, pidReference(conceptPK, pidStatusRegistered), a.settings.DOIPrefix),
		"updated": updated,
	}
	if exists {
		bundle.Update(entities.KindParent, parent)
		return nil
	}

	parent["created"] = created
	parent["version_id"] = 1
	bundle.Insert(entities.KindParent, parent)
	return nil
}

func (a DraftPublish) record(rows publishRows, document map[string]any, recordID, parentID, bucketID string, index int) (map[string]any, error) {
	source := rows.deposit
	if rows.record != nil {
		source = *rows.record
	}

	created, updated, err := metadataTimes(source)
	if err != nil {
		return nil, err
	}

	record := map[string]any{
		"id":        recordID,
		"json":      document,
		"updated":   updated,
		"parent_id": parentID,
	}
	if created != nil {
		record["created"] = created
	}
	if version, isOk := source.Row()["version_id"]; isOk {
		record["version_id"] = version
	}
	if bucketID != "" {
		record["bucket_id"] = bucketID
	}
	if index > 0 {
		record["index"] = index
	}
	return record, nil
}
