package actions

import (
	"slices"

	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/actions/match"
	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/state"
)

func isSoftDelete(event cdc.ChangeEvent) bool {
	return event.Before["deleted_at"] == nil && event.After["deleted_at"] != nil
}

func isNotSoftDelete(event cdc.ChangeEvent) bool {
	return !isSoftDelete(event)
}

// communitySlugs returns the community slugs a legacy record image is part of.
func communitySlugs(image map[string]any) []string {
	var slugs []string
	if values, isOk := mustDocument(image)["communities"].([]any); isOk {
		for _, value := range values {
			if slug, isOk := value.(string); isOk && slug != "" && !slices.Contains(slugs, slug) {
				slugs = append(slugs, slug)
			}
		}
	}
	return slugs
}

// communitiesDiff returns the slugs added to and removed from a record by an update.
func communitiesDiff(event cdc.ChangeEvent) ([]string, []string) {
	before, after := communitySlugs(event.Before), communitySlugs(event.After)

	var added, removed []string
	for _, slug := range after {
		if !slices.Contains(before, slug) {
			added = append(added, slug)
		}
	}
	for _, slug := range before {
		if !slices.Contains(after, slug) {
			removed = append(removed, slug)
		}
	}
	return added, removed
}

func addsCommunities(event cdc.ChangeEvent) bool {
	if !isRecordEvent(event) {
		return false
	}
	added, _ := communitiesDiff(event)
	return len(added) > 0
}

func onlyRemovesCommunities(event cdc.ChangeEvent) bool {
	if !isRecordEvent(event) {
		return false
	}
	added, removed := communitiesDiff(event)
	return len(added) == 0 && len(removed) > 0
}

// isDepositSync matches deposit updates that mirror a record change without changing the deposit status.
func isDepositSync(event cdc.ChangeEvent) bool {
	return isDepositEvent(event) && depositStatus(mustDocument(event.Before)) == depositStatus(mustDocument(event.After))
}

var (
	communityCreateShape = match.Set(
		match.One(match.Insert(tableCommunity)),
		match.Optional(match.Insert(tableOAISet)),
	)
	communityDeleteShape = match.Or(
		match.Set(
			match.One(match.Update(tableCommunity)).If(isSoftDelete),
			match.Optional(match.Delete(tableOAISet)),
			match.Many(match.Delete(tableCommunityRecord)),
		),
		match.Set(
			match.One(match.Delete(tableCommunity)),
			match.Optional(match.Delete(tableOAISet)),
			match.Many(match.Delete(tableCommunityRecord)),
		),
	)
	communityUpdateShape = match.Set(
		match.One(match.Update(tableCommunity)).If(isNotSoftDelete),
		match.Optional(match.Update(tableOAISet)),
	)
	communityRecordAddShape = match.Set(
		match.One(match.Update(tableRecordMetadata)).If(addsCommunities),
		match.Optional(match.Update(tableRecordMetadata)).If(isDepositSync),
		match.Many(match.Delete(tableCommunityRecord)),
	)
	communityRecordRemoveShape = match.Set(
		match.One(match.Update(tableRecordMetadata)).If(onlyRemovesCommunities),
		match.Optional(match.Update(tableRecordMetadata)).If(isDepositSync),
		match.Many(match.Delete(tableCommunityRecord)),
	)
)

func communityEntity(id string, row map[string]any) (map[string]any, error) {
	data, err := copyRow(pick(row, "created", "updated", "deleted_at"))
	if err != nil {
		return nil, err
	}

	data["id"] = id
	data["slug"] = stringColumn(row, "id")
	data["metadata"] = compactMetadata(map[string]any{
		"title":           stringColumn(row, "title"),
		"description":     stringColumn(row, "description"),
		"page":            stringColumn(row, "page"),
		"curation_policy": stringColumn(row, "curation_policy"),
	})
	data["access"] = map[string]any{
		"visibility":    "public",
		"member_policy": "open",
		"record_policy": "open",
	}
	return data, nil
}

func compactMetadata(metadata map[string]any) map[string]any {
	for key, value := range metadata {
		if value == "" {
			delete(metadata, key)
		}
	}
	return metadata
}

func communityID(mc *state.MigrationContext, slug string) (string, error) {
	id, isOk := mc.Communities.Get(slug)
	if !isOk {
		return "", CommunityNotFoundError{Slug: slug}
	}
	return id, nil
}

type CommunityCreate struct{}

func (CommunityCreate) Name() string {
	return "community-create"
}

func (CommunityCreate) Matches(tx cdc.Transaction) bool {
	return communityCreateShape(tx)
}

func (a CommunityCreate) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	event, err := single(tx, tableCommunity, cdc.Insert)
	if err != nil {
		return nil, err
	}

	slug := stringColumn(event.After, "id")
	id := mc.IDs.NewUUID()
	if existing, isOk := mc.Communities.Get(slug); isOk {
		id = existing
	}

	community, err := communityEntity(id, event.After)
	if err != nil {
		return nil, err
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	bundle.Insert(entities.KindCommunity, community)
	if owner, isOk := int64Column(event.After, "id_user"); isOk {
		bundle.Insert(entities.KindCommunityMember, map[string]any{
			"id":           mc.IDs.NewUUID(),
			"community_id": id,
			"user_id":      owner,
			"role":         "owner",
			"visible":      true,
			"active":       true,
			"created":      community["created"],
			"updated":      community["updated"],
		})
	}

	mc.Communities.Set(slug, id)
	return bundle, nil
}

type CommunityDelete struct{}

func (CommunityDelete) Name() string {
	return "community-delete"
}

func (CommunityDelete) Matches(tx cdc.Transaction) bool {
	return communityDeleteShape(tx)
}

func (a CommunityDelete) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	bundle := entities.NewBundle(tx.ID, a.Name())
	if event, isOk := optional(tx, tableCommunity, cdc.Delete); isOk {
		id, err := communityID(mc, stringColumn(event.Before, "id"))
		if err != nil {
			return nil, err
		}
		bundle.Delete(entities.KindCommunity, map[string]any{"id": id})
		return bundle, nil
	}

	event, err := single(tx, tableCommunity, cdc.Update)
	if err != nil {
		return nil, err
	}

	id, err := communityID(mc, stringColumn(event.After, "id"))
	if err != nil {
		return nil, err
	}

	community, err := copyRow(pick(event.After, "updated", "deleted_at"))
	if err != nil {
		return nil, err
	}
	community["id"] = id
	bundle.Update(entities.KindCommunity, community)
	return bundle, nil
}

type CommunityUpdate struct{}

func (CommunityUpdate) Name() string {
	return "community-update"
}

func (CommunityUpdate) Matches(tx cdc.Transaction) bool {
	return communityUpdateShape(tx)
}

func (a CommunityUpdate) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	event, err := single(tx, tableCommunity, cdc.Update)
	if err != nil {
		return nil, err
	}

	id, err := communityID(mc, stringColumn(event.After, "id"))
	if err != nil {
		return nil, err
	}

	community, err := communityEntity(id, event.After)
	if err != nil {
		return nil, err
	}
	delete(community, "access")

	bundle := entities.NewBundle(tx.ID, a.Name())
	bundle.Update(entities.KindCommunity, community)
	return bundle, nil
}

// communityRecordParent resolves the parent of the published record whose communities changed.
func communityRecordParent(tx cdc.Transaction, mc *state.MigrationContext, where func(cdc.ChangeEvent) bool) (cdc.ChangeEvent, state.Parent, error) {
	for _, event := range tx.Find(tableRecordMetadata, cdc.Update) {
		if !where(event) {
			continue
		}

		document := mustDocument(event.After)
		conceptRecID := docString(document, "conceptrecid")
		if conceptRecID == "" {
			if record, isOk := mc.Records.Get(recordRecID(document)); isOk {
				conceptRecID = record.ConceptRecID
			}
		}

		parent, isOk := mc.Parents.Get(conceptRecID)
		if !isOk {
			return event, state.Parent{}, ParentNotFoundError{ConceptRecID: conceptRecID}
		}
		return event, parent, nil
	}
	return cdc.ChangeEvent{}, state.Parent{}, MissingRowError{Table: tableRecordMetadata, Description: "no record with changed communities"}
}

// CommunityRecordAdd links a record to the communities that accepted it.
type CommunityRecordAdd struct{}

func (CommunityRecordAdd) Name() string {
	return "community-record-add"
}

func (CommunityRecordAdd) Matches(tx cdc.Transaction) bool {
	return communityRecordAddShape(tx)
}

func (a CommunityRecordAdd) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	event, parent, err := communityRecordParent(tx, mc, addsCommunities)
	if err != nil {
		return nil, err
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	added, removed := communitiesDiff(event)
	for _, slug := range added {
		id, err := communityID(mc, slug)
		if err != nil {
			return nil, err
		}
		bundle.Insert(entities.KindParentCommunity, map[string]any{"community_id": id, "record_id": parent.ID})
	}
	// A curator may move a record, adding and removing in the same transaction.
	for _, slug := range removed {
		id, err := communityID(mc, slug)
		if err != nil {
			return nil, err
		}
		bundle.Delete(entities.KindParentCommunity, map[string]any{"community_id": id, "record_id": parent.ID})
	}
	return bundle, nil
}

type CommunityRecordRemove struct{}

func (CommunityRecordRemove) Name() string {
	return "community-record-remove"
}

func (CommunityRecordRemove) Matches(tx cdc.Transaction) bool {
	return communityRecordRemoveShape(tx)
}

func (a CommunityRecordRemove) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	event, parent, err := communityRecordParent(tx, mc, onlyRemovesCommunities)
	if err != nil {
		return nil, err
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	_, removed := communitiesDiff(event)
	for _, slug := range removed {
		id, err := communityID(mc, slug)
		if err != nil {
			return nil, err
		}
		bundle.Delete(entities.KindParentCommunity, map[string]any{"community_id": id, "record_id": parent.ID})
	}
	return bundle, nil
}
