package actions

import (
	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/actions/match"
	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/state"
)

var (
	githubReleaseReceiveShape = match.Set(
		match.One(match.Insert(tableWebhookEvent)),
		match.Optional(match.Update(tableWebhookEvent)),
		match.One(match.Insert(tableGitHubRelease)),
	)
	githubReleaseUpdateShape = match.Set(
		match.One(match.Update(tableGitHubRelease)),
		match.Optional(match.Update(tableWebhookEvent)),
	)
	githubHookEventShape  = match.Set(match.One(match.Any(tableWebhookEvent)))
	githubRepoCreateShape = match.Set(match.One(match.Insert(tableGitHubRepo)))
	githubRepoUpdateShape = match.Set(match.AtLeastOne(match.Update(tableGitHubRepo)))
)

// releaseEntity maps a github_releases row, pointing it at the migrated record when the release was archived.
func releaseEntity(row map[string]any, mc *state.MigrationContext) (map[string]any, error) {
	release, err := copyRow(row)
	if err != nil {
		return nil, err
	}
	if release["errors"] != nil {
		if release["errors"], err = cdc.JSONValue(release["errors"]); err != nil {
			return nil, err
		}
	}

	var recordID any
	if recid, isOk := mc.RecordIDs.Get(stringColumn(row, "record_id")); isOk {
		if record, isOk := mc.Records.Get(recid); isOk {
			recordID = record.ID
		}
	}
	release["record_id"] = recordID
	return release, nil
}

func repositoryEntity(row map[string]any) (map[string]any, error) {
	repository, err := copyRow(row)
	if err != nil {
		return nil, err
	}
	rename(repository, "user_id", "enabled_by_id")
	return repository, nil
}

// GitHubReleaseReceive is a release webhook that got a release row created.
type GitHubReleaseReceive struct{}

func (GitHubReleaseReceive) Name() string {
	return "github-release-receive"
}

func (GitHubReleaseReceive) Matches(tx cdc.Transaction) bool {
	return githubReleaseReceiveShape(tx)
}

func (a GitHubReleaseReceive) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	event, err := single(tx, tableGitHubRelease, cdc.Insert)
	if err != nil {
		return nil, err
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	if err = passthrough(tx, bundle, tableWebhookEvent, entities.KindWebhookEvent, "payload", "payload_headers", "response", "response_headers"); err != nil {
		return nil, err
	}

	release, err := releaseEntity(event.After, mc)
	if err != nil {
		return nil, err
	}
	bundle.Insert(entities.KindGitHubRelease, release)
	return bundle, nil
}

// GitHubReleaseUpdate tracks a release through processing, up to the record it was published as.
type GitHubReleaseUpdate struct{}

func (GitHubReleaseUpdate) Name() string {
	return "github-release-update"
}

func (GitHubReleaseUpdate) Matches(tx cdc.Transaction) bool {
	return githubReleaseUpdateShape(tx)
}

func (a GitHubReleaseUpdate) Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	event, err := single(tx, tableGitHubRelease, cdc.Update)
	if err != nil {
		return nil, err
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	release, err := releaseEntity(event.After, mc)
	if err != nil {
		return nil, err
	}
	bundle.Update(entities.KindGitHubRelease, release)

	if err = passthrough(tx, bundle, tableWebhookEvent, entities.KindWebhookEvent, "payload", "payload_headers", "response", "response_headers"); err != nil {
		return nil, err
	}
	return bundle, nil
}

type GitHubHookEvent struct{}

func (GitHubHookEvent) Name() string {
	return "github-hook-event"
}

func (GitHubHookEvent) Matches(tx cdc.Transaction) bool {
	return githubHookEventShape(tx)
}

func (a GitHubHookEvent) Transform(tx cdc.Transaction, _ *state.MigrationContext) (*entities.Bundle, error) {
	bundle := entities.NewBundle(tx.ID, a.Name())
	if err := passthrough(tx, bundle, tableWebhookEvent, entities.KindWebhookEvent, "payload", "payload_headers", "response", "response_headers"); err != nil {
		return nil, err
	}
	return bundle, nil
}

type GitHubRepoCreate struct{}

func (GitHubRepoCreate) Name() string {
	return "github-repo-create"
}

func (GitHubRepoCreate) Matches(tx cdc.Transaction) bool {
	return githubRepoCreateShape(tx)
}

func (a GitHubRepoCreate) Transform(tx cdc.Transaction, _ *state.MigrationContext) (*entities.Bundle, error) {
	event, err := single(tx, tableGitHubRepo, cdc.Insert)
	if err != nil {
		return nil, err
	}

	repository, err := repositoryEntity(event.After)
	if err != nil {
		return nil, err
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	bundle.Insert(entities.KindGitHubRepo, repository)
	return bundle, nil
}

// GitHubRepoUpdate covers enabling, disabling and renaming repositories, possibly several in one sync.
type GitHubRepoUpdate struct{}

func (GitHubRepoUpdate) Name() string {
	return "github-repo-update"
}

func (GitHubRepoUpdate) Matches(tx cdc.Transaction) bool {
	return githubRepoUpdateShape(tx)
}

func (a GitHubRepoUpdate) Transform(tx cdc.Transaction, _ *state.MigrationContext) (*entities.Bundle, error) {
	bundle := entities.NewBundle(tx.ID, a.Name())
	for _, event := range tx.Find(tableGitHubRepo, cdc.Update) {
		repository, err := repositoryEntity(event.After)
		if err != nil {
			return nil, err
		}
		bundle.Update(entities.KindGitHubRepo, repository)
	}
	return bundle, nil
}
