// Package actions classifies complete source transactions into business operations and turns their rows into
// entities of the target data model.
package actions

import (
	"errors"
	"fmt"

	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/state"
)

type Action interface {
	Name() string
	// Matches must be free of side effects.
	Matches(tx cdc.Transaction) bool
	// Transform may only mutate the caches of the migration context.
	Transform(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error)
}

type Settings struct {
	// DOIPrefix identifies the DOIs minted by the platform itself, e.g. `10.5281/zenodo`.
	DOIPrefix string
}

var ErrNoMatchingAction = errors.New("no matching action")

// Registry holds actions in priority order, the first matching one wins.
type Registry struct {
	actions []Action
}

func NewRegistry(actions ...Action) *Registry {
	return &Registry{actions: actions}
}

// DefaultRegistry returns every action of the migration. More specific actions come first.
func DefaultRegistry(settings Settings) *Registry {
	return NewRegistry(
		DraftCreate{settings: settings},
		DraftNewVersion{settings: settings},
		DraftPublish{settings: settings, kind: PublishNew},
		DraftPublish{settings: settings, kind: PublishNewVersion},
		DraftPublish{settings: settings, kind: PublishEdit},
		DraftEdit{settings: settings},
		DraftUpdate{settings: settings},
		DraftFileUpload{},
		DraftFileDelete{},

		UserRegister{},
		UserDeactivate{},
		UserEdit{},

		CommunityCreate{},
		CommunityDelete{},
		CommunityUpdate{},
		CommunityRecordAdd{},
		CommunityRecordRemove{},

		OAuthTokenCreate(),
		OAuthTokenUpdate(),
		OAuthTokenDelete(),
		OAuthClientCreate(),
		OAuthClientUpdate(),
		OAuthClientDelete(),
		OAuthLinkedAccountConnect(),
		OAuthLinkedAccountDisconnect(),

		GitHubReleaseReceive{},
		GitHubReleaseUpdate{},
		GitHubHookEvent{},
		GitHubRepoCreate{},
		GitHubRepoUpdate{},
	)
}

func (r *Registry) Actions() []Action {
	return r.actions
}

// Match returns the first action matching the transaction.
func (r *Registry) Match(tx cdc.Transaction) (Action, bool) {
	for _, action := range r.actions {
		if action.Matches(tx) {
			return action, true
		}
	}
	return nil, false
}

// Matching returns every action matching the transaction. More than one means the registry is ambiguous.
func (r *Registry) Matching(tx cdc.Transaction) []Action {
	var matching []Action
	for _, action := range r.actions {
		if action.Matches(tx) {
			matching = append(matching, action)
		}
	}
	return matching
}

// Process matches and transforms a single transaction. Cache writes are only kept if the transform succeeds,
// so a failing transaction leaves no trace behind.
func (r *Registry) Process(tx cdc.Transaction, mc *state.MigrationContext) (*entities.Bundle, error) {
	action, isOk := r.Match(tx)
	if !isOk {
		return nil, fmt.Errorf("transaction %d %v: %w", tx.ID, tx.Signature(), ErrNoMatchingAction)
	}

	mc.Begin()
	bundle, err := action.Transform(tx, mc)
	if err != nil {
		mc.Rollback()
		return nil, fmt.Errorf("failed to transform transaction %d with %q: %w", tx.ID, action.Name(), err)
	}
	mc.Commit()

	return bundle, nil
}
