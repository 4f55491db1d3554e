package actions

import (
	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/actions/match"
	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/state"
)

var (
	oauthTokenCreateShape = match.Set(
		match.One(match.Insert(tableOAuthToken)),
		match.Optional(match.Insert(tableOAuthClient)),
	)
	oauthTokenUpdateShape = match.Set(match.One(match.Update(tableOAuthToken)))
	oauthTokenDeleteShape = match.Set(match.AtLeastOne(match.Delete(tableOAuthToken)))

	oauthClientCreateShape = match.Set(match.One(match.Insert(tableOAuthClient)))
	oauthClientUpdateShape = match.Set(match.One(match.Update(tableOAuthClient)))
	oauthClientDeleteShape = match.Set(
		match.One(match.Delete(tableOAuthClient)),
		match.Many(match.Delete(tableOAuthToken)),
	)

	linkedAccountConnectShape = match.And(
		match.Set(
			match.Optional(match.Insert(tableRemoteAccount)),
			match.Optional(match.Insert(tableRemoteToken)),
			match.Optional(match.Insert(tableUserIdentity)),
		),
		match.NotEmpty,
	)
	linkedAccountDisconnectShape = match.And(
		match.Set(
			match.Optional(match.Delete(tableRemoteAccount)),
			match.Optional(match.Delete(tableRemoteToken)),
			match.Optional(match.Delete(tableUserIdentity)),
		),
		match.NotEmpty,
	)
)

// passthrough copies every row of the table into the bundle with the operation it had at the source.
func passthrough(tx cdc.Transaction, bundle *entities.Bundle, table string, kind entities.Kind, jsonColumns ...string) error {
	for _, event := range tx.ByTable(table) {
		data, err := copyRow(event.Row())
		if err != nil {
			return err
		}
		for _, column := range jsonColumns {
			if data[column] == nil {
				continue
			}
			if data[column], err = cdc.JSONValue(data[column]); err != nil {
				return err
			}
		}
		bundle.Add(kind, event.Operation, data)
	}
	return nil
}

// oauthAction moves rows of the oauth tables over as they are.
type oauthAction struct {
	name  string
	shape match.Predicate
}

func (a oauthAction) Name() string {
	return a.name
}

func (a oauthAction) Matches(tx cdc.Transaction) bool {
	return a.shape(tx)
}

func (a oauthAction) Transform(tx cdc.Transaction, _ *state.MigrationContext) (*entities.Bundle, error) {
	bundle := entities.NewBundle(tx.ID, a.name)
	tables := []struct {
		table       string
		kind        entities.Kind
		jsonColumns []string
	}{
		{table: tableOAuthClient, kind: entities.KindOAuthClient},
		{table: tableOAuthToken, kind: entities.KindOAuthToken},
		{table: tableRemoteAccount, kind: entities.KindRemoteAccount, jsonColumns: []string{"extra_data"}},
		{table: tableRemoteToken, kind: entities.KindRemoteToken},
		{table: tableUserIdentity, kind: entities.KindUserIdentity},
	}
	for _, t := range tables {
		if err := passthrough(tx, bundle, t.table, t.kind, t.jsonColumns...); err != nil {
			return nil, err
		}
	}

	if bundle.Empty() {
		return nil, MissingRowError{Table: tableOAuthToken, Description: "no oauth rows"}
	}
	return bundle, nil
}

func OAuthTokenCreate() Action {
	return oauthAction{name: "oauth-token-create", shape: oauthTokenCreateShape}
}

func OAuthTokenUpdate() Action {
	return oauthAction{name: "oauth-token-update", shape: oauthTokenUpdateShape}
}

func OAuthTokenDelete() Action {
	return oauthAction{name: "oauth-token-delete", shape: oauthTokenDeleteShape}
}

func OAuthClientCreate() Action {
	return oauthAction{name: "oauth-client-create", shape: oauthClientCreateShape}
}

func OAuthClientUpdate() Action {
	return oauthAction{name: "oauth-client-update", shape: oauthClientUpdateShape}
}

func OAuthClientDelete() Action {
	return oauthAction{name: "oauth-client-delete", shape: oauthClientDeleteShape}
}

func OAuthLinkedAccountConnect() Action {
	return oauthAction{name: "oauth-linked-account-connect", shape: linkedAccountConnectShape}
}

func OAuthLinkedAccountDisconnect() Action {
	return oauthAction{name: "oauth-linked-account-disconnect", shape: linkedAccountDisconnectShape}
}
