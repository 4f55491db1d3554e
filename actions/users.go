package actions

import (
	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/actions/match"
	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/state"
)

var userColumns = []string{"id", "email", "password", "active", "confirmed_at", "created", "updated", "version_id",
	"current_login_at", "last_login_at", "current_login_ip", "last_login_ip", "login_count", "blocked_at", "verified_at"}

func isDeactivation(event cdc.ChangeEvent) bool {
	before, _ := cdc.Bool(event.Before["active"])
	after, _ := cdc.Bool(event.After["active"])
	return before && !after
}

func isNotDeactivation(event cdc.ChangeEvent) bool {
	return !isDeactivation(event)
}

var (
	userRegisterShape = match.Set(
		match.One(match.Insert(tableUser)),
		match.Optional(match.Insert(tableUserProfile)),
	)
	userDeactivateShape = match.Set(
		match.One(match.Update(tableUser)).If(isDeactivation),
		match.Many(match.Delete(tableSessionActivity)),
	)
	userEditShape = match.And(
		match.Set(
			match.Optional(match.Update(tableUser)).If(isNotDeactivation),
			match.Optional(match.Insert(tableUserProfile)),
			match.Optional(match.Update(tableUserProfile)),
			match.Many(match.Any(tableSessionActivity)),
		),
		match.Or(
			match.Has(match.Update(tableUser), nil),
			match.Has(match.Any(tableUserProfile), nil),
		),
	)
)

// userEntity merges an accounts_user row with the profile that used to live in its own table.
func userEntity(user, profile map[string]any) (map[string]any, error) {
	data := pick(user, userColumns...)
	if profile != nil {
		if _, isOk := data["id"]; !isOk {
			data["id"] = profile["user_id"]
		}
		if username := stringColumn(profile, "username"); username != "" {
			data["username"] = username
		}
		if displayname := stringColumn(profile, "displayname"); displayname != "" {
			data["displayname"] = displayname
		}
		data["user_profile"] = map[string]any{"full_name": stringColumn(profile, "full_name")}
	}
	return copyRow(data)
}

func sessionEntity(row map[string]any) (map[string]any, error) {
	return copyRow(pick(row, "sid_s", "user_id", "created", "updated", "ip", "country", "browser", "browser_version", "os", "device"))
}

// emitSessions passes session activity through with the operation it had at the source.
func emitSessions(tx cdc.Transaction, bundle *entities.Bundle) error {
	for _, event := range tx.ByTable(tableSessionActivity) {
		session, err := sessionEntity(event.Row())
		if err != nil {
			return err
		}
		bundle.Add(entities.KindSession, event.Operation, session)
	}
	return nil
}

type UserRegister struct{}

func (UserRegister) Name() string {
	return "user-register"
}

func (UserRegister) Matches(tx cdc.Transaction) bool {
	return userRegisterShape(tx)
}

func (a UserRegister) Transform(tx cdc.Transaction, _ *state.MigrationContext) (*entities.Bundle, error) {
	user, err := single(tx, tableUser, cdc.Insert)
	if err != nil {
		return nil, err
	}

	var profile map[string]any
	if event, isOk := optional(tx, tableUserProfile, cdc.Insert); isOk {
		profile = event.After
	}

	data, err := userEntity(user.After, profile)
	if err != nil {
		return nil, err
	}
	data["preferences"] = map[string]any{"visibility": "restricted", "email_visibility": "restricted"}

	bundle := entities.NewBundle(tx.ID, a.Name())
	bundle.Insert(entities.KindUser, data)
	return bundle, nil
}

type UserDeactivate struct{}

func (UserDeactivate) Name() string {
	return "user-deactivate"
}

func (UserDeactivate) Matches(tx cdc.Transaction) bool {
	return userDeactivateShape(tx)
}

func (a UserDeactivate) Transform(tx cdc.Transaction, _ *state.MigrationContext) (*entities.Bundle, error) {
	user, err := single(tx, tableUser, cdc.Update)
	if err != nil {
		return nil, err
	}

	data, err := userEntity(user.After, nil)
	if err != nil {
		return nil, err
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	bundle.Update(entities.KindUser, data)
	if err = emitSessions(tx, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// UserEdit covers profile changes, email confirmation and logins.
type UserEdit struct{}

func (UserEdit) Name() string {
	return "user-edit"
}

func (UserEdit) Matches(tx cdc.Transaction) bool {
	return userEditShape(tx)
}

func (a UserEdit) Transform(tx cdc.Transaction, _ *state.MigrationContext) (*entities.Bundle, error) {
	var user, profile map[string]any
	if event, isOk := optional(tx, tableUser, cdc.Update); isOk {
		user = event.After
	}
	for _, event := range tx.ByTable(tableUserProfile) {
		profile = event.After
	}
	if user == nil && profile == nil {
		return nil, MissingRowError{Table: tableUser, Description: "no user or profile change"}
	}

	data, err := userEntity(user, profile)
	if err != nil {
		return nil, err
	}

	bundle := entities.NewBundle(tx.ID, a.Name())
	bundle.Update(entities.KindUser, data)
	if err = emitSessions(tx, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}
