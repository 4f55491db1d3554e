package postgres

import (
	"github.com/zenodo/rdm-migrator/actions/entities"
)

type Table struct {
	Name string
	// Keys identify a row for updates and deletes.
	Keys []string
}

var tables = map[entities.Kind]Table{
	entities.KindPID:             {Name: "pidstore_pid", Keys: []string{"id"}},
	entities.KindParentPID:       {Name: "pidstore_pid", Keys: []string{"id"}},
	entities.KindBucket:          {Name: "files_bucket", Keys: []string{"id"}},
	entities.KindFile:            {Name: "files_files", Keys: []string{"id"}},
	entities.KindObject:          {Name: "files_object", Keys: []string{"version_id"}},
	entities.KindParent:          {Name: "rdm_parents_metadata", Keys: []string{"id"}},
	entities.KindDraft:           {Name: "rdm_drafts_metadata", Keys: []string{"id"}},
	entities.KindRecord:          {Name: "rdm_records_metadata", Keys: []string{"id"}},
	entities.KindVersionsState:   {Name: "rdm_versions_state", Keys: []string{"parent_id"}},
	entities.KindDraftFile:       {Name: "rdm_drafts_files", Keys: []string{"record_id", "key"}},
	entities.KindRecordFile:      {Name: "rdm_records_files", Keys: []string{"record_id", "key"}},
	entities.KindUser:            {Name: "accounts_user", Keys: []string{"id"}},
	entities.KindSession:         {Name: "accounts_user_session_activity", Keys: []string{"sid_s"}},
	entities.KindCommunity:       {Name: "communities_metadata", Keys: []string{"id"}},
	entities.KindCommunityMember: {Name: "communities_members", Keys: []string{"id"}},
	entities.KindParentCommunity: {Name: "rdm_parents_community", Keys: []string{"community_id", "record_id"}},
	entities.KindOAuthClient:     {Name: "oauth2server_client", Keys: []string{"client_id"}},
	entities.KindOAuthToken:      {Name: "oauth2server_token", Keys: []string{"id"}},
	entities.KindRemoteAccount:   {Name: "oauthclient_remoteaccount", Keys: []string{"id"}},
	entities.KindRemoteToken:     {Name: "oauthclient_remotetoken", Keys: []string{"id_remote_account", "token_type"}},
	entities.KindUserIdentity:    {Name: "oauthclient_useridentity", Keys: []string{"id", "method"}},
	entities.KindWebhookEvent:    {Name: "webhooks_events", Keys: []string{"id"}},
	entities.KindGitHubRelease:   {Name: "github_releases", Keys: []string{"id"}},
	entities.KindGitHubRepo:      {Name: "github_repositories", Keys: []string{"id"}},
}

func TableFor(kind entities.Kind) (Table, bool) {
	table, isOk := tables[kind]
	return table, isOk
}
