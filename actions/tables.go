package actions

// Source tables of the legacy database.
const (
	tablePIDRecID       = "pidstore_recid"
	tablePID            = "pidstore_pid"
	tableBucket         = "files_bucket"
	tableFile           = "files_files"
	tableObject         = "files_object"
	tableRecordMetadata = "records_metadata"
	tableRecordBuckets  = "records_buckets"
	tablePIDRelation    = "pidrelations_pidrelation"

	tableUser            = "accounts_user"
	tableUserProfile     = "userprofiles_userprofile"
	tableSessionActivity = "accounts_user_session_activity"

	tableCommunity       = "communities_community"
	tableCommunityRecord = "communities_community_record"
	tableOAISet          = "oaiserver_set"

	tableOAuthClient   = "oauth2server_client"
	tableOAuthToken    = "oauth2server_token"
	tableRemoteAccount = "oauthclient_remoteaccount"
	tableRemoteToken   = "oauthclient_remotetoken"
	tableUserIdentity  = "oauthclient_useridentity"

	tableWebhookEvent  = "webhooks_events"
	tableGitHubRelease = "github_releases"
	tableGitHubRepo    = "github_repositories"
)

const (
	recordSchema = "local://records/record-v6.0.0.json"
	parentSchema = "local://records/parent-v3.0.0.json"

	pidTypeRecID = "recid"
	pidTypeDOI   = "doi"
	pidTypeOAI   = "oai"

	// Registered pids are resolvable, new ones belong to drafts that were never published.
	pidStatusRegistered = "R"
	pidStatusNew        = "N"

	depositStatusDraft     = "draft"
	depositStatusPublished = "published"
)
