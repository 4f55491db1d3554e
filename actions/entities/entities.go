// Package entities is the output model of the transforms: rows for the target tables, grouped per transaction.
package entities

import (
	"slices"

	"github.com/zenodo/rdm-migrator/lib/cdc"
)

type Kind string

const (
	KindPID             Kind = "pid"
	KindParentPID       Kind = "parent_pid"
	KindBucket          Kind = "bucket"
	KindFile            Kind = "file"
	KindObject          Kind = "object"
	KindParent          Kind = "parent"
	KindDraft           Kind = "draft"
	KindRecord          Kind = "record"
	KindVersionsState   Kind = "versions_state"
	KindDraftFile       Kind = "draft_file"
	KindRecordFile      Kind = "record_file"
	KindUser            Kind = "user"
	KindSession         Kind = "session_activity"
	KindCommunity       Kind = "community"
	KindCommunityMember Kind = "community_member"
	KindParentCommunity Kind = "parent_community"
	KindOAuthClient     Kind = "oauth_client"
	KindOAuthToken      Kind = "oauth_token"
	KindRemoteAccount   Kind = "remote_account"
	KindRemoteToken     Kind = "remote_token"
	KindUserIdentity    Kind = "user_identity"
	KindWebhookEvent    Kind = "webhook_event"
	KindGitHubRelease   Kind = "github_release"
	KindGitHubRepo      Kind = "github_repository"
)

// DependencyOrder lists kinds so that every row only references rows of kinds listed before it.
var DependencyOrder = []Kind{
	KindUser,
	KindSession,
	KindUserIdentity,
	KindOAuthClient,
	KindOAuthToken,
	KindRemoteAccount,
	KindRemoteToken,
	KindCommunity,
	KindCommunityMember,
	KindPID,
	KindParentPID,
	KindBucket,
	KindFile,
	KindObject,
	KindParent,
	KindDraft,
	KindRecord,
	KindVersionsState,
	KindDraftFile,
	KindRecordFile,
	KindParentCommunity,
	KindGitHubRepo,
	KindWebhookEvent,
	KindGitHubRelease,
}

// Rank returns the position of the kind in [DependencyOrder], unknown kinds sort last.
func Rank(kind Kind) int {
	if idx := slices.Index(DependencyOrder, kind); idx >= 0 {
		return idx
	}
	return len(DependencyOrder)
}

type Entity struct {
	Kind      Kind           `json:"kind"`
	Operation cdc.Operation  `json:"op"`
	Data      map[string]any `json:"data"`
}

// Bundle is everything a single source transaction produced. It is applied all-or-nothing.
type Bundle struct {
	TransactionID int64    `json:"tx_id"`
	Action        string   `json:"action"`
	Entities      []Entity `json:"entities"`
}

func NewBundle(txID int64, action string) *Bundle {
	return &Bundle{TransactionID: txID, Action: action}
}

func (b *Bundle) Add(kind Kind, op cdc.Operation, data map[string]any) {
	b.Entities = append(b.Entities, Entity{Kind: kind, Operation: op, Data: data})
}

func (b *Bundle) Insert(kind Kind, data map[string]any) {
	b.Add(kind, cdc.Insert, data)
}

func (b *Bundle) Update(kind Kind, data map[string]any) {
	b.Add(kind, cdc.Update, data)
}

func (b *Bundle) Delete(kind Kind, data map[string]any) {
	b.Add(kind, cdc.Delete, data)
}

// Get returns the entities of the given kind in the order they were added.
func (b *Bundle) Get(kind Kind) []Entity {
	var out []Entity
	for _, entity := range b.Entities {
		if entity.Kind == kind {
			out = append(out, entity)
		}
	}
	return out
}

// First returns the data of the first entity of the given kind.
func (b *Bundle) First(kind Kind) (map[string]any, bool) {
	for _, entity := range b.Entities {
		if entity.Kind == kind {
			return entity.Data, true
		}
	}
	return nil, false
}

func (b *Bundle) Kinds() []Kind {
	var kinds []Kind
	for _, entity := range b.Entities {
		if !slices.Contains(kinds, entity.Kind) {
			kinds = append(kinds, entity.Kind)
		}
	}
	return kinds
}

func (b *Bundle) Empty() bool {
	return b == nil || len(b.Entities) == 0
}

// Ordered returns the entities in the order they must be applied: inserts and updates follow [DependencyOrder],
// deletes come last in the reverse order.
func (b *Bundle) Ordered() []Entity {
	var writes, deletes []Entity
	for _, entity := range b.Entities {
		if entity.Operation == cdc.Delete {
			deletes = append(deletes, entity)
		} else {
			writes = append(writes, entity)
		}
	}

	slices.SortStableFunc(writes, func(a, b Entity) int {
		return Rank(a.Kind) - Rank(b.Kind)
	})
	slices.SortStableFunc(deletes, func(a, b Entity) int {
		return Rank(b.Kind) - Rank(a.Kind)
	})
	return append(writes, deletes...)
}
