// Package state holds the cross-transaction state a migration run threads through every transform.
package state

// Parent is the migrated identity shared by every version of a legacy record, keyed by conceptrecid.
type Parent struct {
	ID string `json:"id"`
}

// Record is the migrated identity of a legacy recid. Drafts and their published record share the id.
type Record struct {
	ID           string `json:"id"`
	ParentID     string `json:"parent_id"`
	ConceptRecID string `json:"conceptrecid"`
	BucketID     string `json:"bucket_id,omitempty"`
	// PIDID is the primary key of the recid pid row.
	PIDID int64 `json:"pid_id,omitempty"`
	Index int   `json:"index,omitempty"`
}

// Bucket points a legacy files bucket at the draft or record owning it.
type Bucket struct {
	RecordID string `json:"record_id"`
	Draft    bool   `json:"draft"`
}

type MigrationContext struct {
	// Parents is keyed by conceptrecid.
	Parents *Cache[Parent]
	// Records is keyed by recid.
	Records *Cache[Record]
	// Buckets is keyed by legacy bucket id.
	Buckets *Cache[Bucket]
	// Communities maps a legacy community slug to its generated id.
	Communities *Cache[string]
	// RecordIDs maps a legacy records_metadata id to its recid.
	RecordIDs *Cache[string]

	IDs IDGenerator
}

func NewMigrationContext(ids IDGenerator) *MigrationContext {
	return &MigrationContext{
		Parents:     NewCache[Parent]("parents"),
		Records:     NewCache[Record]("records"),
		Buckets:     NewCache[Bucket]("buckets"),
		Communities: NewCache[string]("communities"),
		RecordIDs:   NewCache[string]("record_ids"),
		IDs:         ids,
	}
}

func (m *MigrationContext) caches() []stagedCache {
	return []stagedCache{m.Parents, m.Records, m.Buckets, m.Communities, m.RecordIDs}
}

// Begin starts staging cache writes for a single transaction.
func (m *MigrationContext) Begin() {
	for _, cache := range m.caches() {
		cache.begin()
	}
}

func (m *MigrationContext) Commit() {
	for _, cache := range m.caches() {
		cache.commit()
	}
}

// Rollback drops every write staged since [MigrationContext.Begin].
func (m *MigrationContext) Rollback() {
	for _, cache := range m.caches() {
		cache.rollback()
	}
}
