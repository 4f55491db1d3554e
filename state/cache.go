package state

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Cache is a first-write-wins mapping from a legacy key to migration state.
// Writes made between [Cache.begin] and [Cache.commit] are staged and discarded by [Cache.rollback],
// so a transaction that fails half way through never leaves entries behind.
type Cache[V any] struct {
	name      string
	committed map[string]V
	staged    map[string]V
	dirty     map[string]bool
}

func NewCache[V any](name string) *Cache[V] {
	return &Cache[V]{
		name:      name,
		committed: make(map[string]V),
		dirty:     make(map[string]bool),
	}
}

func (c *Cache[V]) Name() string {
	return c.name
}

func (c *Cache[V]) Get(key string) (V, bool) {
	if value, ok := c.staged[key]; ok {
		return value, true
	}
	value, ok := c.committed[key]
	return value, ok
}

// Set stores the value and returns true, or returns false without overwriting if the key is already mapped.
func (c *Cache[V]) Set(key string, value V) bool {
	if _, ok := c.Get(key); ok {
		return false
	}

	if c.staged != nil {
		c.staged[key] = value
	} else {
		c.committed[key] = value
		c.dirty[key] = true
	}
	return true
}

func (c *Cache[V]) Len() int {
	return len(c.committed) + len(c.staged)
}

func (c *Cache[V]) begin() {
	c.staged = make(map[string]V)
}

func (c *Cache[V]) commit() {
	for key, value := range c.staged {
		c.committed[key] = value
		c.dirty[key] = true
	}
	c.staged = nil
}

func (c *Cache[V]) rollback() {
	c.staged = nil
}

// dirtyEntries returns the committed entries written since the last [Cache.clearDirty], encoded as JSON.
func (c *Cache[V]) dirtyEntries() (map[string][]byte, error) {
	out := make(map[string][]byte, len(c.dirty))
	for key := range c.dirty {
		bytes, err := json.Marshal(c.committed[key])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s entry %q: %w", c.name, key, err)
		}
		out[key] = bytes
	}
	return out, nil
}

func (c *Cache[V]) clearDirty() {
	clear(c.dirty)
}

func (c *Cache[V]) load(key string, raw []byte) error {
	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("failed to unmarshal %s entry %q: %w", c.name, key, err)
	}
	c.committed[key] = value
	return nil
}

// Snapshot returns a copy of the committed entries.
func (c *Cache[V]) Snapshot() map[string]V {
	return maps.Clone(c.committed)
}

type stagedCache interface {
	Name() string
	begin()
	commit()
	rollback()
	dirtyEntries() (map[string][]byte, error)
	clearDirty()
	load(key string, raw []byte) error
}
