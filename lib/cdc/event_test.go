package cdc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bucketUpdate() ChangeEvent {
	return ChangeEvent{
		Operation: Update,
		Table:     "files_bucket",
		Key:       map[string]any{"id": "0e12b4b6-9cc7-46df-9a04-c11c478de211"},
		Before: map[string]any{
			"id":                    "0e12b4b6-9cc7-46df-9a04-c11c478de211",
			"default_location":      json.Number("1"),
			"default_storage_class": "L",
			"size":                  json.Number("0"),
			"quota_size":            json.Number("50000000000"),
			"locked":                false,
			"deleted":               false,
			"created":               json.Number("1689340000000000"),
			"updated":               json.Number("1689340000000000"),
		},
		After: map[string]any{
			"id":                    "0e12b4b6-9cc7-46df-9a04-c11c478de211",
			"default_location":      json.Number("1"),
			"default_storage_class": "L",
			"size":                  json.Number("1562554"),
			"quota_size":            json.Number("50000000000"),
			"locked":                false,
			"deleted":               false,
			"created":               json.Number("1689340000000000"),
			"updated":               json.Number("1689340123456789"),
		},
	}
}

func TestChangeEvent_RemoveUnchangedFields(t *testing.T) {
	{
		// Only size and updated differ
		evt := bucketUpdate()
		evt.RemoveUnchangedFields()

		expectedKeys := []string{"id", "size", "updated"}
		assert.ElementsMatch(t, expectedKeys, keys(evt.Before))
		assert.ElementsMatch(t, expectedKeys, keys(evt.After))
		assert.Equal(t, json.Number("0"), evt.Before["size"])
		assert.Equal(t, json.Number("1562554"), evt.After["size"])
	}
	{
		// Without calling it, every column is kept
		evt := bucketUpdate()
		assert.Len(t, evt.Before, 9)
		assert.Len(t, evt.After, 9)
	}
	{
		// Inserts are left untouched
		evt := bucketUpdate()
		evt.Operation = Insert
		evt.RemoveUnchangedFields()
		assert.Len(t, evt.After, 9)
	}
	{
		// Nested documents are compared by value
		evt := ChangeEvent{
			Operation: Update,
			Table:     "records_metadata",
			Key:       map[string]any{"id": "a"},
			Before:    map[string]any{"id": "a", "json": map[string]any{"title": "foo"}, "version_id": json.Number("1")},
			After:     map[string]any{"id": "a", "json": map[string]any{"title": "foo"}, "version_id": json.Number("2")},
		}
		evt.RemoveUnchangedFields()
		assert.Equal(t, map[string]any{"id": "a", "version_id": json.Number("2")}, evt.After)
	}
}

func TestChangeEvent_Validate(t *testing.T) {
	type _tc struct {
		name        string
		evt         ChangeEvent
		expectedErr string
	}

	tcs := []_tc{
		{
			name:        "no table",
			evt:         ChangeEvent{Operation: Insert, After: map[string]any{}},
			expectedErr: "table is empty",
		},
		{
			name:        "insert without after",
			evt:         ChangeEvent{Operation: Insert, Table: "accounts_user"},
			expectedErr: `after is nil for an insert on "accounts_user"`,
		},
		{
			name:        "update without before",
			evt:         ChangeEvent{Operation: Update, Table: "accounts_user", After: map[string]any{}},
			expectedErr: "before and after must be set",
		},
		{
			name:        "delete without before",
			evt:         ChangeEvent{Operation: Delete, Table: "accounts_user"},
			expectedErr: `before is nil for a delete on "accounts_user"`,
		},
		{
			name: "valid delete",
			evt:  ChangeEvent{Operation: Delete, Table: "accounts_user", Before: map[string]any{"id": 1}},
		},
	}

	for _, tc := range tcs {
		err := tc.evt.Validate()
		if tc.expectedErr != "" {
			assert.ErrorContains(t, err, tc.expectedErr, tc.name)
		} else {
			assert.NoError(t, err, tc.name)
		}
	}
}

func TestChangeEvent_Changed(t *testing.T) {
	evt := bucketUpdate()
	assert.True(t, evt.Changed("size"))
	assert.False(t, evt.Changed("locked"))
	assert.False(t, evt.Changed("missing"))
	assert.Equal(t, "files_bucket", evt.QualifiedTable())

	evt.Schema = "public"
	assert.Equal(t, "public.files_bucket", evt.QualifiedTable())
}

func keys(m map[string]any) []string {
	var result []string
	for key := range m {
		result = append(result, key)
	}
	return result
}
