// Package entries maps legacy Zenodo record documents onto the field layout of the new data model.
package entries

import "fmt"

// Record maps a legacy record or deposit document into the body shared by drafts and records.
func Record(legacy map[string]any, doiPrefix string) (map[string]any, error) {
	if legacy == nil {
		return nil, fmt.Errorf("legacy record is nil")
	}

	metadata, err := Metadata(legacy)
	if err != nil {
		return nil, err
	}

	files := map[string]any{"enabled": len(objects(legacy, "_files")) > 0}
	if str(legacy, "access_right") == AccessClosed {
		files["enabled"] = false
	}

	return compactMap(map[string]any{
		"metadata":      metadata,
		"custom_fields": CustomFields(legacy),
		"access":        Access(legacy),
		"files":         files,
		"pids":          PIDs(legacy, doiPrefix),
	}), nil
}

// Parent maps the parts of a legacy document that belong to the parent shared by all versions.
func Parent(legacy map[string]any, doiPrefix string) map[string]any {
	return compactMap(map[string]any{
		"access":      ParentAccess(legacy),
		"communities": Communities(legacy),
		"pids":        ParentPIDs(legacy, doiPrefix),
	})
}
