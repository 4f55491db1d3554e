package entries

import (
	"strings"
)

// legacyLicenses maps legacy license ids onto the license vocabulary.
var legacyLicenses = map[string]string{
	"cc-by-4.0":       "cc-by-4.0",
	"cc-by-sa-4.0":    "cc-by-sa-4.0",
	"cc-by-nc-4.0":    "cc-by-nc-4.0",
	"cc-by-nd-4.0":    "cc-by-nd-4.0",
	"cc-by-nc-sa-4.0": "cc-by-nc-sa-4.0",
	"cc-by-nc-nd-4.0": "cc-by-nc-nd-4.0",
	"cc-by-3.0":       "cc-by-3.0",
	"cc-by-sa-3.0":    "cc-by-sa-3.0",
	"cc-by-2.0":       "cc-by-2.0",
	"cc-zero":         "cc0-1.0",
	"cc0-1.0":         "cc0-1.0",
	"mit-license":     "mit",
	"mit":             "mit",
	"apache2.0":       "apache-2.0",
	"apache-2.0":      "apache-2.0",
	"bsd-license":     "bsd-3-clause",
	"bsd-3-clause":    "bsd-3-clause",
	"bsd-2-clause":    "bsd-2-clause",
	"gpl-3.0":         "gpl-3.0-only",
	"gpl-2.0":         "gpl-2.0-only",
	"lgpl-3.0":        "lgpl-3.0-only",
	"agpl-3.0":        "agpl-3.0-only",
	"mpl-2.0":         "mpl-2.0",
	"epl-2.0":         "epl-2.0",
	"odc-by":          "odc-by-1.0",
	"odc-odbl":        "odbl-1.0",
	"odc-pddl":        "pddl-1.0",
	"eupl-1.2":        "eupl-1.2",
}

// legacyLicenseID reads the license id out of a plain string, `{"id": ...}` or `{"$ref": ".../licenses/<id>"}`.
func legacyLicenseID(value any) string {
	switch castedValue := value.(type) {
	case string:
		return strings.TrimSpace(castedValue)
	case map[string]any:
		if id := str(castedValue, "id"); id != "" {
			return id
		}
		ref := str(castedValue, "$ref")
		if idx := strings.LastIndex(ref, "/"); idx >= 0 {
			return ref[idx+1:]
		}
		return ref
	default:
		return ""
	}
}

// License maps a legacy license. Licenses missing from the vocabulary are kept as a free text title.
func License(value any) map[string]any {
	id := legacyLicenseID(value)
	if id == "" {
		return nil
	}

	if license, isOk := legacyLicenses[strings.ToLower(id)]; isOk {
		return map[string]any{"id": license}
	}
	return map[string]any{"title": map[string]any{"en": id}}
}
