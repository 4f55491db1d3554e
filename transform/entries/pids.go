package entries

import (
	"strings"
)

// IsLocalDOI returns true if the DOI was minted under the given prefix.
func IsLocalDOI(doi, prefix string) bool {
	doi, prefix = strings.ToLower(strings.TrimSpace(doi)), strings.ToLower(strings.TrimSpace(prefix))
	return doi != "" && prefix != "" && strings.HasPrefix(doi, prefix)
}

func doiPID(doi, prefix string) map[string]any {
	if doi == "" {
		return nil
	}
	if IsLocalDOI(doi, prefix) {
		return map[string]any{"identifier": doi, "provider": "datacite", "client": "datacite"}
	}
	return map[string]any{"identifier": doi, "provider": "external"}
}

// PIDs maps the record DOI and OAI identifier.
func PIDs(legacy map[string]any, doiPrefix string) map[string]any {
	pids := map[string]any{
		"doi": doiPID(str(legacy, "doi"), doiPrefix),
	}
	if oai := str(obj(legacy, "_oai"), "id"); oai != "" {
		pids["oai"] = map[string]any{"identifier": oai, "provider": "oai"}
	}
	return compactMap(pids)
}

// ParentPIDs maps the concept DOI. Only locally minted concept DOIs are carried over.
func ParentPIDs(legacy map[string]any, doiPrefix string) map[string]any {
	conceptDOI := str(legacy, "conceptdoi")
	if !IsLocalDOI(conceptDOI, doiPrefix) {
		return nil
	}
	return map[string]any{"doi": doiPID(conceptDOI, doiPrefix)}
}

// Communities turns the legacy community slugs into `{ids, default}`, the first slug being the default.
func Communities(legacy map[string]any) map[string]any {
	slugs := strs(legacy, "communities")
	if len(slugs) == 0 {
		return nil
	}

	ids := make([]any, len(slugs))
	for i, slug := range slugs {
		ids[i] = slug
	}
	return map[string]any{"ids": ids, "default": slugs[0]}
}
