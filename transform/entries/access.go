package entries

const (
	AccessOpen       = "open"
	AccessEmbargoed  = "embargoed"
	AccessRestricted = "restricted"
	AccessClosed     = "closed"
)

// Access maps the legacy `access_right` onto record and files visibility. Metadata always stays public.
func Access(legacy map[string]any) map[string]any {
	access := map[string]any{
		"record":  "public",
		"files":   "public",
		"embargo": map[string]any{"active": false},
	}

	switch str(legacy, "access_right") {
	case AccessEmbargoed:
		access["files"] = "restricted"
		access["embargo"] = compactMap(map[string]any{
			"active": true,
			"until":  str(legacy, "embargo_date"),
		})
	case AccessRestricted, AccessClosed:
		access["files"] = "restricted"
	}

	return access
}

// ParentAccess holds the owner and, for restricted records, the conditions users accept when requesting access.
func ParentAccess(legacy map[string]any) map[string]any {
	access := map[string]any{}
	if owner := Owner(legacy); owner != "" {
		access["owned_by"] = map[string]any{"user": owner}
	}

	if str(legacy, "access_right") == AccessRestricted {
		access["settings"] = compactMap(map[string]any{
			"allow_user_requests":    true,
			"accept_conditions_text": str(legacy, "access_conditions"),
		})
	}

	return compactMap(access)
}

// Owner returns the first owner of the record, taken from `owners` or the deposit's `_deposit.owners`.
func Owner(legacy map[string]any) string {
	if owners := strs(legacy, "owners"); len(owners) > 0 {
		return owners[0]
	}

	deposit := obj(legacy, "_deposit")
	if owners := strs(deposit, "owners"); len(owners) > 0 {
		return owners[0]
	}
	return str(deposit, "created_by")
}
