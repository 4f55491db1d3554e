package entries

import (
	"slices"
)

const DefaultPublisher = "Zenodo"

// Metadata maps the descriptive part of a legacy record. Absent legacy fields are left out of the result.
func Metadata(legacy map[string]any) (map[string]any, error) {
	identifiers, err := AlternateIdentifiers(legacy)
	if err != nil {
		return nil, err
	}

	relatedIdentifiers, err := RelatedIdentifiers(legacy)
	if err != nil {
		return nil, err
	}

	publisher := str(obj(legacy, "imprint"), "publisher")
	if publisher == "" {
		publisher = DefaultPublisher
	}

	var rights []any
	if license := License(legacy["license"]); license != nil {
		rights = append(rights, license)
	}

	var languages []any
	if language := str(legacy, "language"); language != "" {
		languages = append(languages, vocabulary(language))
	}

	return compactMap(map[string]any{
		"title":                   str(legacy, "title"),
		"description":             str(legacy, "description"),
		"publication_date":        str(legacy, "publication_date"),
		"version":                 str(legacy, "version"),
		"publisher":               publisher,
		"resource_type":           RecordResourceType(legacy),
		"creators":                Creators(legacy),
		"contributors":            Contributors(legacy),
		"rights":                  rights,
		"subjects":                Subjects(legacy),
		"languages":               languages,
		"dates":                   Dates(legacy),
		"identifiers":             identifiers,
		"related_identifiers":     relatedIdentifiers,
		"references":              References(legacy),
		"locations":               Locations(legacy),
		"funding":                 Funding(legacy),
		"additional_descriptions": AdditionalDescriptions(legacy),
	}), nil
}

// Subjects merges free keywords and controlled subject terms, dropping duplicates.
func Subjects(legacy map[string]any) []any {
	var seen []string
	var out []any
	add := func(subject string) {
		if subject == "" || slices.Contains(seen, subject) {
			return
		}
		seen = append(seen, subject)
		out = append(out, map[string]any{"subject": subject})
	}

	for _, keyword := range strs(legacy, "keywords") {
		add(keyword)
	}
	for _, entry := range objects(legacy, "subjects") {
		add(str(entry, "term"))
	}
	return out
}

func References(legacy map[string]any) []any {
	var out []any
	for _, entry := range objects(legacy, "references") {
		if reference := str(entry, "raw_reference"); reference != "" {
			out = append(out, map[string]any{"reference": reference})
		}
	}
	return out
}

func AdditionalDescriptions(legacy map[string]any) []any {
	var out []any
	if notes := str(legacy, "notes"); notes != "" {
		out = append(out, map[string]any{"description": notes, "type": vocabulary("notes")})
	}
	if method := str(legacy, "method"); method != "" {
		out = append(out, map[string]any{"description": method, "type": vocabulary("methods")})
	}
	return out
}
