package entries

import (
	"fmt"
	"strings"

	"github.com/zenodo/rdm-migrator/lib/idutils"
)

// InvalidIdentifierError is returned when an identifier has no scheme and none can be detected.
type InvalidIdentifierError struct {
	Identifier string
}

func (e InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: unable to detect its scheme", e.Identifier)
}

// Identifier maps a legacy `{identifier, scheme}` pair, detecting the scheme when it is missing.
func Identifier(entry map[string]any) (map[string]any, error) {
	identifier := str(entry, "identifier")
	if identifier == "" {
		return nil, nil
	}

	scheme := idutils.Scheme(strings.ToLower(str(entry, "scheme")))
	if scheme == "" {
		detected, isOk := idutils.Detect(identifier)
		if !isOk {
			return nil, InvalidIdentifierError{Identifier: identifier}
		}
		scheme = detected
	}

	return map[string]any{
		"identifier": idutils.Normalize(scheme, identifier),
		"scheme":     string(scheme),
	}, nil
}

func AlternateIdentifiers(legacy map[string]any) ([]any, error) {
	var out []any
	for _, entry := range objects(legacy, "alternate_identifiers") {
		identifier, err := Identifier(entry)
		if err != nil {
			return nil, err
		}
		if identifier != nil {
			out = append(out, identifier)
		}
	}
	return out, nil
}

func RelatedIdentifiers(legacy map[string]any) ([]any, error) {
	var out []any
	for _, entry := range objects(legacy, "related_identifiers") {
		identifier, err := Identifier(entry)
		if err != nil {
			return nil, err
		}
		if identifier == nil {
			continue
		}

		identifier["relation_type"] = vocabulary(strings.ToLower(str(entry, "relation")))
		if resourceType := ResourceType(entry["resource_type"]); resourceType != nil {
			identifier["resource_type"] = resourceType
		}
		out = append(out, compactMap(identifier))
	}
	return out, nil
}

// ResourceType joins a legacy `{type, subtype}` pair into a single vocabulary id. Plain strings are already joined.
func ResourceType(value any) map[string]any {
	switch castedValue := value.(type) {
	case string:
		return vocabulary(strings.TrimSpace(castedValue))
	case map[string]any:
		return vocabulary(joinType(str(castedValue, "type"), str(castedValue, "subtype")))
	default:
		return nil
	}
}

// RecordResourceType reads the record level resource type, falling back to the deposit form fields.
func RecordResourceType(legacy map[string]any) map[string]any {
	if resourceType := ResourceType(legacy["resource_type"]); resourceType != nil {
		return resourceType
	}

	uploadType := str(legacy, "upload_type")
	switch uploadType {
	case "publication":
		return vocabulary(joinType(uploadType, str(legacy, "publication_type")))
	case "image":
		return vocabulary(joinType(uploadType, str(legacy, "image_type")))
	default:
		return vocabulary(uploadType)
	}
}

func joinType(kind, subtype string) string {
	if kind == "" {
		return ""
	}
	if subtype == "" {
		return kind
	}
	return kind + "-" + subtype
}
