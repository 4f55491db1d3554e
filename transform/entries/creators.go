package entries

import (
	"strings"

	"github.com/zenodo/rdm-migrator/lib/idutils"
)

// Person maps a legacy creator or contributor. `Family, Given` names are split, anything else is kept as the family name.
func Person(entry map[string]any) map[string]any {
	name := str(entry, "name")
	if name == "" {
		return nil
	}

	personOrOrg := map[string]any{
		"type": "personal",
		"name": name,
	}
	if family, given, isOk := strings.Cut(name, ","); isOk {
		personOrOrg["family_name"] = strings.TrimSpace(family)
		personOrOrg["given_name"] = strings.TrimSpace(given)
	} else {
		personOrOrg["family_name"] = name
	}

	var identifiers []any
	if orcid := str(entry, "orcid"); orcid != "" {
		identifiers = append(identifiers, map[string]any{"scheme": "orcid", "identifier": idutils.Normalize(idutils.ORCID, orcid)})
	}
	if gnd := str(entry, "gnd"); gnd != "" {
		identifiers = append(identifiers, map[string]any{"scheme": "gnd", "identifier": idutils.Normalize(idutils.GND, gnd)})
	}
	personOrOrg["identifiers"] = identifiers

	var affiliations []any
	if affiliation := str(entry, "affiliation"); affiliation != "" {
		affiliations = append(affiliations, map[string]any{"name": affiliation})
	}

	return compactMap(map[string]any{
		"person_or_org": personOrOrg,
		"affiliations":  affiliations,
	})
}

func Creators(legacy map[string]any) []any {
	var out []any
	for _, entry := range objects(legacy, "creators") {
		if creator := Person(entry); creator != nil {
			out = append(out, creator)
		}
	}
	return out
}

// Contributors maps the legacy contributors, with their `type` as role, followed by the thesis supervisors.
func Contributors(legacy map[string]any) []any {
	var out []any
	for _, entry := range objects(legacy, "contributors") {
		if contributor := Person(entry); contributor != nil {
			if role := strings.ToLower(str(entry, "type")); role != "" {
				contributor["role"] = vocabulary(role)
			}
			out = append(out, contributor)
		}
	}

	for _, entry := range objects(obj(legacy, "thesis"), "supervisors") {
		if supervisor := Person(entry); supervisor != nil {
			supervisor["role"] = vocabulary("supervisor")
			out = append(out, supervisor)
		}
	}
	return out
}
