package entries

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDateInterval(t *testing.T) {
	type _tc struct {
		start    string
		end      string
		expected string
	}

	tcs := []_tc{
		{start: "2018-03-21", end: "2018-03-21", expected: "2018-03-21"},
		{start: "2018-03-21", end: "2018-03-25", expected: "2018-03-21/2018-03-25"},
		{start: "2018-03-21", expected: "2018-03-21"},
		{end: "2018-03-25", expected: "2018-03-25"},
		{start: " 2018-03-21 ", end: "2018-03-21", expected: "2018-03-21"},
		{expected: ""},
	}

	for _, tc := range tcs {
		assert.Equal(t, tc.expected, DateInterval(tc.start, tc.end), tc)
	}
}

func TestDates(t *testing.T) {
	dates := Dates(map[string]any{
		"dates": []any{
			map[string]any{"start": "2018-03-21", "end": "2018-03-21", "type": "Collected"},
			map[string]any{"start": "2018-03-21", "end": "2018-03-25", "type": "Valid", "description": "campaign"},
			map[string]any{"type": "Other"},
		},
	})
	assert.Equal(t, []any{
		map[string]any{"date": "2018-03-21", "type": map[string]any{"id": "collected"}},
		map[string]any{"date": "2018-03-21/2018-03-25", "type": map[string]any{"id": "valid"}, "description": "campaign"},
	}, dates)
}

func TestIdentifier(t *testing.T) {
	{
		// Explicit schemes are kept as is.
		identifier, err := Identifier(map[string]any{"identifier": "1234", "scheme": "PMID"})
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"identifier": "1234", "scheme": "pmid"}, identifier)
	}
	{
		// Missing schemes are detected.
		identifier, err := Identifier(map[string]any{"identifier": "978-0-306-40615-7"})
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"identifier": "978-0-306-40615-7", "scheme": "isbn"}, identifier)
	}
	{
		identifier, err := Identifier(map[string]any{"identifier": "https://doi.org/10.1234/abc"})
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"identifier": "10.1234/abc", "scheme": "doi"}, identifier)
	}
	{
		// Nothing to map.
		identifier, err := Identifier(map[string]any{"scheme": "doi"})
		assert.NoError(t, err)
		assert.Nil(t, identifier)
	}
	{
		_, err := Identifier(map[string]any{"identifier": "foo bar"})
		assert.Equal(t, InvalidIdentifierError{Identifier: "foo bar"}, err)
	}
	{
		_, err := AlternateIdentifiers(map[string]any{"alternate_identifiers": []any{map[string]any{"identifier": "???"}}})
		assert.ErrorAs(t, err, &InvalidIdentifierError{})
	}
}

func TestResourceType(t *testing.T) {
	assert.Equal(t, map[string]any{"id": "publication-article"}, ResourceType(map[string]any{"type": "publication", "subtype": "article"}))
	assert.Equal(t, map[string]any{"id": "dataset"}, ResourceType(map[string]any{"type": "dataset"}))
	assert.Equal(t, map[string]any{"id": "image-photo"}, ResourceType("image-photo"))
	assert.Nil(t, ResourceType(map[string]any{"subtype": "article"}))
	assert.Nil(t, ResourceType(nil))

	assert.Equal(t, map[string]any{"id": "publication-article"}, RecordResourceType(map[string]any{"upload_type": "publication", "publication_type": "article"}))
	assert.Equal(t, map[string]any{"id": "image-figure"}, RecordResourceType(map[string]any{"upload_type": "image", "image_type": "figure"}))
	assert.Equal(t, map[string]any{"id": "software"}, RecordResourceType(map[string]any{"upload_type": "software"}))
}

func TestFunding(t *testing.T) {
	assert.Equal(t, "00k4n6c32", FunderROR("10.13039/501100000780"))
	assert.Equal(t, "10.13039/123", FunderROR("10.13039/123"))

	funding := Funding(map[string]any{
		"grants": []any{
			map[string]any{"$ref": "https://zenodo.org/api/grants/10.13039/100000001::1234"},
			map[string]any{"id": "10.13039/123::abc"},
			map[string]any{"id": "10.13039/501100000780"},
			map[string]any{},
		},
	})
	assert.Equal(t, []any{
		map[string]any{"funder": map[string]any{"id": "021nxhr62"}, "award": map[string]any{"id": "021nxhr62::1234"}},
		map[string]any{"funder": map[string]any{"id": "10.13039/123"}, "award": map[string]any{"id": "10.13039/123::abc"}},
		map[string]any{"funder": map[string]any{"id": "00k4n6c32"}},
	}, funding)
}

func TestLicense(t *testing.T) {
	type _tc struct {
		name     string
		value    any
		expected map[string]any
	}

	tcs := []_tc{
		{name: "string", value: "CC-BY-4.0", expected: map[string]any{"id": "cc-by-4.0"}},
		{name: "id", value: map[string]any{"id": "cc-zero"}, expected: map[string]any{"id": "cc0-1.0"}},
		{name: "ref", value: map[string]any{"$ref": "https://dx.zenodo.org/licenses/MIT-license"}, expected: map[string]any{"id": "mit"}},
		{name: "unknown", value: "other-open", expected: map[string]any{"title": map[string]any{"en": "other-open"}}},
		{name: "empty", value: "", expected: nil},
		{name: "nil", value: nil, expected: nil},
	}

	for _, tc := range tcs {
		assert.Equal(t, tc.expected, License(tc.value), tc.name)
	}
}

func TestCommunities(t *testing.T) {
	assert.Nil(t, Communities(map[string]any{}))
	assert.Nil(t, Communities(map[string]any{"communities": []any{}}))
	assert.Equal(t, map[string]any{"ids": []any{"zenodo", "ecfunded"}, "default": "zenodo"},
		Communities(map[string]any{"communities": []any{"zenodo", "ecfunded"}}))
}

func TestPerson(t *testing.T) {
	assert.Nil(t, Person(map[string]any{"affiliation": "CERN"}))
	assert.Equal(t, map[string]any{
		"person_or_org": map[string]any{
			"type":        "personal",
			"name":        "Doe, Jane",
			"family_name": "Doe",
			"given_name":  "Jane",
			"identifiers": []any{map[string]any{"scheme": "orcid", "identifier": "0000-0002-1825-0097"}},
		},
	}, Person(map[string]any{"name": "Doe, Jane", "orcid": "https://orcid.org/0000-0002-1825-0097"}))

	contributors := Contributors(map[string]any{
		"thesis": map[string]any{"supervisors": []any{map[string]any{"name": "Prof. X"}}},
	})
	assert.Equal(t, []any{map[string]any{
		"person_or_org": map[string]any{"type": "personal", "name": "Prof. X", "family_name": "Prof. X"},
		"role":          map[string]any{"id": "supervisor"},
	}}, contributors)
}

func TestIsLocalDOI(t *testing.T) {
	assert.True(t, IsLocalDOI("10.5281/zenodo.123", "10.5281/zenodo"))
	assert.True(t, IsLocalDOI("10.5281/ZENODO.123", "10.5281/zenodo"))
	assert.False(t, IsLocalDOI("10.1234/foo", "10.5281/zenodo"))
	assert.False(t, IsLocalDOI("", "10.5281/zenodo"))
	assert.False(t, IsLocalDOI("10.5281/zenodo.1", ""))
}

func TestCompact(t *testing.T) {
	assert.Nil(t, compactMap(map[string]any{"a": nil, "b": "", "c": map[string]any{"d": []any{}}}))
	assert.Equal(t, map[string]any{"a": false, "b": 0, "c": []any{"x"}},
		compactMap(map[string]any{"a": false, "b": 0, "c": []any{"", "x", nil}}))
}
