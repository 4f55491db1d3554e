package timeutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseExact(t *testing.T) {
	{
		// Bad
		layouts := []string{time.TimeOnly}
		_, err := ParseExact("2021-01-01", layouts)
		assert.Error(t, err)
	}
	{
		// Expected
		layouts := []string{time.DateOnly}
		_, err := ParseExact("2021-01-01", layouts)
		assert.NoError(t, err)
	}
}

func TestToISO(t *testing.T) {
	type _tc struct {
		name     string
		value    any
		expected any
	}

	tcs := []_tc{
		{name: "nil", value: nil, expected: nil},
		{name: "micro seconds", value: json.Number("1689340123456789"), expected: "2023-07-14T13:08:43.456789"},
		{name: "milli seconds", value: int64(1689340123456), expected: "2023-07-14T13:08:43.456000"},
		{name: "nano seconds", value: int64(1689340123456789000), expected: "2023-07-14T13:08:43.456789"},
		{name: "iso string", value: "2023-07-14T13:08:43.456789", expected: "2023-07-14T13:08:43.456789"},
		{name: "space separated", value: "2023-07-14 13:08:43", expected: "2023-07-14T13:08:43.000000"},
		{name: "rfc3339 with offset", value: "2023-07-14T15:08:43+02:00", expected: "2023-07-14T13:08:43.000000"},
		{name: "date", value: "2023-07-14", expected: "2023-07-14T00:00:00.000000"},
	}

	for _, tc := range tcs {
		actual, err := ToISO(tc.value)
		assert.NoError(t, err, tc.name)
		assert.Equal(t, tc.expected, actual, tc.name)
	}

	_, err := ToISO("yesterday")
	assert.ErrorContains(t, err, `failed to parse time value: "yesterday"`)

	_, err = ToISO(true)
	assert.ErrorContains(t, err, "unexpected time value type: bool")
}

func TestNormalizeColumns(t *testing.T) {
	row := map[string]any{"created": json.Number("1689340123456789"), "updated": nil, "title": "foo"}
	assert.NoError(t, NormalizeColumns(row, "created", "updated", "expires_at"))
	assert.Equal(t, map[string]any{"created": "2023-07-14T13:08:43.456789", "updated": nil, "title": "foo"}, row)

	assert.ErrorContains(t, NormalizeColumns(map[string]any{"created": "nope"}, "created"), `failed to normalize column "created"`)
}
