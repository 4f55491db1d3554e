package timeutil

import (
	"fmt"
	"time"

	"github.com/zenodo/rdm-migrator/lib/cdc"
)

// ISOLayout is how timestamps are written to the target database: naive UTC with microseconds.
const ISOLayout = "2006-01-02T15:04:05.000000"

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func ParseExact(value string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		// If the value is parsed successfully and the parsed value is the same as the original value, return the parsed value.
		parsed, err := time.Parse(layout, value)
		if err == nil && parsed.Format(layout) == value {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("failed to parse exact time value: %q", value)
}

// Parse reads timestamp columns as emitted by Debezium: epoch micro or milliseconds, or a formatted string.
func Parse(value any) (time.Time, error) {
	switch castedValue := value.(type) {
	case time.Time:
		return castedValue.UTC(), nil
	case string:
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, castedValue); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("failed to parse time value: %q", castedValue)
	}

	epoch, isOk := cdc.Int64(value)
	if !isOk {
		return time.Time{}, fmt.Errorf("unexpected time value type: %T", value)
	}

	switch {
	case epoch > 1e17 || epoch < -1e17:
		// io.debezium.time.NanoTimestamp
		return time.Unix(0, epoch).UTC(), nil
	case epoch > 1e14 || epoch < -1e14:
		// io.debezium.time.MicroTimestamp
		return time.UnixMicro(epoch).UTC(), nil
	default:
		// io.debezium.time.Timestamp
		return time.UnixMilli(epoch).UTC(), nil
	}
}

// ToISO normalizes a timestamp column into [ISOLayout]. nil stays nil.
func ToISO(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	parsed, err := Parse(value)
	if err != nil {
		return nil, err
	}
	return parsed.Format(ISOLayout), nil
}

// NormalizeColumns rewrites the given timestamp columns of a row in place, skipping absent ones.
func NormalizeColumns(row map[string]any, columns ...string) error {
	for _, column := range columns {
		value, isOk := row[column]
		if !isOk {
			continue
		}

		normalized, err := ToISO(value)
		if err != nil {
			return fmt.Errorf("failed to normalize column %q: %w", column, err)
		}
		row[column] = normalized
	}
	return nil
}
