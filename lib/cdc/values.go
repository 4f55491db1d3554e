package cdc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// String formats scalar column values, numbers included, as strings.
func String(value any) (string, bool) {
	switch castedValue := value.(type) {
	case string:
		return castedValue, true
	case json.Number:
		return castedValue.String(), true
	case int:
		return strconv.Itoa(castedValue), true
	case int32:
		return strconv.FormatInt(int64(castedValue), 10), true
	case int64:
		return strconv.FormatInt(castedValue, 10), true
	case float64:
		return strconv.FormatFloat(castedValue, 'f', -1, 64), true
	default:
		return "", false
	}
}

func Int64(value any) (int64, bool) {
	switch castedValue := value.(type) {
	case json.Number:
		parsed, err := castedValue.Int64()
		return parsed, err == nil
	case int:
		return int64(castedValue), true
	case int32:
		return int64(castedValue), true
	case int64:
		return castedValue, true
	case float64:
		return int64(castedValue), castedValue == float64(int64(castedValue))
	case string:
		parsed, err := strconv.ParseInt(castedValue, 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func Float64(value any) (float64, bool) {
	switch castedValue := value.(type) {
	case json.Number:
		parsed, err := castedValue.Float64()
		return parsed, err == nil
	case float64:
		return castedValue, true
	case int:
		return float64(castedValue), true
	case int64:
		return float64(castedValue), true
	case string:
		parsed, err := strconv.ParseFloat(castedValue, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func Bool(value any) (bool, bool) {
	switch castedValue := value.(type) {
	case bool:
		return castedValue, true
	case string:
		parsed, err := strconv.ParseBool(castedValue)
		return parsed, err == nil
	default:
		return false, false
	}
}

// JSONColumn decodes a json/jsonb column. Debezium emits these as strings, already decoded values are passed through.
func JSONColumn(value any) (map[string]any, error) {
	switch castedValue := value.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return castedValue, nil
	case string:
		if castedValue == "" {
			return nil, nil
		}

		var decoded map[string]any
		if err := newDecoder([]byte(castedValue)).Decode(&decoded); err != nil {
			return nil, fmt.Errorf("failed to decode json column: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unexpected json column type: %T", value)
	}
}

// JSONValue is like [JSONColumn] for columns that may hold arrays or scalars.
func JSONValue(value any) (any, error) {
	castedValue, isOk := value.(string)
	if !isOk {
		return value, nil
	}

	var decoded any
	if err := newDecoder([]byte(castedValue)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode json column: %w", err)
	}
	return decoded, nil
}
