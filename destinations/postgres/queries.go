package postgres

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
)

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func sortedColumns(data map[string]any) []string {
	columns := make([]string, 0, len(data))
	for column := range data {
		columns = append(columns, column)
	}
	slices.Sort(columns)
	return columns
}

// value converts [json.Number], which the CDC decoder produces, into a Go number.
func value(v any) any {
	number, isOk := v.(json.Number)
	if !isOk {
		return v
	}

	if i, err := number.Int64(); err == nil {
		return i
	}
	if f, err := number.Float64(); err == nil {
		return f
	}
	return number.String()
}

func keyValues(table Table, data map[string]any) ([]any, error) {
	values := make([]any, len(table.Keys))
	for i, key := range table.Keys {
		v, isOk := data[key]
		if !isOk || v == nil {
			return nil, fmt.Errorf("key %q is missing for %q", key, table.Name)
		}
		values[i] = value(v)
	}
	return values, nil
}

func whereClause(keys []string, offset int) string {
	fragments := make([]string, len(keys))
	for i, key := range keys {
		fragments[i] = fmt.Sprintf("%s = $%d", quote(key), offset+i+1)
	}
	return strings.Join(fragments, " AND ")
}

// insertQuery leaves existing rows untouched so that replayed transactions are no-ops.
func insertQuery(table Table, data map[string]any) (string, []any, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("no columns to insert into %q", table.Name)
	}

	columns := sortedColumns(data)
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		quoted[i] = quote(column)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = value(data[column])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		quote(table.Name), strings.Join(quoted, ","), strings.Join(placeholders, ","))
	return query, args, nil
}

// updateQuery returns an empty query when only key columns are set.
func updateQuery(table Table, data map[string]any) (string, []any, error) {
	keys, err := keyValues(table, data)
	if err != nil {
		return "", nil, err
	}

	var assignments []string
	var args []any
	for _, column := range sortedColumns(data) {
		if slices.Contains(table.Keys, column) {
			continue
		}
		args = append(args, value(data[column]))
		assignments = append(assignments, fmt.Sprintf("%s = $%d", quote(column), len(args)))
	}

	if len(assignments) == 0 {
		return "", nil, nil
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		quote(table.Name), strings.Join(assignments, ", "), whereClause(table.Keys, len(args)))
	return query, append(args, keys...), nil
}

func deleteQuery(table Table, data map[string]any) (string, []any, error) {
	keys, err := keyValues(table, data)
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("DELETE FROM %s WHERE %s", quote(table.Name), whereClause(table.Keys, 0)), keys, nil
}
