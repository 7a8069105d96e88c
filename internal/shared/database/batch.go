package database

import (
	"context"
	"fmt"
	"strings"
)

// batchSize is the fixed arity for multi-VALUES inserts; fixed-size
// batches keep the number of distinct prepared statements small.
const batchSize = 50

// InsertBatch inserts rows into table with a multi-VALUES statement,
// splitting into fixed-size batches. Every row must have len(columns)
// values.
func InsertBatch(ctx context.Context, exec Executor, table string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	placeholderRow := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]interface{}, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if len(row) != len(columns) {
				return fmt.Errorf("batch insert into %s: row has %d values, want %d", table, len(row), len(columns))
			}
			placeholders[i] = placeholderRow
			args = append(args, row...)
		}

		query := prefix + strings.Join(placeholders, ", ")
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("batch insert into %s: %w", table, err)
		}
	}

	return nil
}

// InClause builds an IN (?,?,…) fragment and its argument slice for a
// set of integer ids.
func InClause(ids []int64) (string, []interface{}) {
	if len(ids) == 0 {
		return "(NULL)", nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")", args
}
