package sync

import (
	"context"
	"fmt"
	"strings"

	"crmsync/internal/store"
)

// UpsertBatch writes a batch of rows to table in one set-oriented
// statement: rows whose key does not exist are inserted, existing rows
// have every non-key column overwritten with the incoming value
// (last-write-wins, whole-record granularity). The caller's transaction
// is the unit of atomicity. An empty batch is a no-op.
//
// Applying the same batch twice leaves the same stored state as applying
// it once.
func UpsertBatch(ctx context.Context, q store.Querier, dialect store.Dialect,
	table, keyColumn string, columns []string, rows []map[string]any) error {

	if len(rows) == 0 {
		return nil
	}

	all := append([]string{keyColumn}, columns...)
	pb := dialect.NewParamBuilder()

	valueTuples := make([]string, len(rows))
	for i, row := range rows {
		phs := make([]string, len(all))
		for j, col := range all {
			phs[j] = pb.Add(row[col])
		}
		valueTuples[i] = "(" + strings.Join(phs, ", ") + ")"
	}

	assignments := make([]string, len(columns))
	for i, col := range columns {
		assignments[i] = fmt.Sprintf("%s = excluded.%s", col, col)
	}

	sqlStr := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO UPDATE SET %s",
		table,
		strings.Join(all, ", "),
		strings.Join(valueTuples, ", "),
		keyColumn,
		strings.Join(assignments, ", "),
	)

	if _, err := q.ExecContext(ctx, sqlStr, pb.Params()...); err != nil {
		return fmt.Errorf("upsert %d rows into %s: %w", len(rows), table, store.MapError(dialect, err))
	}
	return nil
}

// InsertIgnoreBatch inserts rows, silently keeping existing rows untouched
// on key conflict. Used to seed default rows for newly seen entities.
func InsertIgnoreBatch(ctx context.Context, q store.Querier, dialect store.Dialect,
	table, keyColumn string, columns []string, rows []map[string]any) error {

	if len(rows) == 0 {
		return nil
	}

	all := append([]string{keyColumn}, columns...)
	pb := dialect.NewParamBuilder()

	valueTuples := make([]string, len(rows))
	for i, row := range rows {
		phs := make([]string, len(all))
		for j, col := range all {
			phs[j] = pb.Add(row[col])
		}
		valueTuples[i] = "(" + strings.Join(phs, ", ") + ")"
	}

	sqlStr := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO NOTHING",
		table,
		strings.Join(all, ", "),
		strings.Join(valueTuples, ", "),
		keyColumn,
	)

	if _, err := q.ExecContext(ctx, sqlStr, pb.Params()...); err != nil {
		return fmt.Errorf("insert %d rows into %s: %w", len(rows), table, store.MapError(dialect, err))
	}
	return nil
}
