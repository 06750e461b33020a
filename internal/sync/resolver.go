package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"crmsync/internal/store"
)

// ResolveSalesReps maps every non-absent sales_rep name in the client
// batch to a stable representative id, creating rows for previously
// unseen names. It must run on the same transaction as the client upsert
// that consumes the mapping: newly created reps are visible to that
// upsert and roll back with it.
//
// Duplicate names within the batch resolve to a single representative.
// The unique constraint on sales_reps.name keeps the name→id mapping
// stable across runs.
func ResolveSalesReps(ctx context.Context, q store.Querier, dialect store.Dialect,
	clients []map[string]any) (map[string]string, error) {

	nameSet := make(map[string]struct{})
	for _, client := range clients {
		if name, ok := client["sales_rep"].(string); ok && name != "" {
			nameSet[name] = struct{}{}
		}
	}
	if len(nameSet) == 0 {
		return map[string]string{}, nil
	}

	names := make([]any, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].(string) < names[j].(string) })

	pb := dialect.NewParamBuilder()
	inExpr := dialect.InExpr("name", pb, names)
	rows, err := store.QueryRows(ctx, q,
		fmt.Sprintf("SELECT id, name FROM sales_reps WHERE %s", inExpr),
		pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("select sales reps: %w", err)
	}

	lookup := make(map[string]string, len(nameSet))
	for _, row := range rows {
		lookup[row["name"].(string)] = row["id"].(string)
	}

	var pending []map[string]any
	for _, name := range names {
		n := name.(string)
		if _, exists := lookup[n]; exists {
			continue
		}
		id := uuid.NewString()
		pending = append(pending, map[string]any{"id": id, "name": n})
		lookup[n] = id
	}

	if len(pending) > 0 {
		pb := dialect.NewParamBuilder()
		tuples := make([]string, len(pending))
		for i, rep := range pending {
			tuples[i] = fmt.Sprintf("(%s, %s)", pb.Add(rep["id"]), pb.Add(rep["name"]))
		}
		sqlStr := fmt.Sprintf("INSERT INTO sales_reps (id, name) VALUES %s",
			strings.Join(tuples, ", "))
		if _, err := q.ExecContext(ctx, sqlStr, pb.Params()...); err != nil {
			return nil, fmt.Errorf("insert sales reps: %w", store.MapError(dialect, err))
		}
	}

	return lookup, nil
}
