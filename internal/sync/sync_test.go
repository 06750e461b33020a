package sync

import (
	"context"
	"testing"

	"crmsync/internal/config"
	"crmsync/internal/store"
)

// testStore opens a throwaway SQLite-backed store with the schema
// bootstrapped.
func testStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Name:   "crmsync_test",
		Path:   t.TempDir(),
	})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func countRows(t *testing.T, s *store.Store, table string) int {
	t.Helper()
	row, err := store.QueryRow(context.Background(), s.DB, "SELECT COUNT(*) AS n FROM "+table)
	if err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	n, ok := row["n"].(int64)
	if !ok {
		t.Fatalf("unexpected count type %T", row["n"])
	}
	return int(n)
}
