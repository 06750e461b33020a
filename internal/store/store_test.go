package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"crmsync/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Name:   "store_test",
		Path:   t.TempDir(),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestBootstrap_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}

	for _, table := range []string{"people", "clients", "sales_reps", "contact_permissions"} {
		if _, err := QueryRows(ctx, s.DB, "SELECT * FROM "+table); err != nil {
			t.Fatalf("table %s missing after bootstrap: %v", table, err)
		}
	}
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := Exec(ctx, tx, "INSERT INTO sales_reps (id, name) VALUES (?1, ?2)", "r1", "Jim")
		return err
	})
	if err != nil {
		t.Fatalf("committing tx: %v", err)
	}

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := Exec(ctx, tx, "INSERT INTO sales_reps (id, name) VALUES (?1, ?2)", "r2", "Pam"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	rows, err := QueryRows(ctx, s.DB, "SELECT id FROM sales_reps")
	if err != nil {
		t.Fatalf("read reps: %v", err)
	}
	if len(rows) != 1 || rows[0]["id"] != "r1" {
		t.Fatalf("expected only committed row r1, got %v", rows)
	}
}

func TestMapError_Sentinels(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	if _, err := Exec(ctx, s.DB, "INSERT INTO sales_reps (id, name) VALUES (?1, ?2)", "r1", "Jim"); err != nil {
		t.Fatalf("seed rep: %v", err)
	}

	_, err := Exec(ctx, s.DB, "INSERT INTO sales_reps (id, name) VALUES (?1, ?2)", "r2", "Jim")
	if !errors.Is(MapError(s.Dialect, err), ErrUniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	_, err = Exec(ctx, s.DB, "INSERT INTO contact_permissions (client_id) VALUES (?1)", "ghost")
	if !errors.Is(MapError(s.Dialect, err), ErrForeignKeyViolation) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}
}

func TestQueryRow_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	_, err := QueryRow(ctx, s.DB, "SELECT * FROM people WHERE id = ?1", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNormalizeBooleans(t *testing.T) {
	rows := []map[string]any{
		{"can_call": int64(1), "can_email": int64(0), "name": int64(5)},
	}
	NormalizeBooleans(rows, []string{"can_call", "can_email"})
	if rows[0]["can_call"] != true || rows[0]["can_email"] != false {
		t.Fatalf("booleans not normalized: %#v", rows[0])
	}
	if rows[0]["name"] != int64(5) {
		t.Fatalf("unlisted field changed: %#v", rows[0])
	}
}
