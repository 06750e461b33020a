package store

import (
	"fmt"
	"strings"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }
func (d *SQLiteDialect) NeedsBoolFix() bool { return true }

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &sqliteParamBuilder{}
}

func (d *SQLiteDialect) InExpr(field string, pb ParamBuilder, values []any) string {
	if len(values) == 0 {
		return "1=0" // always false
	}
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = pb.Add(v)
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(phs, ", "))
}

func (d *SQLiteDialect) SchemaSQL() []string {
	// SQLite permits NULL in TEXT primary keys unless NOT NULL is explicit,
	// so spell it out to keep key semantics identical to PostgreSQL.
	return []string{
		`CREATE TABLE IF NOT EXISTS people (
    id         TEXT PRIMARY KEY NOT NULL,
    first_name TEXT,
    last_name  TEXT,
    email      TEXT,
    address    TEXT
)`,
		`CREATE TABLE IF NOT EXISTS sales_reps (
    id   TEXT PRIMARY KEY NOT NULL,
    name TEXT NOT NULL UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS clients (
    id           TEXT PRIMARY KEY NOT NULL,
    company      TEXT,
    name         TEXT,
    address      TEXT,
    email        TEXT,
    phone        TEXT,
    sales_rep_id TEXT REFERENCES sales_reps(id)
)`,
		`CREATE TABLE IF NOT EXISTS contact_permissions (
    client_id TEXT PRIMARY KEY NOT NULL REFERENCES clients(id),
    can_call  INTEGER NOT NULL DEFAULT 0,
    can_email INTEGER NOT NULL DEFAULT 0
)`,
	}
}

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	case strings.Contains(errStr, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
	}
	return err
}

// Compile-time check
var _ Dialect = (*SQLiteDialect)(nil)
