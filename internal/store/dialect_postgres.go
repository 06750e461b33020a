package store

import (
	"fmt"
	"strings"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }
func (d *PostgresDialect) NeedsBoolFix() bool { return false }

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &pgParamBuilder{}
}

func (d *PostgresDialect) InExpr(field string, pb ParamBuilder, values []any) string {
	ph := pb.Add(values)
	return fmt.Sprintf("%s = ANY(%s)", field, ph)
}

func (d *PostgresDialect) SchemaSQL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS people (
    id         TEXT PRIMARY KEY,
    first_name TEXT,
    last_name  TEXT,
    email      TEXT,
    address    TEXT
)`,
		`CREATE TABLE IF NOT EXISTS sales_reps (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS clients (
    id           TEXT PRIMARY KEY,
    company      TEXT,
    name         TEXT,
    address      TEXT,
    email        TEXT,
    phone        TEXT,
    sales_rep_id TEXT REFERENCES sales_reps(id)
)`,
		`CREATE TABLE IF NOT EXISTS contact_permissions (
    client_id TEXT PRIMARY KEY REFERENCES clients(id),
    can_call  BOOLEAN NOT NULL DEFAULT false,
    can_email BOOLEAN NOT NULL DEFAULT false
)`,
	}
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	// With pgx/stdlib the underlying error message includes the PG code.
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "23505"),
		strings.Contains(errStr, "duplicate key"):
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	case strings.Contains(errStr, "23503"),
		strings.Contains(errStr, "violates foreign key"):
		return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
	}
	return err
}

// Compile-time check
var _ Dialect = (*PostgresDialect)(nil)
