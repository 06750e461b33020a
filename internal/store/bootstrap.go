package store

import (
	"context"
	"fmt"
)

// Bootstrap creates the synchronization tables if they do not exist.
// There is no further migration machinery; the schema is fixed.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, stmt := range s.Dialect.SchemaSQL() {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
