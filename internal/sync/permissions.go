package sync

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"crmsync/internal/store"
)

// truthyTokens are the accepted spellings of "true" in permission files,
// compared case-insensitively after trimming.
var truthyTokens = map[string]struct{}{
	"1": {}, "true": {}, "yes": {}, "y": {},
}

// PermissionRecord is one row of the authoritative contact-permission file.
type PermissionRecord struct {
	ClientID string
	CanCall  bool
	CanEmail bool
}

// ParseFlag reports whether a raw permission flag value is truthy.
// Anything outside the accepted token set, including the empty string,
// is false.
func ParseFlag(raw string) bool {
	_, ok := truthyTokens[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// ReadPermissionsFile reads the whole permission CSV into memory.
// The file must have a header row naming at least id, can_call and
// can_email columns. Rows with an empty id are skipped silently.
func ReadPermissionsFile(path string) ([]PermissionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open permissions file: %w", err)
	}
	defer f.Close()
	return readPermissions(f)
}

func readPermissions(r io.Reader) ([]PermissionRecord, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read permissions header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	idIdx, ok := col["id"]
	if !ok {
		return nil, fmt.Errorf("permissions file missing id column")
	}
	callIdx, hasCall := col["can_call"]
	emailIdx, hasEmail := col["can_email"]

	var records []PermissionRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read permissions row: %w", err)
		}

		id := strings.TrimSpace(field(row, idIdx))
		if id == "" {
			continue
		}

		rec := PermissionRecord{ClientID: id}
		if hasCall {
			rec.CanCall = ParseFlag(field(row, callIdx))
		}
		if hasEmail {
			rec.CanEmail = ParseFlag(field(row, emailIdx))
		}
		records = append(records, rec)
	}
	return records, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ReconcilePermissions overwrites or creates one permission row per
// client id in records, as a single atomic batch. Unlike the paginated
// upserts, a failure rolls back the whole file: the input is bounded,
// not a resumable stream.
func ReconcilePermissions(ctx context.Context, st *store.Store, records []PermissionRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		rows[i] = map[string]any{
			"client_id": rec.ClientID,
			"can_call":  rec.CanCall,
			"can_email": rec.CanEmail,
		}
	}

	return st.WithTx(ctx, func(tx *sql.Tx) error {
		return UpsertBatch(ctx, tx, st.Dialect,
			"contact_permissions", "client_id",
			[]string{"can_call", "can_email"}, rows)
	})
}
