package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"crmsync/internal/config"
	"crmsync/internal/store"
)

// RecordSource yields pages of raw records for a named resource. An empty
// page terminates the resource's stream.
type RecordSource interface {
	FetchPage(ctx context.Context, resource string, limit, offset int) ([]map[string]any, error)
}

// ResourceResult summarizes one resource's synchronization run.
type ResourceResult struct {
	Resource    string
	Pages       int // pages committed
	FailedPages int // pages rolled back and skipped
	Records     int // records in committed pages
}

// Driver orchestrates pagination, batch transaction boundaries, and
// partial-failure containment. One page is in flight at a time; each page
// is one transaction; a failed page is rolled back, logged, and skipped
// (no retry). The offset advances after every attempt, so a persistently
// failing page never stalls the run.
type Driver struct {
	source    RecordSource
	store     *store.Store
	logger    *log.Logger
	pageSize  int
	maxRecs   int
	sampleDir string
	sentinels []string
}

func NewDriver(src RecordSource, st *store.Store, logger *log.Logger,
	syncCfg config.SyncConfig, sampleDir string) *Driver {
	return &Driver{
		source:    src,
		store:     st,
		logger:    logger,
		pageSize:  syncCfg.PageSize,
		maxRecs:   syncCfg.MaxRecords,
		sampleDir: sampleDir,
		sentinels: DefaultSentinels,
	}
}

// SyncAll synchronizes people, then clients. A fetch failure aborts the
// affected resource but the remaining resources are still attempted; batch
// write failures are contained per page and never abort anything.
func (d *Driver) SyncAll(ctx context.Context) []ResourceResult {
	results := make([]ResourceResult, 0, 2)

	res, err := d.syncResource(ctx, "people", d.applyPeople)
	if err != nil {
		d.logger.Error("resource aborted", "resource", "people", "err", err)
	}
	results = append(results, res)

	res, err = d.syncResource(ctx, "clients", d.applyClients)
	if err != nil {
		d.logger.Error("resource aborted", "resource", "clients", "err", err)
	}
	results = append(results, res)

	return results
}

type applyFunc func(ctx context.Context, tx *sql.Tx, batch []map[string]any) error

func (d *Driver) syncResource(ctx context.Context, resource string, apply applyFunc) (ResourceResult, error) {
	result := ResourceResult{Resource: resource}
	sampleSaved := false

	for offset := 0; offset < d.maxRecs; offset += d.pageSize {
		page, err := d.source.FetchPage(ctx, resource, d.pageSize, offset)
		if err != nil {
			return result, fmt.Errorf("fetch %s at offset %d: %w", resource, offset, err)
		}
		if len(page) == 0 {
			break
		}

		if !sampleSaved {
			if err := d.saveSample(resource, page); err != nil {
				d.logger.Warn("sample artifact not written", "resource", resource, "err", err)
			}
			sampleSaved = true
		}

		batch := Normalize(page, d.sentinels)

		err = d.store.WithTx(ctx, func(tx *sql.Tx) error {
			return apply(ctx, tx, batch)
		})
		if err != nil {
			d.logger.Error("batch failed, skipping page",
				"resource", resource, "offset", offset, "err", err)
			result.FailedPages++
			continue
		}

		d.logger.Info("batch committed",
			"resource", resource, "offset", offset, "records", len(batch))
		result.Pages++
		result.Records += len(batch)
	}

	return result, nil
}

func (d *Driver) applyPeople(ctx context.Context, tx *sql.Tx, batch []map[string]any) error {
	rows := make([]map[string]any, len(batch))
	for i, rec := range batch {
		rows[i] = map[string]any{
			"id":         rec["id"],
			"first_name": rec["first_name"],
			"last_name":  rec["last_name"],
			"email":      rec["email"],
			"address":    rec["address"],
		}
	}
	return UpsertBatch(ctx, tx, d.store.Dialect, "people", "id",
		[]string{"first_name", "last_name", "email", "address"}, rows)
}

func (d *Driver) applyClients(ctx context.Context, tx *sql.Tx, batch []map[string]any) error {
	repIDs, err := ResolveSalesReps(ctx, tx, d.store.Dialect, batch)
	if err != nil {
		return err
	}

	rows := make([]map[string]any, len(batch))
	for i, rec := range batch {
		var repID any
		if name, ok := rec["sales_rep"].(string); ok {
			if id, found := repIDs[name]; found {
				repID = id
			}
		}
		rows[i] = map[string]any{
			"id":           rec["id"],
			"company":      rec["company"],
			"name":         rec["name"],
			"address":      rec["address"],
			"email":        rec["email"],
			"phone":        rec["phone"],
			"sales_rep_id": repID,
		}
	}
	if err := UpsertBatch(ctx, tx, d.store.Dialect, "clients", "id",
		[]string{"company", "name", "address", "email", "phone", "sales_rep_id"}, rows); err != nil {
		return err
	}

	// Newly seen clients get a default-false permission row; existing rows
	// are left for the reconciliation step to overwrite.
	var perms []map[string]any
	for _, rec := range batch {
		id, ok := rec["id"].(string)
		if !ok || id == "" {
			continue
		}
		perms = append(perms, map[string]any{
			"client_id": id,
			"can_call":  false,
			"can_email": false,
		})
	}
	return InsertIgnoreBatch(ctx, tx, d.store.Dialect, "contact_permissions", "client_id",
		[]string{"can_call", "can_email"}, perms)
}

// saveSample persists the first non-empty page verbatim for operator
// inspection. Failure to write it never fails the batch.
func (d *Driver) saveSample(resource string, page []map[string]any) error {
	if err := os.MkdirAll(d.sampleDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(d.sampleDir, resource+"_sample.json")
	return os.WriteFile(path, data, 0o644)
}
