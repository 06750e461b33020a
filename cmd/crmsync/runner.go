package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"crmsync/internal/config"
	"crmsync/internal/mockapi"
	"crmsync/internal/report"
	"crmsync/internal/source"
	"crmsync/internal/store"
	"crmsync/internal/sync"
)

// Runner holds the dependencies shared by all CLI commands.
type Runner struct {
	cfg    *config.Config
	logger *log.Logger
}

func NewRunner(cfg *config.Config, logger *log.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "sync",
			Usage:  "Fetch people and clients from the API, upsert them, then reconcile permissions",
			Action: r.Sync,
		},
		{
			Name:   "reconcile",
			Usage:  "Reconcile contact permissions from the CSV file only",
			Action: r.Reconcile,
		},
		{
			Name:  "report",
			Usage: "Write the client/permission spreadsheet",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "filter",
					Usage: "Boolean expression over joined rows, e.g. 'can_call && company != \"\"'",
				},
				&cli.StringFlag{
					Name:  "out",
					Usage: "Output path (defaults to paths.report_file)",
				},
			},
			Action: r.Report,
		},
		{
			Name:  "serve",
			Usage: "Run the fixture record API for local development",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "addr",
					Value: ":8080",
					Usage: "Listen address",
				},
			},
			Action: r.Serve,
		},
	}
}

// Sync runs the full pipeline. An authentication failure is fatal before
// any writes; batch failures are contained per page inside the driver; a
// reconciliation failure is logged without partial application. The
// command exits normally even when pages were skipped.
func (r *Runner) Sync(ctx context.Context, _ *cli.Command) error {
	st, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	client := source.NewClient(r.cfg.API, nil)
	if err := client.Authenticate(ctx); err != nil {
		return err
	}
	r.logger.Info("authenticated against record API", "base_url", r.cfg.API.BaseURL)

	driver := sync.NewDriver(client, st, r.logger, r.cfg.Sync, r.cfg.Paths.SampleDir)
	for _, res := range driver.SyncAll(ctx) {
		r.logger.Info("resource synchronized",
			"resource", res.Resource,
			"pages", res.Pages,
			"failed_pages", res.FailedPages,
			"records", res.Records)
	}

	if err := r.reconcile(ctx, st); err != nil {
		r.logger.Error("reconciliation rolled back", "err", err)
	}
	return nil
}

// Reconcile runs only the permission reconciliation step.
func (r *Runner) Reconcile(ctx context.Context, _ *cli.Command) error {
	st, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return r.reconcile(ctx, st)
}

func (r *Runner) reconcile(ctx context.Context, st *store.Store) error {
	path := r.cfg.Paths.PermissionsFile
	records, err := sync.ReadPermissionsFile(path)
	if err != nil {
		return err
	}
	if err := sync.ReconcilePermissions(ctx, st, records); err != nil {
		return err
	}
	r.logger.Info("permissions reconciled", "file", path, "records", len(records))
	return nil
}

// Report writes the joined spreadsheet, optionally filtered.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := report.JoinedRows(ctx, st)
	if err != nil {
		return err
	}
	rows, err = report.FilterRows(rows, cmd.String("filter"))
	if err != nil {
		return err
	}

	out := cmd.String("out")
	if out == "" {
		out = r.cfg.Paths.ReportFile
	}
	if err := report.WriteXLSX(out, rows); err != nil {
		return err
	}
	r.logger.Info("report written", "path", out, "rows", len(rows))
	return nil
}

// Serve runs the fixture API with the configured credentials.
func (r *Runner) Serve(_ context.Context, cmd *cli.Command) error {
	srv, err := mockapi.New(r.cfg.API.Username, r.cfg.API.Password)
	if err != nil {
		return err
	}
	addr := cmd.String("addr")
	r.logger.Info("fixture API listening", "addr", addr)
	return srv.Listen(addr)
}

func (r *Runner) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.New(ctx, r.cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := st.Bootstrap(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
