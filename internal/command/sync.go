package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/evanofslack/cfdns/internal/history"
	"github.com/evanofslack/cfdns/internal/metrics"
	"github.com/evanofslack/cfdns/internal/reconcile"
	"github.com/evanofslack/cfdns/internal/scheduler"
)

type syncOptions struct {
	daemon bool
	iface  string
	record string
	dryRun bool
}

func newSyncCommand(a *app) *cobra.Command {
	opts := &syncOptions{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Update DNS records to match interface addresses",
		Long: "Reconcile every configured record once, or keep reconciling each interface " +
			"on its own interval with --daemon.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sync(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.daemon, "daemon", "d", false, "keep running and sync each interface on its interval")
	cmd.Flags().StringVarP(&opts.iface, "interface", "i", "", "only sync records bound to this interface")
	cmd.Flags().StringVarP(&opts.record, "record", "r", "", "only sync records with this name")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report changes without writing them")
	return cmd
}

func (a *app) sync(ctx context.Context, opts *syncOptions) error {
	cfg, err := a.load(ctx)
	if err != nil {
		return err
	}

	m := metrics.New(true)
	ropts := reconcile.Options{Metrics: m, DryRun: opts.dryRun}
	if cfg.History.Path != "" && !opts.dryRun {
		journal, err := history.New(cfg.History.Path, cfg.History.Retention, m)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer journal.Close()
		ropts.Journal = journal
	}

	watchers, err := a.assemble(ctx, cfg, ropts)
	if err != nil {
		return err
	}
	watchers = scheduler.Select(watchers, opts.iface, opts.record)
	if len(watchers) == 0 {
		slog.Warn("Nothing to sync")
		return nil
	}

	if !opts.daemon {
		results, err := scheduler.RunOnce(ctx, watchers)
		if werr := writeResults(a.out, results, opts.dryRun); werr != nil {
			return werr
		}
		return err
	}

	stop := serveMetrics(cfg.Metrics.Address, m)
	defer stop()
	scheduler.RunDaemon(ctx, watchers)
	return nil
}

// serveMetrics starts the metrics endpoint when an address is configured and
// returns a function that shuts it down.
func serveMetrics(address string, m *metrics.Metrics) func() {
	if address == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting metrics server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Metrics server shutdown failed", "error", err)
		}
	}
}

func writeResults(w io.Writer, results []reconcile.Results, dryRun bool) error {
	p := &printer{w: w}
	for _, r := range results {
		p.line("%s: created %d, updated %d, unchanged %d, skipped %d, failed %d",
			r.Interface, len(r.Created), len(r.Updated), len(r.Unchanged), len(r.Skipped), len(r.Failures))
		for _, rec := range r.Created {
			p.line("  + %s %s %s", rec.Name, rec.Type, rec.Content)
		}
		for _, rec := range r.Updated {
			p.line("  ~ %s %s %s", rec.Name, rec.Type, rec.Content)
		}
		for _, f := range r.Failures {
			p.line("  ! %s %s: %v", f.Record.Name, f.Record.Type, f.Err)
		}
	}
	if dryRun {
		p.line("dry run: no records were written")
	}
	return p.err
}
