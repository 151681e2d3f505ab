package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/evanofslack/cfdns/internal/reconcile"
)

// Select applies the interface and record filters once, before scheduling.
// Empty filters match everything. Watchers left without records are dropped.
func Select(watchers []*reconcile.Watcher, iface, record string) []*reconcile.Watcher {
	selected := []*reconcile.Watcher{}
	for _, w := range watchers {
		if iface != "" && w.Interface.Name != iface {
			continue
		}
		if record != "" && !w.KeepRecords(record) {
			continue
		}
		if w.Placeholder() {
			slog.Info("Skipping watcher, no records to sync", "interface", w.Interface.Name)
			continue
		}
		selected = append(selected, w)
	}
	return selected
}

// RunOnce reconciles each watcher in turn. A failed pass is logged and the
// remaining watchers still run; only cancellation stops the run early.
func RunOnce(ctx context.Context, watchers []*reconcile.Watcher) ([]reconcile.Results, error) {
	slog.Info("Performing a one-time sync", "watchers", len(watchers))
	all := make([]reconcile.Results, 0, len(watchers))
	for _, w := range watchers {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		results, err := w.Reconcile(ctx)
		if err != nil {
			slog.Error("Failed to reconcile", "interface", w.Interface.Name, "error", err)
		}
		all = append(all, results)
	}
	return all, nil
}

// RunDaemon runs one worker per watcher until ctx is done. Each worker
// reconciles, then sleeps for its interval. A panic in any worker stops the
// others and is re-raised from RunDaemon.
func RunDaemon(ctx context.Context, watchers []*reconcile.Watcher) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slog.Info("Starting daemon", "watchers", len(watchers))
	var wg conc.WaitGroup
	for _, w := range watchers {
		w := w
		slog.Info("Starting worker", "interface", w.Interface.Name, "interval", w.Interface.Interval)
		wg.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					cancel()
					panic(r)
				}
			}()
			run(ctx, w)
		})
	}
	wg.Wait()
	slog.Info("Daemon stopped")
}

func run(ctx context.Context, w *reconcile.Watcher) {
	for {
		if _, err := w.Reconcile(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Failed to reconcile", "interface", w.Interface.Name, "error", err)
		}

		timer := time.NewTimer(w.Interface.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Debug("Worker stopped", "interface", w.Interface.Name)
			return
		case <-timer.C:
		}
	}
}
