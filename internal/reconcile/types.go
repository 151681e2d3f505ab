package reconcile

import (
	"context"
	"time"

	"github.com/evanofslack/cfdns/internal/history"
	"github.com/evanofslack/cfdns/internal/metrics"
	"github.com/evanofslack/cfdns/internal/provider"
	"github.com/evanofslack/cfdns/internal/source"
)

// Interface is the network interface a watcher publishes.
type Interface struct {
	Name     string
	Interval time.Duration
	Info     source.InterfaceInfo
}

// Journal records write attempts. Reconciliation never reads it back.
type Journal interface {
	Append(ctx context.Context, event history.Event) error
}

type Options struct {
	Metrics *metrics.Metrics
	Journal Journal
	DryRun  bool
}

// Results of one reconcile pass. Records are copies; mutating them does not
// affect the watcher.
type Results struct {
	Interface string
	Created   []provider.Record
	Updated   []provider.Record
	Unchanged []provider.Record
	Skipped   []provider.Record
	Failures  []OperationResult
}

type OperationResult struct {
	Zone   string
	Record provider.Record
	Op     string
	Err    error
}

func (r Results) Changed() int {
	return len(r.Created) + len(r.Updated)
}
