package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/evanofslack/cfdns/internal/history"
	"github.com/evanofslack/cfdns/internal/metrics"
	"github.com/evanofslack/cfdns/internal/provider"
	"github.com/evanofslack/cfdns/internal/source"
)

// Watcher keeps the records of one interface in sync for one API token.
// A watcher is not safe for concurrent use; each daemon worker owns one.
type Watcher struct {
	Token     string
	Interface Interface
	Zones     []provider.Zone

	client  provider.Provider
	source  source.Source
	metrics *metrics.Metrics
	journal Journal
	dryRun  bool
}

func NewWatcher(iface Interface, token string, client provider.Provider, src source.Source, opts Options) *Watcher {
	m := opts.Metrics
	if m == nil {
		m = metrics.New(false)
	}
	return &Watcher{
		Token:     token,
		Interface: iface,
		client:    client,
		source:    src,
		metrics:   m,
		journal:   opts.Journal,
		dryRun:    opts.DryRun,
	}
}

// Placeholder reports whether the watcher has nothing to sync. Placeholders
// exist so the interface still shows up in status output.
func (w *Watcher) Placeholder() bool {
	return w.client == nil || w.RecordCount() == 0
}

func (w *Watcher) RecordCount() int {
	n := 0
	for _, z := range w.Zones {
		n += len(z.Records)
	}
	return n
}

// KeepRecords drops every record whose name does not match name, which may
// be relative to its zone. It reports whether any record is left.
func (w *Watcher) KeepRecords(name string) bool {
	zones := w.Zones[:0]
	for _, zone := range w.Zones {
		want := provider.QualifyName(name, zone.Name)
		records := zone.Records[:0]
		for _, r := range zone.Records {
			if r.Name == want {
				records = append(records, r)
			}
		}
		zone.Records = records
		if len(zone.Records) > 0 {
			zones = append(zones, zone)
		}
	}
	w.Zones = zones
	return len(w.Zones) > 0
}

// Reconcile runs one pass over every record of the watcher. Per-record
// failures are collected in Results; the returned error is set only when the
// pass could not start.
func (w *Watcher) Reconcile(ctx context.Context) (Results, error) {
	start := time.Now()
	name := w.Interface.Name
	slog.Info("Checking for updates", "interface", name)

	info, err := w.source.Snapshot(ctx, name)
	if err != nil {
		w.metrics.IncSyncRun(name, false)
		return Results{Interface: name}, fmt.Errorf("load interface %s: %w", name, err)
	}
	w.Interface.Info = info

	results := Results{Interface: name}
	for zi := range w.Zones {
		zone := &w.Zones[zi]
		for ri := range zone.Records {
			if err := ctx.Err(); err != nil {
				w.metrics.IncSyncRun(name, false)
				return results, err
			}
			w.reconcileRecord(ctx, zone, &zone.Records[ri], &results)
		}
	}

	w.metrics.IncSyncRun(name, len(results.Failures) == 0)
	w.metrics.ObserveSyncDuration(name, time.Since(start))
	slog.Info("Sync complete", "interface", name,
		"created", len(results.Created),
		"updated", len(results.Updated),
		"unchanged", len(results.Unchanged),
		"skipped", len(results.Skipped),
		"failed", len(results.Failures),
		"duration", time.Since(start))
	return results, nil
}

func (w *Watcher) reconcileRecord(ctx context.Context, zone *provider.Zone, record *provider.Record, results *Results) {
	recordType := record.Type.String()
	family, ok := familyOf(record.Type)
	if !ok {
		w.fail(zone, *record, "update", fmt.Errorf("%w: %s", provider.ErrUnsupportedType, record.Type), results)
		return
	}

	addr, ok := w.Interface.Info.Address(family)
	if !ok {
		slog.Warn("No interface address for record type, skipping", "interface", w.Interface.Name, "name", record.Name, "type", recordType)
		w.metrics.IncDNSOperation("skip", zone.Name, recordType)
		results.Skipped = append(results.Skipped, *record)
		return
	}

	if !record.Resolved() {
		slog.Debug("Looking up record", "zone", zone.Name, "name", record.Name, "type", recordType)
		found, err := w.client.FindRecord(ctx, zone.ID, record.Name, record.Type)
		if err != nil {
			w.fail(zone, *record, "lookup", err, results)
			return
		}
		w.metrics.IncDNSOperation("lookup", zone.Name, recordType)
		if found != nil {
			slog.Info("Found existing record", "zone", zone.Name, "name", found.Name, "type", found.Type, "data", found.Content)
			*record = *found
		} else {
			slog.Info("No existing record", "zone", zone.Name, "name", record.Name, "type", recordType)
		}
	}

	// Writes go through a staged copy so a rejected write leaves the local
	// record as it was and the next pass tries again.
	staged := *record
	changed, err := staged.Apply(addr)
	if err != nil {
		w.fail(zone, *record, "update", err, results)
		return
	}

	if record.Resolved() {
		if !changed {
			slog.Debug("Record up to date", "zone", zone.Name, "name", record.Name, "type", recordType)
			w.metrics.IncDNSOperation("noop", zone.Name, recordType)
			w.metrics.SetRecordInSync(zone.Name, record.Name, recordType, true)
			results.Unchanged = append(results.Unchanged, *record)
			return
		}
		w.write(ctx, zone, record, staged, "update", results)
		return
	}
	w.write(ctx, zone, record, staged, "create", results)
}

func (w *Watcher) write(ctx context.Context, zone *provider.Zone, record *provider.Record, staged provider.Record, op string, results *Results) {
	recordType := record.Type.String()
	if w.dryRun {
		slog.Info("Dry run mode - would "+op+" record", "zone", zone.Name, "name", staged.Name, "type", recordType, "data", staged.Content)
		w.appendResult(op, staged, results)
		return
	}

	var (
		written provider.Record
		err     error
	)
	if op == "create" {
		written, err = w.client.CreateRecord(ctx, zone.ID, staged)
	} else {
		written, err = w.client.UpdateRecord(ctx, zone.ID, staged)
	}
	w.journalWrite(ctx, zone, *record, staged, written, op, err)
	if err != nil {
		w.fail(zone, *record, op, err, results)
		return
	}

	slog.Info("Synced record", "op", op, "zone", zone.Name, "name", written.Name, "type", written.Type, "data", written.Content)
	*record = written
	w.metrics.IncDNSOperation(op, zone.Name, recordType)
	w.metrics.SetRecordInSync(zone.Name, record.Name, recordType, true)
	w.appendResult(op, written, results)
}

func (w *Watcher) appendResult(op string, record provider.Record, results *Results) {
	if op == "create" {
		results.Created = append(results.Created, record)
	} else {
		results.Updated = append(results.Updated, record)
	}
}

func (w *Watcher) fail(zone *provider.Zone, record provider.Record, op string, err error, results *Results) {
	slog.Error("Failed to sync record", "op", op, "zone", zone.Name, "name", record.Name, "type", record.Type, "error", err)
	w.metrics.IncDNSOperation("fail", zone.Name, record.Type.String())
	w.metrics.SetRecordInSync(zone.Name, record.Name, record.Type.String(), false)
	results.Failures = append(results.Failures, OperationResult{
		Zone:   zone.Name,
		Record: record,
		Op:     op,
		Err:    err,
	})
}

func (w *Watcher) journalWrite(ctx context.Context, zone *provider.Zone, before, staged, written provider.Record, op string, err error) {
	if w.journal == nil {
		return
	}
	event := history.Event{
		Interface: w.Interface.Name,
		Zone:      zone.Name,
		Name:      staged.Name,
		Type:      staged.Type.String(),
		Op:        op,
		RecordID:  written.ID,
		New:       staged.Content.String(),
		Success:   err == nil,
	}
	if op == "update" {
		event.RecordID = staged.ID
		event.Old = before.Content.String()
	}
	if err != nil {
		event.Error = err.Error()
	}
	if jerr := w.journal.Append(ctx, event); jerr != nil {
		slog.Warn("Failed to append history event", "name", staged.Name, "error", jerr)
	}
}

func familyOf(t provider.RecordType) (source.Family, bool) {
	switch t {
	case provider.TypeA:
		return source.IPv4, true
	case provider.TypeAAAA:
		return source.IPv6, true
	}
	return 0, false
}

// desiredContent is the content a record of type t should hold for info.
func desiredContent(t provider.RecordType, info source.InterfaceInfo) (netip.Addr, bool) {
	family, ok := familyOf(t)
	if !ok {
		return netip.Addr{}, false
	}
	return info.Address(family)
}
