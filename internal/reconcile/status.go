package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/evanofslack/cfdns/internal/provider"
	"github.com/evanofslack/cfdns/internal/source"
)

type SyncStatus string

const (
	StatusUpToDate        SyncStatus = "up-to-date"
	StatusOutOfSync       SyncStatus = "out-of-sync"
	StatusTypeMismatch    SyncStatus = "type-mismatch"
	StatusMissingUpstream SyncStatus = "missing-upstream"
	StatusError           SyncStatus = "error"
)

type UnitState string

const (
	UnitDisabled  UnitState = "disabled"
	UnitSynced    UnitState = "synced"
	UnitOutOfSync UnitState = "out-of-sync"
	UnitFailed    UnitState = "failed"
)

type RecordStatus struct {
	Name  string
	Type  provider.RecordType
	Local provider.Content

	// Upstream is only meaningful when Found is set.
	Found        bool
	Upstream     provider.Content
	UpstreamType provider.RecordType

	Proxied bool
	TTL     provider.TTL
	Status  SyncStatus
	Err     error
}

type ZoneStatus struct {
	Name    string
	Records []RecordStatus
}

// UnitStatus is a read-only view of a watcher and the upstream state of its
// records.
type UnitStatus struct {
	Interface string
	Interval  time.Duration
	Info      source.InterfaceInfo
	State     UnitState
	Zones     []ZoneStatus
}

// Status compares every record with the provider without writing anything.
// It must not run concurrently with Reconcile on the same watcher.
func (w *Watcher) Status(ctx context.Context) UnitStatus {
	info := w.Interface.Info
	if w.source != nil {
		if fresh, err := w.source.Snapshot(ctx, w.Interface.Name); err != nil {
			slog.Warn("Failed to refresh interface, using last known addresses", "interface", w.Interface.Name, "error", err)
		} else {
			info = fresh
		}
	}

	status := UnitStatus{
		Interface: w.Interface.Name,
		Interval:  w.Interface.Interval,
		Info:      info,
		State:     UnitDisabled,
	}
	if w.Placeholder() {
		return status
	}

	status.State = UnitSynced
	for _, zone := range w.Zones {
		zs := ZoneStatus{Name: zone.Name}
		for _, record := range zone.Records {
			rs := w.recordStatus(ctx, zone, record, info)
			switch rs.Status {
			case StatusError:
				status.State = UnitFailed
			case StatusUpToDate:
			default:
				if status.State != UnitFailed {
					status.State = UnitOutOfSync
				}
			}
			zs.Records = append(zs.Records, rs)
		}
		status.Zones = append(status.Zones, zs)
	}
	return status
}

func (w *Watcher) recordStatus(ctx context.Context, zone provider.Zone, record provider.Record, info source.InterfaceInfo) RecordStatus {
	rs := RecordStatus{
		Name:    record.Name,
		Type:    record.Type,
		Local:   record.Content,
		Proxied: record.Proxied,
		TTL:     record.TTL,
		Status:  StatusMissingUpstream,
	}
	if addr, ok := desiredContent(record.Type, info); ok {
		rs.Local = provider.ContentFromAddr(addr)
	}

	upstream, err := w.client.FindRecord(ctx, zone.ID, record.Name, record.Type)
	if err == nil && upstream == nil {
		// Fall back to any type so a conflicting record is visible.
		upstream, err = w.client.FindRecordByName(ctx, zone.ID, record.Name)
	}
	if err != nil {
		rs.Status = StatusError
		rs.Err = err
		return rs
	}
	if upstream == nil {
		w.metrics.SetRecordInSync(zone.Name, record.Name, record.Type.String(), false)
		return rs
	}

	rs.Found = true
	rs.Upstream = upstream.Content
	rs.UpstreamType = upstream.Type
	rs.Proxied = upstream.Proxied
	rs.TTL = upstream.TTL
	switch {
	case upstream.Type != record.Type:
		rs.Status = StatusTypeMismatch
	case upstream.Content.Equal(rs.Local):
		rs.Status = StatusUpToDate
	default:
		rs.Status = StatusOutOfSync
	}
	w.metrics.SetRecordInSync(zone.Name, record.Name, record.Type.String(), rs.Status == StatusUpToDate)
	return rs
}
