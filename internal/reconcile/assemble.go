package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evanofslack/cfdns/internal/config"
	"github.com/evanofslack/cfdns/internal/provider"
	"github.com/evanofslack/cfdns/internal/source"
)

// Assembler groups configured records into watchers: one per interface and
// API token, plus a placeholder for interfaces without records.
type Assembler struct {
	NewClient provider.Factory
	Source    source.Source
	Options   Options
}

type resolvedZone struct {
	token string
	zone  provider.Zone
}

// Assemble resolves zones and interface addresses and builds the watchers.
// Any error aborts assembly; partial results are never returned.
func (a *Assembler) Assemble(ctx context.Context, cfg *config.Config) ([]*Watcher, error) {
	names := zoneNames(cfg)
	for _, name := range names {
		if cfg.Zone(name) == nil {
			return nil, configErrorf("reference to undefined zone '%s'", name)
		}
	}

	zones, err := a.resolveZones(ctx, cfg, names)
	if err != nil {
		return nil, err
	}

	watchers := []*Watcher{}
	for _, ic := range cfg.Interfaces {
		iface, err := a.loadInterface(ctx, ic)
		if err != nil {
			return nil, err
		}

		// Watchers for this interface in order of first use of their token.
		byToken := map[string]*Watcher{}
		ordered := []*Watcher{}
		for _, rc := range cfg.Records {
			if rc.Interface != ic.Name {
				continue
			}
			resolved := zones[rc.Zone]
			record, err := synthesize(rc, resolved.zone, iface.Info)
			if err != nil {
				return nil, err
			}

			w, ok := byToken[resolved.token]
			if !ok {
				client, err := a.NewClient(resolved.token)
				if err != nil {
					return nil, fmt.Errorf("create client for zone %s: %w", rc.Zone, err)
				}
				w = NewWatcher(iface, resolved.token, client, a.Source, a.Options)
				byToken[resolved.token] = w
				ordered = append(ordered, w)
			}
			w.addRecord(resolved.zone, record)
		}

		if len(ordered) == 0 {
			slog.Debug("No records bound to interface", "interface", ic.Name)
			ordered = append(ordered, NewWatcher(iface, "", nil, a.Source, a.Options))
		}
		watchers = append(watchers, ordered...)
	}

	slog.Debug("Assembled watchers", "count", len(watchers))
	return watchers, nil
}

// zoneNames lists every zone referenced by a record or declared, in order of
// first appearance.
func zoneNames(cfg *config.Config) []string {
	seen := map[string]bool{}
	names := []string{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, r := range cfg.Records {
		add(r.Zone)
	}
	for _, z := range cfg.Zones {
		add(z.Name)
	}
	return names
}

func (a *Assembler) resolveZones(ctx context.Context, cfg *config.Config, names []string) (map[string]resolvedZone, error) {
	// Clients used only for zone lookups, shared per token.
	clients := map[string]provider.Provider{}
	zones := make(map[string]resolvedZone, len(names))

	for _, name := range names {
		zc := cfg.Zone(name)
		if zc.ID != "" {
			zones[name] = resolvedZone{token: zc.Token, zone: provider.Zone{ID: zc.ID, Name: name}}
			continue
		}

		client, ok := clients[zc.Token]
		if !ok {
			var err error
			client, err = a.NewClient(zc.Token)
			if err != nil {
				return nil, fmt.Errorf("create client for zone %s: %w", name, err)
			}
			clients[zc.Token] = client
		}

		zone, err := client.FindZoneByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("look up zone %s: %w", name, err)
		}
		if zone == nil {
			return nil, configErrorf("no active zone named '%s'", name)
		}
		slog.Debug("Resolved zone", "zone", name, "id", zone.ID)
		zones[name] = resolvedZone{token: zc.Token, zone: provider.Zone{ID: zone.ID, Name: name}}
	}
	return zones, nil
}

func (a *Assembler) loadInterface(ctx context.Context, ic config.Interface) (Interface, error) {
	info, err := a.Source.Snapshot(ctx, ic.Name)
	if err != nil {
		return Interface{}, &ConfigError{Msg: fmt.Sprintf("unable to load interface '%s'", ic.Name), Err: err}
	}
	return Interface{Name: ic.Name, Interval: ic.Period(), Info: info}, nil
}

func synthesize(rc config.Record, zone provider.Zone, info source.InterfaceInfo) (provider.Record, error) {
	recordType := provider.ParseRecordType(rc.Type)
	addr, ok := desiredContent(recordType, info)
	if !ok {
		if !recordType.Managed() {
			return provider.Record{}, &ConfigError{Msg: fmt.Sprintf("record '%s'", rc.Name), Err: provider.ErrUnsupportedType}
		}
		return provider.Record{}, configErrorf("interface '%s' has no address for %s record '%s'", rc.Interface, recordType, rc.Name)
	}
	return provider.Record{
		ZoneID:  zone.ID,
		Name:    provider.QualifyName(rc.Name, zone.Name),
		Type:    recordType,
		Content: provider.ContentFromAddr(addr),
		Proxied: rc.Proxied,
		TTL:     provider.TTLFromSeconds(rc.TTL),
	}, nil
}

// addRecord appends record to the watcher's copy of zone.
func (w *Watcher) addRecord(zone provider.Zone, record provider.Record) {
	for i := range w.Zones {
		if w.Zones[i].Name == zone.Name {
			w.Zones[i].Records = append(w.Zones[i].Records, record)
			return
		}
	}
	z := zone.Clone()
	z.Records = append(z.Records, record)
	w.Zones = append(w.Zones, z)
}
