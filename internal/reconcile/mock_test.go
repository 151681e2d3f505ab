package reconcile

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/evanofslack/cfdns/internal/history"
	"github.com/evanofslack/cfdns/internal/provider"
	"github.com/evanofslack/cfdns/internal/source"
)

type MockProvider struct {
	Token   string
	Zones   []provider.Zone
	Records map[string][]provider.Record // by zone id

	FindErr   error
	CreateErr map[string]error // by record name
	UpdateErr map[string]error // by record name
	// FindOverride is returned by FindRecord instead of the stored record.
	FindOverride *provider.Record

	ZoneLookups int
	Lookups     int
	Creates     []provider.Record
	Updates     []provider.Record
	nextID      int
}

func (m *MockProvider) Writes() int {
	return len(m.Creates) + len(m.Updates)
}

func (m *MockProvider) Calls() int {
	return m.ZoneLookups + m.Lookups + m.Writes()
}

func (m *MockProvider) FindZoneByName(ctx context.Context, name string) (*provider.Zone, error) {
	m.ZoneLookups++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for _, z := range m.Zones {
		if z.Name == name {
			zone := z
			return &zone, nil
		}
	}
	return nil, nil
}

func (m *MockProvider) FindRecord(ctx context.Context, zoneID, name string, recordType provider.RecordType) (*provider.Record, error) {
	m.Lookups++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if m.FindOverride != nil {
		r := *m.FindOverride
		return &r, nil
	}
	for _, r := range m.Records[zoneID] {
		if r.Name == name && r.Type == recordType {
			record := r
			return &record, nil
		}
	}
	return nil, nil
}

func (m *MockProvider) FindRecordByName(ctx context.Context, zoneID, name string) (*provider.Record, error) {
	m.Lookups++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for _, r := range m.Records[zoneID] {
		if r.Name == name {
			record := r
			return &record, nil
		}
	}
	return nil, nil
}

func (m *MockProvider) CreateRecord(ctx context.Context, zoneID string, record provider.Record) (provider.Record, error) {
	if record.Resolved() {
		return provider.Record{}, provider.ErrHasID
	}
	m.Creates = append(m.Creates, record)
	if err := m.CreateErr[record.Name]; err != nil {
		return provider.Record{}, err
	}
	m.nextID++
	record.ID = fmt.Sprintf("rec-%d", m.nextID)
	record.ZoneID = zoneID
	if m.Records == nil {
		m.Records = map[string][]provider.Record{}
	}
	m.Records[zoneID] = append(m.Records[zoneID], record)
	return record, nil
}

func (m *MockProvider) UpdateRecord(ctx context.Context, zoneID string, record provider.Record) (provider.Record, error) {
	if !record.Resolved() {
		return provider.Record{}, provider.ErrMissingID
	}
	m.Updates = append(m.Updates, record)
	if err := m.UpdateErr[record.Name]; err != nil {
		return provider.Record{}, err
	}
	for i, r := range m.Records[zoneID] {
		if r.ID == record.ID {
			m.Records[zoneID][i] = record
		}
	}
	return record, nil
}

// MockFactory hands out one MockProvider per token and counts constructions.
type MockFactory struct {
	Providers map[string]*MockProvider
	Err       error
	Built     int
}

func (f *MockFactory) New(token string) (provider.Provider, error) {
	f.Built++
	if f.Err != nil {
		return nil, f.Err
	}
	p, ok := f.Providers[token]
	if !ok {
		return nil, fmt.Errorf("unknown token %q", token)
	}
	return p, nil
}

type MockSource struct {
	Interfaces map[string]source.InterfaceInfo
	Calls      int
}

func (m *MockSource) Snapshot(ctx context.Context, name string) (source.InterfaceInfo, error) {
	m.Calls++
	info, ok := m.Interfaces[name]
	if !ok {
		return source.InterfaceInfo{}, fmt.Errorf("interface '%s' not found: %w", name, source.ErrUnavailable)
	}
	return info, nil
}

type MockJournal struct {
	Events []history.Event
}

func (m *MockJournal) Append(ctx context.Context, event history.Event) error {
	m.Events = append(m.Events, event)
	return nil
}

func v4(s string) source.InterfaceInfo {
	return source.InterfaceInfo{V4: netip.MustParseAddr(s)}
}

func dual(a, b string) source.InterfaceInfo {
	return source.InterfaceInfo{V4: netip.MustParseAddr(a), V6: netip.MustParseAddr(b)}
}
