package provider

import (
	"context"
	"fmt"
	"net/netip"
)

// Provider is a remote record store scoped to one credential.
//
// Lookups that match nothing return a nil result and a nil error; errors are
// reserved for transport failures and provider rejections.
type Provider interface {
	FindZoneByName(ctx context.Context, name string) (*Zone, error)
	FindRecord(ctx context.Context, zoneID, name string, recordType RecordType) (*Record, error)
	FindRecordByName(ctx context.Context, zoneID, name string) (*Record, error)
	CreateRecord(ctx context.Context, zoneID string, record Record) (Record, error)
	UpdateRecord(ctx context.Context, zoneID string, record Record) (Record, error)
}

// Factory builds a Provider bound to a credential.
type Factory func(token string) (Provider, error)

type Zone struct {
	ID      string
	Name    string
	Records []Record
}

// Clone returns a copy of the zone that shares no record storage with z.
func (z Zone) Clone() Zone {
	out := Zone{ID: z.ID, Name: z.Name}
	if len(z.Records) > 0 {
		out.Records = make([]Record, len(z.Records))
		copy(out.Records, z.Records)
	}
	return out
}

type Record struct {
	ID      string
	ZoneID  string
	Name    string
	Type    RecordType
	Content Content
	Proxied bool
	TTL     TTL
}

// Resolved reports whether the record has been matched to a remote record.
func (r *Record) Resolved() bool {
	return r.ID != ""
}

// Apply sets the record content to addr.
//
// It returns true when the content changed and false when it already held
// addr. An address whose family does not match the record type is rejected
// with ErrTypeMismatch and the record is left untouched.
func (r *Record) Apply(addr netip.Addr) (bool, error) {
	desired := ContentFromAddr(addr)
	if !r.Type.Accepts(desired) {
		return false, fmt.Errorf("%w: cannot apply %s to %s record %s", ErrTypeMismatch, addr, r.Type, r.Name)
	}
	if r.Content.Equal(desired) {
		return false, nil
	}
	r.Content = desired
	return true, nil
}

type RecordType string

const (
	TypeA    RecordType = "A"
	TypeAAAA RecordType = "AAAA"
)

// ParseRecordType maps provider type strings onto RecordType. Anything other
// than A and AAAA is kept verbatim and treated as unmanaged.
func ParseRecordType(s string) RecordType {
	return RecordType(s)
}

// Managed reports whether the type carries an interface address.
func (t RecordType) Managed() bool {
	return t == TypeA || t == TypeAAAA
}

// Accepts reports whether content has the shape required by the type.
func (t RecordType) Accepts(c Content) bool {
	switch t {
	case TypeA:
		return c.Kind() == KindIPv4
	case TypeAAAA:
		return c.Kind() == KindIPv6
	}
	return false
}

func (t RecordType) String() string {
	return string(t)
}
