package source

import (
	"context"
	"errors"
	"net/netip"
)

// ErrUnavailable is returned for interfaces that do not exist or carry no
// address.
var ErrUnavailable = errors.New("interface unavailable")

type Family int

const (
	IPv4 Family = iota
	IPv6
)

func (f Family) String() string {
	if f == IPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// InterfaceInfo is a point-in-time view of the addresses bound to an interface.
// Either address may be invalid (unset).
type InterfaceInfo struct {
	V4 netip.Addr
	V6 netip.Addr
}

// Address returns the address of the given family and whether one is bound.
func (i InterfaceInfo) Address(f Family) (netip.Addr, bool) {
	addr := i.V4
	if f == IPv6 {
		addr = i.V6
	}
	return addr, addr.IsValid()
}

func (i InterfaceInfo) HasIP() bool {
	return i.V4.IsValid() || i.V6.IsValid()
}

// Source reads the current address snapshot of a named interface.
type Source interface {
	Snapshot(ctx context.Context, name string) (InterfaceInfo, error)
}
