package netif

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"

	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/evanofslack/cfdns/internal/source"
)

type Lister interface {
	InterfacesWithContext(ctx context.Context) (psnet.InterfaceStatList, error)
}

type systemLister struct{}

func (systemLister) InterfacesWithContext(ctx context.Context) (psnet.InterfaceStatList, error) {
	return psnet.InterfacesWithContext(ctx)
}

// Source reads interface addresses from the operating system.
type Source struct {
	lister Lister
}

func New() *Source {
	return &Source{lister: systemLister{}}
}

func (s *Source) Snapshot(ctx context.Context, name string) (source.InterfaceInfo, error) {
	interfaces, err := s.lister.InterfacesWithContext(ctx)
	if err != nil {
		return source.InterfaceInfo{}, fmt.Errorf("failed to list interfaces: %w", err)
	}

	for _, iface := range interfaces {
		if iface.Name != name {
			continue
		}
		info := extract(iface)
		if !info.HasIP() {
			return source.InterfaceInfo{}, fmt.Errorf("interface '%s' has no address: %w", name, source.ErrUnavailable)
		}
		slog.Debug("Read interface addresses", "interface", name, "ipv4", info.V4, "ipv6", info.V6)
		return info, nil
	}
	return source.InterfaceInfo{}, fmt.Errorf("interface '%s' not found: %w", name, source.ErrUnavailable)
}

// extract keeps the first IPv4 and the first globally usable IPv6 address.
func extract(iface psnet.InterfaceStat) source.InterfaceInfo {
	var info source.InterfaceInfo
	for _, a := range iface.Addrs {
		addr, ok := parseAddr(a.Addr)
		if !ok {
			continue
		}
		switch {
		case addr.Is4():
			if !info.V4.IsValid() {
				info.V4 = addr
			}
		case addr.IsLinkLocalUnicast():
			// fe80::/10 cannot be published
		default:
			if !info.V6.IsValid() {
				info.V6 = addr
			}
		}
	}
	return info
}

// gopsutil reports addresses in CIDR form.
func parseAddr(s string) (netip.Addr, bool) {
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return prefix.Addr().Unmap(), true
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.WithZone("").Unmap(), true
}
