package provider

import (
	"fmt"
	"net/netip"
)

type ContentKind uint8

const (
	KindOther ContentKind = iota
	KindIPv4
	KindIPv6
)

func (k ContentKind) String() string {
	switch k {
	case KindIPv4:
		return "ipv4"
	case KindIPv6:
		return "ipv6"
	}
	return "other"
}

// Content is the value of a record: an IPv4 address, an IPv6 address, or an
// opaque string for record types that are not managed here.
type Content struct {
	kind ContentKind
	addr netip.Addr
	text string
}

// IPv4Content returns content for an A record.
func IPv4Content(addr netip.Addr) (Content, error) {
	if !addr.Is4() {
		return Content{}, fmt.Errorf("%w: %s is not an IPv4 address", ErrTypeMismatch, addr)
	}
	return Content{kind: KindIPv4, addr: addr}, nil
}

// IPv6Content returns content for an AAAA record.
func IPv6Content(addr netip.Addr) (Content, error) {
	if !addr.Is6() {
		return Content{}, fmt.Errorf("%w: %s is not an IPv6 address", ErrTypeMismatch, addr)
	}
	return Content{kind: KindIPv6, addr: addr}, nil
}

// ContentFromAddr picks the variant from the address family.
func ContentFromAddr(addr netip.Addr) Content {
	switch {
	case addr.Is4():
		return Content{kind: KindIPv4, addr: addr}
	case addr.Is6():
		return Content{kind: KindIPv6, addr: addr}
	}
	return Content{}
}

func OtherContent(s string) Content {
	return Content{kind: KindOther, text: s}
}

// ParseContent never fails: text that is not an IP address is kept verbatim.
func ParseContent(s string) Content {
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return OtherContent(s)
	}
	return ContentFromAddr(addr)
}

func (c Content) Kind() ContentKind {
	return c.kind
}

// Addr returns the address held by IPv4 and IPv6 content.
func (c Content) Addr() (netip.Addr, bool) {
	if c.kind == KindOther {
		return netip.Addr{}, false
	}
	return c.addr, true
}

func (c Content) IsZero() bool {
	return c.kind == KindOther && c.text == ""
}

func (c Content) Equal(o Content) bool {
	if c.kind != o.kind {
		return false
	}
	if c.kind == KindOther {
		return c.text == o.text
	}
	return c.addr == o.addr
}

func (c Content) String() string {
	if c.kind == KindOther {
		return c.text
	}
	return c.addr.String()
}

func (c Content) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Content) UnmarshalText(b []byte) error {
	*c = ParseContent(string(b))
	return nil
}
