package provider

import (
	"strings"

	"github.com/libdns/libdns"
	"github.com/miekg/dns"
)

// QualifyName returns name as a fully qualified name inside zone, without the
// trailing dot. Names already inside the zone are returned unchanged.
func QualifyName(name, zone string) string {
	name = strings.TrimSuffix(name, ".")
	zone = strings.ToLower(strings.TrimSuffix(zone, "."))
	if name == "" || name == "@" {
		return zone
	}
	if dns.IsSubDomain(dns.Fqdn(zone), dns.Fqdn(name)) {
		return strings.ToLower(name)
	}
	return strings.ToLower(libdns.AbsoluteName(name, zone))
}

// RelativeName strips zone from a fully qualified record name.
func RelativeName(name, zone string) string {
	return libdns.RelativeName(strings.TrimSuffix(name, "."), strings.TrimSuffix(zone, "."))
}

// ValidName reports whether name is a syntactically valid domain name.
func ValidName(name string) bool {
	if name == "@" {
		return true
	}
	_, ok := dns.IsDomainName(name)
	return ok
}
