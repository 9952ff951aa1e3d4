// Package tenant maps inbound request hosts to dashboard tenants.
// Tenancy is resolved by subdomain: fukubar.grupoip3.com belongs to the
// "fukubar" company.
package tenant

import "strings"

// FromHost extracts the tenant subdomain from a request host. It
// returns "" when no subdomain applies: local development hosts, bare
// domains and www.
func FromHost(host string) string {
	hostname := host
	if i := strings.IndexByte(hostname, ':'); i >= 0 {
		hostname = hostname[:i]
	}

	if hostname == "localhost" ||
		strings.HasPrefix(hostname, "127.0.0.1") ||
		strings.HasPrefix(hostname, "192.168.") {
		return ""
	}

	parts := strings.Split(hostname, ".")
	if len(parts) <= 2 {
		return ""
	}

	sub := parts[0]
	if sub == "www" {
		return ""
	}
	return sub
}
