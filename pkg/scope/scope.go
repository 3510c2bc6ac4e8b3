// Package scope decides whether a discovered hostname belongs to the site
// being scanned. A candidate is in scope when it is the page's hostname,
// the hostname's registrable base domain, or a subdomain of either;
// everything else is somebody else's infrastructure and is discarded.
package scope

import "strings"

// secondLevelSuffixes are labels that act as public suffixes in the
// second-to-last position (example.co.uk). Hosts under these resolve to a
// three-label base domain instead of two.
var secondLevelSuffixes = map[string]bool{
	"co":  true,
	"com": true,
	"gov": true,
	"org": true,
	"net": true,
	"ac":  true,
	"edu": true,
}

// BaseDomain returns the registrable base of hostname: the last two
// labels, or the last three when the second-to-last label is a recognized
// second-level public suffix. Hostnames of two or fewer labels are their
// own base. The result is lowercased.
func BaseDomain(hostname string) string {
	hostname = normalize(hostname)
	labels := strings.Split(hostname, ".")
	if len(labels) <= 2 {
		return hostname
	}
	n := 2
	if secondLevelSuffixes[labels[len(labels)-2]] {
		n = 3
	}
	return strings.Join(labels[len(labels)-n:], ".")
}

// InScope reports whether candidate is hostname itself, hostname's
// registrable base domain, or a subdomain of either. Comparison is
// case-insensitive.
func InScope(candidate, hostname string) bool {
	candidate = normalize(candidate)
	hostname = normalize(hostname)
	if candidate == "" || hostname == "" {
		return false
	}
	base := BaseDomain(hostname)
	return candidate == hostname ||
		strings.HasSuffix(candidate, "."+hostname) ||
		candidate == base ||
		strings.HasSuffix(candidate, "."+base)
}

func normalize(host string) string {
	return strings.ToLower(strings.TrimSuffix(host, "."))
}
