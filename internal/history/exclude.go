package history

import (
	"net/url"
	"strings"

	"github.com/runnerr0/tabsnap/internal/browser"
)

// extractDomain pulls the lowercase hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// domainMatches reports whether host is domain or one of its subdomains.
func domainMatches(host, domain string) bool {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	if domain == "" || host == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ExcludeDomains drops records whose host is one of domains or a subdomain
// of one. The input slice is not modified.
func ExcludeDomains(records []browser.VisitRecord, domains []string) []browser.VisitRecord {
	if len(domains) == 0 {
		return records
	}
	out := make([]browser.VisitRecord, 0, len(records))
	for _, r := range records {
		host := extractDomain(r.URL)
		excluded := false
		for _, d := range domains {
			if domainMatches(host, d) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, r)
		}
	}
	return out
}
