package trust

import (
	"net/url"
	"strings"
	"sync"

	"sentry-hq/conduit/pkg/comm"
)

// institutionalSuffixes are hostname suffixes that classify as
// authoritative without configuration: government, education, and
// intergovernmental domains.
var institutionalSuffixes = []string{".gov", ".edu", ".int"}

// Classifier maps (url, connector kind) pairs to trust tiers.
//
// The two mutable domain sets can be reconfigured at runtime; mutations
// are visible to concurrent Classify calls without torn reads (guarded by
// a read-write lock).
type Classifier struct {
	mu            sync.RWMutex
	authoritative map[string]bool
	primary       map[string]bool
}

// NewClassifier creates a classifier with the given configured domain
// sets. Either slice may be nil.
func NewClassifier(authoritative, primary []string) *Classifier {
	c := &Classifier{
		authoritative: make(map[string]bool),
		primary:       make(map[string]bool),
	}
	for _, d := range authoritative {
		c.authoritative[normalizeDomain(d)] = true
	}
	for _, d := range primary {
		c.primary[normalizeDomain(d)] = true
	}
	return c
}

// Classify returns the trust tier for a URL retrieved through the given
// connector kind. Parsing failures return the external tier.
func (c *Classifier) Classify(rawURL string, kind comm.ConnectorKind) comm.TrustTier {
	// Search indexes produce candidate links, never verified truth.
	if kind == comm.KindWebSearch {
		return comm.TierSearchResult
	}

	host := hostOf(rawURL)
	if host == "" {
		return comm.TierExternal
	}

	if isInstitutional(host) {
		return comm.TierAuthoritative
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if matchesSet(host, c.authoritative) {
		return comm.TierAuthoritative
	}
	if matchesSet(host, c.primary) {
		return comm.TierPrimary
	}
	return comm.TierExternal
}

// AddAuthoritative adds a domain to the authoritative set.
func (c *Classifier) AddAuthoritative(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authoritative[normalizeDomain(domain)] = true
}

// RemoveAuthoritative removes a domain from the authoritative set.
func (c *Classifier) RemoveAuthoritative(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.authoritative, normalizeDomain(domain))
}

// AddPrimary adds a domain to the primary-source set.
func (c *Classifier) AddPrimary(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.primary[normalizeDomain(domain)] = true
}

// RemovePrimary removes a domain from the primary-source set.
func (c *Classifier) RemovePrimary(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.primary, normalizeDomain(domain))
}

// Replace swaps both configured sets atomically, for hot reload from the
// trusted-sources file.
func (c *Classifier) Replace(authoritative, primary []string) {
	auth := make(map[string]bool, len(authoritative))
	for _, d := range authoritative {
		auth[normalizeDomain(d)] = true
	}
	prim := make(map[string]bool, len(primary))
	for _, d := range primary {
		prim[normalizeDomain(d)] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.authoritative = auth
	c.primary = prim
}

// hostOf extracts the lowercased host from a URL, stripping any leading
// "www." and the port.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return host
}

// isInstitutional reports whether the host carries a government,
// education, or intergovernmental suffix: .gov, .gov.<cc>, .edu,
// .ac.<cc>, or .int.
func isInstitutional(host string) bool {
	for _, suffix := range institutionalSuffixes {
		if strings.HasSuffix(host, suffix) || host == suffix[1:] {
			return true
		}
	}
	// Country-code forms: example.gov.uk, example.ac.jp
	parts := strings.Split(host, ".")
	if len(parts) >= 3 {
		secondLevel := parts[len(parts)-2]
		if secondLevel == "gov" || secondLevel == "ac" {
			return true
		}
	}
	return false
}

// matchesSet reports whether host equals an entry or is a sub-domain of
// one (dotted-suffix match).
func matchesSet(host string, set map[string]bool) bool {
	if set[host] {
		return true
	}
	for domain := range set {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func normalizeDomain(d string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
}
