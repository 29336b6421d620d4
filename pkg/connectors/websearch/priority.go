package websearch

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"sentry-hq/conduit/pkg/clock"
)

// Sub-scorer contributions.
const (
	scoreDomainGov      = 40
	scoreDomainAcademic = 25
	scoreDomainOrg      = 15
	scoreDomainOther    = 5

	scoreSourceOfficial = 30
	scoreSourceNGO      = 20
	scoreSourceOther    = 5

	scoreDocPolicyPath = 15
	scoreDocPDF        = 15

	scoreRecentYear = 10
)

// Score is the priority assigned to one search result, with the reasons
// each sub-scorer contributed.
type Score struct {
	Total   int      `json:"total"`
	Reasons []string `json:"reasons"`
}

// Scorer ranks search results from URL structure and snippet text only.
// It never fetches content.
type Scorer struct {
	officialPolicy []string
	recognizedNGO  []string
	clock          clock.Clock
}

// NewScorer creates a scorer with the configured source allow-lists. A
// nil clock uses the system clock; the clock only feeds the recency
// sub-scorer.
func NewScorer(officialPolicy, recognizedNGO []string, clk clock.Clock) *Scorer {
	if clk == nil {
		clk = clock.System()
	}
	return &Scorer{
		officialPolicy: normalizeDomains(officialPolicy),
		recognizedNGO:  normalizeDomains(recognizedNGO),
		clock:          clk,
	}
}

// Score computes the priority of one result from four independent
// sub-scorers: domain authority, source type, document type, recency.
func (s *Scorer) Score(rawURL, snippet string) Score {
	var sc Score
	sc.Reasons = []string{}

	u, err := url.Parse(rawURL)
	if err != nil {
		sc.add(scoreDomainOther, "unparseable URL")
		return sc
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.ToLower(u.Path)

	// Domain authority.
	switch {
	case isGovernment(host):
		sc.add(scoreDomainGov, "government domain")
	case isAcademic(host):
		sc.add(scoreDomainAcademic, "academic domain")
	case strings.HasSuffix(host, ".org"):
		sc.add(scoreDomainOrg, "nonprofit domain")
	default:
		sc.add(scoreDomainOther, "unclassified domain")
	}

	// Source type, from the configured allow-lists.
	switch {
	case matchesDomainSet(host, s.officialPolicy):
		sc.add(scoreSourceOfficial, "official policy source")
	case matchesDomainSet(host, s.recognizedNGO):
		sc.add(scoreSourceNGO, "recognized NGO")
	default:
		sc.add(scoreSourceOther, "unlisted source")
	}

	// Document type.
	if strings.Contains(path, "/policy/") || strings.Contains(path, "/legislation/") {
		sc.add(scoreDocPolicyPath, "policy document path")
	}
	if strings.HasSuffix(path, ".pdf") || strings.HasSuffix(strings.ToLower(rawURL), ".pdf") {
		sc.add(scoreDocPDF, "PDF document")
	}

	// Recency, from snippet text only.
	year := s.clock.Now().Year()
	switch {
	case strings.Contains(snippet, strconv.Itoa(year)):
		sc.add(scoreRecentYear, fmt.Sprintf("mentions current year %d", year))
	case strings.Contains(snippet, strconv.Itoa(year-1)):
		sc.add(scoreRecentYear, fmt.Sprintf("mentions previous year %d", year-1))
	}

	return sc
}

func (sc *Score) add(points int, reason string) {
	sc.Total += points
	sc.Reasons = append(sc.Reasons, reason)
}

// isGovernment matches .gov and country forms like .gov.uk.
func isGovernment(host string) bool {
	return strings.HasSuffix(host, ".gov") || strings.Contains(host, ".gov.")
}

// isAcademic matches .edu and country forms like .ac.uk.
func isAcademic(host string) bool {
	return strings.HasSuffix(host, ".edu") || strings.Contains(host, ".ac.")
}

func matchesDomainSet(host string, set []string) bool {
	for _, d := range set {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeDomains(in []string) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			out = append(out, strings.TrimPrefix(d, "www."))
		}
	}
	return out
}
