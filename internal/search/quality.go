package search

import (
	"net/url"
	"strings"
)

// FilterOptions configures the quality filter applied to raw search hits.
type FilterOptions struct {
	// DenyHosts rejects results from these hosts (subdomains included).
	// Empty means use DefaultDenyHosts.
	DenyHosts []string
	// MinTitleChars drops results with shorter titles. Zero disables.
	MinTitleChars int
	// MinSnippetChars drops results whose snippet has fewer non-whitespace
	// characters. Zero disables low-signal filtering.
	MinSnippetChars int
	// PerDomain caps how many candidates one host may contribute.
	PerDomain int
	// MaxTotal caps the filtered candidate count.
	MaxTotal int
}

// DefaultDenyHosts are video-only and social pinboard sites that never carry
// an extractable recipe document.
var DefaultDenyHosts = []string{
	"youtube.com", "tiktok.com", "pinterest.com", "instagram.com",
	"facebook.com", "reddit.com", "twitter.com", "x.com",
}

// collectionMarkers flag link-farm/roundup pages by title or URL path.
var collectionMarkers = []string{
	"best ", "top 10", "top 20", "roundup", "recipes to try",
	"recipe ideas", "recipes for every", "-best-", "/collections/",
	"/roundup", "/gallery/",
}

// Filter strips low-value hits, canonicalizes and dedupes URLs, caps
// per-domain contribution, and assigns each survivor a coarse quality score.
func Filter(results []Result, opt FilterOptions) []Candidate {
	if opt.PerDomain <= 0 {
		opt.PerDomain = 3
	}
	if opt.MaxTotal <= 0 {
		opt.MaxTotal = 10
	}
	deny := opt.DenyHosts
	if len(deny) == 0 {
		deny = DefaultDenyHosts
	}

	domainCounts := map[string]int{}
	seenURL := map[string]struct{}{}
	out := make([]Candidate, 0, opt.MaxTotal)
	for _, r := range results {
		u, err := url.Parse(strings.TrimSpace(r.URL))
		if err != nil || u.Host == "" || !isHTTPScheme(u.Scheme) {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if hostDenied(host, deny) {
			continue
		}
		if opt.MinTitleChars > 0 && len(strings.TrimSpace(r.Title)) < opt.MinTitleChars {
			continue
		}
		if opt.MinSnippetChars > 0 && countNonSpace(r.Snippet) < opt.MinSnippetChars {
			continue
		}
		if looksLikeCollection(r.Title, u.Path) {
			continue
		}
		canon := canonicalizeURL(u)
		if _, ok := seenURL[canon]; ok {
			continue
		}
		if domainCounts[host] >= opt.PerDomain {
			continue
		}
		seenURL[canon] = struct{}{}
		domainCounts[host]++
		out = append(out, Candidate{
			URL:      canon,
			Title:    strings.TrimSpace(r.Title),
			Snippet:  strings.TrimSpace(r.Snippet),
			Provider: r.Source,
			Score:    qualityScore(r),
		})
		if len(out) >= opt.MaxTotal {
			break
		}
	}
	return out
}

func hostDenied(host string, deny []string) bool {
	for _, d := range deny {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func looksLikeCollection(title, path string) bool {
	t := strings.ToLower(title)
	p := strings.ToLower(path)
	for _, m := range collectionMarkers {
		if strings.Contains(t, m) || strings.Contains(p, m) {
			return true
		}
	}
	return false
}

// qualityScore is the coarse relevance score assigned at discovery time.
// Longer snippets carry more signal; recipe vocabulary in the title is a
// strong hint the page is a single-recipe document.
func qualityScore(r Result) float64 {
	score := 0.3
	n := countNonSpace(r.Snippet)
	if n > 400 {
		n = 400
	}
	score += 0.4 * float64(n) / 400
	t := strings.ToLower(r.Title)
	if strings.Contains(t, "recipe") {
		score += 0.2
	}
	if strings.Contains(strings.ToLower(r.Snippet), "ingredients") {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			n++
		}
	}
	return n
}

// canonicalizeURL lower-cases the host, drops fragments, default ports and
// common tracking parameters so semantically identical URLs dedupe.
func canonicalizeURL(u *url.URL) string {
	u2 := *u
	u2.Fragment = ""
	u2.Host = strings.ToLower(u2.Host)
	if (u2.Scheme == "http" && strings.HasSuffix(u2.Host, ":80")) || (u2.Scheme == "https" && strings.HasSuffix(u2.Host, ":443")) {
		u2.Host = u2.Hostname()
	}
	q := u2.Query()
	for _, p := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"} {
		q.Del(p)
	}
	u2.RawQuery = q.Encode()
	return u2.String()
}

func isHTTPScheme(scheme string) bool {
	s := strings.ToLower(scheme)
	return s == "http" || s == "https"
}
