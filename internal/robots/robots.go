// Package robots gates document fetches on crawl permissions. Rules are
// fetched once per host and held in memory; a missing robots.txt means
// everything is allowed.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	defaultTTL      = 30 * time.Minute
	maxRobotsBytes  = 512 << 10
	fetchTimeout    = 5 * time.Second
)

// Rules are the parsed directives of one robots.txt.
type Rules struct {
	Groups []Group
}

// Group is one user-agent block.
type Group struct {
	Agents   []string
	Allow    []string
	Disallow []string
}

// Manager fetches and caches per-host rules and answers allow/deny queries.
// Failures are permissive: a host whose robots.txt cannot be retrieved is
// treated as allowing everything.
type Manager struct {
	HTTPClient *http.Client
	UserAgent  string
	// TTL bounds how long cached rules are reused. Zero means 30m.
	TTL time.Duration
	// Now is overridable in tests.
	Now func() time.Time

	mu  sync.Mutex
	mem map[string]entry
}

type entry struct {
	rules  Rules
	expiry time.Time
}

// Allowed reports whether the URL may be fetched under the host's robots.txt.
// The error is advisory; callers that cannot retrieve rules should proceed.
func (m *Manager) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false, fmt.Errorf("parse url: %q", rawURL)
	}
	rules, err := m.rulesFor(ctx, u)
	if err != nil {
		return true, err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.Allowed(m.UserAgent, path), nil
}

func (m *Manager) rulesFor(ctx context.Context, u *url.URL) (Rules, error) {
	key := u.Scheme + "://" + u.Host
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}

	m.mu.Lock()
	if e, ok := m.mem[key]; ok && now.Before(e.expiry) {
		m.mu.Unlock()
		return e.rules, nil
	}
	m.mu.Unlock()

	rules, err := m.fetch(ctx, key+"/robots.txt")
	if err != nil {
		return Rules{}, err
	}
	ttl := m.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	m.mu.Lock()
	if m.mem == nil {
		m.mem = make(map[string]entry)
	}
	m.mem[key] = entry{rules: rules, expiry: now.Add(ttl)}
	m.mu.Unlock()
	return rules, nil
}

func (m *Manager) fetch(ctx context.Context, robotsURL string) (Rules, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, err
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	client := m.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, err
	}
	defer resp.Body.Close()
	// No robots.txt means no restrictions.
	if resp.StatusCode >= 400 && resp.StatusCode <= 499 {
		return Rules{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Rules{}, fmt.Errorf("robots fetch status: %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return Rules{}, err
	}
	return Parse(string(b)), nil
}

// Parse reads robots.txt text into rule groups. Unknown directives are
// ignored.
func Parse(text string) Rules {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	current := Group{}
	flush := func() {
		if len(current.Agents) == 0 && len(current.Allow) == 0 && len(current.Disallow) == 0 {
			return
		}
		groups = append(groups, current)
		current = Group{}
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		val := strings.TrimSpace(line[colon+1:])
		switch key {
		case "user-agent", "useragent":
			if len(current.Agents) > 0 && (len(current.Allow) > 0 || len(current.Disallow) > 0) {
				flush()
			}
			current.Agents = append(current.Agents, strings.ToLower(val))
		case "allow":
			current.Allow = append(current.Allow, val)
		case "disallow":
			current.Disallow = append(current.Disallow, val)
		}
	}
	flush()
	return Rules{Groups: groups}
}

// Allowed evaluates the path against the most specific matching user-agent
// group. Within the group the most specific matching directive wins;
// specificity is the pattern length with wildcards removed, and Allow beats
// Disallow on ties. No matching directive means allow.
func (r Rules) Allowed(userAgent, path string) bool {
	idx := r.groupFor(userAgent)
	if idx < 0 {
		return true
	}
	grp := r.Groups[idx]

	bestScore := -1
	bestAllow := true
	evaluate := func(patterns []string, isAllow bool) {
		for _, p := range patterns {
			// An empty Disallow line means unrestricted.
			if p == "" {
				continue
			}
			if !patternMatches(p, path) {
				continue
			}
			score := specificity(p)
			if score > bestScore || (score == bestScore && isAllow && !bestAllow) {
				bestScore = score
				bestAllow = isAllow
			}
		}
	}
	evaluate(grp.Disallow, false)
	evaluate(grp.Allow, true)
	if bestScore == -1 {
		return true
	}
	return bestAllow
}

// groupFor picks the group with the longest agent token contained in the
// user agent string; the wildcard group loses to any named match.
func (r Rules) groupFor(userAgent string) int {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	bestIdx := -1
	bestScore := -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			token := strings.ToLower(strings.TrimSpace(a))
			if token == "" {
				continue
			}
			var score int
			switch {
			case token == "*":
				score = 0
			case strings.Contains(ua, token):
				score = len(token)
			default:
				continue
			}
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
	}
	return bestIdx
}

// patternMatches anchors the pattern at the start of the path; '*' matches
// any sequence and a trailing '$' anchors the end.
func patternMatches(pattern, path string) bool {
	anchorEnd := strings.HasSuffix(pattern, "$")
	p := strings.TrimSuffix(pattern, "$")
	var b strings.Builder
	b.WriteString("^")
	for _, rn := range p {
		if rn == '*' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(rn)))
	}
	if anchorEnd {
		b.WriteString("$")
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

func specificity(pattern string) int {
	p := strings.TrimSuffix(pattern, "$")
	return len(strings.ReplaceAll(p, "*", ""))
}
