package recipe

import (
	"sort"
	"strings"
)

// Request limits accepted by search providers.
const (
	MinCount = 1
	MaxCount = 10
)

// Request is an immutable description of what the caller wants discovered.
type Request struct {
	Topic       string   `json:"topic" yaml:"topic"`
	Cuisine     string   `json:"cuisine,omitempty" yaml:"cuisine,omitempty"`
	Country     string   `json:"country,omitempty" yaml:"country,omitempty"`
	Dietary     []string `json:"dietary,omitempty" yaml:"dietary,omitempty"`
	Include     []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude     []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	MaxMinutes  int      `json:"maxMinutes,omitempty" yaml:"maxMinutes,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Count       int      `json:"count" yaml:"count"`
}

// Normalized returns a canonical copy: trimmed, lower-cased strings, sorted
// tag sets, count clamped to the provider-safe range. Two requests that
// differ only in ordering or casing normalize to the same value, so they
// share a cache key.
func (r Request) Normalized() Request {
	out := Request{
		Topic:      lower(r.Topic),
		Cuisine:    lower(r.Cuisine),
		Country:    lower(r.Country),
		Dietary:    normalizeSet(r.Dietary),
		Include:    normalizeSet(r.Include),
		Exclude:    normalizeSet(r.Exclude),
		MaxMinutes: r.MaxMinutes,
		Difficulty: lower(r.Difficulty),
		Count:      r.Count,
	}
	if out.MaxMinutes < 0 {
		out.MaxMinutes = 0
	}
	if out.Count < MinCount {
		out.Count = MinCount
	}
	if out.Count > MaxCount {
		out.Count = MaxCount
	}
	return out
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func normalizeSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = lower(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
