package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// FileProvider loads search results from a local JSON file for offline and
// test runs. The file holds an array of objects:
// {"title": "...", "url": "...", "snippet": "..."}.
type FileProvider struct {
	Path string
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, query string, _ string, limit int) ([]Result, error) {
	if strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("file provider path is empty")
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var raw []Result
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	out := make([]Result, 0, len(raw))
	for _, r := range raw {
		if r.URL == "" || r.Title == "" {
			continue
		}
		if matchesAny(r, terms) {
			r.Source = f.Name()
			out = append(out, r)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// matchesAny keeps a result when any positive query term appears in its
// title or snippet. Negative terms (leading '-') are ignored here; the
// quality filter handles exclusion downstream.
func matchesAny(r Result, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	hay := strings.ToLower(r.Title + " " + r.Snippet)
	for _, t := range terms {
		if strings.HasPrefix(t, "-") {
			continue
		}
		t = strings.Trim(t, `"`)
		if t != "" && strings.Contains(hay, t) {
			return true
		}
	}
	return false
}
