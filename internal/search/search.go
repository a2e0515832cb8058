package search

import (
	"context"
)

// Result represents a single search hit from any provider.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Source  string // provider name for observability
}

// Candidate is a discovered source URL that survived quality filtering,
// carrying the coarse score assigned at discovery time. Candidates are
// created per run, consumed once by extraction, and never persisted.
type Candidate struct {
	URL      string
	Title    string
	Snippet  string
	Provider string
	Score    float64
}

// Provider is a minimal interface for search providers. lang is an optional
// two-letter language hint; providers that cannot use it ignore it.
type Provider interface {
	Search(ctx context.Context, query string, lang string, limit int) ([]Result, error)
	Name() string
}
