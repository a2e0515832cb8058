package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/plateful/recipescout/internal/query"
)

type stubProvider struct {
	name    string
	calls   int
	replies []func(q string) ([]Result, error)
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(_ context.Context, q string, _ string, _ int) ([]Result, error) {
	i := s.calls
	s.calls++
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i](q)
}

func hits(urls ...string) []Result {
	out := make([]Result, 0, len(urls))
	for _, u := range urls {
		out = append(out, Result{Title: "A fine recipe page", URL: u, Snippet: strings.Repeat("text ", 20)})
	}
	return out
}

func fastBackoff(t *testing.T) {
	t.Helper()
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = old })
}

func TestClient_Discover_RetriesTransientErrors(t *testing.T) {
	fastBackoff(t)
	p := &stubProvider{name: "stub", replies: []func(string) ([]Result, error){
		func(string) ([]Result, error) { return nil, errors.New("server error: 503") },
		func(string) ([]Result, error) { return hits("https://example.com/one"), nil },
	}}
	c := &Client{Provider: p}
	got, err := c.Discover(context.Background(), []query.Query{{Text: "q"}}, 1)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(got) != 1 || p.calls != 2 {
		t.Fatalf("expected success on second attempt, got %d candidates after %d calls", len(got), p.calls)
	}
}

func TestClient_Discover_BroadensOnEmptyResults(t *testing.T) {
	fastBackoff(t)
	p := &stubProvider{name: "stub", replies: []func(string) ([]Result, error){
		func(q string) ([]Result, error) {
			if strings.Contains(q, "narrow") {
				return nil, nil
			}
			return hits("https://example.com/broad"), nil
		},
	}}
	c := &Client{Provider: p}
	queries := []query.Query{{Text: "narrow query"}, {Text: "broad query"}}
	got, err := c.Discover(context.Background(), queries, 1)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected broadened query to yield, got %d", len(got))
	}
	// Empty-but-valid responses are not retried on the same query.
	if p.calls != 2 {
		t.Fatalf("expected exactly 2 provider calls, got %d", p.calls)
	}
}

func TestClient_Discover_TypedFailureAfterExhaustion(t *testing.T) {
	fastBackoff(t)
	p := &stubProvider{name: "stub", replies: []func(string) ([]Result, error){
		func(string) ([]Result, error) { return nil, errors.New("rate limited: 429") },
	}}
	c := &Client{Provider: p, MaxAttempts: 2}
	got, err := c.Discover(context.Background(), []query.Query{{Text: "q"}}, 1)
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
	var de *DiscoveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DiscoveryError, got %v", err)
	}
	if de.Reason != ReasonProviderError {
		t.Fatalf("expected provider-error reason, got %q", de.Reason)
	}
	if p.calls != 2 {
		t.Fatalf("expected retry ceiling of 2, got %d calls", p.calls)
	}
}

func TestClient_Discover_NoResultsReason(t *testing.T) {
	fastBackoff(t)
	p := &stubProvider{name: "stub", replies: []func(string) ([]Result, error){
		func(string) ([]Result, error) { return nil, nil },
	}}
	c := &Client{Provider: p}
	_, err := c.Discover(context.Background(), []query.Query{{Text: "q"}}, 1)
	var de *DiscoveryError
	if !errors.As(err, &de) || de.Reason != ReasonNoResults {
		t.Fatalf("expected no-results reason, got %v", err)
	}
}

func TestClient_Discover_DedupesAcrossQueries(t *testing.T) {
	fastBackoff(t)
	p := &stubProvider{name: "stub", replies: []func(string) ([]Result, error){
		func(string) ([]Result, error) { return hits("https://example.com/same"), nil },
	}}
	c := &Client{Provider: p}
	queries := []query.Query{{Text: "a"}, {Text: "b"}}
	got, err := c.Discover(context.Background(), queries, 2)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected dedupe to 1 candidate, got %d", len(got))
	}
}
