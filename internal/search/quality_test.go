package search

import (
	"strings"
	"testing"
)

func TestFilter_DeniesHostsAndCollections(t *testing.T) {
	results := []Result{
		{Title: "Enchiladas recipe", URL: "https://example.com/enchiladas", Snippet: strings.Repeat("a ", 60), Source: "searxng"},
		{Title: "Tasty video", URL: "https://www.youtube.com/watch?v=1", Snippet: "watch now", Source: "searxng"},
		{Title: "35 best taco recipes to try", URL: "https://example.org/best-tacos", Snippet: "a roundup", Source: "searxng"},
		{Title: "Short", URL: "https://example.net/x", Snippet: "tiny", Source: "searxng"},
	}
	got := Filter(results, FilterOptions{MinSnippetChars: 20, MinTitleChars: 6})
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].URL != "https://example.com/enchiladas" {
		t.Fatalf("unexpected survivor: %q", got[0].URL)
	}
	if got[0].Score <= 0 || got[0].Score > 1 {
		t.Fatalf("score out of range: %f", got[0].Score)
	}
}

func TestFilter_PerDomainCapAndDedupe(t *testing.T) {
	results := []Result{
		{Title: "Recipe one here", URL: "https://example.com/a", Snippet: strings.Repeat("x", 40)},
		{Title: "Recipe two here", URL: "https://example.com/b", Snippet: strings.Repeat("x", 40)},
		{Title: "Recipe three here", URL: "https://example.com/c", Snippet: strings.Repeat("x", 40)},
		{Title: "Recipe one again", URL: "https://example.com/a?utm_source=feed", Snippet: strings.Repeat("x", 40)},
	}
	got := Filter(results, FilterOptions{PerDomain: 2})
	if len(got) != 2 {
		t.Fatalf("expected per-domain cap of 2, got %d", len(got))
	}
}

func TestFilter_StripsTrackingParams(t *testing.T) {
	results := []Result{
		{Title: "Dal recipe", URL: "https://example.com/dal?utm_campaign=x&id=7", Snippet: strings.Repeat("x", 40)},
	}
	got := Filter(results, FilterOptions{})
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if strings.Contains(got[0].URL, "utm_campaign") {
		t.Fatalf("tracking param kept: %q", got[0].URL)
	}
	if !strings.Contains(got[0].URL, "id=7") {
		t.Fatalf("legitimate param dropped: %q", got[0].URL)
	}
}

func TestFilter_RejectsNonHTTPSchemes(t *testing.T) {
	results := []Result{
		{Title: "A fine recipe", URL: "ftp://example.com/recipe", Snippet: strings.Repeat("x", 40)},
	}
	if got := Filter(results, FilterOptions{}); len(got) != 0 {
		t.Fatalf("expected ftp URL rejected, got %+v", got)
	}
}
