package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/plateful/recipescout/internal/recipe"
)

type stubFetcher struct {
	body []byte
	err  error
}

func (f stubFetcher) Get(_ context.Context, _ string) ([]byte, string, error) {
	return f.body, "text/html", f.err
}

type stubStrategy struct {
	name string
	rec  *recipe.Recipe
	err  error
}

func (s stubStrategy) Name() string { return s.name }

func (s stubStrategy) TryExtract(_ context.Context, _ string, _ []byte) (*recipe.Recipe, error) {
	return s.rec, s.err
}

type panicStrategy struct{}

func (panicStrategy) Name() string { return "panic" }

func (panicStrategy) TryExtract(_ context.Context, _ string, _ []byte) (*recipe.Recipe, error) {
	panic("parser bug")
}

func minimalRecord(title string) *recipe.Recipe {
	return &recipe.Recipe{
		Title:        title,
		Ingredients:  []recipe.Ingredient{{Name: "flour"}},
		Instructions: []string{"mix"},
	}
}

func TestEngine_FirstUsableStrategyWins(t *testing.T) {
	e := &Engine{
		Fetcher: stubFetcher{body: []byte("<html></html>")},
		Strategies: []Strategy{
			stubStrategy{name: "a", rec: nil},
			stubStrategy{name: "b", rec: minimalRecord("B wins")},
			stubStrategy{name: "c", rec: minimalRecord("should not run")},
		},
	}
	rec, err := e.Extract(context.Background(), "https://example.com/x")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.Title != "B wins" {
		t.Fatalf("wrong strategy won: %q", rec.Title)
	}
	if rec.SourceURL != "https://example.com/x" {
		t.Fatalf("source URL not set: %q", rec.SourceURL)
	}
}

func TestEngine_StrategyErrorFallsThrough(t *testing.T) {
	e := &Engine{
		Fetcher: stubFetcher{body: []byte("<html></html>")},
		Strategies: []Strategy{
			stubStrategy{name: "broken", err: errors.New("model unavailable")},
			stubStrategy{name: "backup", rec: minimalRecord("Backup")},
		},
	}
	rec, err := e.Extract(context.Background(), "https://example.com/x")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.Title != "Backup" {
		t.Fatalf("expected fallback record, got %q", rec.Title)
	}
}

func TestEngine_PanicContained(t *testing.T) {
	e := &Engine{
		Fetcher: stubFetcher{body: []byte("<html></html>")},
		Strategies: []Strategy{
			panicStrategy{},
			stubStrategy{name: "backup", rec: minimalRecord("Survived")},
		},
	}
	rec, err := e.Extract(context.Background(), "https://example.com/x")
	if err != nil {
		t.Fatalf("panic escaped: %v", err)
	}
	if rec.Title != "Survived" {
		t.Fatalf("expected record after contained panic, got %q", rec.Title)
	}
}

func TestEngine_NoResultWhenAllStrategiesDecline(t *testing.T) {
	e := &Engine{
		Fetcher:    stubFetcher{body: []byte("<html></html>")},
		Strategies: []Strategy{stubStrategy{name: "a"}, stubStrategy{name: "b"}},
	}
	if _, err := e.Extract(context.Background(), "https://example.com/x"); !errors.Is(err, ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
}

func TestEngine_FetchErrorPropagates(t *testing.T) {
	e := &Engine{Fetcher: stubFetcher{err: errors.New("connection refused")}}
	if _, err := e.Extract(context.Background(), "https://example.com/x"); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestEngine_ImageFallbackFromMetaTags(t *testing.T) {
	page := []byte(`<html><head><meta property="og:image" content="https://example.com/dish.jpg"></head><body></body></html>`)
	e := &Engine{
		Fetcher:    stubFetcher{body: page},
		Strategies: []Strategy{stubStrategy{name: "a", rec: minimalRecord("No image")}},
	}
	rec, err := e.Extract(context.Background(), "https://example.com/x")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.ImageURL != "https://example.com/dish.jpg" {
		t.Fatalf("meta image fallback missing: %q", rec.ImageURL)
	}
}

func TestResolveImage_PrefersOpenGraph(t *testing.T) {
	page := []byte(`<html><head>
<meta name="twitter:image" content="https://example.com/tw.jpg">
<meta property="og:image" content="https://example.com/og.jpg">
</head></html>`)
	if got := ResolveImage(page); got != "https://example.com/og.jpg" {
		t.Fatalf("expected og:image preferred, got %q", got)
	}
}

func TestResolveImage_TwitterFallback(t *testing.T) {
	page := []byte(`<html><head><meta name="twitter:image" content="https://example.com/tw.jpg"></head></html>`)
	if got := ResolveImage(page); got != "https://example.com/tw.jpg" {
		t.Fatalf("expected twitter image, got %q", got)
	}
}
