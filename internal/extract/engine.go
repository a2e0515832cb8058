// Package extract converts documents at candidate URLs into structured
// recipe records. Strategies are tried in order behind one interface; the
// engine short-circuits on the first valid result and never lets a strategy
// failure escape.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/plateful/recipescout/internal/recipe"
)

// ErrNoResult is returned when no strategy produced a usable record for the
// URL. It is a per-URL outcome, not a run failure.
var ErrNoResult = errors.New("no extraction result")

// Strategy is one extraction tactic. A nil record with a nil error means the
// strategy does not apply to this document; errors are contained by the
// engine.
type Strategy interface {
	Name() string
	TryExtract(ctx context.Context, url string, body []byte) (*recipe.Recipe, error)
}

// Fetcher retrieves a document body. Satisfied by *fetch.Client.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Engine runs the ordered strategy list for a URL. Image resolution is a
// separate best-effort step: absence of an image never invalidates a record.
type Engine struct {
	Fetcher    Fetcher
	Strategies []Strategy
}

// Extract fetches the URL once and hands the body to each strategy in order.
// A strategy result counts only if it carries at least one ingredient.
func (e *Engine) Extract(ctx context.Context, url string) (*recipe.Recipe, error) {
	if e.Fetcher == nil {
		return nil, errors.New("engine: no fetcher configured")
	}
	body, _, err := e.Fetcher.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	var rec *recipe.Recipe
	for _, s := range e.Strategies {
		r, err := tryStrategy(ctx, s, url, body)
		if err != nil {
			log.Debug().Err(err).Str("strategy", s.Name()).Str("url", url).Msg("strategy failed")
			continue
		}
		if r == nil || len(r.Ingredients) == 0 {
			continue
		}
		rec = r
		break
	}
	if rec == nil {
		return nil, ErrNoResult
	}
	rec.SourceURL = url
	if strings.TrimSpace(rec.ImageURL) == "" {
		// Best effort; ignores failure.
		rec.ImageURL = ResolveImage(body)
	}
	return rec, nil
}

// tryStrategy contains panics as errors so one misbehaving parser cannot
// abort the run.
func tryStrategy(ctx context.Context, s Strategy, url string, body []byte) (rec *recipe.Recipe, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("strategy %s panic: %v", s.Name(), r)
		}
	}()
	return s.TryExtract(ctx, url, body)
}
