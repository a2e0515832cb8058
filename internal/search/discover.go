package search

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/plateful/recipescout/internal/query"
)

// retryBaseDelay is the base duration for exponential backoff on provider
// errors. Tests override this to avoid real sleeps.
var retryBaseDelay = 500 * time.Millisecond

const (
	defaultMaxAttempts = 3
	maxBackoff         = 8 * time.Second
)

// FailureReason classifies why discovery produced nothing.
type FailureReason string

const (
	ReasonProviderError FailureReason = "provider-error"
	ReasonNoResults     FailureReason = "no-results"
)

// DiscoveryError is the typed outcome signalled when discovery gives up.
// It never crosses the boundary as a panic; the orchestrator inspects it to
// decide on escalation.
type DiscoveryError struct {
	Provider string
	Reason   FailureReason
	Err      error
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("discovery %s (%s): %v", e.Reason, e.Provider, e.Err)
	}
	return fmt.Sprintf("discovery %s (%s)", e.Reason, e.Provider)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Client discovers candidate URLs through one provider, applying retry with
// backoff, quality filtering, and query broadening.
type Client struct {
	Provider Provider
	Filter   FilterOptions
	// MaxAttempts includes the initial attempt per query. Minimum 1,
	// default 3.
	MaxAttempts int
}

// Discover runs the queries in order (primary first, broadened alternates
// after) until minAcceptable candidates have accumulated. Provider errors
// are retried with exponential backoff and jitter on the same query; an
// empty-but-valid response is not retried, it advances to the next, broader
// query. On total failure the returned error is a *DiscoveryError and the
// candidate list is empty.
func (c *Client) Discover(ctx context.Context, queries []query.Query, minAcceptable int) ([]Candidate, error) {
	if c.Provider == nil {
		return nil, &DiscoveryError{Provider: "", Reason: ReasonProviderError, Err: errors.New("no provider configured")}
	}
	if minAcceptable <= 0 {
		minAcceptable = 1
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	seen := map[string]struct{}{}
	var out []Candidate
	var lastErr error
	for _, q := range queries {
		results, err := c.searchWithRetry(ctx, q, attempts)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Str("provider", c.Provider.Name()).Str("query", q.Text).Msg("discovery attempt failed")
			continue
		}
		for _, cand := range Filter(results, c.Filter) {
			if _, ok := seen[cand.URL]; ok {
				continue
			}
			seen[cand.URL] = struct{}{}
			out = append(out, cand)
		}
		if len(out) >= minAcceptable {
			return out, nil
		}
	}
	if len(out) > 0 {
		return out, nil
	}
	if lastErr != nil {
		return nil, &DiscoveryError{Provider: c.Provider.Name(), Reason: ReasonProviderError, Err: lastErr}
	}
	return nil, &DiscoveryError{Provider: c.Provider.Name(), Reason: ReasonNoResults}
}

func (c *Client) searchWithRetry(ctx context.Context, q query.Query, attempts int) ([]Result, error) {
	limit := c.Filter.MaxTotal
	if limit <= 0 {
		limit = 10
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		results, err := c.Provider.Search(ctx, q.Text, q.Language, limit)
		if err == nil {
			return results, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff(i)):
		}
	}
	return nil, lastErr
}

// backoff doubles per attempt with up to 50% jitter, capped at maxBackoff.
func backoff(attempt int) time.Duration {
	d := retryBaseDelay << uint(attempt)
	if d > maxBackoff {
		d = maxBackoff
	}
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}
