package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const braveDefaultBaseURL = "https://api.search.brave.com/res/v1/web/search"

// Brave implements Provider against the Brave Search API. It is the
// secondary discovery provider used when the primary is unavailable or its
// yield is insufficient.
type Brave struct {
	BaseURL    string // defaults to the public endpoint
	APIKey     string
	HTTPClient *http.Client
}

func (b *Brave) Name() string { return "brave" }

func (b *Brave) Search(ctx context.Context, query string, lang string, limit int) ([]Result, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("missing brave api key")
	}
	if limit <= 0 {
		limit = 10
	}
	base := b.BaseURL
	if base == "" {
		base = braveDefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(limit))
	if lang != "" {
		q.Set("search_lang", lang)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	hc := b.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("brave rate limited: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("brave status: %d", resp.StatusCode)
	}
	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(br.Web.Results))
	for _, r := range br.Web.Results {
		if r.URL == "" || r.Title == "" {
			continue
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.URL),
			Snippet: strings.TrimSpace(r.Description),
			Source:  b.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}
