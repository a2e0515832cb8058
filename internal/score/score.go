// Package score validates extracted records and computes their confidence.
// Validation enforces the structural invariant; confidence is a weighted
// combination of fixed sub-scores. Discarding is reserved for structural
// invalidity only; low confidence flags, it never drops.
package score

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/plateful/recipescout/internal/recipe"
)

// ErrInvalidRecord signals a record that fails the structural invariant:
// such records are discarded, logged, never cached.
var ErrInvalidRecord = errors.New("invalid record")

// Weights are the fixed sub-score weights. They are configuration, not
// per-call inputs, so no sub-score can silently dominate.
type Weights struct {
	Reliability  float64 `yaml:"reliability"`
	Completeness float64 `yaml:"completeness"`
	Freshness    float64 `yaml:"freshness"`
	Relevance    float64 `yaml:"relevance"`
}

// DefaultWeights sum to 1.
func DefaultWeights() Weights {
	return Weights{Reliability: 0.35, Completeness: 0.30, Freshness: 0.15, Relevance: 0.20}
}

// defaultReputation is the static per-domain reliability table. Unknown
// domains get neutralReputation.
var defaultReputation = map[string]float64{
	"seriouseats.com":    0.95,
	"allrecipes.com":     0.90,
	"bbcgoodfood.com":    0.90,
	"foodnetwork.com":    0.85,
	"epicurious.com":     0.85,
	"bonappetit.com":     0.85,
	"simplyrecipes.com":  0.85,
	"budgetbytes.com":    0.80,
	"food52.com":         0.80,
	"thekitchn.com":      0.75,
}

const neutralReputation = 0.5

// Scorer validates records and attaches confidence.
type Scorer struct {
	Weights Weights
	// Reputation overrides the built-in per-domain table when non-nil.
	Reputation map[string]float64
	// LowFloor marks records below this overall confidence as
	// low-confidence. Default 0.4.
	LowFloor float64
	// LastExtracted reports when this exact source URL last yielded a valid
	// record, for the cache-aware freshness signal. Nil means unknown.
	LastExtracted func(url string) (time.Time, bool)
	// Now is overridable in tests.
	Now func() time.Time
}

// Validate enforces the validity invariant and, on success, fills in the
// record's confidence and low-confidence flag.
func (s *Scorer) Validate(rec *recipe.Recipe, req recipe.Request) error {
	if !rec.IsValid() {
		return ErrInvalidRecord
	}
	rec.Confidence = s.confidence(rec, req)
	rec.LowConfidence = rec.Confidence.Overall < s.lowFloor()
	return nil
}

func (s *Scorer) lowFloor() float64 {
	if s.LowFloor > 0 {
		return s.LowFloor
	}
	return 0.4
}

func (s *Scorer) weights() Weights {
	w := s.Weights
	if w.Reliability+w.Completeness+w.Freshness+w.Relevance == 0 {
		return DefaultWeights()
	}
	return w
}

func (s *Scorer) confidence(rec *recipe.Recipe, req recipe.Request) recipe.Confidence {
	c := recipe.Confidence{
		Reliability:  s.reliability(rec.SourceURL),
		Completeness: completeness(rec),
		Freshness:    s.freshness(rec.SourceURL),
		Relevance:    relevance(rec, req),
	}
	w := s.weights()
	c.Overall = w.Reliability*c.Reliability + w.Completeness*c.Completeness +
		w.Freshness*c.Freshness + w.Relevance*c.Relevance
	return c
}

func (s *Scorer) reliability(sourceURL string) float64 {
	u, err := url.Parse(sourceURL)
	if err != nil || u.Host == "" {
		return neutralReputation
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	table := s.Reputation
	if table == nil {
		table = defaultReputation
	}
	if v, ok := table[host]; ok {
		return v
	}
	return neutralReputation
}

// completeness rewards presence of the optional fields; their absence is a
// confidence gap, not an error.
func completeness(rec *recipe.Recipe) float64 {
	score := 0.0
	if strings.TrimSpace(rec.Description) != "" {
		score += 0.2
	}
	if rec.TotalMinutes > 0 || rec.PrepMinutes > 0 || rec.CookMinutes > 0 {
		score += 0.2
	}
	if rec.Servings > 0 {
		score += 0.2
	}
	if strings.TrimSpace(rec.ImageURL) != "" {
		score += 0.2
	}
	if len(rec.Cuisines) > 0 {
		score += 0.2
	}
	return score
}

// freshness decays from 1.0 for a source extracted within the last day down
// to 0.2 past a week. Sources never seen before score neutral.
func (s *Scorer) freshness(sourceURL string) float64 {
	if s.LastExtracted == nil {
		return neutralReputation
	}
	at, ok := s.LastExtracted(sourceURL)
	if !ok {
		return neutralReputation
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	age := now.Sub(at)
	switch {
	case age <= 24*time.Hour:
		return 1.0
	case age >= 7*24*time.Hour:
		return 0.2
	default:
		frac := float64(age-24*time.Hour) / float64(6*24*time.Hour)
		return 1.0 - 0.8*frac
	}
}

// relevance measures token overlap between the requested cuisine/topic and
// the record's cuisine tags and title.
func relevance(rec *recipe.Recipe, req recipe.Request) float64 {
	req = req.Normalized()
	want := map[string]struct{}{}
	for _, tok := range strings.Fields(req.Cuisine + " " + req.Topic) {
		if len(tok) > 2 {
			want[tok] = struct{}{}
		}
	}
	if len(want) == 0 {
		return neutralReputation
	}
	have := strings.ToLower(rec.Title + " " + strings.Join(rec.Cuisines, " "))
	matched := 0
	for tok := range want {
		if strings.Contains(have, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(want))
}

// Classify buckets a confidence value for cache-lifetime selection.
// ClassVerified is reserved for externally corroborated data and is never
// produced here.
func Classify(c recipe.Confidence) recipe.Class {
	switch {
	case c.Overall >= 0.75:
		return recipe.ClassHigh
	case c.Overall >= 0.5:
		return recipe.ClassMedium
	default:
		return recipe.ClassLow
	}
}
