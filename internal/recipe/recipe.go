// Package recipe defines the core data model for the discovery pipeline.
// All other packages depend on recipe; recipe depends on nothing.
package recipe

import "strings"

// Method identifies which extraction strategy produced a record.
type Method string

const (
	MethodFieldExtraction   Method = "field-extraction"
	MethodStructuredMarkup  Method = "structured-markup"
	MethodGeneratedFallback Method = "generated-fallback"
)

// Ingredient is a single ingredient line with optional quantity and unit.
type Ingredient struct {
	Name     string `json:"name" yaml:"name"`
	Quantity string `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Confidence is the structured score attached to a validated record.
// Overall is a fixed-weight combination of the sub-scores; all values
// are in [0,1].
type Confidence struct {
	Overall      float64 `json:"overall"`
	Reliability  float64 `json:"reliability"`
	Completeness float64 `json:"completeness"`
	Freshness    float64 `json:"freshness"`
	Relevance    float64 `json:"relevance"`
}

// Class buckets a confidence value for cache-lifetime selection.
type Class string

const (
	ClassVerified Class = "verified"
	ClassHigh     Class = "high"
	ClassMedium   Class = "medium"
	ClassLow      Class = "low"
	ClassRaw      Class = "raw"
)

// Recipe is the structured output of extraction.
type Recipe struct {
	Title        string       `json:"title" yaml:"title"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Ingredients  []Ingredient `json:"ingredients" yaml:"ingredients"`
	Instructions []string     `json:"instructions" yaml:"instructions"`
	Servings     int          `json:"servings,omitempty" yaml:"servings,omitempty"`
	TotalMinutes int          `json:"totalMinutes,omitempty" yaml:"totalMinutes,omitempty"`
	PrepMinutes  int          `json:"prepMinutes,omitempty" yaml:"prepMinutes,omitempty"`
	CookMinutes  int          `json:"cookMinutes,omitempty" yaml:"cookMinutes,omitempty"`
	Cuisines     []string     `json:"cuisines,omitempty" yaml:"cuisines,omitempty"`
	ImageURL     string       `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	SourceURL    string       `json:"sourceUrl" yaml:"sourceUrl"`
	Method       Method       `json:"method" yaml:"method"`

	Confidence    Confidence `json:"confidence"`
	LowConfidence bool       `json:"lowConfidence,omitempty"`
}

// IsValid reports whether the record satisfies the structural invariant:
// non-empty title and source URL, at least one ingredient, at least one
// instruction step. Invalid records are discarded, never cached, never
// surfaced.
func (r *Recipe) IsValid() bool {
	if r == nil {
		return false
	}
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.SourceURL) == "" {
		return false
	}
	return len(r.Ingredients) >= 1 && len(r.Instructions) >= 1
}

// HasCuisine reports whether the record carries the given cuisine tag,
// case-insensitively.
func (r *Recipe) HasCuisine(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return false
	}
	for _, c := range r.Cuisines {
		if strings.ToLower(strings.TrimSpace(c)) == tag {
			return true
		}
	}
	return false
}
