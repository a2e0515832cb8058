// Package static backs the offline fallback tiers: a bundled, curated
// recipe set filtered by the same request constraints, and minimal
// synthesized placeholders so a soft shortfall never becomes a hard failure.
package static

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/plateful/recipescout/internal/recipe"
)

//go:embed recipes.yaml
var datasetYAML []byte

// entry is a dataset row: a recipe plus the dietary tags it satisfies.
type entry struct {
	recipe.Recipe `yaml:",inline"`
	Diets         []string `yaml:"diets"`
}

var (
	loadOnce sync.Once
	loaded   []entry
	loadErr  error
)

func load() ([]entry, error) {
	loadOnce.Do(func() {
		loadErr = yaml.Unmarshal(datasetYAML, &loaded)
	})
	return loaded, loadErr
}

// Select returns up to n curated recipes matching the request constraints.
// The same filters the live pipeline applies hold here: cuisine tag, dietary
// tags, time budget, and excluded ingredient terms.
func Select(req recipe.Request, n int) ([]recipe.Recipe, error) {
	entries, err := load()
	if err != nil {
		return nil, fmt.Errorf("load static dataset: %w", err)
	}
	req = req.Normalized()
	out := make([]recipe.Recipe, 0, n)
	for i := range entries {
		e := &entries[i]
		if !matches(e, req) {
			continue
		}
		rec := e.Recipe
		rec.Method = recipe.MethodGeneratedFallback
		out = append(out, rec)
		if n > 0 && len(out) >= n {
			break
		}
	}
	return out, nil
}

func matches(e *entry, req recipe.Request) bool {
	if req.Cuisine != "" && !e.HasCuisine(req.Cuisine) {
		return false
	}
	for _, want := range req.Dietary {
		if !containsFold(e.Diets, want) {
			return false
		}
	}
	if req.MaxMinutes > 0 && e.TotalMinutes > req.MaxMinutes {
		return false
	}
	for _, ex := range req.Exclude {
		for _, ing := range e.Ingredients {
			if strings.Contains(strings.ToLower(ing.Name), ex) {
				return false
			}
		}
	}
	return true
}

func containsFold(set []string, want string) bool {
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			return true
		}
	}
	return false
}

// Synthesize builds n minimal, clearly labeled placeholder records for the
// final fallback tier. Each satisfies the structural validity invariant so
// it can flow through the same surfaces as real records.
func Synthesize(req recipe.Request, n int) []recipe.Recipe {
	req = req.Normalized()
	if n <= 0 {
		return nil
	}
	subject := strings.TrimSpace(strings.Join(strings.Fields(req.Cuisine+" "+req.Topic), " "))
	if subject == "" {
		subject = "weeknight"
	}
	bases := []string{"bowl", "skillet", "salad", "soup", "bake"}
	out := make([]recipe.Recipe, 0, n)
	for i := 0; i < n; i++ {
		base := bases[i%len(bases)]
		rec := recipe.Recipe{
			Title:       fmt.Sprintf("Simple %s %s (placeholder)", subject, base),
			Description: "Automatically generated placeholder suggestion; no matching source document was found.",
			Ingredients: []recipe.Ingredient{
				{Name: "pantry staples of your choice"},
				{Name: "seasonal vegetables", Quantity: "2", Unit: "cups"},
			},
			Instructions: []string{
				"Combine the ingredients in the style of a " + base + ".",
				"Season to taste and serve.",
			},
			Servings:  2,
			Cuisines:  cuisinesFor(req),
			SourceURL: fmt.Sprintf("recipescout://synthesized/%d", i+1),
			Method:    recipe.MethodGeneratedFallback,
			Confidence: recipe.Confidence{
				Overall: 0.1, Reliability: 0.1, Completeness: 0.1, Freshness: 0.1, Relevance: 0.1,
			},
			LowConfidence: true,
		}
		out = append(out, rec)
	}
	return out
}

func cuisinesFor(req recipe.Request) []string {
	if req.Cuisine == "" {
		return nil
	}
	return []string{req.Cuisine}
}
