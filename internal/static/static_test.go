package static

import (
	"strings"
	"testing"

	"github.com/plateful/recipescout/internal/recipe"
)

func TestSelect_DatasetLoadsAndRecordsAreValid(t *testing.T) {
	recs, err := Select(recipe.Request{}, 0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("curated dataset is empty")
	}
	for _, r := range recs {
		if !r.IsValid() {
			t.Errorf("curated record %q is structurally invalid", r.Title)
		}
		if r.Method != recipe.MethodGeneratedFallback {
			t.Errorf("record %q method = %q", r.Title, r.Method)
		}
	}
}

func TestSelect_CuisineFilter(t *testing.T) {
	recs, err := Select(recipe.Request{Cuisine: "Mexican"}, 0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("expected at least one mexican recipe in the dataset")
	}
	for _, r := range recs {
		if !r.HasCuisine("mexican") {
			t.Errorf("record %q does not carry the requested cuisine", r.Title)
		}
	}
}

func TestSelect_DietaryFilter(t *testing.T) {
	recs, err := Select(recipe.Request{Dietary: []string{"vegan"}}, 0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("expected vegan entries in the dataset")
	}
	for _, r := range recs {
		for _, ing := range r.Ingredients {
			name := strings.ToLower(ing.Name)
			for _, animal := range []string{"chicken", "salmon", "egg", "feta", "parmesan", "butter"} {
				if strings.Contains(name, animal) {
					t.Errorf("vegan-filtered record %q contains %q", r.Title, ing.Name)
				}
			}
		}
	}
}

func TestSelect_ExcludeAndTimeFilters(t *testing.T) {
	recs, err := Select(recipe.Request{Exclude: []string{"chicken"}, MaxMinutes: 40}, 0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	for _, r := range recs {
		if r.TotalMinutes > 40 {
			t.Errorf("record %q exceeds the time budget: %d min", r.Title, r.TotalMinutes)
		}
		for _, ing := range r.Ingredients {
			if strings.Contains(strings.ToLower(ing.Name), "chicken") {
				t.Errorf("excluded ingredient leaked into %q", r.Title)
			}
		}
	}
}

func TestSelect_CapsAtN(t *testing.T) {
	recs, err := Select(recipe.Request{}, 2)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
}

func TestSynthesize_RecordsAreValidAndLabeled(t *testing.T) {
	recs := Synthesize(recipe.Request{Topic: "tacos", Cuisine: "mexican"}, 3)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, r := range recs {
		if !r.IsValid() {
			t.Errorf("synthesized record %d is structurally invalid", i)
		}
		if !r.LowConfidence {
			t.Errorf("synthesized record %d must be flagged low confidence", i)
		}
		if r.Method != recipe.MethodGeneratedFallback {
			t.Errorf("record %d method = %q", i, r.Method)
		}
		if !strings.HasPrefix(r.SourceURL, "recipescout://synthesized/") {
			t.Errorf("record %d source = %q", i, r.SourceURL)
		}
		if !strings.Contains(strings.ToLower(r.Title), "placeholder") {
			t.Errorf("record %d title does not announce itself: %q", i, r.Title)
		}
	}
}

func TestSynthesize_ZeroCount(t *testing.T) {
	if recs := Synthesize(recipe.Request{}, 0); recs != nil {
		t.Fatalf("expected nil for zero count, got %d records", len(recs))
	}
}
