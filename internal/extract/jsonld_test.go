package extract

import (
	"context"
	"testing"
)

const graphFixture = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"WebSite","name":"Example Food"},
  {"@type":["Recipe","Thing"],
   "name":"Shakshuka",
   "description":"Eggs poached in spiced tomato sauce.",
   "recipeIngredient":["2 tablespoons olive oil","1 onion, diced","4 eggs"],
   "recipeInstructions":[
     {"@type":"HowToSection","name":"Sauce","itemListElement":[
       {"@type":"HowToStep","text":"Soften the onion in the oil."},
       {"@type":"HowToStep","text":"Add tomatoes and simmer."}]},
     {"@type":"HowToStep","text":"Crack in the eggs and cover."}],
   "recipeYield":"4 servings",
   "totalTime":"PT1H30M",
   "prepTime":"PT10M",
   "recipeCuisine":["Middle Eastern"],
   "image":{"@type":"ImageObject","url":"https://example.com/shakshuka.jpg"}}
]}
</script>
</head><body></body></html>`

func TestMarkupStrategy_GraphAndHowToSteps(t *testing.T) {
	rec, err := MarkupStrategy{}.TryExtract(context.Background(), "https://example.com/r", []byte(graphFixture))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Title != "Shakshuka" {
		t.Errorf("title = %q", rec.Title)
	}
	if len(rec.Ingredients) != 3 {
		t.Fatalf("expected 3 ingredients, got %d", len(rec.Ingredients))
	}
	first := rec.Ingredients[0]
	if first.Quantity != "2" || first.Unit != "tablespoons" || first.Name != "olive oil" {
		t.Errorf("ingredient parse = %+v", first)
	}
	if len(rec.Instructions) != 3 {
		t.Fatalf("expected 3 flattened steps, got %d: %v", len(rec.Instructions), rec.Instructions)
	}
	if rec.Instructions[0] != "Soften the onion in the oil." {
		t.Errorf("step order wrong: %q", rec.Instructions[0])
	}
	if rec.Servings != 4 {
		t.Errorf("servings = %d", rec.Servings)
	}
	if rec.TotalMinutes != 90 {
		t.Errorf("totalMinutes = %d", rec.TotalMinutes)
	}
	if rec.PrepMinutes != 10 {
		t.Errorf("prepMinutes = %d", rec.PrepMinutes)
	}
	if rec.ImageURL != "https://example.com/shakshuka.jpg" {
		t.Errorf("imageUrl = %q", rec.ImageURL)
	}
}

func TestMarkupStrategy_NoRecipeMarkup(t *testing.T) {
	page := []byte(`<html><head><script type="application/ld+json">{"@type":"Article","name":"Ten kitchen tips"}</script></head></html>`)
	rec, err := MarkupStrategy{}.TryExtract(context.Background(), "https://example.com/a", page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil for non-recipe markup, got %+v", rec)
	}
}

func TestMarkupStrategy_MalformedJSONSkipped(t *testing.T) {
	page := []byte(`<html><head>
<script type="application/ld+json">{not json</script>
<script type="application/ld+json">{"@type":"Recipe","name":"Toast","recipeIngredient":["1 slice bread"],"recipeInstructions":"Toast the bread."}</script>
</head></html>`)
	rec, err := MarkupStrategy{}.TryExtract(context.Background(), "https://example.com/t", page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec == nil || rec.Title != "Toast" {
		t.Fatalf("expected second block to parse, got %+v", rec)
	}
	if len(rec.Instructions) != 1 || rec.Instructions[0] != "Toast the bread." {
		t.Fatalf("plain string instructions: %v", rec.Instructions)
	}
}

func TestParseIngredientLine(t *testing.T) {
	cases := []struct {
		line     string
		quantity string
		unit     string
		name     string
	}{
		{"2 cups flour", "2", "cups", "flour"},
		{"1/2 tsp salt", "1/2", "tsp", "salt"},
		{"salt to taste", "", "", "salt to taste"},
		{"3 eggs", "3", "", "eggs"},
	}
	for _, tc := range cases {
		got := parseIngredientLine(tc.line)
		if got.Quantity != tc.quantity || got.Unit != tc.unit || got.Name != tc.name {
			t.Errorf("parseIngredientLine(%q) = %+v", tc.line, got)
		}
	}
}

func TestIsoMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"PT1H30M", 90},
		{"PT45M", 45},
		{"P1DT2H", 26 * 60},
		{"", 0},
		{"45 minutes", 0},
	}
	for _, tc := range cases {
		if got := isoMinutes(tc.in); got != tc.want {
			t.Errorf("isoMinutes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
