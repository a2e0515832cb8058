package recipe

import "testing"

func TestRequest_NormalizedOrderAndCase(t *testing.T) {
	a := Request{Topic: "Tacos", Cuisine: "Mexican", Dietary: []string{"Vegan", "nut-free"}, Exclude: []string{"Cilantro", "onion"}, Count: 3}
	b := Request{Topic: "tacos ", Cuisine: "mexican", Dietary: []string{"nut-free", "vegan"}, Exclude: []string{"onion", "cilantro"}, Count: 3}
	na, nb := a.Normalized(), b.Normalized()
	if na.Topic != nb.Topic || na.Cuisine != nb.Cuisine {
		t.Fatalf("expected equal scalar fields: %+v vs %+v", na, nb)
	}
	for i := range na.Dietary {
		if na.Dietary[i] != nb.Dietary[i] {
			t.Fatalf("dietary order mismatch: %v vs %v", na.Dietary, nb.Dietary)
		}
	}
	for i := range na.Exclude {
		if na.Exclude[i] != nb.Exclude[i] {
			t.Fatalf("exclude order mismatch: %v vs %v", na.Exclude, nb.Exclude)
		}
	}
}

func TestRequest_NormalizedClampsCount(t *testing.T) {
	if got := (Request{Topic: "x", Count: 0}).Normalized().Count; got != MinCount {
		t.Fatalf("expected count clamped to %d, got %d", MinCount, got)
	}
	if got := (Request{Topic: "x", Count: 99}).Normalized().Count; got != MaxCount {
		t.Fatalf("expected count clamped to %d, got %d", MaxCount, got)
	}
}

func TestRecipe_IsValid(t *testing.T) {
	valid := Recipe{
		Title:        "Tacos",
		SourceURL:    "https://example.com/tacos",
		Ingredients:  []Ingredient{{Name: "tortillas"}},
		Instructions: []string{"assemble"},
	}
	if !valid.IsValid() {
		t.Fatal("expected valid record")
	}
	cases := []Recipe{
		{SourceURL: "https://example.com", Ingredients: []Ingredient{{Name: "x"}}, Instructions: []string{"y"}},
		{Title: "t", Ingredients: []Ingredient{{Name: "x"}}, Instructions: []string{"y"}},
		{Title: "t", SourceURL: "https://example.com", Instructions: []string{"y"}},
		{Title: "t", SourceURL: "https://example.com", Ingredients: []Ingredient{{Name: "x"}}},
	}
	for i, rec := range cases {
		if rec.IsValid() {
			t.Fatalf("case %d: expected invalid", i)
		}
	}
}
