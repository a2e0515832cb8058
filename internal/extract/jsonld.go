package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/plateful/recipescout/internal/recipe"
)

// MarkupStrategy parses embedded schema.org/Recipe structured data, the same
// markup search engines rely on. It is the fallback when field extraction
// yields nothing. Pure parsing; no network.
type MarkupStrategy struct{}

func (MarkupStrategy) Name() string { return string(recipe.MethodStructuredMarkup) }

func (MarkupStrategy) TryExtract(_ context.Context, _ string, body []byte) (*recipe.Recipe, error) {
	for _, block := range ldJSONBlocks(body) {
		var v any
		if err := json.Unmarshal(block, &v); err != nil {
			continue
		}
		if node := findRecipeNode(v); node != nil {
			if rec := recipeFromNode(node); rec != nil {
				return rec, nil
			}
		}
	}
	return nil, nil
}

// ldJSONBlocks collects the contents of every
// <script type="application/ld+json"> element in the document.
func ldJSONBlocks(input []byte) [][]byte {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil || root == nil {
		return nil
	}
	var out [][]byte
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "script") {
			for _, a := range n.Attr {
				if strings.EqualFold(a.Key, "type") && strings.EqualFold(strings.TrimSpace(a.Val), "application/ld+json") {
					var b strings.Builder
					for c := n.FirstChild; c != nil; c = c.NextSibling {
						if c.Type == html.TextNode {
							b.WriteString(c.Data)
						}
					}
					if s := strings.TrimSpace(b.String()); s != "" {
						out = append(out, []byte(s))
					}
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// findRecipeNode searches a decoded JSON-LD value for an object whose @type
// is (or includes) "Recipe", descending into arrays and @graph containers.
func findRecipeNode(v any) map[string]any {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if node := findRecipeNode(item); node != nil {
				return node
			}
		}
	case map[string]any:
		if hasType(t, "Recipe") {
			return t
		}
		if graph, ok := t["@graph"]; ok {
			return findRecipeNode(graph)
		}
	}
	return nil
}

func hasType(node map[string]any, want string) bool {
	switch t := node["@type"].(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

func recipeFromNode(node map[string]any) *recipe.Recipe {
	rec := &recipe.Recipe{
		Title:       asString(node["name"]),
		Description: asString(node["description"]),
		Method:      recipe.MethodStructuredMarkup,
	}
	for _, line := range asStrings(node["recipeIngredient"]) {
		rec.Ingredients = append(rec.Ingredients, parseIngredientLine(line))
	}
	rec.Instructions = instructionSteps(node["recipeInstructions"])
	rec.Servings = parseYield(node["recipeYield"])
	rec.TotalMinutes = isoMinutes(asString(node["totalTime"]))
	rec.PrepMinutes = isoMinutes(asString(node["prepTime"]))
	rec.CookMinutes = isoMinutes(asString(node["cookTime"]))
	rec.Cuisines = asStrings(node["recipeCuisine"])
	rec.ImageURL = imageURL(node["image"])
	if rec.Title == "" || len(rec.Ingredients) == 0 {
		return nil
	}
	return rec
}

// instructionSteps accepts the common shapes of recipeInstructions: a plain
// string, a string array, HowToStep objects, or HowToSection containers.
func instructionSteps(v any) []string {
	var out []string
	var walk func(any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case []any:
			for _, item := range t {
				walk(item)
			}
		case map[string]any:
			if hasType(t, "HowToSection") {
				walk(t["itemListElement"])
				return
			}
			if s := strings.TrimSpace(asString(t["text"])); s != "" {
				out = append(out, s)
				return
			}
			if s := strings.TrimSpace(asString(t["name"])); s != "" {
				out = append(out, s)
			}
		}
	}
	walk(v)
	return out
}

// knownUnits recognized when splitting an ingredient line into
// quantity/unit/name.
var knownUnits = map[string]struct{}{
	"cup": {}, "cups": {}, "tablespoon": {}, "tablespoons": {}, "tbsp": {},
	"teaspoon": {}, "teaspoons": {}, "tsp": {}, "g": {}, "gram": {},
	"grams": {}, "kg": {}, "ml": {}, "l": {}, "oz": {}, "ounce": {},
	"ounces": {}, "lb": {}, "lbs": {}, "pound": {}, "pounds": {},
	"clove": {}, "cloves": {}, "slice": {}, "slices": {}, "can": {},
	"cans": {}, "pinch": {}, "bunch": {}, "handful": {},
}

// parseIngredientLine splits "2 cups flour" into quantity, unit and name
// best-effort. Lines that do not lead with a quantity keep the whole text as
// the name.
func parseIngredientLine(line string) recipe.Ingredient {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return recipe.Ingredient{}
	}
	if !looksNumeric(fields[0]) {
		return recipe.Ingredient{Name: strings.Join(fields, " ")}
	}
	ing := recipe.Ingredient{Quantity: fields[0]}
	rest := fields[1:]
	if len(rest) > 0 {
		if _, ok := knownUnits[strings.ToLower(rest[0])]; ok {
			ing.Unit = strings.ToLower(rest[0])
			rest = rest[1:]
		}
	}
	ing.Name = strings.Join(rest, " ")
	if ing.Name == "" {
		ing.Name = strings.Join(fields, " ")
		ing.Quantity = ""
		ing.Unit = ""
	}
	return ing
}

func looksNumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '/' && r != '.' && r != '-' && r != '½' && r != '¼' && r != '¾' {
			return false
		}
	}
	return s != ""
}

func parseYield(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		return leadingInt(t)
	case []any:
		for _, item := range t {
			if n := parseYield(item); n > 0 {
				return n
			}
		}
	}
	return 0
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}

// isoMinutes converts an ISO 8601 duration like "PT1H30M" to minutes.
// Unparseable input yields zero; a missing time is a confidence signal, not
// an error.
func isoMinutes(s string) int {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "P") {
		return 0
	}
	s = strings.TrimPrefix(s, "P")
	minutes := 0
	inTime := false
	num := ""
	for _, r := range s {
		switch {
		case r == 'T':
			inTime = true
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'D':
			minutes += 24 * 60 * atoiSafe(num)
			num = ""
		case r == 'H' && inTime:
			minutes += 60 * atoiSafe(num)
			num = ""
		case r == 'M' && inTime:
			minutes += atoiSafe(num)
			num = ""
		case r == 'S' && inTime:
			num = ""
		default:
			num = ""
		}
	}
	return minutes
}

func atoiSafe(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if s := imageURL(item); s != "" {
				return s
			}
		}
	case map[string]any:
		return strings.TrimSpace(asString(t["url"]))
	}
	return ""
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStrings(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
