// Package query turns a structured request into provider search queries.
// Pure functions over static tables; no I/O.
package query

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/plateful/recipescout/internal/recipe"
)

// Query is a single provider-ready search string with an optional language
// hint derived from the request's country tag.
type Query struct {
	Text     string
	Language string
}

// intentTerms bias providers toward single-recipe documents over aggregator
// pages.
var intentTerms = []string{"recipe", "ingredients", "instructions"}

// negativeTerms excludes known collection/gallery/roundup vocabulary.
var negativeTerms = []string{
	"best", "roundup", "ideas", "collection", "compilation", "listicle",
}

// dietarySynonyms expands a dietary tag into exclusion terms. Raw tags
// under-constrain free-text search, so a tag like "vegan" becomes explicit
// exclusions of the animal products it rules out.
var dietarySynonyms = map[string][]string{
	"vegan":       {"meat", "chicken", "beef", "pork", "fish", "egg", "butter", "cheese", "honey"},
	"vegetarian":  {"meat", "chicken", "beef", "pork", "fish", "bacon"},
	"gluten-free": {"wheat", "flour", "breadcrumbs", "soy sauce"},
	"dairy-free":  {"milk", "butter", "cheese", "cream", "yogurt"},
	"keto":        {"sugar", "flour", "rice", "potato", "pasta"},
	"nut-free":    {"peanut", "almond", "cashew", "walnut", "hazelnut"},
	"halal":       {"pork", "bacon", "lard", "wine"},
	"kosher":      {"pork", "shellfish", "bacon"},
}

// Build returns the primary query first, followed by progressively broader
// alternates for retry use. Broadening drops the least important constraint
// at each step: difficulty, then the time cap, then the country tag.
func Build(req recipe.Request) []Query {
	req = req.Normalized()
	lang := languageForCountry(req.Country)

	out := []Query{{Text: build(req, true, true, true), Language: lang}}
	if req.Difficulty != "" {
		out = append(out, Query{Text: build(req, false, true, true), Language: lang})
	}
	if req.MaxMinutes > 0 {
		out = append(out, Query{Text: build(req, false, false, true), Language: lang})
	}
	if req.Country != "" {
		out = append(out, Query{Text: build(req, false, false, false), Language: ""})
	}
	return dedupe(out)
}

func build(req recipe.Request, withDifficulty, withTime, withCountry bool) string {
	var b strings.Builder
	write := func(s string) {
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}

	write(req.Topic)
	if req.Cuisine != "" && !strings.Contains(req.Topic, req.Cuisine) {
		write(req.Cuisine)
	}
	if withCountry && req.Country != "" {
		write(req.Country)
	}
	for _, t := range intentTerms {
		if !strings.Contains(req.Topic, t) {
			write(t)
		}
	}
	for _, ing := range req.Include {
		write(quote(ing))
	}
	if withTime && req.MaxMinutes > 0 && req.MaxMinutes <= 30 {
		write(quote("quick"))
	}
	if withDifficulty && req.Difficulty != "" {
		write(req.Difficulty)
	}

	excluded := map[string]struct{}{}
	exclude := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return
		}
		if _, ok := excluded[term]; ok {
			return
		}
		excluded[term] = struct{}{}
		write("-" + quote(term))
	}
	for _, t := range negativeTerms {
		exclude(t)
	}
	for _, tag := range req.Dietary {
		syns, ok := dietarySynonyms[tag]
		if !ok {
			// Unknown tag: keep it as a positive constraint rather than
			// dropping the restriction silently.
			write(quote(tag))
			continue
		}
		for _, s := range syns {
			exclude(s)
		}
	}
	for _, ing := range req.Exclude {
		exclude(ing)
	}
	return b.String()
}

func quote(s string) string {
	if strings.ContainsRune(s, ' ') {
		return `"` + s + `"`
	}
	return s
}

func dedupe(qs []Query) []Query {
	seen := map[string]struct{}{}
	out := qs[:0]
	for _, q := range qs {
		if _, ok := seen[q.Text]; ok {
			continue
		}
		seen[q.Text] = struct{}{}
		out = append(out, q)
	}
	return out
}

// languageForCountry maps a country/region tag to a likely search language
// code, e.g. "mx" -> "es". Unknown or empty regions yield no hint.
func languageForCountry(country string) string {
	country = strings.TrimSpace(country)
	if country == "" {
		return ""
	}
	reg, err := language.ParseRegion(country)
	if err != nil {
		return ""
	}
	tag, err := language.Compose(reg)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}
