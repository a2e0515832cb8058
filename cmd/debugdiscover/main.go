package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/plateful/recipescout/internal/query"
	"github.com/plateful/recipescout/internal/recipe"
	"github.com/plateful/recipescout/internal/search"
)

// Small manual harness for poking at discovery against a live SearxNG.
func main() {
	base := os.Getenv("SEARX_URL")
	if base == "" {
		base = "http://localhost:8888"
	}
	topic := "enchiladas"
	if len(os.Args) > 1 {
		topic = os.Args[1]
	}
	client := &search.Client{
		Provider: &search.SearxNG{
			BaseURL:    base,
			HTTPClient: &http.Client{Timeout: 20 * time.Second},
			UserAgent:  "debugdiscover/1.0",
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	queries := query.Build(recipe.Request{Topic: topic, Count: 5})
	fmt.Println("query:", queries[0].Text)
	cands, err := client.Discover(ctx, queries, 5)
	fmt.Println("err:", err)
	for i, c := range cands {
		fmt.Printf("%d. %s - %s (%.2f)\n", i+1, c.Title, c.URL, c.Score)
	}
}
