package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/plateful/recipescout/internal/cache"
	"github.com/plateful/recipescout/internal/extract"
	"github.com/plateful/recipescout/internal/fetch"
	"github.com/plateful/recipescout/internal/llm"
	"github.com/plateful/recipescout/internal/pipeline"
	"github.com/plateful/recipescout/internal/query"
	"github.com/plateful/recipescout/internal/recipe"
	"github.com/plateful/recipescout/internal/robots"
	"github.com/plateful/recipescout/internal/score"
	"github.com/plateful/recipescout/internal/search"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		topic      string
		cuisine    string
		country    string
		dietary    string
		include    string
		exclude    string
		maxMinutes int
		difficulty string
		count      int

		searxURL  string
		searxKey  string
		searxUA   string
		braveKey  string
		fileIndex string

		llmBaseURL string
		llmModel   string
		llmKey     string

		cacheDir   string
		cacheRedis string
		cacheClear bool
		sweep      bool

		respectRobots bool

		configPath string
		concurrent int
		wallBudget time.Duration
		stream     bool
		dryRun     bool
		verbose    bool
	)

	flag.StringVar(&topic, "topic", "", "Free-text topic, e.g. 'enchiladas'")
	flag.StringVar(&cuisine, "cuisine", "", "Cuisine tag, e.g. 'mexican'")
	flag.StringVar(&country, "country", "", "Country/region tag, e.g. 'mx'")
	flag.StringVar(&dietary, "dietary", "", "Comma-separated dietary tags, e.g. 'vegan,nut-free'")
	flag.StringVar(&include, "include", "", "Comma-separated required ingredient terms")
	flag.StringVar(&exclude, "exclude", "", "Comma-separated excluded ingredient terms")
	flag.IntVar(&maxMinutes, "max.minutes", 0, "Maximum total time in minutes (0 disables)")
	flag.StringVar(&difficulty, "difficulty", "", "Difficulty tag, e.g. 'easy'")
	flag.IntVar(&count, "count", 3, "Desired result count (clamped to 1..10)")

	flag.StringVar(&searxURL, "searx.url", os.Getenv("SEARX_URL"), "SearxNG base URL (primary provider)")
	flag.StringVar(&searxKey, "searx.key", os.Getenv("SEARX_KEY"), "SearxNG API key (optional)")
	flag.StringVar(&searxUA, "searx.ua", "recipescout/1.0 (+https://github.com/plateful/recipescout)", "Custom User-Agent for SearxNG requests")
	flag.StringVar(&braveKey, "brave.key", os.Getenv("BRAVE_API_KEY"), "Brave Search API key (secondary provider)")
	flag.StringVar(&fileIndex, "search.file", os.Getenv("SEARCH_FILE"), "Path to JSON file for offline file-based search provider")

	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name for field extraction")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")

	flag.StringVar(&cacheDir, "cache.dir", ".recipescout-cache", "Cache directory path (file store)")
	flag.StringVar(&cacheRedis, "cache.redis", os.Getenv("REDIS_ADDR"), "Redis address for the cache store; overrides the file store")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&sweep, "cache.sweep", false, "Sweep expired cache entries and exit")

	flag.BoolVar(&respectRobots, "robots", true, "Honor robots.txt crawl rules when fetching documents")

	flag.StringVar(&configPath, "config", os.Getenv("RECIPESCOUT_CONFIG"), "Path to optional YAML config file")
	flag.IntVar(&concurrent, "max.concurrent", 0, "Maximum simultaneous extractions (0 uses config default)")
	flag.DurationVar(&wallBudget, "budget", 0, "Wall-clock budget for the run (0 uses config default)")
	flag.BoolVar(&stream, "stream", false, "Emit progress events as JSON lines on stdout")
	flag.BoolVar(&dryRun, "dry-run", false, "Print constructed queries and discovered URLs without extracting")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg := pipeline.Default()
	if configPath != "" {
		loaded, err := pipeline.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("config load failed")
		}
		cfg = loaded
	}
	if concurrent > 0 {
		cfg.MaxConcurrent = concurrent
	}
	if wallBudget > 0 {
		cfg.WallBudget = wallBudget
	}

	req := recipe.Request{
		Topic:      topic,
		Cuisine:    cuisine,
		Country:    country,
		Dietary:    splitList(dietary),
		Include:    splitList(include),
		Exclude:    splitList(exclude),
		MaxMinutes: maxMinutes,
		Difficulty: difficulty,
		Count:      count,
	}

	ctx := context.Background()

	store := buildStore(ctx, cacheDir, cacheRedis, cacheClear, cfg)
	if sweep {
		n, err := store.Sweep(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("cache sweep failed")
		}
		log.Info().Int("removed", n).Msg("cache sweep complete")
		return
	}

	primary, secondary := buildProviders(searxURL, searxKey, searxUA, braveKey, fileIndex, req, cfg)
	if dryRun {
		runDry(ctx, req, primary)
		return
	}

	p := &pipeline.Pipeline{
		Primary:   primary,
		Secondary: secondary,
		Engine:    buildEngine(ctx, llmBaseURL, llmModel, llmKey, respectRobots),
		Scorer: &score.Scorer{
			Weights:       cfg.Weights,
			LastExtracted: sourceAges(ctx, store),
		},
		Cache:  store,
		Config: cfg,
	}

	if stream {
		events, err := p.RunStream(ctx, req)
		if err != nil {
			log.Fatal().Err(err).Msg("pipeline rejected request")
		}
		enc := json.NewEncoder(os.Stdout)
		for e := range events {
			_ = enc.Encode(e)
		}
		return
	}

	res, err := p.Run(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline rejected request")
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
	if res.InsufficientYield {
		log.Warn().Int("records", len(res.Records)).Int("requested", req.Normalized().Count).Msg("insufficient yield; result includes fallback content")
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func buildStore(ctx context.Context, dir, redisAddr string, clear bool, cfg pipeline.Config) cache.Store {
	if redisAddr != "" {
		rs := cache.NewRedisStore(redisAddr)
		rs.TTLs = cfg.TTLTable()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", redisAddr).Msg("redis unreachable; using file cache")
		} else {
			return rs
		}
	}
	if clear {
		if err := cache.Clear(dir); err != nil {
			log.Warn().Err(err).Msg("cache clear failed")
		}
	}
	return &cache.FileStore{Dir: dir, TTLs: cfg.TTLTable()}
}

func buildProviders(searxURL, searxKey, searxUA, braveKey, fileIndex string, req recipe.Request, cfg pipeline.Config) (primary, secondary *search.Client) {
	filter := cfg.Filter
	if filter.MaxTotal <= 0 {
		filter.MaxTotal = req.Normalized().Count * 2
	}
	wrap := func(prov search.Provider) *search.Client {
		return &search.Client{Provider: prov, Filter: filter, MaxAttempts: cfg.DiscoverAttempts}
	}
	switch {
	case searxURL != "":
		primary = wrap(&search.SearxNG{BaseURL: searxURL, APIKey: searxKey, UserAgent: searxUA})
	case fileIndex != "":
		primary = wrap(&search.FileProvider{Path: fileIndex})
	}
	if braveKey != "" {
		secondary = wrap(&search.Brave{APIKey: braveKey})
	}
	if primary == nil && secondary != nil {
		primary, secondary = secondary, nil
	}
	if primary == nil {
		log.Warn().Msg("no search provider configured; only offline tiers can produce results")
	}
	return primary, secondary
}

func buildEngine(ctx context.Context, baseURL, model, key string, respectRobots bool) *extract.Engine {
	const userAgent = "recipescout/1.0 (+https://github.com/plateful/recipescout)"
	fetcher := &fetch.Client{
		UserAgent:   userAgent,
		MaxAttempts: 2,
	}
	if respectRobots {
		fetcher.Permission = &robots.Manager{UserAgent: userAgent}
	}
	strategies := []extract.Strategy{}
	if model != "" {
		transportCfg := openai.DefaultConfig(key)
		if baseURL != "" {
			transportCfg.BaseURL = baseURL
		}
		provider := &llm.OpenAIProvider{Inner: openai.NewClientWithConfig(transportCfg)}

		// Preflight is best-effort: warn and continue so the markup strategy
		// can still carry the run.
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if models, err := provider.ListModels(pingCtx); err != nil {
			log.Warn().Err(err).Msg("LLM model list failed; continuing")
		} else {
			log.Info().Int("count", len(models.Models)).Msg("LLM models available")
		}
		strategies = append(strategies, &extract.FieldStrategy{Client: provider, Model: model})
	}
	strategies = append(strategies, extract.MarkupStrategy{})
	return &extract.Engine{Fetcher: fetcher, Strategies: strategies}
}

// sourceAges adapts the cache store's per-source log to the scorer's
// freshness callback.
func sourceAges(ctx context.Context, store cache.Store) func(string) (time.Time, bool) {
	if store == nil {
		return nil
	}
	return func(url string) (time.Time, bool) {
		return store.LastSource(ctx, url)
	}
}

func runDry(ctx context.Context, req recipe.Request, primary *search.Client) {
	queries := query.Build(req)
	fmt.Println("Planned queries:")
	for i, q := range queries {
		fmt.Printf("%d. %s\n", i+1, q.Text)
	}
	if primary == nil {
		return
	}
	cands, err := primary.Discover(ctx, queries, req.Normalized().Count)
	if err != nil {
		log.Warn().Err(err).Msg("discovery failed")
		return
	}
	fmt.Println("\nDiscovered candidates:")
	for i, c := range cands {
		fmt.Printf("%d. %s - %s (%.2f)\n", i+1, c.Title, c.URL, c.Score)
	}
}
