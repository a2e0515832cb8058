// Package pipeline sequences discovery, extraction, validation and caching
// for one request, escalating through fallback tiers when yield is
// insufficient. Callers always receive a result object for provider-side
// failures; only malformed input errors synchronously.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/plateful/recipescout/internal/cache"
	"github.com/plateful/recipescout/internal/extract"
	"github.com/plateful/recipescout/internal/query"
	"github.com/plateful/recipescout/internal/recipe"
	"github.com/plateful/recipescout/internal/score"
	"github.com/plateful/recipescout/internal/search"
	"github.com/plateful/recipescout/internal/static"
)

// ErrBadRequest is the only synchronous failure mode of the inbound
// contract: the request itself is malformed.
var ErrBadRequest = errors.New("bad request")

// Pipeline wires the components of one discovery run. Primary is required;
// everything else degrades gracefully when absent.
type Pipeline struct {
	Primary   *search.Client
	Secondary *search.Client
	Engine    *extract.Engine
	Scorer    *score.Scorer
	Cache     cache.Store
	Config    Config
}

// Result is the outcome of a run. InsufficientYield is the only condition
// that should visibly degrade the caller's experience; it is never an error.
type Result struct {
	Records           []recipe.Recipe `json:"records"`
	InsufficientYield bool            `json:"insufficientYield"`
	Errors            []ErrorRecord   `json:"errors,omitempty"`
	Usage             Usage           `json:"usage"`
	FromCache         bool            `json:"fromCache,omitempty"`
}

// Run executes the pipeline synchronously and returns the aggregate result.
func (p *Pipeline) Run(ctx context.Context, req recipe.Request) (Result, error) {
	if err := p.check(req); err != nil {
		return Result{}, err
	}
	return p.run(ctx, req, func(Event) {}), nil
}

// RunStream executes the pipeline and emits ordered progress events on the
// returned channel. The channel is closed after the final complete or error
// event.
func (p *Pipeline) RunStream(ctx context.Context, req recipe.Request) (<-chan Event, error) {
	if err := p.check(req); err != nil {
		return nil, err
	}
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		emit := func(e Event) {
			select {
			case ch <- e:
			case <-ctx.Done():
			}
		}
		p.run(ctx, req, emit)
		if ctx.Err() != nil {
			// The stream still gets a terminal event when the run is cut
			// short; best effort in case the consumer is gone too.
			select {
			case ch <- Event{Type: EventError, Message: ctx.Err().Error()}:
			default:
			}
		}
	}()
	return ch, nil
}

func (p *Pipeline) check(req recipe.Request) error {
	if p.Engine == nil {
		return fmt.Errorf("%w: pipeline has no extraction engine", ErrBadRequest)
	}
	norm := req.Normalized()
	if norm.Topic == "" && norm.Cuisine == "" {
		return fmt.Errorf("%w: topic or cuisine required", ErrBadRequest)
	}
	return nil
}

// runState is owned by the coordinating goroutine; workers report back over
// a channel, so no field here needs locking.
type runState struct {
	emit    func(Event)
	res     *Result
	pending []ErrorRecord
}

// enter emits a stage event carrying the errors accumulated since the
// previous stage event.
func (st *runState) enter(stage State, processed, total int) {
	st.emit(Event{Type: EventStage, Stage: stage, Processed: processed, Total: total, Errors: st.pending})
	st.pending = nil
}

func (st *runState) fail(stage State, url string, err error) {
	rec := ErrorRecord{Stage: stage, URL: url, Message: err.Error()}
	st.res.Errors = append(st.res.Errors, rec)
	st.pending = append(st.pending, rec)
}

func (p *Pipeline) run(ctx context.Context, req recipe.Request, emit func(Event)) Result {
	req = req.Normalized()
	res := Result{}
	st := &runState{emit: emit, res: &res}
	key := cache.Key(req)

	var records []recipe.Recipe
	have := map[string]struct{}{}

	// A still-valid cached result skips the live tiers: no outbound calls. A
	// full-count entry returns as-is; a smaller one seeds the run and the
	// offline tiers below pad it out, so a degraded request repeated within
	// the TTL keeps the same shape as its first answer.
	if p.Cache != nil {
		if e, ok, err := p.Cache.Get(ctx, key); err == nil && ok && len(e.Records) > 0 {
			res.Usage.CacheHits++
			res.FromCache = true
			if len(e.Records) >= req.Count {
				res.Records = e.Records
				emit(Event{Type: EventComplete, RecordCount: len(res.Records)})
				return res
			}
			for i := range e.Records {
				if _, dup := have[e.Records[i].SourceURL]; dup {
					continue
				}
				have[e.Records[i].SourceURL] = struct{}{}
				records = append(records, e.Records[i])
			}
		} else {
			res.Usage.CacheMisses++
		}
	}

	if !res.FromCache {
		runCtx, cancel := context.WithTimeout(ctx, p.Config.wallBudget())
		defer cancel()

		queries := query.Build(req)

		// Tier 0: primary provider.
		st.enter(StateDiscovering, 0, 0)
		p.discoverAndExtract(runCtx, st, &res, p.Primary, queries, req, have, &records)

		liveYield := len(records)
		if liveYield < req.Count {
			st.enter(StateEscalating, len(records), req.Count)

			// Tier 1: secondary provider, same broadened query ladder.
			if p.Secondary != nil && runCtx.Err() == nil {
				p.discoverAndExtract(runCtx, st, &res, p.Secondary, queries, req, have, &records)
				liveYield = len(records)
			}
		}

		// Cache the live yield before any offline tier pads it out.
		// Placeholder and curated records are never cached.
		if p.Cache != nil && liveYield > 0 {
			if err := p.Cache.Put(ctx, key, records, classForSet(records)); err != nil {
				log.Warn().Err(err).Msg("cache write failed")
			}
		}
	}

	// Tier 2: still-valid cached entries for overlapping (relaxed) requests.
	if len(records) < req.Count && p.Cache != nil {
		st.enter(StateCacheOnly, len(records), req.Count)
		p.fillFromCache(ctx, st, req, have, &records)
	}

	// Tier 3: bundled curated dataset under the same constraints.
	if len(records) < req.Count {
		st.enter(StateStaticDataset, len(records), req.Count)
		curated, err := static.Select(req, req.Count-len(records))
		if err != nil {
			st.fail(StateStaticDataset, "", err)
		}
		for _, rec := range curated {
			if _, dup := have[rec.SourceURL]; dup {
				continue
			}
			have[rec.SourceURL] = struct{}{}
			records = append(records, rec)
			emit(Event{Type: EventRecord, Record: &records[len(records)-1]})
		}
	}

	// Tier 4: synthesized placeholders so a soft shortfall never becomes a
	// hard failure.
	organicYield := len(records)
	if organicYield < req.Count {
		st.enter(StateSynthesized, len(records), req.Count)
		for _, rec := range static.Synthesize(req, req.Count-len(records)) {
			records = append(records, rec)
			res.Usage.Synthesized++
			emit(Event{Type: EventRecord, Record: &records[len(records)-1]})
		}
	}

	res.Records = records
	res.InsufficientYield = organicYield < req.Count
	if res.InsufficientYield {
		st.enter(StateDone, len(records), req.Count)
	} else {
		st.enter(StateSufficient, len(records), req.Count)
	}
	if ctx.Err() == nil {
		emit(Event{Type: EventComplete, RecordCount: len(records)})
	}
	return res
}

// discoverAndExtract runs one provider tier: discovery with retry and
// broadening, then bounded-concurrency extraction and validation of the
// candidates.
func (p *Pipeline) discoverAndExtract(ctx context.Context, st *runState, res *Result, client *search.Client, queries []query.Query, req recipe.Request, have map[string]struct{}, records *[]recipe.Recipe) {
	if client == nil || ctx.Err() != nil {
		return
	}
	res.Usage.SearchCalls++
	// Oversample so a few failed extractions do not starve the yield.
	cands, err := client.Discover(ctx, queries, req.Count*p.Config.candidateFactor())
	if err != nil {
		st.fail(StateDiscovering, "", err)
		return
	}
	fresh := cands[:0]
	for _, c := range cands {
		if _, dup := have[c.URL]; !dup {
			fresh = append(fresh, c)
		}
	}
	p.extractPhase(ctx, st, res, fresh, req, have, records)
}

func (p *Pipeline) scorer() *score.Scorer {
	if p.Scorer != nil {
		return p.Scorer
	}
	return &score.Scorer{}
}

type outcome struct {
	cand search.Candidate
	rec  *recipe.Recipe
	err  error
}

// extractPhase fans candidates out to a bounded worker pool and validates
// results as they complete. Workers communicate back over a channel; the
// coordinator owns all shared state. Once the requested count is reached, or
// the wall budget expires, no new work is issued.
func (p *Pipeline) extractPhase(ctx context.Context, st *runState, res *Result, cands []search.Candidate, req recipe.Request, have map[string]struct{}, records *[]recipe.Recipe) {
	if len(cands) == 0 {
		return
	}
	st.enter(StateExtracting, 0, len(cands))

	workCtx, stopWork := context.WithCancel(ctx)
	defer stopWork()

	workers := p.Config.maxConcurrent()
	if workers > len(cands) {
		workers = len(cands)
	}
	jobs := make(chan search.Candidate)
	results := make(chan outcome, len(cands))
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for cand := range jobs {
				urlCtx, cancel := context.WithTimeout(workCtx, p.Config.perURLTimeout())
				rec, err := p.Engine.Extract(urlCtx, cand.URL)
				cancel()
				results <- outcome{cand: cand, rec: rec, err: err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, cand := range cands {
			select {
			case jobs <- cand:
			case <-workCtx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	processed := 0
	for oc := range results {
		if oc.err != nil && workCtx.Err() != nil && errors.Is(oc.err, context.Canceled) {
			// The coordinator cancelled this sibling after the target was
			// reached; the URL itself never failed.
			continue
		}
		processed++
		res.Usage.Extractions++
		st.enter(StateValidating, processed, len(cands))
		switch {
		case oc.err != nil:
			res.Usage.ExtractionFailures++
			st.fail(StateExtracting, oc.cand.URL, oc.err)
		default:
			if err := p.scorer().Validate(oc.rec, req); err != nil {
				res.Usage.Invalid++
				st.fail(StateValidating, oc.cand.URL, err)
				break
			}
			res.Usage.Validated++
			if p.Cache != nil {
				_ = p.Cache.TouchSource(ctx, oc.rec.SourceURL)
			}
			if _, dup := have[oc.rec.SourceURL]; !dup {
				have[oc.rec.SourceURL] = struct{}{}
				*records = append(*records, *oc.rec)
				st.emit(Event{Type: EventRecord, Record: oc.rec})
			}
		}
		if len(*records) >= req.Count || workCtx.Err() != nil {
			stopWork()
		}
	}
}

// fillFromCache serves still-valid entries cached for overlapping requests:
// the same request with soft constraints (difficulty, time cap, country,
// required ingredients) progressively relaxed. Dietary and exclusion
// constraints are never relaxed, and retrieved records are re-checked
// against them.
func (p *Pipeline) fillFromCache(ctx context.Context, st *runState, req recipe.Request, have map[string]struct{}, records *[]recipe.Recipe) {
	for _, rel := range relaxations(req) {
		if len(*records) >= req.Count {
			return
		}
		e, ok, err := p.Cache.Get(ctx, cache.Key(rel))
		if err != nil || !ok {
			continue
		}
		for i := range e.Records {
			rec := e.Records[i]
			if !satisfies(&rec, req) {
				continue
			}
			if _, dup := have[rec.SourceURL]; dup {
				continue
			}
			have[rec.SourceURL] = struct{}{}
			*records = append(*records, rec)
			st.emit(Event{Type: EventRecord, Record: &rec})
			if len(*records) >= req.Count {
				return
			}
		}
	}
}

// relaxations yields overlapping request variants, nearest first.
func relaxations(req recipe.Request) []recipe.Request {
	var out []recipe.Request
	add := func(r recipe.Request) {
		out = append(out, r.Normalized())
	}
	if req.Difficulty != "" {
		r := req
		r.Difficulty = ""
		add(r)
	}
	if req.MaxMinutes > 0 {
		r := req
		r.Difficulty = ""
		r.MaxMinutes = 0
		add(r)
	}
	if req.Country != "" {
		r := req
		r.Difficulty = ""
		r.MaxMinutes = 0
		r.Country = ""
		add(r)
	}
	if len(req.Include) > 0 {
		r := req
		r.Difficulty = ""
		r.MaxMinutes = 0
		r.Country = ""
		r.Include = nil
		add(r)
	}
	return out
}

// satisfies re-checks a cached record against the hard constraints of the
// current request.
func satisfies(rec *recipe.Recipe, req recipe.Request) bool {
	if !rec.IsValid() {
		return false
	}
	if req.MaxMinutes > 0 && rec.TotalMinutes > req.MaxMinutes {
		return false
	}
	for _, ex := range req.Exclude {
		for _, ing := range rec.Ingredients {
			if containsLower(ing.Name, ex) {
				return false
			}
		}
	}
	if req.Cuisine != "" && len(rec.Cuisines) > 0 && !rec.HasCuisine(req.Cuisine) {
		return false
	}
	return true
}

func containsLower(s, sub string) bool {
	return sub != "" && strings.Contains(strings.ToLower(s), sub)
}

// classForSet picks the most conservative lifetime for a record set: the
// lowest confidence class present.
func classForSet(records []recipe.Recipe) recipe.Class {
	lowest := recipe.ClassHigh
	for i := range records {
		switch score.Classify(records[i].Confidence) {
		case recipe.ClassLow:
			return recipe.ClassLow
		case recipe.ClassMedium:
			lowest = recipe.ClassMedium
		}
	}
	return lowest
}
