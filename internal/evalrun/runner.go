// Package evalrun drives the evaluation pipeline: for every query in a
// query set, run it through the query composer and engine port, pair the
// retrieved documents against a judgement set, and score the graded-
// relevance IR metrics defined in metrics.go.
package evalrun

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/antflydb/searchctl/internal/dataset"
	"github.com/antflydb/searchctl/internal/engine"
	"github.com/antflydb/searchctl/internal/healthserver"
	"github.com/antflydb/searchctl/internal/querycomposer"
)

// Config controls concurrency and rate limiting of the evaluation run.
type Config struct {
	TopK               int
	MaxConcurrency     int
	RateLimitPerMinute int
}

// Report is the full output of one evaluation run.
type Report struct {
	DatasetID   string
	TopK        int
	TargetIndex string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Per         []QueryMetrics
	Aggregate   AggregateMetrics
}

// Runner executes an evaluation run against an index through the engine
// port, using the same query composer the search surface does.
type Runner struct {
	port        engine.Port
	config      Config
	rateLimiter *rate.Limiter
	metrics     *healthserver.Metrics
	logger      *zap.Logger
}

// New constructs a Runner. metrics and logger may be nil.
func New(port engine.Port, config Config, metrics *healthserver.Metrics, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}

	var limiter *rate.Limiter
	if config.RateLimitPerMinute > 0 {
		rps := float64(config.RateLimitPerMinute) / 60.0
		burst := config.RateLimitPerMinute / 4
		if burst < 1 {
			burst = 1
		}
		if burst > 5 {
			burst = 5
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}

	return &Runner{port: port, config: config, rateLimiter: limiter, metrics: metrics, logger: logger}
}

// WithTopK returns a shallow copy of the Runner configured to retrieve a
// different number of hits per query, letting callers override the
// configured default topK per request without rebuilding the rate limiter.
func (r *Runner) WithTopK(topK int) *Runner {
	if topK <= 0 {
		return r
	}
	cp := *r
	cp.config.TopK = topK
	return &cp
}

// Run evaluates every query in qs against index, scored against js.
func (r *Runner) Run(ctx context.Context, index string, qs *dataset.QuerySet, js *dataset.JudgementSet) (*Report, error) {
	startedAt := time.Now()

	if missing := dataset.CheckCoverage(qs, js); len(missing) > 0 {
		return nil, fmt.Errorf("query set %q has %d queries with no judgements: %v", qs.Name, len(missing), missing)
	}
	if unknown := dataset.UnknownJudgementQueries(qs, js); len(unknown) > 0 {
		return nil, fmt.Errorf("judgement set %q has judgements for %d query ids not in query set %q: %v", js.Name, len(unknown), qs.Name, unknown)
	}

	per := make([]QueryMetrics, len(qs.Queries))
	sem := make(chan struct{}, r.config.MaxConcurrency)
	var wg sync.WaitGroup
	var firstErr error
	var mu sync.Mutex

	for i, q := range qs.Queries {
		wg.Add(1)
		go func(idx int, query dataset.Query) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if r.rateLimiter != nil {
				if err := r.rateLimiter.Wait(ctx); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("query %q: rate limiter wait failed: %w", query.ID, err)
					}
					mu.Unlock()
					return
				}
			}

			m, err := r.evaluateQuery(ctx, index, query, js.ByQueryID[query.ID])
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("query %q: %w", query.ID, err)
				}
				mu.Unlock()
				return
			}
			per[idx] = m
		}(i, q)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if r.metrics != nil {
		r.metrics.EvalRunsTotal.Inc()
	}

	completedAt := time.Now()
	return &Report{
		DatasetID:   qs.Name,
		TopK:        r.config.TopK,
		TargetIndex: index,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Per:         per,
		Aggregate:   Aggregate(per),
	}, nil
}

func (r *Runner) evaluateQuery(ctx context.Context, index string, q dataset.Query, judgements []dataset.Judgement) (QueryMetrics, error) {
	req := querycomposer.SearchRequest{
		Query:          q.Text,
		Filters:        q.Filters,
		Sort:           q.Sort,
		MultiMatchMode: q.MultiMatchMode,
		PageSize:       r.config.TopK,
	}.Normalized()

	native := querycomposer.Compose(req)
	resp, err := r.port.Search(ctx, index, native, 0, r.config.TopK)
	if err != nil {
		return QueryMetrics{}, fmt.Errorf("searching: %w", err)
	}

	ids := make([]string, len(resp.Hits))
	for i, h := range resp.Hits {
		ids[i] = h.ID
	}

	m := ComputeMetrics(q.ID, ids, judgements, r.config.TopK)
	m.Intent = q.Intent
	return m, nil
}
