// Package search orchestrates the hybrid retrieval pipeline: normalize,
// cache lookup, embed, vector search, lexical fallback, fusion, metadata
// enrichment, cache store, conditional answer synthesis, and page assembly.
// Each transition is its own pipeline stage so its trigger condition is
// independently testable. Degraded upstreams are ordinary state, not
// errors; only request validation can fail a search.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/podsift/podsift/engine/cache"
	"github.com/podsift/podsift/engine/domain"
	"github.com/podsift/podsift/engine/query"
	"github.com/podsift/podsift/engine/semantic"
	"github.com/podsift/podsift/pkg/fn"
	"github.com/podsift/podsift/pkg/metrics"
	"github.com/podsift/podsift/pkg/resilience"
)

// EmbeddingClient maps text to a dense vector.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher executes similarity search with threshold filtering.
type VectorSearcher interface {
	Search(ctx context.Context, embedding []float32, p semantic.SearchParams) ([]semantic.Hit, error)
}

// LexicalSearcher executes the keyword fallback.
type LexicalSearcher interface {
	Lexical(ctx context.Context, terms []string, limit int) ([]semantic.Hit, error)
}

// Enricher joins episode metadata onto fused results.
type Enricher interface {
	Enrich(ctx context.Context, results []domain.ScoredResult) []domain.ScoredResult
}

// Synthesizer produces the optional citation-grounded answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, results []domain.ScoredResult) *domain.SynthesizedAnswer
}

// Publisher emits audit events. May be nil.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// AuditSubject carries per-query telemetry for offline review.
const AuditSubject = "podsift.query.audit"

// AuditEvent summarizes one handled search.
type AuditEvent struct {
	Query      string    `json:"query"`
	Method     string    `json:"method"`
	Results    int       `json:"results"`
	CacheHit   bool      `json:"cache_hit"`
	Answered   bool      `json:"answered"`
	DurationMs int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

// Options configures the pipeline.
type Options struct {
	// SearchLimit is the size of the internal fused list, independent of
	// the caller's page limit.
	SearchLimit int
	// MinScore is the vector inclusion threshold.
	MinScore float64
	// SynthMinScore is the distinct, typically higher bar the best result
	// must clear before synthesis is invoked.
	SynthMinScore float64
	// MinVectorResults triggers the lexical fallback when vector search
	// returns fewer usable hits than this.
	MinVectorResults int
	// PoolMultiplier oversizes the vector candidate pool.
	PoolMultiplier int
	// Dims is the embedding dimensionality expected by the vector store.
	Dims int

	EmbedTimeout  time.Duration
	SearchTimeout time.Duration
}

// DefaultOptions returns sensible defaults. The two score thresholds are
// deliberately separate tunables.
func DefaultOptions() Options {
	return Options{
		SearchLimit:      30,
		MinScore:         0.5,
		SynthMinScore:    0.7,
		MinVectorResults: 3,
		PoolMultiplier:   semantic.DefaultPoolMultiplier,
		Dims:             768,
		EmbedTimeout:     5 * time.Second,
		SearchTimeout:    5 * time.Second,
	}
}

// Service is the hybrid search orchestrator.
type Service struct {
	embed    EmbeddingClient
	breaker  *resilience.Breaker
	vector   VectorSearcher
	lexical  LexicalSearcher
	enricher Enricher
	synth    Synthesizer
	cache    *cache.ResultCache
	bus      Publisher
	opts     Options
	logger   *slog.Logger

	cacheHits   *metrics.Counter
	cacheMisses *metrics.Counter
	duration    *metrics.Histogram
	answered    *metrics.Counter
	byMethod    func(method string) *metrics.Counter
}

// New creates a search Service. breaker, bus, and reg may be nil.
func New(
	embed EmbeddingClient,
	breaker *resilience.Breaker,
	vector VectorSearcher,
	lexical LexicalSearcher,
	enricher Enricher,
	synth Synthesizer,
	resultCache *cache.ResultCache,
	bus Publisher,
	opts Options,
	reg *metrics.Registry,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = metrics.New()
	}
	def := DefaultOptions()
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = def.SearchLimit
	}
	if opts.MinVectorResults <= 0 {
		opts.MinVectorResults = def.MinVectorResults
	}
	if opts.Dims <= 0 {
		opts.Dims = def.Dims
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = def.EmbedTimeout
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = def.SearchTimeout
	}

	return &Service{
		embed:       embed,
		breaker:     breaker,
		vector:      vector,
		lexical:     lexical,
		enricher:    enricher,
		synth:       synth,
		cache:       resultCache,
		bus:         bus,
		opts:        opts,
		logger:      logger,
		cacheHits:   reg.Counter("podsift_cache_hits_total", "Result cache hits."),
		cacheMisses: reg.Counter("podsift_cache_misses_total", "Result cache misses."),
		duration:    reg.Histogram("podsift_search_duration_seconds", "End-to-end search latency.", nil),
		answered:    reg.Counter("podsift_answers_total", "Searches that produced a synthesized answer."),
		byMethod: func(method string) *metrics.Counter {
			return reg.Counter(metrics.WithLabels("podsift_search_total", "method", method), "Searches by method.")
		},
	}
}

// state threads one request through the stage chain.
type state struct {
	req        domain.SearchRequest
	normalized string
	cacheKey   string
	cacheHit   bool
	embedding  []float32
	vector     []semantic.Hit
	lexical    []semantic.Hit
	fused      []domain.ScoredResult
	answer     *domain.SynthesizedAnswer
}

// Search runs the full pipeline. The returned error is always a request
// validation failure; every upstream problem degrades inside the stages.
func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse, error) {
	start := time.Now()

	if err := domain.ValidateSearchRequest(&req); err != nil {
		return domain.SearchResponse{}, err
	}

	st := &state{req: req, normalized: query.Normalize(req.Query)}
	st.cacheKey = cache.Key(st.normalized, s.opts.SearchLimit, s.opts.MinScore)

	pipe := fn.Pipeline(
		fn.TracedStage("search.cache_lookup", s.stageCacheLookup),
		fn.TracedStage("search.embed", s.stageEmbed),
		fn.TracedStage("search.vector", s.stageVector),
		fn.TracedStage("search.lexical", s.stageLexical),
		fn.TracedStage("search.fuse", s.stageFuse),
		fn.TracedStage("search.enrich", s.stageEnrich),
		fn.TracedStage("search.cache_store", s.stageCacheStore),
		fn.TracedStage("search.synthesize", s.stageSynthesize),
	)
	if _, err := pipe(ctx, st).Unwrap(); err != nil {
		return domain.SearchResponse{}, err
	}

	resp := s.assemble(st, start)

	s.duration.Since(start)
	s.byMethod(resp.SearchMethod).Inc()
	if resp.Answer != nil {
		s.answered.Inc()
	}
	s.publishAudit(ctx, st, resp)

	s.logger.Info("search handled",
		"results", resp.TotalResults,
		"method", resp.SearchMethod,
		"cache_hit", resp.CacheHit,
		"answered", resp.Answer != nil,
		"duration_ms", resp.ProcessingTimeMs,
	)
	return resp, nil
}

func (s *Service) publishAudit(ctx context.Context, st *state, resp domain.SearchResponse) {
	if s.bus == nil {
		return
	}
	event := AuditEvent{
		Query:      st.normalized,
		Method:     resp.SearchMethod,
		Results:    resp.TotalResults,
		CacheHit:   resp.CacheHit,
		Answered:   resp.Answer != nil,
		DurationMs: resp.ProcessingTimeMs,
		At:         time.Now().UTC(),
	}
	if err := s.bus.Publish(ctx, AuditSubject, event); err != nil {
		s.logger.Warn("search: audit publish failed", "err", err)
	}
}
