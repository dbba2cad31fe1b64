package search

import (
	"context"

	"github.com/podsift/podsift/engine/fusion"
	"github.com/podsift/podsift/engine/query"
	"github.com/podsift/podsift/engine/semantic"
	"github.com/podsift/podsift/pkg/fn"
	"github.com/podsift/podsift/pkg/resilience"
)

// stageCacheLookup consults the result cache. A hit carries the fused,
// enriched, pre-pagination list, so every retrieval stage downstream
// becomes a no-op; synthesis still runs per request.
func (s *Service) stageCacheLookup(_ context.Context, st *state) fn.Result[*state] {
	if s.cache == nil {
		return fn.Ok(st)
	}
	if payload, ok := s.cache.Get(st.cacheKey); ok {
		st.fused = payload
		st.cacheHit = true
		s.cacheHits.Inc()
		return fn.Ok(st)
	}
	s.cacheMisses.Inc()
	return fn.Ok(st)
}

// stageEmbed turns the normalized query into a vector. Failures fail
// closed: the embedding stays nil and vector search is skipped.
func (s *Service) stageEmbed(ctx context.Context, st *state) fn.Result[*state] {
	if st.cacheHit {
		return fn.Ok(st)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
	defer cancel()

	embedding, err := resilience.Do(ctx, s.breaker, func(ctx context.Context) ([]float32, error) {
		return s.embed.Embed(ctx, st.normalized)
	})
	if err != nil {
		s.logger.Warn("search: embedding failed, vector path degraded", "err", err)
		return fn.Ok(st)
	}
	st.embedding = embedding
	return fn.Ok(st)
}

// stageVector runs similarity search against the vector store. A missing
// or mis-sized embedding skips the stage; a store error degrades to zero
// vector hits and lets the lexical fallback carry the request.
func (s *Service) stageVector(ctx context.Context, st *state) fn.Result[*state] {
	if st.cacheHit || len(st.embedding) != s.opts.Dims {
		return fn.Ok(st)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	hits, err := s.vector.Search(ctx, st.embedding, semantic.SearchParams{
		Limit:          s.opts.SearchLimit,
		MinScore:       s.opts.MinScore,
		PoolMultiplier: s.opts.PoolMultiplier,
	})
	if err != nil {
		s.logger.Warn("search: vector search failed", "err", err)
		return fn.Ok(st)
	}
	st.vector = hits
	return fn.Ok(st)
}

// stageLexical runs the keyword fallback when the vector path produced
// fewer usable hits than the configured minimum.
func (s *Service) stageLexical(ctx context.Context, st *state) fn.Result[*state] {
	if st.cacheHit || len(st.vector) >= s.opts.MinVectorResults {
		return fn.Ok(st)
	}
	terms := query.Terms(st.normalized)
	if len(terms) == 0 {
		return fn.Ok(st)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	hits, err := s.lexical.Lexical(ctx, terms, s.opts.SearchLimit)
	if err != nil {
		s.logger.Warn("search: lexical fallback failed", "err", err)
		return fn.Ok(st)
	}
	st.lexical = hits
	return fn.Ok(st)
}

// stageFuse merges the two hit lists into one deduplicated ranking.
func (s *Service) stageFuse(_ context.Context, st *state) fn.Result[*state] {
	if st.cacheHit {
		return fn.Ok(st)
	}
	st.fused = fusion.Fuse(st.vector, st.lexical)
	return fn.Ok(st)
}

// stageEnrich joins episode metadata onto the fused list. Cached payloads
// were enriched before being stored.
func (s *Service) stageEnrich(ctx context.Context, st *state) fn.Result[*state] {
	if st.cacheHit || len(st.fused) == 0 {
		return fn.Ok(st)
	}
	st.fused = s.enricher.Enrich(ctx, st.fused)
	return fn.Ok(st)
}

// stageCacheStore records the fused, enriched, pre-pagination list. Empty
// lists are cached too so a barren query does not hammer the stores.
func (s *Service) stageCacheStore(_ context.Context, st *state) fn.Result[*state] {
	if s.cache == nil || st.cacheHit {
		return fn.Ok(st)
	}
	s.cache.Put(st.cacheKey, st.fused)
	return fn.Ok(st)
}

// stageSynthesize invokes the answer synthesizer when the best result
// clears the synthesis threshold. Runs on cache hits as well; answers are
// never cached. Skipped when the requested page is past the end of the
// list, since an answer without visible results would dangle.
func (s *Service) stageSynthesize(ctx context.Context, st *state) fn.Result[*state] {
	if s.synth == nil || len(st.fused) == 0 {
		return fn.Ok(st)
	}
	if st.req.Offset >= len(st.fused) {
		return fn.Ok(st)
	}
	if st.fused[0].Score < s.opts.SynthMinScore {
		return fn.Ok(st)
	}
	st.answer = s.synth.Synthesize(ctx, st.normalized, st.fused)
	return fn.Ok(st)
}
