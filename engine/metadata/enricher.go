package metadata

import (
	"context"
	"log/slog"
	"time"

	"github.com/podsift/podsift/engine/domain"
)

// DefaultTimeout bounds the single batch lookup per request.
const DefaultTimeout = 2 * time.Second

// Enricher attaches episode metadata to fused search results.
type Enricher struct {
	store   Store
	timeout time.Duration
	logger  *slog.Logger
}

// NewEnricher creates an Enricher. A nil logger falls back to slog.Default.
func NewEnricher(store Store, timeout time.Duration, logger *slog.Logger) *Enricher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{store: store, timeout: timeout, logger: logger}
}

// Enrich joins metadata onto results in place and returns them. One batch
// lookup covers the deduplicated episode set; there is no per-fragment
// round trip. A store failure or an orphaned episode reference degrades to
// fallback fields, never to a dropped result or a failed request.
func (e *Enricher) Enrich(ctx context.Context, results []domain.ScoredResult) []domain.ScoredResult {
	if len(results) == 0 {
		return results
	}

	seen := make(map[domain.EpisodeID]bool)
	var ids []domain.EpisodeID
	for _, r := range results {
		if !seen[r.Fragment.EpisodeID] {
			seen[r.Fragment.EpisodeID] = true
			ids = append(ids, r.Fragment.EpisodeID)
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	meta, err := e.store.BatchGet(lookupCtx, ids)
	if err != nil {
		e.logger.Warn("metadata: batch lookup failed, using fallbacks", "episodes", len(ids), "err", err)
		meta = nil
	}

	for i := range results {
		if m, ok := meta[results[i].Fragment.EpisodeID]; ok {
			results[i].PodcastName = m.PodcastName
			results[i].EpisodeTitle = m.EpisodeTitle
			results[i].PublishedAt = m.PublishedAt
			results[i].Topics = m.Topics
		} else {
			applyFallback(&results[i])
		}
	}
	return results
}

// applyFallback fills the explicit defaults for an orphaned episode
// reference: the fragment's own feed slug stands in for the podcast name.
func applyFallback(r *domain.ScoredResult) {
	r.PodcastName = r.Fragment.FeedSlug
	r.EpisodeTitle = domain.UnknownEpisodeTitle
	r.PublishedAt = nil
	r.Topics = nil
}
