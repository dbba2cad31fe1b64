package search

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/podsift/podsift/engine/domain"
)

// maxExcerptRunes bounds the text carried per result item; the full
// fragment text still reaches the caller through answer citations.
const maxExcerptRunes = 280

// assemble slices the fused list into the requested page and fills in the
// response envelope. An offset past the end yields an empty page, not an
// error; total_results always reflects the pre-pagination count.
func (s *Service) assemble(st *state, start time.Time) domain.SearchResponse {
	total := len(st.fused)

	lo := st.req.Offset
	if lo > total {
		lo = total
	}
	hi := lo + st.req.Limit
	if hi > total {
		hi = total
	}

	items := make([]domain.ResultItem, 0, hi-lo)
	for _, r := range st.fused[lo:hi] {
		items = append(items, domain.ResultItem{
			EpisodeID:    r.Fragment.EpisodeID,
			FeedSlug:     r.Fragment.FeedSlug,
			ChunkIndex:   r.Fragment.ChunkIndex,
			Speaker:      r.Fragment.Speaker,
			Score:        r.Score,
			Source:       r.Source,
			PodcastName:  r.PodcastName,
			EpisodeTitle: r.EpisodeTitle,
			PublishedAt:  r.PublishedAt,
			Topics:       r.Topics,
			Excerpt:      makeExcerpt(r.Fragment.Text),
			Timestamp:    domain.Timespan{Start: r.Fragment.StartTime, End: r.Fragment.EndTime},
		})
	}

	answer := st.answer
	if len(items) == 0 {
		answer = nil
	}

	return domain.SearchResponse{
		Results:          items,
		Answer:           answer,
		TotalResults:     total,
		SearchMethod:     methodOf(st.fused),
		CacheHit:         st.cacheHit,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

// methodOf reports which search path produced the result set.
func methodOf(results []domain.ScoredResult) string {
	var vec, lex bool
	for _, r := range results {
		switch r.Source {
		case domain.SourceVector:
			vec = true
		case domain.SourceLexical:
			lex = true
		case domain.SourceBoth:
			return domain.MethodHybrid
		}
	}
	switch {
	case vec && lex:
		return domain.MethodHybrid
	case lex:
		return domain.MethodText
	default:
		return domain.MethodVector
	}
}

// makeExcerpt truncates fragment text on a rune boundary, backing up to
// the previous space when one is close enough to avoid splitting a word.
func makeExcerpt(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= maxExcerptRunes {
		return text
	}
	runes := []rune(text)[:maxExcerptRunes]
	cut := string(runes)
	if idx := strings.LastIndexByte(cut, ' '); idx > maxExcerptRunes/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "…"
}
