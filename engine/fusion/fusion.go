// Package fusion merges vector and lexical result sets into one ranked,
// duplicate-free list on a shared [0,1] score scale.
package fusion

import (
	"sort"

	"github.com/podsift/podsift/engine/domain"
	"github.com/podsift/podsift/engine/semantic"
)

// Lexical-only hits are mapped affinely from their matched-term fraction
// into [lexicalFloor, lexicalFloor+lexicalSpan]. The ceiling sits below any
// confident vector score, so a keyword match can surface when vector search
// found nothing but never outranks a genuine high-confidence vector hit.
const (
	lexicalFloor = 0.05
	lexicalSpan  = 0.40
)

// LexicalScore maps a matched-term fraction in [0,1] onto the fused scale.
func LexicalScore(fraction float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return lexicalFloor + lexicalSpan*fraction
}

// Fuse combines the two result sets. A fragment present in both keeps its
// vector score and is marked SourceBoth. The final list is sorted by fused
// score descending, ties kept stable in vector-then-lexical arrival order.
func Fuse(vector, lexical []semantic.Hit) []domain.ScoredResult {
	fused := make([]domain.ScoredResult, 0, len(vector)+len(lexical))
	index := make(map[string]int, len(vector))

	for _, h := range vector {
		index[h.Fragment.Key()] = len(fused)
		fused = append(fused, domain.ScoredResult{
			Fragment: h.Fragment,
			Score:    h.Score,
			Source:   domain.SourceVector,
		})
	}

	for _, h := range lexical {
		if i, ok := index[h.Fragment.Key()]; ok {
			fused[i].Source = domain.SourceBoth
			continue
		}
		fused = append(fused, domain.ScoredResult{
			Fragment: h.Fragment,
			Score:    LexicalScore(h.Score),
			Source:   domain.SourceLexical,
		})
	}

	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	return fused
}
