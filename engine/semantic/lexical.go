package semantic

import (
	"context"
	"fmt"
	"sort"
	"strings"

	pb "github.com/qdrant/go-client/qdrant"
)

// lexicalPoolMultiplier oversizes the scroll fetch so term-count ranking
// has candidates to reorder.
const lexicalPoolMultiplier = 10

// Lexical performs the keyword fallback: a full-text scroll over fragment
// text matching any query term, ranked by the number of terms matched with
// ties kept in store scroll order. This path is a recall safety-net; its
// rank quality is deliberately simpler than vector search.
func (v *VectorStore) Lexical(ctx context.Context, terms []string, limit int) ([]Hit, error) {
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	should := make([]*pb.Condition, 0, len(terms))
	for _, term := range terms {
		should = append(should, &pb.Condition{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key:   fieldText,
					Match: &pb.Match{MatchValue: &pb.Match_Text{Text: term}},
				},
			},
		})
	}

	n := uint32(limit * lexicalPoolMultiplier)
	resp, err := v.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: v.collection,
		Filter:         &pb.Filter{Should: should},
		Limit:          &n,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: lexical scroll: %w", err)
	}

	var hits []Hit
	for _, r := range resp.GetResult() {
		frag := decodeFragment(r.GetPayload())
		matched := countMatches(frag.Text, terms)
		if matched == 0 {
			continue
		}
		hits = append(hits, Hit{
			Fragment: frag,
			Score:    float64(matched) / float64(len(terms)),
		})
	}

	// Stable sort: more terms matched first, scroll order preserved on ties.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// countMatches counts how many terms appear in text, case-insensitive.
func countMatches(text string, terms []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			n++
		}
	}
	return n
}
