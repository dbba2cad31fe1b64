package synth

import (
	"fmt"
	"strings"

	"github.com/podsift/podsift/engine/domain"
)

// buildPrompt lays out the question and the numbered source passages, with
// the citation and word-budget rules the validator will hold the reply to.
func buildPrompt(question string, sources []domain.ScoredResult, wordBudget int) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You answer questions about podcast conversations using ONLY the numbered source passages below.
Rules:
- Answer in at most %d words.
- Place a citation marker like [1] immediately after every factual claim.
- Cite only the source numbers provided. Do not invent sources.
- If the passages do not answer the question, say so, still citing the closest passage.

Question: %s

Sources:
`, wordBudget, question)

	for i, src := range sources {
		fmt.Fprintf(&b, "[%d] %s — %s (%s)\n%s\n\n",
			i+1,
			src.PodcastName,
			src.EpisodeTitle,
			domain.FormatTimestamp(src.Fragment.StartTime),
			src.Fragment.Text,
		)
	}

	b.WriteString("Answer:")
	return b.String()
}
