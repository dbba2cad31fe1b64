// Package query canonicalizes raw query text and extracts search terms.
// The normalized form is used both for embedding and cache-key derivation,
// so two queries differing only in case or surrounding whitespace behave
// identically end to end.
package query

import "strings"

// Normalize trims surrounding whitespace and lower-cases the query.
// An empty result is a valid (if fruitless) query, not an error.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "to": true,
	"of": true, "in": true, "for": true, "on": true, "with": true,
	"at": true, "by": true, "from": true, "as": true, "into": true,
	"through": true, "during": true, "before": true, "after": true,
	"what": true, "where": true, "when": true, "how": true, "which": true,
	"who": true, "whom": true, "this": true, "that": true, "these": true,
	"those": true, "i": true, "me": true, "my": true, "it": true,
	"its": true, "and": true, "but": true, "or": true, "not": true,
	"about": true,
}

// Terms extracts lexical search terms from a normalized query: whitespace
// split, punctuation trimmed, stop words and very short tokens dropped.
// Duplicate terms are collapsed so match counting stays well-defined.
func Terms(normalized string) []string {
	words := strings.Fields(normalized)
	seen := make(map[string]bool, len(words))
	var terms []string
	for _, w := range words {
		w = strings.Trim(w, "?.,!;:'\"()[]")
		if len(w) <= 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}
