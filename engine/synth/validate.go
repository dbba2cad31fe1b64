package synth

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// citedIndexes extracts the distinct citation markers from reply text and
// checks the structural contract: at least one marker, and every marker
// within [1, numSources]. The returned indexes are sorted ascending; the
// caller builds exactly one Citation per index, so marker set and citation
// list stay in bijection by construction.
func citedIndexes(text string, numSources int) ([]int, error) {
	matches := markerPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no citation markers in reply")
	}

	seen := make(map[int]bool)
	var cited []int
	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("unparseable citation marker %q", m[0])
		}
		if idx < 1 || idx > numSources {
			return nil, fmt.Errorf("citation marker [%d] outside provided sources 1..%d", idx, numSources)
		}
		if !seen[idx] {
			seen[idx] = true
			cited = append(cited, idx)
		}
	}
	sort.Ints(cited)
	return cited, nil
}
