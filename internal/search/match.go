package search

import (
	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/gifterm/internal/domain"
)

// titleSource adapts a result list to fuzzy.Source
type titleSource []domain.Gif

func (s titleSource) String(i int) string { return s[i].DisplayTitle() }
func (s titleSource) Len() int            { return len(s) }

// Highlights returns, per result index, the byte offsets in DisplayTitle
// that match query. Results without a match are absent from the map.
// Ordering of results is never changed.
func Highlights(query string, results []domain.Gif) map[int][]int {
	if query == "" || len(results) == 0 {
		return nil
	}
	matches := fuzzy.FindFrom(query, titleSource(results))
	out := make(map[int][]int, len(matches))
	for _, m := range matches {
		out[m.Index] = m.MatchedIndexes
	}
	return out
}

// Narrow returns the indexes of results whose title or uploader contains
// the characters of filter in order, ignoring case and diacritics.
// Provider order is preserved. An empty filter keeps everything.
func Narrow(filter string, results []domain.Gif) []int {
	idx := make([]int, 0, len(results))
	for i, g := range results {
		if filter == "" ||
			lfuzzy.MatchNormalizedFold(filter, g.DisplayTitle()) ||
			lfuzzy.MatchNormalizedFold(filter, g.Username) {
			idx = append(idx, i)
		}
	}
	return idx
}
