// Package linepair implements the line-pair matcher (spec §4.8): given
// a run of removed lines and a run of added lines, it decides which
// removed line corresponds to which added line so the word-diff engine
// can highlight intra-line changes instead of marking whole lines as
// wholesale replacements.
package linepair

import (
	"sort"
	"strings"
	"unicode"

	"github.com/grenlabs/diffkit/pkg/diff"
	"github.com/grenlabs/diffkit/pkg/worddiff"
)

// DefaultThreshold is the minimum similarity score for two lines to be
// considered a match (spec §4.8).
const DefaultThreshold = 0.4

// Pair is a matched (removed, added) index pair with its score.
type Pair struct {
	RemovedIdx int
	AddedIdx   int
	Score      float64
}

// Match pairs removed lines against added lines by descending
// similarity, greedily, skipping any pair whose removed or added index
// is already consumed. Each line is paired at most once; some may
// remain unpaired.
func Match(removed, added []string, threshold float64) []Pair {
	var candidates []Pair
	for i, r := range removed {
		for j, a := range added {
			score := lineSimilarity(r, a)
			if score >= threshold {
				candidates = append(candidates, Pair{RemovedIdx: i, AddedIdx: j, Score: score})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	usedRemoved := make(map[int]bool, len(removed))
	usedAdded := make(map[int]bool, len(added))
	var result []Pair
	for _, c := range candidates {
		if usedRemoved[c.RemovedIdx] || usedAdded[c.AddedIdx] {
			continue
		}
		usedRemoved[c.RemovedIdx] = true
		usedAdded[c.AddedIdx] = true
		result = append(result, c)
	}
	return result
}

// lineSimilarity scores a pair of lines as the fraction of the larger
// line's character length contributed by word-LCS-matched tokens.
func lineSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	aTok, bTok := wordTokens(a), wordTokens(b)
	matchedChars := matchedTokenChars(aTok, bTok)

	aLen, bLen := len([]rune(a)), len([]rune(b))
	maxLen := aLen
	if bLen > maxLen {
		maxLen = bLen
	}
	if maxLen == 0 {
		return 1
	}
	return float64(matchedChars) / float64(maxLen)
}

func wordTokens(s string) []string {
	return strings.FieldsFunc(s, unicode.IsSpace)
}

// matchedTokenChars runs an LCS over the word tokens and sums the rune
// length of matched tokens.
func matchedTokenChars(a, b []string) int {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0
	}
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	chars := 0
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			chars += len([]rune(a[i]))
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			i++
		default:
			j++
		}
	}
	return chars
}

// Enhance scans a change list for maximal runs of deletes immediately
// followed by adds (spec §4.8's enhanceChangesWithWordDiff) and attaches
// word-diff segments to each matched pair. A normal line between a run
// of deletes and a run of adds means they are never paired across the
// gap. The input slice is modified in place and also returned.
func Enhance(changes []diff.Change, opts worddiff.Options) []diff.Change {
	i := 0
	for i < len(changes) {
		if changes[i].Kind != diff.ChangeDelete {
			i++
			continue
		}
		delStart := i
		for i < len(changes) && changes[i].Kind == diff.ChangeDelete {
			i++
		}
		delEnd := i
		addStart := i
		for i < len(changes) && changes[i].Kind == diff.ChangeAdd {
			i++
		}
		addEnd := i

		if addEnd == addStart {
			continue
		}

		removed := make([]string, delEnd-delStart)
		for k := range removed {
			removed[k] = changes[delStart+k].Content
		}
		added := make([]string, addEnd-addStart)
		for k := range added {
			added[k] = changes[addStart+k].Content
		}

		pairs := Match(removed, added, DefaultThreshold)
		for _, p := range pairs {
			r := &changes[delStart+p.RemovedIdx]
			a := &changes[addStart+p.AddedIdx]
			wd := worddiff.Diff(r.Content, a.Content, opts)
			r.Segments = &wd
			a.Segments = &wd
		}
	}
	return changes
}
