// Package worddiff implements the word/char-level refinement stage
// (spec §4.7): tokenizing a single line into words or characters,
// computing their LCS, and emitting paired Segment sequences that let a
// renderer highlight exactly which part of a changed line moved.
package worddiff

import (
	"strings"
	"unicode"

	"github.com/grenlabs/diffkit/pkg/diff"
)

// Granularity selects the token unit.
type Granularity int

const (
	Word Granularity = iota
	Char
)

// Options configures the comparator used only for the LCS equality
// test; the segments always carry the original, unmodified text.
type Options struct {
	Granularity      Granularity
	IgnoreCase       bool
	IgnoreWhitespace bool
}

// Diff computes the word/char-level refinement between two lines,
// returning the paired segment sequences described in spec §3's
// WordDiffResult. The fast path short-circuits byte-identical lines.
func Diff(oldLine, newLine string, opts Options) diff.WordDiffResult {
	if oldLine == newLine {
		return diff.WordDiffResult{
			Old:            []diff.Segment{{Kind: diff.OpEqual, Text: oldLine}},
			New:            []diff.Segment{{Kind: diff.OpEqual, Text: newLine}},
			HasDifferences: false,
		}
	}

	oldTokens := tokenize(oldLine, opts.Granularity)
	newTokens := tokenize(newLine, opts.Granularity)
	oldKeys := keysOf(oldTokens, opts)
	newKeys := keysOf(newTokens, opts)

	matched := lcsPairs(oldKeys, newKeys)

	oldSegs := buildSegments(oldTokens, matched, true)
	newSegs := buildSegments(newTokens, matched, false)

	return diff.WordDiffResult{
		Old:            oldSegs,
		New:            newSegs,
		HasDifferences: true,
	}
}

func keysOf(tokens []string, opts Options) []string {
	keys := make([]string, len(tokens))
	for i, t := range tokens {
		k := t
		if opts.IgnoreWhitespace {
			k = strings.Join(strings.Fields(k), " ")
		}
		if opts.IgnoreCase {
			k = strings.ToLower(k)
		}
		keys[i] = k
	}
	return keys
}

// tokenize splits a line into word tokens (transitions between
// whitespace and non-whitespace runs, each run its own token) or char
// tokens (one token per Unicode scalar value).
func tokenize(s string, g Granularity) []string {
	if g == Char {
		runes := []rune(s)
		out := make([]string, len(runes))
		for i, r := range runes {
			out[i] = string(r)
		}
		return out
	}
	return tokenizeWords(s)
}

func tokenizeWords(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	runes := []rune(s)
	start := 0
	inSpace := unicode.IsSpace(runes[0])
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || unicode.IsSpace(runes[i]) != inSpace {
			out = append(out, string(runes[start:i]))
			if i < len(runes) {
				start = i
				inSpace = unicode.IsSpace(runes[i])
			}
		}
	}
	return out
}

type pair struct{ i, j int }

// lcsPairs computes the longest common subsequence of two token-key
// sequences via standard dynamic programming and backtracks to the
// ordered list of matched (old-index, new-index) pairs.
func lcsPairs(a, b []string) []pair {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
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

	var pairs []pair
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			pairs = append(pairs, pair{i, j})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			i++
		default:
			j++
		}
	}
	return pairs
}

// buildSegments walks one side's tokens, marking tokens present in the
// LCS (at the expected matched position) as Equal and the rest as
// Delete (old side) or Insert (new side), coalescing consecutive
// same-kind tokens into a single segment.
func buildSegments(tokens []string, matched []pair, old bool) []diff.Segment {
	matchSet := make(map[int]bool, len(matched))
	for _, p := range matched {
		if old {
			matchSet[p.i] = true
		} else {
			matchSet[p.j] = true
		}
	}

	changeKind := diff.OpDelete
	if !old {
		changeKind = diff.OpInsert
	}

	var segs []diff.Segment
	for i, tok := range tokens {
		kind := changeKind
		if matchSet[i] {
			kind = diff.OpEqual
		}
		if len(segs) > 0 && segs[len(segs)-1].Kind == kind {
			segs[len(segs)-1].Text += tok
		} else {
			segs = append(segs, diff.Segment{Kind: kind, Text: tok})
		}
	}
	return segs
}
