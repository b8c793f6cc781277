// Package move implements the move detector (spec §4.9): it recognizes
// blocks that were deleted from one place and inserted verbatim (or
// near-verbatim) elsewhere, so a renderer can show a relocation instead
// of an unrelated delete+insert pair.
package move

import (
	"sort"
	"strings"
	"unicode"

	"github.com/grenlabs/diffkit/pkg/diff"
)

// Config tunes the detector. DefaultConfig returns the documented
// defaults.
type Config struct {
	MinBlockSize        int
	SimilarityThreshold float64
	DetectFuzzyMoves    bool
	IgnoreWhitespace    bool
	MaxSearchDistance   int
}

func DefaultConfig() Config {
	return Config{
		MinBlockSize:        3,
		SimilarityThreshold: 0.8,
		DetectFuzzyMoves:    true,
		IgnoreWhitespace:    false,
		MaxSearchDistance:   1000,
	}
}

// Block is a MoveBlock's relocation, annotated with the recognized
// similarity and whether the match was exact.
type Block struct {
	OldStart, OldEnd int
	NewStart, NewEnd int
	Lines            []string
	Similarity       float64
	IsExact          bool
}

type candidateBlock struct {
	opIdx      int
	start, end int // OldStart/OldEnd for delete blocks, NewStart/NewEnd for insert blocks
	lines      []string
}

// Detect runs the two-pass detector (spec §4.9) over a merged operation
// sequence: exact hash-matched blocks first, then (if enabled) fuzzy
// matches among what remains unpaired.
func Detect(ops []diff.Operation, cfg Config) []Block {
	var deletes, inserts []candidateBlock
	for i, op := range ops {
		switch op.Kind {
		case diff.OpDelete:
			if n := op.OldEnd - op.OldStart; n >= cfg.MinBlockSize {
				deletes = append(deletes, candidateBlock{opIdx: i, start: op.OldStart, end: op.OldEnd, lines: op.OldLines})
			}
		case diff.OpInsert:
			if n := op.NewEnd - op.NewStart; n >= cfg.MinBlockSize {
				inserts = append(inserts, candidateBlock{opIdx: i, start: op.NewStart, end: op.NewEnd, lines: op.NewLines})
			}
		}
	}

	usedInsert := make(map[int]bool, len(inserts))
	usedDelete := make(map[int]bool, len(deletes))
	var blocks []Block

	// Pass 1: exact matches via content hash.
	hashToInserts := make(map[uint32][]int)
	for j, ins := range inserts {
		h := blockHash(ins.lines, cfg.IgnoreWhitespace)
		hashToInserts[h] = append(hashToInserts[h], j)
	}
	for di, del := range deletes {
		h := blockHash(del.lines, cfg.IgnoreWhitespace)
		for _, j := range hashToInserts[h] {
			if usedInsert[j] {
				continue
			}
			if !linesEqual(del.lines, inserts[j].lines, cfg.IgnoreWhitespace) {
				continue
			}
			usedDelete[di] = true
			usedInsert[j] = true
			blocks = append(blocks, Block{
				OldStart: del.start, OldEnd: del.end,
				NewStart: inserts[j].start, NewEnd: inserts[j].end,
				Lines: del.lines, Similarity: 1, IsExact: true,
			})
			break
		}
	}

	if cfg.DetectFuzzyMoves {
		for di, del := range deletes {
			if usedDelete[di] {
				continue
			}
			bestJ := -1
			bestScore := 0.0
			for j, ins := range inserts {
				if usedInsert[j] {
					continue
				}
				if abs(ins.start-del.start) > cfg.MaxSearchDistance {
					continue
				}
				score := blockSimilarity(del.lines, ins.lines, cfg.IgnoreWhitespace)
				if score > bestScore || (score == bestScore && bestJ != -1 && j < bestJ) {
					bestScore = score
					bestJ = j
				}
			}
			if bestJ != -1 && bestScore >= cfg.SimilarityThreshold {
				usedDelete[di] = true
				usedInsert[bestJ] = true
				ins := inserts[bestJ]
				blocks = append(blocks, Block{
					OldStart: del.start, OldEnd: del.end,
					NewStart: ins.start, NewEnd: ins.end,
					Lines: del.lines, Similarity: bestScore, IsExact: bestScore == 1,
				})
			}
		}
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].OldStart != blocks[j].OldStart {
			return blocks[i].OldStart < blocks[j].OldStart
		}
		return blocks[i].NewStart < blocks[j].NewStart
	})
	return blocks
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func normalizeLine(s string, ignoreWhitespace bool) string {
	if !ignoreWhitespace {
		return s
	}
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

func linesEqual(a, b []string, ignoreWhitespace bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if normalizeLine(a[i], ignoreWhitespace) != normalizeLine(b[i], ignoreWhitespace) {
			return false
		}
	}
	return true
}

// blockHash implements the djb2 hash required by spec §6 over the
// block's normalized content joined by newlines, so block-index buckets
// are reproducible across implementations.
func blockHash(lines []string, ignoreWhitespace bool) uint32 {
	norm := make([]string, len(lines))
	for i, l := range lines {
		norm[i] = normalizeLine(l, ignoreWhitespace)
	}
	return djb2(strings.Join(norm, "\n"))
}

func djb2(s string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(s); i++ {
		h = ((h << 5) + h) ^ uint32(s[i])
	}
	return h
}

// blockSimilarity implements spec §4.9's block-similarity metric:
// per-line Levenshtein similarity averaged when line counts match, or
// whole-block Levenshtein similarity (joined by a sentinel) otherwise.
func blockSimilarity(a, b []string, ignoreWhitespace bool) float64 {
	if len(a) == len(b) {
		if len(a) == 0 {
			return 1
		}
		var sum float64
		for i := range a {
			sum += levenshteinSimilarity(normalizeLine(a[i], ignoreWhitespace), normalizeLine(b[i], ignoreWhitespace))
		}
		return sum / float64(len(a))
	}

	const sentinel = "\x00"
	joinedA := strings.Join(normalizeAll(a, ignoreWhitespace), sentinel)
	joinedB := strings.Join(normalizeAll(b, ignoreWhitespace), sentinel)
	return levenshteinSimilarity(joinedA, joinedB)
}

func normalizeAll(lines []string, ignoreWhitespace bool) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = normalizeLine(l, ignoreWhitespace)
	}
	return out
}

func levenshteinSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein(ra, rb)
	return 1 - float64(dist)/float64(maxLen)
}

// levenshtein computes the edit distance between two rune slices using
// the standard two-row dynamic-programming formulation. No third-party
// Levenshtein implementation appears anywhere in the retrieval pack, so
// this is a direct stdlib implementation (see DESIGN.md).
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// DetectFromContent is the from-content variant (spec §4.9): given the
// two raw line arrays with no prior operation list, it enumerates
// candidate block sizes from MinBlockSize up to min(lineCount, 50),
// hashes all windows of the new side, then scans the old side from the
// largest candidate size down to the smallest, reporting the first
// non-overlapping exact-content match per window.
func DetectFromContent(oldLines, newLines []string, cfg Config) []Block {
	maxSize := len(oldLines)
	if len(newLines) < maxSize {
		maxSize = len(newLines)
	}
	if maxSize > 50 {
		maxSize = 50
	}
	if maxSize < cfg.MinBlockSize {
		return nil
	}

	type window struct {
		hash  uint32
		start int
	}
	newWindows := make(map[int][]window) // size -> windows
	for size := cfg.MinBlockSize; size <= maxSize; size++ {
		for start := 0; start+size <= len(newLines); start++ {
			h := blockHash(newLines[start:start+size], cfg.IgnoreWhitespace)
			newWindows[size] = append(newWindows[size], window{hash: h, start: start})
		}
	}

	oldUsed := make([]bool, len(oldLines))
	newUsed := make([]bool, len(newLines))
	var blocks []Block

	for size := maxSize; size >= cfg.MinBlockSize; size-- {
		for start := 0; start+size <= len(oldLines); start++ {
			if rangeUsed(oldUsed, start, start+size) {
				continue
			}
			h := blockHash(oldLines[start:start+size], cfg.IgnoreWhitespace)
			for _, w := range newWindows[size] {
				if w.hash != h || rangeUsed(newUsed, w.start, w.start+size) {
					continue
				}
				if !linesEqual(oldLines[start:start+size], newLines[w.start:w.start+size], cfg.IgnoreWhitespace) {
					continue
				}
				markUsed(oldUsed, start, start+size)
				markUsed(newUsed, w.start, w.start+size)
				blocks = append(blocks, Block{
					OldStart: start, OldEnd: start + size,
					NewStart: w.start, NewEnd: w.start + size,
					Lines:      append([]string(nil), oldLines[start:start+size]...),
					Similarity: 1, IsExact: true,
				})
				break
			}
		}
	}

	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].OldStart < blocks[j].OldStart })
	return blocks
}

func rangeUsed(used []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if used[i] {
			return true
		}
	}
	return false
}

func markUsed(used []bool, start, end int) {
	for i := start; i < end; i++ {
		used[i] = true
	}
}

// AnnotateChanges tags the delete/insert changes covered by each move
// block with a shared MoveID (1-based, in block order) and MoveIsSource,
// so a renderer can link a relocated block's origin and destination.
func AnnotateChanges(changes []diff.Change, blocks []Block) {
	for idx, b := range blocks {
		id := idx + 1
		for i := range changes {
			c := &changes[i]
			switch c.Kind {
			case diff.ChangeDelete:
				if c.OldLine >= b.OldStart+1 && c.OldLine <= b.OldEnd {
					c.MoveID = id
					c.MoveIsSource = true
				}
			case diff.ChangeAdd:
				if c.NewLine >= b.NewStart+1 && c.NewLine <= b.NewEnd {
					c.MoveID = id
					c.MoveIsSource = false
				}
			}
		}
	}
}
