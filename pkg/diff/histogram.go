package diff

// histogramMaxDepth bounds histogram recursion (spec §4.4 step 5); past
// this depth the region falls back to Myers to keep stack growth
// bounded on pathological inputs.
const histogramMaxDepth = 64

// histogramDiff implements the histogram-diff algorithm (spec §4.4):
// like patience, it strips the common prefix/suffix and anchors the
// recursion, but picks the anchor by lowest total occurrence count
// (ideally a line unique on both sides) rather than requiring global
// uniqueness.
func histogramDiff(a, b []line) []Operation {
	n, m := len(a), len(b)

	prefixLen := 0
	for prefixLen < n && prefixLen < m && a[prefixLen].Key == b[prefixLen].Key {
		prefixLen++
	}
	suffixLen := 0
	for suffixLen < n-prefixLen && suffixLen < m-prefixLen &&
		a[n-1-suffixLen].Key == b[m-1-suffixLen].Key {
		suffixLen++
	}

	var ops []Operation
	if prefixLen > 0 {
		ops = append(ops, Operation{
			Kind: OpEqual, OldStart: 0, OldEnd: prefixLen, NewStart: 0, NewEnd: prefixLen,
			OldLines: texts(a[:prefixLen]), NewLines: texts(b[:prefixLen]),
		})
	}

	mid := histogramRecurse(a[prefixLen:n-suffixLen], b[prefixLen:m-suffixLen], prefixLen, prefixLen, 0)
	ops = append(ops, mid...)

	if suffixLen > 0 {
		ops = append(ops, Operation{
			Kind: OpEqual, OldStart: n - suffixLen, OldEnd: n, NewStart: m - suffixLen, NewEnd: m,
			OldLines: texts(a[n-suffixLen:]), NewLines: texts(b[m-suffixLen:]),
		})
	}
	return ops
}

func histogramRecurse(a, b []line, oldOff, newOff, depth int) []Operation {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	if len(a) == 0 {
		return []Operation{{Kind: OpInsert, OldStart: oldOff, OldEnd: oldOff, NewStart: newOff, NewEnd: newOff + len(b), NewLines: texts(b)}}
	}
	if len(b) == 0 {
		return []Operation{{Kind: OpDelete, OldStart: oldOff, OldEnd: oldOff + len(a), NewStart: newOff, NewEnd: newOff, OldLines: texts(a)}}
	}
	if depth >= histogramMaxDepth {
		return rebase(runMyers(a, b), oldOff, newOff)
	}

	oldIdx, newIdx, found := histogramAnchor(a, b)
	if !found {
		return rebase(runMyers(a, b), oldOff, newOff)
	}

	var ops []Operation
	ops = append(ops, histogramRecurse(a[:oldIdx], b[:newIdx], oldOff, newOff, depth+1)...)
	ops = append(ops, Operation{
		Kind: OpEqual, OldStart: oldOff + oldIdx, OldEnd: oldOff + oldIdx + 1,
		NewStart: newOff + newIdx, NewEnd: newOff + newIdx + 1,
		OldLines: []string{a[oldIdx].Text}, NewLines: []string{b[newIdx].Text},
	})
	ops = append(ops, histogramRecurse(a[oldIdx+1:], b[newIdx+1:], oldOff+oldIdx+1, newOff+newIdx+1, depth+1)...)
	return ops
}

// histogramAnchor picks the split anchor: the lowest-score candidate
// line (score = occurrences in a + occurrences in b, considering only
// lines present on both sides), breaking ties by first appearance in a,
// stopping early on a score-2 (unique-on-both-sides) candidate.
func histogramAnchor(a, b []line) (oldIdx, newIdx int, found bool) {
	countA := make(map[string]int, len(a))
	for _, l := range a {
		countA[l.Key]++
	}
	countB := make(map[string]int, len(b))
	for _, l := range b {
		countB[l.Key]++
	}
	firstNew := make(map[string]int, len(b))
	for i, l := range b {
		if _, ok := firstNew[l.Key]; !ok {
			firstNew[l.Key] = i
		}
	}

	bestScore := -1
	seenOld := make(map[string]bool, len(a))
	for i, l := range a {
		if seenOld[l.Key] {
			continue
		}
		seenOld[l.Key] = true
		if countB[l.Key] == 0 {
			continue
		}
		score := countA[l.Key] + countB[l.Key]
		if bestScore == -1 || score < bestScore {
			bestScore = score
			oldIdx = i
			newIdx = firstNew[l.Key]
			found = true
			if score == 2 {
				return
			}
		}
	}
	return
}
