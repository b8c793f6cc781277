package diff

// patienceDiff implements the patience-diff algorithm described in spec
// §4.3: strip the common prefix/suffix, anchor on lines unique to both
// sides, recurse between anchors, and fall back to Myers when no
// anchors exist.
func patienceDiff(a, b []line) []Operation {
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

	midOld, midNew := a[prefixLen:n-suffixLen], b[prefixLen:m-suffixLen]
	ops = append(ops, patienceRecurse(midOld, midNew, prefixLen, prefixLen)...)

	if suffixLen > 0 {
		ops = append(ops, Operation{
			Kind: OpEqual, OldStart: n - suffixLen, OldEnd: n, NewStart: m - suffixLen, NewEnd: m,
			OldLines: texts(a[n-suffixLen:]), NewLines: texts(b[m-suffixLen:]),
		})
	}
	return ops
}

// patienceRecurse diffs a[0:len(a)] against b[0:len(b)], where oldOff
// and newOff are the absolute offsets of a[0]/b[0] in the original
// inputs. All returned operations are rebased into that absolute
// coordinate space.
func patienceRecurse(a, b []line, oldOff, newOff int) []Operation {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	if len(a) == 0 {
		return []Operation{{Kind: OpInsert, OldStart: oldOff, OldEnd: oldOff, NewStart: newOff, NewEnd: newOff + len(b), NewLines: texts(b)}}
	}
	if len(b) == 0 {
		return []Operation{{Kind: OpDelete, OldStart: oldOff, OldEnd: oldOff + len(a), NewStart: newOff, NewEnd: newOff, OldLines: texts(a)}}
	}

	anchors := uniqueAnchors(a, b)
	if len(anchors) == 0 {
		return rebase(runMyers(a, b), oldOff, newOff)
	}

	lis := patienceLIS(anchors)
	if len(lis) == 0 {
		return rebase(runMyers(a, b), oldOff, newOff)
	}

	var ops []Operation
	prevOld, prevNew := 0, 0
	for _, p := range lis {
		ops = append(ops, patienceRecurse(a[prevOld:p.oldIdx], b[prevNew:p.newIdx], oldOff+prevOld, newOff+prevNew)...)
		ops = append(ops, Operation{
			Kind: OpEqual, OldStart: oldOff + p.oldIdx, OldEnd: oldOff + p.oldIdx + 1,
			NewStart: newOff + p.newIdx, NewEnd: newOff + p.newIdx + 1,
			OldLines: []string{a[p.oldIdx].Text}, NewLines: []string{b[p.newIdx].Text},
		})
		prevOld, prevNew = p.oldIdx+1, p.newIdx+1
	}
	ops = append(ops, patienceRecurse(a[prevOld:], b[prevNew:], oldOff+prevOld, newOff+prevNew)...)
	return ops
}

type anchorPair struct{ oldIdx, newIdx int }

// uniqueAnchors returns the (oldIndex, newIndex) pairs of lines that
// occur exactly once in a and exactly once in b, ordered by oldIndex.
func uniqueAnchors(a, b []line) []anchorPair {
	countA := make(map[string]int, len(a))
	for _, l := range a {
		countA[l.Key]++
	}
	countB := make(map[string]int, len(b))
	for _, l := range b {
		countB[l.Key]++
	}

	newIdxOf := make(map[string]int, len(b))
	for i, l := range b {
		if countB[l.Key] == 1 {
			newIdxOf[l.Key] = i
		}
	}

	var pairs []anchorPair
	for i, l := range a {
		if countA[l.Key] != 1 || countB[l.Key] != 1 {
			continue
		}
		j, ok := newIdxOf[l.Key]
		if !ok {
			continue
		}
		pairs = append(pairs, anchorPair{oldIdx: i, newIdx: j})
	}
	return pairs
}

// patienceLIS computes the longest strictly-increasing-by-newIdx
// subsequence of pairs (already ordered by oldIdx) using patience
// sorting with backpointers, giving a maximal set of non-crossing
// anchor matches (spec §4.3 step 3).
func patienceLIS(pairs []anchorPair) []anchorPair {
	if len(pairs) == 0 {
		return nil
	}

	// pileTops[i] = index into pairs of the smallest-newIdx pair that
	// tops a pile of length i+1.
	var pileTops []int
	backptr := make([]int, len(pairs))

	for i, p := range pairs {
		// binary search for the first pile whose top has newIdx >= p.newIdx
		lo, hi := 0, len(pileTops)
		for lo < hi {
			mid := (lo + hi) / 2
			if pairs[pileTops[mid]].newIdx >= p.newIdx {
				hi = mid
			} else {
				lo = mid + 1
			}
		}
		if lo > 0 {
			backptr[i] = pileTops[lo-1]
		} else {
			backptr[i] = -1
		}
		if lo == len(pileTops) {
			pileTops = append(pileTops, i)
		} else {
			pileTops[lo] = i
		}
	}

	seq := make([]anchorPair, len(pileTops))
	k := pileTops[len(pileTops)-1]
	for i := len(pileTops) - 1; i >= 0; i-- {
		seq[i] = pairs[k]
		k = backptr[k]
	}
	return seq
}

// rebase shifts a set of operations computed over a local sub-range
// into absolute coordinates.
func rebase(ops []Operation, oldOff, newOff int) []Operation {
	for i := range ops {
		ops[i].OldStart += oldOff
		ops[i].OldEnd += oldOff
		ops[i].NewStart += newOff
		ops[i].NewEnd += newOff
	}
	return ops
}
