package diff

// runMyers implements the classic O(ND) shortest-edit-script algorithm
// (spec §4.2). Comparison uses each line's Key; the literal Text is what
// ends up in the emitted operations.
//
// The trace is kept in full (one copy of V per value of d), which is
// O((n+m)*d) memory as documented in spec §5; this is the simplest
// correct implementation and the depth of the trace is bounded by the
// edit distance, which for the inputs this package expects (source
// files, not arbitrary binaries) stays small relative to n+m.
func runMyers(a, b []line) []Operation {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return nil
	}
	if n == 0 {
		return []Operation{{
			Kind: OpInsert, OldStart: 0, OldEnd: 0, NewStart: 0, NewEnd: m,
			NewLines: texts(b),
		}}
	}
	if m == 0 {
		return []Operation{{
			Kind: OpDelete, OldStart: 0, OldEnd: n, NewStart: 0, NewEnd: 0,
			OldLines: texts(a),
		}}
	}

	ak, bk := keys(a), keys(b)

	max := n + m
	offset := max
	v := make([]int, 2*max+1)
	trace := make([][]int, 0, max+1)

	var d int
found:
	for d = 0; d <= max; d++ {
		vc := make([]int, len(v))
		copy(vc, v)
		trace = append(trace, vc)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[k-1+offset] < v[k+1+offset]) {
				x = v[k+1+offset]
			} else {
				x = v[k-1+offset] + 1
			}
			y := x - k

			for x < n && y < m && ak[x] == bk[y] {
				x++
				y++
			}

			v[k+offset] = x

			if x >= n && y >= m {
				break found
			}
		}
	}

	return myersBacktrack(trace, a, b, ak, bk, d, offset)
}

// myersBacktrack walks the saved V snapshots from (n,m) back to (0,0),
// emitting per-line operations, then reverses the result into forward
// order. The tie-break rule is identical to the forward pass so that
// the reconstructed path matches the one actually taken.
func myersBacktrack(trace [][]int, a, b []line, ak, bk []string, d, offset int) []Operation {
	n, m := len(a), len(b)
	x, y := n, m

	var ops []Operation
	emit := func(op Operation) { ops = append(ops, op) }

	for step := d; step > 0; step-- {
		v := trace[step]
		k := x - y

		var down bool
		if k == -step || (k != step && v[k-1+offset] < v[k+1+offset]) {
			down = true
		}

		var prevK int
		if down {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := v[prevK+offset]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			emit(Operation{
				Kind: OpEqual, OldStart: x, OldEnd: x + 1, NewStart: y, NewEnd: y + 1,
				OldLines: []string{a[x].Text}, NewLines: []string{b[y].Text},
			})
		}

		if down {
			y--
			emit(Operation{Kind: OpInsert, OldStart: x, OldEnd: x, NewStart: y, NewEnd: y + 1, NewLines: []string{b[y].Text}})
		} else {
			x--
			emit(Operation{Kind: OpDelete, OldStart: x, OldEnd: x + 1, NewStart: y, NewEnd: y, OldLines: []string{a[x].Text}})
		}
	}

	for x > 0 && y > 0 {
		x--
		y--
		emit(Operation{
			Kind: OpEqual, OldStart: x, OldEnd: x + 1, NewStart: y, NewEnd: y + 1,
			OldLines: []string{a[x].Text}, NewLines: []string{b[y].Text},
		})
	}

	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}
