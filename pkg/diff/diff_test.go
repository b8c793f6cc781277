package diff

import "testing"

func TestComputeMinimalSubstitutionMyers(t *testing.T) {
	opts := DefaultOptions()
	res := Compute("a\nb\nc", "a\nx\nc", opts)

	if len(res.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(res.Hunks))
	}
	h := res.Hunks[0]
	want := []Change{
		{Kind: ChangeNormal, Content: "a", OldLine: 1, NewLine: 1},
		{Kind: ChangeDelete, Content: "b", OldLine: 2},
		{Kind: ChangeAdd, Content: "x", NewLine: 2},
		{Kind: ChangeNormal, Content: "c", OldLine: 3, NewLine: 3},
	}
	assertChangesEqual(t, h.Changes, want)

	if res.Stats.Additions != 1 || res.Stats.Deletions != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if res.Stats.OldLineCount != 3 || res.Stats.NewLineCount != 3 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if h.Header != "@@ -1,3 +1,3 @@" {
		t.Fatalf("header = %q", h.Header)
	}
}

func TestComputePureInsertionAtStart(t *testing.T) {
	res := Compute("b\nc", "a\nb\nc", DefaultOptions())

	var foundInsert, foundEqual bool
	for _, op := range res.Operations {
		switch op.Kind {
		case OpInsert:
			foundInsert = true
			if len(op.NewLines) != 1 || op.NewLines[0] != "a" {
				t.Fatalf("insert op = %+v", op)
			}
		case OpEqual:
			foundEqual = true
			if len(op.OldLines) != 2 {
				t.Fatalf("equal op = %+v", op)
			}
		case OpDelete:
			t.Fatalf("unexpected delete op: %+v", op)
		}
	}
	if !foundInsert || !foundEqual {
		t.Fatalf("operations = %+v", res.Operations)
	}
	if res.Stats.Additions != 1 || res.Stats.Deletions != 0 {
		t.Fatalf("stats = %+v", res.Stats)
	}
}

func TestComputePatienceAnchoring(t *testing.T) {
	old := "header\nfn(){\n  old\n}\nfooter"
	new := "header\nfn(){\n  new\n}\nfooter"
	opts := DefaultOptions()
	opts.Algorithm = AlgorithmPatience
	res := Compute(old, new, opts)

	equalContent := map[string]bool{}
	for _, op := range res.Operations {
		if op.Kind == OpEqual {
			for _, l := range op.OldLines {
				equalContent[l] = true
			}
		}
	}
	for _, want := range []string{"header", "fn(){", "}", "footer"} {
		if !equalContent[want] {
			t.Errorf("expected %q to be an equal anchor, operations=%+v", want, res.Operations)
		}
	}
	if equalContent["  old"] || equalContent["  new"] {
		t.Errorf("changed line incorrectly marked equal")
	}
}

func TestMergeOperationsIdempotent(t *testing.T) {
	ops := []Operation{
		{Kind: OpEqual, OldStart: 0, OldEnd: 1, NewStart: 0, NewEnd: 1, OldLines: []string{"a"}, NewLines: []string{"a"}},
		{Kind: OpDelete, OldStart: 1, OldEnd: 2, NewStart: 1, NewEnd: 1, OldLines: []string{"b"}},
		{Kind: OpDelete, OldStart: 2, OldEnd: 3, NewStart: 1, NewEnd: 1, OldLines: []string{"c"}},
	}
	once := mergeOperations(ops)
	twice := mergeOperations(once)
	if len(once) != len(twice) {
		t.Fatalf("not idempotent: %+v vs %+v", once, twice)
	}
	for i := range once {
		if once[i].Kind != twice[i].Kind || len(once[i].OldLines) != len(twice[i].OldLines) {
			t.Fatalf("not idempotent at %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
	if len(once) != 2 {
		t.Fatalf("expected delete merge to collapse to 2 ops, got %d: %+v", len(once), once)
	}
}

func TestHunkContextBounds(t *testing.T) {
	old := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\nCHANGED\n12\n13\n14\n15"
	new := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\nchanged\n12\n13\n14\n15"
	opts := DefaultOptions()
	opts.Context = 2
	res := Compute(old, new, opts)
	if len(res.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(res.Hunks))
	}
	h := res.Hunks[0]
	var leadingNormal, trailingNormal int
	for _, c := range h.Changes {
		if c.Kind == ChangeNormal {
			leadingNormal++
		} else {
			break
		}
	}
	for i := len(h.Changes) - 1; i >= 0 && h.Changes[i].Kind == ChangeNormal; i-- {
		trailingNormal++
	}
	if leadingNormal != 2 {
		t.Errorf("leading context = %d, want 2", leadingNormal)
	}
	if trailingNormal != 2 {
		t.Errorf("trailing context = %d, want 2", trailingNormal)
	}
}

func TestPartitionLawAppliesToOperations(t *testing.T) {
	old := "a\nb\nc\nd\ne"
	new := "a\nx\nc\ny\ne"
	for _, alg := range []Algorithm{AlgorithmMyers, AlgorithmPatience, AlgorithmHistogram} {
		opts := DefaultOptions()
		opts.Algorithm = alg
		res := Compute(old, new, opts)

		var reconOld, reconNew []string
		for _, op := range res.Operations {
			reconOld = append(reconOld, op.OldLines...)
			reconNew = append(reconNew, op.NewLines...)
		}
		if got := joinLines(reconOld); got != old {
			t.Errorf("%s: old reconstruction = %q, want %q", alg, got, old)
		}
		if got := joinLines(reconNew); got != new {
			t.Errorf("%s: new reconstruction = %q, want %q", alg, got, new)
		}
	}
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func assertChangesEqual(t *testing.T, got, want []Change) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len(changes) = %d, want %d (%+v)", len(got), len(want), got)
	}
	for i := range got {
		g, w := got[i], want[i]
		if g.Kind != w.Kind || g.Content != w.Content || g.OldLine != w.OldLine || g.NewLine != w.NewLine {
			t.Fatalf("change[%d] = %+v, want %+v", i, g, w)
		}
	}
}
