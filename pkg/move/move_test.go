package move

import (
	"testing"

	"github.com/grenlabs/diffkit/pkg/diff"
)

func TestDetectExactMove(t *testing.T) {
	ops := []diff.Operation{
		{Kind: diff.OpDelete, OldStart: 0, OldEnd: 3, NewStart: 0, NewEnd: 0,
			OldLines: []string{"func a() {", "  return 1", "}"}},
		{Kind: diff.OpEqual, OldStart: 3, OldEnd: 4, NewStart: 0, NewEnd: 1,
			OldLines: []string{"package x"}, NewLines: []string{"package x"}},
		{Kind: diff.OpInsert, OldStart: 4, OldEnd: 4, NewStart: 1, NewEnd: 4,
			NewLines: []string{"func a() {", "  return 1", "}"}},
	}
	blocks := Detect(ops, DefaultConfig())
	if len(blocks) != 1 {
		t.Fatalf("expected 1 move block, got %d: %+v", len(blocks), blocks)
	}
	b := blocks[0]
	if !b.IsExact || b.Similarity != 1 {
		t.Fatalf("expected exact move, got %+v", b)
	}
	if b.OldStart != 0 || b.OldEnd != 3 || b.NewStart != 1 || b.NewEnd != 4 {
		t.Fatalf("unexpected range: %+v", b)
	}
}

func TestDetectFuzzyMoveBelowThresholdIsIgnored(t *testing.T) {
	ops := []diff.Operation{
		{Kind: diff.OpDelete, OldStart: 0, OldEnd: 3, NewStart: 0, NewEnd: 0,
			OldLines: []string{"alpha one", "beta two", "gamma three"}},
		{Kind: diff.OpInsert, OldStart: 3, OldEnd: 3, NewStart: 0, NewEnd: 3,
			NewLines: []string{"totally", "unrelated", "content"}},
	}
	cfg := DefaultConfig()
	blocks := Detect(ops, cfg)
	if len(blocks) != 0 {
		t.Fatalf("expected no move blocks for unrelated content, got %+v", blocks)
	}
}

func TestDetectFuzzyMoveNearMatch(t *testing.T) {
	ops := []diff.Operation{
		{Kind: diff.OpDelete, OldStart: 0, OldEnd: 3, NewStart: 0, NewEnd: 0,
			OldLines: []string{"line one here", "line two here", "line three here"}},
		{Kind: diff.OpInsert, OldStart: 3, OldEnd: 3, NewStart: 0, NewEnd: 3,
			NewLines: []string{"line one here!", "line two here", "line three here"}},
	}
	cfg := DefaultConfig()
	blocks := Detect(ops, cfg)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 fuzzy move block, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].IsExact {
		t.Fatalf("expected non-exact match, got %+v", blocks[0])
	}
	if blocks[0].Similarity < cfg.SimilarityThreshold {
		t.Fatalf("similarity %f below threshold", blocks[0].Similarity)
	}
}

func TestDetectSkipsBlocksBelowMinSize(t *testing.T) {
	ops := []diff.Operation{
		{Kind: diff.OpDelete, OldStart: 0, OldEnd: 1, NewStart: 0, NewEnd: 0, OldLines: []string{"x"}},
		{Kind: diff.OpInsert, OldStart: 1, OldEnd: 1, NewStart: 0, NewEnd: 1, NewLines: []string{"x"}},
	}
	blocks := Detect(ops, DefaultConfig())
	if len(blocks) != 0 {
		t.Fatalf("expected no blocks below MinBlockSize, got %+v", blocks)
	}
}

func TestDetectFromContent(t *testing.T) {
	old := []string{"package x", "func a() {", "  return 1", "}", "func b() {}"}
	new := []string{"func a() {", "  return 1", "}", "package x", "func b() {}"}
	blocks := DetectFromContent(old, new, DefaultConfig())
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d: %+v", len(blocks), blocks)
	}
	b := blocks[0]
	if b.OldStart != 1 || b.OldEnd != 4 {
		t.Fatalf("unexpected old range: %+v", b)
	}
	if b.NewStart != 0 || b.NewEnd != 3 {
		t.Fatalf("unexpected new range: %+v", b)
	}
}

func TestAnnotateChanges(t *testing.T) {
	changes := []diff.Change{
		{Kind: diff.ChangeDelete, Content: "a", OldLine: 1},
		{Kind: diff.ChangeDelete, Content: "b", OldLine: 2},
		{Kind: diff.ChangeNormal, Content: "sep", OldLine: 3, NewLine: 1},
		{Kind: diff.ChangeAdd, Content: "a", NewLine: 2},
		{Kind: diff.ChangeAdd, Content: "b", NewLine: 3},
	}
	blocks := []Block{{OldStart: 0, OldEnd: 2, NewStart: 1, NewEnd: 3, IsExact: true, Similarity: 1}}
	AnnotateChanges(changes, blocks)

	if changes[0].MoveID != 1 || !changes[0].MoveIsSource {
		t.Errorf("changes[0] not annotated as move source: %+v", changes[0])
	}
	if changes[1].MoveID != 1 || !changes[1].MoveIsSource {
		t.Errorf("changes[1] not annotated as move source: %+v", changes[1])
	}
	if changes[2].MoveID != 0 {
		t.Errorf("separator line should not be annotated: %+v", changes[2])
	}
	if changes[3].MoveID != 1 || changes[3].MoveIsSource {
		t.Errorf("changes[3] not annotated as move destination: %+v", changes[3])
	}
	if changes[4].MoveID != 1 || changes[4].MoveIsSource {
		t.Errorf("changes[4] not annotated as move destination: %+v", changes[4])
	}
}

func TestLevenshteinSimilarityIdentical(t *testing.T) {
	if s := levenshteinSimilarity("abc", "abc"); s != 1 {
		t.Fatalf("similarity = %f, want 1", s)
	}
	if s := levenshteinSimilarity("", ""); s != 1 {
		t.Fatalf("similarity = %f, want 1", s)
	}
}
