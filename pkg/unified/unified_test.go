package unified

import (
	"strings"
	"testing"

	"github.com/grenlabs/diffkit/pkg/diff"
)

const sampleDiff = `--- a/foo.txt
+++ b/foo.txt
@@ -1,3 +1,3 @@
 a
-b
+x
 c
`

func TestParseSingleFile(t *testing.T) {
	f, err := Parse(sampleDiff)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.OldName != "foo.txt" || f.NewName != "foo.txt" {
		t.Fatalf("names = %q, %q", f.OldName, f.NewName)
	}
	if len(f.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(f.Hunks))
	}
	h := f.Hunks[0]
	if h.OldStart != 1 || h.OldLines != 3 || h.NewStart != 1 || h.NewLines != 3 {
		t.Fatalf("hunk = %+v", h)
	}
	want := []diff.Change{
		{Kind: diff.ChangeNormal, Content: "a", OldLine: 1, NewLine: 1},
		{Kind: diff.ChangeDelete, Content: "b", OldLine: 2},
		{Kind: diff.ChangeAdd, Content: "x", NewLine: 2},
		{Kind: diff.ChangeNormal, Content: "c", OldLine: 3, NewLine: 3},
	}
	if len(h.Changes) != len(want) {
		t.Fatalf("changes = %+v", h.Changes)
	}
	for i := range want {
		g := h.Changes[i]
		if g.Kind != want[i].Kind || g.Content != want[i].Content || g.OldLine != want[i].OldLine || g.NewLine != want[i].NewLine {
			t.Fatalf("change[%d] = %+v, want %+v", i, g, want[i])
		}
	}
}

func TestParseDevNull(t *testing.T) {
	text := "--- /dev/null\n+++ b/new.txt\n@@ -0,0 +1,1 @@\n+hello\n"
	f, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.OldName != "/dev/null" || f.NewName != "new.txt" {
		t.Fatalf("names = %q, %q", f.OldName, f.NewName)
	}
}

func TestParseMissingCountDefaultsToOne(t *testing.T) {
	text := "--- a/x\n+++ b/x\n@@ -5 +5 @@\n-old\n+new\n"
	f, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	h := f.Hunks[0]
	if h.OldLines != 1 || h.NewLines != 1 {
		t.Fatalf("hunk = %+v", h)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	f, err := Parse(sampleDiff)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := Serialize(f)
	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(reparsed.Hunks) != 1 || len(reparsed.Hunks[0].Changes) != 4 {
		t.Fatalf("roundtrip mismatch: %+v", reparsed)
	}
}

func TestReverseTwiceIsIdentity(t *testing.T) {
	f, _ := Parse(sampleDiff)
	once := Reverse(f)
	twice := Reverse(once)

	if twice.OldName != f.OldName || twice.NewName != f.NewName {
		t.Fatalf("names not restored: %+v", twice)
	}
	if len(twice.Hunks) != len(f.Hunks) {
		t.Fatalf("hunk count mismatch")
	}
	for i, h := range f.Hunks {
		g := twice.Hunks[i]
		if g.OldStart != h.OldStart || g.NewStart != h.NewStart {
			t.Fatalf("hunk[%d] positions not restored: %+v vs %+v", i, g, h)
		}
		for j := range h.Changes {
			if g.Changes[j].Kind != h.Changes[j].Kind || g.Changes[j].Content != h.Changes[j].Content {
				t.Fatalf("change[%d][%d] not restored: %+v vs %+v", i, j, g.Changes[j], h.Changes[j])
			}
		}
	}
}

func TestApply(t *testing.T) {
	f, _ := Parse(sampleDiff)
	out, err := Apply(f, "a\nb\nc")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out != "a\nx\nc" {
		t.Fatalf("out = %q", out)
	}
}

func TestApplyWithUnchangedTail(t *testing.T) {
	text := "--- a/x\n+++ b/x\n@@ -2,1 +2,1 @@\n-b\n+B\n"
	f, _ := Parse(text)
	out, err := Apply(f, "a\nb\nc")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out != "a\nB\nc" {
		t.Fatalf("out = %q", out)
	}
}

func TestApplyPureInsertionHunk(t *testing.T) {
	// OldLines == 0: OldStart is the 0-based count of old lines already
	// consumed, not a 1-based line number (pkg/diff/hunk.go's buildHunk
	// only increments oldStart when oldCount > 0).
	text := "--- a/x\n+++ b/x\n@@ -4,0 +5,2 @@\n+X\n+Y\n"
	f, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Apply(f, "a\nb\nc\nd\ne")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out != "a\nb\nc\nd\nX\nY\ne" {
		t.Fatalf("out = %q", out)
	}
}

func TestApplyAgainstEmptyOldFile(t *testing.T) {
	// The single most common case: diffing a brand-new file. The only
	// hunk is all-additions with OldStart == 0.
	text := "--- /dev/null\n+++ b/new.txt\n@@ -0,0 +1,2 @@\n+hello\n+world\n"
	f, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Apply(f, "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out != "hello\nworld" {
		t.Fatalf("out = %q", out)
	}
}

func TestValidate(t *testing.T) {
	if !Validate(sampleDiff) {
		t.Fatal("expected valid")
	}
	if Validate("not a diff at all") {
		t.Fatal("expected invalid")
	}
}

func TestParseMultiFile(t *testing.T) {
	text := strings.Join([]string{
		"diff --git a/one.txt b/one.txt",
		"--- a/one.txt",
		"+++ b/one.txt",
		"@@ -1,1 +1,1 @@",
		"-old",
		"+new",
		"diff --git a/two.txt b/two.txt",
		"new file mode 100644",
		"--- /dev/null",
		"+++ b/two.txt",
		"@@ -0,0 +1,1 @@",
		"+added",
		"",
	}, "\n")

	files, err := ParseMultiFile(text)
	if err != nil {
		t.Fatalf("ParseMultiFile: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %+v", len(files), files)
	}
	if files[0].OldName != "one.txt" || files[0].NewName != "one.txt" {
		t.Fatalf("file[0] = %+v", files[0])
	}
	if !files[1].NewFile {
		t.Fatalf("file[1] should be marked new: %+v", files[1])
	}
	if files[1].NewName != "two.txt" {
		t.Fatalf("file[1] name = %+v", files[1])
	}
}

func TestParseMultiFileBinary(t *testing.T) {
	text := strings.Join([]string{
		"diff --git a/img.png b/img.png",
		"Binary files a/img.png and b/img.png differ",
		"diff --git a/one.txt b/one.txt",
		"--- a/one.txt",
		"+++ b/one.txt",
		"@@ -1,1 +1,1 @@",
		"-old",
		"+new",
		"",
	}, "\n")

	files, err := ParseMultiFile(text)
	if err != nil {
		t.Fatalf("ParseMultiFile: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if !files[0].IsBinary {
		t.Fatalf("file[0] should be binary: %+v", files[0])
	}
	if len(files[1].Hunks) != 1 {
		t.Fatalf("file[1] should have parsed hunks: %+v", files[1])
	}
}
