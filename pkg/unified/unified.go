// Package unified implements the bidirectional unified-diff codec (spec
// §4.11): parsing unified-diff text into the core data model, the
// multi-file (`diff --git`) variant, serialization back to text,
// reversal, application against old content, and a lightweight
// validator.
package unified

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/grenlabs/diffkit/pkg/diff"
)

// File is one file's parsed diff: its header names and hunks.
type File struct {
	OldName  string
	NewName  string
	Hunks    []diff.Hunk
	IsBinary bool
	NewFile  bool
	Deleted  bool
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

// Parse reads a single-file unified diff (spec §4.11's single-file
// parser): file headers, then one or more hunks.
func Parse(text string) (File, error) {
	lines := splitLines(text)
	var f File
	i := 0

	for i < len(lines) && !strings.HasPrefix(lines[i], "@@ ") {
		switch {
		case strings.HasPrefix(lines[i], "--- "):
			f.OldName = parseFileHeaderName(lines[i][4:])
		case strings.HasPrefix(lines[i], "+++ "):
			f.NewName = parseFileHeaderName(lines[i][4:])
		}
		i++
	}

	hunks, err := parseHunks(lines, i)
	if err != nil {
		return File{}, err
	}
	f.Hunks = hunks
	return f, nil
}

func parseFileHeaderName(s string) string {
	name := s
	if idx := strings.IndexByte(name, '\t'); idx >= 0 {
		name = name[:idx]
	}
	if name == "/dev/null" {
		return name
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		name = name[2:]
	}
	return name
}

func parseHunks(lines []string, start int) ([]diff.Hunk, error) {
	var hunks []diff.Hunk
	i := start
	for i < len(lines) {
		if !strings.HasPrefix(lines[i], "@@ ") {
			i++
			continue
		}
		m := hunkHeaderRe.FindStringSubmatch(lines[i])
		if m == nil {
			return nil, fmt.Errorf("unified: malformed hunk header %q", lines[i])
		}
		oldStart, _ := strconv.Atoi(m[1])
		oldLen := 1
		if m[2] != "" {
			oldLen, _ = strconv.Atoi(m[2])
		}
		newStart, _ := strconv.Atoi(m[3])
		newLen := 1
		if m[4] != "" {
			newLen, _ = strconv.Atoi(m[4])
		}
		i++

		oldCursor, newCursor := oldStart, newStart
		var changes []diff.Change
		for i < len(lines) {
			line := lines[i]
			if strings.HasPrefix(line, "@@ ") || strings.HasPrefix(line, "diff --git ") {
				break
			}
			if line == "" {
				i++
				continue
			}
			switch line[0] {
			case '-':
				changes = append(changes, diff.Change{Kind: diff.ChangeDelete, Content: line[1:], OldLine: oldCursor})
				oldCursor++
			case '+':
				changes = append(changes, diff.Change{Kind: diff.ChangeAdd, Content: line[1:], NewLine: newCursor})
				newCursor++
			case '\\':
				// "no newline at end of file" marker, ignored.
			case ' ':
				changes = append(changes, diff.Change{Kind: diff.ChangeNormal, Content: line[1:], OldLine: oldCursor, NewLine: newCursor})
				oldCursor++
				newCursor++
			default:
				changes = append(changes, diff.Change{Kind: diff.ChangeNormal, Content: line, OldLine: oldCursor, NewLine: newCursor})
				oldCursor++
				newCursor++
			}
			i++
		}

		hunks = append(hunks, diff.Hunk{
			OldStart: oldStart, OldLines: oldLen,
			NewStart: newStart, NewLines: newLen,
			Changes: changes,
			Header:  fmt.Sprintf("@@ -%s +%s @@", rangeStr(oldStart, oldLen), rangeStr(newStart, newLen)),
		})
	}
	return hunks, nil
}

func rangeStr(start, count int) string {
	if count == 1 {
		return strconv.Itoa(start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// ParseMultiFile parses a multi-file diff delimited by `diff --git a/P
// b/Q` headers (spec §4.11's multi-file parser).
func ParseMultiFile(text string) ([]File, error) {
	lines := splitLines(text)
	var files []File
	i := 0
	for i < len(lines) {
		if !strings.HasPrefix(lines[i], "diff --git ") {
			i++
			continue
		}
		start := i
		i++
		var newFile, deleted, isBinary bool
		for i < len(lines) && !strings.HasPrefix(lines[i], "--- ") && !strings.HasPrefix(lines[i], "diff --git ") {
			switch {
			case strings.HasPrefix(lines[i], "new file mode"):
				newFile = true
			case strings.HasPrefix(lines[i], "deleted file mode"):
				deleted = true
			case strings.Contains(lines[i], "Binary files") && strings.Contains(lines[i], "differ"):
				isBinary = true
			case strings.HasPrefix(lines[i], "GIT binary patch"):
				isBinary = true
			}
			i++
		}

		var f File
		f.NewFile = newFile
		f.Deleted = deleted
		f.IsBinary = isBinary

		if isBinary {
			for i < len(lines) && !strings.HasPrefix(lines[i], "diff --git ") {
				i++
			}
			names := gitHeaderNames(lines[start])
			f.OldName, f.NewName = names[0], names[1]
			files = append(files, f)
			continue
		}

		bodyStart := i
		for i < len(lines) && !strings.HasPrefix(lines[i], "diff --git ") {
			i++
		}
		body := strings.Join(lines[bodyStart:i], "\n")
		parsed, err := Parse(body)
		if err != nil {
			return nil, err
		}
		f.OldName, f.NewName = parsed.OldName, parsed.NewName
		f.Hunks = parsed.Hunks
		if f.OldName == "" && f.NewName == "" {
			names := gitHeaderNames(lines[start])
			f.OldName, f.NewName = names[0], names[1]
		}
		files = append(files, f)
	}
	return files, nil
}

var gitHeaderRe = regexp.MustCompile(`^diff --git a/(\S+) b/(\S+)$`)

func gitHeaderNames(header string) [2]string {
	m := gitHeaderRe.FindStringSubmatch(header)
	if m == nil {
		return [2]string{"", ""}
	}
	return [2]string{m[1], m[2]}
}

// Serialize renders a File back to unified-diff text (spec §4.11's
// serializer).
func Serialize(f File) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", headerName(f.OldName))
	fmt.Fprintf(&b, "+++ %s\n", headerName(f.NewName))
	for _, h := range f.Hunks {
		b.WriteString(h.Header)
		b.WriteByte('\n')
		for _, c := range h.Changes {
			switch c.Kind {
			case diff.ChangeAdd:
				b.WriteByte('+')
			case diff.ChangeDelete:
				b.WriteByte('-')
			default:
				b.WriteByte(' ')
			}
			b.WriteString(c.Content)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func headerName(name string) string {
	if name == "" || name == "/dev/null" {
		return "/dev/null"
	}
	return name
}

// Reverse swaps add/delete, old/new filenames, hunk positions, and the
// NewFile/Deleted flags, so that applying a reversed diff reverses the
// original edit. File carries no stats counts, so there are none to
// swap. Reversing twice is the identity on every field.
func Reverse(f File) File {
	out := File{OldName: f.NewName, NewName: f.OldName, IsBinary: f.IsBinary, NewFile: f.Deleted, Deleted: f.NewFile}
	for _, h := range f.Hunks {
		rh := diff.Hunk{
			OldStart: h.NewStart, OldLines: h.NewLines,
			NewStart: h.OldStart, NewLines: h.OldLines,
		}
		rh.Changes = make([]diff.Change, len(h.Changes))
		for i, c := range h.Changes {
			rc := c
			switch c.Kind {
			case diff.ChangeAdd:
				rc.Kind = diff.ChangeDelete
				rc.OldLine, rc.NewLine = c.NewLine, 0
			case diff.ChangeDelete:
				rc.Kind = diff.ChangeAdd
				rc.NewLine, rc.OldLine = c.OldLine, 0
			default:
				rc.OldLine, rc.NewLine = c.NewLine, c.OldLine
			}
			rh.Changes[i] = rc
		}
		rh.Header = fmt.Sprintf("@@ -%s +%s @@", rangeStr(rh.OldStart, rh.OldLines), rangeStr(rh.NewStart, rh.NewLines))
		out.Hunks = append(out.Hunks, rh)
	}
	return out
}

// Apply walks the hunks in order against oldContent and produces the
// new content (spec §4.11's apply algorithm).
func Apply(f File, oldContent string) (string, error) {
	oldLines := splitLines(oldContent)
	var out []string
	cursor := 0 // 0-based index into oldLines, next line not yet copied

	for _, h := range f.Hunks {
		// OldStart is 1-based for a hunk that touches at least one old
		// line, but for a pure-insertion hunk (OldLines == 0) buildHunk
		// leaves it as the 0-based count of old lines already consumed,
		// since there's no old line for the insertion to be "at".
		target := h.OldStart - 1
		if h.OldLines == 0 {
			target = h.OldStart
		}
		if target < cursor || target > len(oldLines) {
			return "", fmt.Errorf("unified: hunk at %d out of order or out of range", h.OldStart)
		}
		out = append(out, oldLines[cursor:target]...)
		cursor = target

		for _, c := range h.Changes {
			switch c.Kind {
			case diff.ChangeNormal:
				out = append(out, c.Content)
				cursor++
			case diff.ChangeAdd:
				out = append(out, c.Content)
			case diff.ChangeDelete:
				cursor++
			}
		}
	}
	out = append(out, oldLines[cursor:]...)
	return strings.Join(out, "\n"), nil
}

var validatorRe = regexp.MustCompile(`@@ -\d+(,\d+)? \+\d+(,\d+)? @@`)

// Validate reports whether text contains at least one well-formed hunk
// header (spec §4.11's validator).
func Validate(text string) bool {
	return validatorRe.MatchString(text)
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
