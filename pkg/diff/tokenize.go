package diff

import "strings"

// line pairs the literal (rendered) text of a line with its comparator
// key. Two lines are considered equal by an engine iff their keys are
// equal; the engines themselves only ever see Key, never Text.
type line struct {
	Text string
	Key  string
}

// tokenize splits content on LF, CR, or CRLF, stripping the terminators.
// A trailing terminator does not produce a trailing empty line, so
// "a\n" yields one line and "a\n\n" yields two (the second one empty).
func tokenize(content string, opts Options) []line {
	if content == "" {
		return nil
	}

	raw := splitLines(content)
	lines := make([]line, len(raw))
	for i, s := range raw {
		lines[i] = line{Text: s, Key: opts.normalize(s)}
	}
	return lines
}

// splitLines implements the terminator policy described in spec §4.1:
// LF, CR, and CRLF all terminate a line, and a trailing terminator does
// not produce a trailing empty element.
func splitLines(content string) []string {
	var out []string
	start := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			out = append(out, content[start:i])
			start = i + 1
		case '\r':
			out = append(out, content[start:i])
			if i+1 < len(content) && content[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(content) {
		out = append(out, content[start:])
	}
	return out
}

// keys extracts the comparator keys from a line slice, the view the
// diff engines operate on.
func keys(lines []line) []string {
	ks := make([]string, len(lines))
	for i, l := range lines {
		ks[i] = l.Key
	}
	return ks
}

// texts extracts the literal rendered text from a line slice.
func texts(lines []line) []string {
	ts := make([]string, len(lines))
	for i, l := range lines {
		ts[i] = l.Text
	}
	return ts
}

// joinOriginal reconstructs the original input from a tokenized line
// slice, the inverse of tokenize for LF-terminated content without a
// trailing terminator. Nothing in the module calls it.
func joinOriginal(lines []line) string {
	texts := texts(lines)
	return strings.Join(texts, "\n")
}
