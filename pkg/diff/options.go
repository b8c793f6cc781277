package diff

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Algorithm selects the line-diff engine.
type Algorithm string

const (
	AlgorithmMyers     Algorithm = "myers"
	AlgorithmPatience  Algorithm = "patience"
	AlgorithmHistogram Algorithm = "histogram"
)

// Granularity selects the token unit used for intra-line refinement.
// Line granularity performs no refinement; it exists so Options has a
// single field describing the whole pipeline.
type Granularity string

const (
	GranularityLine Granularity = "line"
	GranularityWord Granularity = "word"
	GranularityChar Granularity = "char"
)

// Options configures the diff pipeline. The zero value is not valid;
// use DefaultOptions.
type Options struct {
	Algorithm        Algorithm
	Granularity      Granularity
	Context          int
	IgnoreCase       bool
	IgnoreWhitespace bool
	TrimLines        bool
}

// DefaultOptions returns the documented defaults: Myers, line
// granularity, 3 lines of context, no normalization.
func DefaultOptions() Options {
	return Options{
		Algorithm:   AlgorithmMyers,
		Granularity: GranularityLine,
		Context:     3,
	}
}

// normalize applies this Options' comparator transforms to a line,
// producing the key used for equality testing. The literal text
// returned by tokenize is never altered by this function.
func (o Options) normalize(s string) string {
	if o.TrimLines {
		s = strings.TrimSpace(s)
	}
	if o.IgnoreWhitespace {
		s = collapseWhitespace(s)
	}
	if o.IgnoreCase {
		s = caseFold(s)
	}
	return s
}

var caser = cases.Fold()

// caseFold performs Unicode-aware case folding (not just ASCII
// lowercasing), so comparators behave correctly on non-Latin scripts.
func caseFold(s string) string {
	return caser.String(s)
}

// collapseWhitespace trims leading/trailing whitespace and collapses
// interior whitespace runs to a single space, matching the "ignore
// whitespace" comparator described in spec §4.1.
func collapseWhitespace(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
