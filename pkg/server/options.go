package server

import (
	"net/url"
	"strconv"

	"github.com/grenlabs/diffkit/pkg/diff"
	"github.com/grenlabs/diffkit/pkg/diffkit"
	"github.com/grenlabs/diffkit/pkg/move"
)

// optionsFromQuery maps `?algorithm=patience&granularity=word&context=5
// &ignoreWhitespace=1&ignoreCase=1&trimLines=1&detectMoves=1` into the
// core's Options, adapted from the teacher's pkg/http/serve.go query
// handling (which mapped `w=`/`c=` into a single Normal transform and a
// context count).
func optionsFromQuery(q url.Values) diffkit.Options {
	opts := diffkit.DefaultOptions()

	switch q.Get("algorithm") {
	case "patience":
		opts.Algorithm = diff.AlgorithmPatience
	case "histogram":
		opts.Algorithm = diff.AlgorithmHistogram
	default:
		opts.Algorithm = diff.AlgorithmMyers
	}

	switch q.Get("granularity") {
	case "word":
		opts.Granularity = diff.GranularityWord
	case "char":
		opts.Granularity = diff.GranularityChar
	default:
		opts.Granularity = diff.GranularityLine
	}

	if c, err := strconv.Atoi(q.Get("context")); err == nil {
		opts.Context = clampInt(c, 0, 1000)
	}

	opts.IgnoreWhitespace = q.Has("ignoreWhitespace")
	opts.IgnoreCase = q.Has("ignoreCase")
	opts.TrimLines = q.Has("trimLines")

	if q.Has("detectMoves") {
		opts.DetectMoves = true
		opts.Move = move.DefaultConfig()
	}

	return opts
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
