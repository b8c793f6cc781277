package diff

// Compute runs the configured line-diff algorithm over oldText and
// newText and returns the full pipeline result: operations, hunks, and
// stats (spec §6). Granularity is not applied here — word/char
// refinement is a downstream stage composed by callers that also need
// the word-diff and line-pair packages; see pkg/diffkit for the
// composed entry point.
func Compute(oldText, newText string, opts Options) DiffResult {
	a := tokenize(oldText, opts)
	b := tokenize(newText, opts)

	var ops []Operation
	switch opts.Algorithm {
	case AlgorithmPatience:
		ops = patienceDiff(a, b)
	case AlgorithmHistogram:
		ops = histogramDiff(a, b)
	default:
		ops = runMyers(a, b)
	}
	ops = mergeOperations(ops)

	hunks := buildHunks(ops, opts.Context)
	stats := computeStats(ops, len(a), len(b))

	return DiffResult{
		Operations: ops,
		Hunks:      hunks,
		Stats:      stats,
		Options:    opts,
	}
}

func computeStats(ops []Operation, oldLineCount, newLineCount int) Stats {
	var additions, deletions int
	for _, op := range ops {
		switch op.Kind {
		case OpInsert:
			additions += op.NewEnd - op.NewStart
		case OpDelete:
			deletions += op.OldEnd - op.OldStart
		}
	}
	return Stats{
		Additions:    additions,
		Deletions:    deletions,
		Changes:      additions + deletions,
		OldLineCount: oldLineCount,
		NewLineCount: newLineCount,
		Similarity:   similarity(oldLineCount, newLineCount, additions, deletions),
	}
}

// similarity implements the percentage formula from spec §6: two empty
// inputs are defined to be 100% similar.
func similarity(oldLineCount, newLineCount, additions, deletions int) float64 {
	maxLines := oldLineCount
	if newLineCount > maxLines {
		maxLines = newLineCount
	}
	if maxLines == 0 {
		return 100
	}
	maxChange := additions
	if deletions > maxChange {
		maxChange = deletions
	}
	return round(100 * float64(maxLines-maxChange) / float64(maxLines))
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int(f - 0.5))
	}
	return float64(int(f + 0.5))
}
