// Package diffkit is the single external entry point for the toolkit's
// diff computation core (spec §5): it composes pkg/diff,
// pkg/worddiff, pkg/linepair, pkg/move, pkg/semantic, and pkg/unified
// behind the five named top-level operations (diff, generate_hunks,
// detect_moves, diff_json, parse_unified). Every operation here is a
// pure function of its inputs.
package diffkit

import (
	"github.com/grenlabs/diffkit/pkg/diff"
	"github.com/grenlabs/diffkit/pkg/linepair"
	"github.com/grenlabs/diffkit/pkg/move"
	"github.com/grenlabs/diffkit/pkg/semantic"
	"github.com/grenlabs/diffkit/pkg/unified"
	"github.com/grenlabs/diffkit/pkg/worddiff"
)

// Options configures the composed pipeline: the line-diff core plus the
// optional move-detection pass.
type Options struct {
	diff.Options
	DetectMoves bool
	Move        move.Config
}

// DefaultOptions returns line-diff defaults with move detection off.
func DefaultOptions() Options {
	return Options{Options: diff.DefaultOptions(), Move: move.DefaultConfig()}
}

// Diff runs the full pipeline over two texts: tokenize, line-diff,
// merge, hunk, optional word/char refinement, optional move detection.
func Diff(oldText, newText string, opts Options) diff.DiffResult {
	res := diff.Compute(oldText, newText, opts.Options)

	if opts.Granularity != diff.GranularityLine {
		wdOpts := worddiff.Options{
			Granularity:      granularityFor(opts.Granularity),
			IgnoreCase:       opts.IgnoreCase,
			IgnoreWhitespace: opts.IgnoreWhitespace,
		}
		for i := range res.Hunks {
			linepair.Enhance(res.Hunks[i].Changes, wdOpts)
		}
	}

	if opts.DetectMoves {
		blocks := move.Detect(res.Operations, opts.Move)
		for i := range res.Hunks {
			move.AnnotateChanges(res.Hunks[i].Changes, blocks)
		}
	}

	return res
}

func granularityFor(g diff.Granularity) worddiff.Granularity {
	if g == diff.GranularityChar {
		return worddiff.Char
	}
	return worddiff.Word
}

// GenerateHunks groups an already-computed operation sequence into
// hunks, without re-running a line-diff engine.
func GenerateHunks(ops []diff.Operation, context int) []diff.Hunk {
	return diff.GenerateHunks(ops, context)
}

// DetectMoves runs the line-diff core then the move detector over the
// result, returning the recognized relocation blocks.
func DetectMoves(oldText, newText string, diffOpts diff.Options, moveCfg move.Config) []move.Block {
	res := diff.Compute(oldText, newText, diffOpts)
	return move.Detect(res.Operations, moveCfg)
}

// DiffJSON runs the structural differ over two JSON-shaped values.
func DiffJSON(oldVal, newVal any, opts semantic.Options) semantic.Result {
	return semantic.Diff(oldVal, newVal, opts)
}

// ParseUnified parses a single-file unified diff.
func ParseUnified(text string) (unified.File, error) {
	return unified.Parse(text)
}

// ParseUnifiedMultiFile parses a multi-file `diff --git` unified diff.
func ParseUnifiedMultiFile(text string) ([]unified.File, error) {
	return unified.ParseMultiFile(text)
}
