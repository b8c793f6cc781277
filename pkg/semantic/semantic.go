// Package semantic implements the tree (structural) differ (spec
// §4.10): it compares two recursive JSON-shaped values and produces an
// ordered list of typed, path-addressed changes instead of a line-based
// edit script.
package semantic

import (
	"fmt"
	"path"
	"sort"
	"strconv"

	"github.com/google/go-cmp/cmp"
)

// ChangeKind distinguishes the five node-level change types.
type ChangeKind int

const (
	Add ChangeKind = iota
	Delete
	Modify
	TypeChange
	Move
)

func (k ChangeKind) String() string {
	switch k {
	case Add:
		return "add"
	case Delete:
		return "delete"
	case Modify:
		return "modify"
	case TypeChange:
		return "type-change"
	case Move:
		return "move"
	default:
		return "unknown"
	}
}

// Change is one node-level difference, addressed by path.
type Change struct {
	Kind ChangeKind
	Path string

	OldValue any
	NewValue any

	OldType string
	NewType string

	// OldIndex/NewIndex are populated for Move changes only.
	OldIndex int
	NewIndex int
}

// ArrayStrategy selects how array elements are compared (spec §4.10
// rule 5).
type ArrayStrategy int

const (
	IndexWise ArrayStrategy = iota
	OrderInsensitive
	WithMoveDetection
)

// Options configures the tree differ.
type Options struct {
	IgnorePaths   []string
	MaxDepth      int
	ArrayStrategy ArrayStrategy

	// NullEqualsUndefined treats an object key holding JSON null the
	// same as a key that isn't present at all, on either side of the
	// comparison: a key going from absent to null (or null to absent)
	// produces no change instead of an Add or Delete.
	NullEqualsUndefined bool
}

func DefaultOptions() Options {
	return Options{
		MaxDepth:      64,
		ArrayStrategy: IndexWise,
	}
}

// Stats is a running tally of each change kind plus an overall equality
// flag.
type Stats struct {
	Adds        int
	Deletes     int
	Modifies    int
	TypeChanges int
	Moves       int
	IsEqual     bool
}

// Result bundles the change list with its stats.
type Result struct {
	Changes []Change
	Stats   Stats
}

// Diff compares oldVal and newVal and returns the ordered change list
// (spec §4.10).
func Diff(oldVal, newVal any, opts Options) Result {
	var changes []Change
	walk(oldVal, newVal, "", 0, opts, &changes)

	stats := Stats{IsEqual: len(changes) == 0}
	for _, c := range changes {
		switch c.Kind {
		case Add:
			stats.Adds++
		case Delete:
			stats.Deletes++
		case Modify:
			stats.Modifies++
		case TypeChange:
			stats.TypeChanges++
		case Move:
			stats.Moves++
		}
	}
	return Result{Changes: changes, Stats: stats}
}

func walk(o, n any, p string, depth int, opts Options, out *[]Change) {
	for _, pat := range opts.IgnorePaths {
		if matched, _ := path.Match(pat, p); matched {
			return
		}
	}

	if opts.MaxDepth > 0 && depth > opts.MaxDepth {
		if !deepEqual(o, n) {
			*out = append(*out, Change{Kind: Modify, Path: p, OldValue: o, NewValue: n})
		}
		return
	}

	ot, nt := typeTag(o), typeTag(n)
	if ot != nt {
		*out = append(*out, Change{
			Kind: TypeChange, Path: p,
			OldValue: o, NewValue: n,
			OldType: ot, NewType: nt,
		})
		return
	}

	switch ot {
	case "object":
		walkObject(o.(map[string]any), n.(map[string]any), p, depth, opts, out)
	case "array":
		walkArray(o.([]any), n.([]any), p, depth, opts, out)
	default:
		if !deepEqual(o, n) {
			*out = append(*out, Change{Kind: Modify, Path: p, OldValue: o, NewValue: n})
		}
	}
}

func walkObject(o, n map[string]any, p string, depth int, opts Options, out *[]Change) {
	keys := make([]string, 0, len(o)+len(n))
	seen := make(map[string]bool)
	for k := range o {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range n {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		ov, inOld := o[k]
		nv, inNew := n[k]
		if opts.NullEqualsUndefined {
			if inOld && ov == nil {
				inOld = false
			}
			if inNew && nv == nil {
				inNew = false
			}
		}
		childPath := joinPath(p, k)
		switch {
		case inOld && !inNew:
			*out = append(*out, Change{Kind: Delete, Path: childPath, OldValue: ov})
		case !inOld && inNew:
			*out = append(*out, Change{Kind: Add, Path: childPath, NewValue: nv})
		case !inOld && !inNew:
			// both sides are null or absent under NullEqualsUndefined; no change.
		default:
			walk(ov, nv, childPath, depth+1, opts, out)
		}
	}
}

func walkArray(o, n []any, p string, depth int, opts Options, out *[]Change) {
	switch opts.ArrayStrategy {
	case OrderInsensitive:
		walkArrayOrderInsensitive(o, n, p, out)
	case WithMoveDetection:
		walkArrayWithMoves(o, n, p, depth, opts, out)
	default:
		walkArrayIndexWise(o, n, p, depth, opts, out)
	}
}

func walkArrayIndexWise(o, n []any, p string, depth int, opts Options, out *[]Change) {
	max := len(o)
	if len(n) > max {
		max = len(n)
	}
	for i := 0; i < max; i++ {
		idxPath := fmt.Sprintf("%s[%d]", p, i)
		switch {
		case i >= len(n):
			*out = append(*out, Change{Kind: Delete, Path: idxPath, OldValue: o[i]})
		case i >= len(o):
			*out = append(*out, Change{Kind: Add, Path: idxPath, NewValue: n[i]})
		default:
			walk(o[i], n[i], idxPath, depth+1, opts, out)
		}
	}
}

func walkArrayOrderInsensitive(o, n []any, p string, out *[]Change) {
	usedOld := make([]bool, len(o))
	usedNew := make([]bool, len(n))
	for i := range o {
		for j := range n {
			if usedNew[j] {
				continue
			}
			if deepEqual(o[i], n[j]) {
				usedOld[i] = true
				usedNew[j] = true
				break
			}
		}
	}
	for i, used := range usedOld {
		if !used {
			*out = append(*out, Change{Kind: Delete, Path: fmt.Sprintf("%s[%d]", p, i), OldValue: o[i]})
		}
	}
	for j, used := range usedNew {
		if !used {
			*out = append(*out, Change{Kind: Add, Path: fmt.Sprintf("%s[%d]", p, j), NewValue: n[j]})
		}
	}
}

func walkArrayWithMoves(o, n []any, p string, depth int, opts Options, out *[]Change) {
	usedOld := make([]bool, len(o))
	usedNew := make([]bool, len(n))

	for i := range o {
		if i < len(n) && deepEqual(o[i], n[i]) {
			usedOld[i] = true
			usedNew[i] = true
		}
	}

	for i, used := range usedOld {
		if used {
			continue
		}
		for j, usedJ := range usedNew {
			if usedJ {
				continue
			}
			if deepEqual(o[i], n[j]) {
				usedOld[i] = true
				usedNew[j] = true
				*out = append(*out, Change{
					Kind: Move, Path: p,
					OldValue: o[i], NewValue: n[j],
					OldIndex: i, NewIndex: j,
				})
				break
			}
		}
	}

	for i, used := range usedOld {
		if !used {
			*out = append(*out, Change{Kind: Delete, Path: fmt.Sprintf("%s[%d]", p, i), OldValue: o[i]})
		}
	}
	for j, used := range usedNew {
		if !used {
			*out = append(*out, Change{Kind: Add, Path: fmt.Sprintf("%s[%d]", p, j), NewValue: n[j]})
		}
	}
	_ = depth
}

func joinPath(p, key string) string {
	if isBareIdentifier(key) {
		if p == "" {
			return key
		}
		return p + "." + key
	}
	return p + "[" + strconv.Quote(key) + "]"
}

func isBareIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isAlpha {
			return false
		}
		if i > 0 && !isAlpha && !isDigit {
			return false
		}
	}
	return true
}

func typeTag(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// deepEqual compares two JSON-shaped values structurally with go-cmp,
// comparing float64 leaves with ==. Numbers held in different Go types
// (an int and a float64) compare unequal.
func deepEqual(a, b any) bool {
	return cmp.Equal(a, b, cmp.Comparer(func(x, y float64) bool { return x == y }))
}
