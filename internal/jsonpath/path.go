// Package jsonpath implements the dotted-path read/write/merge operations
// (GetByPath, PlaceByPath, MergeObjects, DeepClone) that the interpreter uses
// to move data between states, grounded on the same "narrow path lets you
// touch one corner of a bigger document" idea as an HCL traversal, but
// operating over jsonvalue.Value instead of cty.Value / hcl.Traversal.
package jsonpath

import (
	"fmt"
	"strings"

	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// PathError is raised when a path string is syntactically invalid.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("jsonpath: invalid path %q: %s", e.Path, e.Reason)
}

// segments splits a path of the form "$" or "$.a.b.0.c" into its dotted
// components. An empty path and "$" both mean "the whole document".
func segments(path string) ([]string, error) {
	if path == "" || path == "$" {
		return nil, nil
	}
	if !strings.HasPrefix(path, "$.") {
		return nil, &PathError{Path: path, Reason: "must start with '$' or '$.'"}
	}
	rest := strings.TrimPrefix(path, "$.")
	if rest == "" {
		return nil, &PathError{Path: path, Reason: "empty segment after '$.'"}
	}
	return strings.Split(rest, "."), nil
}

// IsRoot reports whether path refers to the whole document ("$" or empty).
func IsRoot(path string) bool {
	return path == "" || path == "$"
}

// GetByPath reads the value addressed by path within v. Any missing map key
// or out-of-range sequence index yields jsonvalue.Null rather than an error,
// per spec §4.1.
func GetByPath(v jsonvalue.Value, path string) (jsonvalue.Value, error) {
	segs, err := segments(path)
	if err != nil {
		return jsonvalue.Null, err
	}
	cur := v
	for _, seg := range segs {
		switch cur.Kind {
		case jsonvalue.KindMap:
			next, ok := cur.Map[seg]
			if !ok {
				return jsonvalue.Null, nil
			}
			cur = next
		case jsonvalue.KindSeq:
			idx, ok := jsonvalue.AsIndex(seg)
			if !ok || idx >= len(cur.Seq) {
				return jsonvalue.Null, nil
			}
			cur = cur.Seq[idx]
		default:
			return jsonvalue.Null, nil
		}
	}
	return cur, nil
}

// ApplyInputPath narrows v to state.InputPath ("$"/empty is identity).
func ApplyInputPath(v jsonvalue.Value, path string) (jsonvalue.Value, error) {
	if IsRoot(path) {
		return v, nil
	}
	return GetByPath(v, path)
}

// ApplyOutputPath narrows v to state.OutputPath ("$"/empty is identity).
func ApplyOutputPath(v jsonvalue.Value, path string) (jsonvalue.Value, error) {
	if IsRoot(path) {
		return v, nil
	}
	return GetByPath(v, path)
}

// PlaceByPath deep-clones root, then writes value at path, materialising
// intermediate maps or sequences as needed. "$" or empty replaces the whole
// document with value. The original root is never mutated.
func PlaceByPath(root jsonvalue.Value, path string, value jsonvalue.Value) (jsonvalue.Value, error) {
	segs, err := segments(path)
	if err != nil {
		return jsonvalue.Null, err
	}
	cloned := jsonvalue.Clone(root)
	if len(segs) == 0 {
		return value, nil
	}
	placed, err := place(cloned, segs, value)
	if err != nil {
		return jsonvalue.Null, err
	}
	return placed, nil
}

// place recursively materialises segs within cur, returning the rewritten
// node. A segment that parses as a non-negative integer creates/extends a
// sequence; any other segment creates/extends a map.
func place(cur jsonvalue.Value, segs []string, value jsonvalue.Value) (jsonvalue.Value, error) {
	seg := segs[0]
	rest := segs[1:]

	if idx, isIndex := jsonvalue.AsIndex(seg); isIndex {
		seq := cur
		if seq.Kind != jsonvalue.KindSeq {
			seq = jsonvalue.Value{Kind: jsonvalue.KindSeq}
		}
		for len(seq.Seq) <= idx {
			seq.Seq = append(seq.Seq, jsonvalue.Null)
		}
		if len(rest) == 0 {
			seq.Seq[idx] = value
			return seq, nil
		}
		child, err := place(seq.Seq[idx], rest, value)
		if err != nil {
			return jsonvalue.Null, err
		}
		seq.Seq[idx] = child
		return seq, nil
	}

	obj := cur
	if obj.Kind != jsonvalue.KindMap {
		obj = jsonvalue.NewMap()
	}
	if len(rest) == 0 {
		obj.Set(seg, value)
		return obj, nil
	}
	existing := obj.Get(seg)
	child, err := place(existing, rest, value)
	if err != nil {
		return jsonvalue.Null, err
	}
	obj.Set(seg, child)
	return obj, nil
}

// MergeObjects implements the commutative-on-disjoint-keys merge from spec
// §4.1: null defers to the other side, two maps merge key-wise (right wins
// on scalar conflict), two sequences concatenate left-then-right, and any
// other combination takes b.
func MergeObjects(a, b jsonvalue.Value) jsonvalue.Value {
	if a.IsNull() {
		return b
	}
	if b.IsNull() {
		return a
	}
	if a.Kind == jsonvalue.KindMap && b.Kind == jsonvalue.KindMap {
		out := jsonvalue.Clone(a)
		for _, k := range b.SortedKeys() {
			bv := b.Map[k]
			if av, ok := out.Map[k]; ok {
				out.Set(k, MergeObjects(av, bv))
			} else {
				out.Set(k, jsonvalue.Clone(bv))
			}
		}
		return out
	}
	if a.Kind == jsonvalue.KindSeq && b.Kind == jsonvalue.KindSeq {
		out := jsonvalue.Clone(a)
		out.Seq = append(out.Seq, jsonvalue.Clone(b).Seq...)
		return out
	}
	return b
}

// DeepClone returns a structural copy of v; strings/numbers/bools are
// copied by value already.
func DeepClone(v jsonvalue.Value) jsonvalue.Value {
	return jsonvalue.Clone(v)
}
