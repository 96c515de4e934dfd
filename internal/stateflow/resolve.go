package stateflow

import (
	"strings"

	"github.com/vk/cryptoasl/internal/jsonpath"
	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// ResolveParameters walks a Parameters template per spec §4.1: any object
// key ending in ".$" has its string value treated as a path, evaluated
// against currentData, falling back to globalData when currentData has
// nothing at that path (spec §8 property 7: GetByPath(currentData, p) ??
// GetByPath(globalData, p)) — letting a state reach data outside its own
// InputPath-filtered view even without the "$$." context-object prefix. A
// path prefixed "$$." bypasses currentData and reads globalData directly
// (the ASL "context object" convention). Every other key is copied
// through literally, recursing into nested objects and arrays so a
// template can mix literal structure with path-substitution at any depth.
func ResolveParameters(tmpl, currentData, globalData jsonvalue.Value) (jsonvalue.Value, error) {
	if tmpl.IsNull() {
		return jsonvalue.Null, nil
	}
	return resolveTemplate(tmpl, currentData, globalData)
}

func resolveTemplate(tmpl, currentData, globalData jsonvalue.Value) (jsonvalue.Value, error) {
	switch tmpl.Kind {
	case jsonvalue.KindMap:
		out := jsonvalue.NewMap()
		for _, k := range tmpl.SortedKeys() {
			v := tmpl.Map[k]
			if strings.HasSuffix(k, ".$") {
				resolved, err := resolvePathValue(v, currentData, globalData)
				if err != nil {
					return jsonvalue.Null, err
				}
				out.Set(strings.TrimSuffix(k, ".$"), resolved)
				continue
			}
			resolved, err := resolveTemplate(v, currentData, globalData)
			if err != nil {
				return jsonvalue.Null, err
			}
			out.Set(k, resolved)
		}
		return out, nil
	case jsonvalue.KindSeq:
		out := make([]jsonvalue.Value, len(tmpl.Seq))
		for i, e := range tmpl.Seq {
			resolved, err := resolveTemplate(e, currentData, globalData)
			if err != nil {
				return jsonvalue.Null, err
			}
			out[i] = resolved
		}
		return jsonvalue.Value{Kind: jsonvalue.KindSeq, Seq: out}, nil
	default:
		return jsonvalue.Clone(tmpl), nil
	}
}

func resolvePathValue(v, currentData, globalData jsonvalue.Value) (jsonvalue.Value, error) {
	if v.Kind != jsonvalue.KindString {
		return jsonvalue.Null, &DefinitionError{Reason: "path-valued Parameters key must hold a string path"}
	}
	path := v.Str
	if strings.HasPrefix(path, "$$.") || path == "$$" {
		return jsonpath.GetByPath(globalData, "$"+strings.TrimPrefix(path, "$$"))
	}
	found, err := jsonpath.GetByPath(currentData, path)
	if err != nil {
		return jsonvalue.Null, err
	}
	if !found.IsNull() {
		return found, nil
	}
	return jsonpath.GetByPath(globalData, path)
}
