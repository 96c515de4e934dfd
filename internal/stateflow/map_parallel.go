package stateflow

import (
	"context"

	"github.com/vk/cryptoasl/internal/asl"
	"github.com/vk/cryptoasl/internal/jsonpath"
	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// executeMap runs a Map state's Iterator sub-definition once per element
// of ItemsPath, concurrently up to MaxConcurrency, preserving result
// order by input position regardless of completion order (spec §5). Per
// spec §4.3, each item's effective sub-input is its own
// ResolveParameters(item, Parameters) — the template is applied per item,
// not once to the whole ItemsPath collection.
func (i *Interpreter) executeMap(ctx context.Context, stateName string, s *asl.State, effectiveInput, globalData jsonvalue.Value) (jsonvalue.Value, error) {
	itemsPath := s.ItemsPath
	if itemsPath == "" {
		itemsPath = "$"
	}
	items, err := jsonpath.GetByPath(effectiveInput, itemsPath)
	if err != nil {
		return jsonvalue.Null, err
	}
	if items.Kind != jsonvalue.KindSeq {
		return jsonvalue.Null, &DefinitionError{State: stateName, Reason: "Map ItemsPath does not resolve to an array"}
	}
	if s.Iterator == nil {
		return jsonvalue.Null, &DefinitionError{State: stateName, Reason: "Map state has no Iterator"}
	}
	if err := Validate(s.Iterator); err != nil {
		return jsonvalue.Null, err
	}

	results, err := runPool(ctx, s.MaxConcurrency, len(items.Seq), func(ctx context.Context, idx int) (jsonvalue.Value, error) {
		itemInput := items.Seq[idx]
		if !s.Parameters.IsNull() {
			resolved, rerr := ResolveParameters(s.Parameters, itemInput, globalData)
			if rerr != nil {
				return jsonvalue.Null, rerr
			}
			itemInput = resolved
		}
		return i.Interpret(ctx, s.Iterator, itemInput)
	})
	if err != nil {
		return jsonvalue.Null, err
	}
	return jsonvalue.Value{Kind: jsonvalue.KindSeq, Seq: results}, nil
}

// executeParallel runs every Branch sub-definition concurrently against
// the same effective input, merging their outputs with MergeObjects —
// commutative on disjoint keys, per spec §5.
func (i *Interpreter) executeParallel(ctx context.Context, stateName string, s *asl.State, effectiveInput jsonvalue.Value) (jsonvalue.Value, error) {
	n := len(s.Branches)
	if n == 0 {
		return jsonvalue.Null, &DefinitionError{State: stateName, Reason: "Parallel state has no Branches"}
	}
	for _, b := range s.Branches {
		if err := Validate(b); err != nil {
			return jsonvalue.Null, err
		}
	}

	results, err := runPool(ctx, n, n, func(ctx context.Context, idx int) (jsonvalue.Value, error) {
		return i.Interpret(ctx, s.Branches[idx], effectiveInput)
	})
	if err != nil {
		return jsonvalue.Null, err
	}

	merged := jsonvalue.Null
	for _, r := range results {
		merged = jsonpath.MergeObjects(merged, r)
	}
	return merged, nil
}
