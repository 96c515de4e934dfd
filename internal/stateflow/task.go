package stateflow

import (
	"context"

	"github.com/vk/cryptoasl/internal/asl"
	"github.com/vk/cryptoasl/internal/catalog"
	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// lambdaInvokeResource is the one AWS-Lambda-shaped Resource ARN this
// interpreter special-cases, per spec §4.3: Task.Resource set to this
// value dispatches through Parameters.FunctionName/Parameters.Payload
// instead of treating Resource itself as the catalog method name.
const lambdaInvokeResource = "arn:aws:states:::lambda:invoke"

// executeTask resolves a Task state's Resource to a catalog method and
// invokes it against the (already InputPath/Parameters-resolved)
// effective input document.
func (i *Interpreter) executeTask(ctx context.Context, s *asl.State, effectiveInput jsonvalue.Value) (jsonvalue.Value, error) {
	if s.Resource == "" {
		return jsonvalue.Null, &catalog.ResourceError{Resource: "", Reason: "Task state has an empty Resource"}
	}

	method := s.Resource
	argDoc := effectiveInput

	if s.Resource == lambdaInvokeResource {
		fn := effectiveInput.Get("FunctionName")
		if fn.Kind != jsonvalue.KindString || fn.Str == "" {
			return jsonvalue.Null, &catalog.ResourceError{
				Resource: s.Resource,
				Reason:   "lambda:invoke requires Parameters.FunctionName",
			}
		}
		method = fn.Str
		// Per spec's documented Open Question: when Parameters.Payload is
		// present it is the sole argument document; otherwise fall back to
		// the generic argument-array construction rule against the whole
		// resolved Parameters object (source-preserving behavior).
		if payload := effectiveInput.Get("Payload"); !payload.IsNull() {
			argDoc = payload
		}
	}

	args := buildArgs(i.Catalog, method, argDoc)
	return i.Catalog.Invoke(ctx, method, args)
}

// buildArgs turns a Task's resolved argument document into the positional
// argument slice Catalog.Invoke expects. A sequence document is used
// as-is; an object document is reordered to the catalog's declared
// parameter order for that method; anything else becomes a single
// positional argument; null yields no arguments.
//
// Per spec §4.2 rule 2, a declared parameter absent from the object's own
// keys (the ordinary case, since reflection can only ever name parameters
// arg0..argN — a caller's Payload uses its own real names, e.g. "date" /
// "value" / "timeUnit") is filled positionally from the object's
// unconsumed keys, in map-iteration order.
func buildArgs(cat *catalog.Catalog, method string, doc jsonvalue.Value) []jsonvalue.Value {
	switch doc.Kind {
	case jsonvalue.KindSeq:
		return doc.Seq
	case jsonvalue.KindMap:
		order, ok := cat.ParamOrder(method)
		if !ok {
			order = doc.SortedKeys()
		}
		args := make([]jsonvalue.Value, len(order))
		matched := make([]bool, len(order))
		consumed := make(map[string]bool, len(order))
		for idx, name := range order {
			if v, ok := doc.Map[name]; ok {
				args[idx] = v
				matched[idx] = true
				consumed[name] = true
			}
		}

		var leftover []string
		for _, k := range doc.SortedKeys() {
			if !consumed[k] {
				leftover = append(leftover, k)
			}
		}
		next := 0
		for idx := range order {
			if matched[idx] {
				continue
			}
			if next < len(leftover) {
				args[idx] = doc.Get(leftover[next])
				next++
			} else {
				args[idx] = jsonvalue.Null
			}
		}
		return args
	case jsonvalue.KindNull:
		return nil
	default:
		return []jsonvalue.Value{doc}
	}
}
