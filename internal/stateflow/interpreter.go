// Package stateflow is the ASL-style state-machine interpreter, spec
// §4.3: a sequential walk of a Definition's States map, threading a
// currentData value through InputPath → Parameters → state execution →
// ResultPath → OutputPath at every step, with Map/Parallel states
// recursing into nested sub-interpretations concurrently.
package stateflow

import (
	"context"

	"github.com/vk/cryptoasl/internal/asl"
	"github.com/vk/cryptoasl/internal/catalog"
	"github.com/vk/cryptoasl/internal/jsonpath"
	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// Tracer opens spans around one interpretation and its individual state
// transitions. The returned end func is called with the step's error (nil
// on success) when the span closes. A nil Interpreter.Tracer disables
// tracing entirely.
type Tracer interface {
	StartRun(ctx context.Context, runID string) (context.Context, func(err error))
	StartState(ctx context.Context, stateName, stateType string) (context.Context, func(err error))
}

// Interpreter runs ASL Definitions against a fixed method Catalog. It
// holds no per-run state and is safe to reuse (and to call recursively
// for Map/Parallel sub-definitions).
type Interpreter struct {
	Catalog *catalog.Catalog
	clockFn Clock
	Tracer  Tracer
}

// Option configures an Interpreter at construction.
type Option func(*Interpreter)

// WithClock overrides the Wait-state clock, for deterministic tests.
func WithClock(c Clock) Option {
	return func(i *Interpreter) { i.clockFn = c }
}

// WithTracer attaches a Tracer so every Interpret call and state
// transition opens a span.
func WithTracer(t Tracer) Option {
	return func(i *Interpreter) { i.Tracer = t }
}

// New builds an Interpreter dispatching Task states through cat.
func New(cat *catalog.Catalog, opts ...Option) *Interpreter {
	i := &Interpreter{Catalog: cat}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Interpreter) clock() Clock {
	if i.clockFn == nil {
		return realClock{}
	}
	return i.clockFn
}

type runIDKey struct{}

// WithRunID stashes a run identifier in ctx for Interpret to attach to its
// root span. Callers that don't care about tracing can skip this.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func runIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Interpret runs def to completion (a Succeed state, a terminal End
// state, or a Fail state) starting from input, per spec §4.3's dispatch
// loop. globalData starts as a copy of input, accumulates each state's
// ResultPath-placed value, is readable from any state's Parameters
// template, and is what a successful run returns.
func (i *Interpreter) Interpret(ctx context.Context, def *asl.Definition, input jsonvalue.Value) (jsonvalue.Value, error) {
	if err := Validate(def); err != nil {
		return jsonvalue.Null, err
	}

	if i.Tracer != nil {
		var end func(error)
		ctx, end = i.Tracer.StartRun(ctx, runIDFromContext(ctx))
		result, err := i.interpret(ctx, def, input)
		end(err)
		return result, err
	}
	return i.interpret(ctx, def, input)
}

func (i *Interpreter) interpret(ctx context.Context, def *asl.Definition, input jsonvalue.Value) (jsonvalue.Value, error) {
	globalData := jsonvalue.Clone(input)
	currentData := jsonvalue.Clone(input)
	stateName := def.StartAt

	for {
		if err := ctx.Err(); err != nil {
			return jsonvalue.Null, &CancelledError{State: stateName, Cause: err}
		}

		state, ok := def.States[stateName]
		if !ok {
			return jsonvalue.Null, &DefinitionError{State: stateName, Reason: "Next references unknown state"}
		}

		stateInput, err := jsonpath.ApplyInputPath(currentData, derefOrDollar(state.InputPath))
		if err != nil {
			return jsonvalue.Null, err
		}

		// Map is the one state type spec §4.3 exempts from this generic
		// Parameters application: its Parameters template is resolved once
		// per item (inside executeMap), against each item rather than
		// against the whole ItemsPath collection, so ItemsPath itself must
		// still be read off the un-templated current data.
		effectiveInput := stateInput
		if !state.Parameters.IsNull() && state.Type != asl.TypeMap {
			effectiveInput, err = ResolveParameters(state.Parameters, stateInput, globalData)
			if err != nil {
				return jsonvalue.Null, err
			}
		}

		if state.Type == asl.TypeFail {
			return jsonvalue.Null, &FailState{State: stateName, Err: state.Error, Cause: state.Cause}
		}

		if state.Type == asl.TypeChoice {
			next, err := evaluateChoice(stateName, state, effectiveInput)
			if err != nil {
				return jsonvalue.Null, err
			}
			currentData = effectiveInput
			stateName = next
			continue
		}

		result, execErr := i.executeState(ctx, stateName, state, effectiveInput, globalData)
		if execErr != nil {
			if catchRule := tryCatch(state.Catch, execErr); catchRule != nil {
				combined, perr := jsonpath.PlaceByPath(stateInput, derefOrSynthetic(catchRule.ResultPath, stateName), errorObject(execErr))
				if perr != nil {
					return jsonvalue.Null, perr
				}
				out, perr := jsonpath.ApplyOutputPath(combined, derefOrDollar(state.OutputPath))
				if perr != nil {
					return jsonvalue.Null, perr
				}
				globalData = jsonpath.MergeObjects(globalData, combined)
				currentData = out
				stateName = catchRule.Next
				continue
			}
			return jsonvalue.Null, execErr
		}

		combined := stateInput
		if state.ResultPath == nil || *state.ResultPath != "null" {
			combined, err = jsonpath.PlaceByPath(stateInput, derefOrSynthetic(state.ResultPath, stateName), result)
			if err != nil {
				return jsonvalue.Null, err
			}
		}

		out, err := jsonpath.ApplyOutputPath(combined, derefOrDollar(state.OutputPath))
		if err != nil {
			return jsonvalue.Null, err
		}
		// globalData accumulates combined — the ResultPath-placed value
		// before OutputPath narrows it — so a state's OutputPath filters
		// what flows to the next state without erasing what it contributed
		// to the run's final accumulator (spec §3.8, §6, §9).
		globalData = jsonpath.MergeObjects(globalData, combined)
		currentData = out

		if state.Type == asl.TypeSucceed || state.IsTerminal() {
			return globalData, nil
		}
		stateName = state.Next
	}
}

// executeState runs one non-Choice, non-Fail state's own effect, wrapped
// in Retry handling for Task/Map/Parallel. globalData is the run's
// accumulator as of the start of this state, needed by Map to resolve
// each item's Parameters template against it.
func (i *Interpreter) executeState(ctx context.Context, stateName string, s *asl.State, effectiveInput, globalData jsonvalue.Value) (jsonvalue.Value, error) {
	if i.Tracer != nil {
		var end func(error)
		ctx, end = i.Tracer.StartState(ctx, stateName, s.Type)
		result, err := i.executeStateUntraced(ctx, stateName, s, effectiveInput, globalData)
		end(err)
		return result, err
	}
	return i.executeStateUntraced(ctx, stateName, s, effectiveInput, globalData)
}

func (i *Interpreter) executeStateUntraced(ctx context.Context, stateName string, s *asl.State, effectiveInput, globalData jsonvalue.Value) (jsonvalue.Value, error) {
	switch s.Type {
	case asl.TypePass:
		if !s.Result.IsNull() {
			return s.Result, nil
		}
		return effectiveInput, nil
	case asl.TypeSucceed:
		return effectiveInput, nil
	case asl.TypeTask:
		return i.withRetry(ctx, s.Retry, func() (jsonvalue.Value, error) {
			return i.executeTask(ctx, s, effectiveInput)
		})
	case asl.TypeWait:
		d, err := computeWaitDuration(stateName, s, effectiveInput)
		if err != nil {
			return jsonvalue.Null, err
		}
		if err := i.clock().Sleep(ctx, d); err != nil {
			return jsonvalue.Null, &CancelledError{State: stateName, Cause: err}
		}
		return effectiveInput, nil
	case asl.TypeMap:
		return i.withRetry(ctx, s.Retry, func() (jsonvalue.Value, error) {
			return i.executeMap(ctx, stateName, s, effectiveInput, globalData)
		})
	case asl.TypeParallel:
		return i.withRetry(ctx, s.Retry, func() (jsonvalue.Value, error) {
			return i.executeParallel(ctx, stateName, s, effectiveInput)
		})
	default:
		return jsonvalue.Null, &DefinitionError{State: stateName, Reason: "unknown state Type " + s.Type}
	}
}

func derefOrDollar(p *string) string {
	if p == nil {
		return "$"
	}
	return *p
}

func derefOrSynthetic(p *string, stateName string) string {
	if p == nil {
		return "$." + stateName
	}
	return *p
}
