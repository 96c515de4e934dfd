package stateflow

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cryptoasl/internal/asl"
	"github.com/vk/cryptoasl/internal/catalog"
	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// testToolbox is a small catalog host exercising Task dispatch across the
// scenarios in spec §8 (S1-S6).
type testToolbox struct {
	flakyAttempts atomic.Int32
}

func (*testToolbox) Double(ctx context.Context, n float64) (float64, error) {
	return n * 2, nil
}

func (*testToolbox) Greet(ctx context.Context, name string) (string, error) {
	return "hello " + name, nil
}

func (t *testToolbox) Flaky(ctx context.Context) (string, error) {
	n := t.flakyAttempts.Add(1)
	if n < 3 {
		return "", fmt.Errorf("transient failure %d", n)
	}
	return "recovered", nil
}

func (*testToolbox) AlwaysFail(ctx context.Context) (string, error) {
	return "", fmt.Errorf("permanent failure")
}

func (*testToolbox) AddTime(ctx context.Context, at time.Time, value float64, unit string) (time.Time, error) {
	var d time.Duration
	switch unit {
	case "Days":
		d = time.Duration(value) * 24 * time.Hour
	case "Hours":
		d = time.Duration(value) * time.Hour
	case "Minutes":
		d = time.Duration(value) * time.Minute
	}
	return at.Add(d), nil
}

func newTestInterpreter(t *testing.T) (*Interpreter, *testToolbox) {
	t.Helper()
	tb := &testToolbox{}
	cat, err := catalog.New(tb)
	require.NoError(t, err)
	return New(cat), tb
}

// fakeClock never actually sleeps; it just records the last requested
// duration, so Wait-state tests run instantly.
type fakeClock struct {
	last time.Duration
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.last = d
	return nil
}

func strPtr(s string) *string { return &s }

// S1: a Pass pipeline threading currentData through synthetic ResultPaths.
func TestInterpret_PurePipeline(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	def := &asl.Definition{
		StartAt: "First",
		States: map[string]*asl.State{
			"First": {Type: asl.TypePass, Result: jsonvalue.String("one"), Next: "Second"},
			"Second": {Type: asl.TypePass, Result: jsonvalue.String("two"), End: true},
		},
	}
	out, err := interp.Interpret(context.Background(), def, jsonvalue.NewMap())
	require.NoError(t, err)
	assert.Equal(t, "two", out.Get("Second").Str)
	assert.Equal(t, "one", out.Get("First").Str)
}

// S2: Choice branches on a numeric comparator.
func TestInterpret_ChoiceBranches(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	threshold := 10.0
	def := &asl.Definition{
		StartAt: "Decide",
		States: map[string]*asl.State{
			"Decide": {
				Type: asl.TypeChoice,
				Choices: []asl.Choice{
					{Variable: "$.n", NumericGreaterThan: &threshold, Next: "High"},
				},
				Default: "Low",
			},
			"High": {Type: asl.TypePass, Result: jsonvalue.String("high"), ResultPath: strPtr("$"), End: true},
			"Low":  {Type: asl.TypePass, Result: jsonvalue.String("low"), ResultPath: strPtr("$"), End: true},
		},
	}

	input := jsonvalue.NewMap()
	input.Set("n", jsonvalue.Number(20))
	out, err := interp.Interpret(context.Background(), def, input)
	require.NoError(t, err)
	assert.Equal(t, "high", out.Str)

	input2 := jsonvalue.NewMap()
	input2.Set("n", jsonvalue.Number(1))
	out2, err := interp.Interpret(context.Background(), def, input2)
	require.NoError(t, err)
	assert.Equal(t, "low", out2.Str)
}

// The interpreter returns the accumulator, not the last state's narrowed
// currentData: a later state's OutputPath can drop everything an earlier
// state contributed to currentData, but the run's final value still
// carries it via globalData.
func TestInterpret_ReturnsAccumulatedGlobalData(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	resultA := jsonvalue.NewMap()
	resultA.Set("x", jsonvalue.Number(1))
	resultB := jsonvalue.NewMap()
	resultB.Set("y", jsonvalue.Number(2))
	def := &asl.Definition{
		StartAt: "A",
		States: map[string]*asl.State{
			"A": {Type: asl.TypePass, Result: resultA, Next: "B"},
			"B": {Type: asl.TypePass, Result: resultB, OutputPath: strPtr("$.A"), End: true},
		},
	}
	out, err := interp.Interpret(context.Background(), def, jsonvalue.NewMap())
	require.NoError(t, err)
	assert.Equal(t, float64(1), out.Get("A").Get("x").Num)
	assert.Equal(t, float64(2), out.Get("B").Get("y").Num)
}

// S3: Map preserves input order regardless of completion order.
func TestInterpret_MapPreservesOrder(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	def := &asl.Definition{
		StartAt: "DoubleAll",
		States: map[string]*asl.State{
			"DoubleAll": {
				Type:     asl.TypeMap,
				ItemsPath: "$.items",
				Iterator: &asl.Definition{
					StartAt: "One",
					States: map[string]*asl.State{
						"One": {
							Type:       asl.TypeTask,
							Resource:   "Double",
							ResultPath: strPtr("$"),
							End:        true,
						},
					},
				},
				MaxConcurrency: 4,
				ResultPath:     strPtr("$.doubled"),
				End:            true,
			},
		},
	}

	input := jsonvalue.NewMap()
	input.Set("items", jsonvalue.NewSeq(jsonvalue.Number(1), jsonvalue.Number(2), jsonvalue.Number(3), jsonvalue.Number(4)))
	out, err := interp.Interpret(context.Background(), def, input)
	require.NoError(t, err)
	doubled := out.Get("doubled")
	require.Equal(t, jsonvalue.KindSeq, doubled.Kind)
	require.Len(t, doubled.Seq, 4)
	assert.Equal(t, []float64{2, 4, 6, 8}, []float64{doubled.Seq[0].Num, doubled.Seq[1].Num, doubled.Seq[2].Num, doubled.Seq[3].Num})
}

// S4: Parallel branches merge on disjoint keys.
func TestInterpret_ParallelMergeDisjointKeys(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	branchA := &asl.Definition{
		StartAt: "A",
		States: map[string]*asl.State{
			"A": {Type: asl.TypePass, Result: jsonvalue.String("a-value"), ResultPath: strPtr("$.a"), End: true},
		},
	}
	branchB := &asl.Definition{
		StartAt: "B",
		States: map[string]*asl.State{
			"B": {Type: asl.TypePass, Result: jsonvalue.String("b-value"), ResultPath: strPtr("$.b"), End: true},
		},
	}
	def := &asl.Definition{
		StartAt: "Fan",
		States: map[string]*asl.State{
			"Fan": {Type: asl.TypeParallel, Branches: []*asl.Definition{branchA, branchB}, ResultPath: strPtr("$"), End: true},
		},
	}

	out, err := interp.Interpret(context.Background(), def, jsonvalue.NewMap())
	require.NoError(t, err)
	assert.Equal(t, "a-value", out.Get("a").Str)
	assert.Equal(t, "b-value", out.Get("b").Str)
}

// Task dispatch through the lambda:invoke ARN shape with a sequence-shaped
// Payload — args are used positionally as-is.
func TestInterpret_TaskLambdaInvoke_SequencePayload(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	def := &asl.Definition{
		StartAt: "Invoke",
		States: map[string]*asl.State{
			"Invoke": {
				Type:     asl.TypeTask,
				Resource: lambdaInvokeResource,
				Parameters: func() jsonvalue.Value {
					params := jsonvalue.NewMap()
					params.Set("FunctionName", jsonvalue.String("Greet"))
					payload := jsonvalue.NewSeq(jsonvalue.String("world"))
					params.Set("Payload", payload)
					return params
				}(),
				End: true,
			},
		},
	}
	out, err := interp.Interpret(context.Background(), def, jsonvalue.NewMap())
	require.NoError(t, err)
	assert.Equal(t, "hello world", out.Get("Invoke").Str)
}

// S5: Task with lambda-invoke pattern, object-shaped Payload. None of
// Payload's own keys ("date", "value", "timeUnit") match a reflected
// parameter's synthetic name ("arg0".."arg2"), so every argument is filled
// positionally from Payload's unconsumed keys in map-iteration order (spec
// §4.2 rule 2, §8's S5).
func TestInterpret_TaskLambdaInvoke_ObjectPayloadPositionalFill(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	def := &asl.Definition{
		StartAt: "Invoke",
		States: map[string]*asl.State{
			"Invoke": {
				Type:     asl.TypeTask,
				Resource: lambdaInvokeResource,
				Parameters: func() jsonvalue.Value {
					payload := jsonvalue.NewMap()
					payload.Set("date.$", jsonvalue.String("$.d"))
					payload.Set("value", jsonvalue.Number(1))
					payload.Set("timeUnit", jsonvalue.String("Days"))

					params := jsonvalue.NewMap()
					params.Set("FunctionName", jsonvalue.String("AddTime"))
					params.Set("Payload", payload)
					return params
				}(),
				End: true,
			},
		},
	}
	input := jsonvalue.NewMap()
	input.Set("d", jsonvalue.String("2024-01-01T00:00:00Z"))
	out, err := interp.Interpret(context.Background(), def, input)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T00:00:00Z", out.Get("Invoke").Str)
}

// S6: Wait resolves its delay from SecondsPath.
func TestInterpret_WaitByPath(t *testing.T) {
	clock := &fakeClock{}
	tb := &testToolbox{}
	cat, err := catalog.New(tb)
	require.NoError(t, err)
	interp := New(cat, WithClock(clock))

	def := &asl.Definition{
		StartAt: "Pause",
		States: map[string]*asl.State{
			"Pause": {Type: asl.TypeWait, SecondsPath: "$.delay", End: true},
		},
	}
	input := jsonvalue.NewMap()
	input.Set("delay", jsonvalue.Number(5))
	_, err = interp.Interpret(context.Background(), def, input)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, clock.last)
}

func TestInterpret_FailState(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	def := &asl.Definition{
		StartAt: "Boom",
		States: map[string]*asl.State{
			"Boom": {Type: asl.TypeFail, Error: "Boom.Error", Cause: "deliberate"},
		},
	}
	_, err := interp.Interpret(context.Background(), def, jsonvalue.NewMap())
	require.Error(t, err)
	var failErr *FailState
	require.ErrorAs(t, err, &failErr)
	assert.Equal(t, "Boom.Error", failErr.Err)
}

func TestInterpret_RetryRecoversFromTransientFailure(t *testing.T) {
	clock := &fakeClock{}
	tb := &testToolbox{}
	cat, err := catalog.New(tb)
	require.NoError(t, err)
	interp := New(cat, WithClock(clock))

	def := &asl.Definition{
		StartAt: "TryFlaky",
		States: map[string]*asl.State{
			"TryFlaky": {
				Type:     asl.TypeTask,
				Resource: "Flaky",
				Retry: []asl.RetryRule{
					{ErrorEquals: []string{"States.ALL"}, MaxAttempts: 5, IntervalSeconds: 1},
				},
				End: true,
			},
		},
	}
	out, err := interp.Interpret(context.Background(), def, jsonvalue.NewMap())
	require.NoError(t, err)
	assert.Equal(t, "recovered", out.Get("TryFlaky").Str)
	assert.Equal(t, int32(3), tb.flakyAttempts.Load())
}

func TestInterpret_CatchRedirectsOnPermanentFailure(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	def := &asl.Definition{
		StartAt: "TryAlwaysFail",
		States: map[string]*asl.State{
			"TryAlwaysFail": {
				Type:     asl.TypeTask,
				Resource: "AlwaysFail",
				Catch: []asl.CatchRule{
					{ErrorEquals: []string{"States.ALL"}, Next: "Recover", ResultPath: strPtr("$.err")},
				},
				End: true,
			},
			"Recover": {Type: asl.TypePass, ResultPath: strPtr("$.recovered"), Result: jsonvalue.Bool(true), End: true},
		},
	}
	out, err := interp.Interpret(context.Background(), def, jsonvalue.NewMap())
	require.NoError(t, err)
	assert.True(t, out.Get("recovered").Bool)
	assert.Equal(t, "HostError", out.Get("err").Get("Error").Str)
}

func TestInterpret_DefinitionErrorOnBadStartAt(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	def := &asl.Definition{StartAt: "Nope", States: map[string]*asl.State{
		"Real": {Type: asl.TypeSucceed},
	}}
	_, err := interp.Interpret(context.Background(), def, jsonvalue.NewMap())
	require.Error(t, err)
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
}

func TestInterpret_CancelledContextStopsInterpretation(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	def := &asl.Definition{
		StartAt: "First",
		States: map[string]*asl.State{
			"First": {Type: asl.TypePass, End: true},
		},
	}
	_, err := interp.Interpret(ctx, def, jsonvalue.NewMap())
	require.Error(t, err)
	var cancelErr *CancelledError
	require.ErrorAs(t, err, &cancelErr)
}
