package stateflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cryptoasl/internal/asl"
	"github.com/vk/cryptoasl/internal/jsonvalue"
)

func boolPtr(b bool) *bool { return &b }
func floatPtr(f float64) *float64 { return &f }

func TestEvaluateChoice_MultipleComparatorsAnyFiresWins(t *testing.T) {
	// Per spec's documented Open Question: a rule with both StringEquals
	// and NumericGreaterThan set fires if *either* matches.
	state := &asl.State{
		Choices: []asl.Choice{
			{Variable: "$.n", StringEquals: strPtr("nope"), NumericGreaterThan: floatPtr(5), Next: "Fires"},
		},
		Default: "DoesNotFire",
	}
	data := jsonvalue.NewMap()
	data.Set("n", jsonvalue.Number(10))
	next, err := evaluateChoice("Decide", state, data)
	require.NoError(t, err)
	assert.Equal(t, "Fires", next)
}

func TestEvaluateChoice_AndRequiresAllSubRules(t *testing.T) {
	state := &asl.State{
		Choices: []asl.Choice{
			{And: []asl.Choice{
				{Variable: "$.n", NumericGreaterThan: floatPtr(5)},
				{Variable: "$.n", NumericLessThan: floatPtr(100)},
			}, Next: "Both"},
		},
		Default: "Neither",
	}
	data := jsonvalue.NewMap()
	data.Set("n", jsonvalue.Number(10))
	next, err := evaluateChoice("Decide", state, data)
	require.NoError(t, err)
	assert.Equal(t, "Both", next)

	data2 := jsonvalue.NewMap()
	data2.Set("n", jsonvalue.Number(200))
	next2, err := evaluateChoice("Decide", state, data2)
	require.NoError(t, err)
	assert.Equal(t, "Neither", next2)
}

func TestEvaluateChoice_NotNegates(t *testing.T) {
	state := &asl.State{
		Choices: []asl.Choice{
			{Not: &asl.Choice{Variable: "$.n", NumericEquals: floatPtr(0)}, Next: "NonZero"},
		},
		Default: "Zero",
	}
	data := jsonvalue.NewMap()
	data.Set("n", jsonvalue.Number(1))
	next, err := evaluateChoice("Decide", state, data)
	require.NoError(t, err)
	assert.Equal(t, "NonZero", next)
}

func TestEvaluateChoice_NoMatchNoDefaultIsChoiceError(t *testing.T) {
	state := &asl.State{
		Choices: []asl.Choice{
			{Variable: "$.n", NumericEquals: floatPtr(99), Next: "Unreachable"},
		},
	}
	data := jsonvalue.NewMap()
	data.Set("n", jsonvalue.Number(1))
	_, err := evaluateChoice("Decide", state, data)
	require.Error(t, err)
	var choiceErr *ChoiceError
	require.ErrorAs(t, err, &choiceErr)
}

func TestEvaluateChoice_NumericStringCoerces(t *testing.T) {
	state := &asl.State{
		Choices: []asl.Choice{
			{Variable: "$.n", NumericGreaterThan: floatPtr(5), Next: "Fires"},
		},
		Default: "DoesNotFire",
	}
	data := jsonvalue.NewMap()
	data.Set("n", jsonvalue.String("10"))
	next, err := evaluateChoice("Decide", state, data)
	require.NoError(t, err)
	assert.Equal(t, "Fires", next)
}

func TestEvaluateChoice_NonNumericStringDoesNotCoerce(t *testing.T) {
	state := &asl.State{
		Choices: []asl.Choice{
			{Variable: "$.n", NumericGreaterThan: floatPtr(5), Next: "Fires"},
		},
		Default: "DoesNotFire",
	}
	data := jsonvalue.NewMap()
	data.Set("n", jsonvalue.String("not-a-number"))
	next, err := evaluateChoice("Decide", state, data)
	require.NoError(t, err)
	assert.Equal(t, "DoesNotFire", next)
}

func TestEvaluateChoice_IsPresent(t *testing.T) {
	state := &asl.State{
		Choices: []asl.Choice{
			{Variable: "$.missing", IsPresent: boolPtr(false), Next: "Absent"},
		},
		Default: "Present",
	}
	next, err := evaluateChoice("Decide", state, jsonvalue.NewMap())
	require.NoError(t, err)
	assert.Equal(t, "Absent", next)
}
