package orchestrate

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cryptoasl/internal/catalog"
	"github.com/vk/cryptoasl/internal/ctxlog"
	"github.com/vk/cryptoasl/internal/domain"
	"github.com/vk/cryptoasl/internal/stateflow"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLLM answers canned completions by call order (first call:
// relevance, second: definition, every later call: answer), so a test can
// script a whole relevance→workflow→render exchange without a network call.
type fakeLLM struct {
	relevance  string
	definition string
	answer     string
	prompts    []string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string, schema []byte) (string, error) {
	f.prompts = append(f.prompts, prompt)
	switch {
	case len(f.prompts) == 1:
		return f.relevance, nil
	case len(f.prompts) == 2:
		return f.definition, nil
	default:
		return f.answer, nil
	}
}

func newTestOrchestrator(t *testing.T, llm *fakeLLM) *Orchestrator {
	t.Helper()
	tb := domain.New(nil, nil)
	cat, err := catalog.New(tb)
	require.NoError(t, err)
	interp := stateflow.New(cat)
	return New(llm, cat, interp, tb, nil)
}

func withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, discardLogger())
}

func TestAsk_IrrelevantQuestionSkipsWorkflow(t *testing.T) {
	llm := &fakeLLM{relevance: "no, this is unrelated"}
	o := newTestOrchestrator(t, llm)

	res, err := o.Ask(withLogger(context.Background()), "what's your favorite color?")
	require.NoError(t, err)

	assert.False(t, res.Relevant)
	assert.Equal(t, irrelevantAnswer, res.Answer)
	assert.Len(t, llm.prompts, 1, "a rejected question must never reach workflow synthesis")
}

func TestAsk_RunsSynthesizedWorkflowAndRenders(t *testing.T) {
	def := `{
		"StartAt": "Record",
		"States": {
			"Record": {
				"Type": "Task",
				"Resource": "RecordOutput",
				"Parameters": {"arg0": "note", "arg1.$": "$.question"},
				"End": true
			}
		}
	}`
	llm := &fakeLLM{relevance: "yes", definition: def, answer: "Bitcoin is up today."}
	o := newTestOrchestrator(t, llm)

	res, err := o.Ask(withLogger(context.Background()), "how is bitcoin doing?")
	require.NoError(t, err)

	assert.True(t, res.Relevant)
	assert.Equal(t, "Bitcoin is up today.", res.Answer)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "note", res.Records[0].Category)
	assert.Len(t, llm.prompts, 3)
}

func TestAsk_FailedInterpretationStillRenders(t *testing.T) {
	def := `{
		"StartAt": "Boom",
		"States": {
			"Boom": {"Type": "Fail", "Error": "Oops", "Cause": "deliberate test failure"}
		}
	}`
	llm := &fakeLLM{relevance: "yes", definition: def, answer: "I couldn't complete that lookup."}
	o := newTestOrchestrator(t, llm)

	res, err := o.Ask(withLogger(context.Background()), "how is bitcoin doing?")
	require.NoError(t, err, "an interpreter failure is handled, not propagated")
	assert.Equal(t, "I couldn't complete that lookup.", res.Answer)
}

func TestIsAffirmative(t *testing.T) {
	assert.True(t, isAffirmative("Yes"))
	assert.True(t, isAffirmative("  yes, absolutely\n"))
	assert.False(t, isAffirmative("no"))
	assert.False(t, isAffirmative("not really"))
}

func TestStripCodeFence(t *testing.T) {
	wrapped := "```json\n{\"a\":1}\n```"
	assert.Equal(t, `{"a":1}`, stripCodeFence(wrapped))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
}
