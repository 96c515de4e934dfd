// Package orchestrate is the analysis orchestration layer described in
// spec §2's flow: a free-form question goes through a relevance check,
// a workflow-generation prompt that embeds the reflected method
// catalog, interpretation of the LLM-synthesized ASL definition against
// that catalog, and a final render prompt that folds the interpreter's
// recorded outputs back in with the original question.
//
// Grounded on the teacher's internal/app.App: a small struct wiring
// together the pieces built lower in the stack (registry/executor
// there, catalog/interpreter here), with one Run-shaped entrypoint.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vk/cryptoasl/internal/asl"
	"github.com/vk/cryptoasl/internal/catalog"
	"github.com/vk/cryptoasl/internal/ctxlog"
	"github.com/vk/cryptoasl/internal/domain"
	"github.com/vk/cryptoasl/internal/jsonvalue"
	"github.com/vk/cryptoasl/internal/llmclient"
	"github.com/vk/cryptoasl/internal/serialize"
	"github.com/vk/cryptoasl/internal/stateflow"
	"github.com/vk/cryptoasl/internal/store"
)

// Result is everything one orchestrated question produced.
type Result struct {
	RunID      string
	Relevant   bool
	Definition *asl.Definition
	FinalData  jsonvalue.Value
	Records    []domain.RecordedOutput
	Answer     string
}

// Orchestrator wires the LLM client, the reflected method catalog, the
// interpreter, and (optionally) a run-history store into the single
// "user text in, rendered answer out" pipeline spec §2 describes.
type Orchestrator struct {
	LLM         llmclient.Client
	Catalog     *catalog.Catalog
	Interpreter *stateflow.Interpreter
	Toolbox     *domain.Toolbox
	Store       *store.Store // optional; nil disables history persistence
	Now         func() time.Time
}

// New builds an Orchestrator. store may be nil to skip run-history
// persistence entirely.
func New(llm llmclient.Client, cat *catalog.Catalog, interp *stateflow.Interpreter, tb *domain.Toolbox, st *store.Store) *Orchestrator {
	return &Orchestrator{
		LLM:         llm,
		Catalog:     cat,
		Interpreter: interp,
		Toolbox:     tb,
		Store:       st,
		Now:         time.Now,
	}
}

// irrelevantAnswer is returned verbatim when the relevance check finds
// the question outside the system's crypto-market-question scope.
const irrelevantAnswer = "This doesn't look like a cryptocurrency market question, so I can't help with it."

// Ask drives one question through the full pipeline: relevance check,
// workflow synthesis, interpretation, and final rendering. A failed
// interpretation is not itself an error returned to the caller — per
// spec §7's orchestrator policy, a HostError (or any other in-flight
// interpreter failure) is converted into a short textual description
// substituted for the collected-outputs section of the final prompt, so
// the LLM still produces a user-visible answer.
func (o *Orchestrator) Ask(ctx context.Context, question string) (*Result, error) {
	runID := uuid.NewString()
	ctx = stateflow.WithRunID(ctx, runID)
	logger := ctxlog.FromContext(ctx)
	logger.Info("orchestrate: run started", "run_id", runID)

	res := &Result{RunID: runID}

	relevant, err := o.checkRelevance(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: relevance check: %w", err)
	}
	res.Relevant = relevant
	if !relevant {
		res.Answer = irrelevantAnswer
		o.persist(ctx, res, question, nil)
		logger.Info("orchestrate: run finished (irrelevant)", "run_id", runID)
		return res, nil
	}

	doc := o.Catalog.Document()
	defText, err := o.LLM.Complete(ctx, workflowPrompt(question, doc), nil)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: workflow synthesis: %w", err)
	}

	def, err := parseDefinition(defText)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: parse synthesized workflow: %w", err)
	}
	res.Definition = def

	initialInput := jsonvalue.NewMap()
	initialInput.Set("question", jsonvalue.String(question))

	finalData, runErr := o.Interpreter.Interpret(ctx, def, initialInput)
	records := o.Toolbox.Records()
	res.Records = records
	res.FinalData = finalData

	transcript := serialize.Records(records)
	if runErr != nil {
		logger.Warn("orchestrate: interpretation failed", "run_id", runID, "error", runErr)
		transcript = describeFailure(runErr)
	}

	answer, err := o.LLM.Complete(ctx, finalPrompt(question, transcript), nil)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: final render: %w", err)
	}
	res.Answer = answer

	o.persist(ctx, res, question, runErr)
	logger.Info("orchestrate: run finished", "run_id", runID, "had_error", runErr != nil)
	return res, nil
}

// describeFailure renders an in-flight interpreter error as the short
// textual description spec §7 asks for in place of collected outputs,
// distinguishing a HostError (a domain method itself failed) from every
// other interpreter failure so the final prompt reads naturally either
// way.
func describeFailure(err error) string {
	var hostErr *catalog.HostError
	if errors.As(err, &hostErr) {
		return fmt.Sprintf("A tool call failed while answering this question: %v", hostErr)
	}
	return fmt.Sprintf("The workflow could not be completed: %v", err)
}

func (o *Orchestrator) checkRelevance(ctx context.Context, question string) (bool, error) {
	answer, err := o.LLM.Complete(ctx, relevancePrompt(question), nil)
	if err != nil {
		return false, err
	}
	return isAffirmative(answer), nil
}

// persist writes one run's outcome to the history store, if one is
// configured. Save failures are logged, not propagated — run-history
// persistence is a convenience, not part of the core contract, so a
// storage hiccup must never turn a successful answer into an error.
func (o *Orchestrator) persist(ctx context.Context, res *Result, question string, runErr error) {
	if o.Store == nil {
		return
	}
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	run := store.Run{
		ID:          res.RunID,
		Question:    question,
		FinalOutput: res.Answer,
		Records:     res.Records,
		Err:         errText,
		CreatedAt:   o.Now().UTC(),
	}
	if err := o.Store.Save(ctx, run); err != nil {
		ctxlog.FromContext(ctx).Warn("orchestrate: failed to persist run history", "run_id", res.RunID, "error", err)
	}
}
