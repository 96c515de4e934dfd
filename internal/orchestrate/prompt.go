package orchestrate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vk/cryptoasl/internal/asl"
	"github.com/vk/cryptoasl/internal/catalog"
)

// relevancePrompt asks the LLM a single yes/no question: does this text
// describe a cryptocurrency market question this system can act on.
func relevancePrompt(question string) string {
	return fmt.Sprintf(`You are a gatekeeper for a cryptocurrency market analysis
assistant. Answer with exactly one word, "yes" or "no": is the following
user request a question about cryptocurrency market behaviour (prices,
trends, news, or date-relative comparisons of the two)?

Request: %s`, question)
}

// isAffirmative reports whether an LLM completion, after trimming, reads
// as an affirmative "yes" in any common casing.
func isAffirmative(answer string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(answer))
	return strings.HasPrefix(trimmed, "yes")
}

// workflowPrompt builds the prompt asking the LLM to synthesize an ASL
// state machine definition, embedding doc (the live, reflected method
// catalog metadata document, per spec §4.2/§6) so every Task state the
// LLM writes names a method this catalog can actually dispatch.
func workflowPrompt(question string, doc *catalog.Document) string {
	docJSON, _ := json.MarshalIndent(doc, "", "  ")
	return fmt.Sprintf(`You design Amazon-States-Language-style JSON state
machines that answer cryptocurrency market questions by calling the
methods described below. Respond with ONLY the JSON state machine
definition — no prose, no markdown fences.

A definition has the shape {"StartAt": "...", "States": {...}}. Each
state has a "Type" of Pass, Task, Choice, Wait, Succeed, Fail, Map, or
Parallel, plus whatever fields that type needs (InputPath, Parameters,
ResultPath, OutputPath, Next, End, Resource, Choices, ItemsPath,
Iterator, Branches, Seconds, and so on).

Every Task state's "Resource" must be the exact name of one of the
methods below. A method's "Parameters" object must use exactly the
parameter key names listed under that method's "Parameters" entry
(e.g. "arg0", "arg1", ...) — append ".$" to a key to read that
argument's value out of the running data by path instead of using it
literally (e.g. {"arg0.$": "$.question"}). Record anything worth
surfacing to the user by calling "RecordOutput", whose first argument
is a short category label and second argument is the content to
record.

Available methods (Types/Enums referenced by name):
%s

User's question: %s`, string(docJSON), question)
}

// finalPrompt builds the prompt that renders the collected transcript
// (or failure description) and the original question into a
// human-readable answer, per spec §2's final step.
func finalPrompt(question, transcript string) string {
	return fmt.Sprintf(`Using only the collected data below, answer the
user's original question in clear prose. Do not invent figures that
are not present in the data.

Original question: %s

Collected outputs:
%s`, question, transcript)
}

// parseDefinition decodes an LLM completion's text into an asl.Definition,
// tolerating a leading/trailing markdown code fence the way LLM
// completions commonly wrap JSON even when asked not to.
func parseDefinition(text string) (*asl.Definition, error) {
	text = stripCodeFence(text)
	var def asl.Definition
	if err := json.Unmarshal([]byte(text), &def); err != nil {
		return nil, fmt.Errorf("orchestrate: decode ASL definition: %w", err)
	}
	return &def, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	lines = lines[1:]
	if last := len(lines) - 1; last >= 0 && strings.HasPrefix(strings.TrimSpace(lines[last]), "```") {
		lines = lines[:last]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
