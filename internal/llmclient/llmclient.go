// Package llmclient is the narrow boundary between the orchestrator and
// whatever LLM backend is configured — spec §6's "ambient, out-of-core"
// completion interface.
package llmclient

import "context"

// Client completes a prompt against an LLM, optionally constrained to a
// JSON schema. schema may be nil when no structural constraint applies.
type Client interface {
	Complete(ctx context.Context, prompt string, schema []byte) (string, error)
}
