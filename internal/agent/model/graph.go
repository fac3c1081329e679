package model

import (
	"github.com/cloudwego/eino/schema"
)

// AppState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
type AppState struct {
	ThreadID string
	UserID   string
	Message  string

	Session *Session          // loaded by the input converter, saved by the finalizer
	Recent  []*schema.Message // recent thread messages ending with this turn's user message

	Intent   IntentResult
	Decision RouteDecision

	History       []*schema.Message // research model conversation, mutated only in handlers
	SearchResults []Product         // collected from tool results, deduplicated by id
	Turn          []*schema.Message // assistant messages produced during this turn

	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int // local sequence to synthesize tool_call_id when provider omits

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// ChatInput is one inbound chat turn.
type ChatInput struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
}
