package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/aura-core/server/internal/agent/graph/prompts"
	"github.com/aura-core/server/internal/agent/graph/tools"
	"github.com/aura-core/server/internal/agent/model"
	logx "github.com/aura-core/server/pkg/logger"
)

// NewResearchAssemblerNode announces the search to the user and builds the
// research conversation for the committed query.
func NewResearchAssemblerNode(assistant string, researchCfg *model.ResearchModelConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, d model.RouteDecision) ([]*schema.Message, error) {
		if d.Query == nil {
			return nil, fmt.Errorf("research requires a committed query")
		}

		sysPrompt, err := prompts.RenderResearchSystem(ctx, assistant, researchCfg.MaxResults, *d.Query)
		if err != nil {
			return nil, fmt.Errorf("generate research prompt: %w", err)
		}

		var userMessage string
		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Turn = append(state.Turn, schema.AssistantMessage(d.Message, nil))
			if state.Session != nil {
				state.Session.CurrentAgent = model.AgentResearch
			}
			userMessage = state.Message
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if strings.TrimSpace(userMessage) == "" {
			userMessage = "Find products for my request."
		}
		return []*schema.Message{
			schema.SystemMessage(sysPrompt),
			schema.UserMessage(userMessage),
		}, nil
	})
}

// NewResearchChatModelPreHandler creates the pre-handler for ResearchChatModel node
func NewResearchChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		// Tool results must carry tool_call_id; fall back to the latest assistant call
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				for i := len(state.History) - 1; i >= 0; i-- {
					msg := state.History[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					if id := msg.ToolCalls[0].ID; strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Summarize the products you already found for the shopper. "+
						"Say so if the search could not be completed.",
					maxToolCalls,
				),
			}
			state.History = append(state.History, wrapUp)
		}

		return state.History, nil
	}
}

// NewResearchChatModelPostHandler creates the post-handler for ResearchChatModel node
func NewResearchChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("research model returned no message")
		}
		recordUsage(NodeResearchChatModel, modelName, out, state)

		// Some providers omit tool_call IDs.
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}

		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 && !state.ToolCallLimitReached {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
			return out, nil
		}

		// Final research answer; keep it for the turn transcript.
		if strings.TrimSpace(out.Content) != "" {
			state.Turn = append(state.Turn, schema.AssistantMessage(out.Content, nil))
		}
		logx.Debug().Int("search_results", len(state.SearchResults)).Msg("Research finished")
		return out, nil
	}
}

// NewToolExecutorCondition creates the condition function for tool execution routing
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - routing to styling")
			return NodeStyling, nil
		}
		if input != nil && len(input.ToolCalls) > 0 {
			return NodeToolExecutor, nil
		}
		return NodeStyling, nil
	}
}

// NewToolExecutorPreHandler creates the pre-handler for ToolExecutor node
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		exceeded := incrementToolCallAndCheck(state, maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("thread_id", state.ThreadID).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("thread_id", state.ThreadID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}
		return in, nil
	}
}

// NewToolExecutorPostHandler collects products returned by tools into state.
func NewToolExecutorPostHandler() func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, out []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		for _, m := range out {
			if m == nil {
				continue
			}
			state.SearchResults = tools.MergeProducts(state.SearchResults, tools.ProductsFromResult(m.Content)...)
		}
		return out, nil
	}
}
