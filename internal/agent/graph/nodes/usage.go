package nodes

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/aura-core/server/internal/agent/model"
	"github.com/aura-core/server/internal/metrics"
	logx "github.com/aura-core/server/pkg/logger"
)

// recordUsage prices the token usage of a model reply, attaches it to the
// message Extra and accumulates it on state.
func recordUsage(node, modelName string, out *schema.Message, state *model.AppState) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             modelName,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
		"input_cost":        inC,
		"output_cost":       outC,
		"total_cost":        totalC,
	}
	logx.Debug().
		Str("thread_id", state.ThreadID).
		Str("node", node).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")

	state.TotalCostUSD += totalC
	out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
	if totalC > 0 {
		metrics.LLMCostUSDTotal.WithLabelValues(modelName).Add(totalC)
	}
}

// NewUsagePostHandler computes and logs usage cost for a chat model node.
func NewUsagePostHandler(node, modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		recordUsage(node, modelName, out, state)
		return out, nil
	}
}
