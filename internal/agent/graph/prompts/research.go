package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/aura-core/server/internal/agent/graph/tools"
	"github.com/aura-core/server/internal/agent/model"
)

//go:embed template/research_prompt.txt
var researchSystemPrompt string

// RenderResearchSystem renders the research agent system prompt for a
// committed query and triggers prompt callbacks.
func RenderResearchSystem(ctx context.Context, assistant string, maxResults int, q model.Query) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(researchSystemPrompt),
	)
	vars := map[string]any{
		"Assistant":   assistant,
		"Query":       q,
		"MaxResults":  maxResults,
		"SearchTool":  tools.ToolSearchProduct,
		"DetailsTool": tools.ToolGetProductDetails,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("research prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("research prompt render: empty result")
	}
	return msgs[0].Content, nil
}
