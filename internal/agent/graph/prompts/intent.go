package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/aura-core/server/internal/agent/model"
)

//go:embed template/intent_prompt.txt
var intentSystemPrompt string

// RenderIntent builds the intent check messages: system prompt followed by the
// recent conversation.
func RenderIntent(ctx context.Context, cfg *model.IntentModelConfig, history []*schema.Message) ([]*schema.Message, error) {
	if cfg == nil {
		return nil, fmt.Errorf("intent config is nil")
	}

	// Safely render known tokens only; the template contains literal parens
	content := strings.NewReplacer(
		"{TD}", "<||>",
		"{RD}", "##",
		"{CD}", "<|COMPLETE|>",
		"{assistant}", cfg.Assistant,
	).Replace(intentSystemPrompt)

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
		schema.MessagesPlaceholder("history", true),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
		"history":         history,
	})
	if err != nil {
		return nil, fmt.Errorf("intent prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("intent prompt render: empty result")
	}
	return msgs, nil
}
