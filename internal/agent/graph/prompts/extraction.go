package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/extraction_prompt.txt
var extractionSystemPrompt string

var extractionReplacer = strings.NewReplacer(
	"{TD}", "<||>",
	"{RD}", "##",
	"{CD}", "<|COMPLETE|>",
)

// RenderExtraction builds the slot extraction messages over the conversation.
func RenderExtraction(ctx context.Context, history []*schema.Message) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
		schema.MessagesPlaceholder("history", true),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(extractionReplacer.Replace(extractionSystemPrompt))},
		"history":         history,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("extraction prompt render: empty result")
	}
	return msgs, nil
}
