package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks aggregates all observer handlers (prompt, tool, model) into one callbacks.Handler.
func NewAllCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Tool(newToolHandler()).
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}

// maxLogContent caps message bodies written to debug logs.
const maxLogContent = 2000

func clip(s string) string {
	if len(s) <= maxLogContent {
		return s
	}
	return s[:maxLogContent] + "...(truncated)"
}
