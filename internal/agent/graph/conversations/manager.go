package conversations

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/aura-core/server/internal/agent/model"
)

const (
	defaultMaxTurns = 10
	historyHeadroom = 2
)

type MessagesManager struct {
	conversationRepo model.ConversationRepository
	maxTurns         int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	maxTurns := config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &MessagesManager{
		conversationRepo: conversationRepo,
		maxTurns:         maxTurns,
	}
}

// ProcessUserMessage stores the user's message and returns the recent
// conversation, ending with that message.
func (cm *MessagesManager) ProcessUserMessage(ctx context.Context, threadID string, message string) ([]*schema.Message, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, fmt.Errorf("thread id is empty")
	}

	if err := cm.conversationRepo.AddMessages(ctx, threadID, schema.UserMessage(message)); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}
	return cm.RecentHistory(ctx, threadID)
}

// RecentHistory loads the last maxTurns user and assistant messages of a thread.
// Only the tail of the stored list is read, with room for skipped empty messages.
func (cm *MessagesManager) RecentHistory(ctx context.Context, threadID string) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, threadID, cm.maxTurns*historyHeadroom)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return trimTail(conversational(history.Messages), cm.maxTurns), nil
}

// SaveTurn stores the assistant messages produced during a turn, skipping
// empty ones.
func (cm *MessagesManager) SaveTurn(ctx context.Context, threadID string, messages []*schema.Message) error {
	toSave := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		if m == nil || strings.TrimSpace(m.Content) == "" {
			continue
		}
		toSave = append(toSave, schema.AssistantMessage(m.Content, nil))
	}
	if len(toSave) == 0 {
		return nil
	}
	return cm.conversationRepo.AddMessages(ctx, threadID, toSave...)
}

// ====================== Helper function ======================
func conversational(messages []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		if m == nil || m.Content == "" {
			continue
		}
		if m.Role == schema.User || m.Role == schema.Assistant {
			out = append(out, m)
		}
	}
	return out
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) > maxTurns {
		messages = messages[len(messages)-maxTurns:]
	}
	result := make([]*schema.Message, len(messages))
	copy(result, messages)
	return result
}
