package model

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

type ConversationRepository interface {
	// AddMessages appends messages to the thread history in order.
	AddMessages(ctx context.Context, threadID string, messages ...*schema.Message) error

	// LoadHistory retrieves the last limit messages of the thread; limit <= 0 loads all.
	LoadHistory(ctx context.Context, threadID string, limit int) (*ConversationHistory, error)

	// ClearHistory removes all history for a thread.
	ClearHistory(ctx context.Context, threadID string) error

	// GetMessageCount returns the number of messages in the thread.
	GetMessageCount(ctx context.Context, threadID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ThreadID string
	Messages []*schema.Message
}

// Session is the per-thread agent state that survives between turns.
type Session struct {
	ThreadID      string      `json:"thread_id"`
	UserID        string      `json:"user_id"`
	Query         *Query      `json:"chat_query,omitempty"`
	UserIntent    Outcome     `json:"user_intent,omitempty"`
	NextStep      Stage       `json:"next_step,omitempty"`
	CurrentAgent  string      `json:"current_agent,omitempty"`
	SearchResults []Product   `json:"search_results,omitempty"`
	SelectedItem  *Product    `json:"selected_item,omitempty"`
	Embeddings    [][]float32 `json:"merged_image_embeddings,omitempty"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// SessionRepository loads and stores Session snapshots. Load returns an empty
// session for unknown threads.
type SessionRepository interface {
	Load(ctx context.Context, threadID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, threadID string) error
}

// UserProfile holds what the assistant knows about a user across threads.
type UserProfile struct {
	UserID    string    `json:"user_id"`
	PhotoURLs []string  `json:"photo_urls"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileRepository stores user profiles. Get returns an empty profile for unknown users.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*UserProfile, error)
	Put(ctx context.Context, profile *UserProfile) error
}
