package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/aura-core/server/internal/agent/graph/conversations"
	"github.com/aura-core/server/internal/agent/model"
	"github.com/aura-core/server/internal/metrics"
	logx "github.com/aura-core/server/pkg/logger"
)

// NewFinalizerNode persists the turn: assistant messages go to the thread
// history and the session snapshot is saved. Persistence failures are logged;
// the reply is still returned.
func NewFinalizerNode(mm *conversations.MessagesManager, sessions model.SessionRepository) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (*schema.Message, error) {
		if msg == nil {
			return nil, fmt.Errorf("finalizer received no message")
		}

		var (
			threadID string
			turn     []*schema.Message
			session  *model.Session
			outcome  model.Outcome
			cost     float64
		)
		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Turn = append(state.Turn, msg)
			threadID = state.ThreadID
			turn = append(turn, state.Turn...)
			session = state.Session
			outcome = state.Decision.Outcome
			cost = state.TotalCostUSD
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if err := mm.SaveTurn(ctx, threadID, turn); err != nil {
			logx.Error().Err(err).Str("thread_id", threadID).Msg("Error saving assistant messages")
		}
		if session != nil {
			if err := sessions.Save(ctx, session); err != nil {
				logx.Error().Err(err).Str("thread_id", threadID).Msg("Error saving session")
			}
		}

		metrics.ChatTurnsTotal.WithLabelValues(string(outcome)).Inc()
		logx.Info().
			Str("thread_id", threadID).
			Str("outcome", string(outcome)).
			Int("messages", len(turn)).
			Float64("total_cost_usd", cost).
			Msg("Turn complete")

		if msg.Extra == nil {
			msg.Extra = map[string]any{}
		}
		msg.Extra["usage_cost_total_usd"] = cost
		return msg, nil
	})
}
