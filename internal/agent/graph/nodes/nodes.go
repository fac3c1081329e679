package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/aura-core/server/internal/agent/graph/conversations"
	"github.com/aura-core/server/internal/agent/graph/parsers"
	"github.com/aura-core/server/internal/agent/graph/prompts"
	"github.com/aura-core/server/internal/agent/model"
	"github.com/aura-core/server/internal/agent/slots"
	logx "github.com/aura-core/server/pkg/logger"
)

const (
	NodeInputConverter      = "InputConverter"
	NodeIntentChatModel     = "IntentChatModel"
	NodeIntentParser        = "IntentParser"
	NodeGeneralChat         = "GeneralChat"
	NodeExtractionAssembler = "ExtractionAssembler"
	NodeExtractionChatModel = "ExtractionChatModel"
	NodeExtractionParser    = "ExtractionParser"
	NodeContextRouter       = "ContextRouter"
	NodeClarify             = "Clarify"
	NodeResearchAssembler   = "ResearchAssembler"
	NodeResearchChatModel   = "ResearchChatModel"
	NodeToolExecutor        = "ToolExecutor"
	NodeStyling             = "Styling"
	NodeFinalizer           = "Finalizer"
)

// NewInputConverterPreHandler creates the pre-handler for InputConverter node
func NewInputConverterPreHandler() func(context.Context, model.ChatInput, *model.AppState) (model.ChatInput, error) {
	return func(ctx context.Context, in model.ChatInput, s *model.AppState) (model.ChatInput, error) {
		s.ThreadID = in.ThreadID
		s.UserID = in.UserID
		s.Message = in.Message
		resetTurn(s)
		return in, nil
	}
}

// NewInputConverterNode stores the user message, loads the thread session and
// renders the intent check prompt.
func NewInputConverterNode(
	mm *conversations.MessagesManager,
	sessions model.SessionRepository,
	intentCfg *model.IntentModelConfig,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.ChatInput) ([]*schema.Message, error) {
		recent, err := mm.ProcessUserMessage(ctx, input.ThreadID, input.Message)
		if err != nil {
			return nil, fmt.Errorf("error getting conversation context: %w", err)
		}

		session, err := sessions.Load(ctx, input.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		session.UserID = input.UserID

		err = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Session = session
			state.Recent = recent
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		return prompts.RenderIntent(ctx, intentCfg, recent)
	})
}

// NewIntentParserNode parses the intent check output.
func NewIntentParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.IntentResult, error) {
		if resp == nil {
			return model.IntentResult{}, fmt.Errorf("intent model returned no message")
		}
		result, err := parsers.ParseIntent(resp.Content)
		if err != nil {
			logx.Error().Err(err).Msg("Error parsing intent response")
			return model.IntentResult{}, err
		}
		return *result, nil
	})
}

// NewIntentParserPostHandler saves the intent verdict to state.
func NewIntentParserPostHandler() func(context.Context, model.IntentResult, *model.AppState) (model.IntentResult, error) {
	return func(ctx context.Context, out model.IntentResult, state *model.AppState) (model.IntentResult, error) {
		state.Intent = out
		logx.Debug().
			Str("thread_id", state.ThreadID).
			Bool("shopping_related", out.IsShoppingRelated).
			Float64("confidence", out.Confidence).
			Strs("parsing_errors", out.ParsingErrors).
			Msg("Intent checked")
		return out, nil
	}
}

// NewIntentCondition routes general chat away from extraction.
func NewIntentCondition() func(context.Context, model.IntentResult) (string, error) {
	return func(ctx context.Context, in model.IntentResult) (string, error) {
		if !in.IsShoppingRelated {
			return NodeGeneralChat, nil
		}
		return NodeExtractionAssembler, nil
	}
}

// NewGeneralChatNode answers a turn that is not about shopping with the
// intent check's canned reply.
func NewGeneralChatNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.IntentResult) (*schema.Message, error) {
		decision := slots.Route(slots.Input{Intent: in})
		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			applyDecision(state, decision)
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return schema.AssistantMessage(decision.Message, nil), nil
	})
}

// NewExtractionAssemblerNode renders the extraction prompt over the recent conversation.
func NewExtractionAssemblerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.IntentResult) ([]*schema.Message, error) {
		var recent []*schema.Message
		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			recent = append(recent, state.Recent...)
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return prompts.RenderExtraction(ctx, recent)
	})
}

// NewExtractionParserNode parses extracted slots. Hints about skipped records
// are logged, never fatal.
func NewExtractionParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.Extraction, error) {
		if resp == nil {
			return model.Extraction{}, fmt.Errorf("extraction model returned no message")
		}
		ext, hints, err := parsers.ParseExtraction(resp.Content)
		if err != nil {
			logx.Error().Err(err).Msg("Error parsing extraction response")
			return model.Extraction{}, err
		}
		if len(hints) > 0 {
			logx.Debug().Strs("hints", hints).Msg("Extraction parsed with hints")
		}
		return *ext, nil
	})
}

// NewContextRouterNode merges the extraction into the thread query and decides
// between clarification and research.
func NewContextRouterNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, ext model.Extraction) (model.RouteDecision, error) {
		var decision model.RouteDecision
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			var existing *model.Query
			if state.Session != nil && state.Session.Query != nil {
				q := *state.Session.Query
				existing = &q
			}
			decision = slots.Route(slots.Input{Intent: state.Intent, Existing: existing, Extraction: &ext})
			applyDecision(state, decision)
			return nil
		})
		if err != nil {
			return model.RouteDecision{}, fmt.Errorf("failed to access state: %w", err)
		}

		logx.Debug().
			Str("outcome", string(decision.Outcome)).
			Str("next", string(decision.Next)).
			Strs("missing", decision.Missing).
			Msg("Context routed")
		return decision, nil
	})
}

// NewClarifyCondition sends terminal decisions to Clarify and the rest to research.
func NewClarifyCondition() func(context.Context, model.RouteDecision) (string, error) {
	return func(ctx context.Context, d model.RouteDecision) (string, error) {
		if d.Terminal() {
			return NodeClarify, nil
		}
		return NodeResearchAssembler, nil
	}
}

// NewClarifyNode replies with the clarification question.
func NewClarifyNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, d model.RouteDecision) (*schema.Message, error) {
		return schema.AssistantMessage(d.Message, nil), nil
	})
}

// applyDecision records a routing decision on the turn state and its session.
// The session query only changes when the decision commits one.
func applyDecision(state *model.AppState, d model.RouteDecision) {
	state.Decision = d
	if state.Session == nil {
		state.Session = &model.Session{ThreadID: state.ThreadID, UserID: state.UserID}
	}
	state.Session.UserIntent = d.Outcome
	state.Session.NextStep = d.Next
	state.Session.CurrentAgent = model.AgentContext
	if d.Query != nil {
		q := *d.Query
		state.Session.Query = &q
	}
}
