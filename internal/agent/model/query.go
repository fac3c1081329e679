package model

// Outcome is the user intent recorded for a turn once routing has decided.
type Outcome string

const (
	OutcomeGeneralChat    Outcome = "general_chat"
	OutcomeClarification  Outcome = "clarification"
	OutcomeRecommendation Outcome = "recommendation"
)

// Stage names the agent that handles the conversation next.
type Stage string

const (
	StageEnd      Stage = "END"
	StageResearch Stage = "research_agent"
)

// Agent names recorded as the session's current agent.
const (
	AgentContext  = "context_agent"
	AgentResearch = "research_agent"
	AgentStyling  = "styling_agent"
)

// Query is what the user wants to buy, accumulated across turns of a thread.
type Query struct {
	Destination string `json:"destination,omitempty"`
	Category    string `json:"category,omitempty"`
	Occasion    string `json:"occasion,omitempty"`
	Budget      string `json:"budget,omitempty"`
	Style       string `json:"style,omitempty"`
	Color       string `json:"color,omitempty"`
	Size        string `json:"size,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

// Extraction is the partial read of the latest turn. A nil field was not mentioned.
type Extraction struct {
	Destination *string `json:"destination,omitempty"`
	Category    *string `json:"category,omitempty"`
	Occasion    *string `json:"occasion,omitempty"`
	Budget      *string `json:"budget,omitempty"`
	Style       *string `json:"style,omitempty"`
	Color       *string `json:"color,omitempty"`
	Size        *string `json:"size,omitempty"`
	Gender      *string `json:"gender,omitempty"`

	// Confidence per slot name, informational only.
	Confidence map[string]float64 `json:"confidence,omitempty"`
}

// IntentResult is the shopping-relevance verdict for a turn.
type IntentResult struct {
	IsShoppingRelated    bool     `json:"is_shopping_related"`
	Confidence           float64  `json:"confidence"`
	ResponseIfNotRelated string   `json:"response_if_not_related,omitempty"`
	ParsingErrors        []string `json:"parsing_errors,omitempty"`
}

// RouteDecision is what the context stage hands to the rest of the graph.
type RouteDecision struct {
	Outcome Outcome `json:"outcome"`
	Next    Stage   `json:"next"`
	Message string  `json:"message"`
	// Query is set only when the decision commits the merged query.
	Query *Query `json:"query,omitempty"`
	// Missing lists the labels of required fields still unset.
	Missing []string `json:"missing,omitempty"`
}

// Terminal reports whether the decision ends the turn.
func (d RouteDecision) Terminal() bool {
	return d.Next == StageEnd
}
