package nodes

import (
	"github.com/aura-core/server/internal/agent/model"
)

const DefaultMaxToolCalls = 6

// ===== Small helpers to keep handlers simple/readable =====
// normalizeMaxToolCalls returns a sane default when the provided value is invalid.
func normalizeMaxToolCalls(n int) int {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return n
}

// checkAndMarkToolLimit evaluates whether another tool call would exceed the
// limit and, if so, marks the state accordingly. Returns true when marked now.
func checkAndMarkToolLimit(state *model.AppState, max int) bool {
	max = normalizeMaxToolCalls(max)
	if !state.ToolCallLimitReached && state.ToolCallCount >= max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// incrementToolCallAndCheck increments the count and marks the state if it
// exceeds the limit after incrementing. Returns true when exceeded.
func incrementToolCallAndCheck(state *model.AppState, max int) bool {
	max = normalizeMaxToolCalls(max)
	state.ToolCallCount++
	if state.ToolCallCount > max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// resetTurn clears per-turn counters so a reused state starts clean.
func resetTurn(state *model.AppState) {
	state.Intent = model.IntentResult{}
	state.Decision = model.RouteDecision{}
	state.Recent = nil
	state.History = nil
	state.SearchResults = nil
	state.Turn = nil
	state.ToolCallCount = 0
	state.ToolCallLimitReached = false
	state.ToolCallIDSeq = 0
	state.TotalCostUSD = 0
}
