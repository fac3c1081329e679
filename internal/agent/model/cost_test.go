package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestComputeCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 2_000_000, CompletionTokens: 1_000_000, TotalTokens: 3_000_000}

	in, out, total := ComputeCost(usage, ResolvePricing("gemini-2.5-flash"))
	assert.InDelta(t, 0.60, in, 1e-9)
	assert.InDelta(t, 2.50, out, 1e-9)
	assert.InDelta(t, 3.10, total, 1e-9)
}

func TestComputeCostUnknownModelOrNilUsage(t *testing.T) {
	_, _, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1000}, ResolvePricing("nope"))
	assert.Zero(t, total)

	_, _, total = ComputeCost(nil, ResolvePricing("gemini-2.5-flash"))
	assert.Zero(t, total)
}
