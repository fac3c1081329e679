package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntentShopping(t *testing.T) {
	res, err := ParseIntent("(intent<||>shopping<||>0.92<||>)<|COMPLETE|>")
	require.NoError(t, err)
	assert.True(t, res.IsShoppingRelated)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
	assert.Empty(t, res.ResponseIfNotRelated)
	assert.Empty(t, res.ParsingErrors)
}

func TestParseIntentGeneral(t *testing.T) {
	res, err := ParseIntent("(intent<||>general<||>0.8<||>Hi! I can help you shop <||> for outfits.)\n<|COMPLETE|>")
	require.NoError(t, err)
	assert.False(t, res.IsShoppingRelated)
	assert.Equal(t, "Hi! I can help you shop <||> for outfits.", res.ResponseIfNotRelated)
}

func TestParseIntentGeneralWithoutReplyUsesDefault(t *testing.T) {
	res, err := ParseIntent("(intent<||>general<||>0.7)")
	require.NoError(t, err)
	assert.False(t, res.IsShoppingRelated)
	assert.Equal(t, DefaultNotRelatedResponse, res.ResponseIfNotRelated)
}

func TestParseIntentGarbageFailsOpen(t *testing.T) {
	res, err := ParseIntent("I think the user wants a dress")
	require.NoError(t, err)
	assert.True(t, res.IsShoppingRelated)
	assert.Contains(t, res.ParsingErrors, "intent: no record")
}

func TestParseIntentBadLabelAndConfidence(t *testing.T) {
	res, err := ParseIntent("(intent<||>maybe<||>0.5<||>)##(intent<||>shopping<||>1.7<||>)")
	require.NoError(t, err)
	assert.True(t, res.IsShoppingRelated)
	assert.Zero(t, res.Confidence)
	assert.Contains(t, res.ParsingErrors, "intent: invalid label")
	assert.Contains(t, res.ParsingErrors, "intent: invalid confidence")
}

func TestParseIntentTruncatesOversizedContent(t *testing.T) {
	content := "(intent<||>general<||>0.9<||>hello)##" + strings.Repeat("x", maxContentLen)
	res, err := ParseIntent(content)
	require.NoError(t, err)
	assert.False(t, res.IsShoppingRelated)
	assert.Contains(t, res.ParsingErrors, "truncated")
}

func TestParseExtraction(t *testing.T) {
	content := "```\n(slot<||>destination<||>Paris<||>0.9)##\n" +
		"(slot<||>product_type<||>dress<||>0.8)##\n" +
		"(slot<||>occasion<||>none<||>0)##\n" +
		"(slot<||>colour<||>navy blue<||>0.6)##\n" +
		"(slot<||>mood<||>happy<||>0.5)##\n" +
		"(entity<||>x<||>y)\n<|COMPLETE|>\n```"

	ext, hints, err := ParseExtraction(content)
	require.NoError(t, err)
	require.NotNil(t, ext.Destination)
	assert.Equal(t, "Paris", *ext.Destination)
	require.NotNil(t, ext.Category)
	assert.Equal(t, "dress", *ext.Category)
	assert.Nil(t, ext.Occasion)
	require.NotNil(t, ext.Color)
	assert.Equal(t, "navy blue", *ext.Color)
	assert.InDelta(t, 0.9, ext.Confidence["destination"], 1e-9)

	assert.Contains(t, hints, `slot: unknown name "mood"`)
	assert.Contains(t, hints, "unknown tuple type")
}

func TestParseExtractionEmpty(t *testing.T) {
	ext, hints, err := ParseExtraction("<|COMPLETE|>")
	require.NoError(t, err)
	assert.Nil(t, ext.Destination)
	assert.Nil(t, ext.Category)
	assert.Empty(t, hints)
}

func TestParseExtractionBadRecord(t *testing.T) {
	ext, hints, err := ParseExtraction("slot<||>destination<||>Rome")
	require.NoError(t, err)
	assert.Nil(t, ext.Destination)
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], "bad_record")
}

func TestRecordsCap(t *testing.T) {
	content := strings.Repeat("(slot<||>style<||>boho<||>0.5)##", maxRecords+5)
	recs, truncated, capped := records("test", content)
	assert.Len(t, recs, maxRecords)
	assert.False(t, truncated)
	assert.True(t, capped)
}
