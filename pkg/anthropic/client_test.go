package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "thinking", Text: "let me look"},
			{Type: "text", Text: `{"plan_name": `},
			{Type: "text", Text: `"Acme PPO"}`},
		},
	}
	assert.Equal(t, `{"plan_name": "Acme PPO"}`, resp.ExtractText())
}

func TestExtractText_Empty(t *testing.T) {
	resp := &MessageResponse{}
	assert.Equal(t, "", resp.ExtractText())
}

func TestEstimateCost_KnownModel(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 100_000}
	cost := u.EstimateCost("claude-sonnet-4-5-20250929")
	// 1M input @ $3 + 100k output @ $15/MTok
	assert.InDelta(t, 3.0+1.5, cost, 0.001)
}

func TestEstimateCost_CacheTokens(t *testing.T) {
	u := TokenUsage{CacheCreationInputTokens: 1_000_000, CacheReadInputTokens: 1_000_000}
	cost := u.EstimateCost("claude-haiku-4-5-20251001")
	// write @ 1.25x input, read @ 0.1x input
	assert.InDelta(t, 0.80*1.25+0.80*0.1, cost, 0.001)
}

func TestEstimateCost_UnknownModel(t *testing.T) {
	u := TokenUsage{InputTokens: 1000}
	assert.Zero(t, u.EstimateCost("some-other-model"))
}

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("You extract fields from healthcare documents.")
	require.Len(t, blocks, 1)
	assert.Equal(t, "You extract fields from healthcare documents.", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestToSDKMessages_Roles(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "extract deductibles"},
		{Role: "assistant", Content: "{}"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
}

func TestToSDKSystemBlocks_CacheControl(t *testing.T) {
	blocks := toSDKSystemBlocks([]SystemBlock{
		{Text: "plain"},
		{Text: "cached", CacheControl: &CacheControl{TTL: "5m"}},
	})
	require.Len(t, blocks, 2)
	assert.Equal(t, "plain", blocks[0].Text)
	assert.Equal(t, "5m", string(blocks[1].CacheControl.TTL))
}
