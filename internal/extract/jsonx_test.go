package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeObjectPlain(t *testing.T) {
	t.Parallel()

	obj, err := DecodeObject(`{"plan_name": "Gold PPO", "amount": 25}`)
	require.NoError(t, err)
	assert.Equal(t, "Gold PPO", obj["plan_name"])
	assert.Equal(t, float64(25), obj["amount"])
}

func TestDecodeObjectAnswerTags(t *testing.T) {
	t.Parallel()

	obj, err := DecodeObject(`Let me work through this.
<answer>{"copays": [{"amount": 30, "service_type": "specialist"}]}</answer>`)
	require.NoError(t, err)
	assert.Len(t, obj["copays"], 1)
}

func TestDecodeObjectFencedBlock(t *testing.T) {
	t.Parallel()

	obj, err := DecodeObject("Here is the data:\n```json\n{\"plan_name\": \"Silver HMO\"}\n```\nDone.")
	require.NoError(t, err)
	assert.Equal(t, "Silver HMO", obj["plan_name"])
}

func TestDecodeObjectBareFence(t *testing.T) {
	t.Parallel()

	obj, err := DecodeObject("```\n{\"deductibles\": []}\n```")
	require.NoError(t, err)
	assert.Empty(t, obj["deductibles"])
}

func TestDecodeObjectStripsReasoning(t *testing.T) {
	t.Parallel()

	obj, err := DecodeObject(`<thinking>The document mentions {weird unbalanced</thinking>
{"policy_number": "POL-123"}`)
	require.NoError(t, err)
	assert.Equal(t, "POL-123", obj["policy_number"])
}

func TestDecodeObjectBracesInStrings(t *testing.T) {
	t.Parallel()

	obj, err := DecodeObject(`The plan notes say: {"notes": "see section {2} for details"}`)
	require.NoError(t, err)
	assert.Equal(t, "see section {2} for details", obj["notes"])
}

func TestDecodeObjectPicksValidCandidate(t *testing.T) {
	t.Parallel()

	// First balanced region is not valid JSON; second is.
	obj, err := DecodeObject(`{not json} and then {"member_name": "Jane Roe"}`)
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", obj["member_name"])
}

func TestDecodeObjectFirstToLastFallback(t *testing.T) {
	t.Parallel()

	obj, err := DecodeObject(`prefix {"a": {"b": 1}} suffix`)
	require.NoError(t, err)
	assert.NotNil(t, obj["a"])
}

func TestDecodeObjectFailureTruncates(t *testing.T) {
	t.Parallel()

	raw := "no json here " + strings.Repeat("x", 1000)
	_, err := DecodeObject(raw)
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Len(t, pe.Raw, rawPreviewLimit)
}

func TestDecodeObjectEmpty(t *testing.T) {
	t.Parallel()

	_, err := DecodeObject("")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}
