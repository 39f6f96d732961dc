package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepilot/docintel/internal/schema"
)

func TestMergeScalarFirstNonEmptyWins(t *testing.T) {
	t.Parallel()

	set := schema.Benefits()
	acc := map[string]any{"plan_name": "Gold PPO"}

	out := Merge(set, acc, map[string]any{"plan_name": "Different Name"})
	assert.Equal(t, "Gold PPO", out["plan_name"])

	out = Merge(set, map[string]any{}, map[string]any{"plan_name": "Gold PPO"})
	assert.Equal(t, "Gold PPO", out["plan_name"])
}

func TestMergeScalarFillsEmpty(t *testing.T) {
	t.Parallel()

	set := schema.Benefits()
	acc := map[string]any{"plan_name": "  "}
	out := Merge(set, acc, map[string]any{"plan_name": "Gold PPO"})
	assert.Equal(t, "Gold PPO", out["plan_name"])
}

func TestMergeScalarKeepsZeroNumber(t *testing.T) {
	t.Parallel()

	set := schema.Benefits()
	acc := map[string]any{"out_of_pocket_max_individual": float64(0)}
	out := Merge(set, acc, map[string]any{"out_of_pocket_max_individual": float64(5000)})
	// A zero amount is data, not absence.
	assert.Equal(t, float64(0), out["out_of_pocket_max_individual"])
}

func TestMergePrimitiveListUnion(t *testing.T) {
	t.Parallel()

	set := schema.Benefits()
	acc := map[string]any{"exclusions": []any{"cosmetic_surgery", "experimental_treatment"}}
	out := Merge(set, acc, map[string]any{"exclusions": []any{"Cosmetic_Surgery", "dental"}})

	assert.Equal(t, []any{"cosmetic_surgery", "experimental_treatment", "dental"}, out["exclusions"])
}

func TestMergeKeyedRecordListFirstSeenWins(t *testing.T) {
	t.Parallel()

	set := schema.Benefits()
	acc := map[string]any{"services": []any{
		map[string]any{"service_name": "emergency", "covered": true},
	}}
	out := Merge(set, acc, map[string]any{"services": []any{
		map[string]any{"service_name": " Emergency ", "covered": false},
		map[string]any{"service_name": "specialist", "covered": true},
	}})

	services := out["services"].([]any)
	require.Len(t, services, 2)
	first := services[0].(map[string]any)
	assert.Equal(t, "emergency", first["service_name"])
	assert.Equal(t, true, first["covered"])
}

func TestMergeKeyedRecordListDropsKeylessRecords(t *testing.T) {
	t.Parallel()

	set := schema.Benefits()
	out := Merge(set, map[string]any{}, map[string]any{"services": []any{
		map[string]any{"covered": true},
		map[string]any{"service_name": "specialist"},
	}})
	assert.Len(t, out["services"], 1)
}

func TestMergeNestedBreakdownPrefersNonZero(t *testing.T) {
	t.Parallel()

	set := schema.EOB()
	acc := map[string]any{"coverage_breakdown": map[string]any{
		"total_billed":    float64(1200),
		"amount_you_owe":  float64(0),
		"total_not_covered": float64(0),
	}}
	out := Merge(set, acc, map[string]any{"coverage_breakdown": map[string]any{
		"total_billed":   float64(999),
		"amount_you_owe": float64(240),
	}})

	bd := out["coverage_breakdown"].(map[string]any)
	assert.Equal(t, float64(1200), bd["total_billed"])
	assert.Equal(t, float64(240), bd["amount_you_owe"])
}

func TestMergeMonotonic(t *testing.T) {
	t.Parallel()

	set := schema.Benefits()
	acc := map[string]any{
		"plan_name":  "Gold PPO",
		"exclusions": []any{"dental"},
	}
	out := Merge(set, acc, map[string]any{
		"plan_name":  nil,
		"exclusions": []any{},
		"copays":     []any{},
	})

	assert.Equal(t, "Gold PPO", out["plan_name"])
	assert.Equal(t, []any{"dental"}, out["exclusions"])
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	set := schema.Benefits()
	acc := map[string]any{"exclusions": []any{"dental"}}
	_ = Merge(set, acc, map[string]any{"exclusions": []any{"vision"}, "plan_name": "X"})

	assert.Equal(t, []any{"dental"}, acc["exclusions"])
	_, has := acc["plan_name"]
	assert.False(t, has)
}

func TestMergeUnknownFieldScalarSemantics(t *testing.T) {
	t.Parallel()

	set := schema.Benefits()
	out := Merge(set, map[string]any{}, map[string]any{"surprise_field": "value"})
	assert.Equal(t, "value", out["surprise_field"])

	out = Merge(set, out, map[string]any{"surprise_field": "other"})
	assert.Equal(t, "value", out["surprise_field"])
}

func TestMergeIdempotent(t *testing.T) {
	t.Parallel()

	set := schema.Benefits()
	update := map[string]any{
		"plan_name": "Gold PPO",
		"copays": []any{
			map[string]any{"service_type": "specialist", "amount": float64(40)},
		},
		"exclusions": []any{"dental"},
	}

	once := Merge(set, map[string]any{}, update)
	twice := Merge(set, once, update)
	assert.Equal(t, once, twice)
}
