package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepilot/docintel/internal/model"
)

func TestBenefitsSet(t *testing.T) {
	t.Parallel()

	set := Benefits()
	assert.Equal(t, model.DocTypePlan, set.DocType)
	assert.Len(t, set.Categories, 10)

	basic := set.Category("basic_info")
	require.NotNil(t, basic)
	plan := set.FieldByName("plan_name")
	require.NotNil(t, plan)
	assert.True(t, plan.Required)
	assert.Equal(t, "Unknown Plan - {document_id}", plan.Placeholder)

	services := set.FieldByName("services")
	require.NotNil(t, services)
	assert.Equal(t, model.KindKeyedRecordList, services.Kind)
	assert.Equal(t, "service_name", services.KeyField)
}

func TestBenefitsChecklist(t *testing.T) {
	t.Parallel()

	set := Benefits()
	require.Len(t, set.Checklist, 9)

	var network *model.CompletenessCheck
	for i := range set.Checklist {
		if set.Checklist[i].Label == "network_information" {
			network = &set.Checklist[i]
		}
	}
	require.NotNil(t, network)
	assert.Equal(t, model.CheckAnyScalarPresent, network.Kind)
	assert.ElementsMatch(t, []string{"in_network_providers", "network_notes"}, network.Fields)

	for _, chk := range set.Checklist {
		assert.NotNil(t, set.Category(chk.Category), "checklist %q names unknown category", chk.Label)
	}
}

func TestBenefitsAliases(t *testing.T) {
	t.Parallel()

	set := Benefits()
	assert.Equal(t, "in_network", set.Aliases["network"]["in-network"])
	assert.Equal(t, "out_of_network", set.Aliases["network"]["out of network"])
	assert.Equal(t, "primary_care", set.Aliases["service_type"]["primary care physician"])
	assert.Equal(t, "emergency", set.Aliases["service_name"]["emergency room"])
}

func TestEOBSet(t *testing.T) {
	t.Parallel()

	set := EOB()
	assert.Equal(t, model.DocTypeEOB, set.DocType)
	assert.Len(t, set.Categories, 7)

	claim := set.FieldByName("claim_number")
	require.NotNil(t, claim)
	assert.True(t, claim.Required)
	assert.Equal(t, "{document_id}", claim.Placeholder)

	services := set.FieldByName("services")
	require.NotNil(t, services)
	assert.Equal(t, "service_description", services.KeyField)

	breakdown := set.FieldByName("coverage_breakdown")
	require.NotNil(t, breakdown)
	assert.Equal(t, model.KindNestedBreakdown, breakdown.Kind)
	assert.Contains(t, breakdown.Subfields, "amount_you_owe")
	assert.Len(t, breakdown.Subfields, 7)
}

func TestLabSet(t *testing.T) {
	t.Parallel()

	set := Lab()
	assert.Equal(t, model.DocTypeLab, set.DocType)

	results := set.FieldByName("results")
	require.NotNil(t, results)
	assert.Equal(t, model.KindKeyedRecordList, results.Kind)
	assert.Equal(t, "test_name", results.KeyField)
}

func TestSeedQueryCaps(t *testing.T) {
	t.Parallel()

	for _, set := range []*model.SchemaSet{Benefits(), EOB(), Lab()} {
		for _, cat := range set.Categories {
			assert.LessOrEqual(t, len(cat.SeedQueries), 3, "%s/%s", set.DocType, cat.Name)
			assert.NotEmpty(t, cat.Prompt, "%s/%s", set.DocType, cat.Name)
			assert.NotEmpty(t, cat.Fields, "%s/%s", set.DocType, cat.Name)
		}
	}
}
