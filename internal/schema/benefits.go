// Package schema holds the built-in category schema sets for each
// supported document type. A schema set drives the generic extraction
// engine: category order, prompts, seed queries, field merge kinds,
// the completeness checklist, and finalization aliases.
package schema

import "github.com/carepilot/docintel/internal/model"

// networkAliases collapses display variants of network designations.
var networkAliases = map[string]string{
	"in-network":     "in_network",
	"in network":     "in_network",
	"out-of-network": "out_of_network",
	"out of network": "out_of_network",
	"both":           "both",
}

// serviceAliases collapses display variants of service designations.
var serviceAliases = map[string]string{
	"primary care":           "primary_care",
	"primary care physician": "primary_care",
	"specialist":             "specialist",
	"specialist visit":       "specialist",
	"emergency":              "emergency",
	"emergency room":         "emergency",
	"urgent care":            "urgent_care",
	"preventive care":        "preventive_care",
	"preventive":             "preventive_care",
	"prescription":           "prescription",
	"prescription drugs":     "prescription",
}

// Benefits returns the schema set for insurance plan documents.
func Benefits() *model.SchemaSet {
	return &model.SchemaSet{
		DocType: model.DocTypePlan,
		Aliases: map[string]map[string]string{
			"network":      networkAliases,
			"service_type": serviceAliases,
			"service_name": serviceAliases,
		},
		Categories: []model.CategorySpec{
			{
				Name: "basic_info",
				SeedQueries: []string{
					"plan name insurance policy",
					"insurance provider company name",
					"policy number member ID",
				},
				Fields: []model.FieldSpec{
					{Name: "plan_name", Kind: model.KindScalar, Required: true, Placeholder: "Unknown Plan - {document_id}"},
					{Name: "plan_type", Kind: model.KindScalar},
					{Name: "insurance_provider", Kind: model.KindScalar},
					{Name: "policy_number", Kind: model.KindScalar},
					{Name: "group_number", Kind: model.KindScalar},
					{Name: "effective_date", Kind: model.KindScalar},
					{Name: "expiration_date", Kind: model.KindScalar},
				},
				Prompt: `**Extract Basic Plan Information**

Extract the following from the document:
- plan_name (REQUIRED): Name of the insurance plan
- plan_type: Type of plan (HMO, PPO, EPO, POS, etc.)
- insurance_provider: Name of the insurance company
- policy_number: Policy or member ID number
- group_number: Group number if applicable
- effective_date: When coverage begins (YYYY-MM-DD format)
- expiration_date: When coverage ends (YYYY-MM-DD format)

Return a JSON object with only these fields. If a field is not found,
omit it (don't include null values).`,
			},
			{
				Name: "deductibles",
				SeedQueries: []string{
					"deductible amount",
					"annual deductible",
					"individual deductible",
				},
				Fields: []model.FieldSpec{
					{Name: "deductibles", Kind: model.KindKeyedRecordList, KeyField: "type"},
				},
				Prompt: `**Extract Deductibles**

Extract all deductible information: individual and family deductibles,
in-network and out-of-network, per-service deductibles.

For each deductible, extract:
- amount: Dollar amount (as a number, not string)
- type: "individual", "family", or "per_person"
- applies_to: What it applies to (e.g., "medical", "dental", "vision")
- annual: true/false (usually true)
- network: "in_network", "out_of_network", or "both"

Return a JSON object with a "deductibles" array. If no deductibles are
found, return an empty array: {"deductibles": []}`,
			},
			{
				Name: "copays",
				SeedQueries: []string{
					"copay co-pay copayment",
					"primary care copay",
					"specialist copay",
				},
				Fields: []model.FieldSpec{
					{Name: "copays", Kind: model.KindKeyedRecordList, KeyField: "service_type"},
				},
				Prompt: `**Extract Copays**

Extract all copay amounts: primary care, specialist, emergency room,
urgent care, prescription tiers, in-network vs out-of-network.

For each copay, extract:
- amount: Dollar amount (as a number)
- service_type: Type of service (e.g., "primary_care", "specialist", "emergency", "urgent_care", "prescription")
- network: "in_network" or "out_of_network"

Return a JSON object with a "copays" array. If no copays are found,
return an empty array: {"copays": []}`,
			},
			{
				Name: "coinsurance",
				SeedQueries: []string{
					"coinsurance percentage",
					"coinsurance after deductible",
					"in-network coinsurance",
				},
				Fields: []model.FieldSpec{
					{Name: "coinsurance", Kind: model.KindKeyedRecordList, KeyField: "applies_to"},
				},
				Prompt: `**Extract Coinsurance**

Extract coinsurance percentages: in-network, out-of-network, and
service-specific coinsurance.

For each coinsurance, extract:
- percentage: Percentage as a number (e.g., 20 for 20%)
- applies_to: What it applies to (e.g., "medical", "dental")
- network: "in_network" or "out_of_network"

Return a JSON object with a "coinsurance" array. If no coinsurance is
found, return an empty array: {"coinsurance": []}`,
			},
			{
				Name: "out_of_pocket",
				SeedQueries: []string{
					"out of pocket maximum",
					"OOP maximum",
					"individual out of pocket",
				},
				Fields: []model.FieldSpec{
					{Name: "out_of_pocket_max_individual", Kind: model.KindScalar},
					{Name: "out_of_pocket_max_family", Kind: model.KindScalar},
				},
				Prompt: `**Extract Out-of-Pocket Maximums**

Extract:
- out_of_pocket_max_individual: Maximum individual out-of-pocket (as a number)
- out_of_pocket_max_family: Maximum family out-of-pocket (as a number)

Return a JSON object. If a value is not found, omit the field.`,
			},
			{
				Name: "service_coverage",
				SeedQueries: []string{
					"covered services",
					"preventive care coverage",
					"emergency services",
				},
				Fields: []model.FieldSpec{
					{Name: "services", Kind: model.KindKeyedRecordList, KeyField: "service_name"},
				},
				Prompt: `**Extract Service Coverage**

Extract what services are covered: preventive care, emergency,
hospitalization, mental health, prescription drugs, specialist visits.

For each service, extract:
- service_name: Name of the service (e.g., "preventive_care", "emergency", "hospitalization", "mental_health", "prescription")
- covered: true/false
- requires_preauth: true/false
- copay: Copay object if applicable (amount, service_type, network)
- coinsurance: Coinsurance object if applicable
- coverage_limit: Coverage limit if applicable
- notes: Any additional notes about the service

Return a JSON object with a "services" array. If no services are
found, return an empty array: {"services": []}`,
			},
			{
				Name: "network",
				SeedQueries: []string{
					"network providers",
					"in-network providers",
					"out-of-network coverage",
				},
				Fields: []model.FieldSpec{
					{Name: "in_network_providers", Kind: model.KindScalar},
					{Name: "out_of_network_coverage", Kind: model.KindScalar},
					{Name: "network_notes", Kind: model.KindScalar},
				},
				Prompt: `**Extract Network Information**

Extract:
- in_network_providers: Description or reference to network providers
- out_of_network_coverage: true/false (whether out-of-network is covered)
- network_notes: Any notes about network coverage

Return a JSON object. If a field is not found, omit it.`,
			},
			{
				Name: "preauth",
				SeedQueries: []string{
					"pre-authorization required",
					"preauthorization",
					"prior authorization",
				},
				Fields: []model.FieldSpec{
					{Name: "preauth_required_services", Kind: model.KindPrimitiveList},
					{Name: "preauth_notes", Kind: model.KindScalar},
				},
				Prompt: `**Extract Pre-Authorization Requirements**

Extract:
- preauth_required_services: List of services that require pre-authorization (e.g., ["surgery", "advanced_imaging"])
- preauth_notes: Any notes about the pre-authorization process

Return a JSON object. If none are found, return:
{"preauth_required_services": [], "preauth_notes": null}`,
			},
			{
				Name: "exclusions",
				SeedQueries: []string{
					"exclusions not covered",
					"excluded services",
					"limitations",
				},
				Fields: []model.FieldSpec{
					{Name: "exclusions", Kind: model.KindPrimitiveList},
					{Name: "exclusion_notes", Kind: model.KindScalar},
				},
				Prompt: `**Extract Exclusions**

Extract what is NOT covered:
- exclusions: List of services or items not covered (e.g., ["cosmetic_surgery", "experimental_treatment"])
- exclusion_notes: Any notes about exclusions

Return a JSON object. If none are found, return:
{"exclusions": [], "exclusion_notes": null}`,
			},
			{
				Name: "additional",
				SeedQueries: []string{
					"special programs",
					"wellness programs",
					"additional benefits",
				},
				Fields: []model.FieldSpec{
					{Name: "special_programs", Kind: model.KindPrimitiveList},
					{Name: "additional_benefits", Kind: model.KindScalar},
					{Name: "notes", Kind: model.KindScalar},
				},
				Prompt: `**Extract Additional Information**

Extract:
- special_programs: List of special programs (e.g., ["wellness_programs", "maternity_care"])
- additional_benefits: Any other benefits information
- notes: General notes about the plan

Return a JSON object. If a field is not found, omit it.`,
			},
		},
		Checklist: []model.CompletenessCheck{
			{Label: "plan_name", Field: "plan_name", Kind: model.CheckScalarPresent, Category: "basic_info"},
			{Label: "insurance_provider", Field: "insurance_provider", Kind: model.CheckScalarPresent, Category: "basic_info"},
			{Label: "policy_number", Field: "policy_number", Kind: model.CheckScalarPresent, Category: "basic_info"},
			{Label: "deductibles", Field: "deductibles", Kind: model.CheckListNonEmpty, Category: "deductibles"},
			{Label: "copays", Field: "copays", Kind: model.CheckListNonEmpty, Category: "copays"},
			{Label: "out_of_pocket_maximums", Field: "out_of_pocket_max_individual", Kind: model.CheckScalarPresent, Category: "out_of_pocket"},
			{Label: "service_coverage", Field: "services", Kind: model.CheckListMinLen, MinLen: 3, Category: "service_coverage"},
			{Label: "network_information", Kind: model.CheckAnyScalarPresent, Fields: []string{"in_network_providers", "network_notes"}, Category: "network"},
			{Label: "exclusions", Field: "exclusions", Kind: model.CheckListNonEmpty, Category: "exclusions"},
		},
	}
}
