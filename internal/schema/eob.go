package schema

import "github.com/carepilot/docintel/internal/model"

// EOB returns the schema set for explanation-of-benefits statements.
func EOB() *model.SchemaSet {
	return &model.SchemaSet{
		DocType: model.DocTypeEOB,
		Categories: []model.CategorySpec{
			{
				Name: "member_info",
				SeedQueries: []string{
					"member name ID number",
					"patient information",
					"subscriber details",
				},
				Fields: []model.FieldSpec{
					{Name: "member_name", Kind: model.KindScalar, Required: true, Placeholder: "Unknown Member"},
					{Name: "member_id", Kind: model.KindScalar},
					{Name: "patient_name", Kind: model.KindScalar},
					{Name: "patient_account_number", Kind: model.KindScalar},
					{Name: "group_number", Kind: model.KindScalar},
				},
				Prompt: `**Extract Member and Patient Information**

Extract the following from the explanation of benefits:
- member_name (REQUIRED): Name of the plan member/subscriber
- member_id: Member or subscriber ID number
- patient_name: Name of the patient (may differ from member)
- patient_account_number: Patient account number if shown
- group_number: Group number if applicable

Return a JSON object with only these fields. If a field is not found,
omit it (don't include null values).`,
			},
			{
				Name: "claim_info",
				SeedQueries: []string{
					"claim number",
					"date of service",
					"claim processed date",
				},
				Fields: []model.FieldSpec{
					{Name: "claim_number", Kind: model.KindScalar, Required: true, Placeholder: "{document_id}"},
					{Name: "claim_date", Kind: model.KindScalar},
					{Name: "service_date", Kind: model.KindScalar},
					{Name: "processed_date", Kind: model.KindScalar},
					{Name: "provider_name", Kind: model.KindScalar, Required: true, Placeholder: "Unknown Provider"},
					{Name: "provider_id", Kind: model.KindScalar},
				},
				Prompt: `**Extract Claim Information**

Extract:
- claim_number (REQUIRED): The claim number
- claim_date: Date the claim was submitted (YYYY-MM-DD)
- service_date: Date of service (YYYY-MM-DD)
- processed_date: Date the claim was processed (YYYY-MM-DD)
- provider_name (REQUIRED): Name of the healthcare provider or facility
- provider_id: Provider ID or NPI if shown

Return a JSON object. If a field is not found, omit it.`,
			},
			{
				Name: "financial_summary",
				SeedQueries: []string{
					"amount billed total charges",
					"amount you owe patient responsibility",
					"plan paid amount",
				},
				Fields: []model.FieldSpec{
					{Name: "total_billed", Kind: model.KindScalar},
					{Name: "total_plan_paid", Kind: model.KindScalar},
					{Name: "total_patient_responsibility", Kind: model.KindScalar},
					{Name: "amount_already_paid", Kind: model.KindScalar},
				},
				Prompt: `**Extract Financial Summary**

Extract the claim totals (all as numbers, not strings):
- total_billed: Total amount billed by the provider
- total_plan_paid: Total amount the plan paid
- total_patient_responsibility: Total amount the patient owes
- amount_already_paid: Any amount already paid by the patient

Return a JSON object. If a value is not found, omit the field.`,
			},
			{
				Name: "service_details",
				SeedQueries: []string{
					"service line items",
					"procedure description charges",
					"service date amount billed",
				},
				Fields: []model.FieldSpec{
					{Name: "services", Kind: model.KindKeyedRecordList, KeyField: "service_description"},
				},
				Prompt: `**Extract Service Line Items**

Extract each service line on the claim. For each service:
- service_description: Description of the service or procedure
- service_code: CPT or procedure code if shown
- service_date: Date of the service (YYYY-MM-DD)
- amount_billed: Amount billed for this service (as a number)
- amount_covered: Amount covered by the plan (as a number)
- amount_not_covered: Amount not covered (as a number)
- patient_responsibility: Patient's portion for this service (as a number)
- remark_codes: List of remark or reason codes if shown

Return a JSON object with a "services" array. If no services are
found, return an empty array: {"services": []}`,
			},
			{
				Name: "coverage_breakdown",
				SeedQueries: []string{
					"deductible applied coinsurance",
					"covered before deductions",
					"benefits approved",
				},
				Fields: []model.FieldSpec{
					{Name: "coverage_breakdown", Kind: model.KindNestedBreakdown, Subfields: []string{
						"total_billed",
						"total_not_covered",
						"total_covered_before_deductions",
						"total_coinsurance",
						"total_deductions",
						"total_benefits_approved",
						"amount_you_owe",
					}},
				},
				Prompt: `**Extract Coverage Breakdown**

Extract how the claim total breaks down (all as numbers):
- total_billed: Total charges
- total_not_covered: Charges not covered
- total_covered_before_deductions: Covered amount before deductions
- total_coinsurance: Coinsurance amount applied
- total_deductions: Deductible amount applied
- total_benefits_approved: Benefits approved / plan payment
- amount_you_owe: What the patient owes
- notes: Any notes explaining the breakdown

Return a JSON object with a "coverage_breakdown" object holding these
fields. Omit fields that are not shown.`,
			},
			{
				Name: "insurance_info",
				SeedQueries: []string{
					"insurance company plan name",
					"payer information",
					"claims administrator",
				},
				Fields: []model.FieldSpec{
					{Name: "insurance_provider", Kind: model.KindScalar},
					{Name: "plan_name", Kind: model.KindScalar},
					{Name: "payer_contact", Kind: model.KindScalar},
				},
				Prompt: `**Extract Insurance Information**

Extract:
- insurance_provider: Name of the insurance company or payer
- plan_name: Name of the plan if shown
- payer_contact: Contact phone or address for the payer

Return a JSON object. If a field is not found, omit it.`,
			},
			{
				Name: "alerts_discrepancies",
				SeedQueries: []string{
					"denied not covered reason",
					"appeal rights",
					"remark codes explanation",
				},
				Fields: []model.FieldSpec{
					{Name: "denial_reasons", Kind: model.KindPrimitiveList},
					{Name: "appeal_information", Kind: model.KindScalar},
					{Name: "alerts", Kind: model.KindPrimitiveList},
				},
				Prompt: `**Extract Alerts and Discrepancies**

Extract:
- denial_reasons: List of denial or adjustment reasons (e.g., ["service not covered", "out of network"])
- appeal_information: Instructions for filing an appeal if shown
- alerts: Anything unusual the patient should review (e.g., ["billed amount exceeds allowed amount"])

Return a JSON object. If none are found, return:
{"denial_reasons": [], "alerts": []}`,
			},
		},
		Checklist: []model.CompletenessCheck{
			{Label: "member_name", Field: "member_name", Kind: model.CheckScalarPresent, Category: "member_info"},
			{Label: "claim_number", Field: "claim_number", Kind: model.CheckScalarPresent, Category: "claim_info"},
			{Label: "provider_name", Field: "provider_name", Kind: model.CheckScalarPresent, Category: "claim_info"},
			{Label: "total_billed", Field: "total_billed", Kind: model.CheckScalarPresent, Category: "financial_summary"},
			{Label: "service_details", Field: "services", Kind: model.CheckListNonEmpty, Category: "service_details"},
			{Label: "coverage_breakdown", Field: "coverage_breakdown", Kind: model.CheckBreakdownFilled, Category: "coverage_breakdown"},
		},
	}
}
