package schema

import "github.com/carepilot/docintel/internal/model"

// Lab returns the schema set for laboratory result reports.
func Lab() *model.SchemaSet {
	return &model.SchemaSet{
		DocType: model.DocTypeLab,
		Categories: []model.CategorySpec{
			{
				Name: "report_info",
				SeedQueries: []string{
					"patient name date of birth",
					"ordering physician provider",
					"specimen collected date",
				},
				Fields: []model.FieldSpec{
					{Name: "patient_name", Kind: model.KindScalar, Required: true, Placeholder: "Unknown Patient"},
					{Name: "date_of_birth", Kind: model.KindScalar},
					{Name: "ordering_provider", Kind: model.KindScalar},
					{Name: "lab_name", Kind: model.KindScalar},
					{Name: "collection_date", Kind: model.KindScalar},
					{Name: "report_date", Kind: model.KindScalar},
				},
				Prompt: `**Extract Lab Report Information**

Extract the following from the lab report:
- patient_name (REQUIRED): Name of the patient
- date_of_birth: Patient date of birth (YYYY-MM-DD)
- ordering_provider: Name of the ordering physician
- lab_name: Name of the laboratory
- collection_date: Specimen collection date (YYYY-MM-DD)
- report_date: Date the report was issued (YYYY-MM-DD)

Return a JSON object with only these fields. If a field is not found,
omit it (don't include null values).`,
			},
			{
				Name: "results",
				SeedQueries: []string{
					"test result value reference range",
					"abnormal flag high low",
					"panel components",
				},
				Fields: []model.FieldSpec{
					{Name: "results", Kind: model.KindKeyedRecordList, KeyField: "test_name"},
				},
				Prompt: `**Extract Test Results**

Extract every analyte or test result on the report. For each result:
- test_name: Name of the test or analyte (e.g., "Hemoglobin A1c")
- value: The measured value (number where possible)
- unit: Unit of measurement (e.g., "mg/dL")
- reference_range: The reference or normal range as printed
- flag: "high", "low", "abnormal", or "normal" if indicated
- collection_date: Collection date for this result if it differs (YYYY-MM-DD)

Return a JSON object with a "results" array. If no results are found,
return an empty array: {"results": []}`,
			},
			{
				Name: "notes",
				SeedQueries: []string{
					"comments interpretation",
					"clinical notes remarks",
					"follow up recommendation",
				},
				Fields: []model.FieldSpec{
					{Name: "interpretation", Kind: model.KindScalar},
					{Name: "comments", Kind: model.KindPrimitiveList},
				},
				Prompt: `**Extract Comments and Interpretation**

Extract:
- interpretation: Any overall interpretation or summary text
- comments: List of individual comments or remarks on the report

Return a JSON object. If none are found, return:
{"comments": []}`,
			},
		},
		Checklist: []model.CompletenessCheck{
			{Label: "patient_name", Field: "patient_name", Kind: model.CheckScalarPresent, Category: "report_info"},
			{Label: "collection_date", Field: "collection_date", Kind: model.CheckScalarPresent, Category: "report_info"},
			{Label: "results", Field: "results", Kind: model.CheckListNonEmpty, Category: "results"},
		},
	}
}
