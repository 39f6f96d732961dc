package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepilot/docintel/internal/model"
)

func TestNewRegistryBuiltins(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, dt := range []model.DocumentType{model.DocTypePlan, model.DocTypeEOB, model.DocTypeLab} {
		set, err := r.ForDocType(dt)
		require.NoError(t, err)
		assert.Equal(t, dt, set.DocType)
		assert.NoError(t, Validate(set), "built-in set %s must validate", dt)
	}
	assert.Len(t, r.DocTypes(), 3)
}

func TestForDocTypeUnknown(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.ForDocType("dental_claim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema set")
}

func TestRegisterReplaces(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	set := minimalSet(model.DocTypeLab)
	set.Categories[0].Name = "custom"
	require.NoError(t, r.Register(set))

	got, err := r.ForDocType(model.DocTypeLab)
	require.NoError(t, err)
	assert.Equal(t, "custom", got.Categories[0].Name)
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*model.SchemaSet)
		want   string
	}{
		{"missing doc type", func(s *model.SchemaSet) { s.DocType = "" }, "missing doc_type"},
		{"no categories", func(s *model.SchemaSet) { s.Categories = nil }, "no categories"},
		{"duplicate category", func(s *model.SchemaSet) {
			s.Categories = append(s.Categories, s.Categories[0])
		}, "duplicate category"},
		{"missing prompt", func(s *model.SchemaSet) { s.Categories[0].Prompt = "" }, "missing prompt"},
		{"too many seeds", func(s *model.SchemaSet) {
			s.Categories[0].SeedQueries = []string{"a", "b", "c", "d"}
		}, "at most 3 seed queries"},
		{"bad field kind", func(s *model.SchemaSet) {
			s.Categories[0].Fields[0].Kind = "blob"
		}, "unknown field kind"},
		{"keyed list without key", func(s *model.SchemaSet) {
			s.Categories[0].Fields[0].Kind = model.KindKeyedRecordList
			s.Categories[0].Fields[0].KeyField = ""
		}, "needs key_field"},
		{"breakdown without subfields", func(s *model.SchemaSet) {
			s.Categories[0].Fields[0].Kind = model.KindNestedBreakdown
		}, "needs subfields"},
		{"checklist unknown category", func(s *model.SchemaSet) {
			s.Checklist[0].Category = "nope"
		}, "unknown category"},
		{"checklist unknown kind", func(s *model.SchemaSet) {
			s.Checklist[0].Kind = "exists"
		}, "unknown kind"},
		{"any_scalar without fields", func(s *model.SchemaSet) {
			s.Checklist[0].Kind = model.CheckAnyScalarPresent
			s.Checklist[0].Fields = nil
		}, "needs fields"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			set := minimalSet(model.DocTypePlan)
			tc.mutate(set)
			err := Validate(set)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadSchemaFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dental.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schema:
  doc_type: plan_document
  categories:
    - name: basic_info
      prompt: Extract the plan name.
      seed_queries:
        - plan name
      fields:
        - name: plan_name
          kind: scalar
          required: true
          placeholder: "Unknown Plan - {document_id}"
  checklist:
    - label: plan_name
      field: plan_name
      kind: scalar_present
      category: basic_info
  aliases:
    network:
      in-network: in_network
`), 0o644))

	set, err := LoadSchemaFile(path)
	require.NoError(t, err)
	assert.Equal(t, model.DocTypePlan, set.DocType)
	require.Len(t, set.Categories, 1)
	assert.True(t, set.Categories[0].Fields[0].Required)
	assert.Equal(t, "in_network", set.Aliases["network"]["in-network"])
}

func TestLoadSchemaFileInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schema:
  doc_type: plan_document
  categories: []
`), 0o644))

	_, err := LoadSchemaFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no categories")
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lab.yml"), []byte(`
schema:
  doc_type: lab_report
  categories:
    - name: report_info
      prompt: Extract the patient name.
      fields:
        - name: patient_name
          kind: scalar
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadDir(dir))

	set, err := r.ForDocType(model.DocTypeLab)
	require.NoError(t, err)
	assert.Len(t, set.Categories, 1)
}

func minimalSet(dt model.DocumentType) *model.SchemaSet {
	return &model.SchemaSet{
		DocType: dt,
		Categories: []model.CategorySpec{
			{
				Name:   "basic_info",
				Prompt: "Extract the plan name.",
				Fields: []model.FieldSpec{
					{Name: "plan_name", Kind: model.KindScalar},
				},
			},
		},
		Checklist: []model.CompletenessCheck{
			{Label: "plan_name", Field: "plan_name", Kind: model.CheckScalarPresent, Category: "basic_info"},
		},
	}
}
