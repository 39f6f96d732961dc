package model

// FieldKind is the closed set of merge behaviors a field can declare.
// The merger branches only on this tag; adding a kind means extending
// the switch in one place.
type FieldKind string

const (
	// KindScalar holds a single string or number. Merge keeps the
	// first non-empty value seen.
	KindScalar FieldKind = "scalar"
	// KindPrimitiveList holds strings or numbers. Merge is set-union
	// preserving first-seen order.
	KindPrimitiveList FieldKind = "primitive_list"
	// KindKeyedRecordList holds objects identified by KeyField.
	// Merge appends unseen keys; the first record for a key wins.
	KindKeyedRecordList FieldKind = "keyed_record_list"
	// KindNestedBreakdown holds a single object merged field-wise,
	// preferring non-zero subfield values.
	KindNestedBreakdown FieldKind = "nested_breakdown"
)

// ValidFieldKind reports whether k is a declared kind.
func ValidFieldKind(k FieldKind) bool {
	switch k {
	case KindScalar, KindPrimitiveList, KindKeyedRecordList, KindNestedBreakdown:
		return true
	}
	return false
}

// FieldSpec declares one output field of a category.
type FieldSpec struct {
	Name string    `json:"name" yaml:"name"`
	Kind FieldKind `json:"kind" yaml:"kind"`

	// KeyField names the identity subfield for keyed_record_list.
	KeyField string `json:"key_field,omitempty" yaml:"key_field,omitempty"`
	// Subfields enumerates the object shape for nested_breakdown.
	Subfields []string `json:"subfields,omitempty" yaml:"subfields,omitempty"`
	// Required fields get Placeholder substituted at finalization
	// when still empty after all passes. The token "{document_id}"
	// in Placeholder is replaced with the source document ID.
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// CategorySpec is one extraction pass: a prompt, the vector-store seed
// queries that locate its evidence, and the fields it may produce.
type CategorySpec struct {
	Name        string      `json:"name" yaml:"name"`
	Prompt      string      `json:"prompt" yaml:"prompt"`
	SeedQueries []string    `json:"seed_queries" yaml:"seed_queries"`
	Fields      []FieldSpec `json:"fields" yaml:"fields"`
}

// CheckKind is the closed set of completeness probes.
type CheckKind string

const (
	CheckScalarPresent    CheckKind = "scalar_present"
	CheckAnyScalarPresent CheckKind = "any_scalar_present"
	CheckListNonEmpty     CheckKind = "list_non_empty"
	CheckListMinLen       CheckKind = "list_min_len"
	CheckBreakdownFilled  CheckKind = "breakdown_filled"
)

// CompletenessCheck probes the accumulated result for one missing
// category. Label is what the analyzer reports when the probe fails.
type CompletenessCheck struct {
	Label string    `json:"label" yaml:"label"`
	Field string    `json:"field" yaml:"field"`
	Kind  CheckKind `json:"kind" yaml:"kind"`
	// Fields lists the alternatives for any_scalar_present.
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	MinLen int      `json:"min_len,omitempty" yaml:"min_len,omitempty"`
	// Category names the CategorySpec to re-run when the check fails.
	Category string `json:"category" yaml:"category"`
}

// SchemaSet binds a document type to its ordered categories and its
// completeness checklist.
type SchemaSet struct {
	DocType    DocumentType        `json:"doc_type" yaml:"doc_type"`
	Categories []CategorySpec      `json:"categories" yaml:"categories"`
	Checklist  []CompletenessCheck `json:"checklist" yaml:"checklist"`
	// Aliases canonicalizes enum-like string values at finalization.
	// The outer key is a JSON key name matched at any depth of the
	// result; the inner map is keyed by the lowercased raw form.
	Aliases map[string]map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Category returns the named category spec, or nil.
func (s *SchemaSet) Category(name string) *CategorySpec {
	for i := range s.Categories {
		if s.Categories[i].Name == name {
			return &s.Categories[i]
		}
	}
	return nil
}

// FieldByName resolves a field spec across all categories. Field names
// are unique within a schema set.
func (s *SchemaSet) FieldByName(name string) *FieldSpec {
	for i := range s.Categories {
		for j := range s.Categories[i].Fields {
			if s.Categories[i].Fields[j].Name == name {
				return &s.Categories[i].Fields[j]
			}
		}
	}
	return nil
}
