// Package registry resolves schema sets for document types. The three
// built-in sets cover plan documents, EOB statements, and lab reports;
// operators can override or add sets from YAML files.
package registry

import (
	"github.com/rotisserie/eris"

	"github.com/carepilot/docintel/internal/model"
	"github.com/carepilot/docintel/internal/schema"
)

// Registry maps document types to their schema sets.
type Registry struct {
	sets map[model.DocumentType]*model.SchemaSet
}

// NewRegistry returns a registry preloaded with the built-in sets.
func NewRegistry() *Registry {
	return &Registry{
		sets: map[model.DocumentType]*model.SchemaSet{
			model.DocTypePlan: schema.Benefits(),
			model.DocTypeEOB:  schema.EOB(),
			model.DocTypeLab:  schema.Lab(),
		},
	}
}

// Register adds or replaces the set for its document type. The set is
// validated first.
func (r *Registry) Register(set *model.SchemaSet) error {
	if err := Validate(set); err != nil {
		return err
	}
	r.sets[set.DocType] = set
	return nil
}

// ForDocType returns the schema set for a document type.
func (r *Registry) ForDocType(dt model.DocumentType) (*model.SchemaSet, error) {
	set, ok := r.sets[dt]
	if !ok {
		return nil, eris.Errorf("registry: no schema set for document type %q", dt)
	}
	return set, nil
}

// DocTypes lists the registered document types.
func (r *Registry) DocTypes() []model.DocumentType {
	out := make([]model.DocumentType, 0, len(r.sets))
	for dt := range r.sets {
		out = append(out, dt)
	}
	return out
}

// Validate checks a schema set for internal consistency.
func Validate(set *model.SchemaSet) error {
	if set.DocType == "" {
		return eris.New("registry: schema set missing doc_type")
	}
	if len(set.Categories) == 0 {
		return eris.Errorf("registry: schema set %q has no categories", set.DocType)
	}

	seen := map[string]bool{}
	for _, cat := range set.Categories {
		if cat.Name == "" {
			return eris.Errorf("registry: %s: category missing name", set.DocType)
		}
		if seen[cat.Name] {
			return eris.Errorf("registry: %s: duplicate category %q", set.DocType, cat.Name)
		}
		seen[cat.Name] = true
		if cat.Prompt == "" {
			return eris.Errorf("registry: %s/%s: category missing prompt", set.DocType, cat.Name)
		}
		if len(cat.SeedQueries) > 3 {
			return eris.Errorf("registry: %s/%s: at most 3 seed queries allowed, got %d", set.DocType, cat.Name, len(cat.SeedQueries))
		}
		if len(cat.Fields) == 0 {
			return eris.Errorf("registry: %s/%s: category has no fields", set.DocType, cat.Name)
		}
		for _, f := range cat.Fields {
			if f.Name == "" {
				return eris.Errorf("registry: %s/%s: field missing name", set.DocType, cat.Name)
			}
			if !model.ValidFieldKind(f.Kind) {
				return eris.Errorf("registry: %s/%s/%s: unknown field kind %q", set.DocType, cat.Name, f.Name, f.Kind)
			}
			if f.Kind == model.KindKeyedRecordList && f.KeyField == "" {
				return eris.Errorf("registry: %s/%s/%s: keyed record list needs key_field", set.DocType, cat.Name, f.Name)
			}
			if f.Kind == model.KindNestedBreakdown && len(f.Subfields) == 0 {
				return eris.Errorf("registry: %s/%s/%s: nested breakdown needs subfields", set.DocType, cat.Name, f.Name)
			}
		}
	}

	for _, chk := range set.Checklist {
		if chk.Label == "" {
			return eris.Errorf("registry: %s: checklist entry missing label", set.DocType)
		}
		if !seen[chk.Category] {
			return eris.Errorf("registry: %s: checklist %q names unknown category %q", set.DocType, chk.Label, chk.Category)
		}
		switch chk.Kind {
		case model.CheckScalarPresent, model.CheckListNonEmpty, model.CheckBreakdownFilled:
			if chk.Field == "" {
				return eris.Errorf("registry: %s: checklist %q missing field", set.DocType, chk.Label)
			}
		case model.CheckListMinLen:
			if chk.Field == "" || chk.MinLen < 1 {
				return eris.Errorf("registry: %s: checklist %q needs field and min_len", set.DocType, chk.Label)
			}
		case model.CheckAnyScalarPresent:
			if len(chk.Fields) == 0 {
				return eris.Errorf("registry: %s: checklist %q needs fields", set.DocType, chk.Label)
			}
		default:
			return eris.Errorf("registry: %s: checklist %q has unknown kind %q", set.DocType, chk.Label, chk.Kind)
		}
	}

	return nil
}
