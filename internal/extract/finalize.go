package extract

import (
	"strings"

	"github.com/carepilot/docintel/internal/model"
)

// docIDToken in a placeholder is replaced with the source document ID.
const docIDToken = "{document_id}"

// Finalize prepares accumulated fields for persistence: enum-like
// string values are canonicalized through the schema set's alias
// tables at any depth, and required fields still empty after all
// passes get their placeholder. Returns a new map.
func Finalize(set *model.SchemaSet, fields map[string]any, docID string) map[string]any {
	out := canonicalize(set.Aliases, "", fields).(map[string]any)

	for _, cat := range set.Categories {
		for _, f := range cat.Fields {
			if !f.Required || f.Placeholder == "" {
				continue
			}
			if isEmptyScalar(out[f.Name]) {
				out[f.Name] = strings.ReplaceAll(f.Placeholder, docIDToken, docID)
			}
		}
	}
	return out
}

// canonicalize walks the value tree. When a string sits under a key
// that has an alias table, its lowercased trimmed form is looked up
// and replaced on a hit. Values with no table entry pass through.
func canonicalize(aliases map[string]map[string]string, key string, v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = canonicalize(aliases, k, inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = canonicalize(aliases, key, inner)
		}
		return out
	case string:
		table, ok := aliases[key]
		if !ok {
			return val
		}
		if canon, hit := table[strings.ToLower(strings.TrimSpace(val))]; hit {
			return canon
		}
		return val
	}
	return v
}
