package extract

import (
	"fmt"
	"strings"

	"github.com/carepilot/docintel/internal/model"
)

// Merge folds one category's parsed output into the accumulated
// result. It never mutates its inputs and never discards data already
// in acc: scalars keep the first non-empty value, primitive lists
// union preserving first-seen order, keyed record lists keep the first
// record per key, and nested breakdowns merge field-wise preferring
// non-zero values. Fields without a spec get scalar semantics.
func Merge(set *model.SchemaSet, acc, update map[string]any) map[string]any {
	out := make(map[string]any, len(acc)+len(update))
	for k, v := range acc {
		out[k] = v
	}

	for key, newVal := range update {
		if newVal == nil {
			continue
		}
		spec := set.FieldByName(key)
		cur, exists := out[key]

		kind := model.KindScalar
		keyField := ""
		if spec != nil {
			kind = spec.Kind
			keyField = spec.KeyField
		}

		switch kind {
		case model.KindScalar:
			if !exists || isEmptyScalar(cur) {
				if !isEmptyScalar(newVal) {
					out[key] = newVal
				}
			}
		case model.KindPrimitiveList:
			out[key] = unionList(asList(cur), asList(newVal))
		case model.KindKeyedRecordList:
			out[key] = mergeKeyed(asList(cur), asList(newVal), keyField)
		case model.KindNestedBreakdown:
			out[key] = mergeBreakdown(asObject(cur), asObject(newVal))
		}
	}

	return out
}

// isEmptyScalar reports whether a scalar value counts as absent for
// merge purposes. Zero numbers are kept: a $0 copay is data.
func isEmptyScalar(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	}
	return false
}

func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

func asObject(v any) map[string]any {
	if o, ok := v.(map[string]any); ok {
		return o
	}
	return nil
}

// unionList appends items of add not already in base, comparing by
// canonical string form.
func unionList(base, add []any) []any {
	out := make([]any, 0, len(base)+len(add))
	seen := map[string]bool{}
	for _, v := range base {
		out = append(out, v)
		seen[canonKey(v)] = true
	}
	for _, v := range add {
		k := canonKey(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// mergeKeyed appends records of add whose key is unseen in base. Key
// comparison is case-insensitive on the trimmed value. Records missing
// the key field are dropped.
func mergeKeyed(base, add []any, keyField string) []any {
	out := make([]any, 0, len(base)+len(add))
	seen := map[string]bool{}

	keep := func(v any) {
		rec := asObject(v)
		if rec == nil {
			return
		}
		k, ok := recordKey(rec, keyField)
		if !ok {
			return
		}
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, rec)
	}

	for _, v := range base {
		keep(v)
	}
	for _, v := range add {
		keep(v)
	}
	return out
}

func recordKey(rec map[string]any, keyField string) (string, bool) {
	v, ok := rec[keyField]
	if !ok || v == nil {
		return "", false
	}
	k := strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", v)))
	if k == "" {
		return "", false
	}
	return k, true
}

// mergeBreakdown fills zero-valued subfields of base from add.
func mergeBreakdown(base, add map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(add))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range add {
		if v == nil {
			continue
		}
		cur, exists := out[k]
		if !exists || isZeroValue(cur) {
			if !isZeroValue(v) {
				out[k] = v
			}
		}
	}
	return out
}

func isZeroValue(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(n) == ""
	case float64:
		return n == 0
	case int:
		return n == 0
	case bool:
		return !n
	}
	return false
}

// canonKey builds a comparable form for union membership. Objects and
// lists canonicalize through fmt's map ordering, which Go sorts.
func canonKey(v any) string {
	return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", v)))
}
