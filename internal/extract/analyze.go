package extract

import "github.com/carepilot/docintel/internal/model"

// Analyze runs the schema set's completeness checklist over the
// accumulated fields. It returns the failed check labels in checklist
// order, plus the deduplicated categories to re-run for them.
func Analyze(set *model.SchemaSet, fields map[string]any) (missing []string, categories []string) {
	seenCat := map[string]bool{}
	for _, chk := range set.Checklist {
		if checkPasses(chk, fields) {
			continue
		}
		missing = append(missing, chk.Label)
		if !seenCat[chk.Category] {
			seenCat[chk.Category] = true
			categories = append(categories, chk.Category)
		}
	}
	return missing, categories
}

func checkPasses(chk model.CompletenessCheck, fields map[string]any) bool {
	switch chk.Kind {
	case model.CheckScalarPresent:
		return !isEmptyScalar(fields[chk.Field])
	case model.CheckAnyScalarPresent:
		for _, f := range chk.Fields {
			if !isEmptyScalar(fields[f]) {
				return true
			}
		}
		return false
	case model.CheckListNonEmpty:
		return len(asList(fields[chk.Field])) > 0
	case model.CheckListMinLen:
		return len(asList(fields[chk.Field])) >= chk.MinLen
	case model.CheckBreakdownFilled:
		obj := asObject(fields[chk.Field])
		for _, v := range obj {
			if !isZeroValue(v) {
				return true
			}
		}
		return false
	}
	return false
}
