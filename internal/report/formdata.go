// SPDX-License-Identifier: Apache-2.0

package report

// ConvertToFormData flattens parsed fields into a key -> value map for form
// population. Unknown fields never reach the parsed list by construction,
// so every entry here is safe to auto-fill.
func ConvertToFormData(fields []ParsedField) map[string]any {
	form := make(map[string]any, len(fields))
	for _, f := range fields {
		if _, taken := form[f.FieldKey]; taken {
			continue
		}
		form[f.FieldKey] = f.Value
	}
	return form
}

// FilterByConfidence keeps the fields at or above the given tier:
// requesting high keeps only high, medium keeps high and medium, low keeps
// everything. Order is preserved.
func FilterByConfidence(fields []ParsedField, tier Confidence) []ParsedField {
	minRank := tier.rank()
	out := make([]ParsedField, 0, len(fields))
	for _, f := range fields {
		if f.Confidence.rank() >= minRank {
			out = append(out, f)
		}
	}
	return out
}
