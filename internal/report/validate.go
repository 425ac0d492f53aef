// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/cardioproj/cardio-mcp/internal/schema"
)

// Validation is the outcome of checking a raw value against a matched
// field's type and range. A failed validation drops the value entirely: the
// label had a known field identity, so it never becomes an unknown field,
// and the out-of-range value must not populate a form either.
type Validation struct {
	Valid bool
	Value any
	Err   string
}

func invalid(format string, args ...any) Validation {
	return Validation{Err: fmt.Sprintf(format, args...)}
}

// ValidateValue normalizes raw against the field's declared type and,
// for numbers, its inclusive range.
func ValidateValue(raw string, field *schema.Field) Validation {
	switch field.Type {
	case schema.TypeNumber:
		num := ExtractNumber(raw)
		if num == nil {
			return invalid("no numeric value in %q", raw)
		}
		if math.IsNaN(num.Value) || math.IsInf(num.Value, 0) {
			return invalid("non-finite value in %q", raw)
		}
		if r := field.Range; r != nil && (num.Value < r.Min || num.Value > r.Max) {
			return invalid("value %v outside range [%v, %v]", num.Value, r.Min, r.Max)
		}
		return Validation{Valid: true, Value: num.Value}

	case schema.TypeBoolean:
		b := ParseBoolean(raw)
		if b == nil {
			return invalid("ambiguous boolean %q", raw)
		}
		return Validation{Valid: true, Value: *b}

	case schema.TypeBloodPressure:
		bp := ExtractBloodPressure(raw)
		if bp == nil {
			return invalid("no physiological blood pressure pair in %q", raw)
		}
		return Validation{Valid: true, Value: fmt.Sprintf("%d/%d", int(bp.Systolic), int(bp.Diastolic))}

	case schema.TypeString:
		return Validation{Valid: true, Value: strings.TrimSpace(raw)}

	default:
		return invalid("unsupported field type %q", field.Type)
	}
}
