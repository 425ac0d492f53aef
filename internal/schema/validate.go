// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// registrySchema constrains the decoded registry before it is accepted:
// non-empty keys, known value types, and min <= max on declared ranges.
// Uniqueness of keys is checked in Go since CUE lists are positional.
const registrySchema = `
#Field: {
	key:       string & !=""
	labels?:   [...string]
	synonyms?: [...string]
	type:      "number" | "boolean" | "string" | "bloodPressure"
	range?: {
		min: number
		max: number & >=min
	}
}

fields: [...#Field]
`

func validateConfig(doc registryFile) error {
	cctx := cuecontext.New()

	constraint := cctx.CompileString(registrySchema)
	if err := constraint.Err(); err != nil {
		return fmt.Errorf("invalid registry constraint: %w", err)
	}

	val := cctx.Encode(doc)
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to encode field schema for validation: %w", err)
	}

	if err := constraint.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("field schema rejected: %w", err)
	}
	return nil
}
