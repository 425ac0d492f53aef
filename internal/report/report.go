// SPDX-License-Identifier: Apache-2.0

package report

// Confidence is the bucketed confidence tier exposed at the result boundary.
// The matcher works with continuous scores internally; callers only ever see
// the tier.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

const (
	highThreshold   = 0.95
	mediumThreshold = 0.80
)

func bucketConfidence(score float64) Confidence {
	switch {
	case score >= highThreshold:
		return ConfidenceHigh
	case score >= mediumThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// rank orders tiers so that FilterByConfidence can be inclusive:
// requesting medium keeps high and medium entries.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// ParsedField is a successfully recognized label/value pair. It never
// carries the unknown marker; anything the schema does not recognize goes
// to UnknownField instead.
type ParsedField struct {
	FieldKey   string     `json:"fieldKey"`
	Value      any        `json:"value"`
	Label      string     `json:"label"`
	Confidence Confidence `json:"confidence"`
	RawLine    string     `json:"rawLine"`
	LineNumber int        `json:"lineNumber,omitempty"`
}

// UnknownField records a label the schema does not recognize, verbatim.
// These are surfaced for manual review and must never be auto-filled.
type UnknownField struct {
	Label         string `json:"label"`
	Value         string `json:"value"`
	RawLine       string `json:"rawLine"`
	UnknownMarker bool   `json:"unknownMarker"`
}

// Result is the aggregate output of a single Parse call. Field keys are
// unique within ParsedFields: the first successful match for a key wins for
// the whole document.
type Result struct {
	Success       bool           `json:"success"`
	ParsedFields  []ParsedField  `json:"parsedFields"`
	UnknownFields []UnknownField `json:"unknownFields"`
	FullText      string         `json:"fullText"`
	Error         string         `json:"error,omitempty"`
}
