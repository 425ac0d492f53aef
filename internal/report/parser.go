// SPDX-License-Identifier: Apache-2.0

// Package report implements the clinical-report field extraction pipeline:
// raw text is split into lines, each line is offered to an ordered set of
// structural strategies, extracted labels are resolved against the canonical
// field schema, and values are type- and range-checked before they may
// populate a result.
//
// The pipeline never guesses: a label the schema does not recognize is
// surfaced as an unknown field for manual review, and a recognized label
// with an out-of-range value is dropped outright.
package report

import (
	"regexp"
	"strings"

	"github.com/cardioproj/cardio-mcp/internal/schema"
)

// directPatternScore is the confidence assigned to medical-domain regex
// hits, which name their field directly and bypass label matching.
const directPatternScore = 0.95

// candidate is a structural label/value split produced by one strategy.
// FieldKey is set only by the medical pattern table.
type candidate struct {
	label    string
	rawValue string
	fieldKey string
}

// lineStrategy is a pure line -> candidate rule. Strategies are evaluated
// in order with short-circuit semantics: the first non-nil candidate decides
// the line, even if label matching or validation fails afterwards.
type lineStrategy struct {
	name  string
	apply func(line string) *candidate
}

// Parser turns unstructured report text into a structured Result. It is
// safe for concurrent use: all state is immutable after construction.
type Parser struct {
	reg        *schema.Registry
	matcher    *Matcher
	strategies []lineStrategy
}

// NewParser builds a parser over the injected field registry.
func NewParser(reg *schema.Registry) *Parser {
	return &Parser{
		reg:     reg,
		matcher: NewMatcher(reg),
		strategies: []lineStrategy{
			{name: "delimited", apply: splitDelimited},
			{name: "label-number", apply: splitLabelNumber},
			{name: "label-boolean", apply: splitLabelBoolean},
			{name: "colon-fallback", apply: splitFirstColon},
			{name: "medical-patterns", apply: matchMedicalPattern},
		},
	}
}

// Parse processes text end to end. It always succeeds for text input: lines
// that match no strategy simply contribute nothing, unmapped labels are
// collected as unknown fields, and invalid values are dropped. The first
// occurrence of each field key wins for the whole document.
func (p *Parser) Parse(text string) *Result {
	res := &Result{
		Success:       true,
		ParsedFields:  []ParsedField{},
		UnknownFields: []UnknownField{},
		FullText:      text,
	}

	seen := make(map[string]bool)
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		cand := p.firstCandidate(trimmed)
		if cand == nil {
			continue
		}

		key := cand.fieldKey
		score := directPatternScore
		if key == "" {
			match := p.matcher.Match(cand.label)
			if match == nil {
				res.UnknownFields = append(res.UnknownFields, UnknownField{
					Label:         cand.label,
					Value:         cand.rawValue,
					RawLine:       trimmed,
					UnknownMarker: true,
				})
				continue
			}
			key = match.FieldKey
			score = match.Score
		}

		field, ok := p.reg.Lookup(key)
		if !ok {
			continue
		}
		v := ValidateValue(cand.rawValue, field)
		if !v.Valid {
			// Known field, invalid value: dropped from both lists.
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		res.ParsedFields = append(res.ParsedFields, ParsedField{
			FieldKey:   key,
			Value:      v.Value,
			Label:      cand.label,
			Confidence: bucketConfidence(score),
			RawLine:    trimmed,
			LineNumber: i + 1,
		})
	}
	return res
}

// firstCandidate runs the strategies in order and returns the first
// structural match. Once a strategy splits the line, its outcome stands;
// remaining strategies are not consulted.
func (p *Parser) firstCandidate(line string) *candidate {
	for _, s := range p.strategies {
		if cand := s.apply(line); cand != nil {
			return cand
		}
	}
	return nil
}

var (
	labelNumberRe  = regexp.MustCompile(`^([A-Za-z][A-Za-z .()/%'-]*?)\s+([-+]?\d+(?:\.\d+)?(?:\s*[A-Za-z/%]+)?)$`)
	labelBooleanRe = regexp.MustCompile(`(?i)^([A-Za-z][A-Za-z .()/%'-]*?)\s+(yes|no|true|false|positive|negative|present|absent|y|n)$`)
	hasLetterRe    = regexp.MustCompile(`[A-Za-z]`)
)

// splitDelimited handles "label: value" and "label = value" for lines with
// exactly one delimiter. Lines whose label or value carries further ':' or
// '=' characters are left to the colon fallback.
func splitDelimited(line string) *candidate {
	if strings.Count(line, ":")+strings.Count(line, "=") != 1 {
		return nil
	}
	idx := strings.IndexAny(line, ":=")
	label := strings.TrimSpace(line[:idx])
	value := strings.TrimSpace(line[idx+1:])
	if label == "" || value == "" || !hasLetterRe.MatchString(label) {
		return nil
	}
	return &candidate{label: label, rawValue: value}
}

// splitLabelNumber handles "label 42" and "label 42 mg/dL" shapes with no
// delimiter.
func splitLabelNumber(line string) *candidate {
	m := labelNumberRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	return &candidate{label: strings.TrimSpace(m[1]), rawValue: strings.TrimSpace(m[2])}
}

// splitLabelBoolean handles "label yes" shapes with no delimiter.
func splitLabelBoolean(line string) *candidate {
	m := labelBooleanRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	return &candidate{label: strings.TrimSpace(m[1]), rawValue: strings.TrimSpace(m[2])}
}

// splitFirstColon is the fallback for labels that themselves contain '='
// or for lines with several colons: split once on the first colon and
// rejoin the remainder as the value.
func splitFirstColon(line string) *candidate {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return nil
	}
	label := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if label == "" || value == "" || !hasLetterRe.MatchString(label) {
		return nil
	}
	return &candidate{label: label, rawValue: value}
}

// medicalPattern directly names a field key, bypassing generic label
// extraction. These catch domain phrasing ("Patient is 45 years old",
// "BP was 130/85") that the generic shapes miss.
type medicalPattern struct {
	fieldKey string
	re       *regexp.Regexp
}

// Order matters: more specific patterns (HDL) come before the generic ones
// they overlap with (cholesterol).
var medicalPatterns = []medicalPattern{
	{fieldKey: "age", re: regexp.MustCompile(`(?i)\b(\d{1,3})[ -]*(?:years?[ -]old|y/?o)\b`)},
	{fieldKey: "sleepHours", re: regexp.MustCompile(`(?i)\bsleep(?:s|ing)?\s+(?:about\s+|around\s+)?(\d{1,2}(?:\.\d+)?)\s*(?:hours?|hrs?)\b`)},
	{fieldKey: "hdlCholesterol", re: regexp.MustCompile(`(?i)\bhdl(?:[ -]c(?:holesterol)?)?\s*(?:of|was|is|at|level)?\s*([-+]?\d+(?:\.\d+)?)`)},
	{fieldKey: "chestPainType", re: regexp.MustCompile(`(?i)\b(typical angina|atypical angina|non[ -]?anginal pain|asymptomatic chest pain)\b`)},
	{fieldKey: "bloodPressure", re: regexp.MustCompile(`(?i)\b(?:blood pressure|bp)\s*(?:of|was|is|at|reading)?\s*(\d{2,3}\s*(?:/|-|over)\s*\d{2,3})\b`)},
	{fieldKey: "cholesterol", re: regexp.MustCompile(`(?i)\b(?:total\s+|serum\s+)?cholesterol\s*(?:of|was|is|at|level)?\s+([-+]?\d+(?:\.\d+)?)`)},
	{fieldKey: "restingHeartRate", re: regexp.MustCompile(`(?i)\b(?:heart rate|pulse)\s*(?:of|was|is|at)?\s+(\d{2,3})\b`)},
}

func matchMedicalPattern(line string) *candidate {
	for _, p := range medicalPatterns {
		if m := p.re.FindStringSubmatch(line); m != nil {
			return &candidate{
				label:    strings.TrimSpace(m[0]),
				rawValue: strings.TrimSpace(m[1]),
				fieldKey: p.fieldKey,
			}
		}
	}
	return nil
}
