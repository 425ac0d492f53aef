// SPDX-License-Identifier: Apache-2.0

package report

import (
	"regexp"
	"strconv"
	"strings"
)

// NumericValue is a number pulled out of free text, with the unit token that
// followed it when one was present.
type NumericValue struct {
	Value float64
	Unit  string
}

// BloodPressure is a systolic/diastolic pair.
type BloodPressure struct {
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
}

var (
	numberWithUnitRe = regexp.MustCompile(`(?i)([-+]?\d+(?:\.\d+)?)\s*(mmHg|mmol/L|mg/dL|mg/L|bpm|cm|kg|lbs|in)\b`)
	bareNumberRe     = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)
	bloodPressureRe  = regexp.MustCompile(`(?i)\b(\d{2,3})\s*(?:/|-|over)\s*(\d{2,3})\b`)
)

// canonicalUnits maps the lowercased unit token back to its conventional
// spelling so callers see "mmHg" regardless of input casing.
var canonicalUnits = map[string]string{
	"mmhg":   "mmHg",
	"mmol/l": "mmol/L",
	"mg/dl":  "mg/dL",
	"mg/l":   "mg/L",
	"bpm":    "bpm",
	"cm":     "cm",
	"kg":     "kg",
	"lbs":    "lbs",
	"in":     "in",
}

// ExtractNumber scans text for a decimal number, preferring one followed by
// a known unit token. Returns nil when no numeric substring exists.
func ExtractNumber(text string) *NumericValue {
	if m := numberWithUnitRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return &NumericValue{Value: v, Unit: canonicalUnits[strings.ToLower(m[2])]}
		}
	}
	if m := bareNumberRe.FindString(text); m != "" {
		v, err := strconv.ParseFloat(m, 64)
		if err == nil {
			return &NumericValue{Value: v}
		}
	}
	return nil
}

// Physiological gates for blood pressure readings. Pairs outside these
// bounds are rejected rather than guessed: BP-shaped substrings show up in
// dates and ratios too.
const (
	minSystolic  = 70
	maxSystolic  = 250
	minDiastolic = 40
	maxDiastolic = 150
)

// ExtractBloodPressure recognizes "SYS/DIA", "SYS - DIA", and "SYS over DIA"
// pairs. Returns nil when no pair is found or the pair is outside
// physiological range.
func ExtractBloodPressure(text string) *BloodPressure {
	m := bloodPressureRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	sys, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	dia, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil
	}
	if sys < minSystolic || sys > maxSystolic || dia < minDiastolic || dia > maxDiastolic {
		return nil
	}
	return &BloodPressure{Systolic: sys, Diastolic: dia}
}

var truthyTokens = map[string]bool{
	"yes": true, "true": true, "positive": true, "present": true, "1": true, "y": true,
}

var falsyTokens = map[string]bool{
	"no": true, "false": true, "negative": true, "absent": true, "0": true, "n": true,
}

// ParseBoolean matches text against a fixed token table, case-insensitively.
// Anything outside the table returns nil; ambiguous input is never coerced
// to a default.
func ParseBoolean(text string) *bool {
	token := strings.ToLower(strings.TrimSpace(text))
	if truthyTokens[token] {
		v := true
		return &v
	}
	if falsyTokens[token] {
		v := false
		return &v
	}
	return nil
}
