// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardioproj/cardio-mcp/internal/schema"
)

func defaultParser(t *testing.T) *Parser {
	t.Helper()
	reg, err := schema.Default()
	require.NoError(t, err)
	return NewParser(reg)
}

func findField(fields []ParsedField, key string) *ParsedField {
	for i := range fields {
		if fields[i].FieldKey == key {
			return &fields[i]
		}
	}
	return nil
}

func TestParseKnownFields(t *testing.T) {
	p := defaultParser(t)

	result := p.Parse("Age: 45\nCholesterol = 230 mg/dL\nSmoking: No\nBlood Pressure: 130/85\nGender: male")
	require.True(t, result.Success)
	assert.Empty(t, result.UnknownFields)
	require.Len(t, result.ParsedFields, 5)

	age := findField(result.ParsedFields, "age")
	require.NotNil(t, age)
	assert.Equal(t, 45.0, age.Value)
	assert.Equal(t, ConfidenceHigh, age.Confidence)
	assert.Equal(t, "Age", age.Label)
	assert.Equal(t, 1, age.LineNumber)

	chol := findField(result.ParsedFields, "cholesterol")
	require.NotNil(t, chol)
	assert.Equal(t, 230.0, chol.Value)

	smoking := findField(result.ParsedFields, "smoking")
	require.NotNil(t, smoking)
	assert.Equal(t, false, smoking.Value)

	bp := findField(result.ParsedFields, "bloodPressure")
	require.NotNil(t, bp)
	assert.Equal(t, "130/85", bp.Value)

	gender := findField(result.ParsedFields, "gender")
	require.NotNil(t, gender)
	assert.Equal(t, "male", gender.Value)
}

// Labels the schema does not recognize must end up in unknownFields, never
// in parsedFields.
func TestParseNonHallucination(t *testing.T) {
	p := defaultParser(t)

	result := p.Parse("Favorite Color: Blue")
	require.True(t, result.Success)
	assert.Empty(t, result.ParsedFields)
	require.Len(t, result.UnknownFields, 1)
	assert.Contains(t, result.UnknownFields[0].Label, "Favorite Color")
	assert.Equal(t, "Blue", result.UnknownFields[0].Value)
	assert.True(t, result.UnknownFields[0].UnknownMarker)
}

// A recognized field with an out-of-range value is dropped entirely: it
// appears in neither list, and a later valid line may still set the field.
func TestParseRangeRejection(t *testing.T) {
	p := defaultParser(t)

	result := p.Parse("Age: 150")
	assert.Empty(t, result.ParsedFields)
	assert.Empty(t, result.UnknownFields)

	result = p.Parse("Age: 150\nAge: 50")
	require.Len(t, result.ParsedFields, 1)
	assert.Equal(t, "age", result.ParsedFields[0].FieldKey)
	assert.Equal(t, 50.0, result.ParsedFields[0].Value)
	assert.Equal(t, 2, result.ParsedFields[0].LineNumber)
}

// First occurrence per field key wins for the whole document.
func TestParseDeduplication(t *testing.T) {
	p := defaultParser(t)

	result := p.Parse("Age: 45\nWeight: 80\nAge: 50")
	require.Len(t, result.ParsedFields, 2)
	age := findField(result.ParsedFields, "age")
	require.NotNil(t, age)
	assert.Equal(t, 45.0, age.Value)
	assert.Equal(t, 1, age.LineNumber)
}

func TestParseIdempotence(t *testing.T) {
	p := defaultParser(t)
	text := "Age: 45\nMystery Field: 7\nCholesterol: 230\n\nBP: 120/80"

	first := p.Parse(text)
	second := p.Parse(text)
	assert.Equal(t, first, second)
}

// Every synonym in the dictionary, passed alone as a label with a valid
// value, must resolve to its owning field with high confidence.
func TestParseSynonymRoundTrip(t *testing.T) {
	reg, err := schema.Default()
	require.NoError(t, err)
	p := NewParser(reg)

	for _, field := range reg.Fields() {
		for _, syn := range field.Synonyms {
			line := fmt.Sprintf("%s: %s", syn, validRawValue(field))
			result := p.Parse(line)
			require.Len(t, result.ParsedFields, 1, "synonym %q of field %q", syn, field.Key)
			assert.Equal(t, field.Key, result.ParsedFields[0].FieldKey, "synonym %q", syn)
			assert.Equal(t, ConfidenceHigh, result.ParsedFields[0].Confidence, "synonym %q", syn)
			assert.Empty(t, result.UnknownFields, "synonym %q", syn)
		}
	}
}

func validRawValue(field schema.Field) string {
	switch field.Type {
	case schema.TypeNumber:
		if field.Range != nil {
			return fmt.Sprintf("%v", (field.Range.Min+field.Range.Max)/2)
		}
		return "42"
	case schema.TypeBoolean:
		return "yes"
	case schema.TypeBloodPressure:
		return "130/85"
	default:
		return "some value"
	}
}

// The medical pattern table catches domain phrasing the generic label/value
// shapes miss.
func TestParseMedicalPatterns(t *testing.T) {
	p := defaultParser(t)

	tests := []struct {
		name      string
		line      string
		wantKey   string
		wantValue any
	}{
		{name: "age prose", line: "Patient is 63 years old", wantKey: "age", wantValue: 63.0},
		{name: "sleep prose", line: "Patient sleeps about 7 hours nightly", wantKey: "sleepHours", wantValue: 7.0},
		{name: "hdl prose", line: "HDL was 45 on the last panel", wantKey: "hdlCholesterol", wantValue: 45.0},
		{name: "chest pain phrase", line: "Reports typical angina on exertion", wantKey: "chestPainType", wantValue: "typical angina"},
		{name: "blood pressure prose", line: "Blood pressure was 130/85 at rest", wantKey: "bloodPressure", wantValue: "130/85"},
		{name: "cholesterol prose", line: "Total cholesterol was 230 with normal HDL", wantKey: "cholesterol", wantValue: 230.0},
		{name: "heart rate prose", line: "Pulse was 72 and regular", wantKey: "restingHeartRate", wantValue: 72.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Parse(tt.line)
			require.Len(t, result.ParsedFields, 1, "line %q", tt.line)
			f := result.ParsedFields[0]
			assert.Equal(t, tt.wantKey, f.FieldKey)
			assert.Equal(t, tt.wantValue, f.Value)
			assert.Equal(t, ConfidenceHigh, f.Confidence)
		})
	}
}

// Once a strategy structurally splits a line, its outcome stands: a label
// that then fails semantic matching makes the line unknown, even if a later
// strategy could have salvaged it.
func TestParseFirstStructuralMatchWins(t *testing.T) {
	p := defaultParser(t)

	result := p.Parse("Glucose level: also check HDL 45")
	assert.Empty(t, result.ParsedFields, "HDL must not be extracted once the colon split decided the line")
	require.Len(t, result.UnknownFields, 1)
	assert.Equal(t, "Glucose level", result.UnknownFields[0].Label)
}

// Lines that match no strategy at all contribute nothing.
func TestParseUnparsedLines(t *testing.T) {
	p := defaultParser(t)

	result := p.Parse("Follow-up recommended in two weeks\n\n   \nNo acute distress noted")
	assert.True(t, result.Success)
	assert.Empty(t, result.ParsedFields)
	assert.Empty(t, result.UnknownFields)
	assert.Equal(t, "Follow-up recommended in two weeks\n\n   \nNo acute distress noted", result.FullText)
}

// Labels containing '=' fall through to the first-colon split.
func TestParseColonFallback(t *testing.T) {
	p := defaultParser(t)

	result := p.Parse("BMI (wt/ht^2 = index): 27.5")
	require.Len(t, result.ParsedFields, 1)
	assert.Equal(t, "bmi", result.ParsedFields[0].FieldKey)
	assert.Equal(t, 27.5, result.ParsedFields[0].Value)
}
