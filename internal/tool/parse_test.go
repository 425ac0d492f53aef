// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardioproj/cardio-mcp/internal/report"
)

func TestParseClinicalReport(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}

	tests := []struct {
		name           string
		input          InputParseClinicalReport
		wantErr        bool
		errContains    string
		validateOutput func(t *testing.T, output OutputParseClinicalReport)
	}{
		{
			name:        "empty content returns error",
			input:       InputParseClinicalReport{Content: ""},
			wantErr:     true,
			errContains: "content is required",
		},
		{
			name: "labeled report produces fields and form data",
			input: InputParseClinicalReport{
				Content:  "Age: 45\nCholesterol: 230 mg/dL\nSmoking: No\nBlood Pressure: 130/85",
				SourceID: "intake-001.txt",
			},
			wantErr: false,
			validateOutput: func(t *testing.T, output OutputParseClinicalReport) {
				assert.Equal(t, "intake-001.txt", output.SourceID)
				assert.Len(t, output.ParsedFields, 4)
				assert.Empty(t, output.UnknownFields)
				for _, f := range output.ParsedFields {
					assert.NotEmpty(t, f.FieldKey, "field must carry a canonical key")
					assert.NotNil(t, f.Value, "field must carry a value")
					assert.Greater(t, f.LineNumber, 0, "field must reference its source line")
				}
				assert.Equal(t, 45.0, output.FormData["age"])
				assert.Equal(t, "130/85", output.FormData["bloodPressure"])
			},
		},
		{
			name: "unrecognized labels are surfaced, never auto-filled",
			input: InputParseClinicalReport{
				Content: "Favorite Color: Blue\nAge: 45",
			},
			wantErr: false,
			validateOutput: func(t *testing.T, output OutputParseClinicalReport) {
				require.Len(t, output.UnknownFields, 1)
				assert.Equal(t, "Favorite Color", output.UnknownFields[0].Label)
				assert.True(t, output.UnknownFields[0].UnknownMarker)
				assert.NotContains(t, output.FormData, "Favorite Color")
				assert.Contains(t, output.FormData, "age")
			},
		},
		{
			name: "prose report parsed through medical patterns",
			input: InputParseClinicalReport{
				Content: "Patient is 63 years old.\nBlood pressure was 130/85 at rest.",
			},
			wantErr: false,
			validateOutput: func(t *testing.T, output OutputParseClinicalReport) {
				assert.Equal(t, 63.0, output.FormData["age"])
				assert.Equal(t, "130/85", output.FormData["bloodPressure"])
			},
		},
		{
			name: "min_confidence filters lower tiers",
			input: InputParseClinicalReport{
				// "Serum cholesterol level" resolves by containment, a
				// medium-confidence tier; "Age" matches exactly.
				Content:       "Age: 45\nSerum cholesterol level: 230",
				MinConfidence: string(report.ConfidenceHigh),
			},
			wantErr: false,
			validateOutput: func(t *testing.T, output OutputParseClinicalReport) {
				require.Len(t, output.ParsedFields, 1)
				assert.Equal(t, "age", output.ParsedFields[0].FieldKey)
				assert.NotContains(t, output.FormData, "cholesterol")
			},
		},
		{
			name: "out of range values are dropped",
			input: InputParseClinicalReport{
				Content: "Age: 150\nCholesterol: 230",
			},
			wantErr: false,
			validateOutput: func(t *testing.T, output OutputParseClinicalReport) {
				assert.NotContains(t, output.FormData, "age")
				assert.Contains(t, output.FormData, "cholesterol")
				assert.Empty(t, output.UnknownFields)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := ParseClinicalReport(ctx, req, tt.input)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}
