// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cardioproj/cardio-mcp/internal/report"
	"github.com/cardioproj/cardio-mcp/internal/schema"
)

// MetadataParseClinicalReport describes the parse_clinical_report tool.
var MetadataParseClinicalReport = &mcp.Tool{
	Name: "parse_clinical_report",
	Description: "Parse unstructured clinical report text and return structured patient fields " +
		"for intake form population. Each recognized field carries a canonical field key, a " +
		"normalized value, and a confidence tier (high/medium/low). Labels the field schema " +
		"does not recognize are returned separately as unknown fields and must be reviewed by " +
		"a human; they are never auto-filled. Values that fail range validation are dropped.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Raw text of the clinical report to parse",
			},
			"source_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional identifier for the report (file path, upload id, etc.).",
			},
			"min_confidence": map[string]interface{}{
				"type":        "string",
				"description": "Optional minimum confidence tier for returned fields. One of: high, medium, low (default low, i.e. all fields).",
				"enum":        []string{"high", "medium", "low"},
			},
		},
	},
}

// InputParseClinicalReport is the input for the ParseClinicalReport tool.
type InputParseClinicalReport struct {
	Content       string `json:"content"`
	SourceID      string `json:"source_id"`
	MinConfidence string `json:"min_confidence"`
}

// OutputParseClinicalReport is the output for the ParseClinicalReport tool.
type OutputParseClinicalReport struct {
	// ParsedFields are the recognized, validated fields in first-seen order.
	ParsedFields []report.ParsedField `json:"parsedFields"`
	// UnknownFields are labels the schema does not recognize, for review.
	UnknownFields []report.UnknownField `json:"unknownFields"`
	// FormData is the fieldKey -> value map ready for form population.
	FormData map[string]any `json:"formData"`
	// SourceID echoes the input identifier.
	SourceID string `json:"source_id,omitempty"`
}

// defaultParser loads the embedded field registry once; the registry is
// immutable and the parser is safe for concurrent use.
var defaultParser = sync.OnceValues(func() (*report.Parser, error) {
	reg, err := schema.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load field schema: %w", err)
	}
	return report.NewParser(reg), nil
})

// ParseClinicalReport runs the extraction pipeline over the provided report
// text and returns recognized and unknown fields.
func ParseClinicalReport(ctx context.Context, _ *mcp.CallToolRequest, input InputParseClinicalReport) (*mcp.CallToolResult, OutputParseClinicalReport, error) {
	if input.Content == "" {
		return nil, OutputParseClinicalReport{}, fmt.Errorf("content is required")
	}

	parser, err := defaultParser()
	if err != nil {
		return nil, OutputParseClinicalReport{}, err
	}

	result := parser.Parse(input.Content)

	fields := result.ParsedFields
	if input.MinConfidence != "" {
		fields = report.FilterByConfidence(fields, report.Confidence(input.MinConfidence))
	}

	return nil, OutputParseClinicalReport{
		ParsedFields:  fields,
		UnknownFields: result.UnknownFields,
		FormData:      report.ConvertToFormData(fields),
		SourceID:      input.SourceID,
	}, nil
}
