// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cardioproj/cardio-mcp/internal/risk"
)

// MetadataPredictCardiacRisk describes the predict_cardiac_risk tool.
var MetadataPredictCardiacRisk = &mcp.Tool{
	Name: "predict_cardiac_risk",
	Description: "Score cardiovascular risk for a single patient using the deterministic " +
		"heuristic ensemble. Returns a 0-100 risk score, a bucketed risk level " +
		"(low/medium/high/very-high), per-model sub-scores, and an agreement-based " +
		"confidence. Attribute encoding follows the standard heart-disease dataset.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"age", "sex", "trestbps", "chol", "thalach"},
		"properties": map[string]interface{}{
			"age":      map[string]interface{}{"type": "number", "description": "Age in years (0-120)"},
			"sex":      map[string]interface{}{"type": "integer", "description": "Sex (0=female, 1=male)"},
			"cp":       map[string]interface{}{"type": "integer", "description": "Chest pain type (0-3)"},
			"trestbps": map[string]interface{}{"type": "number", "description": "Resting blood pressure in mmHg"},
			"chol":     map[string]interface{}{"type": "number", "description": "Serum cholesterol in mg/dL"},
			"fbs":      map[string]interface{}{"type": "integer", "description": "Fasting blood sugar > 120 mg/dL (0=no, 1=yes)"},
			"restecg":  map[string]interface{}{"type": "integer", "description": "Resting ECG result (0-2)"},
			"thalach":  map[string]interface{}{"type": "number", "description": "Maximum heart rate achieved"},
			"exang":    map[string]interface{}{"type": "integer", "description": "Exercise induced angina (0=no, 1=yes)"},
			"oldpeak":  map[string]interface{}{"type": "number", "description": "ST depression (0-10)"},
			"slope":    map[string]interface{}{"type": "integer", "description": "Slope of peak exercise ST segment (0-2)"},
			"ca":       map[string]interface{}{"type": "integer", "description": "Major vessels colored by fluoroscopy (0-4)"},
			"thal":     map[string]interface{}{"type": "integer", "description": "Thalassemia (0-3)"},
		},
	},
}

// OutputPredictCardiacRisk is the output for the PredictCardiacRisk tool.
type OutputPredictCardiacRisk struct {
	Prediction *risk.Prediction `json:"prediction"`
}

// PredictCardiacRisk scores a patient with the default ensemble weights.
func PredictCardiacRisk(ctx context.Context, _ *mcp.CallToolRequest, input risk.PatientData) (*mcp.CallToolResult, OutputPredictCardiacRisk, error) {
	pred, err := risk.NewScorer().Predict(input)
	if err != nil {
		return nil, OutputPredictCardiacRisk{}, err
	}
	return nil, OutputPredictCardiacRisk{Prediction: pred}, nil
}
