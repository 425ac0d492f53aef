// SPDX-License-Identifier: Apache-2.0

// Package history persists prediction records per user so the dashboard can
// show past assessments.
package history

import "time"

// Record is one stored prediction with a minimal patient snapshot.
type Record struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	CreatedAt             time.Time `json:"created_at"`
	RiskLevel             string    `json:"risk_level"`
	RiskScore             float64   `json:"risk_score"`
	Confidence            float64   `json:"confidence"`
	Prediction            string    `json:"prediction"`
	Explanation           string    `json:"explanation"`
	Recommendations       []string  `json:"recommendations"`
	PatientAge            float64   `json:"patient_age"`
	PatientGender         string    `json:"patient_gender"`
	RestingBP             float64   `json:"resting_bp"`
	Cholesterol           float64   `json:"cholesterol"`
	FastingBloodSugar     bool      `json:"blood_sugar_fasting"`
	MaxHeartRate          float64   `json:"max_heart_rate"`
	ExerciseInducedAngina bool      `json:"exercise_induced_angina"`
	OldPeak               float64   `json:"oldpeak"`
	STSlope               string    `json:"st_slope"`
}
