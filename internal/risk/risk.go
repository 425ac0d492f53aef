// SPDX-License-Identifier: Apache-2.0

// Package risk scores cardiovascular risk from patient attributes with a
// deterministic heuristic ensemble: three rule-based sub-scorers whose
// weighted average yields a 0-100 risk percentage. Confidence reflects
// agreement between the sub-scorers.
package risk

import (
	"fmt"
	"math"
	"time"
)

// PatientData carries the attributes the ensemble scores. Field names and
// bounds follow the standard heart-disease dataset encoding.
type PatientData struct {
	Age               float64 `json:"age"`
	Sex               int     `json:"sex"`      // 0=female, 1=male
	ChestPainType     int     `json:"cp"`       // 0-3
	RestingBP         float64 `json:"trestbps"` // mmHg
	Cholesterol       float64 `json:"chol"`     // mg/dL
	FastingBloodSugar int     `json:"fbs"`      // >120 mg/dL: 0=no, 1=yes
	RestingECG        int     `json:"restecg"`  // 0-2
	MaxHeartRate      float64 `json:"thalach"`  // bpm
	ExerciseAngina    int     `json:"exang"`    // 0=no, 1=yes
	OldPeak           float64 `json:"oldpeak"`  // ST depression
	Slope             int     `json:"slope"`    // 0-2
	MajorVessels      int     `json:"ca"`       // 0-4
	Thalassemia       int     `json:"thal"`     // 0-3
}

// Validate rejects attribute values outside the accepted encoding before
// any scoring happens; this is the caller-contract boundary.
func (p PatientData) Validate() error {
	checks := []struct {
		name     string
		value    float64
		min, max float64
	}{
		{"age", p.Age, 0, 120},
		{"sex", float64(p.Sex), 0, 1},
		{"cp", float64(p.ChestPainType), 0, 3},
		{"trestbps", p.RestingBP, 0, 300},
		{"chol", p.Cholesterol, 0, 600},
		{"fbs", float64(p.FastingBloodSugar), 0, 1},
		{"restecg", float64(p.RestingECG), 0, 2},
		{"thalach", p.MaxHeartRate, 0, 250},
		{"exang", float64(p.ExerciseAngina), 0, 1},
		{"oldpeak", p.OldPeak, 0, 10},
		{"slope", float64(p.Slope), 0, 2},
		{"ca", float64(p.MajorVessels), 0, 4},
		{"thal", float64(p.Thalassemia), 0, 3},
	}
	for _, c := range checks {
		if c.value < c.min || c.value > c.max {
			return fmt.Errorf("%s %v outside accepted range [%v, %v]", c.name, c.value, c.min, c.max)
		}
	}
	return nil
}

// Prediction is the ensemble output for one patient.
type Prediction struct {
	RiskScore          float64            `json:"risk_score"` // 0-100
	RiskLevel          string             `json:"risk_level"` // low, medium, high, very-high
	Confidence         float64            `json:"confidence"` // 0-100
	ModelPredictions   map[string]float64 `json:"model_predictions"`
	EnsemblePrediction float64            `json:"ensemble_prediction"`
	PredictionTimeMS   float64            `json:"prediction_time_ms"`
	Timestamp          string             `json:"timestamp"`
}

// features are the engineered inputs shared by the sub-scorers.
type features struct {
	ageGroup      float64 // 0-3
	cholRisk      float64 // cholesterol > 240
	bpRisk        float64 // resting BP > 140
	hrReserve     float64 // achieved fraction of predicted max HR
	compositeRisk float64
	stBurden      float64 // oldpeak scaled to [0,1]
}

func engineer(p PatientData) features {
	var ageGroup float64
	switch {
	case p.Age < 40:
		ageGroup = 0
	case p.Age < 50:
		ageGroup = 1
	case p.Age < 60:
		ageGroup = 2
	default:
		ageGroup = 3
	}

	f := features{ageGroup: ageGroup}
	if p.Cholesterol > 240 {
		f.cholRisk = 1
	}
	if p.RestingBP > 140 {
		f.bpRisk = 1
	}
	predictedMax := 220 - p.Age
	if predictedMax > 0 {
		f.hrReserve = p.MaxHeartRate / predictedMax
	}
	f.compositeRisk = (p.Age/100)*0.3 + (p.RestingBP/200)*0.3 + (p.Cholesterol/300)*0.4
	f.stBurden = math.Min(p.OldPeak/4, 1)
	return f
}

// Scorer combines the sub-scorers with fixed ensemble weights.
type Scorer struct {
	weights map[string]float64
}

// DefaultWeights mirror the trained ensemble's model weighting.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		"gradient": 0.40,
		"forest":   0.35,
		"network":  0.25,
	}
}

// NewScorer builds a scorer with the default ensemble weights.
func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

// Weights exposes the ensemble weights for the model-info surfaces.
func (s *Scorer) Weights() map[string]float64 {
	out := make(map[string]float64, len(s.weights))
	for k, v := range s.weights {
		out[k] = v
	}
	return out
}

// Predict scores a single patient. Deterministic for identical input.
func (s *Scorer) Predict(p PatientData) (*Prediction, error) {
	start := time.Now()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	f := engineer(p)
	subs := map[string]float64{
		"gradient": gradientScore(p, f) * 100,
		"forest":   forestScore(p, f) * 100,
		"network":  networkScore(p, f) * 100,
	}

	var weighted, totalWeight float64
	for name, pct := range subs {
		w := s.weights[name]
		weighted += (pct / 100) * w
		totalWeight += w
	}
	ensemble := 0.5
	if totalWeight > 0 {
		ensemble = weighted / totalWeight
	}
	score := ensemble * 100

	return &Prediction{
		RiskScore:          round2(score),
		RiskLevel:          Level(score),
		Confidence:         round2(agreementConfidence(subs)),
		ModelPredictions:   subs,
		EnsemblePrediction: round2(score),
		PredictionTimeMS:   round2(float64(time.Since(start).Microseconds()) / 1000),
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// PredictBatch scores patients independently, in order. The first invalid
// patient aborts the batch.
func (s *Scorer) PredictBatch(patients []PatientData) ([]*Prediction, error) {
	out := make([]*Prediction, 0, len(patients))
	for i, p := range patients {
		pred, err := s.Predict(p)
		if err != nil {
			return nil, fmt.Errorf("patient %d: %w", i, err)
		}
		out = append(out, pred)
	}
	return out, nil
}

// Level buckets a 0-100 risk score.
func Level(score float64) string {
	switch {
	case score < 30:
		return "low"
	case score < 50:
		return "medium"
	case score < 70:
		return "high"
	default:
		return "very-high"
	}
}

// gradientScore is a logistic model over the engineered features.
func gradientScore(p PatientData, f features) float64 {
	z := -2.1 +
		1.8*f.compositeRisk +
		0.45*f.ageGroup +
		0.9*f.cholRisk +
		0.8*f.bpRisk +
		1.2*(1-clamp01(f.hrReserve)) +
		1.1*f.stBurden +
		0.7*float64(p.ExerciseAngina) +
		0.35*float64(p.MajorVessels)
	return 1 / (1 + math.Exp(-z))
}

// forestScore counts discrete risk factors, like a depth-one tree vote.
func forestScore(p PatientData, f features) float64 {
	votes, total := 0.0, 9.0
	votes += f.cholRisk
	votes += f.bpRisk
	if f.ageGroup >= 2 {
		votes++
	}
	if f.hrReserve > 0 && f.hrReserve < 0.7 {
		votes++
	}
	if p.OldPeak >= 2 {
		votes++
	}
	if p.ExerciseAngina == 1 {
		votes++
	}
	if p.MajorVessels >= 1 {
		votes++
	}
	if p.FastingBloodSugar == 1 {
		votes++
	}
	if p.ChestPainType >= 2 {
		votes++
	}
	return votes / total
}

// networkScore blends the continuous features smoothly.
func networkScore(p PatientData, f features) float64 {
	base := 0.35*f.compositeRisk +
		0.20*(f.ageGroup/3) +
		0.20*f.stBurden +
		0.15*(1-clamp01(f.hrReserve)) +
		0.10*float64(p.ExerciseAngina)
	if p.Sex == 1 {
		base += 0.05
	}
	return clamp01(base)
}

// agreementConfidence is 100 minus the population standard deviation of the
// sub-scores, clamped to [0,100]; disagreement lowers confidence.
func agreementConfidence(subs map[string]float64) float64 {
	if len(subs) < 2 {
		return 85.0
	}
	var sum float64
	for _, v := range subs {
		sum += v
	}
	mean := sum / float64(len(subs))
	var variance float64
	for _, v := range subs {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(subs))
	conf := 100 - math.Sqrt(variance)
	return math.Max(0, math.Min(100, conf))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
