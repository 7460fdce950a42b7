package model

// RiskLevel is the risk classification the model is asked to assign.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Valid reports whether the level is one of the three requested values.
// The analyzer does not enforce this — the model occasionally invents
// variants and rejecting them would throw away an otherwise usable
// insight. Presentation layers can use this to decide how to render.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// StructuredInsight is the validated record extracted from model output.
// It is only ever produced by parsing a JSON object out of a model
// response; the analyzer never fills defaults into it.
type StructuredInsight struct {
	KeyPoints  []string  `json:"key_points"`
	RiskLevel  RiskLevel `json:"risk_level"`
	RiskReason string    `json:"risk_reason"`
	Summary    string    `json:"summary"`
}
