package domain

import "time"

// InsightType classifies a generated finding.
type InsightType string

const (
	InsightStrength       InsightType = "strength"
	InsightWeakness       InsightType = "weakness"
	InsightTrend          InsightType = "trend"
	InsightRecommendation InsightType = "recommendation"
	InsightTendency       InsightType = "tendency"
	InsightAlert          InsightType = "alert"
)

// Valid reports whether the type is one of the declared values.
func (t InsightType) Valid() bool {
	switch t {
	case InsightStrength, InsightWeakness, InsightTrend,
		InsightRecommendation, InsightTendency, InsightAlert:
		return true
	}
	return false
}

// Insight is a typed, confidence-scored coaching finding with concrete
// action items. Created once; an external reviewer may later dismiss it.
type Insight struct {
	ID             string                 `json:"id"`
	FileID         string                 `json:"file_id"`
	Type           InsightType            `json:"insight_type"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Confidence     float64                `json:"confidence"`
	SupportingData map[string]interface{} `json:"supporting_data,omitempty"`
	ActionItems    []string               `json:"action_items,omitempty"`
	Dismissed      bool                   `json:"dismissed"`
	CreatedAt      time.Time              `json:"created_at"`
}
