package model

import "time"

// QualityCategory classifies a single opinion's precedential standing
type QualityCategory string

const (
	QualityGood         QualityCategory = "good"
	QualityQuestionable QualityCategory = "questionable"
	QualityOverruled    QualityCategory = "overruled"
	QualitySuperseded   QualityCategory = "superseded"
	QualityUncertain    QualityCategory = "uncertain"
)

// NodeAssessment is the reusable per-opinion quality judgment. It is keyed by
// opinion id independent of which analysis tree discovered it, so concurrent
// analyses of different roots share entries. Immutable once written for a
// given version; a forced refresh writes a new version instead of mutating
// history.
type NodeAssessment struct {
	OpinionID    string               `json:"opinion_id"`
	Version      string               `json:"version"` // Assigned by the store on write
	Category     QualityCategory      `json:"category"`
	Confidence   float64              `json:"confidence"` // 0..1
	RiskScore    int                  `json:"risk_score"` // 0-100, higher = less reliable
	IsOverruled  bool                 `json:"is_overruled"`
	IsQuestioned bool                 `json:"is_questioned"`
	IsCriticized bool                 `json:"is_criticized"`
	Summary      string               `json:"summary,omitempty"`
	Treatment    *TreatmentAssessment `json:"treatment,omitempty"`
	AnalyzedAt   time.Time            `json:"analyzed_at"`
}

// UncertainAssessment builds the placeholder recorded when an opinion could
// not be resolved or assessed. Traversal continues past these.
func UncertainAssessment(opinionID, reason string) *NodeAssessment {
	return &NodeAssessment{
		OpinionID:  opinionID,
		Category:   QualityUncertain,
		Confidence: 0.05,
		RiskScore:  50,
		Summary:    reason,
		AnalyzedAt: time.Now().UTC(),
	}
}
