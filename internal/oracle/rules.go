package oracle

import (
	"context"
	"fmt"

	"github.com/okravets/shepard/internal/model"
)

// RulesProvider derives a judgment directly from the treatment assessment.
// It is deterministic, needs no network, and is the default when no remote
// provider is configured.
type RulesProvider struct{}

// NewRulesProvider creates the rule-based provider
func NewRulesProvider() *RulesProvider {
	return &RulesProvider{}
}

// Name returns the provider name
func (p *RulesProvider) Name() string {
	return "rules"
}

// Assess maps the treatment assessment onto a quality judgment
func (p *RulesProvider) Assess(ctx context.Context, req Request) (*Judgment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := req.Treatment
	j := &Judgment{
		Confidence: t.Confidence,
	}

	switch {
	case isOverrulingCategory(t.DominantCategory):
		j.Category = model.QualityOverruled
		j.IsOverruled = true
		j.RiskScore = 85 + scale(t.Confidence, 15)
	case t.DominantCategory == model.TreatmentSuperseded:
		j.Category = model.QualitySuperseded
		j.IsOverruled = true
		j.RiskScore = 80 + scale(t.Confidence, 15)
	case t.Severity == model.PolarityNegative:
		j.Category = model.QualityQuestionable
		j.IsQuestioned = t.DominantCategory == model.TreatmentQuestioned
		j.IsCriticized = t.DominantCategory == model.TreatmentCriticized
		j.RiskScore = 45 + scale(t.Confidence, 25)
	case t.Severity == model.PolarityPositive:
		j.Category = model.QualityGood
		j.RiskScore = 10
	case t.DominantCategory == model.TreatmentUnknown:
		// No excerpts describe this opinion at all
		j.Category = model.QualityUncertain
		j.Confidence = 0.2
		j.RiskScore = 40
	default:
		j.Category = model.QualityGood
		j.RiskScore = 25
	}

	j.Summary = fmt.Sprintf("Rule-based judgment from citation treatment: dominant=%s severity=%s (neg=%d pos=%d neutral=%d)",
		t.DominantCategory, t.Severity, t.NegativeCount, t.PositiveCount, t.NeutralCount)
	return j, nil
}

func isOverrulingCategory(c model.TreatmentCategory) bool {
	switch c {
	case model.TreatmentOverruled, model.TreatmentAbrogated,
		model.TreatmentReversed, model.TreatmentVacated:
		return true
	}
	return false
}

// scale maps a 0..1 confidence onto 0..span
func scale(confidence float64, span int) int {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return int(confidence * float64(span))
}
