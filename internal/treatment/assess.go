package treatment

import (
	"sort"

	"github.com/okravets/shepard/internal/model"
)

// maxEvidence caps how many signals are carried on the assessment
const maxEvidence = 5

// Assess pools the signals from every excerpt describing one opinion and
// resolves them into a single treatment assessment.
//
// Severity is resolved by priority, not raw score: any negative signal makes
// the assessment negative regardless of how much positive or neutral weight
// is present.
func Assess(excerpts []string) model.TreatmentAssessment {
	var signals []model.TreatmentSignal
	for _, excerpt := range excerpts {
		signals = append(signals, Classify(excerpt)...)
	}
	return AssessSignals(signals)
}

// AssessSignals aggregates already-classified signals
func AssessSignals(signals []model.TreatmentSignal) model.TreatmentAssessment {
	if len(signals) == 0 {
		return model.TreatmentAssessment{
			DominantCategory: model.TreatmentUnknown,
			Severity:         model.PolarityNeutral,
			Confidence:       0,
		}
	}

	sums := map[model.Polarity]int{}
	counts := map[model.Polarity]int{}
	categoryScores := map[model.Polarity]map[model.TreatmentCategory]int{
		model.PolarityNegative: {},
		model.PolarityPositive: {},
		model.PolarityNeutral:  {},
	}
	for _, sig := range signals {
		sums[sig.Polarity] += sig.FinalScore
		counts[sig.Polarity]++
		categoryScores[sig.Polarity][sig.Category] += sig.FinalScore
	}

	var severity model.Polarity
	var winner, runnerUp int
	switch {
	case counts[model.PolarityNegative] > 0:
		severity = model.PolarityNegative
		winner = sums[model.PolarityNegative]
		runnerUp = max(sums[model.PolarityPositive], sums[model.PolarityNeutral])
	case sums[model.PolarityPositive] > sums[model.PolarityNeutral]:
		severity = model.PolarityPositive
		winner = sums[model.PolarityPositive]
		runnerUp = sums[model.PolarityNeutral]
	default:
		severity = model.PolarityNeutral
		winner = sums[model.PolarityNeutral]
		runnerUp = sums[model.PolarityPositive]
	}

	dominant := topCategory(categoryScores[severity])
	if dominant == "" {
		if severity == model.PolarityNeutral {
			dominant = model.TreatmentCited
		} else {
			dominant = model.TreatmentUnknown
		}
	}

	return model.TreatmentAssessment{
		DominantCategory: dominant,
		Severity:         severity,
		Confidence:       confidence(counts[severity], winner, runnerUp),
		NegativeCount:    counts[model.PolarityNegative],
		PositiveCount:    counts[model.PolarityPositive],
		NeutralCount:     counts[model.PolarityNeutral],
		Evidence:         topSignals(signals),
	}
}

// topCategory returns the category with the highest summed score.
// Ties break alphabetically so assessment is deterministic.
func topCategory(scores map[model.TreatmentCategory]int) model.TreatmentCategory {
	var best model.TreatmentCategory
	bestScore := -1
	for category, score := range scores {
		if score > bestScore || (score == bestScore && category < best) {
			best = category
			bestScore = score
		}
	}
	return best
}

// confidence rises monotonically with both the number of corroborating
// signals and the margin between the winning severity and the runner-up.
// Capped at 1.0; a single weak signal still gets a small positive floor.
func confidence(corroborating, winner, runnerUp int) float64 {
	if winner <= 0 {
		return 0.1
	}
	margin := float64(winner-runnerUp) / float64(winner)
	if margin < 0 {
		margin = 0
	}
	conf := 0.3 + 0.4*margin + 0.1*float64(corroborating-1)
	if conf > 1.0 {
		conf = 1.0
	}
	if conf < 0.1 {
		conf = 0.1
	}
	return conf
}

// topSignals returns the strongest signals, negations and high scores first
func topSignals(signals []model.TreatmentSignal) []model.TreatmentSignal {
	sorted := make([]model.TreatmentSignal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsNegation != sorted[j].IsNegation {
			return sorted[i].IsNegation
		}
		return sorted[i].FinalScore > sorted[j].FinalScore
	})
	if len(sorted) > maxEvidence {
		sorted = sorted[:maxEvidence]
	}
	return sorted
}
